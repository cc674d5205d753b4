package pqwrite

import (
	"bytes"
	"encoding/binary"

	"github.com/parquet-go/parquet-go/format"
)

// Varchar columns carry one fixed 16-byte auxiliary record per row next to
// a shared UTF-8 data blob:
//
//	bytes 0..4   little-endian header: flags in the low 4 bits, value byte
//	             length in the upper 28 bits
//	bytes 4..13  the value itself when inlined (<= 9 bytes)
//	bytes 4..10  prefix of the value when not inlined
//	bytes 10..16 48-bit little-endian offset into the data blob
const (
	varcharAuxRecordSize = 16

	varcharFlagInlined = 1 << 0
	varcharFlagAscii   = 1 << 1
	varcharFlagNull    = 1 << 2

	varcharMaxInlineBytes = 9
)

// varcharValue extracts row i's value from the aux records, returning nil
// for null rows.
func varcharValue(aux, data []byte, i int) []byte {
	record := aux[i*varcharAuxRecordSize : (i+1)*varcharAuxRecordSize]
	header := binary.LittleEndian.Uint32(record)
	if header&varcharFlagNull != 0 {
		return nil
	}
	length := int(header >> 4)
	if header&varcharFlagInlined != 0 {
		return record[4 : 4+length]
	}
	offset := int64(binary.LittleEndian.Uint64(record[8:]) >> 16)
	return data[offset : offset+int64(length)]
}

// varcharToPage encodes one page of a varchar column. aux is the
// materialized sub-range of 16-byte records; data is the shared UTF-8 blob.
func varcharToPage(aux, data []byte, columnTop int, options WriteOptions, encoding format.Encoding) (*page, error) {
	rows := len(aux) / varcharAuxRecordSize

	values := make([][]byte, rows)
	nullCount := 0
	for i := range values {
		if values[i] = varcharValue(aux, data, i); values[i] == nil {
			nullCount++
		}
	}

	var buf bytes.Buffer
	defLevelsByteLength := encodeDefinitionLevels(&buf, columnTop+rows, options.Version,
		presentAfterTop(columnTop, func(i int) bool { return values[i] != nil }))

	switch encoding {
	case format.Plain:
		encodeByteArraysPlain(&buf, values)
	case format.DeltaLengthByteArray:
		encodeByteArraysDelta(&buf, values, nullCount)
	default:
		return nil, errUnsupportedEncoding("varchar", encoding)
	}

	return buildDataPage(buf.Bytes(), defLevelsByteLength, columnTop+rows, columnTop+nullCount, nil, encoding), nil
}
