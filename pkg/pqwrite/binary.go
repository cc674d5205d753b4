package pqwrite

import (
	"bytes"
	"encoding/binary"

	"github.com/parquet-go/parquet-go/format"
)

// binaryHeaderSize is the size of the int64 length header preceding every
// binary value in the data blob.
const binaryHeaderSize = 8

// binaryToPage encodes one page of a binary column. offsets is the
// materialized sub-range of row descriptors: byte offsets into data, each
// pointing at an int64 length header followed by the value bytes. A
// negative header is the null sentinel and contributes no payload bytes.
//
// Supported encodings are Plain (4-byte little-endian length plus raw bytes
// per non-null row) and DeltaLengthByteArray (delta-bit-packed lengths
// followed by the concatenated raw bytes). Statistics are never computed
// for this family.
func binaryToPage(offsets []int64, data []byte, columnTop int, options WriteOptions, encoding format.Encoding) (*page, error) {
	lengths := make([]int64, len(offsets))
	nullCount := 0
	for i, offset := range offsets {
		length := int64(binary.LittleEndian.Uint64(data[offset : offset+binaryHeaderSize]))
		lengths[i] = length
		if length < 0 {
			nullCount++
		}
	}

	var buf bytes.Buffer
	defLevelsByteLength := encodeDefinitionLevels(&buf, columnTop+len(offsets), options.Version,
		presentAfterTop(columnTop, func(i int) bool { return lengths[i] >= 0 }))

	switch encoding {
	case format.Plain:
		encodeBinaryPlain(&buf, offsets, lengths, data)
	case format.DeltaLengthByteArray:
		encodeBinaryDelta(&buf, offsets, lengths, data, nullCount)
	default:
		return nil, errUnsupportedEncoding("binary", encoding)
	}

	return buildDataPage(buf.Bytes(), defLevelsByteLength, columnTop+len(offsets), columnTop+nullCount, nil, encoding), nil
}

func encodeBinaryPlain(buf *bytes.Buffer, offsets, lengths []int64, data []byte) {
	var scratch [4]byte
	for i, offset := range offsets {
		length := lengths[i]
		if length < 0 {
			continue
		}
		binary.LittleEndian.PutUint32(scratch[:], uint32(length))
		buf.Write(scratch[:])
		valueOffset := offset + binaryHeaderSize
		buf.Write(data[valueOffset : valueOffset+length])
	}
}

func encodeBinaryDelta(buf *bytes.Buffer, offsets, lengths []int64, data []byte, nullCount int) {
	rowCount := len(offsets)
	if rowCount == 0 {
		encodeDeltaBinaryPacked(buf, nil)
		return
	}

	// Reserve capacity for performance reasons only; correctness does not
	// depend on the estimate being exact.
	lastLength := lengths[rowCount-1]
	if lastLength < 0 {
		lastLength = 0
	}
	capacity := int(offsets[rowCount-1]-offsets[0]+lastLength) - (rowCount-1)*binaryHeaderSize
	if capacity > 0 {
		buf.Grow(capacity)
	}

	nonNull := make([]int64, 0, rowCount-nullCount)
	for _, length := range lengths {
		if length >= 0 {
			nonNull = append(nonNull, length)
		}
	}
	encodeDeltaBinaryPacked(buf, nonNull)

	for i, offset := range offsets {
		length := lengths[i]
		if length < 0 {
			continue
		}
		valueOffset := offset + binaryHeaderSize
		buf.Write(data[valueOffset : valueOffset+length])
	}
}
