package pqwrite

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"

	"github.com/parquet-go/parquet-go/format"
)

// stringHeaderSize is the size of the int32 header preceding every string
// value in the data blob. The header counts UTF-16 code units, not bytes.
const stringHeaderSize = 4

// stringToPage encodes one page of a native string column. Values are
// stored UTF-16LE with an int32 code-unit count header; a negative header
// is the null sentinel. Values are transcoded to UTF-8 on the way out, as
// the target format requires for string-annotated byte arrays.
func stringToPage(offsets []int64, data []byte, columnTop int, options WriteOptions, encoding format.Encoding) (*page, error) {
	values := make([][]byte, len(offsets))
	nullCount := 0
	for i, offset := range offsets {
		units := int32(binary.LittleEndian.Uint32(data[offset : offset+stringHeaderSize]))
		if units < 0 {
			nullCount++
			continue
		}
		valueOffset := offset + stringHeaderSize
		values[i] = utf16ToUTF8(data[valueOffset : valueOffset+2*int64(units)])
	}

	var buf bytes.Buffer
	defLevelsByteLength := encodeDefinitionLevels(&buf, columnTop+len(offsets), options.Version,
		presentAfterTop(columnTop, func(i int) bool { return values[i] != nil }))

	switch encoding {
	case format.Plain:
		encodeByteArraysPlain(&buf, values)
	case format.DeltaLengthByteArray:
		encodeByteArraysDelta(&buf, values, nullCount)
	default:
		return nil, errUnsupportedEncoding("string", encoding)
	}

	return buildDataPage(buf.Bytes(), defLevelsByteLength, columnTop+len(offsets), columnTop+nullCount, nil, encoding), nil
}

// encodeByteArraysPlain writes non-nil values as 4-byte little-endian
// lengths followed by raw bytes, in row order. nil marks a null row and
// contributes nothing.
func encodeByteArraysPlain(buf *bytes.Buffer, values [][]byte) {
	var scratch [4]byte
	for _, value := range values {
		if value == nil {
			continue
		}
		binary.LittleEndian.PutUint32(scratch[:], uint32(len(value)))
		buf.Write(scratch[:])
		buf.Write(value)
	}
}

// encodeByteArraysDelta writes the delta-bit-packed lengths of non-nil
// values followed by their concatenated bytes.
func encodeByteArraysDelta(buf *bytes.Buffer, values [][]byte, nullCount int) {
	lengths := make([]int64, 0, len(values)-nullCount)
	for _, value := range values {
		if value != nil {
			lengths = append(lengths, int64(len(value)))
		}
	}
	encodeDeltaBinaryPacked(buf, lengths)

	for _, value := range values {
		if value != nil {
			buf.Write(value)
		}
	}
}

// utf16ToUTF8 transcodes UTF-16LE bytes to UTF-8. The result is non-nil
// even for empty input so callers can use nil as the null marker.
func utf16ToUTF8(b []byte) []byte {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	decoded := []byte(string(utf16.Decode(units)))
	if decoded == nil {
		decoded = []byte{}
	}
	return decoded
}
