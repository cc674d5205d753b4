package pqwrite

import (
	"bytes"

	"github.com/parquet-go/parquet-go/format"
)

// fixedLenBytesToPage encodes one page of a fixed-length field column
// (16-byte Long128/UUID or 32-byte Long256). values is the materialized
// sub-range of the raw element array; the Plain encoding of
// FixedLenByteArray is the bytes themselves, so the payload is a straight
// copy. Only the columnTop prefix is null.
func fixedLenBytesToPage(values []byte, elementSize, columnTop int, options WriteOptions) (*page, error) {
	rows := len(values) / elementSize

	var buf bytes.Buffer
	defLevelsByteLength := encodeDefinitionLevels(&buf, columnTop+rows, options.Version,
		presentAfterTop(columnTop, func(int) bool { return true }))

	buf.Write(values)

	return buildDataPage(buf.Bytes(), defLevelsByteLength, columnTop+rows, columnTop, nil, format.Plain), nil
}
