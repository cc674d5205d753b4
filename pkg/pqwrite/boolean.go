package pqwrite

import (
	"bytes"

	"github.com/parquet-go/parquet-go/format"
)

// booleanToPage encodes one page of a boolean column. values holds one byte
// per materialized row (0 or 1). Booleans are always Plain encoded: one bit
// per value, packed LSB first. Only the columnTop prefix is null.
func booleanToPage(values []byte, columnTop int, options WriteOptions) (*page, error) {
	var buf bytes.Buffer
	defLevelsByteLength := encodeDefinitionLevels(&buf, columnTop+len(values), options.Version,
		presentAfterTop(columnTop, func(int) bool { return true }))

	var (
		cur   byte
		nbits int
	)
	for _, v := range values {
		if v != 0 {
			cur |= 1 << nbits
		}
		nbits++
		if nbits == 8 {
			buf.WriteByte(cur)
			cur, nbits = 0, 0
		}
	}
	if nbits > 0 {
		buf.WriteByte(cur)
	}

	return buildDataPage(buf.Bytes(), defLevelsByteLength, columnTop+len(values), columnTop, nil, format.Plain), nil
}
