package pqwrite

import (
	"bytes"
	"encoding/binary"
)

// encodeDefinitionLevels appends the definition-level prefix for one page to
// buf and returns the number of bytes appended. present reports whether row
// i of the page is non-null.
//
// With a flat optional schema the maximum definition level is 1, so levels
// are single bits. They are written as one bit-packed run of the parquet
// hybrid RLE/bit-packing scheme: a varint header of (groups<<1)|1 followed
// by ceil(rowCount/8) bytes, values packed LSB first. V1 pages additionally
// carry a 4-byte little-endian length prefix; V2 pages store the run length
// in the page header instead.
func encodeDefinitionLevels(buf *bytes.Buffer, rowCount int, version Version, present func(i int) bool) int {
	groups := (rowCount + 7) / 8

	run := make([]byte, 0, binary.MaxVarintLen64+groups)
	run = binary.AppendUvarint(run, uint64(groups)<<1|1)

	var (
		cur   byte
		nbits int
	)
	for i := 0; i < rowCount; i++ {
		if present(i) {
			cur |= 1 << nbits
		}
		nbits++
		if nbits == 8 {
			run = append(run, cur)
			cur, nbits = 0, 0
		}
	}
	if nbits > 0 {
		run = append(run, cur)
	}

	written := len(run)
	if version == V1 {
		var prefix [4]byte
		binary.LittleEndian.PutUint32(prefix[:], uint32(len(run)))
		buf.Write(prefix[:])
		written += 4
	}
	buf.Write(run)
	return written
}

// presentAfterTop returns a presence predicate for a page whose first
// columnTop rows are implicitly null and whose remaining rows are reported
// by rest, indexed relative to the materialized sub-range.
func presentAfterTop(columnTop int, rest func(i int) bool) func(i int) bool {
	return func(i int) bool {
		if i < columnTop {
			return false
		}
		return rest(i - columnTop)
	}
}
