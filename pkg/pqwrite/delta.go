package pqwrite

import (
	"bytes"
	"encoding/binary"
	"math/bits"
)

// DELTA_BINARY_PACKED parameters. 128-value blocks split into 4 miniblocks
// of 32, the layout every mainstream reader accepts.
const (
	deltaBlockSize     = 128
	deltaMiniblocks    = 4
	deltaMiniblockSize = deltaBlockSize / deltaMiniblocks
)

// encodeDeltaBinaryPacked appends values to buf in the parquet
// DELTA_BINARY_PACKED layout: a header of <block size> <miniblock count>
// <total count> <first value>, then per block a zigzag minimum delta, one
// bit width per miniblock, and the bit-packed deltas. The header is written
// even for an empty sequence.
func encodeDeltaBinaryPacked(buf *bytes.Buffer, values []int64) {
	header := make([]byte, 0, 3*binary.MaxVarintLen64+binary.MaxVarintLen64)
	header = binary.AppendUvarint(header, deltaBlockSize)
	header = binary.AppendUvarint(header, deltaMiniblocks)
	header = binary.AppendUvarint(header, uint64(len(values)))

	var first int64
	if len(values) > 0 {
		first = values[0]
	}
	header = binary.AppendVarint(header, first)
	buf.Write(header)

	if len(values) < 2 {
		return
	}

	deltas := make([]int64, len(values)-1)
	for i := range deltas {
		deltas[i] = values[i+1] - values[i]
	}

	for start := 0; start < len(deltas); start += deltaBlockSize {
		encodeDeltaBlock(buf, deltas[start:min(start+deltaBlockSize, len(deltas))])
	}
}

func encodeDeltaBlock(buf *bytes.Buffer, block []int64) {
	minDelta := block[0]
	for _, d := range block[1:] {
		if d < minDelta {
			minDelta = d
		}
	}
	buf.Write(binary.AppendVarint(nil, minDelta))

	// Bit widths for all miniblocks are always present; miniblocks beyond
	// the end of the block keep width zero and contribute no data.
	var widths [deltaMiniblocks]byte
	for m := 0; m < deltaMiniblocks; m++ {
		lo := m * deltaMiniblockSize
		if lo >= len(block) {
			break
		}
		hi := min(lo+deltaMiniblockSize, len(block))

		var maxValue uint64
		for _, d := range block[lo:hi] {
			// Two's complement subtraction yields the correct non-negative
			// offset even when the delta range does not fit in int64.
			if v := uint64(d) - uint64(minDelta); v > maxValue {
				maxValue = v
			}
		}
		widths[m] = byte(bits.Len64(maxValue))
	}
	buf.Write(widths[:])

	for m := 0; m < deltaMiniblocks; m++ {
		lo := m * deltaMiniblockSize
		if lo >= len(block) {
			break
		}
		hi := min(lo+deltaMiniblockSize, len(block))

		width := int(widths[m])
		if width == 0 {
			continue
		}

		// A full miniblock is always emitted; values past the end of the
		// block are packed as zeros.
		packed := make([]byte, width*deltaMiniblockSize/8)
		bitpos := 0
		for i := lo; i < hi; i++ {
			v := uint64(block[i]) - uint64(minDelta)
			for b := 0; b < width; b++ {
				if v>>uint(b)&1 == 1 {
					packed[bitpos>>3] |= 1 << (bitpos & 7)
				}
				bitpos++
			}
		}
		buf.Write(packed)
	}
}
