package pqwrite

import (
	"bytes"
	"encoding/binary"
	"math/bits"

	"github.com/parquet-go/parquet-go/format"

	"github.com/nativedb/parquetbridge/pkg/pqwrite/internal/result"
)

// symbolToPages encodes a whole column chunk of a symbol column: a
// dictionary page followed by one or more RLE_DICTIONARY index pages.
// Symbols bypass the regular per-page path because the dictionary spans the
// chunk, not a byte-sliceable sub-range.
//
// keys is the materialized key array for the chunk (negative keys are
// null); symbolOffsets and chars form the external symbol table, holding
// int32-length-prefixed UTF-16LE entries. The dictionary page contains only
// the symbols referenced by the chunk, densely re-indexed in first-use
// order.
func symbolToPages(keys []int32, symbolOffsets []uint64, chars []byte, columnTop, rowsPerPage int, options WriteOptions, encoding format.Encoding) result.Seq[*page] {
	return result.Iter(func(yield func(*page) bool) error {
		if encoding != format.RLEDictionary {
			return errUnsupportedEncoding("symbol", encoding)
		}

		var (
			dictBuf   bytes.Buffer
			dictCount int32
			remap     = make(map[int32]int32)
			indices   = make([]int32, len(keys))
			scratch   [4]byte
		)
		for i, key := range keys {
			if key < 0 {
				indices[i] = -1
				continue
			}
			id, ok := remap[key]
			if !ok {
				offset := symbolOffsets[key]
				units := int32(binary.LittleEndian.Uint32(chars[offset:]))
				value := utf16ToUTF8(chars[offset+4 : offset+4+uint64(2*units)])

				binary.LittleEndian.PutUint32(scratch[:], uint32(len(value)))
				dictBuf.Write(scratch[:])
				dictBuf.Write(value)

				id = dictCount
				remap[key] = id
				dictCount++
			}
			indices[i] = id
		}

		if !yield(buildDictionaryPage(dictBuf.Bytes(), int(dictCount))) {
			return nil
		}

		bitWidth := 1
		if dictCount > 1 {
			bitWidth = bits.Len32(uint32(dictCount - 1))
		}

		// Index pages cover the logical row range, column top included.
		numRows := columnTop + len(keys)
		for offset := 0; offset < numRows; offset += rowsPerPage {
			length := min(rowsPerPage, numRows-offset)

			p, err := symbolIndexPage(indices, columnTop, offset, length, bitWidth, options)
			if err != nil {
				return err
			}
			if !yield(p) {
				return nil
			}
		}
		return nil
	})
}

// symbolIndexPage builds one RLE_DICTIONARY data page covering logical rows
// [offset, offset+length) of the chunk.
func symbolIndexPage(indices []int32, columnTop, offset, length, bitWidth int, options WriteOptions) (*page, error) {
	index := func(row int) int32 { // logical row -> dictionary index, -1 for null
		if row < columnTop {
			return -1
		}
		return indices[row-columnTop]
	}

	var buf bytes.Buffer
	defLevelsByteLength := encodeDefinitionLevels(&buf, length, options.Version,
		func(i int) bool { return index(offset+i) >= 0 })

	var pageIndices []int32
	nullCount := 0
	for row := offset; row < offset+length; row++ {
		if id := index(row); id >= 0 {
			pageIndices = append(pageIndices, id)
		} else {
			nullCount++
		}
	}

	buf.WriteByte(byte(bitWidth))
	encodeBitPackedRun(&buf, pageIndices, bitWidth)

	return buildDataPage(buf.Bytes(), defLevelsByteLength, length, nullCount, nil, format.RLEDictionary), nil
}

// encodeBitPackedRun writes values as a single bit-packed run of the hybrid
// RLE/bit-packing scheme: a varint header of (groups<<1)|1 followed by
// groups of 8 values, each packed LSB first at the given bit width. Tail
// padding packs as zeros and is never read back.
func encodeBitPackedRun(buf *bytes.Buffer, values []int32, width int) {
	groups := (len(values) + 7) / 8
	buf.Write(binary.AppendUvarint(nil, uint64(groups)<<1|1))

	packed := make([]byte, groups*width)
	bitpos := 0
	for _, v := range values {
		for b := 0; b < width; b++ {
			if v>>uint(b)&1 == 1 {
				packed[bitpos>>3] |= 1 << (bitpos & 7)
			}
			bitpos++
		}
	}
	buf.Write(packed)
}
