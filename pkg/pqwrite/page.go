package pqwrite

import (
	"fmt"

	"github.com/parquet-go/parquet-go/compress"
	"github.com/parquet-go/parquet-go/format"

	"github.com/nativedb/parquetbridge/pkg/pqwrite/internal/pfile"
)

// A page is one encoded but not yet compressed unit of a column chunk: the
// definition-level prefix followed by the value payload, plus the metadata
// needed to build its header. Pages are produced, compressed and handed to
// the file sink; they are never retained.
type page struct {
	// data is the uncompressed page body: definition levels then values.
	data []byte

	// defLevelsByteLength is the size of the definition-level prefix within
	// data. V2 pages compress only the bytes after it.
	defLevelsByteLength int

	numValues int // rows in the page, including nulls
	nullCount int

	encoding format.Encoding
	stats    *format.Statistics

	// dictionary pages carry the dictionary value count instead of rows.
	dictionary bool
}

// buildDataPage assembles a page from its already-encoded body. numValues
// counts all rows covered by the page, including the columnTop prefix and
// null rows.
func buildDataPage(data []byte, defLevelsByteLength, numValues, nullCount int, stats *format.Statistics, encoding format.Encoding) *page {
	return &page{
		data:                data,
		defLevelsByteLength: defLevelsByteLength,
		numValues:           numValues,
		nullCount:           nullCount,
		encoding:            encoding,
		stats:               stats,
	}
}

func buildDictionaryPage(data []byte, numValues int) *page {
	return &page{
		data:       data,
		numValues:  numValues,
		encoding:   format.Plain,
		dictionary: true,
	}
}

// compressPage compresses a page body and attaches its header, producing
// the final on-disk form.
//
// V1 pages compress the whole body. V2 pages leave the definition levels
// uncompressed and compress only the value section. Dictionary pages follow
// V1 semantics regardless of version. A nil codec leaves the body as is.
func compressPage(p *page, codec compress.Codec, version Version) (*pfile.CompressedPage, error) {
	uncompressedSize := len(p.data)

	var (
		body []byte
		err  error
	)
	switch {
	case codec == nil:
		body = p.data

	case version == V2 && !p.dictionary:
		levels := p.data[:p.defLevelsByteLength]
		values, err := codec.Encode(nil, p.data[p.defLevelsByteLength:])
		if err != nil {
			return nil, fmt.Errorf("compressing page values: %w", err)
		}
		body = make([]byte, 0, len(levels)+len(values))
		body = append(body, levels...)
		body = append(body, values...)

	default:
		body, err = codec.Encode(nil, p.data)
		if err != nil {
			return nil, fmt.Errorf("compressing page: %w", err)
		}
	}

	header := format.PageHeader{
		UncompressedPageSize: int32(uncompressedSize),
		CompressedPageSize:   int32(len(body)),
	}

	switch {
	case p.dictionary:
		header.Type = format.DictionaryPage
		header.DictionaryPageHeader = &format.DictionaryPageHeader{
			NumValues: int32(p.numValues),
			Encoding:  format.Plain,
		}

	case version == V2:
		header.Type = format.DataPageV2
		header.DataPageHeaderV2 = &format.DataPageHeaderV2{
			NumValues:                  int32(p.numValues),
			NumNulls:                   int32(p.nullCount),
			NumRows:                    int32(p.numValues),
			Encoding:                   p.encoding,
			DefinitionLevelsByteLength: int32(p.defLevelsByteLength),
			IsCompressed:               ptrTo(codec != nil),
		}
		if p.stats != nil {
			header.DataPageHeaderV2.Statistics = *p.stats
		}

	default:
		header.Type = format.DataPage
		header.DataPageHeader = &format.DataPageHeader{
			NumValues:               int32(p.numValues),
			Encoding:                p.encoding,
			DefinitionLevelEncoding: format.RLE,
			RepetitionLevelEncoding: format.RLE,
		}
		if p.stats != nil {
			header.DataPageHeader.Statistics = *p.stats
		}
	}

	return &pfile.CompressedPage{Header: header, Data: body}, nil
}
