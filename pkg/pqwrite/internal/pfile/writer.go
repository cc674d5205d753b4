// Package pfile implements the file-level layer of a parquet writer: the
// magic header, thrift-encoded page headers, accumulation of column chunk
// and row group metadata, and the footer.
//
// pfile knows nothing about how pages are encoded; callers hand it fully
// encoded (and compressed) pages in schema order and it takes care of
// offsets and bookkeeping. Metadata structures come from
// [github.com/parquet-go/parquet-go/format] and are serialized with the
// thrift compact protocol, matching what every parquet reader expects.
package pfile

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go/encoding/thrift"
	"github.com/parquet-go/parquet-go/format"
)

const magic = "PAR1"

// A CompressedPage is a fully encoded page body plus its header. The header's
// size fields must describe Data: CompressedPageSize == len(Data).
type CompressedPage struct {
	Header format.PageHeader
	Data   []byte
}

// ColumnInfo describes the column chunk that subsequent calls to
// [Writer.WritePage] belong to.
type ColumnInfo struct {
	PathInSchema []string
	Type         format.Type
	Codec        format.CompressionCodec

	// Compare, when non-nil, is used to aggregate page-level min/max
	// statistics into chunk-level statistics. Operands are plain-encoded
	// values as stored in [format.Statistics]. When nil, chunk statistics
	// carry only null counts.
	Compare func(a, b []byte) int
}

// Writer writes a parquet file to an underlying [io.Writer]. Pages are
// written in streaming fashion; metadata is buffered in memory and written
// as the footer by [Writer.Finish].
//
// The call sequence per file is: [Writer.WriteHeader], then for each row
// group [Writer.StartRowGroup], per column [Writer.StartColumn] +
// [Writer.WritePage]... + [Writer.FinishColumn], then
// [Writer.FinishRowGroup], and finally [Writer.Finish].
type Writer struct {
	w       offsetTrackingWriter
	encoder *thrift.Encoder

	schema    []format.SchemaElement
	version   int32
	createdBy string

	rowGroups []format.RowGroup
	numRows   int64

	group    *groupState
	chunk    *chunkState
	finished bool
}

type groupState struct {
	fileOffset int64
	columns    []format.ColumnChunk
}

type chunkState struct {
	info       ColumnInfo
	fileOffset int64

	numValues        int64
	totalUncompressed int64
	totalCompressed   int64

	dictionaryPageOffset int64
	dataPageOffset       int64

	encodings     []format.Encoding
	encodingStats []format.PageEncodingStats

	nullCount int64
	hasStats  bool
	minValue  []byte
	maxValue  []byte
}

// NewWriter creates a Writer emitting to w. The schema is the full flattened
// schema element list, root first; version is the format version recorded in
// the footer.
func NewWriter(w io.Writer, schema []format.SchemaElement, version int32, createdBy string) *Writer {
	fw := &Writer{
		schema:    schema,
		version:   version,
		createdBy: createdBy,
	}
	fw.w.Reset(w)
	fw.encoder = thrift.NewEncoder(new(thrift.CompactProtocol).NewWriter(&fw.w))
	return fw
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int64 { return w.w.offset }

// WriteHeader writes the magic file header. It is a no-op if data has
// already been written.
func (w *Writer) WriteHeader() error {
	if w.w.offset > 0 {
		return nil
	}
	_, err := w.w.WriteString(magic)
	return err
}

// StartRowGroup begins a new row group.
func (w *Writer) StartRowGroup() {
	w.group = &groupState{fileOffset: w.w.offset}
}

// StartColumn begins a new column chunk within the current row group.
// Columns must be started in schema order.
func (w *Writer) StartColumn(info ColumnInfo) error {
	if w.group == nil {
		return fmt.Errorf("pfile: StartColumn called outside of a row group")
	}
	w.chunk = &chunkState{info: info, fileOffset: w.w.offset}
	return nil
}

// WritePage writes the header and body of one page to the current column
// chunk.
func (w *Writer) WritePage(p *CompressedPage) error {
	c := w.chunk
	if c == nil {
		return fmt.Errorf("pfile: WritePage called outside of a column chunk")
	}
	if int(p.Header.CompressedPageSize) != len(p.Data) {
		return fmt.Errorf("pfile: page header says %d compressed bytes, got %d", p.Header.CompressedPageSize, len(p.Data))
	}

	pageOffset := w.w.offset
	if err := w.encoder.Encode(&p.Header); err != nil {
		return fmt.Errorf("writing page header: %w", err)
	}
	headerSize := w.w.offset - pageOffset
	if _, err := w.w.Write(p.Data); err != nil {
		return fmt.Errorf("writing page data: %w", err)
	}

	c.totalUncompressed += headerSize + int64(p.Header.UncompressedPageSize)
	c.totalCompressed += headerSize + int64(p.Header.CompressedPageSize)

	switch {
	case p.Header.DictionaryPageHeader != nil:
		h := p.Header.DictionaryPageHeader
		if c.dictionaryPageOffset == 0 {
			c.dictionaryPageOffset = pageOffset
		}
		c.observeEncoding(format.DictionaryPage, h.Encoding)

	case p.Header.DataPageHeaderV2 != nil:
		h := p.Header.DataPageHeaderV2
		if c.dataPageOffset == 0 {
			c.dataPageOffset = pageOffset
		}
		c.numValues += int64(h.NumValues)
		c.nullCount += int64(h.NumNulls)
		c.observeEncoding(format.DataPageV2, h.Encoding)
		c.observeEncoding(format.DataPageV2, format.RLE)
		c.mergeStats(w.chunk.info.Compare, &h.Statistics)

	case p.Header.DataPageHeader != nil:
		h := p.Header.DataPageHeader
		if c.dataPageOffset == 0 {
			c.dataPageOffset = pageOffset
		}
		c.numValues += int64(h.NumValues)
		c.nullCount += h.Statistics.NullCount
		c.observeEncoding(format.DataPage, h.Encoding)
		c.observeEncoding(format.DataPage, h.DefinitionLevelEncoding)
		c.mergeStats(w.chunk.info.Compare, &h.Statistics)

	default:
		return fmt.Errorf("pfile: page header carries no page type")
	}
	return nil
}

func (c *chunkState) observeEncoding(pageType format.PageType, enc format.Encoding) {
	for i := range c.encodingStats {
		if c.encodingStats[i].PageType == pageType && c.encodingStats[i].Encoding == enc {
			c.encodingStats[i].Count++
			c.updateEncodingSet(enc)
			return
		}
	}
	c.encodingStats = append(c.encodingStats, format.PageEncodingStats{
		PageType: pageType,
		Encoding: enc,
		Count:    1,
	})
	c.updateEncodingSet(enc)
}

func (c *chunkState) updateEncodingSet(enc format.Encoding) {
	for _, e := range c.encodings {
		if e == enc {
			return
		}
	}
	c.encodings = append(c.encodings, enc)
}

func (c *chunkState) mergeStats(compare func(a, b []byte) int, s *format.Statistics) {
	if compare == nil || s.MinValue == nil || s.MaxValue == nil {
		return
	}
	c.hasStats = true
	if c.minValue == nil || compare(s.MinValue, c.minValue) < 0 {
		c.minValue = s.MinValue
	}
	if c.maxValue == nil || compare(s.MaxValue, c.maxValue) > 0 {
		c.maxValue = s.MaxValue
	}
}

// FinishColumn closes the current column chunk and appends its metadata to
// the current row group.
func (w *Writer) FinishColumn() error {
	c := w.chunk
	if c == nil {
		return fmt.Errorf("pfile: FinishColumn called outside of a column chunk")
	}

	meta := format.ColumnMetaData{
		Type:                  c.info.Type,
		Encoding:              c.encodings,
		PathInSchema:          c.info.PathInSchema,
		Codec:                 c.info.Codec,
		NumValues:             c.numValues,
		TotalUncompressedSize: c.totalUncompressed,
		TotalCompressedSize:   c.totalCompressed,
		DataPageOffset:        c.dataPageOffset,
		DictionaryPageOffset:  c.dictionaryPageOffset,
		EncodingStats:         c.encodingStats,
	}
	if c.hasStats {
		meta.Statistics = format.Statistics{
			NullCount: c.nullCount,
			MinValue:  c.minValue,
			MaxValue:  c.maxValue,
			// Deprecated min/max kept for readers predating MinValue/MaxValue.
			Min: c.minValue,
			Max: c.maxValue,
		}
	}

	w.group.columns = append(w.group.columns, format.ColumnChunk{
		FileOffset: c.fileOffset,
		MetaData:   meta,
	})
	w.chunk = nil
	return nil
}

// FinishRowGroup closes the current row group.
func (w *Writer) FinishRowGroup(numRows int64) error {
	g := w.group
	if g == nil {
		return fmt.Errorf("pfile: FinishRowGroup called outside of a row group")
	}
	if w.chunk != nil {
		return fmt.Errorf("pfile: FinishRowGroup called with an open column chunk")
	}

	var totalBytes, totalCompressed int64
	for i := range g.columns {
		totalBytes += g.columns[i].MetaData.TotalUncompressedSize
		totalCompressed += g.columns[i].MetaData.TotalCompressedSize
	}

	w.rowGroups = append(w.rowGroups, format.RowGroup{
		Columns:             g.columns,
		TotalByteSize:       totalBytes,
		NumRows:             numRows,
		FileOffset:          g.fileOffset,
		TotalCompressedSize: totalCompressed,
		Ordinal:             int16(len(w.rowGroups)),
	})
	w.numRows += numRows
	w.group = nil
	return nil
}

// Finish writes the file footer and returns the total number of bytes
// written. Finish must be called exactly once.
func (w *Writer) Finish() (int64, error) {
	if w.finished {
		return 0, fmt.Errorf("pfile: Finish called twice")
	}
	w.finished = true

	// An empty partition still yields a valid file; make sure the header
	// exists before the footer.
	if err := w.WriteHeader(); err != nil {
		return 0, err
	}

	footer, err := thrift.Marshal(new(thrift.CompactProtocol), &format.FileMetaData{
		Version:   w.version,
		Schema:    w.schema,
		NumRows:   w.numRows,
		RowGroups: w.rowGroups,
		CreatedBy: w.createdBy,
	})
	if err != nil {
		return 0, fmt.Errorf("encoding file metadata: %w", err)
	}

	length := len(footer)
	footer = append(footer, 0, 0, 0, 0)
	footer = append(footer, magic...)
	binary.LittleEndian.PutUint32(footer[length:], uint32(length))

	if _, err := w.w.Write(footer); err != nil {
		return 0, err
	}
	return w.w.offset, nil
}

// offsetTrackingWriter keeps track of how many bytes were written to an
// underlying writer.
type offsetTrackingWriter struct {
	writer io.Writer
	offset int64
}

func (w *offsetTrackingWriter) Reset(writer io.Writer) {
	w.writer = writer
	w.offset = 0
}

func (w *offsetTrackingWriter) Write(b []byte) (int, error) {
	n, err := w.writer.Write(b)
	w.offset += int64(n)
	return n, err
}

func (w *offsetTrackingWriter) WriteString(s string) (int, error) {
	n, err := io.WriteString(w.writer, s)
	w.offset += int64(n)
	return n, err
}
