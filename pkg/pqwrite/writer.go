// Package pqwrite converts in-memory columnar table partitions from the
// storage engine's native layout into parquet byte streams. It is the write
// half of the native-to-parquet bridge.
//
// The pipeline is pull based and single pass: a partition is split into row
// groups, each column of a row group is split into pages under a byte
// budget, and every page is encoded from borrowed buffers without copying
// the source data. Callers own the partition buffers and must keep them
// unmutated for the duration of a write call.
package pqwrite

import (
	"fmt"
	"io"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/parquet-go/parquet-go/format"

	"github.com/nativedb/parquetbridge/pkg/pqwrite/internal/pfile"
	"github.com/nativedb/parquetbridge/pkg/pqwrite/internal/result"
)

const createdBy = "parquetbridge version 0.1.0"

// Writer configures and starts parquet writes to a sink. The zero
// configuration writes uncompressed V1 pages with statistics enabled and
// default row-group and page budgets.
type Writer struct {
	sink io.Writer

	compression compress.Codec
	statistics  bool
	version     Version
	rowGroup    int
	dataPage    int

	logger  log.Logger
	metrics *Metrics
}

// NewWriter creates a new Writer emitting to sink.
func NewWriter(sink io.Writer) *Writer {
	return &Writer{
		sink:       sink,
		statistics: true,
		version:    V1,
		logger:     log.NewNopLogger(),
	}
}

// WithCompression sets the page compression codec. Defaults to
// uncompressed.
func (w *Writer) WithCompression(codec compress.Codec) *Writer {
	w.compression = codec
	return w
}

// WithStatistics toggles computing column statistics.
func (w *Writer) WithStatistics(statistics bool) *Writer {
	w.statistics = statistics
	return w
}

// WithVersion sets the data page format version. Defaults to [V1].
func (w *Writer) WithVersion(version Version) *Writer {
	w.version = version
	return w
}

// WithRowGroupSize overrides the row budget per row group.
func (w *Writer) WithRowGroupSize(rows int) *Writer {
	w.rowGroup = rows
	return w
}

// WithDataPageSize overrides the byte budget per data page.
func (w *Writer) WithDataPageSize(bytes int) *Writer {
	w.dataPage = bytes
	return w
}

// WithConfig applies a validated [WriterConfig].
func (w *Writer) WithConfig(cfg WriterConfig) (*Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	codec, err := cfg.Codec()
	if err != nil {
		return nil, err
	}
	w.compression = codec
	w.statistics = cfg.Statistics
	w.rowGroup = cfg.RowGroupRows
	w.dataPage = int(cfg.PageSize)
	return w, nil
}

// WithLogger sets the logger used for write progress.
func (w *Writer) WithLogger(logger log.Logger) *Writer {
	w.logger = logger
	return w
}

// WithMetrics attaches writer metrics.
func (w *Writer) WithMetrics(metrics *Metrics) *Writer {
	w.metrics = metrics
	return w
}

func (w *Writer) writeOptions() WriteOptions {
	return WriteOptions{
		WriteStatistics: w.statistics,
		Version:         w.version,
		Compression:     w.compression,
		RowGroupSize:    w.rowGroup,
		DataPageSize:    w.dataPage,
	}
}

// Chunked resolves the target schema and per-column encodings from the
// partition's column types, writes the file header and returns a
// ChunkedWriter that appends row batches sharing that schema.
func (w *Writer) Chunked(partition *Partition) (*ChunkedWriter, error) {
	if err := partition.validate(); err != nil {
		return nil, fmt.Errorf("pqwrite: invalid partition: %w", err)
	}

	elements, descriptors, err := schemaElements(partition)
	if err != nil {
		return nil, fmt.Errorf("pqwrite: resolving schema: %w", err)
	}

	fw := pfile.NewWriter(w.sink, elements, int32(w.version), createdBy)
	if err := fw.WriteHeader(); err != nil {
		return nil, fmt.Errorf("pqwrite: writing file header: %w", err)
	}

	return &ChunkedWriter{
		fw:          fw,
		descriptors: descriptors,
		options:     w.writeOptions(),
		logger:      w.logger,
		metrics:     w.metrics,
	}, nil
}

// Finish writes the given partition as a complete file and returns the
// total size in bytes. It is the single-shot form of [Writer.Chunked]
// followed by one WriteChunk and Finish.
func (w *Writer) Finish(partition *Partition) (int64, error) {
	chunked, err := w.Chunked(partition)
	if err != nil {
		return 0, err
	}
	if err := chunked.WriteChunk(partition); err != nil {
		return 0, err
	}
	return chunked.Finish()
}

// ChunkedWriter appends successive row batches to one parquet file. All
// batches must share the schema resolved by [Writer.Chunked].
type ChunkedWriter struct {
	fw          *pfile.Writer
	descriptors []columnDescriptor
	options     WriteOptions

	logger  log.Logger
	metrics *Metrics

	finished bool
}

// WriteChunk splits the partition into row groups and appends them to the
// file. A failure in any column aborts the call; no further data is written
// for that row group and the file must be considered invalid.
func (c *ChunkedWriter) WriteChunk(partition *Partition) error {
	if c.finished {
		return ErrFinished
	}
	if err := partition.validate(); err != nil {
		return fmt.Errorf("pqwrite: invalid partition: %w", err)
	}
	if len(partition.Columns) != len(c.descriptors) {
		return fmt.Errorf("pqwrite: partition has %d columns, schema has %d", len(partition.Columns), len(c.descriptors))
	}

	start := time.Now()

	var (
		totalRows    = partition.RowCount()
		rowGroupSize = c.options.rowGroupSize()
	)
	for offset := 0; offset < totalRows; offset += rowGroupSize {
		length := min(rowGroupSize, totalRows-offset)
		if err := c.writeRowGroup(partition, offset, length); err != nil {
			return err
		}

		c.metrics.observeRowGroup()
		level.Debug(c.logger).Log("msg", "wrote row group", "offset", offset, "rows", length)
	}

	c.metrics.observeChunkEncodeTime(time.Since(start).Seconds())
	return nil
}

func (c *ChunkedWriter) writeRowGroup(partition *Partition, offset, length int) error {
	c.fw.StartRowGroup()

	// Column order must exactly match the schema's field order.
	for i := range partition.Columns {
		var (
			col  = &partition.Columns[i]
			desc = c.descriptors[i]
		)
		if err := c.fw.StartColumn(pfile.ColumnInfo{
			PathInSchema: desc.path,
			Type:         desc.physical.typ,
			Codec:        codecID(c.options.Compression),
			Compare:      desc.compare,
		}); err != nil {
			return err
		}

		for res := range columnChunkPages(col, desc, offset, length, c.options) {
			pg, err := res.Value()
			if err != nil {
				return fmt.Errorf("pqwrite: encoding column %q: %w", col.Name, err)
			}

			compressed, err := compressPage(pg, c.options.Compression, c.options.Version)
			if err != nil {
				return fmt.Errorf("pqwrite: column %q: %w", col.Name, err)
			}
			if err := c.fw.WritePage(compressed); err != nil {
				return fmt.Errorf("pqwrite: column %q: %w", col.Name, err)
			}
			c.metrics.observePage()
		}

		if err := c.fw.FinishColumn(); err != nil {
			return err
		}
	}

	return c.fw.FinishRowGroup(int64(length))
}

// Finish writes the file footer and returns the total file size in bytes.
// The output is only durable and complete once Finish returns.
func (c *ChunkedWriter) Finish() (int64, error) {
	if c.finished {
		return 0, ErrFinished
	}
	c.finished = true

	size, err := c.fw.Finish()
	if err != nil {
		return 0, err
	}

	c.metrics.observeBytes(size)
	level.Info(c.logger).Log("msg", "finished parquet file", "bytes", size)
	return size, nil
}

func codecID(codec compress.Codec) format.CompressionCodec {
	if codec == nil {
		return format.Uncompressed
	}
	return codec.CompressionCodec()
}

// columnChunkPages lazily produces the pages of one column over the row
// range [chunkOffset, chunkOffset+chunkLength). The sequence is finite and
// single pass; each page is independently encodable.
//
// Symbol columns bypass page splitting and delegate to the dictionary
// encoder, which owns its own page layout.
func columnChunkPages(col *Column, desc columnDescriptor, chunkOffset, chunkLength int, options WriteOptions) result.Seq[*page] {
	if col.Type == ColumnTypeSymbol {
		lower, upper, top := materialize(chunkOffset, chunkLength, col.ColumnTop)
		keys := viewOf[int32](col.Data)[lower:upper]
		rowsPerPage := options.dataPageSize() / bytesPerType(format.Int32)
		return symbolToPages(keys, col.SymbolOffsets, col.Aux, top, rowsPerPage, options, desc.encoding)
	}

	rowsPerPage := options.dataPageSize() / bytesPerType(desc.physical.typ)
	return result.Iter(func(yield func(*page) bool) error {
		for offset := 0; offset < chunkLength; offset += rowsPerPage {
			length := min(rowsPerPage, chunkLength-offset)

			pg, err := chunkToPage(col, desc, chunkOffset+offset, length, options)
			if err != nil {
				return err
			}
			if !yield(pg) {
				return nil
			}
		}
		return nil
	})
}

// materialize computes the sub-range of the column's buffers covered by the
// absolute row range [offset, offset+length), along with the number of
// leading rows of the range that precede the column top and are therefore
// implicitly null. Rows before the column top have no physical storage and
// are represented purely through the returned null prefix.
func materialize(offset, length, columnTop int) (lower, upper, top int) {
	lower = max(0, offset-columnTop)
	upper = max(0, offset+length-columnTop)
	top = length - (upper - lower)
	return lower, upper, top
}

// chunkToPage encodes one page of a non-symbol column, reinterpreting the
// column's raw buffers as the typed view matching its declared type.
func chunkToPage(col *Column, desc columnDescriptor, offset, length int, options WriteOptions) (*page, error) {
	lower, upper, top := materialize(offset, length, col.ColumnTop)

	switch col.Type {
	case ColumnTypeBoolean:
		return booleanToPage(col.Data[lower:upper], top, options)

	case ColumnTypeByte, ColumnTypeGeoByte:
		return intToPage(viewOf[int8](col.Data)[lower:upper], top, desc.physical.typ, options, desc.encoding)

	case ColumnTypeShort, ColumnTypeGeoShort:
		return intToPage(viewOf[int16](col.Data)[lower:upper], top, desc.physical.typ, options, desc.encoding)

	case ColumnTypeChar:
		return intToPage(viewOf[uint16](col.Data)[lower:upper], top, desc.physical.typ, options, desc.encoding)

	case ColumnTypeInt, ColumnTypeGeoInt, ColumnTypeIPv4:
		return intToPage(viewOf[int32](col.Data)[lower:upper], top, desc.physical.typ, options, desc.encoding)

	case ColumnTypeLong, ColumnTypeGeoLong, ColumnTypeDate, ColumnTypeTimestamp:
		return intToPage(viewOf[int64](col.Data)[lower:upper], top, desc.physical.typ, options, desc.encoding)

	case ColumnTypeFloat:
		return floatToPage(viewOf[float32](col.Data)[lower:upper], top, desc.physical.typ, options)

	case ColumnTypeDouble:
		return floatToPage(viewOf[float64](col.Data)[lower:upper], top, desc.physical.typ, options)

	case ColumnTypeBinary:
		return binaryToPage(viewOf[int64](col.Aux)[lower:upper], col.Data, top, options, desc.encoding)

	case ColumnTypeString:
		return stringToPage(viewOf[int64](col.Aux)[lower:upper], col.Data, top, options, desc.encoding)

	case ColumnTypeVarchar:
		return varcharToPage(col.Aux[lower*varcharAuxRecordSize:upper*varcharAuxRecordSize], col.Data, top, options, desc.encoding)

	case ColumnTypeLong128, ColumnTypeUUID:
		return fixedLenBytesToPage(col.Data[lower*16:upper*16], 16, top, options)

	case ColumnTypeLong256:
		return fixedLenBytesToPage(col.Data[lower*32:upper*32], 32, top, options)

	case ColumnTypeSymbol:
		panic("pqwrite: symbol columns are encoded at the chunk level")

	default:
		return nil, fmt.Errorf("%w: unsupported column type %s", ErrOutOfSpec, col.Type)
	}
}
