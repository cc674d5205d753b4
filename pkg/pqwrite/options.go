package pqwrite

import (
	"errors"
	"flag"
	"fmt"

	"github.com/grafana/dskit/flagext"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/parquet-go/parquet-go/compress/gzip"
	"github.com/parquet-go/parquet-go/compress/snappy"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// Version selects the parquet data page format to write.
type Version int

const (
	// V1 writes classic data pages with length-prefixed definition levels.
	V1 Version = 1
	// V2 writes DataPageHeaderV2 pages with uncompressed levels.
	V2 Version = 2
)

const (
	// DefaultDataPageSize is the page byte budget applied when no override
	// is configured.
	DefaultDataPageSize = 1024 * 1024

	// DefaultRowGroupSize is the row-group row budget applied when no
	// override is configured.
	DefaultRowGroupSize = 512 * 512
)

// WriteOptions is an immutable configuration snapshot passed by value
// through the pipeline; it is never mutated mid-write.
type WriteOptions struct {
	// WriteStatistics enables min/max/null-count statistics for fixed-width
	// primitive pages. Variable-length families never carry statistics.
	WriteStatistics bool

	// Version is the page format version to write.
	Version Version

	// Compression is applied to every page. A nil codec writes
	// uncompressed pages.
	Compression compress.Codec

	// RowGroupSize is the row budget per row group; 0 means
	// DefaultRowGroupSize.
	RowGroupSize int

	// DataPageSize is the byte budget per data page; 0 means
	// DefaultDataPageSize.
	DataPageSize int
}

func (o WriteOptions) rowGroupSize() int {
	if o.RowGroupSize > 0 {
		return o.RowGroupSize
	}
	return DefaultRowGroupSize
}

func (o WriteOptions) dataPageSize() int {
	if o.DataPageSize > 0 {
		return o.DataPageSize
	}
	return DefaultDataPageSize
}

// WriterConfig is the flag-registerable configuration for a [Writer]. It
// exists for host processes that wire the writer from configuration files or
// command lines; library callers can use the builder setters directly.
type WriterConfig struct {
	// PageSize is the byte budget for one data page.
	PageSize flagext.Bytes `yaml:"page_size"`

	// RowGroupRows is the row budget for one row group.
	RowGroupRows int `yaml:"row_group_rows"`

	// Compression names the page compression codec: none, snappy, zstd or
	// gzip.
	Compression string `yaml:"compression"`

	// Statistics toggles column statistics.
	Statistics bool `yaml:"statistics"`
}

// RegisterFlagsWithPrefix registers flags with the given prefix.
func (cfg *WriterConfig) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	_ = cfg.PageSize.Set("1MiB")
	cfg.Compression = "none"

	f.Var(&cfg.PageSize, prefix+"page-size", "Byte budget for one parquet data page.")
	f.IntVar(&cfg.RowGroupRows, prefix+"row-group-rows", DefaultRowGroupSize, "Row budget for one parquet row group.")
	f.StringVar(&cfg.Compression, prefix+"compression", "none", "Page compression codec: none, snappy, zstd or gzip.")
	f.BoolVar(&cfg.Statistics, prefix+"statistics", true, "Whether to compute column statistics.")
}

// Validate validates the WriterConfig.
func (cfg *WriterConfig) Validate() error {
	var errs []error

	if cfg.PageSize <= 0 {
		errs = append(errs, errors.New("PageSize must be greater than 0"))
	}
	if cfg.RowGroupRows <= 0 {
		errs = append(errs, errors.New("RowGroupRows must be greater than 0"))
	}
	if _, err := cfg.Codec(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Codec resolves the configured compression codec name.
func (cfg *WriterConfig) Codec() (compress.Codec, error) {
	switch cfg.Compression {
	case "", "none":
		return nil, nil
	case "snappy":
		return &snappy.Codec{}, nil
	case "zstd":
		return &zstd.Codec{}, nil
	case "gzip":
		return &gzip.Codec{}, nil
	default:
		return nil, fmt.Errorf("unknown compression codec %q", cfg.Compression)
	}
}
