package pqwrite

import (
	"errors"
	"fmt"

	"github.com/parquet-go/parquet-go/format"
)

// ErrFinished is returned when a ChunkedWriter is used after Finish.
var ErrFinished = errors.New("pqwrite: writer already finished")

// ErrOutOfSpec wraps configuration errors: an encoding was requested for a
// column family that does not support it. These abort the current row group;
// nothing is retried internally.
var ErrOutOfSpec = errors.New("pqwrite: out of spec")

func errUnsupportedEncoding(family string, enc format.Encoding) error {
	return fmt.Errorf("%w: encoding %s column as %s", ErrOutOfSpec, family, enc)
}
