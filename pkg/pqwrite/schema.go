package pqwrite

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/parquet-go/parquet-go/format"
)

// ColumnType is the closed set of native column types understood by the
// write pipeline. Each maps to exactly one parquet physical encoding family.
type ColumnType int

const (
	ColumnTypeBoolean ColumnType = iota
	ColumnTypeByte
	ColumnTypeShort
	ColumnTypeChar
	ColumnTypeInt
	ColumnTypeLong
	ColumnTypeDate
	ColumnTypeTimestamp
	ColumnTypeFloat
	ColumnTypeDouble
	ColumnTypeBinary
	ColumnTypeString
	ColumnTypeVarchar
	ColumnTypeSymbol
	ColumnTypeLong128
	ColumnTypeUUID
	ColumnTypeLong256
	ColumnTypeGeoByte
	ColumnTypeGeoShort
	ColumnTypeGeoInt
	ColumnTypeGeoLong
	ColumnTypeIPv4
)

// String returns a human-readable name for the column type.
func (t ColumnType) String() string {
	switch t {
	case ColumnTypeBoolean:
		return "boolean"
	case ColumnTypeByte:
		return "byte"
	case ColumnTypeShort:
		return "short"
	case ColumnTypeChar:
		return "char"
	case ColumnTypeInt:
		return "int"
	case ColumnTypeLong:
		return "long"
	case ColumnTypeDate:
		return "date"
	case ColumnTypeTimestamp:
		return "timestamp"
	case ColumnTypeFloat:
		return "float"
	case ColumnTypeDouble:
		return "double"
	case ColumnTypeBinary:
		return "binary"
	case ColumnTypeString:
		return "string"
	case ColumnTypeVarchar:
		return "varchar"
	case ColumnTypeSymbol:
		return "symbol"
	case ColumnTypeLong128:
		return "long128"
	case ColumnTypeUUID:
		return "uuid"
	case ColumnTypeLong256:
		return "long256"
	case ColumnTypeGeoByte:
		return "geobyte"
	case ColumnTypeGeoShort:
		return "geoshort"
	case ColumnTypeGeoInt:
		return "geoint"
	case ColumnTypeGeoLong:
		return "geolong"
	case ColumnTypeIPv4:
		return "ipv4"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// A Column is a borrowed, read-only view over externally owned buffers in
// the storage engine's native layout. The pipeline never mutates or retains
// these buffers past a write call.
//
// Buffer layout per type (the memory contract shared with the read side):
//
//   - Fixed-width types: Data is a raw typed array (1/2/4/8/16/32 bytes per
//     row depending on Type); Aux is unused.
//   - Binary: Aux is an array of int64 byte offsets into Data. At each
//     offset an int64 length header precedes the value's raw bytes; a
//     negative header marks the row as null.
//   - String: same offset scheme as Binary, but the header is an int32
//     counting UTF-16 code units, followed by UTF-16LE bytes.
//   - Varchar: Aux holds one 16-byte record per row (see varchar.go); Data
//     is the shared UTF-8 blob.
//   - Symbol: Data is a raw int32 key array (negative keys are null);
//     SymbolOffsets locates each key's int32-length-prefixed UTF-16LE entry
//     in Aux.
//
// Buffer lengths must be consistent with RowCount, ColumnTop and the
// declared Type. This is a caller precondition: the pipeline reinterprets
// the buffers without copying and performs no bounds validation beyond row
// range arithmetic.
type Column struct {
	Name string
	Type ColumnType

	// RowCount is the total number of rows in the column, including the
	// ColumnTop prefix.
	RowCount int

	// ColumnTop counts leading rows for which the column has no physically
	// stored data (the column was added after those rows existed). Such rows
	// are implicitly null and are not represented in Data/Aux.
	ColumnTop int

	Data []byte // primary buffer
	Aux  []byte // secondary buffer (offsets or aux records)

	// SymbolOffsets is only set for symbol columns.
	SymbolOffsets []uint64
}

// A Partition is an ordered sequence of columns sharing one row count.
type Partition struct {
	Columns []Column
}

// RowCount returns the partition's row count, taken from the first column.
func (p *Partition) RowCount() int {
	if len(p.Columns) == 0 {
		return 0
	}
	return p.Columns[0].RowCount
}

func (p *Partition) validate() error {
	if len(p.Columns) == 0 {
		return fmt.Errorf("partition has no columns")
	}
	rows := p.Columns[0].RowCount
	for i := range p.Columns {
		if p.Columns[i].RowCount != rows {
			return fmt.Errorf("column %q has %d rows, expected %d", p.Columns[i].Name, p.Columns[i].RowCount, rows)
		}
	}
	return nil
}

// physicalDesc is the resolved parquet physical type for one column.
type physicalDesc struct {
	typ        format.Type
	typeLength int32 // element size for FixedLenByteArray, 0 otherwise
}

// columnDescriptor pairs a column with its resolved physical type, value
// encoding and schema path. Descriptors are built once per file by
// [Writer.Chunked] and never change between chunks.
type columnDescriptor struct {
	physical physicalDesc
	encoding format.Encoding
	path     []string
	compare  func(a, b []byte) int
}

// physicalType maps a native column type to its parquet physical type.
func physicalType(t ColumnType) (physicalDesc, error) {
	switch t {
	case ColumnTypeBoolean:
		return physicalDesc{typ: format.Boolean}, nil
	case ColumnTypeByte, ColumnTypeShort, ColumnTypeChar, ColumnTypeInt,
		ColumnTypeGeoByte, ColumnTypeGeoShort, ColumnTypeGeoInt, ColumnTypeIPv4:
		return physicalDesc{typ: format.Int32}, nil
	case ColumnTypeLong, ColumnTypeDate, ColumnTypeTimestamp, ColumnTypeGeoLong:
		return physicalDesc{typ: format.Int64}, nil
	case ColumnTypeFloat:
		return physicalDesc{typ: format.Float}, nil
	case ColumnTypeDouble:
		return physicalDesc{typ: format.Double}, nil
	case ColumnTypeBinary, ColumnTypeString, ColumnTypeVarchar, ColumnTypeSymbol:
		return physicalDesc{typ: format.ByteArray}, nil
	case ColumnTypeLong128, ColumnTypeUUID:
		return physicalDesc{typ: format.FixedLenByteArray, typeLength: 16}, nil
	case ColumnTypeLong256:
		return physicalDesc{typ: format.FixedLenByteArray, typeLength: 32}, nil
	default:
		return physicalDesc{}, fmt.Errorf("unsupported column type %s", t)
	}
}

// defaultEncoding resolves the value encoding used for a column. One
// encoding is chosen per column for the whole file.
func defaultEncoding(t ColumnType) format.Encoding {
	switch t {
	case ColumnTypeSymbol:
		return format.RLEDictionary
	case ColumnTypeBinary, ColumnTypeString, ColumnTypeVarchar:
		return format.DeltaLengthByteArray
	default:
		return format.Plain
	}
}

func logicalType(t ColumnType) *format.LogicalType {
	switch t {
	case ColumnTypeByte:
		return &format.LogicalType{Integer: &format.IntType{BitWidth: 8, IsSigned: true}}
	case ColumnTypeShort:
		return &format.LogicalType{Integer: &format.IntType{BitWidth: 16, IsSigned: true}}
	case ColumnTypeChar:
		return &format.LogicalType{Integer: &format.IntType{BitWidth: 16, IsSigned: false}}
	case ColumnTypeDate:
		return &format.LogicalType{Timestamp: &format.TimestampType{
			IsAdjustedToUTC: true,
			Unit:            format.TimeUnit{Millis: &format.MilliSeconds{}},
		}}
	case ColumnTypeTimestamp:
		return &format.LogicalType{Timestamp: &format.TimestampType{
			IsAdjustedToUTC: true,
			Unit:            format.TimeUnit{Micros: &format.MicroSeconds{}},
		}}
	case ColumnTypeString, ColumnTypeVarchar, ColumnTypeSymbol:
		return &format.LogicalType{UTF8: &format.StringType{}}
	case ColumnTypeUUID:
		return &format.LogicalType{UUID: &format.UUIDType{}}
	default:
		return nil
	}
}

// schemaElements builds the flattened parquet schema for a partition: a
// group root followed by one optional leaf per column, in column order.
func schemaElements(p *Partition) ([]format.SchemaElement, []columnDescriptor, error) {
	elements := make([]format.SchemaElement, 0, len(p.Columns)+1)
	elements = append(elements, format.SchemaElement{
		Name:        "schema",
		NumChildren: int32(len(p.Columns)),
	})

	descriptors := make([]columnDescriptor, 0, len(p.Columns))
	for i := range p.Columns {
		col := &p.Columns[i]

		desc, err := physicalType(col.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", col.Name, err)
		}

		elem := format.SchemaElement{
			Type:           ptrTo(desc.typ),
			RepetitionType: ptrTo(format.Optional),
			Name:           col.Name,
			LogicalType:    logicalType(col.Type),
		}
		if desc.typeLength > 0 {
			elem.TypeLength = ptrTo(desc.typeLength)
		}
		elements = append(elements, elem)

		descriptors = append(descriptors, columnDescriptor{
			physical: desc,
			encoding: defaultEncoding(col.Type),
			path:     []string{col.Name},
			compare:  statsComparator(desc.typ),
		})
	}
	return elements, descriptors, nil
}

// bytesPerType returns the approximate uncompressed width of one value,
// used to convert the page byte budget into a row count. Deliberately
// ignores compression and variable-length payloads.
func bytesPerType(t format.Type) int {
	switch t {
	case format.Boolean:
		return 1
	case format.Int32, format.Float:
		return 4
	case format.Int96:
		return 12
	default:
		return 8
	}
}

// statsComparator returns a comparator over plain-encoded statistics values
// for physical types whose pages carry statistics. Variable-length families
// never compute statistics, so ByteArray has no comparator.
func statsComparator(t format.Type) func(a, b []byte) int {
	switch t {
	case format.Int32:
		return func(a, b []byte) int {
			x := int32(binary.LittleEndian.Uint32(a))
			y := int32(binary.LittleEndian.Uint32(b))
			return compareOrdered(x, y)
		}
	case format.Int64:
		return func(a, b []byte) int {
			x := int64(binary.LittleEndian.Uint64(a))
			y := int64(binary.LittleEndian.Uint64(b))
			return compareOrdered(x, y)
		}
	case format.Float:
		return func(a, b []byte) int {
			x := math.Float32frombits(binary.LittleEndian.Uint32(a))
			y := math.Float32frombits(binary.LittleEndian.Uint32(b))
			return compareOrdered(x, y)
		}
	case format.Double:
		return func(a, b []byte) int {
			x := math.Float64frombits(binary.LittleEndian.Uint64(a))
			y := math.Float64frombits(binary.LittleEndian.Uint64(b))
			return compareOrdered(x, y)
		}
	default:
		return nil
	}
}

func compareOrdered[T int32 | int64 | float32 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func ptrTo[T any](v T) *T { return &v }
