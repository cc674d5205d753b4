package pfile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/parquet-go/parquet-go/encoding/thrift"
	"github.com/parquet-go/parquet-go/format"
	"github.com/stretchr/testify/require"
)

func testSchema() []format.SchemaElement {
	return []format.SchemaElement{
		{Name: "schema", NumChildren: 1},
		{
			Name:           "v",
			Type:           typePtr(format.Int64),
			RepetitionType: repPtr(format.Optional),
		},
	}
}

func typePtr(t format.Type) *format.Type                    { return &t }
func repPtr(r format.FieldRepetitionType) *format.FieldRepetitionType { return &r }

func testPage(numValues int32, body []byte) *CompressedPage {
	return &CompressedPage{
		Header: format.PageHeader{
			Type:                 format.DataPage,
			UncompressedPageSize: int32(len(body)),
			CompressedPageSize:   int32(len(body)),
			DataPageHeader: &format.DataPageHeader{
				NumValues:               numValues,
				Encoding:                format.Plain,
				DefinitionLevelEncoding: format.RLE,
				RepetitionLevelEncoding: format.RLE,
			},
		},
		Data: body,
	}
}

// decodeFooter parses the thrift footer back out of a finished file.
func decodeFooter(t *testing.T, file []byte) *format.FileMetaData {
	t.Helper()

	require.GreaterOrEqual(t, len(file), 12)
	require.Equal(t, "PAR1", string(file[:4]))
	require.Equal(t, "PAR1", string(file[len(file)-4:]))

	footerLen := binary.LittleEndian.Uint32(file[len(file)-8:])
	footer := file[len(file)-8-int(footerLen) : len(file)-8]

	var meta format.FileMetaData
	require.NoError(t, thrift.Unmarshal(new(thrift.CompactProtocol), footer, &meta))
	return &meta
}

func TestWriterSingleRowGroup(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, testSchema(), 1, "test writer")

	require.NoError(t, w.WriteHeader())
	headerEnd := w.Offset()
	require.EqualValues(t, 4, headerEnd)

	w.StartRowGroup()
	require.NoError(t, w.StartColumn(ColumnInfo{
		PathInSchema: []string{"v"},
		Type:         format.Int64,
		Codec:        format.Uncompressed,
	}))
	require.NoError(t, w.WritePage(testPage(3, []byte{1, 2, 3, 4, 5, 6})))
	require.NoError(t, w.FinishColumn())
	require.NoError(t, w.FinishRowGroup(3))

	size, err := w.Finish()
	require.NoError(t, err)
	require.EqualValues(t, buf.Len(), size)

	meta := decodeFooter(t, buf.Bytes())
	require.EqualValues(t, 1, meta.Version)
	require.Equal(t, "test writer", meta.CreatedBy)
	require.Equal(t, testSchema(), meta.Schema)
	require.EqualValues(t, 3, meta.NumRows)
	require.Len(t, meta.RowGroups, 1)

	rg := meta.RowGroups[0]
	require.EqualValues(t, 3, rg.NumRows)
	require.EqualValues(t, 0, rg.Ordinal)
	require.Equal(t, headerEnd, rg.FileOffset)
	require.Len(t, rg.Columns, 1)

	col := rg.Columns[0].MetaData
	require.Equal(t, format.Int64, col.Type)
	require.Equal(t, []string{"v"}, col.PathInSchema)
	require.EqualValues(t, 3, col.NumValues)
	require.Equal(t, headerEnd, col.DataPageOffset)
	require.Zero(t, col.DictionaryPageOffset)
	require.ElementsMatch(t, []format.Encoding{format.Plain, format.RLE}, col.Encoding)
	// Header bytes count toward both totals for uncompressed pages.
	require.Equal(t, col.TotalUncompressedSize, col.TotalCompressedSize)
	require.Greater(t, col.TotalCompressedSize, int64(6))
}

func TestWriterAggregatesPageStatistics(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, testSchema(), 1, "test writer")
	require.NoError(t, w.WriteHeader())

	compare := func(a, b []byte) int {
		x := int64(binary.LittleEndian.Uint64(a))
		y := int64(binary.LittleEndian.Uint64(b))
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	value := func(v int64) []byte { return binary.LittleEndian.AppendUint64(nil, uint64(v)) }

	w.StartRowGroup()
	require.NoError(t, w.StartColumn(ColumnInfo{
		PathInSchema: []string{"v"},
		Type:         format.Int64,
		Codec:        format.Uncompressed,
		Compare:      compare,
	}))

	page := testPage(2, []byte{0})
	page.Header.DataPageHeader.Statistics = format.Statistics{
		NullCount: 1, MinValue: value(5), MaxValue: value(10),
	}
	require.NoError(t, w.WritePage(page))

	page = testPage(2, []byte{0})
	page.Header.DataPageHeader.Statistics = format.Statistics{
		NullCount: 0, MinValue: value(-3), MaxValue: value(7),
	}
	require.NoError(t, w.WritePage(page))

	require.NoError(t, w.FinishColumn())
	require.NoError(t, w.FinishRowGroup(4))
	_, err := w.Finish()
	require.NoError(t, err)

	stats := decodeFooter(t, buf.Bytes()).RowGroups[0].Columns[0].MetaData.Statistics
	require.EqualValues(t, 1, stats.NullCount)
	require.Equal(t, value(-3), stats.MinValue)
	require.Equal(t, value(10), stats.MaxValue)
	require.Equal(t, stats.MinValue, stats.Min)
	require.Equal(t, stats.MaxValue, stats.Max)
}

func TestWriterEncodingStats(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, testSchema(), 1, "test writer")
	require.NoError(t, w.WriteHeader())

	w.StartRowGroup()
	require.NoError(t, w.StartColumn(ColumnInfo{PathInSchema: []string{"v"}, Type: format.Int64, Codec: format.Uncompressed}))
	require.NoError(t, w.WritePage(testPage(1, []byte{0})))
	require.NoError(t, w.WritePage(testPage(1, []byte{0})))
	require.NoError(t, w.FinishColumn())
	require.NoError(t, w.FinishRowGroup(2))
	_, err := w.Finish()
	require.NoError(t, err)

	col := decodeFooter(t, buf.Bytes()).RowGroups[0].Columns[0].MetaData
	require.ElementsMatch(t, []format.PageEncodingStats{
		{PageType: format.DataPage, Encoding: format.Plain, Count: 2},
		{PageType: format.DataPage, Encoding: format.RLE, Count: 2},
	}, col.EncodingStats)
}

func TestWriterEmptyFile(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, testSchema(), 2, "test writer")

	// Finish without WriteHeader still produces a well-formed file.
	size, err := w.Finish()
	require.NoError(t, err)
	require.EqualValues(t, buf.Len(), size)

	meta := decodeFooter(t, buf.Bytes())
	require.EqualValues(t, 2, meta.Version)
	require.Zero(t, meta.NumRows)
	require.Empty(t, meta.RowGroups)
}

func TestWriterCallSequenceErrors(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, testSchema(), 1, "test writer")
	require.NoError(t, w.WriteHeader())

	require.Error(t, w.StartColumn(ColumnInfo{}), "column outside row group")
	require.Error(t, w.WritePage(testPage(1, []byte{0})), "page outside column")
	require.Error(t, w.FinishColumn(), "finish outside column")
	require.Error(t, w.FinishRowGroup(0), "finish outside row group")

	w.StartRowGroup()
	require.NoError(t, w.StartColumn(ColumnInfo{PathInSchema: []string{"v"}, Type: format.Int64}))
	require.Error(t, w.FinishRowGroup(0), "row group with open column")

	bad := testPage(1, []byte{0})
	bad.Header.CompressedPageSize = 99
	require.Error(t, w.WritePage(bad), "size mismatch")

	require.NoError(t, w.FinishColumn())
	require.NoError(t, w.FinishRowGroup(1))

	_, err := w.Finish()
	require.NoError(t, err)
	_, err = w.Finish()
	require.Error(t, err, "finish twice")
}
