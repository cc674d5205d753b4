package pqwrite

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/parquet-go/parquet-go/format"
)

// integerSource is the set of native integer widths that feed the Int32 and
// Int64 physical types.
type integerSource interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint16
}

// intToPage encodes one page of a fixed-width integer column, widening each
// value to the target physical type. Only the columnTop prefix is null:
// in-band sentinel values pass through unchanged and are restored
// symmetrically by the read side.
//
// Plain and DeltaBinaryPacked encodings are supported.
func intToPage[T integerSource](values []T, columnTop int, target format.Type, options WriteOptions, encoding format.Encoding) (*page, error) {
	var buf bytes.Buffer
	defLevelsByteLength := encodeDefinitionLevels(&buf, columnTop+len(values), options.Version,
		presentAfterTop(columnTop, func(int) bool { return true }))

	switch encoding {
	case format.Plain:
		var scratch [8]byte
		for _, v := range values {
			switch target {
			case format.Int32:
				binary.LittleEndian.PutUint32(scratch[:4], uint32(int32(int64(v))))
				buf.Write(scratch[:4])
			default:
				binary.LittleEndian.PutUint64(scratch[:], uint64(int64(v)))
				buf.Write(scratch[:8])
			}
		}

	case format.DeltaBinaryPacked:
		widened := make([]int64, len(values))
		for i, v := range values {
			widened[i] = int64(v)
		}
		encodeDeltaBinaryPacked(&buf, widened)

	default:
		return nil, errUnsupportedEncoding("integer", encoding)
	}

	var stats *format.Statistics
	if options.WriteStatistics && len(values) > 0 {
		minValue, maxValue := values[0], values[0]
		for _, v := range values[1:] {
			if v < minValue {
				minValue = v
			}
			if v > maxValue {
				maxValue = v
			}
		}
		stats = intStatistics(int64(minValue), int64(maxValue), columnTop, target)
	}

	return buildDataPage(buf.Bytes(), defLevelsByteLength, columnTop+len(values), columnTop, stats, encoding), nil
}

// floatSource is the set of native floating point widths.
type floatSource interface {
	~float32 | ~float64
}

// floatToPage encodes one page of a floating point column with Plain
// encoding. NaN values are written as is but excluded from statistics, per
// the target format's recommendation.
func floatToPage[T floatSource](values []T, columnTop int, target format.Type, options WriteOptions) (*page, error) {
	var buf bytes.Buffer
	defLevelsByteLength := encodeDefinitionLevels(&buf, columnTop+len(values), options.Version,
		presentAfterTop(columnTop, func(int) bool { return true }))

	var scratch [8]byte
	for _, v := range values {
		switch target {
		case format.Float:
			binary.LittleEndian.PutUint32(scratch[:4], math.Float32bits(float32(v)))
			buf.Write(scratch[:4])
		default:
			binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(float64(v)))
			buf.Write(scratch[:8])
		}
	}

	var stats *format.Statistics
	if options.WriteStatistics {
		var (
			minValue, maxValue T
			seen               bool
		)
		for _, v := range values {
			if math.IsNaN(float64(v)) {
				continue
			}
			if !seen || v < minValue {
				minValue = v
			}
			if !seen || v > maxValue {
				maxValue = v
			}
			seen = true
		}
		if seen {
			stats = floatStatistics(float64(minValue), float64(maxValue), columnTop, target)
		}
	}

	return buildDataPage(buf.Bytes(), defLevelsByteLength, columnTop+len(values), columnTop, stats, format.Plain), nil
}

func intStatistics(minValue, maxValue int64, nullCount int, target format.Type) *format.Statistics {
	return plainStatistics(encodePlainInt(minValue, target), encodePlainInt(maxValue, target), nullCount)
}

func floatStatistics(minValue, maxValue float64, nullCount int, target format.Type) *format.Statistics {
	return plainStatistics(encodePlainFloat(minValue, target), encodePlainFloat(maxValue, target), nullCount)
}

func plainStatistics(minValue, maxValue []byte, nullCount int) *format.Statistics {
	return &format.Statistics{
		NullCount: int64(nullCount),
		MinValue:  minValue,
		MaxValue:  maxValue,
		Min:       minValue,
		Max:       maxValue,
	}
}

func encodePlainInt(v int64, target format.Type) []byte {
	if target == format.Int32 {
		return binary.LittleEndian.AppendUint32(nil, uint32(int32(v)))
	}
	return binary.LittleEndian.AppendUint64(nil, uint64(v))
}

func encodePlainFloat(v float64, target format.Type) []byte {
	if target == format.Float {
		return binary.LittleEndian.AppendUint32(nil, math.Float32bits(float32(v)))
	}
	return binary.LittleEndian.AppendUint64(nil, math.Float64bits(v))
}
