package pqwrite

import (
	"encoding/binary"
	"unicode/utf16"
)

// Builders for the native column layouts. Tests construct buffers with the
// exact byte layout the storage engine hands to the pipeline.

// utf16LE encodes s as UTF-16LE bytes.
func utf16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[2*i:], u)
	}
	return out
}

// buildBinaryColumn lays out values in the binary column format: Aux holds
// int64 offsets into Data, each offset pointing at an int64 length header.
// A nil value becomes a negative length header with no payload.
func buildBinaryColumn(values [][]byte) (aux, data []byte) {
	for _, v := range values {
		aux = binary.LittleEndian.AppendUint64(aux, uint64(len(data)))
		if v == nil {
			nullLen := int64(-1)
			data = binary.LittleEndian.AppendUint64(data, uint64(nullLen))
			continue
		}
		data = binary.LittleEndian.AppendUint64(data, uint64(len(v)))
		data = append(data, v...)
	}
	return aux, data
}

// buildStringColumn lays out values in the native string format: int32
// UTF-16 code unit headers followed by UTF-16LE bytes. nil is null.
func buildStringColumn(values []*string) (aux, data []byte) {
	for _, v := range values {
		aux = binary.LittleEndian.AppendUint64(aux, uint64(len(data)))
		if v == nil {
			nullLen := int32(-1)
			data = binary.LittleEndian.AppendUint32(data, uint32(nullLen))
			continue
		}
		encoded := utf16LE(*v)
		data = binary.LittleEndian.AppendUint32(data, uint32(len(encoded)/2))
		data = append(data, encoded...)
	}
	return aux, data
}

// buildVarcharColumn lays out values in the varchar format: one 16-byte aux
// record per row, values over 9 bytes spilled to the shared UTF-8 blob.
func buildVarcharColumn(values []*string) (aux, data []byte) {
	for _, v := range values {
		var record [varcharAuxRecordSize]byte
		if v == nil {
			binary.LittleEndian.PutUint32(record[:4], varcharFlagNull)
			aux = append(aux, record[:]...)
			continue
		}

		b := []byte(*v)
		header := uint32(len(b)) << 4
		ascii := true
		for _, c := range b {
			if c >= 0x80 {
				ascii = false
				break
			}
		}
		if ascii {
			header |= varcharFlagAscii
		}

		if len(b) <= varcharMaxInlineBytes {
			header |= varcharFlagInlined
			binary.LittleEndian.PutUint32(record[:4], header)
			copy(record[4:], b)
		} else {
			binary.LittleEndian.PutUint32(record[:4], header)
			copy(record[4:10], b[:6])
			offset := uint64(len(data))
			binary.LittleEndian.PutUint32(record[10:14], uint32(offset))
			binary.LittleEndian.PutUint16(record[14:16], uint16(offset>>32))
			data = append(data, b...)
		}
		aux = append(aux, record[:]...)
	}
	return aux, data
}

// buildSymbolTable lays out the external symbol table: offsets locate each
// symbol's int32-length-prefixed UTF-16LE entry in the chars blob.
func buildSymbolTable(symbols []string) (offsets []uint64, chars []byte) {
	for _, s := range symbols {
		offsets = append(offsets, uint64(len(chars)))
		encoded := utf16LE(s)
		chars = binary.LittleEndian.AppendUint32(chars, uint32(len(encoded)/2))
		chars = append(chars, encoded...)
	}
	return offsets, chars
}

func int32Bytes(values ...int32) []byte {
	out := make([]byte, 0, 4*len(values))
	for _, v := range values {
		out = binary.LittleEndian.AppendUint32(out, uint32(v))
	}
	return out
}

func int64Bytes(values ...int64) []byte {
	out := make([]byte, 0, 8*len(values))
	for _, v := range values {
		out = binary.LittleEndian.AppendUint64(out, uint64(v))
	}
	return out
}

func ptr[T any](v T) *T { return &v }
