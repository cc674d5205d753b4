package pqwrite

import (
	"testing"

	"github.com/parquet-go/parquet-go/format"
	"github.com/stretchr/testify/require"
)

func TestStringToPagePlain(t *testing.T) {
	aux, data := buildStringColumn([]*string{
		ptr("a"), nil, ptr("ccc"), ptr(""), nil,
	})
	offsets := viewOf[int64](aux)

	p, err := stringToPage(offsets, data, 0, WriteOptions{Version: V1}, format.Plain)
	require.NoError(t, err)

	require.Equal(t, 5, p.numValues)
	require.Equal(t, 2, p.nullCount)

	present, payload := decodePageDefLevels(t, p, V1)
	require.Equal(t, []bool{true, false, true, true, false}, present)
	require.Equal(t, []byte{
		1, 0, 0, 0, 'a',
		3, 0, 0, 0, 'c', 'c', 'c',
		0, 0, 0, 0,
	}, payload)
}

func TestStringToPageDeltaLength(t *testing.T) {
	aux, data := buildStringColumn([]*string{
		ptr("a"), nil, ptr("ccc"), ptr(""), nil,
	})
	offsets := viewOf[int64](aux)

	p, err := stringToPage(offsets, data, 0, WriteOptions{Version: V1}, format.DeltaLengthByteArray)
	require.NoError(t, err)

	_, payload := decodePageDefLevels(t, p, V1)
	lengths, rest := decodeDeltaBinaryPacked(t, payload)
	require.Equal(t, []int64{1, 3, 0}, lengths)
	require.Equal(t, []byte("accc"), rest)
}

func TestStringToPageTranscodesUTF16(t *testing.T) {
	// "héllo" is larger in UTF-8 than its code unit count; "𝒳" needs a
	// surrogate pair.
	aux, data := buildStringColumn([]*string{ptr("héllo"), ptr("𝒳")})
	offsets := viewOf[int64](aux)

	p, err := stringToPage(offsets, data, 0, WriteOptions{Version: V1}, format.Plain)
	require.NoError(t, err)

	_, payload := decodePageDefLevels(t, p, V1)
	require.Equal(t, []byte{
		6, 0, 0, 0, 'h', 0xc3, 0xa9, 'l', 'l', 'o',
		4, 0, 0, 0, 0xf0, 0x9d, 0x92, 0xb3,
	}, payload)
}

func TestStringToPageColumnTop(t *testing.T) {
	aux, data := buildStringColumn([]*string{ptr("x")})
	offsets := viewOf[int64](aux)

	p, err := stringToPage(offsets, data, 2, WriteOptions{Version: V1}, format.DeltaLengthByteArray)
	require.NoError(t, err)

	require.Equal(t, 3, p.numValues)
	require.Equal(t, 2, p.nullCount)

	present, _ := decodePageDefLevels(t, p, V1)
	require.Equal(t, []bool{false, false, true}, present)
}

func TestStringToPageUnsupportedEncoding(t *testing.T) {
	_, err := stringToPage(nil, nil, 0, WriteOptions{}, format.RLEDictionary)
	require.ErrorIs(t, err, ErrOutOfSpec)
}

func TestUTF16ToUTF8(t *testing.T) {
	require.Equal(t, []byte{}, utf16ToUTF8(nil))
	require.Equal(t, []byte("abc"), utf16ToUTF8(utf16LE("abc")))
	require.Equal(t, []byte("héllo"), utf16ToUTF8(utf16LE("héllo")))
	require.Equal(t, []byte("𝒳"), utf16ToUTF8(utf16LE("𝒳")))
}
