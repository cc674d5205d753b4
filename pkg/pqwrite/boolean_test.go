package pqwrite

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBooleanToPage(t *testing.T) {
	p, err := booleanToPage([]byte{1, 0, 1, 1, 0, 0, 0, 0, 1}, 0, WriteOptions{Version: V1})
	require.NoError(t, err)

	require.Equal(t, 9, p.numValues)
	require.Equal(t, 0, p.nullCount)

	present, payload := decodePageDefLevels(t, p, V1)
	require.Equal(t, []bool{true, true, true, true, true, true, true, true, true}, present)
	require.Equal(t, []byte{0b00001101, 0b00000001}, payload)
}

func TestBooleanToPageColumnTop(t *testing.T) {
	p, err := booleanToPage([]byte{1, 1}, 2, WriteOptions{Version: V2})
	require.NoError(t, err)

	require.Equal(t, 4, p.numValues)
	require.Equal(t, 2, p.nullCount)

	present, payload := decodePageDefLevels(t, p, V2)
	require.Equal(t, []bool{false, false, true, true}, present)
	require.Equal(t, []byte{0b11}, payload)
}

func TestBooleanToPageTreatsNonZeroAsTrue(t *testing.T) {
	p, err := booleanToPage([]byte{0, 255, 2}, 0, WriteOptions{Version: V1})
	require.NoError(t, err)

	_, payload := decodePageDefLevels(t, p, V1)
	require.Equal(t, []byte{0b110}, payload)
}
