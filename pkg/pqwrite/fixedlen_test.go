package pqwrite

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestFixedLenBytesToPage(t *testing.T) {
	ids := []uuid.UUID{
		uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"),
	}
	values := append(ids[0][:], ids[1][:]...)

	p, err := fixedLenBytesToPage(values, 16, 0, WriteOptions{Version: V1})
	require.NoError(t, err)

	require.Equal(t, 2, p.numValues)
	require.Equal(t, 0, p.nullCount)

	present, payload := decodePageDefLevels(t, p, V1)
	require.Equal(t, []bool{true, true}, present)
	require.Equal(t, values, payload)
}

func TestFixedLenBytesToPageLong256(t *testing.T) {
	values := make([]byte, 64)
	for i := range values {
		values[i] = byte(i)
	}

	p, err := fixedLenBytesToPage(values, 32, 1, WriteOptions{Version: V1})
	require.NoError(t, err)

	require.Equal(t, 3, p.numValues)
	require.Equal(t, 1, p.nullCount)

	present, payload := decodePageDefLevels(t, p, V1)
	require.Equal(t, []bool{false, true, true}, present)
	require.Equal(t, values, payload)
}
