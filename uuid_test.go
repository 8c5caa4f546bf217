package dbt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUUID16Bytes(t *testing.T) {
	u := UUID16(0x1800)
	require.Equal(t, []byte{0x00, 0x18}, u.Bytes())
	require.Equal(t, 2, u.Len())
}

func TestUUIDReverseBytes(t *testing.T) {
	cases := []struct {
		fwd  []byte
		back []byte
	}{
		{fwd: []byte{0, 1}, back: []byte{1, 0}},
		{fwd: []byte{0, 1, 2, 3}, back: []byte{3, 2, 1, 0}},
		{
			fwd:  []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
			back: []byte{15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
		},
	}
	for _, tt := range cases {
		require.Equal(t, tt.back, reverse(tt.fwd))
	}
}

func TestUUIDShortFormExpandsUnderBaseUUID(t *testing.T) {
	short := UUID16(0x1800)
	full := MustParseUUID("00001800-0000-1000-8000-00805f9b34fb")
	require.True(t, short.Equal(full))
	require.True(t, full.Equal(short))
}

func TestUUIDParseStringRoundTrip(t *testing.T) {
	s := "09fc95c0-c111-11e3-9904-0002a5d5c51b"
	u, err := ParseUUID(s)
	require.NoError(t, err)
	require.Equal(t, s, u.String())
}

func TestUUIDNotEqualDifferentValues(t *testing.T) {
	require.False(t, UUID16(0x1800).Equal(UUID16(0x1801)))
}

func BenchmarkReverseBytes16(b *testing.B) {
	u := UUID16(0)
	for i := 0; i < b.N; i++ {
		reverse(u.b)
	}
}

func BenchmarkReverseBytes128(b *testing.B) {
	u := UUID{b: make([]byte, 16)}
	for i := 0; i < b.N; i++ {
		reverse(u.b)
	}
}
