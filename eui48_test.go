package dbt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEUI48ParseRoundTrip(t *testing.T) {
	a, err := ParseEUI48("01:02:03:0A:0B:0C")
	require.NoError(t, err)
	want := [EUI48Length]byte{0x0C, 0x0B, 0x0A, 0x03, 0x02, 0x01}
	require.Equal(t, want, a.Bytes())
	require.Equal(t, "01:02:03:0A:0B:0C", a.String())
}

func TestEUI48StringRoundTripForAllBytes(t *testing.T) {
	raw := [EUI48Length]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0xFF}
	a, err := NewEUI48FromBytes(raw[:])
	require.NoError(t, err)
	s := a.String()
	b, err := ParseEUI48(s)
	require.NoError(t, err)
	require.Equal(t, a.Bytes(), b.Bytes())
	require.Equal(t, s, b.String())
}

func TestEUI48SubIndexOf(t *testing.T) {
	haystack, err := NewEUI48FromBytes([]byte{0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F})
	require.NoError(t, err)
	needle, err := NewEUI48Sub([]byte{0x0C, 0x0D})
	require.NoError(t, err)

	require.True(t, needle.Contains(haystack))
	require.Equal(t, 2, needle.IndexOf(haystack))
}

func TestEUI48SubEmptyNeedleMatchesAtZero(t *testing.T) {
	haystack, _ := NewEUI48FromBytes([]byte{1, 2, 3, 4, 5, 6})
	empty, err := NewEUI48Sub(nil)
	require.NoError(t, err)
	require.Equal(t, 0, empty.IndexOf(haystack))
	require.True(t, empty.Contains(haystack))
}

func TestEUI48SubNotFound(t *testing.T) {
	haystack, _ := NewEUI48FromBytes([]byte{1, 2, 3, 4, 5, 6})
	needle, _ := NewEUI48Sub([]byte{9, 9})
	require.Equal(t, -1, needle.IndexOf(haystack))
	require.False(t, needle.Contains(haystack))
}

func TestEUI48HashInvalidatedOnMutation(t *testing.T) {
	a, _ := NewEUI48FromBytes([]byte{1, 2, 3, 4, 5, 6})
	h1 := a.hashCode()
	a.set([EUI48Length]byte{6, 5, 4, 3, 2, 1})
	h2 := a.hashCode()
	require.NotEqual(t, h1, h2)
}

func TestAddressTypeLERandomClassification(t *testing.T) {
	// top two bits 11 => static
	addr, _ := NewEUI48FromBytes([]byte{0, 0, 0, 0, 0, 0xC0})
	require.Equal(t, LERandomStatic, ResolveLERandomAddressType(addr))

	// top two bits 01 => resolvable private
	addr, _ = NewEUI48FromBytes([]byte{0, 0, 0, 0, 0, 0x40})
	require.Equal(t, LERandomResolvablePrivate, ResolveLERandomAddressType(addr))

	// top two bits 00 => non-resolvable private
	addr, _ = NewEUI48FromBytes([]byte{0, 0, 0, 0, 0, 0x00})
	require.Equal(t, LERandomNonResolvablePrivate, ResolveLERandomAddressType(addr))
}

func TestBDAddressAndTypeMatchesWildcard(t *testing.T) {
	addr, _ := NewEUI48FromBytes([]byte{1, 2, 3, 4, 5, 6})
	a := BDAddressAndType{Address: addr, Type: AddressTypeLEPublic}
	b := BDAddressAndType{Address: addr, Type: AddressTypeUndefined}

	require.False(t, a.Equal(b))
	require.True(t, a.Matches(b))
	require.True(t, b.Matches(a))
}
