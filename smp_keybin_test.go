package dbt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleKeyBin() *SMPKeyBin {
	local := BDAddressAndType{Address: MustParseEUI48("11:22:33:44:55:66"), Type: AddressTypeLEPublic}
	remote := BDAddressAndType{Address: MustParseEUI48("AA:BB:CC:DD:EE:FF"), Type: AddressTypeLERandom}
	b := NewSMPKeyBin(local, remote, SecurityLevelAuthenticatedSecureConnections, IOCapDisplayYesNo)
	b.Timestamp = 1234567890
	b.ApplyLTK(LongTermKey{Properties: LTKPropertyAuth | LTKPropertySecureConnection, Key: [16]byte{1, 2, 3}, EDIV: 42, Rand: 99, KeySize: 16})
	b.ApplyIRK(IdentityResolvingKey{Key: [16]byte{4, 5, 6}})
	b.ApplyRemoteLTK(LongTermKey{Properties: LTKPropertyResponder, Key: [16]byte{7, 8, 9}, EDIV: 7, Rand: 8, KeySize: 16})
	return b
}

func TestSMPKeyBinRoundTrip(t *testing.T) {
	b := sampleKeyBin()
	var buf bytes.Buffer
	require.NoError(t, b.Write(&buf))

	got, err := ReadSMPKeyBin(&buf)
	require.NoError(t, err)

	require.Equal(t, b.Version, got.Version)
	require.Equal(t, b.Timestamp, got.Timestamp)
	require.True(t, b.LocalAddress.Equal(got.LocalAddress))
	require.True(t, b.RemoteAddress.Equal(got.RemoteAddress))
	require.Equal(t, b.Level, got.Level)
	require.Equal(t, b.IOCap, got.IOCap)
	require.Equal(t, b.InitKeys, got.InitKeys)
	require.Equal(t, b.RespKeys, got.RespKeys)
	require.Equal(t, *b.LTK, *got.LTK)
	require.Equal(t, *b.IRK, *got.IRK)
	require.Equal(t, *b.RemoteLTK, *got.RemoteLTK)
	require.Nil(t, got.CSRK)
	require.Nil(t, got.LK)
}

func TestSMPKeyBinFileName(t *testing.T) {
	b := sampleKeyBin()
	require.Equal(t, "bd_112233445566_aabbccddeeff3.key", b.FileName())
}

func TestSMPKeyBinRejectsBadMagic(t *testing.T) {
	b := sampleKeyBin()
	var buf bytes.Buffer
	require.NoError(t, b.Write(&buf))
	corrupt := buf.Bytes()
	corrupt[0] ^= 0xff

	_, err := ReadSMPKeyBin(bytes.NewReader(corrupt))
	require.Error(t, err)
}

func TestSMPKeyBinRejectsTruncatedBody(t *testing.T) {
	b := sampleKeyBin()
	var buf bytes.Buffer
	require.NoError(t, b.Write(&buf))
	truncated := buf.Bytes()[:buf.Len()-5]

	_, err := ReadSMPKeyBin(bytes.NewReader(truncated))
	require.Error(t, err)
}

func TestSMPKeyBinRejectsWrongVersion(t *testing.T) {
	b := sampleKeyBin()
	var buf bytes.Buffer
	require.NoError(t, b.Write(&buf))
	raw := buf.Bytes()
	// The version is encoded in the magic itself (spec.md §3); bump it
	// to simulate a file written by a future/older version.
	raw[0] = byte(smpKeyBinMagic+1) & 0xff

	_, err := ReadSMPKeyBin(bytes.NewReader(raw))
	require.Error(t, err)
}

func TestSMPKeyBinSizeFieldCoversWholeRecord(t *testing.T) {
	// spec concrete scenario 3: a record with only init-LTK present has
	// size 2+2+8+7+7+1+1+1+1 + 28 = 58 octets.
	local := BDAddressAndType{Address: MustParseEUI48("11:22:33:44:55:66"), Type: AddressTypeLEPublic}
	remote := BDAddressAndType{Address: MustParseEUI48("AA:BB:CC:DD:EE:FF"), Type: AddressTypeLERandom}
	b := NewSMPKeyBin(local, remote, SecurityLevelUnauthenticatedEncryption, IOCapNoInputNoOutput)
	b.ApplyLTK(LongTermKey{Key: [16]byte{1}, KeySize: 16})

	var buf bytes.Buffer
	require.NoError(t, b.Write(&buf))
	require.Equal(t, 58, buf.Len())

	size := uint16(buf.Bytes()[2]) | uint16(buf.Bytes()[3])<<8
	require.Equal(t, uint16(58), size)
}

func TestSMPKeyBinWriteToDirRefusesOverwriteUnlessRequested(t *testing.T) {
	dir := t.TempDir()
	b := sampleKeyBin()
	require.NoError(t, b.WriteToDir(dir, false))

	err := b.WriteToDir(dir, false)
	require.Error(t, err)

	require.NoError(t, b.WriteToDir(dir, true))
}

func TestSMPKeyBinIsValidRequiresKeyMaterial(t *testing.T) {
	local := BDAddressAndType{Address: MustParseEUI48("11:22:33:44:55:66"), Type: AddressTypeLEPublic}
	remote := BDAddressAndType{Address: MustParseEUI48("AA:BB:CC:DD:EE:FF"), Type: AddressTypeLERandom}
	b := NewSMPKeyBin(local, remote, SecurityLevelNone, IOCapNoInputNoOutput)
	require.False(t, b.IsValid())

	var buf bytes.Buffer
	require.Error(t, b.Write(&buf))
}
