package dbt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdapterStartDiscoveryClampsScanUnitsAndClearsDiscovered(t *testing.T) {
	a := testAdapter(0)
	a.PowerOnAdapter()

	dev := NewDevice(a, BDAddressAndType{Address: MustParseEUI48("AA:BB:CC:DD:EE:FF"), Type: AddressTypeLERandom})
	a.RegisterDeviceFound(dev)
	require.Len(t, a.DiscoveredDevices(), 1)

	st := a.StartDiscovery(ScanParams{Interval: 1, Window: 99999, ActiveScanning: true})
	require.True(t, st.IsSuccess())
	require.Empty(t, a.DiscoveredDevices())
	require.Equal(t, RoleMaster, a.role)
}

func TestAdapterStartAdvertisingForcesLEGenDiscAndName(t *testing.T) {
	a := testAdapter(0)
	a.SetName("my-peripheral", "mp")
	db := NewServerDB("my-peripheral")

	eir := NewEIR().SetFlags(GAPFlagLELtdDisc)
	st := a.StartAdvertising(db, eir)
	require.True(t, st.IsSuccess())

	require.True(t, a.eir.Flags&GAPFlagLEGenDisc != 0)
	require.Equal(t, "my-peripheral", a.eir.Name)
	require.Equal(t, RoleSlave, a.role)
}

func TestAdapterStartAdvertisingRejectedWhileDiscovering(t *testing.T) {
	a := testAdapter(0)
	a.StartDiscovery(ScanParams{})

	st := a.StartAdvertising(NewServerDB("x"), NewEIR())
	require.Equal(t, StatusCommandDisallowed, st)
}

func TestAdapterWhitelistRejectsDuplicate(t *testing.T) {
	a := testAdapter(0)
	entry := WhitelistEntry{Address: BDAddressAndType{Address: MustParseEUI48("01:02:03:04:05:06"), Type: AddressTypeLEPublic}}

	require.True(t, a.AddWhitelistEntry(entry).IsSuccess())
	require.False(t, a.AddWhitelistEntry(entry).IsSuccess())
	require.Len(t, a.Whitelist(), 1)
}

func TestAdapterSetDefaultConnParamsRejectedWhilePowered(t *testing.T) {
	a := testAdapter(0)
	a.PowerOnAdapter()
	st := a.SetDefaultConnParams(DefaultConnParams{IntervalMin: 24, IntervalMax: 40})
	require.Equal(t, StatusCommandDisallowed, st)
}

func TestAdapterDiscoveryPolicyAutoPause(t *testing.T) {
	a := testAdapter(0)
	a.SetDiscoveryPolicy(DiscoveryPolicyPauseUntilReady)
	a.StartDiscovery(ScanParams{})
	require.True(t, a.IsDiscovering())

	dev := NewDevice(a, BDAddressAndType{Address: MustParseEUI48("AA:BB:CC:DD:EE:FF"), Type: AddressTypeLERandom})
	a.pauseDiscoveryFor(dev)
	require.False(t, a.IsDiscovering())

	a.resumeDiscoveryFor(dev)
	require.True(t, a.IsDiscovering())
}

func TestAdapterPersistentKeyPathLoadsValidKeys(t *testing.T) {
	dir := t.TempDir()
	kb := sampleKeyBin()
	require.NoError(t, kb.WriteToDir(dir, false))

	a := testAdapter(0)
	n, err := a.SetPersistentKeyPath(dir)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	loaded, ok := a.LoadedKeyFor(kb.RemoteAddress)
	require.True(t, ok)
	require.Equal(t, kb.RemoteAddress, loaded.RemoteAddress)
	require.Equal(t, *kb.LTK, *loaded.LTK)
}
