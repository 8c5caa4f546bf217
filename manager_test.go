package dbt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/direct-bt/dbt/transport"
)

func testAdapter(devID int) *Adapter {
	addr := BDAddressAndType{Address: MustParseEUI48("00:11:22:33:44:55"), Type: AddressTypeLEPublic}
	return NewAdapter(devID, addr, transport.NewSimHCI(8))
}

type recordingSetListener struct {
	added []*Adapter
}

func (r *recordingSetListener) AdapterAdded(a *Adapter)   { r.added = append(r.added, a) }
func (r *recordingSetListener) AdapterRemoved(a *Adapter) {}

func TestManagerInitialAdapterReplay(t *testing.T) {
	m := NewManager()
	defer m.Close()

	for i := 0; i < 3; i++ {
		m.AddAdapter(testAdapter(i))
	}

	l := &recordingSetListener{}
	require.True(t, m.AddChangedAdapterSetListener(l))
	require.Len(t, l.added, 3)
}

func TestManagerAddAdapterNotifiesListenerAfterReplay(t *testing.T) {
	m := NewManager()
	defer m.Close()
	l := &recordingSetListener{}
	m.AddChangedAdapterSetListener(l)

	m.AddAdapter(testAdapter(0))
	require.Len(t, l.added, 1)
}

type votingStatusListener struct {
	DefaultAdapterStatusListener
	accept bool
}

func (v *votingStatusListener) DeviceFound(*Adapter, *Device) bool { return v.accept }

func TestManagerDeviceFoundOwnership(t *testing.T) {
	m := NewManager()
	defer m.Close()
	a := testAdapter(0)
	m.AddAdapter(a)

	rejecting := &votingStatusListener{accept: false}
	require.True(t, m.AddStatusListener(rejecting))

	dev := NewDevice(a, BDAddressAndType{Address: MustParseEUI48("AA:BB:CC:DD:EE:FF"), Type: AddressTypeLERandom})
	accepted := m.NotifyDeviceFound(a, dev)
	require.False(t, accepted)
	require.Empty(t, a.DiscoveredDevices())

	require.True(t, m.RemoveStatusListener(rejecting))
	accepting := &votingStatusListener{accept: true}
	m.AddStatusListener(accepting)

	accepted = m.NotifyDeviceFound(a, dev)
	require.True(t, accepted)
	require.Len(t, a.DiscoveredDevices(), 1)
}

type orderRecordingListener struct {
	DefaultAdapterStatusListener
	mu     chanMutex
	events []string
}

func (o *orderRecordingListener) record(s string) {
	o.mu.Lock()
	o.events = append(o.events, s)
	o.mu.Unlock()
}

func (o *orderRecordingListener) DeviceConnected(a *Adapter, dev *Device) { o.record("connected") }
func (o *orderRecordingListener) DevicePairingState(a *Adapter, dev *Device, state PairingState, mode PairingMode) {
	o.record("pairing:" + state.String())
}
func (o *orderRecordingListener) DeviceReady(a *Adapter, dev *Device) { o.record("ready") }
func (o *orderRecordingListener) DeviceDisconnected(a *Adapter, dev *Device, reason Status) {
	o.record("disconnected")
}

func TestManagerEventOrderingPerDevice(t *testing.T) {
	m := NewManager()
	defer m.Close()
	a := testAdapter(0)
	m.AddAdapter(a)

	l := &orderRecordingListener{}
	m.AddStatusListener(l)

	dev := NewDevice(a, BDAddressAndType{Address: MustParseEUI48("AA:BB:CC:DD:EE:FF"), Type: AddressTypeLERandom})

	m.NotifyDeviceConnected(a, dev)
	m.NotifyDevicePairingState(a, dev, PairingStateCompleted, PairingModeJustWorks)
	m.NotifyDeviceReady(a, dev)
	m.NotifyDeviceDisconnected(a, dev, StatusDisconnected)

	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.events) == 4
	}, time.Second, time.Millisecond)

	l.mu.Lock()
	defer l.mu.Unlock()
	require.Equal(t, []string{"connected", "pairing:COMPLETED", "ready", "disconnected"}, l.events)
}
