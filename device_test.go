package dbt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func testDevice() (*Adapter, *Device) {
	a := testAdapter(0)
	addr := BDAddressAndType{Address: MustParseEUI48("AA:BB:CC:DD:EE:FF"), Type: AddressTypeLERandom}
	return a, NewDevice(a, addr)
}

func TestDeviceUpdateEIRMergesAndTracksRSSI(t *testing.T) {
	_, dev := testDevice()
	report := NewEIR().SetSource(EIRSourceADInd).SetRSSI(-55).SetName("widget")
	changed := dev.UpdateEIR(report)
	require.True(t, changed.Has(EIRFieldRSSI))
	require.Equal(t, int8(-55), dev.RSSI())
	require.Equal(t, "widget", dev.Name())
}

func TestDevicePairingStateMachineJustWorks(t *testing.T) {
	_, dev := testDevice()
	dev.pairingState = PairingStateFeatureExchangeStarted

	st := dev.completeFeatureExchange(PairingModeJustWorks)
	require.True(t, st.IsSuccess())
	require.Equal(t, PairingStateKeyDistribution, dev.PairingState())

	st = dev.completeKeyDistribution(SecurityLevelUnauthenticatedEncryption, IOCapNoInputNoOutput)
	require.True(t, st.IsSuccess())
	require.Equal(t, PairingStateCompleted, dev.PairingState())
}

func TestDevicePairingPasskeyNegativeRejectsGracefully(t *testing.T) {
	_, dev := testDevice()
	dev.pairingState = PairingStateFeatureExchangeStarted
	dev.completeFeatureExchange(PairingModePasskeyEntryInitiator)
	require.Equal(t, PairingStatePasskeyExpected, dev.PairingState())

	st := dev.SetPairingPasskeyNegative()
	require.True(t, st.IsSuccess())
	require.Equal(t, PairingStateFailed, dev.PairingState())
}

func TestDevicePairingPasskeyOutsideExpectationStateRejected(t *testing.T) {
	_, dev := testDevice()
	st := dev.SetPairingPasskey(123456)
	require.Equal(t, StatusInvalidParams, st)
}

func TestDeviceNumericComparisonRejectionFails(t *testing.T) {
	_, dev := testDevice()
	dev.pairingState = PairingStateFeatureExchangeStarted
	dev.completeFeatureExchange(PairingModeNumericComparison)
	require.Equal(t, PairingStateNumericCompareExpected, dev.PairingState())

	st := dev.SetPairingNumericComparison(false)
	require.True(t, st.IsSuccess())
	require.Equal(t, PairingStateFailed, dev.PairingState())
}

func TestSupervisionTimeoutConcreteScenario(t *testing.T) {
	// spec concrete scenario 4: latency=0, max_interval_ms=50, floor=500, multiplier=10 -> 50
	got := SupervisionTimeout(0, 50, 500, 10)
	require.Equal(t, uint16(50), got)
}

func TestDeviceCreateKeyBinInvalidWhenNotPairedOrNone(t *testing.T) {
	_, dev := testDevice()
	dev.pairingState = PairingStateKeyDistribution // neither permitted combination
	kb := dev.CreateKeyBin()
	require.False(t, kb.IsValid())
}

func TestDeviceCreateKeyBinValidAfterCompletion(t *testing.T) {
	_, dev := testDevice()
	dev.pairingState = PairingStateCompleted
	dev.pairingMode = PairingModeJustWorks
	dev.negSecurity = SecurityLevelUnauthenticatedEncryption
	dev.ltk = &LongTermKey{Key: [16]byte{1}, KeySize: 16}
	dev.initKeys |= SMPKeyTypeEncKey

	kb := dev.CreateKeyBin()
	require.True(t, kb.IsValid())
	require.Equal(t, dev.ltk, kb.LTK)
}

func TestDeviceUploadKeysRejectedWhenConnected(t *testing.T) {
	_, dev := testDevice()
	dev.connHandle = 7
	kb := sampleKeyBin()
	st := dev.UploadKeys(kb)
	require.Equal(t, StatusConnectionAlreadyExists, st)
}

func TestDeviceRemoveIsIdempotent(t *testing.T) {
	a, dev := testDevice()
	a.RegisterDeviceFound(dev)

	st := dev.Remove(nil, nil)
	require.True(t, st.IsSuccess())
	require.True(t, dev.IsRemoved())
	require.Empty(t, a.DiscoveredDevices())

	// Calling Remove a second time on the same thread must be a safe
	// no-op, not a panic or use-after-free.
	st = dev.Remove(nil, nil)
	require.True(t, st.IsSuccess())
}

func TestDeviceConnectWithAutoSecuritySucceedsOnThirdRungAndUnsuppressesAtEnd(t *testing.T) {
	a, dev := testDevice()

	var attempted []SecurityLevel
	negotiate := func(ctx context.Context, d *Device, level SecurityLevel, ioCap IOCapability) Status {
		attempted = append(attempted, level)
		require.True(t, d.eventsSuppressed(), "events must stay suppressed mid-ladder")
		if level == SecurityLevelUnauthenticatedEncryption {
			return StatusSuccess
		}
		return StatusAuthenticationFailure
	}

	st := dev.ConnectWithAutoSecurity(context.Background(), a.Transport(), IOCapKeyboardDisplay, negotiate)
	require.True(t, st.IsSuccess())
	require.Equal(t, []SecurityLevel{
		SecurityLevelAuthenticatedSecureConnections,
		SecurityLevelAuthenticatedEncryption,
		SecurityLevelUnauthenticatedEncryption,
	}, attempted)
	require.False(t, dev.eventsSuppressed())
}

func TestDeviceConnectWithAutoSecurityExhaustsLadderOnTotalFailure(t *testing.T) {
	a, dev := testDevice()

	calls := 0
	negotiate := func(ctx context.Context, d *Device, level SecurityLevel, ioCap IOCapability) Status {
		calls++
		return StatusAuthenticationFailure
	}

	st := dev.ConnectWithAutoSecurity(context.Background(), a.Transport(), IOCapNoInputNoOutput, negotiate)
	require.False(t, st.IsSuccess())
	require.Equal(t, len(AutoSecurityLadder), calls)
	require.False(t, dev.eventsSuppressed())
}

func TestDeviceConfigNotificationIndicationWritesCCCD(t *testing.T) {
	svc := NewService(testServiceUUID)
	ch := svc.AddCharacteristic(testNotifyCharUUID, CharPropNotify)

	_, dev := testDevice()
	state := make([]byte, 2)
	st := dev.ConfigNotificationIndication(ch, true, false, state)
	require.True(t, st.IsSuccess())
	require.Equal(t, []byte{0x01, 0x00}, state)

	notify, indicate := ch.CCCDState()
	require.True(t, notify)
	require.False(t, indicate)
}
