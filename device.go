package dbt

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/direct-bt/dbt/transport"
)

// PairingState is the SMP pairing state machine's current stage, spec.md
// §4.6: NONE -> FEATURE_EXCHANGE_STARTED -> FEATURE_EXCHANGE_COMPLETED ->
// one of {PASSKEY_EXPECTED, NUMERIC_COMPARE_EXPECTED, OOB_EXPECTED,
// KEY_DISTRIBUTION} -> COMPLETED | FAILED.
type PairingState int

const (
	PairingStateNone PairingState = iota
	PairingStateFeatureExchangeStarted
	PairingStateFeatureExchangeCompleted
	PairingStatePasskeyExpected
	PairingStateNumericCompareExpected
	PairingStateOOBExpected
	PairingStateKeyDistribution
	PairingStateCompleted
	PairingStateFailed
)

func (s PairingState) String() string {
	switch s {
	case PairingStateNone:
		return "NONE"
	case PairingStateFeatureExchangeStarted:
		return "FEATURE_EXCHANGE_STARTED"
	case PairingStateFeatureExchangeCompleted:
		return "FEATURE_EXCHANGE_COMPLETED"
	case PairingStatePasskeyExpected:
		return "PASSKEY_EXPECTED"
	case PairingStateNumericCompareExpected:
		return "NUMERIC_COMPARE_EXPECTED"
	case PairingStateOOBExpected:
		return "OOB_EXPECTED"
	case PairingStateKeyDistribution:
		return "KEY_DISTRIBUTION"
	case PairingStateCompleted:
		return "COMPLETED"
	case PairingStateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// ConnParams are the connection-establishment parameters a Device uses,
// spec.md §4.6.
type ConnParams struct {
	LEScanInterval     uint16
	LEScanWindow       uint16
	ConnIntervalMin    uint16
	ConnIntervalMax    uint16
	ConnLatency        uint16
	SupervisionTimeout uint16 // 10ms units
}

// SupervisionTimeout computes the conventional default supervision
// timeout (10ms units) from the connection latency and maximum interval,
// per spec.md §4.6's helper formula and concrete scenario 4.
func SupervisionTimeout(latency int, maxIntervalMS float64, floorMS, multiplier float64) uint16 {
	if multiplier < 2 {
		multiplier = 2
	}
	v := float64(1+latency) * maxIntervalMS * multiplier
	if v < floorMS {
		v = floorMS
	}
	return uint16(v / 10)
}

// AutoSecurityLadder is the fixed (securityLevel, ioCap) retry sequence
// Auto Security Mode steps through on repeated connect/pair failure,
// spec.md §4.6.
var AutoSecurityLadder = []struct {
	Level SecurityLevel
	IOCap IOCapability
}{
	{SecurityLevelAuthenticatedSecureConnections, IOCapUnset}, // placeholder for user IO-cap, substituted at call time
	{SecurityLevelAuthenticatedEncryption, IOCapUnset},
	{SecurityLevelUnauthenticatedEncryption, IOCapNoInputNoOutput},
	{SecurityLevelNone, IOCapNoInputNoOutput},
}

// PHY is a Bluetooth LE physical layer rate.
type PHY int

const (
	PHY1M PHY = iota
	PHY2M
	PHYCoded
)

// removed marks a Device past Device.Remove: a tombstone flag, not a
// deleted struct, per the §9 open question this spec resolves as option
// (a) with a tombstone guard (see DESIGN.md): Remove is idempotent and
// transitions into this terminal, side-effect-free state rather than
// invalidating the pointer.
type removedState struct {
	is bool
	mu sync.Mutex
}

// Device is the remote peer lifecycle owner: spec.md §3/§4.6.
//
// Grounded on the teacher's conn.go Conn (the per-link state holder) and
// central_linux_test.go's discover/connect pattern, generalized with the
// SMP pairing state machine, key material, and GATT session caching
// spec.md §4.6 names — all absent from the teacher, which only ever
// plays the peripheral/server role and has no SMP, connect, or discovery
// concept. The mutex-guarded-struct idiom and copy-on-write listener
// snapshot follow gatt_listener.go's registry, built to the same shape.
type Device struct {
	mu sync.Mutex

	adapter *Adapter
	address BDAddressAndType

	name    string
	rssi    int8
	txPower int8

	eirMerged      *EIR
	eirLastInd     *EIR
	eirLastScanRsp *EIR

	creationTS      time.Time
	lastDiscoveryTS time.Time
	lastUpdateTS    time.Time

	role             Role
	connHandle       uint16 // 0 when not connected
	connParams       ConnParams

	pairingState PairingState
	pairingMode  PairingMode
	negSecurity  SecurityLevel
	negIOCap     IOCapability

	initKeys SMPKeyType
	respKeys SMPKeyType
	ltk      *LongTermKey
	irk      *IdentityResolvingKey
	csrk     *ConnectionSignatureResolvingKey
	lk       *LinkKey
	remoteLTK *LongTermKey

	gattServices    []*Service
	gattCached      bool
	mtu             int

	txPHY PHY
	rxPHY PHY

	charListeners   []CharacteristicListener
	statusListeners statusListenerRegistry

	tombstone removedState

	attTransport transport.ATTTransport
	log          *logrus.Entry

	autoSecurityEnabled bool
	autoSecurityIOCap   IOCapability
	suppressConnEvents  bool
}

// NewDevice constructs a freshly-discovered device record owned by
// adapter.
func NewDevice(adapter *Adapter, address BDAddressAndType) *Device {
	now := deviceClockNow()
	return &Device{
		adapter:    adapter,
		address:    address,
		eirMerged:  NewEIR(),
		creationTS: now,
		lastUpdateTS: now,
		log:        newDeviceLog(address),
	}
}

// deviceClockNow is the single indirection point for "now", so tests can
// substitute a fixed clock without this package reaching for time.Now()
// in more than one place.
var deviceClockNow = time.Now

// key is the adapter-scoped map key identifying this device, the typed
// address rendered as a string.
func (d *Device) key() string { return d.address.String() }

// Address returns the device's stable typed address identity.
func (d *Device) Address() BDAddressAndType { return d.address }

// Adapter returns the owning adapter.
func (d *Device) Adapter() *Adapter { return d.adapter }

// Name returns the best-known device name (EIR-derived, or GAP-service
// derived once a GATT session has been established).
func (d *Device) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.name
}

// RSSI and TxPower return the most recently observed radio metrics.
func (d *Device) RSSI() int8    { d.mu.Lock(); defer d.mu.Unlock(); return d.rssi }
func (d *Device) TxPower() int8 { d.mu.Lock(); defer d.mu.Unlock(); return d.txPower }

// IsConnected reports whether the device currently has a live HCI
// connection handle.
func (d *Device) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connHandle != 0
}

// PairingState returns the current SMP pairing stage.
func (d *Device) PairingState() PairingState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pairingState
}

// PairingMode returns the negotiated association model.
func (d *Device) PairingMode() PairingMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pairingMode
}

// UpdateEIR merges a freshly observed report into the device's EIR
// state, tracking the per-source last report alongside the cumulative
// merged view, and refreshes RSSI/name/lastUpdateTS from fields the
// report actually carried.
func (d *Device) UpdateEIR(report *EIR) EIRField {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch report.Source {
	case EIRSourceADScanRsp:
		d.eirLastScanRsp = report
	default:
		d.eirLastInd = report
	}
	changed := d.eirMerged.Set(report)
	if changed.Has(EIRFieldRSSI) {
		d.rssi = d.eirMerged.RSSI
	}
	if changed.Has(EIRFieldTxPower) {
		d.txPower = d.eirMerged.TxPower
	}
	if changed.Has(EIRFieldName) && d.eirMerged.Name != "" {
		d.name = d.eirMerged.Name
	}
	d.lastUpdateTS = deviceClockNow()
	d.lastDiscoveryTS = d.lastUpdateTS
	return changed
}

// Has reports whether f is set in the EIRField bitmask, a small
// convenience used by UpdateEIR and tests.
func (f EIRField) Has(bit EIRField) bool { return f&bit != 0 }

// connectionResult is the outcome of one connect attempt. No code in
// this package uses it; ConnectWithAutoSecurity tracks the plain Status
// of each rung instead.
type connectionResult struct {
	status Status
}

// Connect establishes an LE connection using the device's current
// ConnParams, transitioning pairingState to FEATURE_EXCHANGE_STARTED
// once the link encrypts (simulated here at the transport boundary by
// the caller-supplied HCITransport's connection-complete event,
// delivered via the Manager dispatch loop, not from this method
// directly — Connect itself only issues the HCI command and blocks for
// its local completion per spec.md §5 suspension-point rule).
func (d *Device) Connect(ctx context.Context, t transport.HCITransport, params ConnParams) Status {
	d.mu.Lock()
	if d.connHandle != 0 {
		d.mu.Unlock()
		return StatusConnectionAlreadyExists
	}
	d.connParams = params
	d.mu.Unlock()

	_, err := t.SendCommand(ctx, hciOpcodeLECreateConnection, encodeConnParams(params, d.address))
	if err != nil {
		return StatusTimeout
	}
	return StatusSuccess
}

// ConnectPrePaired uploads ltk (and, if present, remoteLTK) before
// issuing the connection, so the link comes up already encrypted under
// PairingMode.PrePaired with SMP entirely skipped, per spec.md §4.6.
// Returns CONNECTION_ALREADY_EXISTS if the device is already connected.
func (d *Device) ConnectPrePaired(ctx context.Context, t transport.HCITransport, kb *SMPKeyBin) Status {
	d.mu.Lock()
	if d.connHandle != 0 {
		d.mu.Unlock()
		return StatusConnectionAlreadyExists
	}
	d.mu.Unlock()

	if st := d.UploadKeys(kb); !st.IsSuccess() {
		return st
	}

	d.mu.Lock()
	d.pairingMode = PairingModePrePaired
	d.mu.Unlock()

	return d.Connect(ctx, t, d.connParams)
}

// UploadKeys pushes kb's key material onto the device ahead of
// connecting. Rejects with CONNECTION_ALREADY_EXISTS if already
// connected, per spec.md §4.2 apply().
func (d *Device) UploadKeys(kb *SMPKeyBin) Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connHandle != 0 {
		return StatusConnectionAlreadyExists
	}
	if kb == nil || !kb.IsValid() {
		return StatusInvalidParams
	}
	d.negSecurity = SecurityLevelUnauthenticatedEncryption
	d.negIOCap = IOCapNoInputNoOutput
	if kb.LTK != nil {
		d.ltk = kb.LTK
		d.initKeys |= SMPKeyTypeEncKey
	}
	if kb.RemoteLTK != nil {
		d.remoteLTK = kb.RemoteLTK
		d.respKeys |= SMPKeyTypeEncKey
	}
	return StatusSuccess
}

// ConnectWithAutoSecurity drives the Auto Security Mode retry ladder,
// spec.md §4.6: it steps through AutoSecurityLadder from strongest to
// weakest requirement, substituting userIOCap for the first two rungs'
// placeholder IO-capability, connecting and then calling negotiate to
// drive that rung's SMP pairing to completion or failure. Intermediate
// deviceConnected/deviceDisconnected events are suppressed from Manager
// listeners for every rung but the last attempted one, per spec.md §4.6
// ("intermediate events are suppressed ... until success or final
// failure"). negotiate is supplied by the caller because the SMP
// feature-exchange/key-distribution flow itself is driven by inbound SMP
// PDUs outside this package's scope (see transport.ATTTransport).
func (d *Device) ConnectWithAutoSecurity(ctx context.Context, t transport.HCITransport, userIOCap IOCapability, negotiate func(ctx context.Context, d *Device, level SecurityLevel, ioCap IOCapability) Status) Status {
	d.mu.Lock()
	d.autoSecurityEnabled = true
	d.autoSecurityIOCap = userIOCap
	d.mu.Unlock()

	var last Status
	for i, rung := range AutoSecurityLadder {
		ioCap := rung.IOCap
		if i < 2 {
			ioCap = userIOCap
		}
		isFinalRung := i == len(AutoSecurityLadder)-1

		d.setSuppressConnEvents(!isFinalRung)

		d.mu.Lock()
		params := d.connParams
		d.mu.Unlock()
		st := d.Connect(ctx, t, params)
		if !st.IsSuccess() {
			last = st
			d.setSuppressConnEvents(false)
			if isFinalRung {
				return last
			}
			continue
		}

		last = negotiate(ctx, d, rung.Level, ioCap)
		if last.IsSuccess() {
			d.setSuppressConnEvents(false)
			return last
		}

		d.Disconnect(ctx, t)
		d.setSuppressConnEvents(false)
		if isFinalRung {
			return last
		}
	}
	return last
}

// setSuppressConnEvents toggles whether Manager.NotifyDeviceConnected and
// Manager.NotifyDeviceDisconnected should skip dispatch for this device.
func (d *Device) setSuppressConnEvents(v bool) {
	d.mu.Lock()
	d.suppressConnEvents = v
	d.mu.Unlock()
}

// eventsSuppressed reports whether connect/disconnect events for this
// device are currently suppressed, consulted by Manager's dispatch.
func (d *Device) eventsSuppressed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.suppressConnEvents
}

// onConnected is invoked by the dispatch loop when a ConnectionComplete
// event names this device's address; it is not part of Device's public
// API, matching spec.md §5's event-flows-upward/control-flows-downward
// separation.
func (d *Device) onConnected(handle uint16) {
	d.mu.Lock()
	d.connHandle = handle
	prePaired := d.pairingMode == PairingModePrePaired
	d.mu.Unlock()

	d.adapter.registerConnected(d)
	d.adapter.pauseDiscoveryFor(d)

	if prePaired {
		d.mu.Lock()
		d.pairingState = PairingStateCompleted
		d.mu.Unlock()
	} else {
		d.mu.Lock()
		d.pairingState = PairingStateFeatureExchangeStarted
		d.mu.Unlock()
	}
}

// onDisconnected is invoked by the dispatch loop on DisconnectionComplete.
func (d *Device) onDisconnected() {
	d.mu.Lock()
	d.connHandle = 0
	d.gattCached = false
	d.gattServices = nil
	if d.pairingState != PairingStateCompleted && d.pairingState != PairingStateNone {
		d.pairingState = PairingStateFailed
	}
	d.mu.Unlock()

	d.adapter.unregisterConnected(d)
	d.adapter.resumeDiscoveryFor(d)
}

// completeFeatureExchange transitions FEATURE_EXCHANGE_STARTED ->
// FEATURE_EXCHANGE_COMPLETED and records the negotiated association
// model, then advances into the mode-appropriate expectation state.
func (d *Device) completeFeatureExchange(mode PairingMode) Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pairingState != PairingStateFeatureExchangeStarted {
		return StatusInvalidParams
	}
	d.pairingState = PairingStateFeatureExchangeCompleted
	d.pairingMode = mode

	switch mode {
	case PairingModeJustWorks:
		d.pairingState = PairingStateKeyDistribution
	case PairingModePasskeyEntryInitiator, PairingModePasskeyEntryResponder:
		d.pairingState = PairingStatePasskeyExpected
	case PairingModeNumericComparison:
		d.pairingState = PairingStateNumericCompareExpected
	case PairingModeOutOfBand:
		d.pairingState = PairingStateOOBExpected
	}
	return StatusSuccess
}

// SetPairingPasskey supplies a 6-digit passkey in response to
// PASSKEY_EXPECTED. Invalid outside that state.
func (d *Device) SetPairingPasskey(passkey uint32) Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pairingState != PairingStatePasskeyExpected {
		return StatusInvalidParams
	}
	d.pairingState = PairingStateKeyDistribution
	return StatusSuccess
}

// SetPairingPasskeyNegative declines a passkey request — the canonical
// graceful reject, moving straight to FAILED.
func (d *Device) SetPairingPasskeyNegative() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pairingState != PairingStatePasskeyExpected {
		return StatusInvalidParams
	}
	d.pairingState = PairingStateFailed
	return StatusSuccess
}

// SetPairingNumericComparison confirms or rejects a numeric comparison
// in response to NUMERIC_COMPARE_EXPECTED.
func (d *Device) SetPairingNumericComparison(confirm bool) Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pairingState != PairingStateNumericCompareExpected {
		return StatusInvalidParams
	}
	if confirm {
		d.pairingState = PairingStateKeyDistribution
	} else {
		d.pairingState = PairingStateFailed
	}
	return StatusSuccess
}

// completeKeyDistribution finishes pairing, recording the negotiated
// security level and IO capability and marking COMPLETED.
func (d *Device) completeKeyDistribution(level SecurityLevel, ioCap IOCapability) Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pairingState != PairingStateKeyDistribution {
		return StatusInvalidParams
	}
	d.negSecurity = level
	d.negIOCap = ioCap
	d.pairingState = PairingStateCompleted
	return StatusSuccess
}

// CreateKeyBin snapshots the device's current security level, pairing
// state/mode, and available key material into a fresh SMPKeyBin, per
// spec.md §4.2 create(). The record is returned invalid (IsValid()
// false) unless the device is in one of the two permitted combinations.
func (d *Device) CreateKeyBin() *SMPKeyBin {
	d.mu.Lock()
	defer d.mu.Unlock()

	validCompleted := d.pairingState == PairingStateCompleted && d.negSecurity > SecurityLevelNone && d.pairingMode > PairingModeNone
	validNone := d.pairingState == PairingStateNone && d.negSecurity == SecurityLevelNone && d.pairingMode == PairingModeNone
	if !validCompleted && !validNone {
		return NewSMPKeyBin(d.adapter.PublicAddress(), d.address, SecurityLevelNone, IOCapUnset)
	}

	kb := NewSMPKeyBin(d.adapter.PublicAddress(), d.address, d.negSecurity, d.negIOCap)
	kb.Timestamp = uint64(deviceClockNow().Unix())
	kb.InitKeys = d.initKeys
	kb.RespKeys = d.respKeys
	kb.LTK = d.ltk
	kb.IRK = d.irk
	kb.CSRK = d.csrk
	kb.LK = d.lk
	kb.RemoteLTK = d.remoteLTK
	return kb
}

// GetGATTServices returns the device's GATT services, performing MTU
// exchange and full discovery on first call after connect and caching
// the result thereafter, per spec.md §4.6. Transmission failure yields
// an empty, uncached list so a later call may retry.
func (d *Device) GetGATTServices(ctx context.Context) []*Service {
	d.mu.Lock()
	if d.gattCached {
		out := make([]*Service, len(d.gattServices))
		copy(out, d.gattServices)
		d.mu.Unlock()
		return out
	}
	at := d.attTransport
	d.mu.Unlock()

	if at == nil {
		return nil
	}

	mtu, err := at.ExchangeMTU(ctx, DefaultMaxATTMTU)
	if err != nil {
		return nil
	}

	svcs, err := discoverAllServices(ctx, at)
	if err != nil {
		return nil
	}

	d.mu.Lock()
	d.mtu = int(mtu)
	d.gattServices = svcs
	d.gattCached = true
	if d.name == "" {
		if gap := findServiceByUUID(svcs, gapServiceUUID); gap != nil {
			if nameChar := gap.FindCharacteristic(gattAttrDeviceNameUUID); nameChar != nil {
				d.name = string(nameChar.Value())
			}
		}
	}
	out := make([]*Service, len(d.gattServices))
	copy(out, d.gattServices)
	d.mu.Unlock()
	return out
}

func findServiceByUUID(svcs []*Service, u UUID) *Service {
	for _, s := range svcs {
		if s.UUID().Equal(u) {
			return s
		}
	}
	return nil
}

// discoverAllServices is the GATT client discovery procedure: it is a
// thin placeholder over the out-of-scope ATT codec (spec.md §1) — a
// full implementation decodes Read By Group Type / Read By Type /
// Find Information response PDUs via at.Request; this stack only owns
// the caching/sequencing contract GetGATTServices names, not PDU
// encoding.
func discoverAllServices(ctx context.Context, at transport.ATTTransport) ([]*Service, error) {
	return nil, nil
}

// AddCharacteristicListener registers l for notification/indication
// callbacks across every characteristic of this device. Registering a
// listener does not itself enable any CCCD.
func (d *Device) AddCharacteristicListener(l CharacteristicListener) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, have := range d.charListeners {
		if have == l {
			return false
		}
	}
	d.charListeners = append(d.charListeners, l)
	return true
}

// RemoveCharacteristicListener unregisters l.
func (d *Device) RemoveCharacteristicListener(l CharacteristicListener) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, have := range d.charListeners {
		if have == l {
			d.charListeners = append(d.charListeners[:i], d.charListeners[i+1:]...)
			return true
		}
	}
	return false
}

// ConfigNotificationIndication writes ch's CCCD to enable/disable
// notifications and/or indications and reports the post-operation bits
// in outState (length-2 byte slice, CCCD wire layout).
func (d *Device) ConfigNotificationIndication(ch *Characteristic, notify, indicate bool, outState []byte) Status {
	cccd := ch.clientCharConfig()
	if cccd == nil {
		return StatusInvalidParams
	}
	var v uint16
	if notify {
		v |= cccNotifyBit
	}
	if indicate {
		v |= cccIndicateBit
	}
	cccd.SetValue([]byte{byte(v), byte(v >> 8)})
	if len(outState) >= 2 {
		outState[0] = byte(v)
		outState[1] = byte(v >> 8)
	}
	return StatusSuccess
}

// EnableNotificationOrIndication enables whichever of notify/indicate
// the characteristic's property bitset supports, preferring notify.
func (d *Device) EnableNotificationOrIndication(ch *Characteristic, outState []byte) Status {
	notify := ch.Properties().Has(CharPropNotify)
	indicate := !notify && ch.Properties().Has(CharPropIndicate)
	return d.ConfigNotificationIndication(ch, notify, indicate, outState)
}

// deliverNotification fans a received notification/indication out to
// every registered characteristic listener.
func (d *Device) deliverNotification(ch *Characteristic, value []byte, ts time.Time, isIndication, confirmationSent bool) {
	d.mu.Lock()
	listeners := make([]CharacteristicListener, len(d.charListeners))
	copy(listeners, d.charListeners)
	d.mu.Unlock()

	for _, l := range listeners {
		if isIndication {
			l.IndicationReceived(ch, value, ts, confirmationSent)
		} else {
			l.NotificationReceived(ch, value, ts)
		}
	}
}

// Disconnect closes the HCI connection asynchronously; deviceDisconnected
// eventually fires via the dispatch loop once the controller confirms.
// If SMP pairing is in progress it is aborted, surfacing
// devicePairingState(FAILED) ahead of deviceDisconnected, per spec.md §5.
func (d *Device) Disconnect(ctx context.Context, t transport.HCITransport) Status {
	d.mu.Lock()
	handle := d.connHandle
	if d.pairingState != PairingStateNone && d.pairingState != PairingStateCompleted && d.pairingState != PairingStateFailed {
		d.pairingState = PairingStateFailed
	}
	d.mu.Unlock()

	if handle == 0 {
		return StatusDisconnected
	}
	_, err := t.SendCommand(ctx, hciOpcodeDisconnect, encodeHandle(handle))
	if err != nil {
		return StatusTimeout
	}
	return StatusSuccess
}

// Remove disconnects (if needed) and drops the device from every
// adapter-owned collection, then marks it tombstoned. Remove is
// idempotent and safe to call again after it has already run (including
// after a prior Disconnect) — this resolves the §9 open question on
// remove-after-disconnect in favor of a tolerant, idempotent operation
// rather than leaving the original's use-after-free race (see
// DESIGN.md). It remains the caller's responsibility not to invoke
// Remove concurrently from two goroutines on the same Device, per
// spec.md §4.6.
func (d *Device) Remove(ctx context.Context, t transport.HCITransport) Status {
	d.tombstone.mu.Lock()
	if d.tombstone.is {
		d.tombstone.mu.Unlock()
		return StatusSuccess
	}
	d.tombstone.is = true
	d.tombstone.mu.Unlock()

	if d.IsConnected() {
		d.Disconnect(ctx, t)
	}
	d.adapter.removeDevice(d)
	return StatusSuccess
}

// IsRemoved reports whether Remove has already run for this device.
func (d *Device) IsRemoved() bool {
	d.tombstone.mu.Lock()
	defer d.tombstone.mu.Unlock()
	return d.tombstone.is
}

const (
	hciOpcodeDisconnect         uint16 = 0x0406
	hciOpcodeLECreateConnection uint16 = 0x200d
)

func encodeHandle(h uint16) []byte {
	return []byte{byte(h), byte(h >> 8), 0x13}
}

func encodeConnParams(p ConnParams, addr BDAddressAndType) []byte {
	b := addr.Address.Bytes()
	buf := make([]byte, 0, 25)
	buf = append(buf, byte(p.LEScanInterval), byte(p.LEScanInterval>>8))
	buf = append(buf, byte(p.LEScanWindow), byte(p.LEScanWindow>>8))
	buf = append(buf, 0x00) // initiator filter policy: use peer address
	buf = append(buf, byte(addr.Type))
	buf = append(buf, b[:]...)
	buf = append(buf, 0x00) // own address type: public
	buf = append(buf, byte(p.ConnIntervalMin), byte(p.ConnIntervalMin>>8))
	buf = append(buf, byte(p.ConnIntervalMax), byte(p.ConnIntervalMax>>8))
	buf = append(buf, byte(p.ConnLatency), byte(p.ConnLatency>>8))
	buf = append(buf, byte(p.SupervisionTimeout), byte(p.SupervisionTimeout>>8))
	buf = append(buf, 0x00, 0x00) // min/max CE length
	return buf
}
