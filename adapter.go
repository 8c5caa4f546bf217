package dbt

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/direct-bt/dbt/transport"
)

// Role is the adapter's current GAP role.
type Role int

const (
	RoleMaster Role = iota
	RoleSlave
)

func (r Role) String() string {
	if r == RoleSlave {
		return "SLAVE"
	}
	return "MASTER"
}

// BTMode selects which link layers an adapter operates.
type BTMode int

const (
	BTModeLE BTMode = iota
	BTModeBREDR
	BTModeDual
)

// PowerState is the adapter's power lifecycle stage.
type PowerState int

const (
	PowerOff PowerState = iota
	PowerOn
)

// ScanType is the meta scan type currently in effect.
type ScanType int

const (
	ScanTypeNone ScanType = iota
	ScanTypeLEPassive
	ScanTypeLEActive
	ScanTypeBREDR
	ScanTypeDual
)

// DiscoveryPolicy governs auto-pause/resume of discovery around
// connection activity, spec.md §4.5.
type DiscoveryPolicy int

const (
	DiscoveryPolicyAutoOff DiscoveryPolicy = iota
	DiscoveryPolicyPauseUntilDisconnected
	DiscoveryPolicyPauseUntilReady
	DiscoveryPolicyPauseUntilPaired
	DiscoveryPolicyAlwaysOn
)

// ScanParams are the LE discovery parameters; Interval/Window are in
// units of 0.625ms and clamped to [4..16384] by StartDiscovery.
type ScanParams struct {
	Interval        uint16
	Window          uint16
	ActiveScanning  bool
	FilterPolicy    uint8
	DuplicateFilter bool
}

func clampScanUnit(v uint16) uint16 {
	switch {
	case v < 4:
		return 4
	case v > 16384:
		return 16384
	default:
		return v
	}
}

// WhitelistEntry is one accept-list record with its per-entry connection
// parameter envelope, spec.md §4.5.
type WhitelistEntry struct {
	Address            BDAddressAndType
	ConnIntervalMin     uint16
	ConnIntervalMax     uint16
	ConnLatency         uint16
	SupervisionTimeout  uint16
}

// DefaultConnParams are the parameters offered for incoming peripheral-
// side connections, spec.md §4.5.
type DefaultConnParams struct {
	IntervalMin        uint16 // 1.25ms units
	IntervalMax        uint16
	Latency            uint16 // connection events
	SupervisionTimeout uint16 // 10ms units
}

// Adapter is the local controller abstraction: spec.md §3/§4.5.
//
// Grounded on the teacher's server.go/server_linux.go Server type
// (the device-power/advertise/accept lifecycle owner) generalized with
// the discovery, whitelist, role-transition, and discovery-policy state
// machine spec.md §4.5 names — none of which the teacher implements,
// since paypal-gatt is a peripheral-only GATT server library with no
// central-role scanning support; the state machine shape below follows
// the teacher's mutex-guarded-struct-with-explicit-lifecycle-methods
// idiom (see server.go's addService/removeAllServices under s.mu).
type Adapter struct {
	mu sync.Mutex

	devID         int
	publicAddress BDAddressAndType
	visibleAddress BDAddressAndType
	name          string
	shortName     string

	role  Role
	mode  BTMode
	power PowerState

	discoveryState  bool
	advertisingState bool
	scanType        ScanType
	scanParams      ScanParams
	discoveryPolicy DiscoveryPolicy

	whitelist []WhitelistEntry
	connParams DefaultConnParams

	connectedDevices  map[string]*Device
	discoveredDevices map[string]*Device

	pausingDiscovery map[string]bool // devices currently holding discovery paused

	serverDB *ServerDB
	eir      *EIR

	persistentKeyPath string
	persistentKeys    map[string]*SMPKeyBin // keyed by remote BDAddressAndType.String()

	listeners gattListenerRegistry

	transport transport.HCITransport
	log       *logrus.Entry
}

// NewAdapter constructs a powered-off adapter for the given HCI device
// index and transport.
func NewAdapter(devID int, publicAddress BDAddressAndType, t transport.HCITransport) *Adapter {
	return &Adapter{
		devID:             devID,
		publicAddress:     publicAddress,
		visibleAddress:    publicAddress,
		mode:              BTModeLE,
		connectedDevices:  map[string]*Device{},
		discoveredDevices: map[string]*Device{},
		pausingDiscovery:  map[string]bool{},
		persistentKeys:    map[string]*SMPKeyBin{},
		connParams: DefaultConnParams{
			IntervalMin:        24, // 30ms
			IntervalMax:        40, // 50ms
			Latency:            0,
			SupervisionTimeout: 200, // 2s
		},
		transport: t,
		log:       newAdapterLog(devID),
	}
}

// DevID returns the adapter's HCI device index.
func (a *Adapter) DevID() int { return a.devID }

// Transport returns the HCI transport this adapter issues commands on.
func (a *Adapter) Transport() transport.HCITransport { return a.transport }

// PublicAddress returns the adapter's controller-assigned public address.
func (a *Adapter) PublicAddress() BDAddressAndType {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.publicAddress
}

// Name returns the adapter's current GAP device name.
func (a *Adapter) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.name
}

// SetName sets the adapter's GAP name/short-name, used as the device
// name in advertising and the GAP service's Device Name characteristic.
func (a *Adapter) SetName(name, shortName string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.name = name
	a.shortName = shortName
}

// IsPowered reports whether the adapter has completed PowerOn.
func (a *Adapter) IsPowered() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.power == PowerOn
}

// PowerOnAdapter marks the adapter powered on. It issues no HCI command
// to the controller; persistent key files are loaded by
// SetPersistentKeyPath, not here.
func (a *Adapter) PowerOnAdapter() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.power == PowerOn {
		return StatusSuccess
	}
	a.power = PowerOn
	a.log.Info("adapter powered on")
	return StatusSuccess
}

// PowerOffAdapter marks the adapter powered off and clears the
// discovery and advertising state. Open connections are not torn down
// and the connected-devices set is left as it is.
func (a *Adapter) PowerOffAdapter() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.power = PowerOff
	a.discoveryState = false
	a.advertisingState = false
	a.log.Info("adapter powered off")
	return StatusSuccess
}

func (a *Adapter) hasOpenConnections() bool { return len(a.connectedDevices) > 0 }

// StartDiscovery forces the adapter role to Master and begins scanning
// with params. Rejects if advertising is active or connections are
// open while in Slave role, per spec.md §4.5. Always clears the
// discovered-devices set first.
func (a *Adapter) StartDiscovery(params ScanParams) Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.advertisingState {
		return StatusCommandDisallowed
	}
	if a.hasOpenConnections() && a.role == RoleSlave {
		return StatusCommandDisallowed
	}
	a.role = RoleMaster
	a.discoveredDevices = map[string]*Device{}
	params.Interval = clampScanUnit(params.Interval)
	params.Window = clampScanUnit(params.Window)
	a.scanParams = params
	if params.ActiveScanning {
		a.scanType = ScanTypeLEActive
	} else {
		a.scanType = ScanTypeLEPassive
	}
	a.discoveryState = true
	a.log.Info("discovery started")
	return StatusSuccess
}

// StopDiscovery stops scanning. Idempotent.
func (a *Adapter) StopDiscovery() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.discoveryState = false
	a.scanType = ScanTypeNone
	return StatusSuccess
}

// IsDiscovering reports whether discovery is currently active and not
// paused by the discovery policy.
func (a *Adapter) IsDiscovering() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.discoveryState && len(a.pausingDiscovery) == 0
}

// SetDiscoveryPolicy selects the auto-pause/resume variant governing
// discovery around connection activity.
func (a *Adapter) SetDiscoveryPolicy(p DiscoveryPolicy) { a.mu.Lock(); a.discoveryPolicy = p; a.mu.Unlock() }

func (a *Adapter) discoveryPolicyLocked() DiscoveryPolicy { return a.discoveryPolicy }

// pauseDiscoveryFor marks dev as holding discovery paused, per the
// active discovery policy; called internally as a device moves through
// its lifecycle.
func (a *Adapter) pauseDiscoveryFor(dev *Device) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.discoveryPolicy == DiscoveryPolicyAutoOff {
		a.discoveryState = false
		return
	}
	a.pausingDiscovery[dev.key()] = true
}

// resumeDiscoveryFor releases dev's hold on discovery; once the queue is
// empty, IsDiscovering reports true again. The policy is not consulted
// here, and ALWAYS_ON pauses and resumes the same way as the other
// policies except AUTO_OFF.
func (a *Adapter) resumeDiscoveryFor(dev *Device) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pausingDiscovery, dev.key())
}

// StartAdvertising forces the adapter role to Slave, freezes db, and
// begins advertising eir (with LE_Gen_Disc and the adapter name always
// forced present regardless of the caller's flags/name field). Rejects
// if discovery is active or connections are open while in Master role.
func (a *Adapter) StartAdvertising(db *ServerDB, eir *EIR) Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.discoveryState {
		return StatusCommandDisallowed
	}
	if a.hasOpenConnections() && a.role == RoleMaster {
		return StatusCommandDisallowed
	}
	if err := db.Freeze(); err != nil {
		return StatusFailed
	}
	a.role = RoleSlave
	a.serverDB = db

	merged := *eir
	merged.SetFlags(eir.Flags | GAPFlagLEGenDisc)
	if merged.Name == "" {
		merged.SetName(a.name)
	}
	a.eir = &merged
	a.advertisingState = true
	a.log.Info("advertising started")
	return StatusSuccess
}

// StopAdvertising stops advertising. Idempotent.
func (a *Adapter) StopAdvertising() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.advertisingState = false
	return StatusSuccess
}

// AddWhitelistEntry appends e to the accept list, rejecting duplicate
// addresses.
func (a *Adapter) AddWhitelistEntry(e WhitelistEntry) Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, have := range a.whitelist {
		if have.Address.Equal(e.Address) {
			return StatusInvalidParams
		}
	}
	a.whitelist = append(a.whitelist, e)
	return StatusSuccess
}

// Whitelist returns a copy of the current accept list.
func (a *Adapter) Whitelist() []WhitelistEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]WhitelistEntry, len(a.whitelist))
	copy(out, a.whitelist)
	return out
}

// SetDefaultConnParams configures the parameters offered to incoming
// peripheral-side connections. Rejected while the adapter is powered,
// per spec.md §4.5.
func (a *Adapter) SetDefaultConnParams(p DefaultConnParams) Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.power == PowerOn {
		return StatusCommandDisallowed
	}
	a.connParams = p
	return StatusSuccess
}

// SetPersistentKeyPath records dir and immediately loads every valid
// SMPKeyBin file in it, removing invalid ones. Newly created records
// are not written to dir automatically.
func (a *Adapter) SetPersistentKeyPath(dir string) (int, error) {
	a.mu.Lock()
	a.persistentKeyPath = dir
	a.mu.Unlock()
	return a.loadPersistentKeys(dir)
}

func (a *Adapter) loadPersistentKeys(dir string) (int, error) {
	entries, err := readDirKeys(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, path := range entries {
		kb, err := ReadSMPKeyBinFile(path)
		if err != nil {
			a.log.Warnf("removing invalid key file %s: %v", path, err)
			removeFile(path)
			continue
		}
		if !kb.IsValid() {
			removeFile(path)
			continue
		}
		a.mu.Lock()
		a.persistentKeys[kb.RemoteAddress.String()] = kb
		a.mu.Unlock()
		n++
	}
	return n, nil
}

// LoadedKeyFor returns the key material auto-loaded for remote, if any,
// so a caller can drive Device.ConnectPrePaired/UploadKeys with it
// without re-reading the persistent key directory, per spec.md §4.5.
func (a *Adapter) LoadedKeyFor(remote BDAddressAndType) (*SMPKeyBin, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	kb, ok := a.persistentKeys[remote.String()]
	return kb, ok
}

// RegisterDeviceFound records dev in the discovered-devices set after
// the manager-level deviceFound dispatch has already accepted it
// (spec.md §4.7 "deviceFound ownership"); Adapter itself holds no vote.
func (a *Adapter) RegisterDeviceFound(dev *Device) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.discoveredDevices[dev.key()] = dev
}

// DiscoveredDevices returns a snapshot of the discovered-devices set.
func (a *Adapter) DiscoveredDevices() []*Device {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Device, 0, len(a.discoveredDevices))
	for _, d := range a.discoveredDevices {
		out = append(out, d)
	}
	return out
}

// ConnectedDevices returns a snapshot of the connected-devices set.
func (a *Adapter) ConnectedDevices() []*Device {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Device, 0, len(a.connectedDevices))
	for _, d := range a.connectedDevices {
		out = append(out, d)
	}
	return out
}

func (a *Adapter) registerConnected(dev *Device) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connectedDevices[dev.key()] = dev
}

func (a *Adapter) unregisterConnected(dev *Device) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.connectedDevices, dev.key())
}

// removeDevice drops dev from every adapter-owned collection, per
// spec.md §4.6 Device.Remove.
func (a *Adapter) removeDevice(dev *Device) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.connectedDevices, dev.key())
	delete(a.discoveredDevices, dev.key())
	delete(a.pausingDiscovery, dev.key())
}

// readDirKeys lists the *.key files directly within dir.
func readDirKeys(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) == ".key" {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

func removeFile(path string) { _ = os.Remove(path) }
