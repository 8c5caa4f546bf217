package dbt

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// AdapterStatusListener receives lifecycle events for one adapter,
// dispatched on that adapter's dedicated serialization thread, spec.md
// §4.7. Every method has a no-op default via
// DefaultAdapterStatusListener.
type AdapterStatusListener interface {
	AdapterSettingsChanged(a *Adapter, oldMask, newMask, changedMask uint32)
	DeviceFound(a *Adapter, dev *Device) bool
	DeviceConnected(a *Adapter, dev *Device)
	DevicePairingState(a *Adapter, dev *Device, state PairingState, mode PairingMode)
	DeviceReady(a *Adapter, dev *Device)
	DeviceDisconnected(a *Adapter, dev *Device, reason Status)
}

// DefaultAdapterStatusListener gives every AdapterStatusListener method
// a no-op body (DeviceFound defaults to accepting, per spec.md §4.7 —
// override to filter).
type DefaultAdapterStatusListener struct{}

func (DefaultAdapterStatusListener) AdapterSettingsChanged(*Adapter, uint32, uint32, uint32) {}
func (DefaultAdapterStatusListener) DeviceFound(*Adapter, *Device) bool                      { return true }
func (DefaultAdapterStatusListener) DeviceConnected(*Adapter, *Device)                       {}
func (DefaultAdapterStatusListener) DevicePairingState(*Adapter, *Device, PairingState, PairingMode) {
}
func (DefaultAdapterStatusListener) DeviceReady(*Adapter, *Device)                {}
func (DefaultAdapterStatusListener) DeviceDisconnected(*Adapter, *Device, Status) {}

// statusListenerRegistry is the identity-based, copy-on-write listener
// list held by Manager and Device, per spec.md §8 "Listener identity":
// attaching the same instance twice is a no-op returning false; removing
// returns true exactly once.
type statusListenerRegistry struct {
	mu        sync.Mutex
	listeners []AdapterStatusListener
}

func (r *statusListenerRegistry) add(l AdapterStatusListener) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, have := range r.listeners {
		if have == l {
			return false
		}
	}
	next := make([]AdapterStatusListener, len(r.listeners)+1)
	copy(next, r.listeners)
	next[len(r.listeners)] = l
	r.listeners = next
	return true
}

func (r *statusListenerRegistry) remove(l AdapterStatusListener) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, have := range r.listeners {
		if have == l {
			next := make([]AdapterStatusListener, 0, len(r.listeners)-1)
			next = append(next, r.listeners[:i]...)
			next = append(next, r.listeners[i+1:]...)
			r.listeners = next
			return true
		}
	}
	return false
}

func (r *statusListenerRegistry) snapshot() []AdapterStatusListener {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listeners
}

// ChangedAdapterSetListener observes adapters being added to or removed
// from the Manager's tracked set, including hot-plug events.
type ChangedAdapterSetListener interface {
	AdapterAdded(a *Adapter)
	AdapterRemoved(a *Adapter)
}

// adapterEvent is one unit of work on an adapter's dedicated dispatch
// thread.
type adapterEvent struct {
	run func()
}

// adapterDispatcher serializes AdapterStatusListener callbacks for one
// adapter on a single goroutine reading from an unbounded-by-convention
// buffered channel, guaranteeing strict per-adapter ordering while
// allowing different adapters' dispatchers to run fully in parallel —
// spec.md §4.7/§5.
//
// Grounded on the teacher's notifier.go pattern of a dedicated
// goroutine draining a channel to serialize notification delivery,
// generalized from "one worker per characteristic" to "one worker per
// adapter".
type adapterDispatcher struct {
	events chan adapterEvent
	done   chan struct{}
}

func newAdapterDispatcher() *adapterDispatcher {
	d := &adapterDispatcher{
		events: make(chan adapterEvent, 256),
		done:   make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *adapterDispatcher) loop() {
	for ev := range d.events {
		ev.run()
	}
	close(d.done)
}

func (d *adapterDispatcher) submit(run func()) {
	d.events <- adapterEvent{run: run}
}

func (d *adapterDispatcher) stop() {
	close(d.events)
	<-d.done
}

// Manager is the global entry point tracking the adapter set, per
// spec.md §4.7. Grounded on the teacher's top-level gatt.NewServer
// constructor pattern generalized into a persistent value owning many
// adapters instead of one anonymous server instance (NewManager may be
// called more than once; each call returns an independent Manager); the
// per-adapter dispatcher is new, since the teacher never had more than
// one controller's worth of events to serialize.
type Manager struct {
	mu sync.Mutex

	adapters    []*Adapter
	dispatchers map[int]*adapterDispatcher

	setListeners    []ChangedAdapterSetListener
	statusListeners statusListenerRegistry

	log *logrus.Entry
}

// NewManager constructs an empty Manager. Call AddAdapter for each
// adapter discovered at startup or hot-plugged in afterward.
func NewManager() *Manager {
	return &Manager{
		dispatchers: map[int]*adapterDispatcher{},
		log:         newManagerLog(),
	}
}

// Adapters returns a snapshot of the currently tracked adapters.
func (m *Manager) Adapters() []*Adapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Adapter, len(m.adapters))
	copy(out, m.adapters)
	return out
}

// AddAdapter registers a newly discovered or hot-plugged adapter,
// starts its dedicated dispatch thread, and notifies every
// ChangedAdapterSetListener of the addition.
func (m *Manager) AddAdapter(a *Adapter) {
	m.mu.Lock()
	m.adapters = append(m.adapters, a)
	m.dispatchers[a.devID] = newAdapterDispatcher()
	listeners := append([]ChangedAdapterSetListener(nil), m.setListeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		l.AdapterAdded(a)
	}

	m.dispatchDeviceEventLocked(a, func() {
		for _, sl := range m.statusListeners.snapshot() {
			sl.AdapterSettingsChanged(a, 0, 0xFFFFFFFF, 0)
		}
	})
}

// RemoveAdapter unregisters an adapter (e.g. on hot-unplug), stopping
// its dispatch thread only after any events already queued for it have
// drained, per spec.md §5's "adapterRemoved strictly follows any
// pending device events" ordering guarantee.
func (m *Manager) RemoveAdapter(a *Adapter) {
	m.mu.Lock()
	idx := -1
	for i, have := range m.adapters {
		if have == a {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return
	}
	m.adapters = append(m.adapters[:idx], m.adapters[idx+1:]...)
	disp := m.dispatchers[a.devID]
	delete(m.dispatchers, a.devID)
	listeners := append([]ChangedAdapterSetListener(nil), m.setListeners...)
	m.mu.Unlock()

	if disp != nil {
		disp.stop()
	}
	for _, l := range listeners {
		l.AdapterRemoved(a)
	}
}

// AddChangedAdapterSetListener attaches l and immediately replays
// AdapterAdded for every currently known adapter, so user code never
// needs to distinguish "adapters present at attach time" from "adapters
// added afterward" — spec.md §4.7/§8 "Initial-adapter-replay".
func (m *Manager) AddChangedAdapterSetListener(l ChangedAdapterSetListener) bool {
	m.mu.Lock()
	for _, have := range m.setListeners {
		if have == l {
			m.mu.Unlock()
			return false
		}
	}
	m.setListeners = append(m.setListeners, l)
	snapshot := make([]*Adapter, len(m.adapters))
	copy(snapshot, m.adapters)
	m.mu.Unlock()

	for _, a := range snapshot {
		l.AdapterAdded(a)
	}
	return true
}

// RemoveChangedAdapterSetListener detaches l.
func (m *Manager) RemoveChangedAdapterSetListener(l ChangedAdapterSetListener) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, have := range m.setListeners {
		if have == l {
			m.setListeners = append(m.setListeners[:i], m.setListeners[i+1:]...)
			return true
		}
	}
	return false
}

// AddStatusListener attaches a global AdapterStatusListener invoked for
// every adapter's events, delivering the initial synthetic
// adapterSettingsChanged per spec.md §4.7 for every already-known
// adapter.
func (m *Manager) AddStatusListener(l AdapterStatusListener) bool {
	if !m.statusListeners.add(l) {
		return false
	}
	for _, a := range m.Adapters() {
		a := a
		m.dispatchDeviceEventLocked(a, func() {
			l.AdapterSettingsChanged(a, 0, 0xFFFFFFFF, 0)
		})
	}
	return true
}

// RemoveStatusListener detaches l.
func (m *Manager) RemoveStatusListener(l AdapterStatusListener) bool {
	return m.statusListeners.remove(l)
}

// dispatchDeviceEventLocked submits run to a's dedicated dispatch
// goroutine, preserving strict per-adapter ordering (spec.md §5).
func (m *Manager) dispatchDeviceEventLocked(a *Adapter, run func()) {
	m.mu.Lock()
	disp := m.dispatchers[a.devID]
	m.mu.Unlock()
	if disp == nil {
		run()
		return
	}
	disp.submit(run)
}

// NotifyDeviceFound submits the deviceFound dispatch for dev on a's
// thread: dev is retained if any listener returns true; if no listener
// returns true, dev is not retained in
// the adapter's discovered-devices set, per spec.md §8 "deviceFound
// ownership". Blocks the calling goroutine until the vote and any
// retention side effect complete, since the caller (the advertising-
// report decoder) needs dev's fate before deciding whether to keep
// tracking it further.
func (m *Manager) NotifyDeviceFound(a *Adapter, dev *Device) bool {
	resultCh := make(chan bool, 1)
	m.dispatchDeviceEventLocked(a, func() {
		accepted := false
		for _, l := range m.statusListeners.snapshot() {
			if l.DeviceFound(a, dev) {
				accepted = true
			}
		}
		if accepted {
			a.RegisterDeviceFound(dev)
		}
		resultCh <- accepted
	})
	return <-resultCh
}

// NotifyDeviceConnected dispatches deviceConnected for dev on a's thread.
// Skipped while dev is mid-retry under Device.ConnectWithAutoSecurity,
// per spec.md §4.6's intermediate-event suppression.
func (m *Manager) NotifyDeviceConnected(a *Adapter, dev *Device) {
	if dev.eventsSuppressed() {
		return
	}
	m.dispatchDeviceEventLocked(a, func() {
		for _, l := range m.statusListeners.snapshot() {
			l.DeviceConnected(a, dev)
		}
	})
}

// NotifyDevicePairingState dispatches devicePairingState for dev on a's
// thread.
func (m *Manager) NotifyDevicePairingState(a *Adapter, dev *Device, state PairingState, mode PairingMode) {
	m.dispatchDeviceEventLocked(a, func() {
		for _, l := range m.statusListeners.snapshot() {
			l.DevicePairingState(a, dev, state, mode)
		}
	})
}

// NotifyDeviceReady dispatches deviceReady for dev on a's thread. This
// is the one callback spec.md §5 permits to block at length; the
// dispatcher still serializes it against other events for the same
// adapter by design (a slow deviceReady delays that adapter's later
// events, never another adapter's).
func (m *Manager) NotifyDeviceReady(a *Adapter, dev *Device) {
	m.dispatchDeviceEventLocked(a, func() {
		for _, l := range m.statusListeners.snapshot() {
			l.DeviceReady(a, dev)
		}
	})
}

// NotifyDeviceDisconnected dispatches deviceDisconnected for dev on a's
// thread. Skipped while dev is mid-retry under
// Device.ConnectWithAutoSecurity, per spec.md §4.6's intermediate-event
// suppression.
func (m *Manager) NotifyDeviceDisconnected(a *Adapter, dev *Device, reason Status) {
	if dev.eventsSuppressed() {
		return
	}
	m.dispatchDeviceEventLocked(a, func() {
		for _, l := range m.statusListeners.snapshot() {
			l.DeviceDisconnected(a, dev, reason)
		}
	})
}

// Close stops every adapter's dispatch thread. Call once at shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	dispatchers := make([]*adapterDispatcher, 0, len(m.dispatchers))
	for _, d := range m.dispatchers {
		dispatchers = append(dispatchers, d)
	}
	m.dispatchers = map[int]*adapterDispatcher{}
	m.mu.Unlock()

	for _, d := range dispatchers {
		d.stop()
	}
}
