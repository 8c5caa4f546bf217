package dbt

import "time"

// GATTServerListener is the abstract set of callbacks the (external) ATT
// layer invokes against a connected device's server database, per
// spec.md §4.3. Every method has a no-op default via
// DefaultGATTServerListener so implementers only override what they
// need — the Go analogue of the teacher's abstract-listener-with-no-op-
// overrides pattern (see SPEC_FULL.md §9, "inheritance of listeners").
type GATTServerListener interface {
	Connected(dev *Device, initialMTU int)
	Disconnected(dev *Device)
	MTUChanged(dev *Device, mtu int)

	ReadCharValue(dev *Device, svc *Service, ch *Characteristic) bool
	ReadDescValue(dev *Device, svc *Service, ch *Characteristic, d *Descriptor) bool

	WriteCharValue(dev *Device, svc *Service, ch *Characteristic, value []byte, offset int) bool
	WriteDescValue(dev *Device, svc *Service, ch *Characteristic, d *Descriptor, value []byte, offset int) bool

	WriteCharValueDone(dev *Device, svc *Service, ch *Characteristic)
	WriteDescValueDone(dev *Device, svc *Service, ch *Characteristic, d *Descriptor)

	ClientCharConfigChanged(dev *Device, svc *Service, ch *Characteristic, d *Descriptor, notify, indicate bool)
}

// DefaultGATTServerListener gives every GATTServerListener method a no-op
// body; embed it and override only the callbacks of interest.
type DefaultGATTServerListener struct{}

func (DefaultGATTServerListener) Connected(*Device, int)    {}
func (DefaultGATTServerListener) Disconnected(*Device)      {}
func (DefaultGATTServerListener) MTUChanged(*Device, int)   {}

func (DefaultGATTServerListener) ReadCharValue(*Device, *Service, *Characteristic) bool { return true }
func (DefaultGATTServerListener) ReadDescValue(*Device, *Service, *Characteristic, *Descriptor) bool {
	return true
}

func (DefaultGATTServerListener) WriteCharValue(*Device, *Service, *Characteristic, []byte, int) bool {
	return true
}
func (DefaultGATTServerListener) WriteDescValue(*Device, *Service, *Characteristic, *Descriptor, []byte, int) bool {
	return true
}

func (DefaultGATTServerListener) WriteCharValueDone(*Device, *Service, *Characteristic)              {}
func (DefaultGATTServerListener) WriteDescValueDone(*Device, *Service, *Characteristic, *Descriptor) {}

func (DefaultGATTServerListener) ClientCharConfigChanged(*Device, *Service, *Characteristic, *Descriptor, bool, bool) {
}

// gattListenerRegistry holds the listeners attached to one server
// database and implements the unanimous-vote authorization rule from
// spec.md §4.3: a read/write is authorized only if every listener
// returns true. Listener lists are copy-on-write snapshots for iteration
// (spec.md §5 shared-resource policy), so a listener may add/remove
// listeners from inside a callback without deadlocking.
type gattListenerRegistry struct {
	mu        chanMutex
	listeners []GATTServerListener
}

// chanMutex is a trivial channel-based mutex; used instead of sync.Mutex
// purely so the zero value is ready-to-use without an explicit
// constructor, matching the teacher's preference for zero-value-usable
// structs (e.g. l2cap.sendmu).
type chanMutex struct {
	c chan struct{}
	o bool
}

func (m *chanMutex) ensure() {
	if !m.o {
		m.c = make(chan struct{}, 1)
		m.o = true
	}
}

func (m *chanMutex) Lock() {
	m.ensure()
	m.c <- struct{}{}
}

func (m *chanMutex) Unlock() {
	<-m.c
}

func (r *gattListenerRegistry) add(l GATTServerListener) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, have := range r.listeners {
		if have == l {
			return false
		}
	}
	next := make([]GATTServerListener, len(r.listeners)+1)
	copy(next, r.listeners)
	next[len(r.listeners)] = l
	r.listeners = next
	return true
}

func (r *gattListenerRegistry) remove(l GATTServerListener) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, have := range r.listeners {
		if have == l {
			next := make([]GATTServerListener, 0, len(r.listeners)-1)
			next = append(next, r.listeners[:i]...)
			next = append(next, r.listeners[i+1:]...)
			r.listeners = next
			return true
		}
	}
	return false
}

func (r *gattListenerRegistry) snapshot() []GATTServerListener {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listeners
}

func (r *gattListenerRegistry) voteReadChar(dev *Device, s *Service, c *Characteristic) bool {
	for _, l := range r.snapshot() {
		if !l.ReadCharValue(dev, s, c) {
			return false
		}
	}
	return true
}

func (r *gattListenerRegistry) voteReadDesc(dev *Device, s *Service, c *Characteristic, d *Descriptor) bool {
	for _, l := range r.snapshot() {
		if !l.ReadDescValue(dev, s, c, d) {
			return false
		}
	}
	return true
}

func (r *gattListenerRegistry) voteWriteChar(dev *Device, s *Service, c *Characteristic, v []byte, off int) bool {
	for _, l := range r.snapshot() {
		if !l.WriteCharValue(dev, s, c, v, off) {
			return false
		}
	}
	return true
}

func (r *gattListenerRegistry) voteWriteDesc(dev *Device, s *Service, c *Characteristic, d *Descriptor, v []byte, off int) bool {
	for _, l := range r.snapshot() {
		if !l.WriteDescValue(dev, s, c, d, v, off) {
			return false
		}
	}
	return true
}

func (r *gattListenerRegistry) notifyWriteCharDone(dev *Device, s *Service, c *Characteristic) {
	for _, l := range r.snapshot() {
		l.WriteCharValueDone(dev, s, c)
	}
}

func (r *gattListenerRegistry) notifyWriteDescDone(dev *Device, s *Service, c *Characteristic, d *Descriptor) {
	for _, l := range r.snapshot() {
		l.WriteDescValueDone(dev, s, c, d)
	}
}

func (r *gattListenerRegistry) notifyCCCDChanged(dev *Device, s *Service, c *Characteristic, d *Descriptor, notify, indicate bool) {
	for _, l := range r.snapshot() {
		l.ClientCharConfigChanged(dev, s, c, d, notify, indicate)
	}
}

func (r *gattListenerRegistry) notifyConnected(dev *Device, mtu int) {
	for _, l := range r.snapshot() {
		l.Connected(dev, mtu)
	}
}

func (r *gattListenerRegistry) notifyDisconnected(dev *Device) {
	for _, l := range r.snapshot() {
		l.Disconnected(dev)
	}
}

func (r *gattListenerRegistry) notifyMTUChanged(dev *Device, mtu int) {
	for _, l := range r.snapshot() {
		l.MTUChanged(dev, mtu)
	}
}

// CharacteristicListener is the client-side notification/indication
// callback contract, registered device-wide via
// Device.AddCharacteristicListener and called for every characteristic
// of that Device; there is no per-characteristic registration.
// Grounded on the teacher's NotifyHandler (characteristic.go) and
// notifier.go's Notifier, generalized to also carry indications with the
// confirmation-sent flag spec.md §4.4 requires.
type CharacteristicListener interface {
	NotificationReceived(ch *Characteristic, value []byte, ts time.Time)
	IndicationReceived(ch *Characteristic, value []byte, ts time.Time, confirmationSent bool)
}

// DefaultCharacteristicListener gives both CharacteristicListener methods
// no-op bodies.
type DefaultCharacteristicListener struct{}

func (DefaultCharacteristicListener) NotificationReceived(*Characteristic, []byte, time.Time) {}
func (DefaultCharacteristicListener) IndicationReceived(*Characteristic, []byte, time.Time, bool) {}
