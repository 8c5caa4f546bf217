package dbt

import "fmt"

// DefaultMaxATTMTU is the maximum ATT MTU offered by a fresh ServerDB,
// per spec.md §3.
const DefaultMaxATTMTU = 513

// ServerDB is the GATT server's attribute database: an ordered list of
// services plus a maximum ATT MTU. Handles are assigned once, at Freeze
// time, in depth-first order; after Freeze the structure is immutable —
// only descriptor and characteristic values may still mutate.
//
// Grounded on the teacher's handle.go generateHandles/handleRange, which
// performs the same depth-first handle numbering over a flat attribute
// list; ServerDB generalizes that into an explicit, queryable database
// type with the lookups spec.md §4.3 names (the teacher only exposed
// handle-range subsetting, not UUID-keyed lookups, since its l2cap.go ATT
// codec did the UUID matching inline — that codec is out of scope here).
type ServerDB struct {
	name     string
	services []*Service
	maxMTU   int

	frozen bool

	byValueHandle map[uint16]*Characteristic
	byDeclHandle  map[uint16]*Characteristic
	byDescHandle  map[uint16]*Descriptor
}

// NewServerDB constructs an empty server database advertising as name
// via the default GAP service's Device Name characteristic.
func NewServerDB(name string) *ServerDB {
	return &ServerDB{name: name, maxMTU: DefaultMaxATTMTU}
}

// MaxMTU returns the configured maximum ATT MTU.
func (db *ServerDB) MaxMTU() int { return db.maxMTU }

// SetMaxMTU overrides the default maximum ATT MTU. Must be called before
// Freeze.
func (db *ServerDB) SetMaxMTU(n int) error {
	if db.frozen {
		return fmt.Errorf("dbt: cannot change max MTU after the server database is frozen")
	}
	db.maxMTU = n
	return nil
}

// AddService registers a service with the database. All services must be
// added before Freeze.
func (db *ServerDB) AddService(s *Service) error {
	if db.frozen {
		return fmt.Errorf("dbt: cannot add service after the server database is frozen")
	}
	db.services = append(db.services, s)
	return nil
}

// Services returns the ordered list of services, including the default
// GAP/GATT services once Freeze has run.
func (db *ServerDB) Services() []*Service {
	out := make([]*Service, len(db.services))
	copy(out, db.services)
	return out
}

// IsFrozen reports whether handles have been assigned.
func (db *ServerDB) IsFrozen() bool { return db.frozen }

// defaultServices builds the mandatory GAP (0x1800) and GATT (0x1801)
// services prepended ahead of user services, matching the teacher's
// handle.go defaultServices.
func defaultServices(name string) []*Service {
	gap := NewService(gapServiceUUID)
	nameChar := gap.AddCharacteristic(gattAttrDeviceNameUUID, CharPropRead)
	nameChar.SetValue([]byte(name))
	appearanceChar := gap.AddCharacteristic(gattAttrAppearanceUUID, CharPropRead)
	appearanceChar.SetValue([]byte{0x80, 0x00}) // generic computer

	gatt := NewService(gattServiceUUID)
	return []*Service{gap, gatt}
}

// Freeze assigns handles in depth-first order (service start-handle,
// each characteristic's declaration and value handle, each descriptor
// handle) and computes each service's end-handle as the last handle it
// covers. After Freeze the attribute structure is immutable; only values
// may still change.
func (db *ServerDB) Freeze() error {
	if db.frozen {
		return nil
	}
	svcs := append(defaultServices(db.name), db.services...)

	db.byValueHandle = map[uint16]*Characteristic{}
	db.byDeclHandle = map[uint16]*Characteristic{}
	db.byDescHandle = map[uint16]*Descriptor{}

	n := uint16(1) // BLE handles start at 1
	for _, svc := range svcs {
		svc.startHandle = n
		n++
		for _, c := range svc.chars {
			c.ensureExtendedProperties()
			c.clientCharConfig() // auto-create CCCD for notify/indicate chars
			c.declHandle = n
			n++
			c.valueHandle = n
			db.byDeclHandle[c.declHandle] = c
			db.byValueHandle[c.valueHandle] = c
			n++
			for _, d := range c.descs {
				d.handle = n
				db.byDescHandle[d.handle] = d
				n++
			}
		}
		svc.endHandle = n - 1
	}

	db.services = svcs
	db.frozen = true
	return nil
}

// FindService returns the service with the given UUID, or nil.
func (db *ServerDB) FindService(u UUID) *Service {
	for _, s := range db.services {
		if s.uuid.Equal(u) {
			return s
		}
	}
	return nil
}

// FindCharInService returns the characteristic with charUUID within the
// service serviceUUID, or nil if either is not found.
func (db *ServerDB) FindCharInService(serviceUUID, charUUID UUID) *Characteristic {
	s := db.FindService(serviceUUID)
	if s == nil {
		return nil
	}
	return s.FindCharacteristic(charUUID)
}

// FindChar performs a linear scan of every service for a characteristic
// with the given UUID, returning the first match and its owning service.
func (db *ServerDB) FindChar(charUUID UUID) (*Service, *Characteristic) {
	for _, s := range db.services {
		if c := s.FindCharacteristic(charUUID); c != nil {
			return s, c
		}
	}
	return nil, nil
}

// FindCharByValueHandle returns the characteristic whose value attribute
// has the given handle, or nil.
func (db *ServerDB) FindCharByValueHandle(h uint16) *Characteristic {
	return db.byValueHandle[h]
}

// FindClientCharConfig locates the canonical CCCD for the characteristic
// charUUID within service serviceUUID, or nil if not present.
func (db *ServerDB) FindClientCharConfig(serviceUUID, charUUID UUID) *Descriptor {
	c := db.FindCharInService(serviceUUID, charUUID)
	if c == nil {
		return nil
	}
	return c.clientCharConfig()
}

// ResetClientCharConfig zeroes the CCCD value for charUUID within
// serviceUUID, if present.
func (db *ServerDB) ResetClientCharConfig(serviceUUID, charUUID UUID) error {
	d := db.FindClientCharConfig(serviceUUID, charUUID)
	if d == nil {
		return fmt.Errorf("dbt: %w: no client characteristic configuration for %s/%s", errInvalidParams, serviceUUID, charUUID)
	}
	d.SetValue([]byte{0x00, 0x00})
	return nil
}
