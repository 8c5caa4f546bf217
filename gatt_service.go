package dbt

// Service is a GATT service: start/end handle range, UUID, primary flag,
// and an ordered list of characteristics. Start..end must cover every
// nested handle exactly once once the owning server database is frozen.
//
// Grounded on the teacher's service.go Service type, extended with the
// start/end handle range and primary flag the distilled data model names
// (the teacher tracked only a flat attribute list per server, not a
// handle range per service) and with Included Services per
// SPEC_FULL.md §4.3a.
type Service struct {
	uuid    UUID
	primary bool

	chars    []*Characteristic
	includes []*Service

	startHandle uint16
	endHandle   uint16
}

// NewService constructs a primary service with the given UUID.
func NewService(u UUID) *Service {
	return &Service{uuid: u, primary: true}
}

// NewSecondaryService constructs a non-primary (secondary) service.
func NewSecondaryService(u UUID) *Service {
	return &Service{uuid: u, primary: false}
}

// UUID returns the service's UUID.
func (s *Service) UUID() UUID { return s.uuid }

// IsPrimary reports whether this is a primary service.
func (s *Service) IsPrimary() bool { return s.primary }

// StartHandle and EndHandle return the service's handle range, valid
// once the owning server database has been frozen.
func (s *Service) StartHandle() uint16 { return s.startHandle }
func (s *Service) EndHandle() uint16   { return s.endHandle }

// Characteristics returns the ordered list of characteristics.
func (s *Service) Characteristics() []*Characteristic {
	out := make([]*Characteristic, len(s.chars))
	copy(out, s.chars)
	return out
}

// Includes returns the services this service declares as included.
func (s *Service) Includes() []*Service {
	out := make([]*Service, len(s.includes))
	copy(out, s.includes)
	return out
}

// AddCharacteristic adds a characteristic to the service. AddCharacteristic
// panics if the service already contains a characteristic with the same
// UUID, matching the teacher's service.go panic-on-duplicate behavior.
func (s *Service) AddCharacteristic(u UUID, props CharProperty) *Characteristic {
	for _, c := range s.chars {
		if c.uuid.Equal(u) {
			panic("dbt: service already contains a characteristic with uuid " + u.String())
		}
	}
	c := &Characteristic{uuid: u, props: props, service: s}
	s.chars = append(s.chars, c)
	return c
}

// AddIncludedService declares other as included by s (GATT Included
// Service, attribute type 0x2802). other must already belong to the same
// server database. Per SPEC_FULL.md §4.3a.
func (s *Service) AddIncludedService(other *Service) {
	s.includes = append(s.includes, other)
}

// FindCharacteristic returns the characteristic with the given UUID, or
// nil if none matches.
func (s *Service) FindCharacteristic(u UUID) *Characteristic {
	for _, c := range s.chars {
		if c.uuid.Equal(u) {
			return c
		}
	}
	return nil
}
