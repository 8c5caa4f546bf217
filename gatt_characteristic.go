package dbt

// CharProperty is the GATT characteristic property bitset, Core Spec Vol
// 3 Part G §3.3.1.1. Bit positions match the wire encoding; do not
// reorder, mirroring the teacher's characteristic.go comment on
// charRead/charWrite/charNotify ordering.
type CharProperty uint8

const (
	CharPropBroadcast      CharProperty = 1 << 0
	CharPropRead           CharProperty = 1 << 1
	CharPropWriteNoAck     CharProperty = 1 << 2
	CharPropWriteWithAck   CharProperty = 1 << 3
	CharPropNotify         CharProperty = 1 << 4
	CharPropIndicate       CharProperty = 1 << 5
	CharPropAuthSignedWrite CharProperty = 1 << 6
	CharPropExtProps       CharProperty = 1 << 7
)

func (p CharProperty) Has(bit CharProperty) bool { return p&bit != 0 }

// Characteristic is a GATT characteristic: declaration handle, value
// handle, UUID, property bitset, value buffer, and an ordered list of
// descriptors. Grounded on the teacher's characteristic.go Characteristic
// type; the per-characteristic ReadHandler/WriteHandler/NotifyHandler
// fields are replaced by the Server Listener Contract (gatt_listener.go)
// per spec.md §4.3, since GATT authorization here is unanimous-vote
// across all registered server listeners, not a single per-characteristic
// callback.
type Characteristic struct {
	uuid    UUID
	props   CharProperty
	value   []byte
	descs   []*Descriptor

	declHandle  uint16
	valueHandle uint16

	service *Service
}

// NewCharacteristic constructs a characteristic with the given UUID and
// properties. It must be added to a Service with Service.AddCharacteristic
// before a server database is frozen.
func NewCharacteristic(u UUID, props CharProperty) *Characteristic {
	return &Characteristic{uuid: u, props: props}
}

// UUID returns the characteristic's UUID.
func (c *Characteristic) UUID() UUID { return c.uuid }

// Properties returns the property bitset.
func (c *Characteristic) Properties() CharProperty { return c.props }

// DeclarationHandle returns the characteristic declaration's handle, or 0
// before the server database is frozen.
func (c *Characteristic) DeclarationHandle() uint16 { return c.declHandle }

// ValueHandle returns the characteristic value's handle, or 0 before the
// server database is frozen.
func (c *Characteristic) ValueHandle() uint16 { return c.valueHandle }

// Value returns a copy of the characteristic's current value.
func (c *Characteristic) Value() []byte {
	out := make([]byte, len(c.value))
	copy(out, c.value)
	return out
}

// SetValue replaces the characteristic's value.
func (c *Characteristic) SetValue(v []byte) {
	c.value = append([]byte(nil), v...)
}

// Descriptors returns the ordered list of descriptors.
func (c *Characteristic) Descriptors() []*Descriptor {
	out := make([]*Descriptor, len(c.descs))
	copy(out, c.descs)
	return out
}

// Service returns the owning service.
func (c *Characteristic) Service() *Service { return c.service }

// AddDescriptor appends a descriptor to the characteristic. AddDescriptor
// panics if the characteristic already has a descriptor with the same
// UUID, mirroring Service.AddCharacteristic's duplicate-UUID panic in the
// teacher.
func (c *Characteristic) AddDescriptor(u UUID, value []byte) *Descriptor {
	for _, d := range c.descs {
		if d.uuid.Equal(u) {
			panic("dbt: characteristic already contains a descriptor with uuid " + u.String())
		}
	}
	d := &Descriptor{uuid: u, value: append([]byte(nil), value...), char: c}
	c.descs = append(c.descs, d)
	return d
}

// clientCharConfig locates the canonical Client Characteristic
// Configuration descriptor for this characteristic, auto-creating one
// (zero value) if the characteristic supports notify/indicate but one
// was never added explicitly — GATT requires every notifiable/indicatable
// characteristic to expose exactly one CCCD.
func (c *Characteristic) clientCharConfig() *Descriptor {
	for _, d := range c.descs {
		if d.uuid.Equal(gattAttrClientCharacteristicConfigUUID) {
			return d
		}
	}
	if c.props.Has(CharPropNotify) || c.props.Has(CharPropIndicate) {
		return c.AddDescriptor(gattAttrClientCharacteristicConfigUUID, []byte{0x00, 0x00})
	}
	return nil
}

// ensureExtendedProperties auto-appends a fixed 2-octet Extended
// Properties descriptor (0x2900) when the characteristic declares
// reliable-write-adjacent properties, per SPEC_FULL.md §4.3a.
func (c *Characteristic) ensureExtendedProperties() {
	if !c.props.Has(CharPropExtProps) {
		return
	}
	for _, d := range c.descs {
		if d.uuid.Equal(gattAttrExtendedPropertiesUUID) {
			return
		}
	}
	c.AddDescriptor(gattAttrExtendedPropertiesUUID, []byte{0x00, 0x00})
}

const cccNotifyBit = 1 << 0
const cccIndicateBit = 1 << 1

// CCCDState reports the current notify/indicate enable bits recorded in
// the characteristic's CCCD, if any.
func (c *Characteristic) CCCDState() (notify, indicate bool) {
	d := c.clientCharConfig()
	if d == nil || len(d.value) < 2 {
		return false, false
	}
	v := uint16(d.value[0]) | uint16(d.value[1])<<8
	return v&cccNotifyBit != 0, v&cccIndicateBit != 0
}
