package dbt

// well-known GATT attribute UUIDs used throughout the data model and
// server database. Grounded on the teacher's const.go (removed; its
// attOp/attEcode constants belonged to the out-of-scope ATT wire codec,
// but these UUID constants are part of the in-scope data model).
var (
	gattAttrPrimaryServiceUUID   = UUID16(0x2800)
	gattAttrSecondaryServiceUUID = UUID16(0x2801)
	gattAttrIncludeUUID          = UUID16(0x2802)
	gattAttrCharacteristicUUID   = UUID16(0x2803)

	gattAttrExtendedPropertiesUUID          = UUID16(0x2900)
	gattAttrClientCharacteristicConfigUUID  = UUID16(0x2902)
	gattAttrServerCharacteristicConfigUUID  = UUID16(0x2903)

	gattAttrDeviceNameUUID = UUID16(0x2A00)
	gattAttrAppearanceUUID = UUID16(0x2A01)

	gapServiceUUID  = UUID16(0x1800)
	gattServiceUUID = UUID16(0x1801)
)

// Descriptor is a GATT descriptor: (16-bit handle, UUID, value buffer,
// variable-length flag). Handles are assigned by ServerDB.Freeze and are
// unique within a server. Grounded on the teacher's descriptor.go, whose
// Descriptor type the distilled spec's data model expands with an
// explicit handle and a variable-length flag (the teacher's Descriptor
// had neither; it was a read-only static-value placeholder).
type Descriptor struct {
	uuid     UUID
	handle   uint16
	value    []byte
	variable bool

	char *Characteristic
}

// UUID returns the descriptor's UUID.
func (d *Descriptor) UUID() UUID { return d.uuid }

// Handle returns the descriptor's assigned handle, or 0 if the server
// database has not yet been frozen.
func (d *Descriptor) Handle() uint16 { return d.handle }

// Value returns a copy of the descriptor's current value.
func (d *Descriptor) Value() []byte {
	out := make([]byte, len(d.value))
	copy(out, d.value)
	return out
}

// SetValue replaces the descriptor's value.
func (d *Descriptor) SetValue(v []byte) {
	d.value = append([]byte(nil), v...)
}

// Characteristic returns the owning characteristic.
func (d *Descriptor) Characteristic() *Characteristic { return d.char }

// isFixedLength reports whether this descriptor's UUID forces a fixed
// value length, per spec.md §3: Client-Characteristic-Configuration and
// Extended-Properties descriptors are always fixed length.
func (d *Descriptor) isFixedLength() bool {
	return d.uuid.Equal(gattAttrClientCharacteristicConfigUUID) ||
		d.uuid.Equal(gattAttrExtendedPropertiesUUID)
}
