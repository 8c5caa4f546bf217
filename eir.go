package dbt

import (
	"fmt"
)

// EIRSource tags where an EIR record's data most recently came from.
type EIRSource int

const (
	EIRSourceNA EIRSource = iota
	EIRSourceADInd
	EIRSourceADScanRsp
	EIRSourceEIR
	EIRSourceEIRMgmt
)

func (s EIRSource) String() string {
	switch s {
	case EIRSourceADInd:
		return "AD_IND"
	case EIRSourceADScanRsp:
		return "AD_SCAN_RSP"
	case EIRSourceEIR:
		return "EIR"
	case EIRSourceEIRMgmt:
		return "EIR_MGMT"
	default:
		return "NA"
	}
}

// GAPFlags is the bitset of advertised GAP flags (Core Spec Vol 3 Part C).
type GAPFlags uint8

const (
	GAPFlagLELtdDisc     GAPFlags = 1 << 0
	GAPFlagLEGenDisc     GAPFlags = 1 << 1
	GAPFlagBREDRUnsup    GAPFlags = 1 << 2
	GAPFlagDualSameCtrl  GAPFlags = 1 << 3
	GAPFlagDualSameHost  GAPFlags = 1 << 4
)

// EIRField is a bitmask identifying which fields of an EIR record are set
// and participate in EIR.Set's merge/changed-mask accounting.
type EIRField uint32

const (
	EIRFieldSource EIRField = 1 << iota
	EIRFieldTimestamp
	EIRFieldAddress
	EIRFieldRSSI
	EIRFieldTxPower
	EIRFieldFlags
	EIRFieldName
	EIRFieldShortName
	EIRFieldServiceUUIDs
	EIRFieldManufacturerData
	EIRFieldDeviceClass
	EIRFieldDeviceID
	EIRFieldConnIntervalPref
)

// DeviceID is the vendor/product/version tuple exposed over EIR/HCI, used
// to identify a device's hardware/firmware revision.
type DeviceID struct {
	Source  uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// ConnIntervalPreference is the slave connection interval range a
// peripheral advertises wanting, in 1.25ms units.
type ConnIntervalPreference struct {
	Min uint16
	Max uint16
}

// EIR is a merged view of one remote peer's advertising data: the
// accumulation of everything observed across AD_IND, AD_SCAN_RSP, and
// (on platforms that provide it) kernel-assembled EIR/mgmt reports.
//
// Grounded on the teacher's advertisement.go Advertisement type and its
// Unmarshall switch over AD type bytes, generalized into a persistent,
// mergeable record instead of a single one-shot parse result (the
// teacher only ever builds one Advertisement per discovery event; this
// spec requires accumulating state across multiple reports for the same
// peer, see spec.md §4.1).
type EIR struct {
	mask EIRField

	Source    EIRSource
	TimestampMS int64
	Address   BDAddressAndType
	RSSI      int8
	TxPower   int8
	Flags     GAPFlags
	Name      string
	ShortName string

	serviceUUIDs       []UUID
	serviceUUIDsComplete bool

	manufacturerData map[uint16][]byte

	DeviceClass [3]byte
	DeviceID    DeviceID
	ConnInterval ConnIntervalPreference
}

// NewEIR returns an empty EIR record.
func NewEIR() *EIR {
	return &EIR{manufacturerData: map[uint16][]byte{}}
}

// HasField reports whether f is among the fields currently set.
func (e *EIR) HasField(f EIRField) bool { return e.mask&f != 0 }

// ServiceUUIDs returns the deduplicated list of service UUIDs observed,
// and whether that list is a complete (not partial) enumeration.
func (e *EIR) ServiceUUIDs() ([]UUID, bool) {
	out := make([]UUID, len(e.serviceUUIDs))
	copy(out, e.serviceUUIDs)
	return out, e.serviceUUIDsComplete
}

// ManufacturerData returns the company-ID-keyed manufacturer data map.
func (e *EIR) ManufacturerData() map[uint16][]byte {
	out := make(map[uint16][]byte, len(e.manufacturerData))
	for k, v := range e.manufacturerData {
		out[k] = v
	}
	return out
}

// SetSource sets the report-source tag.
func (e *EIR) SetSource(s EIRSource) *EIR {
	e.Source = s
	e.mask |= EIRFieldSource
	return e
}

// SetTimestampMS sets the monotonic-clock observation timestamp.
func (e *EIR) SetTimestampMS(ms int64) *EIR {
	e.TimestampMS = ms
	e.mask |= EIRFieldTimestamp
	return e
}

// SetAddress sets the peer's typed address.
func (e *EIR) SetAddress(a BDAddressAndType) *EIR {
	e.Address = a
	e.mask |= EIRFieldAddress
	return e
}

// SetRSSI sets the received signal strength.
func (e *EIR) SetRSSI(rssi int8) *EIR {
	e.RSSI = rssi
	e.mask |= EIRFieldRSSI
	return e
}

// SetTxPower sets the advertised transmit power.
func (e *EIR) SetTxPower(p int8) *EIR {
	e.TxPower = p
	e.mask |= EIRFieldTxPower
	return e
}

// SetFlags sets the GAP flags bitset.
func (e *EIR) SetFlags(f GAPFlags) *EIR {
	e.Flags = f
	e.mask |= EIRFieldFlags
	return e
}

// SetName sets the complete local name.
func (e *EIR) SetName(n string) *EIR {
	e.Name = n
	e.mask |= EIRFieldName
	return e
}

// SetShortName sets the shortened local name.
func (e *EIR) SetShortName(n string) *EIR {
	e.ShortName = n
	e.mask |= EIRFieldShortName
	return e
}

// AddServiceUUID appends a service UUID, deduplicating against any
// already-present equal UUID, and records whether complete designates a
// complete (vs partial) list.
func (e *EIR) AddServiceUUID(u UUID, complete bool) *EIR {
	dup := false
	for _, have := range e.serviceUUIDs {
		if have.Equal(u) {
			dup = true
			break
		}
	}
	if !dup {
		e.serviceUUIDs = append(e.serviceUUIDs, u)
	}
	e.serviceUUIDsComplete = complete
	e.mask |= EIRFieldServiceUUIDs
	return e
}

// SetManufacturerData sets (last-write-wins) the data for one company ID.
func (e *EIR) SetManufacturerData(companyID uint16, data []byte) *EIR {
	if e.manufacturerData == nil {
		e.manufacturerData = map[uint16][]byte{}
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	e.manufacturerData[companyID] = cp
	e.mask |= EIRFieldManufacturerData
	return e
}

// SetDeviceClass sets the BR/EDR class-of-device bytes.
func (e *EIR) SetDeviceClass(c [3]byte) *EIR {
	e.DeviceClass = c
	e.mask |= EIRFieldDeviceClass
	return e
}

// SetDeviceID sets the vendor/product/version tuple.
func (e *EIR) SetDeviceID(id DeviceID) *EIR {
	e.DeviceID = id
	e.mask |= EIRFieldDeviceID
	return e
}

// SetConnIntervalPreference sets the advertised slave connection interval
// preference.
func (e *EIR) SetConnIntervalPreference(p ConnIntervalPreference) *EIR {
	e.ConnInterval = p
	e.mask |= EIRFieldConnIntervalPref
	return e
}

// Set merges other into e field-by-field: for each bit set in other's
// known-set mask, if the value differs from e's current value (or e does
// not yet have that field set), e is overwritten and the bit is recorded
// in the returned changed-mask. Manufacturer data merges key-wise
// (last-write-wins per company ID); service UUIDs are deduplicated.
//
// Grounded on spec.md §4.1's EIR merge semantics; there is no equivalent
// merge in the teacher (advertisement.go's Unmarshall only ever builds a
// single fresh record), so this is new logic built to the teacher's
// general style of field-by-field switch handling seen in Unmarshall.
func (e *EIR) Set(other *EIR) EIRField {
	var changed EIRField

	setIf := func(field EIRField, differs bool, apply func()) {
		if other.mask&field == 0 {
			return
		}
		if e.mask&field == 0 || differs {
			apply()
			e.mask |= field
			changed |= field
		}
	}

	setIf(EIRFieldSource, e.Source != other.Source, func() { e.Source = other.Source })
	setIf(EIRFieldTimestamp, e.TimestampMS != other.TimestampMS, func() { e.TimestampMS = other.TimestampMS })
	setIf(EIRFieldAddress, !e.Address.Equal(other.Address), func() { e.Address = other.Address })
	setIf(EIRFieldRSSI, e.RSSI != other.RSSI, func() { e.RSSI = other.RSSI })
	setIf(EIRFieldTxPower, e.TxPower != other.TxPower, func() { e.TxPower = other.TxPower })
	setIf(EIRFieldFlags, e.Flags != other.Flags, func() { e.Flags = other.Flags })
	setIf(EIRFieldName, e.Name != other.Name, func() { e.Name = other.Name })
	setIf(EIRFieldShortName, e.ShortName != other.ShortName, func() { e.ShortName = other.ShortName })
	setIf(EIRFieldDeviceClass, e.DeviceClass != other.DeviceClass, func() { e.DeviceClass = other.DeviceClass })
	setIf(EIRFieldDeviceID, e.DeviceID != other.DeviceID, func() { e.DeviceID = other.DeviceID })
	setIf(EIRFieldConnIntervalPref, e.ConnInterval != other.ConnInterval, func() { e.ConnInterval = other.ConnInterval })

	if other.mask&EIRFieldServiceUUIDs != 0 {
		before := len(e.serviceUUIDs)
		beforeComplete := e.serviceUUIDsComplete
		for _, u := range other.serviceUUIDs {
			e.AddServiceUUID(u, other.serviceUUIDsComplete)
		}
		if len(e.serviceUUIDs) != before || e.serviceUUIDsComplete != beforeComplete {
			changed |= EIRFieldServiceUUIDs
		}
		e.mask |= EIRFieldServiceUUIDs
	}

	if other.mask&EIRFieldManufacturerData != 0 {
		if e.manufacturerData == nil {
			e.manufacturerData = map[uint16][]byte{}
		}
		for k, v := range other.manufacturerData {
			cur, ok := e.manufacturerData[k]
			if ok && string(cur) == string(v) {
				continue
			}
			cp := make([]byte, len(v))
			copy(cp, v)
			e.manufacturerData[k] = cp
			changed |= EIRFieldManufacturerData
		}
		e.mask |= EIRFieldManufacturerData
	}

	return changed
}

func (e *EIR) String() string {
	return fmt.Sprintf("EIR{src=%s name=%q rssi=%d flags=%02x svc=%d}",
		e.Source, e.Name, e.RSSI, e.Flags, len(e.serviceUUIDs))
}
