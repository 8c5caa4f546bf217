package dbt

import (
	"fmt"
	"strconv"
	"strings"
)

// EUI48Length is the byte length of a Bluetooth device address.
const EUI48Length = 6

// EUI48 is a 48-bit EUI, i.e. a Bluetooth device address. On the wire it
// is little-endian (least-significant octet first); printed form is
// MSB-first hex with colon separators, matching the convention the
// teacher's linux/devices.go HCIDeviceInfo.Addr() uses when formatting
// the raw little-endian bytes returned by HCIGETDEVINFO.
type EUI48 struct {
	b        [EUI48Length]byte
	hash     uint32
	hashSet  bool
}

// EUI48Zero is the zero address "00:00:00:00:00:00".
var EUI48Zero = EUI48{}

// NewEUI48FromBytes builds an EUI48 from 6 little-endian bytes.
func NewEUI48FromBytes(b []byte) (EUI48, error) {
	if len(b) != EUI48Length {
		return EUI48{}, fmt.Errorf("dbt: EUI48 requires %d bytes, got %d", EUI48Length, len(b))
	}
	var a EUI48
	copy(a.b[:], b)
	return a, nil
}

// ParseEUI48 parses a string of the form "XX:XX:XX:XX:XX:XX" (MSB-first
// hex, colon separated) into its little-endian byte storage.
func ParseEUI48(s string) (EUI48, error) {
	parts := strings.Split(s, ":")
	if len(parts) != EUI48Length {
		return EUI48{}, fmt.Errorf("dbt: invalid EUI48 string %q", s)
	}
	var a EUI48
	for i := 0; i < EUI48Length; i++ {
		v, err := strconv.ParseUint(parts[i], 16, 8)
		if err != nil {
			return EUI48{}, fmt.Errorf("dbt: invalid EUI48 string %q: %w", s, err)
		}
		// parts[0] is the MSB octet; storage is LSB-first.
		a.b[EUI48Length-1-i] = byte(v)
	}
	return a, nil
}

// MustParseEUI48 is like ParseEUI48 but panics on error; intended for
// tests and static initializers.
func MustParseEUI48(s string) EUI48 {
	a, err := ParseEUI48(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Bytes returns a copy of the 6 little-endian bytes.
func (a EUI48) Bytes() [EUI48Length]byte { return a.b }

// String renders the address MSB-first, colon separated, upper-case hex.
func (a EUI48) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		a.b[5], a.b[4], a.b[3], a.b[2], a.b[1], a.b[0])
}

// set mutates the address in place and invalidates the cached hash.
// Grounded on spec.md's "cached hash is invalidated on any mutation"
// invariant: rather than an explicit clearHash() method (the source's
// native-handle-era pattern, see DESIGN.md), mutation and invalidation
// happen atomically in one place.
func (a *EUI48) set(b [EUI48Length]byte) {
	a.b = b
	a.hashSet = false
}

// hashCode returns a memoized FNV-1a style hash of the address bytes,
// computed on demand and cached until the next mutation.
func (a *EUI48) hashCode() uint32 {
	if a.hashSet {
		return a.hash
	}
	h := uint32(2166136261)
	for _, x := range a.b {
		h ^= uint32(x)
		h *= 16777619
	}
	a.hash = h
	a.hashSet = true
	return h
}

// Equal reports exact byte equality.
func (a EUI48) Equal(o EUI48) bool { return a.b == o.b }

// IsZero reports whether the address is all-zero.
func (a EUI48) IsZero() bool { return a.b == [EUI48Length]byte{} }

// EUI48Sub is a contiguous sub-sequence of an EUI48, length 0..6,
// used for address pattern matching (e.g. matching a family of
// manufacturer-assigned addresses by common prefix/suffix bytes).
type EUI48Sub struct {
	b   []byte // 0..6 bytes, same LSB-first storage convention as EUI48
	len int
}

// NewEUI48Sub builds a sub-address from up to 6 little-endian bytes.
func NewEUI48Sub(b []byte) (EUI48Sub, error) {
	if len(b) > EUI48Length {
		return EUI48Sub{}, fmt.Errorf("dbt: EUI48Sub accepts at most %d bytes, got %d", EUI48Length, len(b))
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return EUI48Sub{b: cp, len: len(cp)}, nil
}

// Len returns the number of bytes in the sub-address (0..6).
func (s EUI48Sub) Len() int { return s.len }

// Bytes returns the sub-address bytes.
func (s EUI48Sub) Bytes() []byte { return s.b }

func (s EUI48Sub) String() string {
	parts := make([]string, len(s.b))
	for i, v := range s.b {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, ":")
}

// indexOf searches haystack (a full 6-byte little-endian address array)
// for needle (the sub-address bytes), returning the starting index
// within haystack, or -1 if not found. An empty needle matches at index
// 0, per spec.md §4.1.
func indexOf(haystack []byte, needle []byte) int {
	if len(needle) == 0 {
		return 0
	}
	if len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// IndexOf returns the index of sub within a, or -1 if not present.
func (s EUI48Sub) IndexOf(a EUI48) int { return indexOf(a.b[:], s.b) }

// IndexWithin returns the index of needle within s, or -1 if not present.
func (s EUI48Sub) IndexWithin(needle EUI48Sub) int { return indexOf(s.b, needle.b) }

// Contains reports whether a's address bytes contain s as a contiguous
// sub-sequence.
func (s EUI48Sub) Contains(a EUI48) bool { return s.IndexOf(a) >= 0 }

// Contains reports whether a's address bytes contain sub as a contiguous
// sub-sequence; defined in terms of EUI48Sub.IndexOf per spec.md §4.1.
func (a EUI48) Contains(sub EUI48Sub) bool { return sub.Contains(a) }

// AddressType is the tagged variant of a Bluetooth device address.
type AddressType int

const (
	AddressTypeUndefined AddressType = iota
	AddressTypeBREDR
	AddressTypeLEPublic
	AddressTypeLERandom
)

func (t AddressType) String() string {
	switch t {
	case AddressTypeBREDR:
		return "BREDR"
	case AddressTypeLEPublic:
		return "LE_PUBLIC"
	case AddressTypeLERandom:
		return "LE_RANDOM"
	default:
		return "UNDEFINED"
	}
}

// LERandomAddressType further classifies an LE_RANDOM address using the
// top two bits of the MSB octet (b[5] in printed form, a.b[5] in our
// LSB-first storage).
type LERandomAddressType int

const (
	LERandomUndefined LERandomAddressType = iota
	LERandomStatic
	LERandomResolvablePrivate
	LERandomNonResolvablePrivate
)

// ResolveLERandomAddressType classifies addr per the top two bits of its
// most significant octet. Only meaningful when the associated
// AddressType is AddressTypeLERandom.
func ResolveLERandomAddressType(addr EUI48) LERandomAddressType {
	top := addr.b[5] >> 6
	switch top {
	case 0b11:
		return LERandomStatic
	case 0b01:
		return LERandomResolvablePrivate
	case 0b00:
		return LERandomNonResolvablePrivate
	default:
		return LERandomUndefined
	}
}

// BDAddressAndType is the pair (EUI48, AddressType): the stable identity
// of a remote peer (spec.md §3).
type BDAddressAndType struct {
	Address EUI48
	Type    AddressType
}

// UndefinedBDAddressAndType is the wildcard address/type pair.
var UndefinedBDAddressAndType = BDAddressAndType{Type: AddressTypeUndefined}

func (a BDAddressAndType) String() string {
	return fmt.Sprintf("%s/%s", a.Address, a.Type)
}

// Equal is strict equality: both address bytes and type must match.
func (a BDAddressAndType) Equal(o BDAddressAndType) bool {
	return a.Address.Equal(o.Address) && a.Type == o.Type
}

// Matches is Equal except AddressTypeUndefined acts as a wildcard on
// either side, per spec.md §3.
func (a BDAddressAndType) Matches(o BDAddressAndType) bool {
	if !a.Address.Equal(o.Address) {
		return false
	}
	if a.Type == AddressTypeUndefined || o.Type == AddressTypeUndefined {
		return true
	}
	return a.Type == o.Type
}
