package dbt

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// bluetoothBaseUUID is the well-known base used to expand 16- and 32-bit
// "short form" UUIDs into full 128-bit UUIDs: 00000000-0000-1000-8000-00805F9B34FB.
var bluetoothBaseUUID = uuid.MustParse("00000000-0000-1000-8000-00805F9B34FB")

// UUID is a Bluetooth attribute UUID: 16-bit, 32-bit, or 128-bit. Internal
// storage is little-endian bytes (wire order), the same convention the
// teacher's UUID type and EUI48 both use — printed/parsed form is
// big-endian hex, matching github.com/google/uuid's canonical formatting
// for the 128-bit case.
type UUID struct {
	b []byte // 2, 4, or 16 bytes, little-endian
}

// UUID16 builds a 16-bit UUID, e.g. UUID16(0x1800) for the GAP service.
func UUID16(v uint16) UUID {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return UUID{b: b}
}

// UUID32 builds a 32-bit UUID.
func UUID32(v uint32) UUID {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return UUID{b: b}
}

// UUID128FromGoogle wraps a github.com/google/uuid.UUID (big-endian byte
// layout) into our little-endian wire representation.
func UUID128FromGoogle(u uuid.UUID) UUID {
	b := make([]byte, 16)
	for i := 0; i < 16; i++ {
		b[i] = u[15-i]
	}
	return UUID{b: b}
}

// ParseUUID parses a 4-hex-digit ("1800"), 8-hex-digit, or full
// 8-4-4-4-12 dashed 128-bit UUID string.
func ParseUUID(s string) (UUID, error) {
	switch len(s) {
	case 4:
		var v uint16
		if _, err := fmt.Sscanf(s, "%04x", &v); err != nil {
			return UUID{}, fmt.Errorf("dbt: invalid 16-bit UUID %q: %w", s, err)
		}
		return UUID16(v), nil
	case 8:
		var v uint32
		if _, err := fmt.Sscanf(s, "%08x", &v); err != nil {
			return UUID{}, fmt.Errorf("dbt: invalid 32-bit UUID %q: %w", s, err)
		}
		return UUID32(v), nil
	default:
		u, err := uuid.Parse(s)
		if err != nil {
			return UUID{}, fmt.Errorf("dbt: invalid UUID %q: %w", s, err)
		}
		return UUID128FromGoogle(u), nil
	}
}

// MustParseUUID is like ParseUUID but panics on error.
func MustParseUUID(s string) UUID {
	u, err := ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Len returns the byte length of the UUID: 2, 4, or 16.
func (u UUID) Len() int { return len(u.b) }

// reverseBytes returns the UUID bytes in big-endian (display) order,
// mirroring the teacher's advPacket.appendUUIDFit helper. Nothing in
// this package calls it at present.
func (u UUID) reverseBytes() []byte { return reverse(u.b) }

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

// Bytes returns the little-endian wire bytes.
func (u UUID) Bytes() []byte {
	out := make([]byte, len(u.b))
	copy(out, u.b)
	return out
}

// To128 expands a 16- or 32-bit short-form UUID to its full 128-bit form
// under the Bluetooth base UUID; a 128-bit UUID is returned unchanged.
func (u UUID) To128() UUID {
	if len(u.b) == 16 {
		return u
	}
	full := bluetoothBaseUUID
	switch len(u.b) {
	case 2:
		full[2] = u.b[1]
		full[3] = u.b[0]
	case 4:
		full[0] = u.b[3]
		full[1] = u.b[2]
		full[2] = u.b[1]
		full[3] = u.b[0]
	}
	return UUID128FromGoogle(full)
}

func uuidEqual(a, b UUID) bool {
	return string(a.To128().b) == string(b.To128().b)
}

// Equal reports whether two UUIDs are the same attribute UUID, expanding
// short forms to 128-bit under the Bluetooth base UUID before comparing
// (a 16-bit UUID and its 128-bit expansion are the same attribute).
func (u UUID) Equal(o UUID) bool { return uuidEqual(u, o) }

func (u UUID) String() string {
	switch len(u.b) {
	case 2:
		return fmt.Sprintf("%04x", binary.LittleEndian.Uint16(u.b))
	case 4:
		return fmt.Sprintf("%08x", binary.LittleEndian.Uint32(u.b))
	default:
		g := uuid.UUID{}
		rb := reverse(u.b)
		copy(g[:], rb)
		return g.String()
	}
}
