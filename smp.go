package dbt

// IOCapability is the SMP I/O Capability value exchanged during pairing
// feature exchange, Core Spec Vol 3 Part H §2.3.2.
type IOCapability uint8

const (
	IOCapDisplayOnly IOCapability = iota
	IOCapDisplayYesNo
	IOCapKeyboardOnly
	IOCapNoInputNoOutput
	IOCapKeyboardDisplay
	IOCapUnset IOCapability = 0xff
)

// PairingMode enumerates the SMP association model selected after
// feature exchange, per spec.md §3/§4.2.
type PairingMode uint8

const (
	PairingModeNone PairingMode = iota
	PairingModeJustWorks
	PairingModePasskeyEntryInitiator
	PairingModePasskeyEntryResponder
	PairingModeNumericComparison
	PairingModeOutOfBand
	PairingModePrePaired
)

func (m PairingMode) String() string {
	switch m {
	case PairingModeNone:
		return "none"
	case PairingModeJustWorks:
		return "just-works"
	case PairingModePasskeyEntryInitiator:
		return "passkey-entry-initiator"
	case PairingModePasskeyEntryResponder:
		return "passkey-entry-responder"
	case PairingModeNumericComparison:
		return "numeric-comparison"
	case PairingModeOutOfBand:
		return "out-of-band"
	case PairingModePrePaired:
		return "pre-paired"
	default:
		return "unknown"
	}
}

// SecurityLevel is the BT security level, recorded in the SMPKeyBin
// header alongside the negotiated I/O capability.
type SecurityLevel uint8

const (
	SecurityLevelNone SecurityLevel = iota
	SecurityLevelUnauthenticatedEncryption
	SecurityLevelAuthenticatedEncryption
	SecurityLevelAuthenticatedSecureConnections
)

// SMPKeyType is the single-bit flag for one distributable key kind
// within the init/resp key masks, Core Spec Vol 3 Part H §3.6.1.
type SMPKeyType uint8

const (
	SMPKeyTypeEncKey SMPKeyType = 1 << 0 // LTK + EDIV + Rand
	SMPKeyTypeIDKey  SMPKeyType = 1 << 1 // IRK + identity address
	SMPKeyTypeSignKey SMPKeyType = 1 << 2 // CSRK
	SMPKeyTypeLinkKey SMPKeyType = 1 << 3 // BR/EDR LK derived via CT2
)

func (m SMPKeyType) Has(bit SMPKeyType) bool { return m&bit != 0 }

// LTKProperty is the property-bit octet prefixing a persisted
// LongTermKey, spec.md §3.
type LTKProperty uint8

const (
	LTKPropertyResponder        LTKProperty = 1 << 0
	LTKPropertyAuth             LTKProperty = 1 << 1
	LTKPropertySecureConnection LTKProperty = 1 << 2
)

// SMPKeyFlag is the single responder/initiator flag octet prefixing a
// persisted IRK, CSRK, or LK, spec.md §3.
type SMPKeyFlag uint8

const (
	SMPKeyFlagResponder SMPKeyFlag = 1 << 0
)

// LongTermKey is the LE LTK plus its associated EDIV/Rand, Core Spec Vol
// 3 Part H §2.4.3. Fixed layout per spec.md §3: property bits, key size,
// EDIV, RAND, LTK.
type LongTermKey struct {
	Properties LTKProperty
	KeySize    uint8
	EDIV       uint16
	Rand       uint64
	Key        [16]byte
}

// IdentityResolvingKey is the LE IRK used to resolve RPAs into an
// identity address.
type IdentityResolvingKey struct {
	Flag SMPKeyFlag
	Key  [16]byte
}

// ConnectionSignatureResolvingKey is the LE CSRK used for ATT signed
// writes.
type ConnectionSignatureResolvingKey struct {
	Flag SMPKeyFlag
	Key  [16]byte
}

// LinkKey is the BR/EDR link key, present only when the peer supports
// Secure Connections cross-transport key derivation (CT2). Fixed layout
// per spec.md §3: flag, 16-octet key, PIN length, link-key type.
type LinkKey struct {
	Flag      SMPKeyFlag
	Key       [16]byte
	PINLength uint8
	Type      uint8
}

// SMPKeyBin is the persisted key material for one local/remote device
// pairing, matching spec.md §3's exact field set: security level, I/O
// capability, init/responder key distribution masks, and the keys each
// side actually distributed, keyed by direction.
//
// Grounded on spec.md §4.2's description of the original's binary
// SMPKeyBin format; there is no teacher analogue for key persistence
// (paypal-gatt never persisted bonding state), so the byte layout is
// designed from spec.md §3's field list directly, modelled in Go the way
// the teacher lays out its other fixed-layout wire structures (eui48.go
// EUI48, uuid.go UUID): a struct with an explicit binary codec rather
// than encoding/gob, since the format must be stable across versions per
// spec.md §4.2's version/magic requirement.
type SMPKeyBin struct {
	Version   uint8
	Timestamp uint64 // Unix seconds

	LocalAddress  BDAddressAndType
	RemoteAddress BDAddressAndType

	Level        SecurityLevel
	IOCap        IOCapability

	InitKeys SMPKeyType // keys the local (initiator) side distributed
	RespKeys SMPKeyType // keys the remote (responder) side distributed

	LTK  *LongTermKey
	IRK  *IdentityResolvingKey
	CSRK *ConnectionSignatureResolvingKey
	LK   *LinkKey

	// RemoteLTK etc. hold keys distributed in the other direction, when
	// both sides distribute an EncKey (LE Secure Connections shares a
	// single LTK for both directions, but legacy pairing does not).
	RemoteLTK  *LongTermKey
	RemoteIRK  *IdentityResolvingKey
	RemoteCSRK *ConnectionSignatureResolvingKey
}

// smpKeyBinMagic and smpKeyBinVersion mark the fixed binary layout;
// bump the version and reject unknown versions on read rather than
// attempt forward-compatible parsing, per spec.md §4.2.
const (
	smpKeyBinMagic   uint16 = 0x555A // 0b0101010101010101 + 5
	smpKeyBinVersion uint8  = 5
)

// NewSMPKeyBin constructs an empty key-material record for the given
// local/remote address pair at the given security level and I/O
// capability, ready to have keys applied via Apply* before Write.
func NewSMPKeyBin(local, remote BDAddressAndType, level SecurityLevel, ioCap IOCapability) *SMPKeyBin {
	return &SMPKeyBin{
		Version:       smpKeyBinVersion,
		LocalAddress:  local,
		RemoteAddress: remote,
		Level:         level,
		IOCap:         ioCap,
	}
}

// ApplyLTK records a locally-distributed LTK and marks InitKeys
// accordingly.
func (b *SMPKeyBin) ApplyLTK(k LongTermKey) {
	b.LTK = &k
	b.InitKeys |= SMPKeyTypeEncKey
}

// ApplyRemoteLTK records a remote-distributed LTK and marks RespKeys
// accordingly.
func (b *SMPKeyBin) ApplyRemoteLTK(k LongTermKey) {
	b.RemoteLTK = &k
	b.RespKeys |= SMPKeyTypeEncKey
}

// ApplyIRK records the local IRK.
func (b *SMPKeyBin) ApplyIRK(k IdentityResolvingKey) {
	b.IRK = &k
	b.InitKeys |= SMPKeyTypeIDKey
}

// ApplyRemoteIRK records the remote IRK.
func (b *SMPKeyBin) ApplyRemoteIRK(k IdentityResolvingKey) {
	b.RemoteIRK = &k
	b.RespKeys |= SMPKeyTypeIDKey
}

// ApplyCSRK records the local CSRK.
func (b *SMPKeyBin) ApplyCSRK(k ConnectionSignatureResolvingKey) {
	b.CSRK = &k
	b.InitKeys |= SMPKeyTypeSignKey
}

// ApplyRemoteCSRK records the remote CSRK.
func (b *SMPKeyBin) ApplyRemoteCSRK(k ConnectionSignatureResolvingKey) {
	b.RemoteCSRK = &k
	b.RespKeys |= SMPKeyTypeSignKey
}

// ApplyLinkKey records a derived BR/EDR link key.
func (b *SMPKeyBin) ApplyLinkKey(k LinkKey) {
	b.LK = &k
	b.InitKeys |= SMPKeyTypeLinkKey
}

// IsValid reports whether the record carries at least one key and both
// addresses are non-zero, the minimum spec.md §4.2 requires before
// Write.
func (b *SMPKeyBin) IsValid() bool {
	if b.LocalAddress.Address.IsZero() || b.RemoteAddress.Address.IsZero() {
		return false
	}
	return b.InitKeys != 0 || b.RespKeys != 0
}
