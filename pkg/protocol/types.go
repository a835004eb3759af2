package protocol

import "github.com/nettask/nettask/pkg/ecdhe"

// Signature identifies a NetTask frame. Any frame whose first four bytes
// differ is not ours (spec.md §3, §7).
const Signature = "NTTK"

// HashLen is the fixed byte width of a sessionId: the length of the
// key-agreement hash output (spec.md GLOSSARY, §6).
const HashLen = ecdhe.HashLen

// Version is the only PrivateHeader.version value this implementation
// accepts.
const Version = uint32(1)

// CryptoMark is the two-ASCII-byte marker saying whether the private
// section that follows the public header is cleartext or lives inside an
// AEAD envelope.
type CryptoMark string

const (
	CryptoMarkEncrypted   CryptoMark = "CC" // private section is inside an AEAD envelope
	CryptoMarkCleartext   CryptoMark = "NC" // private section follows in the clear
)

// Valid reports whether m is one of the two wire values.
func (m CryptoMark) Valid() bool { return m == CryptoMarkEncrypted || m == CryptoMarkCleartext }

// Type is the datagram-type enumeration carried in PrivateHeader.Type.
type Type uint32

const (
	RequestRegister     Type = 0
	RegisterChallenge    Type = 1
	RegisterChallenge2   Type = 2
	ConnectionRejected   Type = 3
	PushSchemas          Type = 4
	SendMetrics          Type = 5
)

func (t Type) String() string {
	switch t {
	case RequestRegister:
		return "RequestRegister"
	case RegisterChallenge:
		return "RegisterChallenge"
	case RegisterChallenge2:
		return "RegisterChallenge2"
	case ConnectionRejected:
		return "ConnectionRejected"
	case PushSchemas:
		return "PushSchemas"
	case SendMetrics:
		return "SendMetrics"
	default:
		return "Unknown"
	}
}

// CryptoMarkFor returns the crypto mark mandated for t: the four handshake
// variants are always cleartext, PushSchemas and SendMetrics are always
// encrypted (spec.md invariant in §3).
func CryptoMarkFor(t Type) CryptoMark {
	switch t {
	case PushSchemas, SendMetrics:
		return CryptoMarkEncrypted
	default:
		return CryptoMarkCleartext
	}
}

// ZeroSessionID is the placeholder sessionId an agent sends with its first
// RequestRegister, before the server has chosen a canonical one (spec.md §9
// open question, resolved in SPEC_FULL.md §4: all-zero bytes of length
// HashLen).
func ZeroSessionID() []byte { return make([]byte, HashLen) }
