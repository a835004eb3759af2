package protocol

import (
	"fmt"

	"github.com/nettask/nettask/pkg/buffer"
	"github.com/nettask/nettask/pkg/wireerr"
)

// PublicHeader is always cleartext: "NTTK" ‖ sessionId ‖ cryptoMark ‖
// payloadSize (spec.md §3, §6).
type PublicHeader struct {
	SessionID   []byte
	CryptoMark  CryptoMark
	PayloadSize uint32
}

// PrivateHeader is cleartext when CryptoMark is NC; for CC variants it
// lives inside the outer AEAD envelope and is never readable from the
// cleartext body (spec.md §3 invariants).
type PrivateHeader struct {
	version                uint32
	sequenceNumber         uint32
	acknowledgementNumber  uint32
	fragmented             bool
	datagramType           Type
}

// NewPrivateHeader builds a PrivateHeader for t with the given sequence/ack
// pass-through numbers. Version is always set to the only value this
// implementation accepts.
func NewPrivateHeader(t Type, seq, ack uint32, fragmented bool) PrivateHeader {
	return PrivateHeader{version: Version, sequenceNumber: seq, acknowledgementNumber: ack, fragmented: fragmented, datagramType: t}
}

// Type returns the datagram type this header carries.
func (h PrivateHeader) Type() Type { return h.datagramType }

// Seq returns the sequence number. Spec.md leaves its semantics as an
// opaque pass-through field for a reliability layer outside this spec.
func (h PrivateHeader) Seq() uint32 { return h.sequenceNumber }

// Ack returns the acknowledgement number, likewise opaque.
func (h PrivateHeader) Ack() uint32 { return h.acknowledgementNumber }

// Fragmented returns the fragmentation pass-through bit. Reassembly is out
// of scope for this specification.
func (h PrivateHeader) Fragmented() bool { return h.fragmented }

// serializePublicHeader writes signature ‖ sessionId ‖ cryptoMark ‖
// payloadSize. Length: 4 + HashLen + 2 + 4 bytes (spec.md §4.2).
func serializePublicHeader(w *buffer.Writer, h PublicHeader) error {
	if len(h.SessionID) != HashLen {
		return fmt.Errorf("protocol: sessionId must be %d bytes, got %d", HashLen, len(h.SessionID))
	}
	if !h.CryptoMark.Valid() {
		return fmt.Errorf("protocol: invalid crypto mark %q: %w", h.CryptoMark, wireerr.ErrInvalidCryptoMark)
	}
	w.WriteRaw([]byte(Signature))
	w.WriteRaw(h.SessionID)
	w.WriteRaw([]byte(h.CryptoMark))
	w.WriteUint32(h.PayloadSize)
	return nil
}

// serializePrivateHeader writes version ‖ seq ‖ ack ‖ fragmented ‖ type.
// Length: 4+4+4+1+4 = 17 bytes (spec.md §4.2).
func serializePrivateHeader(w *buffer.Writer, h PrivateHeader) {
	w.WriteUint32(h.version)
	w.WriteUint32(h.sequenceNumber)
	w.WriteUint32(h.acknowledgementNumber)
	w.WriteBool(h.fragmented)
	w.WriteUint32(uint32(h.datagramType))
}

// VerifySignature reports whether the next four bytes of r equal "NTTK".
// The four bytes are consumed whether or not they match. If fewer than four
// bytes remain it returns ErrTruncatedFrame.
func VerifySignature(r *buffer.Reader) (bool, error) {
	start := r.Pos()
	b, err := r.Read(len(Signature))
	if err != nil {
		return false, wireerr.ErrTruncatedFrame
	}
	if string(b) != Signature {
		return false, nil
	}
	_ = start
	return true, nil
}

// DeserializePublicHeader parses a PublicHeader from r. The signature must
// already have been verified and consumed by the caller via
// VerifySignature.
func DeserializePublicHeader(r *buffer.Reader) (PublicHeader, error) {
	sid, err := r.Read(HashLen)
	if err != nil {
		return PublicHeader{}, fmt.Errorf("protocol: read sessionId: %w", wireerr.ErrTruncatedFrame)
	}
	markBytes, err := r.Read(2)
	if err != nil {
		return PublicHeader{}, fmt.Errorf("protocol: read cryptoMark: %w", wireerr.ErrTruncatedFrame)
	}
	mark := CryptoMark(markBytes)
	if !mark.Valid() {
		return PublicHeader{}, fmt.Errorf("protocol: crypto mark %q: %w", mark, wireerr.ErrInvalidCryptoMark)
	}
	size, err := r.ReadUint32()
	if err != nil {
		return PublicHeader{}, fmt.Errorf("protocol: read payloadSize: %w", wireerr.ErrTruncatedFrame)
	}
	return PublicHeader{
		SessionID:   append([]byte(nil), sid...),
		CryptoMark:  mark,
		PayloadSize: size,
	}, nil
}

// DeserializePrivateHeader parses a PrivateHeader from r and validates its
// version and crypto-mark/type consistency against pub.
func DeserializePrivateHeader(r *buffer.Reader, pub PublicHeader) (PrivateHeader, error) {
	version, err := r.ReadUint32()
	if err != nil {
		return PrivateHeader{}, fmt.Errorf("protocol: read version: %w", wireerr.ErrTruncatedFrame)
	}
	if version != Version {
		return PrivateHeader{}, fmt.Errorf("protocol: version %d: %w", version, wireerr.ErrInvalidVersion)
	}
	seq, err := r.ReadUint32()
	if err != nil {
		return PrivateHeader{}, fmt.Errorf("protocol: read seq: %w", wireerr.ErrTruncatedFrame)
	}
	ack, err := r.ReadUint32()
	if err != nil {
		return PrivateHeader{}, fmt.Errorf("protocol: read ack: %w", wireerr.ErrTruncatedFrame)
	}
	frag, err := r.ReadBool()
	if err != nil {
		return PrivateHeader{}, fmt.Errorf("protocol: read fragmented: %w", wireerr.ErrTruncatedFrame)
	}
	typ, err := r.ReadUint32()
	if err != nil {
		return PrivateHeader{}, fmt.Errorf("protocol: read type: %w", wireerr.ErrTruncatedFrame)
	}
	dt := Type(typ)
	if CryptoMarkFor(dt) != pub.CryptoMark {
		return PrivateHeader{}, fmt.Errorf("protocol: type %s requires crypto mark %s, got %s: %w",
			dt, CryptoMarkFor(dt), pub.CryptoMark, wireerr.ErrInvalidCryptoMark)
	}
	return PrivateHeader{
		version:               version,
		sequenceNumber:        seq,
		acknowledgementNumber: ack,
		fragmented:            frag,
		datagramType:          dt,
	}, nil
}
