package protocol

import (
	"fmt"

	"github.com/nettask/nettask/pkg/buffer"
	"github.com/nettask/nettask/pkg/ecdhe"
	"github.com/nettask/nettask/pkg/wireerr"
)

// Datagram is the read-only view every variant exposes, regardless of
// whether its Serialize method needs a bound ECDHE session. A datagram
// value is otherwise free of hidden state (spec.md §9 design note).
type Datagram interface {
	SessionID() []byte
	Private() PrivateHeader
}

// assembleFrame computes payloadSize from body and prepends the public
// header, per spec.md §4.2: "variants update their own payloadSize
// immediately before writing the public header so the transmitted length
// is exact."
func assembleFrame(sessionID []byte, mark CryptoMark, body []byte) ([]byte, error) {
	pub := PublicHeader{SessionID: sessionID, CryptoMark: mark, PayloadSize: uint32(len(body))}
	w := buffer.NewWriter()
	if err := serializePublicHeader(w, pub); err != nil {
		return nil, err
	}
	w.WriteRaw(body)
	return w.Finish(), nil
}

// sealEncrypted implements spec.md §4.4's sender-side double-encryption:
// encrypt innerPlain under the session's encrypt context, build
// payload = PrivateHeader ‖ u32 innerEncLen ‖ innerEnc, then seal payload under the session's
// envelope context. Returns the serialized outer record.
func sealEncrypted(session *ecdhe.Session, priv PrivateHeader, innerPlain []byte) ([]byte, error) {
	if session == nil {
		return nil, fmt.Errorf("protocol: seal encrypted variant: %w", wireerr.ErrNotLinked)
	}
	innerRec, err := session.Encrypt(innerPlain)
	if err != nil {
		return nil, fmt.Errorf("protocol: encrypt inner body: %w", err)
	}
	innerEnc := ecdhe.SerializeEncryptedMessage(innerRec)

	pw := buffer.NewWriter()
	serializePrivateHeader(pw, priv)
	pw.WriteBytes(innerEnc)

	outerRec, err := session.Envelope(pw.Finish())
	if err != nil {
		return nil, fmt.Errorf("protocol: envelope payload: %w", err)
	}
	return ecdhe.SerializeEncryptedMessage(outerRec), nil
}

// openEncrypted reverses sealEncrypted: open the outer envelope, parse the
// PrivateHeader from the now-plaintext payload, then decrypt the inner
// record. Returns the parsed PrivateHeader and the inner cleartext body.
func openEncrypted(session *ecdhe.Session, pub PublicHeader, outerEnc []byte) (PrivateHeader, []byte, error) {
	if session == nil {
		return PrivateHeader{}, nil, fmt.Errorf("protocol: open encrypted variant: %w", wireerr.ErrNotLinked)
	}
	outerRec, err := ecdhe.DeserializeEncryptedMessage(outerEnc)
	if err != nil {
		return PrivateHeader{}, nil, fmt.Errorf("protocol: deserialize outer record: %w", wireerr.ErrMalformedPayload)
	}
	payload, err := session.OpenEnvelope(outerRec)
	if err != nil {
		return PrivateHeader{}, nil, fmt.Errorf("protocol: open envelope: %w", err)
	}
	pr := buffer.NewReader(payload)
	priv, err := DeserializePrivateHeader(pr, pub)
	if err != nil {
		return PrivateHeader{}, nil, err
	}
	innerEnc, err := pr.ReadBytes()
	if err != nil {
		return PrivateHeader{}, nil, fmt.Errorf("protocol: read inner record: %w", wireerr.ErrTruncatedFrame)
	}
	innerRec, err := ecdhe.DeserializeEncryptedMessage(innerEnc)
	if err != nil {
		return PrivateHeader{}, nil, fmt.Errorf("protocol: deserialize inner record: %w", wireerr.ErrMalformedPayload)
	}
	innerPlain, err := session.Decrypt(innerRec)
	if err != nil {
		return PrivateHeader{}, nil, fmt.Errorf("protocol: decrypt inner body: %w", err)
	}
	return priv, innerPlain, nil
}
