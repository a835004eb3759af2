package protocol

import (
	"fmt"

	"github.com/nettask/nettask/pkg/buffer"
	"github.com/nettask/nettask/pkg/ecdhe"
	"github.com/nettask/nettask/pkg/spack"
	"github.com/nettask/nettask/pkg/wireerr"
)

// Deserialize parses a complete frame and dispatches on its PrivateHeader
// type, per spec.md §4.2/§9's tagged-union design: verify the signature,
// parse the public header, then branch on cryptoMark/type to the right
// variant deserializer.
//
// session is required for PushSchemas/SendMetrics and ignored for the four
// handshake variants; taskConfig is required only for SendMetrics. The
// returned value is one of the *Datagram types defined in this package.
func Deserialize(frame []byte, session *ecdhe.Session, taskConfig map[string]spack.TaskDescriptor) (Datagram, error) {
	r := buffer.NewReader(frame)

	ok, err := VerifySignature(r)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, wireerr.ErrInvalidSignature
	}

	pub, err := DeserializePublicHeader(r)
	if err != nil {
		return nil, err
	}
	if int(pub.PayloadSize) != r.Len() {
		return nil, fmt.Errorf("protocol: payloadSize %d != remaining %d: %w", pub.PayloadSize, r.Len(), wireerr.ErrTruncatedFrame)
	}

	switch pub.CryptoMark {
	case CryptoMarkCleartext:
		priv, err := DeserializePrivateHeader(r, pub)
		if err != nil {
			return nil, err
		}
		switch priv.Type() {
		case RequestRegister:
			return DeserializeRequestRegister(r, pub, priv)
		case RegisterChallenge:
			return DeserializeRegisterChallenge(r, pub, priv)
		case RegisterChallenge2:
			return DeserializeRegisterChallenge2(r, pub, priv)
		case ConnectionRejected:
			return DeserializeConnectionRejected(pub, priv)
		default:
			return nil, fmt.Errorf("protocol: unrecognized cleartext type %d: %w", priv.Type(), wireerr.ErrWrongType)
		}

	case CryptoMarkEncrypted:
		// The type is inside the envelope; peek it by opening once and
		// branching. Both encrypted deserializers re-open the envelope
		// from the same bytes, which is cheap relative to the AEAD cost
		// already paid and keeps each variant self-contained and testable
		// in isolation.
		rest, err := r.Read(r.Len())
		if err != nil {
			return nil, fmt.Errorf("protocol: read encrypted body: %w", wireerr.ErrTruncatedFrame)
		}
		priv, _, err := openEncrypted(session, pub, rest)
		if err != nil {
			return nil, err
		}
		switch priv.Type() {
		case PushSchemas:
			return DeserializePushSchemas(buffer.NewReader(rest), pub, session)
		case SendMetrics:
			return DeserializeSendMetrics(buffer.NewReader(rest), pub, session, taskConfig)
		default:
			return nil, fmt.Errorf("protocol: unrecognized encrypted type %d: %w", priv.Type(), wireerr.ErrWrongType)
		}

	default:
		return nil, wireerr.ErrInvalidCryptoMark
	}
}
