package protocol

import (
	"fmt"

	"github.com/nettask/nettask/pkg/buffer"
	"github.com/nettask/nettask/pkg/wireerr"
)

// RequestRegisterDatagram is A→S, step 1 of the handshake: A's ephemeral
// public key, carried under a possibly-placeholder sessionId (spec.md §4.3
// message 1).
type RequestRegisterDatagram struct {
	sessionID []byte
	private   PrivateHeader
	PublicKey []byte
}

// NewRequestRegister builds a RequestRegister datagram value.
func NewRequestRegister(sessionID []byte, seq, ack uint32, publicKey []byte) RequestRegisterDatagram {
	return RequestRegisterDatagram{
		sessionID: sessionID,
		private:   NewPrivateHeader(RequestRegister, seq, ack, false),
		PublicKey: publicKey,
	}
}

func (d RequestRegisterDatagram) SessionID() []byte    { return d.sessionID }
func (d RequestRegisterDatagram) Private() PrivateHeader { return d.private }

// Serialize encodes the datagram to its wire form.
func (d RequestRegisterDatagram) Serialize() ([]byte, error) {
	bw := buffer.NewWriter()
	serializePrivateHeader(bw, d.private)
	bw.WriteBytes(d.PublicKey)
	return assembleFrame(d.sessionID, CryptoMarkCleartext, bw.Finish())
}

// DeserializeRequestRegister parses the payload following a PrivateHeader
// already confirmed to carry type RequestRegister.
func DeserializeRequestRegister(r *buffer.Reader, pub PublicHeader, priv PrivateHeader) (RequestRegisterDatagram, error) {
	if priv.Type() != RequestRegister {
		return RequestRegisterDatagram{}, fmt.Errorf("protocol: RequestRegister.Deserialize: %w", wireerr.ErrWrongType)
	}
	pk, err := r.ReadBytes()
	if err != nil {
		return RequestRegisterDatagram{}, fmt.Errorf("protocol: read public key: %w", wireerr.ErrTruncatedFrame)
	}
	return RequestRegisterDatagram{sessionID: pub.SessionID, private: priv, PublicKey: pk}, nil
}
