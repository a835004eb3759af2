package protocol

import (
	"fmt"

	"github.com/nettask/nettask/pkg/buffer"
	"github.com/nettask/nettask/pkg/wireerr"
)

// ConnectionRejectedDatagram carries only headers; its sole effect is to
// signal termination and must be acceptable in any non-terminal phase
// (spec.md §4.5).
type ConnectionRejectedDatagram struct {
	sessionID []byte
	private   PrivateHeader
}

// NewConnectionRejected builds a ConnectionRejected datagram value.
func NewConnectionRejected(sessionID []byte, seq, ack uint32) ConnectionRejectedDatagram {
	return ConnectionRejectedDatagram{
		sessionID: sessionID,
		private:   NewPrivateHeader(ConnectionRejected, seq, ack, false),
	}
}

func (d ConnectionRejectedDatagram) SessionID() []byte      { return d.sessionID }
func (d ConnectionRejectedDatagram) Private() PrivateHeader { return d.private }

// Serialize encodes the datagram to its wire form: headers only, no payload.
func (d ConnectionRejectedDatagram) Serialize() ([]byte, error) {
	bw := buffer.NewWriter()
	serializePrivateHeader(bw, d.private)
	return assembleFrame(d.sessionID, CryptoMarkCleartext, bw.Finish())
}

// DeserializeConnectionRejected parses a ConnectionRejected datagram. There
// is no payload to consume beyond the headers.
func DeserializeConnectionRejected(pub PublicHeader, priv PrivateHeader) (ConnectionRejectedDatagram, error) {
	if priv.Type() != ConnectionRejected {
		return ConnectionRejectedDatagram{}, fmt.Errorf("protocol: ConnectionRejected.Deserialize: %w", wireerr.ErrWrongType)
	}
	return ConnectionRejectedDatagram{sessionID: pub.SessionID, private: priv}, nil
}
