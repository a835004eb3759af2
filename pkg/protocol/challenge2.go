package protocol

import (
	"fmt"

	"github.com/nettask/nettask/pkg/buffer"
	"github.com/nettask/nettask/pkg/wireerr"
)

// RegisterChallenge2Datagram is A→S, step 3 of the handshake: proof that A
// derived the same shared secret as S, carried as a challenge-response
// nonce (spec.md §4.3 message 3).
type RegisterChallenge2Datagram struct {
	sessionID         []byte
	private           PrivateHeader
	ChallengeResponse []byte
}

// NewRegisterChallenge2 builds a RegisterChallenge2 datagram value.
func NewRegisterChallenge2(sessionID []byte, seq, ack uint32, challengeResponse []byte) RegisterChallenge2Datagram {
	return RegisterChallenge2Datagram{
		sessionID:         sessionID,
		private:           NewPrivateHeader(RegisterChallenge2, seq, ack, false),
		ChallengeResponse: challengeResponse,
	}
}

func (d RegisterChallenge2Datagram) SessionID() []byte      { return d.sessionID }
func (d RegisterChallenge2Datagram) Private() PrivateHeader { return d.private }

// Serialize encodes the datagram to its wire form.
func (d RegisterChallenge2Datagram) Serialize() ([]byte, error) {
	bw := buffer.NewWriter()
	serializePrivateHeader(bw, d.private)
	bw.WriteBytes(d.ChallengeResponse)
	return assembleFrame(d.sessionID, CryptoMarkCleartext, bw.Finish())
}

// DeserializeRegisterChallenge2 parses the payload following a PrivateHeader
// already confirmed to carry type RegisterChallenge2.
func DeserializeRegisterChallenge2(r *buffer.Reader, pub PublicHeader, priv PrivateHeader) (RegisterChallenge2Datagram, error) {
	if priv.Type() != RegisterChallenge2 {
		return RegisterChallenge2Datagram{}, fmt.Errorf("protocol: RegisterChallenge2.Deserialize: %w", wireerr.ErrWrongType)
	}
	ch, err := r.ReadBytes()
	if err != nil {
		return RegisterChallenge2Datagram{}, fmt.Errorf("protocol: read challenge response: %w", wireerr.ErrTruncatedFrame)
	}
	return RegisterChallenge2Datagram{sessionID: pub.SessionID, private: priv, ChallengeResponse: ch}, nil
}
