package protocol

import (
	"fmt"

	"github.com/nettask/nettask/pkg/buffer"
	"github.com/nettask/nettask/pkg/wireerr"
)

// RegisterChallengeDatagram is S→A, step 2 of the handshake: the server's
// canonical sessionId, its public key, a fresh challenge nonce, and a fresh
// salt (spec.md §4.3 message 2).
type RegisterChallengeDatagram struct {
	sessionID []byte
	private   PrivateHeader
	PublicKey []byte
	Challenge []byte
	Salt      []byte
}

// NewRegisterChallenge builds a RegisterChallenge datagram value.
func NewRegisterChallenge(sessionID []byte, seq, ack uint32, publicKey, challenge, salt []byte) RegisterChallengeDatagram {
	return RegisterChallengeDatagram{
		sessionID: sessionID,
		private:   NewPrivateHeader(RegisterChallenge, seq, ack, false),
		PublicKey: publicKey,
		Challenge: challenge,
		Salt:      salt,
	}
}

func (d RegisterChallengeDatagram) SessionID() []byte      { return d.sessionID }
func (d RegisterChallengeDatagram) Private() PrivateHeader { return d.private }

// Serialize encodes the datagram to its wire form.
func (d RegisterChallengeDatagram) Serialize() ([]byte, error) {
	bw := buffer.NewWriter()
	serializePrivateHeader(bw, d.private)
	bw.WriteBytes(d.PublicKey)
	bw.WriteBytes(d.Challenge)
	bw.WriteBytes(d.Salt)
	return assembleFrame(d.sessionID, CryptoMarkCleartext, bw.Finish())
}

// DeserializeRegisterChallenge parses the payload following a PrivateHeader
// already confirmed to carry type RegisterChallenge.
func DeserializeRegisterChallenge(r *buffer.Reader, pub PublicHeader, priv PrivateHeader) (RegisterChallengeDatagram, error) {
	if priv.Type() != RegisterChallenge {
		return RegisterChallengeDatagram{}, fmt.Errorf("protocol: RegisterChallenge.Deserialize: %w", wireerr.ErrWrongType)
	}
	pk, err := r.ReadBytes()
	if err != nil {
		return RegisterChallengeDatagram{}, fmt.Errorf("protocol: read public key: %w", wireerr.ErrTruncatedFrame)
	}
	ch, err := r.ReadBytes()
	if err != nil {
		return RegisterChallengeDatagram{}, fmt.Errorf("protocol: read challenge: %w", wireerr.ErrTruncatedFrame)
	}
	salt, err := r.ReadBytes()
	if err != nil {
		return RegisterChallengeDatagram{}, fmt.Errorf("protocol: read salt: %w", wireerr.ErrTruncatedFrame)
	}
	return RegisterChallengeDatagram{sessionID: pub.SessionID, private: priv, PublicKey: pk, Challenge: ch, Salt: salt}, nil
}
