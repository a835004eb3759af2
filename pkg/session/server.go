package session

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/nettask/nettask/pkg/ecdhe"
	"github.com/nettask/nettask/pkg/protocol"
)

const nonceLen = 32

// NewServer returns a fresh server-role State in PhaseListen, ready to
// accept a RequestRegister. presharedSecret is the long-lived secret both
// peers already hold out of band.
func NewServer(presharedSecret []byte) *State {
	return &State{
		Role:            RoleServer,
		Phase:           PhaseListen,
		ECDHE:           ecdhe.New(),
		presharedSecret: append([]byte(nil), presharedSecret...),
	}
}

// deriveSessionID implements the SUPPLEMENTED sessionId rule: hash
// pk_A ‖ pk_S ‖ presharedSecret with the same hash the ECDHE primitive uses
// for its session-id-length output.
func deriveSessionID(peerPublicKey, localPublicKey, presharedSecret []byte) []byte {
	h := sha256.New()
	h.Write(peerPublicKey)
	h.Write(localPublicKey)
	h.Write(presharedSecret)
	return h.Sum(nil)
}

// HandleRequestRegister accepts an agent's RequestRegister, generates the
// server's own ephemeral keypair plus a fresh challenge and salt, derives
// the shared secret immediately (it already holds every input the
// derivation needs), and builds the RegisterChallenge response (spec.md
// §4.3 messages 1-2). Only legal from PhaseListen.
func (s *State) HandleRequestRegister(d protocol.RequestRegisterDatagram) (protocol.RegisterChallengeDatagram, error) {
	if s.Phase != PhaseListen {
		return protocol.RegisterChallengeDatagram{}, fmt.Errorf("session: HandleRequestRegister in phase %s: %w", s.Phase, ErrWrongPhase)
	}
	kp, err := s.ECDHE.GenerateKeyPair()
	if err != nil {
		return protocol.RegisterChallengeDatagram{}, fmt.Errorf("session: generate key pair: %w", err)
	}
	challenge, err := generateNonce(nonceLen)
	if err != nil {
		return protocol.RegisterChallengeDatagram{}, fmt.Errorf("session: generate challenge: %w", err)
	}
	salt, err := generateNonce(nonceLen)
	if err != nil {
		return protocol.RegisterChallengeDatagram{}, fmt.Errorf("session: generate salt: %w", err)
	}

	s.SessionID = deriveSessionID(d.PublicKey, kp.Public[:], s.presharedSecret)
	if err := s.ECDHE.DeriveSharedSecret(d.PublicKey, salt, challenge, s.presharedSecret); err != nil {
		return protocol.RegisterChallengeDatagram{}, fmt.Errorf("session: derive shared secret: %w", err)
	}
	s.expectedProof = s.ECDHE.ChallengeProof()
	s.LastRecvSeq, s.LastRecvAck = d.Private().Seq(), d.Private().Ack()

	resp := protocol.NewRegisterChallenge(s.SessionID, s.nextSentSeq(), s.LastRecvSeq, kp.Public[:], challenge, salt)
	s.Phase = PhaseAwaitChallenge2
	return resp, nil
}

// HandleRegisterChallenge2 verifies the agent's challenge response against
// the server's own derivation and, on a match, transitions to
// PhaseEstablished (spec.md §4.3 message 3). On mismatch it returns
// ErrChallengeMismatch without transitioning; the caller decides whether to
// answer with ConnectionRejected (it should, per the error taxonomy's
// "challenge verification fails" rejection cause).
func (s *State) HandleRegisterChallenge2(d protocol.RegisterChallenge2Datagram) error {
	if s.Phase != PhaseAwaitChallenge2 {
		return fmt.Errorf("session: HandleRegisterChallenge2 in phase %s: %w", s.Phase, ErrWrongPhase)
	}
	if !bytes.Equal(d.ChallengeResponse, s.expectedProof) {
		return ErrChallengeMismatch
	}
	s.LastRecvSeq, s.LastRecvAck = d.Private().Seq(), d.Private().Ack()
	s.Phase = PhaseEstablished
	return nil
}

func generateNonce(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
