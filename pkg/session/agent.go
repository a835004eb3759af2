package session

import (
	"fmt"

	"github.com/nettask/nettask/pkg/ecdhe"
	"github.com/nettask/nettask/pkg/protocol"
	"github.com/nettask/nettask/pkg/spack"
)

// NewAgent returns a fresh agent-role State in PhaseIdle, ready to begin a
// handshake. presharedSecret is the long-lived secret both peers already
// hold out of band.
func NewAgent(presharedSecret []byte) *State {
	return &State{
		Role:            RoleAgent,
		Phase:           PhaseIdle,
		ECDHE:           ecdhe.New(),
		presharedSecret: append([]byte(nil), presharedSecret...),
	}
}

// BeginRegister generates the agent's ephemeral keypair and builds the
// RequestRegister datagram that starts the handshake (spec.md §4.3 message
// 1). Only legal from PhaseIdle.
func (s *State) BeginRegister() (protocol.RequestRegisterDatagram, error) {
	if s.Phase != PhaseIdle {
		return protocol.RequestRegisterDatagram{}, fmt.Errorf("session: BeginRegister in phase %s: %w", s.Phase, ErrWrongPhase)
	}
	kp, err := s.ECDHE.GenerateKeyPair()
	if err != nil {
		return protocol.RequestRegisterDatagram{}, fmt.Errorf("session: generate key pair: %w", err)
	}
	d := protocol.NewRequestRegister(protocol.ZeroSessionID(), s.nextSentSeq(), s.LastRecvSeq, kp.Public[:])
	s.Phase = PhaseAwaitChallenge
	return d, nil
}

// HandleRegisterChallenge consumes the server's RegisterChallenge, derives
// the shared secret, and builds the RegisterChallenge2 response proving
// possession of it (spec.md §4.3 messages 2-3). Only legal from
// PhaseAwaitChallenge. On success the session adopts the server's chosen
// sessionId and moves straight to PhaseEstablished: per spec.md, "A"
// locally derives the shared secret on sending Challenge2, and the
// handshake is single-shot from there.
func (s *State) HandleRegisterChallenge(d protocol.RegisterChallengeDatagram) (protocol.RegisterChallenge2Datagram, error) {
	if s.Phase != PhaseAwaitChallenge {
		return protocol.RegisterChallenge2Datagram{}, fmt.Errorf("session: HandleRegisterChallenge in phase %s: %w", s.Phase, ErrWrongPhase)
	}
	if err := s.ECDHE.DeriveSharedSecret(d.PublicKey, d.Salt, d.Challenge, s.presharedSecret); err != nil {
		return protocol.RegisterChallenge2Datagram{}, fmt.Errorf("session: derive shared secret: %w", err)
	}
	s.SessionID = append([]byte(nil), d.SessionID()...)
	s.LastRecvSeq, s.LastRecvAck = d.Private().Seq(), d.Private().Ack()

	resp := protocol.NewRegisterChallenge2(s.SessionID, s.nextSentSeq(), s.LastRecvSeq, s.ECDHE.ChallengeProof())
	s.Phase = PhaseEstablished
	return resp, nil
}

// BuildPushSchemas constructs the PushSchemas datagram that distributes
// schemas to the server, advancing the session's outbound sequence number.
// Only legal once Established (spec.md §4.3's "Established -> PushSchemas /
// SendMetrics -> Established" self-loop).
func (s *State) BuildPushSchemas(schemas map[string]spack.TaskSchema) (protocol.PushSchemasDatagram, error) {
	if s.Phase != PhaseEstablished {
		return protocol.PushSchemasDatagram{}, fmt.Errorf("session: BuildPushSchemas in phase %s: %w", s.Phase, ErrWrongPhase)
	}
	return protocol.NewPushSchemas(s.SessionID, s.nextSentSeq(), s.LastRecvSeq, schemas), nil
}

// BuildSendMetrics constructs the SendMetrics datagram reporting one task's
// collected values, advancing the session's outbound sequence number. Only
// legal once Established.
func (s *State) BuildSendMetrics(taskID string, metric spack.Metric) (protocol.SendMetricsDatagram, error) {
	if s.Phase != PhaseEstablished {
		return protocol.SendMetricsDatagram{}, fmt.Errorf("session: BuildSendMetrics in phase %s: %w", s.Phase, ErrWrongPhase)
	}
	return protocol.NewSendMetrics(s.SessionID, s.nextSentSeq(), s.LastRecvSeq, taskID, metric), nil
}

// HandleWrongPhase is the caller's hook for the "any other datagram in the
// wrong phase" rule (spec.md §4.3): it transitions s to Rejected and
// returns the ConnectionRejected datagram to send back.
func (s *State) HandleWrongPhase() protocol.ConnectionRejectedDatagram {
	sid := s.SessionID
	if sid == nil {
		sid = protocol.ZeroSessionID()
	}
	d := protocol.NewConnectionRejected(sid, s.nextSentSeq(), s.LastRecvSeq)
	s.Reject()
	return d
}

func (s *State) nextSentSeq() uint32 {
	s.LastSentSeq++
	return s.LastSentSeq
}
