package session

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nettask/nettask/pkg/protocol"
)

func fixedPresharedSecret() []byte { return []byte("fixed-preshared-secret-for-tests") }

// TestHappyPathRegistration covers seed scenario S1: the full three-message
// handshake, ending with both peers Established and holding the same
// derived key material.
func TestHappyPathRegistration(t *testing.T) {
	agent := NewAgent(fixedPresharedSecret())
	server := NewServer(fixedPresharedSecret())

	reqReg, err := agent.BeginRegister()
	if err != nil {
		t.Fatalf("BeginRegister: %v", err)
	}
	if agent.Phase != PhaseAwaitChallenge {
		t.Fatalf("agent phase after BeginRegister: %s", agent.Phase)
	}
	if !bytes.Equal(reqReg.SessionID(), protocol.ZeroSessionID()) {
		t.Fatalf("expected zero placeholder sessionId")
	}

	challenge, err := server.HandleRequestRegister(reqReg)
	if err != nil {
		t.Fatalf("HandleRequestRegister: %v", err)
	}
	if server.Phase != PhaseAwaitChallenge2 {
		t.Fatalf("server phase after HandleRequestRegister: %s", server.Phase)
	}
	sid := challenge.SessionID()
	if len(sid) != protocol.HashLen {
		t.Fatalf("sessionId length: got %d want %d", len(sid), protocol.HashLen)
	}

	challenge2, err := agent.HandleRegisterChallenge(challenge)
	if err != nil {
		t.Fatalf("HandleRegisterChallenge: %v", err)
	}
	if agent.Phase != PhaseEstablished {
		t.Fatalf("agent phase after HandleRegisterChallenge: %s", agent.Phase)
	}
	if !bytes.Equal(agent.SessionID, sid) {
		t.Fatalf("agent did not adopt server's sessionId")
	}

	if err := server.HandleRegisterChallenge2(challenge2); err != nil {
		t.Fatalf("HandleRegisterChallenge2: %v", err)
	}
	if server.Phase != PhaseEstablished {
		t.Fatalf("server phase after HandleRegisterChallenge2: %s", server.Phase)
	}

	if !bytes.Equal(agent.ECDHE.ChallengeProof(), server.ECDHE.ChallengeProof()) {
		t.Fatalf("agent and server derived different challenge proofs")
	}
	if !agent.ECDHE.Established() || !server.ECDHE.Established() {
		t.Fatalf("expected both sides' ECDHE session established")
	}
}

// TestChallengeMismatchRejected exercises the "challenge verification
// fails" rejection cause from the error taxonomy: a forged
// RegisterChallenge2 must not move the server to Established.
func TestChallengeMismatchRejected(t *testing.T) {
	agent := NewAgent(fixedPresharedSecret())
	server := NewServer(fixedPresharedSecret())

	reqReg, err := agent.BeginRegister()
	if err != nil {
		t.Fatalf("BeginRegister: %v", err)
	}
	challenge, err := server.HandleRequestRegister(reqReg)
	if err != nil {
		t.Fatalf("HandleRequestRegister: %v", err)
	}
	forged := protocol.NewRegisterChallenge2(challenge.SessionID(), 1, 0, []byte("not-the-real-proof"))

	if err := server.HandleRegisterChallenge2(forged); !errors.Is(err, ErrChallengeMismatch) {
		t.Fatalf("expected ErrChallengeMismatch, got %v", err)
	}
	if server.Phase == PhaseEstablished {
		t.Fatalf("server must not reach Established on a challenge mismatch")
	}
}

// TestRejectionFromIdle covers seed scenario S6: a receiver in a
// non-matching phase answers with ConnectionRejected and moves to the
// terminal Rejected phase.
func TestRejectionFromIdle(t *testing.T) {
	agent := NewAgent(fixedPresharedSecret())
	if agent.Phase != PhaseIdle {
		t.Fatalf("fresh agent phase: %s", agent.Phase)
	}
	// The agent has not sent RequestRegister yet, so any other message
	// (here modeled directly, since HandleRegisterChallenge itself rejects
	// out-of-phase calls with ErrWrongPhase) is illegal.
	bogus := protocol.NewRegisterChallenge(protocol.ZeroSessionID(), 0, 0, []byte("pk"), []byte("ch"), []byte("salt"))
	if _, err := agent.HandleRegisterChallenge(bogus); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase, got %v", err)
	}

	rejected := agent.HandleWrongPhase()
	if agent.Phase != PhaseRejected {
		t.Fatalf("agent phase after HandleWrongPhase: %s", agent.Phase)
	}
	if rejected.Private().Type() != protocol.ConnectionRejected {
		t.Fatalf("wrong datagram type: %s", rejected.Private().Type())
	}
}

// TestHandshakeNeverReenters asserts the "never returns to a prior phase"
// property for a terminated session: once Rejected, the agent cannot be
// driven back into the handshake through the same State value.
func TestHandshakeNeverReenters(t *testing.T) {
	agent := NewAgent(fixedPresharedSecret())
	agent.Reject()
	if _, err := agent.BeginRegister(); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase after Reject, got %v", err)
	}
}

func TestRegistryRoundtrip(t *testing.T) {
	reg := NewRegistry()
	s := NewServer(fixedPresharedSecret())
	s.SessionID = []byte("0123456789012345678901234567890x")[:protocol.HashLen]
	reg.Put(s)

	got, ok := reg.Get(s.SessionID)
	if !ok || got != s {
		t.Fatalf("registry lookup failed: ok=%v got=%v", ok, got)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 tracked session, got %d", reg.Len())
	}
	reg.Delete(s.SessionID)
	if _, ok := reg.Get(s.SessionID); ok {
		t.Fatalf("expected session removed after Delete")
	}
}
