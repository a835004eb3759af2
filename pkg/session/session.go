// Package session implements the handshake state machine both an agent and
// a server drive to take a NetTask session from first contact to
// Established, on top of the wire-level types in pkg/protocol and the key
// agreement in pkg/ecdhe.
package session

import (
	"errors"

	"github.com/nettask/nettask/pkg/ecdhe"
	"github.com/nettask/nettask/pkg/spack"
)

// Role distinguishes which side of the handshake a SessionState plays.
type Role int

const (
	RoleAgent Role = iota
	RoleServer
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "agent"
}

// Phase is a position in the handshake state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseListen
	PhaseAwaitChallenge
	PhaseAwaitChallenge2
	PhaseEstablished
	PhaseRejected
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseListen:
		return "Listen"
	case PhaseAwaitChallenge:
		return "AwaitChallenge"
	case PhaseAwaitChallenge2:
		return "AwaitChallenge2"
	case PhaseEstablished:
		return "Established"
	case PhaseRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// ErrWrongPhase is returned when a handshake message arrives for a
// SessionState that isn't in the phase that message is legal in. Per
// spec, the caller answers this with a ConnectionRejected datagram; this
// package never emits one itself.
var ErrWrongPhase = errors.New("session: message not legal in current phase")

// ErrChallengeMismatch is returned when a RegisterChallenge2's
// challengeResponse does not match the server's own derivation.
var ErrChallengeMismatch = errors.New("session: challenge response mismatch")

// State is one peer's view of one session: its role, phase, bound ECDHE
// key-agreement object, the last sequence/ack numbers seen in each
// direction, and, once bound, a task descriptor map for decoding metrics.
// A State is owned by exactly one logical peer at a time; concurrent access
// must be serialized by the caller (spec.md §5).
type State struct {
	SessionID []byte
	Role      Role
	Phase     Phase

	ECDHE *ecdhe.Session

	LastSentSeq uint32
	LastSentAck uint32
	LastRecvSeq uint32
	LastRecvAck uint32

	TaskConfig map[string]spack.TaskDescriptor

	// presharedSecret is the long-lived secret both peers hold out of
	// band; it is mixed into every DeriveSharedSecret call.
	presharedSecret []byte

	// expectedProof holds the server's own challenge proof while awaiting
	// RegisterChallenge2, to compare against the agent's response.
	expectedProof []byte
}

// Reject transitions s into the terminal Rejected phase. Per spec.md §4.3
// this is legal from any non-terminal phase and the transition never
// reverses.
func (s *State) Reject() {
	s.Phase = PhaseRejected
}
