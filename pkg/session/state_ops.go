package session

import (
	"fmt"

	"github.com/nettask/nettask/pkg/protocol"
	"github.com/nettask/nettask/pkg/spack"
)

// ObserveReceived records the sequence/ack numbers carried by a datagram
// that was just successfully decoded on an Established session. The core
// treats these fields as opaque pass-through values (spec.md §9's open
// question on sequence/ack semantics); this is the caller-owned bookkeeping
// that open question defers to.
func (s *State) ObserveReceived(priv protocol.PrivateHeader) {
	s.LastRecvSeq, s.LastRecvAck = priv.Seq(), priv.Ack()
}

// AdoptSchemas merges a received PushSchemas datagram's task map into the
// session's bound TaskConfig, so a subsequent SendMetrics for one of those
// tasks can be decoded. Only legal once Established.
func (s *State) AdoptSchemas(d protocol.PushSchemasDatagram) error {
	if s.Phase != PhaseEstablished {
		return fmt.Errorf("session: AdoptSchemas in phase %s: %w", s.Phase, ErrWrongPhase)
	}
	if s.TaskConfig == nil {
		s.TaskConfig = make(map[string]spack.TaskDescriptor, len(d.Schemas))
	}
	for name, schema := range d.Schemas {
		s.TaskConfig[name] = schema
	}
	return nil
}
