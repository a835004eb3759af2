package session

import (
	"errors"
	"testing"

	"github.com/nettask/nettask/pkg/protocol"
	"github.com/nettask/nettask/pkg/spack"
)

func establishedPair(t *testing.T) (*State, *State) {
	t.Helper()
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
	challenge2, err := agent.HandleRegisterChallenge(challenge)
	if err != nil {
		t.Fatalf("HandleRegisterChallenge: %v", err)
	}
	if err := server.HandleRegisterChallenge2(challenge2); err != nil {
		t.Fatalf("HandleRegisterChallenge2: %v", err)
	}
	return agent, server
}

func cpuSchema() spack.TaskSchema {
	return spack.TaskSchema{Name: "cpu", Fields: []spack.FieldDef{
		{Name: "usage", Type: spack.FieldFloat64, Required: true},
	}}
}

func TestBuildPushSchemasRequiresEstablished(t *testing.T) {
	agent := NewAgent(fixedPresharedSecret())
	if _, err := agent.BuildPushSchemas(map[string]spack.TaskSchema{"cpu": cpuSchema()}); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase, got %v", err)
	}
}

func TestBuildSendMetricsRequiresEstablished(t *testing.T) {
	agent := NewAgent(fixedPresharedSecret())
	if _, err := agent.BuildSendMetrics("cpu", spack.Metric{Values: map[string]any{"usage": 0.5}}); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase, got %v", err)
	}
}

// TestPushSchemasAdoptedByServer exercises seed scenario S2: the agent
// builds a PushSchemas datagram, the server decodes and adopts it into its
// own TaskConfig so a later SendMetrics for that task can be decoded.
func TestPushSchemasAdoptedByServer(t *testing.T) {
	agent, server := establishedPair(t)
	schemas := map[string]spack.TaskSchema{"cpu": cpuSchema()}

	d, err := agent.BuildPushSchemas(schemas)
	if err != nil {
		t.Fatalf("BuildPushSchemas: %v", err)
	}

	server.ObserveReceived(d.Private())
	if err := server.AdoptSchemas(d); err != nil {
		t.Fatalf("AdoptSchemas: %v", err)
	}
	if server.LastRecvSeq != d.Private().Seq() {
		t.Fatalf("ObserveReceived did not record sequence number")
	}
	got, ok := server.TaskConfig["cpu"]
	if !ok || !got.Equal(cpuSchema()) {
		t.Fatalf("server did not adopt pushed schema: %+v", got)
	}
}

func TestAdoptSchemasRequiresEstablished(t *testing.T) {
	server := NewServer(fixedPresharedSecret())
	d := protocol.NewPushSchemas(protocol.ZeroSessionID(), 0, 0, map[string]spack.TaskSchema{"cpu": cpuSchema()})
	if err := server.AdoptSchemas(d); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase, got %v", err)
	}
}

// TestSendMetricsAfterPushSchemas exercises seed scenario S3: once the
// server holds the pushed schema, it can decode a SendMetrics datagram for
// that task using the adopted TaskDescriptor.
func TestSendMetricsAfterPushSchemas(t *testing.T) {
	agent, server := establishedPair(t)
	schemas := map[string]spack.TaskSchema{"cpu": cpuSchema()}

	pushed, err := agent.BuildPushSchemas(schemas)
	if err != nil {
		t.Fatalf("BuildPushSchemas: %v", err)
	}
	server.ObserveReceived(pushed.Private())
	if err := server.AdoptSchemas(pushed); err != nil {
		t.Fatalf("AdoptSchemas: %v", err)
	}

	metric := spack.Metric{Values: map[string]any{"usage": 0.42}}
	d, err := agent.BuildSendMetrics("cpu", metric)
	if err != nil {
		t.Fatalf("BuildSendMetrics: %v", err)
	}
	frame, err := d.Serialize(agent.ECDHE, schemas["cpu"])
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	dg, err := protocol.Deserialize(frame, server.ECDHE, server.TaskConfig)
	if err != nil {
		t.Fatalf("Deserialize on server: %v", err)
	}
	got, ok := dg.(protocol.SendMetricsDatagram)
	if !ok {
		t.Fatalf("expected SendMetricsDatagram, got %T", dg)
	}
	if got.TaskID != "cpu" {
		t.Fatalf("TaskID: got %q", got.TaskID)
	}
	if got.Metric.Values["usage"] != 0.42 {
		t.Fatalf("metric value: got %v", got.Metric.Values["usage"])
	}
}
