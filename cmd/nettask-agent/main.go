// Command nettask-agent registers with a NetTask server, pushes its task
// schemas, and reports metrics for them on a fixed interval.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/nettask/nettask/pkg/config"
	"github.com/nettask/nettask/pkg/identity"
	"github.com/nettask/nettask/pkg/observability"
	"github.com/nettask/nettask/pkg/protocol"
	"github.com/nettask/nettask/pkg/session"
	"github.com/nettask/nettask/pkg/spack"
	"github.com/nettask/nettask/pkg/transport"
)

func main() {
	configPath := flag.String("config", "", "path to agent config file")
	timeout := flag.Duration("timeout", 10*time.Second, "dial/handshake timeout")
	reportInterval := flag.Duration("report-interval", 30*time.Second, "interval between SendMetrics for each pushed task")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("load config: %v", err)
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		fatalf("setup logger: %v", err)
	}
	defer logger.Sync()

	secret, err := identity.LoadOrGeneratePresharedSecret(cfg.Identity)
	if err != nil {
		logger.Fatal("load preshared secret", zap.Error(err))
	}

	schemas := map[string]spack.TaskSchema{}
	if cfg.Agent.TaskSchemasFile != "" {
		schemas, err = config.LoadTaskSchemas(cfg.Agent.TaskSchemasFile)
		if err != nil {
			logger.Fatal("load task schemas", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ch, err := transport.DialWithBackoff(ctx, cfg.Agent.Transport, cfg.Agent.ServerAddress, cfg.Net)
	if err != nil {
		logger.Fatal("dial server", zap.String("transport", cfg.Agent.Transport), zap.String("address", cfg.Agent.ServerAddress), zap.Error(err))
	}
	defer ch.Close()

	ag := session.NewAgent(secret)
	if err := registerAgent(ctx, ch, ag); err != nil {
		logger.Fatal("registration handshake", zap.Error(err))
	}
	logger.Info("handshake established", zap.Binary("sessionId", ag.SessionID))

	if len(schemas) > 0 {
		if err := pushSchemas(ch, ag, schemas); err != nil {
			logger.Fatal("push schemas", zap.Error(err))
		}
		logger.Info("pushed task schemas", zap.Int("count", len(schemas)))
	}

	runMetricLoop(ch, ag, schemas, *reportInterval, logger)
}

func registerAgent(ctx context.Context, ch transport.Channel, ag *session.State) error {
	reqReg, err := ag.BeginRegister()
	if err != nil {
		return fmt.Errorf("begin register: %w", err)
	}
	frame, err := reqReg.Serialize()
	if err != nil {
		return fmt.Errorf("serialize request register: %w", err)
	}
	if err := ch.Send(frame); err != nil {
		return fmt.Errorf("send request register: %w", err)
	}

	reply, err := ch.Receive(ctx)
	if err != nil {
		return fmt.Errorf("receive register challenge: %w", err)
	}
	dg, err := protocol.Deserialize(reply, nil, nil)
	if err != nil {
		return fmt.Errorf("parse register challenge: %w", err)
	}
	challenge, ok := dg.(protocol.RegisterChallengeDatagram)
	if !ok {
		if _, rejected := dg.(protocol.ConnectionRejectedDatagram); rejected {
			return fmt.Errorf("server rejected registration")
		}
		return fmt.Errorf("expected RegisterChallenge, got %T", dg)
	}

	resp, err := ag.HandleRegisterChallenge(challenge)
	if err != nil {
		return fmt.Errorf("handle register challenge: %w", err)
	}
	respFrame, err := resp.Serialize()
	if err != nil {
		return fmt.Errorf("serialize register challenge2: %w", err)
	}
	return ch.Send(respFrame)
}

func pushSchemas(ch transport.Channel, ag *session.State, schemas map[string]spack.TaskSchema) error {
	d, err := ag.BuildPushSchemas(schemas)
	if err != nil {
		return err
	}
	frame, err := d.Serialize(ag.ECDHE)
	if err != nil {
		return err
	}
	return ch.Send(frame)
}

// runMetricLoop sends one synthetic SendMetrics datagram per pushed task on
// every tick. It never exits on its own; a deployment runs the agent as a
// supervised process and relies on process lifecycle to stop it.
func runMetricLoop(ch transport.Channel, ag *session.State, schemas map[string]spack.TaskSchema, interval time.Duration, logger *zap.Logger) {
	if len(schemas) == 0 {
		logger.Info("no task schemas configured; agent idles after registration")
		select {}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		for name, schema := range schemas {
			metric := sampleMetric(schema)
			d, err := ag.BuildSendMetrics(name, metric)
			if err != nil {
				logger.Error("build send metrics", zap.String("task", name), zap.Error(err))
				continue
			}
			frame, err := d.Serialize(ag.ECDHE, schema)
			if err != nil {
				logger.Error("serialize send metrics", zap.String("task", name), zap.Error(err))
				continue
			}
			if err := ch.Send(frame); err != nil {
				logger.Error("send metrics", zap.String("task", name), zap.Error(err))
				continue
			}
			logger.Debug("sent metrics", zap.String("task", name))
		}
	}
}

// sampleMetric fabricates a value for every declared field so the agent has
// something concrete to report without a real task-execution layer, which
// spec.md explicitly leaves out of scope.
func sampleMetric(schema spack.TaskSchema) spack.Metric {
	vals := make(map[string]any, len(schema.Fields))
	for _, f := range schema.Fields {
		switch f.Type {
		case spack.FieldString:
			vals[f.Name] = "ok"
		case spack.FieldInt64:
			vals[f.Name] = int64(rand.Intn(1000))
		case spack.FieldFloat64:
			vals[f.Name] = rand.Float64()
		case spack.FieldBool:
			vals[f.Name] = rand.Intn(2) == 0
		case spack.FieldBytes:
			vals[f.Name] = []byte{}
		case spack.FieldTimestamp:
			vals[f.Name] = time.Now().UnixMilli()
		}
	}
	return spack.Metric{Values: vals}
}

func fatalf(format string, a ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
