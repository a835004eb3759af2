// Command nettask-server accepts agent registrations, tracks their
// handshake state, and decodes the task schemas and metrics they report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/nettask/nettask/pkg/config"
	grpcgw "github.com/nettask/nettask/pkg/gateway/grpc"
	"github.com/nettask/nettask/pkg/identity"
	"github.com/nettask/nettask/pkg/observability"
	"github.com/nettask/nettask/pkg/protocol"
	"github.com/nettask/nettask/pkg/session"
	"github.com/nettask/nettask/pkg/spack"
	"github.com/nettask/nettask/pkg/transport/quic"
	"github.com/nettask/nettask/pkg/transport/udp"
	"github.com/nettask/nettask/pkg/wireerr"
)

func main() {
	configPath := flag.String("config", "", "path to server config file")
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

	seedTasks := map[string]spack.TaskSchema{}
	if cfg.Server.TaskDescriptorsFile != "" {
		seedTasks, err = config.LoadTaskSchemas(cfg.Server.TaskDescriptorsFile)
		if err != nil {
			logger.Fatal("load task descriptors", zap.Error(err))
		}
	}

	reg := session.NewRegistry()
	if cfg.Server.GatewayListenAddress != "" {
		go runGateway(cfg.Server.GatewayListenAddress, reg, logger)
	}

	srv := &server{secret: secret, seedTasks: seedTasks, registry: reg, logger: logger}

	switch cfg.Server.Transport {
	case "", "udp":
		err = srv.runUDP(cfg.Server.ListenAddress)
	case "quic":
		err = srv.runQUIC(cfg.Server.ListenAddress)
	default:
		err = fmt.Errorf("unknown transport %q", cfg.Server.Transport)
	}
	if err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// server holds everything needed to drive a session.State through its
// lifecycle for however many peers are concurrently registered, independent
// of which transport carries the frames.
type server struct {
	secret    []byte
	seedTasks map[string]spack.TaskSchema
	registry  *session.Registry
	logger    *zap.Logger
}

func (srv *server) newSession() *session.State {
	st := session.NewServer(srv.secret)
	if len(srv.seedTasks) > 0 {
		st.TaskConfig = make(map[string]spack.TaskDescriptor, len(srv.seedTasks))
		for name, schema := range srv.seedTasks {
			st.TaskConfig[name] = schema
		}
	}
	return st
}

// runUDP serves agents over a single UDP socket, demultiplexing by source
// address since the transport itself carries no connection concept and the
// server needs somewhere to keep each peer's session.State between reads.
func (srv *server) runUDP(address string) error {
	ch, err := udp.Listen(address)
	if err != nil {
		return err
	}
	defer ch.Close()
	srv.logger.Info("listening", zap.String("transport", "udp"), zap.String("address", address))

	peers := map[string]*session.State{}
	for {
		frame, addr, err := ch.Receive()
		if err != nil {
			srv.logger.Error("receive", zap.Error(err))
			continue
		}
		key := addr.String()
		st, ok := peers[key]
		if !ok {
			st = srv.newSession()
			peers[key] = st
		}
		reply, err := srv.handleFrame(st, frame)
		if err != nil {
			srv.logger.Warn("handle frame", zap.String("peer", key), zap.Error(err))
		}
		if reply == nil {
			continue
		}
		if err := ch.SendTo(reply, addr); err != nil {
			srv.logger.Error("send reply", zap.String("peer", key), zap.Error(err))
		}
	}
}

// runQUIC serves agents over QUIC, accepting one connection per peer and
// running a dedicated receive loop for it. Unlike UDP's shared socket, QUIC
// already hands the server one Channel per peer, so there's no address-keyed
// demux table to maintain here.
func (srv *server) runQUIC(address string) error {
	l, err := quic.Listen(address)
	if err != nil {
		return err
	}
	defer l.Close()
	srv.logger.Info("listening", zap.String("transport", "quic"), zap.String("address", address))

	for {
		ch, err := l.Accept(context.Background())
		if err != nil {
			srv.logger.Error("accept", zap.Error(err))
			continue
		}
		go srv.servePeer(ch)
	}
}

func (srv *server) servePeer(ch *quic.Channel) {
	defer ch.Close()
	st := srv.newSession()
	peer := ch.RemoteAddr().String()
	for {
		frame, err := ch.Receive(context.Background())
		if err != nil {
			srv.logger.Info("peer disconnected", zap.String("peer", peer), zap.Error(err))
			return
		}
		reply, err := srv.handleFrame(st, frame)
		if err != nil {
			srv.logger.Warn("handle frame", zap.String("peer", peer), zap.Error(err))
		}
		if reply == nil {
			continue
		}
		if err := ch.Send(reply); err != nil {
			srv.logger.Error("send reply", zap.String("peer", peer), zap.Error(err))
			return
		}
	}
}

// handleFrame decodes one frame against st's current phase and returns the
// reply frame to send back, or nil if the message needs no reply.
// ErrInvalidSignature is the one decode failure spec.md says to drop
// silently rather than surface; handleFrame reports it as a no-op rather
// than an error.
func (srv *server) handleFrame(st *session.State, frame []byte) ([]byte, error) {
	dg, err := protocol.Deserialize(frame, st.ECDHE, st.TaskConfig)
	if err != nil {
		if errors.Is(err, wireerr.ErrInvalidSignature) {
			return nil, nil
		}
		return srv.rejectFrame(st, err)
	}

	switch d := dg.(type) {
	case protocol.RequestRegisterDatagram:
		resp, err := st.HandleRequestRegister(d)
		if err != nil {
			return srv.rejectFrame(st, err)
		}
		srv.registry.Put(st)
		respFrame, err := resp.Serialize()
		if err != nil {
			return nil, fmt.Errorf("serialize register challenge: %w", err)
		}
		return respFrame, nil

	case protocol.RegisterChallenge2Datagram:
		if err := st.HandleRegisterChallenge2(d); err != nil {
			return srv.rejectFrame(st, err)
		}
		srv.logger.Info("session established", zap.Binary("sessionId", st.SessionID))
		return nil, nil

	case protocol.PushSchemasDatagram:
		st.ObserveReceived(d.Private())
		if err := st.AdoptSchemas(d); err != nil {
			return srv.rejectFrame(st, err)
		}
		srv.logger.Info("schemas pushed", zap.Binary("sessionId", st.SessionID), zap.Int("count", len(d.Schemas)))
		return nil, nil

	case protocol.SendMetricsDatagram:
		st.ObserveReceived(d.Private())
		srv.logger.Info("metrics received",
			zap.Binary("sessionId", st.SessionID),
			zap.String("task", d.TaskID),
			zap.Any("values", d.Metric.Values))
		return nil, nil

	case protocol.ConnectionRejectedDatagram:
		st.Reject()
		srv.registry.Delete(st.SessionID)
		return nil, nil

	default:
		return srv.rejectFrame(st, fmt.Errorf("unhandled datagram type %T", dg))
	}
}

// rejectFrame answers a handshake-layer failure with ConnectionRejected and
// evicts st from the registry, per spec.md §4.3's "wrong-phase datagram is
// answered with ConnectionRejected" rule.
func (srv *server) rejectFrame(st *session.State, cause error) ([]byte, error) {
	d := st.HandleWrongPhase()
	srv.registry.Delete(st.SessionID)
	frame, err := d.Serialize()
	if err != nil {
		return nil, fmt.Errorf("serialize connection rejected: %w", err)
	}
	return frame, fmt.Errorf("rejecting session: %w", cause)
}

func runGateway(address string, reg *session.Registry, logger *zap.Logger) {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		logger.Error("gateway listen", zap.Error(err))
		return
	}
	gs := grpc.NewServer()
	grpcgw.RegisterSessionGatewayServer(gs, &grpcgw.Gateway{Registry: reg})
	logger.Info("admin gateway listening", zap.String("address", address))
	if err := gs.Serve(lis); err != nil {
		logger.Error("gateway serve", zap.Error(err))
	}
}

func fatalf(format string, a ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
