// Package grpcgw is the admin/introspection gateway: a read-only gRPC
// service that lets an operator ask a running server about a session's
// handshake phase and sequence counters. It never carries NetTask frames
// itself — those move over pkg/transport/{udp,quic} — it only reflects
// pkg/session.Registry state outward.
//
// The service is hand-registered against google.golang.org/grpc rather than
// generated from a .proto file: its request/response shapes are the
// well-known wrapper and struct types from
// google.golang.org/protobuf/types/known, the same way the teacher's own
// tests exercise structpb without a generated schema.
package grpcgw

import (
	"context"
	"encoding/hex"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/nettask/nettask/pkg/session"
)

const serviceName = "nettask.SessionGateway"

// SessionGatewayServer is implemented by Gateway; it's declared separately
// so RegisterSessionGatewayServer can take it as an interface, matching the
// shape protoc-gen-go-grpc would have produced from a .proto definition.
type SessionGatewayServer interface {
	GetSessionStatus(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// SessionGatewayClient is the client-side counterpart, for an operator CLI
// or admin tool to call.
type SessionGatewayClient interface {
	GetSessionStatus(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type sessionGatewayClient struct {
	cc grpc.ClientConnInterface
}

// NewSessionGatewayClient wraps a gRPC client connection for the session
// gateway service.
func NewSessionGatewayClient(cc grpc.ClientConnInterface) SessionGatewayClient {
	return &sessionGatewayClient{cc: cc}
}

func (c *sessionGatewayClient) GetSessionStatus(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/GetSessionStatus", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterSessionGatewayServer registers srv against a gRPC server.
func RegisterSessionGatewayServer(s grpc.ServiceRegistrar, srv SessionGatewayServer) {
	s.RegisterService(&sessionGatewayServiceDesc, srv)
}

func sessionGatewayGetSessionStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionGatewayServer).GetSessionStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetSessionStatus"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionGatewayServer).GetSessionStatus(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

var sessionGatewayServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SessionGatewayServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSessionStatus", Handler: sessionGatewayGetSessionStatusHandler},
	},
	Metadata: "pkg/gateway/grpc/grpc.go",
}

// Gateway implements SessionGatewayServer over a live session.Registry.
type Gateway struct {
	Registry *session.Registry
}

// GetSessionStatus looks up the session named by in (a hex-encoded
// sessionId) and reports its phase and sequence/ack counters. Unknown
// sessions are reported as a plain fmt.Errorf error, which gRPC delivers to
// the client with status code Unknown; this gateway does not map onto the
// datagram layer's own error taxonomy.
func (g *Gateway) GetSessionStatus(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	sessionID, err := hex.DecodeString(in.GetValue())
	if err != nil {
		return nil, fmt.Errorf("grpcgw: decode sessionId: %w", err)
	}
	s, ok := g.Registry.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("grpcgw: no session for id %s", in.GetValue())
	}
	return structpb.NewStruct(map[string]any{
		"role":          s.Role.String(),
		"phase":         s.Phase.String(),
		"last_sent_seq": float64(s.LastSentSeq),
		"last_sent_ack": float64(s.LastSentAck),
		"last_recv_seq": float64(s.LastRecvSeq),
		"last_recv_ack": float64(s.LastRecvAck),
	})
}
