package grpcgw

import (
	"context"
	"encoding/hex"
	"testing"

	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/nettask/nettask/pkg/session"
)

func TestGetSessionStatusKnownSession(t *testing.T) {
	reg := session.NewRegistry()
	s := session.NewServer([]byte("psk"))
	s.SessionID = []byte("0123456789abcdef0123456789abcdef")[:32]
	s.Phase = session.PhaseEstablished
	s.LastSentSeq = 3
	reg.Put(s)

	gw := &Gateway{Registry: reg}
	out, err := gw.GetSessionStatus(context.Background(), wrapperspb.String(hex.EncodeToString(s.SessionID)))
	if err != nil {
		t.Fatalf("GetSessionStatus: %v", err)
	}
	fields := out.GetFields()
	if fields["phase"].GetStringValue() != "Established" {
		t.Fatalf("phase mismatch: %+v", fields["phase"])
	}
	if fields["role"].GetStringValue() != "server" {
		t.Fatalf("role mismatch: %+v", fields["role"])
	}
	if fields["last_sent_seq"].GetNumberValue() != 3 {
		t.Fatalf("last_sent_seq mismatch: %+v", fields["last_sent_seq"])
	}
}

func TestGetSessionStatusUnknownSession(t *testing.T) {
	gw := &Gateway{Registry: session.NewRegistry()}
	_, err := gw.GetSessionStatus(context.Background(), wrapperspb.String(hex.EncodeToString([]byte("not-a-real-session-id-32-bytes!"))))
	if err == nil {
		t.Fatalf("expected an error for unknown session")
	}
}
