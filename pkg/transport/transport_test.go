package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nettask/nettask/pkg/config"
)

func TestDialUnknownKind(t *testing.T) {
	if _, err := Dial(context.Background(), "carrier-pigeon", "127.0.0.1:0"); err == nil {
		t.Fatalf("expected an error for an unknown transport kind")
	}
}

func TestDialDefaultsToUDP(t *testing.T) {
	ch, err := Dial(context.Background(), "", "127.0.0.1:9")
	if err != nil {
		t.Fatalf("Dial with empty kind should behave like udp: %v", err)
	}
	defer ch.Close()
}

func TestDialWithBackoffSucceedsWithoutRetry(t *testing.T) {
	ch, err := DialWithBackoff(context.Background(), "udp", "127.0.0.1:9", config.NetConfig{
		DialBackoffInitialMS: 500,
		DialBackoffMaxMS:     30000,
	})
	if err != nil {
		t.Fatalf("DialWithBackoff: %v", err)
	}
	defer ch.Close()
}

func TestDialWithBackoffStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := DialWithBackoff(ctx, "carrier-pigeon", "127.0.0.1:0", config.NetConfig{
		DialBackoffInitialMS: 10,
		DialBackoffMaxMS:     20,
		DialBackoffJitterMS:  5,
	})
	if err == nil {
		t.Fatalf("expected an error once the context deadline passes")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}
