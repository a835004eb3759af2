// Package transport picks between the concrete datagram-oriented channel
// implementations (pkg/transport/udp, pkg/transport/quic) by name, so
// cmd/nettask-agent and cmd/nettask-server don't each need their own
// switch on config.*Config.Transport.
package transport

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/nettask/nettask/pkg/config"
	"github.com/nettask/nettask/pkg/transport/quic"
	"github.com/nettask/nettask/pkg/transport/udp"
)

// Channel is the datagram-oriented collaborator pkg/protocol treats as
// external (spec.md §1): a whole frame goes in, a whole frame comes out.
type Channel interface {
	Send(frame []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// Dial opens a Channel to address over the named transport ("udp" or
// "quic"; "" defaults to "udp").
func Dial(ctx context.Context, kind, address string) (Channel, error) {
	switch kind {
	case "", "udp":
		c, err := udp.Dial(address)
		if err != nil {
			return nil, err
		}
		return dialedUDP{c: c}, nil
	case "quic":
		c, err := quic.Dial(ctx, address)
		if err != nil {
			return nil, err
		}
		return quicChannel{c: c}, nil
	default:
		return nil, fmt.Errorf("transport: unknown kind %q", kind)
	}
}

// DialWithBackoff is Dial with retries: on failure it sleeps for an
// exponentially growing, jittered interval (bounded by net.DialBackoffMaxMS)
// and tries again, until it succeeds or ctx is done.
func DialWithBackoff(ctx context.Context, kind, address string, net config.NetConfig) (Channel, error) {
	initial := time.Duration(net.DialBackoffInitialMS) * time.Millisecond
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	maxBackoff := time.Duration(net.DialBackoffMaxMS) * time.Millisecond
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}
	jitter := time.Duration(net.DialBackoffJitterMS) * time.Millisecond

	backoff := initial
	for {
		ch, err := Dial(ctx, kind, address)
		if err == nil {
			return ch, nil
		}
		zap.L().Warn("dial failed, retrying", zap.String("kind", kind), zap.String("address", address), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transport: dial %s: %w", address, ctx.Err())
		case <-time.After(withJitter(backoff, jitter)):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func withJitter(d, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return d
	}
	return d + time.Duration(rand.Int63n(int64(jitter)))
}

type dialedUDP struct{ c *udp.Channel }

func (d dialedUDP) Send(frame []byte) error { return d.c.Send(frame) }
func (d dialedUDP) Receive(ctx context.Context) ([]byte, error) {
	frame, _, err := d.c.Receive()
	return frame, err
}
func (d dialedUDP) Close() error { return d.c.Close() }

type quicChannel struct{ c *quic.Channel }

func (q quicChannel) Send(frame []byte) error                     { return q.c.Send(frame) }
func (q quicChannel) Receive(ctx context.Context) ([]byte, error) { return q.c.Receive(ctx) }
func (q quicChannel) Close() error                                 { return q.c.Close() }
