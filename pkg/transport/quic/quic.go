// Package quic is a second concrete realization of the datagram-oriented
// channel collaborator, built on QUIC's unreliable datagram extension
// (RFC 9221) rather than QUIC streams: NetTask frames are already
// self-contained and size-bounded, so there is no multiplexing to do and no
// reason to pay for a reliable stream's head-of-line blocking.
package quic

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"math/big"
	"net"
	"time"

	quicgo "github.com/quic-go/quic-go"
)

const nextProto = "nettask"

func datagramConfig() *quicgo.Config {
	return &quicgo.Config{EnableDatagrams: true}
}

// Listener accepts QUIC connections from agents, each of which becomes a
// Channel once accepted.
type Listener struct {
	l *quicgo.Listener
}

// Listen opens a Listener bound to address, generating an ephemeral
// self-signed certificate for the TLS handshake QUIC requires underneath.
func Listen(address string) (*Listener, error) {
	cert, err := selfSignedCert()
	if err != nil {
		return nil, fmt.Errorf("quic: generate self-signed cert: %w", err)
	}
	tlsConf := &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{nextProto},
		MinVersion:   tls.VersionTLS13,
	}
	l, err := quicgo.ListenAddr(address, tlsConf, datagramConfig())
	if err != nil {
		return nil, fmt.Errorf("quic: listen: %w", err)
	}
	return &Listener{l: l}, nil
}

// Addr returns the listener's local address.
func (l *Listener) Addr() net.Addr { return l.l.Addr() }

// Accept blocks until an agent connects and returns the resulting Channel.
func (l *Listener) Accept(ctx context.Context) (*Channel, error) {
	conn, err := l.l.Accept(ctx)
	if err != nil {
		return nil, fmt.Errorf("quic: accept: %w", err)
	}
	return &Channel{conn: conn}, nil
}

// Close stops accepting new connections.
func (l *Listener) Close() error { return l.l.Close() }

// Dial connects to a NetTask server at address. Certificate verification is
// skipped at the QUIC/TLS layer because peer authentication happens at the
// application layer, via the registration handshake's pre-shared secret.
func Dial(ctx context.Context, address string) (*Channel, error) {
	tlsConf := &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{nextProto},
		MinVersion:         tls.VersionTLS13,
	}
	conn, err := quicgo.DialAddr(ctx, address, tlsConf, datagramConfig())
	if err != nil {
		return nil, fmt.Errorf("quic: dial: %w", err)
	}
	return &Channel{conn: conn}, nil
}

// Channel carries whole NetTask frames as QUIC datagrams over one QUIC
// connection.
type Channel struct {
	conn quicgo.Connection
}

// Send transmits frame as a single unreliable QUIC datagram.
func (c *Channel) Send(frame []byte) error {
	if err := c.conn.SendDatagram(frame); err != nil {
		return fmt.Errorf("quic: send datagram: %w", err)
	}
	return nil
}

// Receive blocks until the next datagram arrives. The returned slice is
// only valid until the next call to Receive.
func (c *Channel) Receive(ctx context.Context) ([]byte, error) {
	b, err := c.conn.ReceiveDatagram(ctx)
	if err != nil {
		return nil, fmt.Errorf("quic: receive datagram: %w", err)
	}
	return b, nil
}

// RemoteAddr returns the address of the peer this channel is connected to.
func (c *Channel) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// Close tears down the QUIC connection.
func (c *Channel) Close() error { return c.conn.CloseWithError(0, "") }

// selfSignedCert generates a short-lived self-signed TLS certificate for
// local QUIC use. NetTask's own handshake is the actual authentication
// layer; this cert only satisfies QUIC's mandatory TLS underneath it.
func selfSignedCert() (tls.Certificate, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, err
	}
	tmpl := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}, nil
}
