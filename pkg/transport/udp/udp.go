// Package udp is the simplest concrete realization of the datagram-oriented
// channel the protocol core treats as an external collaborator: a thin
// wrapper over net.UDPConn that moves whole NetTask frames, with no stream
// multiplexing and no session bookkeeping of its own.
package udp

import (
	"fmt"
	"net"
)

// maxFrameSize bounds a single read; NetTask frames are headers plus one
// AEAD record and are not expected to approach typical UDP MTUs.
const maxFrameSize = 64 * 1024

// Channel is a UDP socket that reads and writes complete NetTask frames.
// Listen-mode channels learn the remote address per packet from recvfrom;
// dial-mode channels are connected to one fixed peer.
type Channel struct {
	conn *net.UDPConn
}

// Listen opens a Channel bound to address, for a server accepting frames
// from any agent.
func Listen(address string) (*Channel, error) {
	laddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("udp: resolve listen address: %w", err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("udp: listen: %w", err)
	}
	return &Channel{conn: conn}, nil
}

// Dial opens a Channel connected to address, for an agent talking to one
// server.
func Dial(address string) (*Channel, error) {
	raddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("udp: resolve dial address: %w", err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("udp: dial: %w", err)
	}
	return &Channel{conn: conn}, nil
}

// LocalAddr returns the channel's local address.
func (c *Channel) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// Send writes frame to the channel's connected peer. Only valid on a
// Dial'd channel.
func (c *Channel) Send(frame []byte) error {
	_, err := c.conn.Write(frame)
	if err != nil {
		return fmt.Errorf("udp: send: %w", err)
	}
	return nil
}

// SendTo writes frame to a specific remote address. Used by a Listen'd
// channel to reply to whichever agent it just read from.
func (c *Channel) SendTo(frame []byte, addr net.Addr) error {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return fmt.Errorf("udp: SendTo: address %v is not a *net.UDPAddr", addr)
	}
	_, err := c.conn.WriteToUDP(frame, udpAddr)
	if err != nil {
		return fmt.Errorf("udp: send to %s: %w", addr, err)
	}
	return nil
}

// Receive reads one frame and the address it arrived from. The returned
// slice is only valid until the next call to Receive.
func (c *Channel) Receive() ([]byte, net.Addr, error) {
	buf := make([]byte, maxFrameSize)
	n, addr, err := c.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("udp: receive: %w", err)
	}
	return buf[:n], addr, nil
}

// Close releases the underlying socket.
func (c *Channel) Close() error { return c.conn.Close() }
