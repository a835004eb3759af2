package quic

import (
	"context"
	"testing"
	"time"
)

func TestSendReceiveRoundtrip(t *testing.T) {
	l, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	acceptErr := make(chan error, 1)
	serverCh := make(chan *Channel, 1)
	go func() {
		ch, err := l.Accept(ctx)
		if err != nil {
			acceptErr <- err
			return
		}
		serverCh <- ch
		acceptErr <- nil
	}()

	client, err := Dial(ctx, l.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if err := <-acceptErr; err != nil {
		t.Fatalf("Accept: %v", err)
	}
	server := <-serverCh
	defer server.Close()

	want := []byte("NTTK-quic-frame")
	if err := client.Send(want); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, err := server.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("got %q want %q", got, want)
	}

	reply := []byte("quic-reply")
	if err := server.Send(reply); err != nil {
		t.Fatalf("server Send: %v", err)
	}
	got2, err := client.Receive(ctx)
	if err != nil {
		t.Fatalf("client Receive: %v", err)
	}
	if string(got2) != string(reply) {
		t.Fatalf("got %q want %q", got2, reply)
	}
}
