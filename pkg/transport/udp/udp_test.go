package udp

import "testing"

func TestSendReceiveRoundtrip(t *testing.T) {
	server, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer server.Close()

	client, err := Dial(server.LocalAddr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	want := []byte("NTTK-frame-payload")
	if err := client.Send(want); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, addr, err := server.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("got %q want %q", got, want)
	}

	reply := []byte("reply-frame")
	if err := server.SendTo(reply, addr); err != nil {
		t.Fatalf("SendTo: %v", err)
	}

	got2, _, err := client.Receive()
	if err != nil {
		t.Fatalf("Receive on client: %v", err)
	}
	if string(got2) != string(reply) {
		t.Fatalf("got %q want %q", got2, reply)
	}
}

func TestSendToRejectsNonUDPAddr(t *testing.T) {
	server, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer server.Close()

	if err := server.SendTo([]byte("x"), fakeAddr{}); err == nil {
		t.Fatalf("expected an error for a non-UDP address")
	}
}

type fakeAddr struct{}

func (fakeAddr) Network() string { return "fake" }
func (fakeAddr) String() string  { return "fake-addr" }
