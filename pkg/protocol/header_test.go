package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nettask/nettask/pkg/buffer"
	"github.com/nettask/nettask/pkg/wireerr"
)

func fakeSessionID() []byte {
	sid := make([]byte, HashLen)
	for i := range sid {
		sid[i] = byte(i)
	}
	return sid
}

func TestPublicHeaderRoundtrip(t *testing.T) {
	pub := PublicHeader{SessionID: fakeSessionID(), CryptoMark: CryptoMarkCleartext, PayloadSize: 42}
	w := buffer.NewWriter()
	if err := serializePublicHeader(w, pub); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	b := w.Finish()
	if !bytes.Equal(b[0:4], []byte(Signature)) {
		t.Fatalf("signature mismatch: %q", b[0:4])
	}

	r := buffer.NewReader(b)
	ok, err := VerifySignature(r)
	if err != nil || !ok {
		t.Fatalf("verify signature: ok=%v err=%v", ok, err)
	}
	out, err := DeserializePublicHeader(r)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if !bytes.Equal(out.SessionID, pub.SessionID) || out.CryptoMark != pub.CryptoMark || out.PayloadSize != pub.PayloadSize {
		t.Fatalf("header mismatch: %+v vs %+v", out, pub)
	}
}

func TestInvalidCryptoMark(t *testing.T) {
	w := buffer.NewWriter()
	w.WriteRaw([]byte(Signature))
	w.WriteRaw(fakeSessionID())
	w.WriteRaw([]byte("XX"))
	w.WriteUint32(0)
	r := buffer.NewReader(w.Finish())
	if ok, err := VerifySignature(r); err != nil || !ok {
		t.Fatalf("verify signature: %v %v", ok, err)
	}
	if _, err := DeserializePublicHeader(r); !errors.Is(err, wireerr.ErrInvalidCryptoMark) {
		t.Fatalf("expected ErrInvalidCryptoMark, got %v", err)
	}
}

func TestInvalidSignature(t *testing.T) {
	r := buffer.NewReader([]byte("XXXXrest"))
	ok, err := VerifySignature(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected signature mismatch")
	}
}

func TestInvalidVersion(t *testing.T) {
	pub := PublicHeader{SessionID: fakeSessionID(), CryptoMark: CryptoMarkCleartext, PayloadSize: 0}
	w := buffer.NewWriter()
	w.WriteUint32(2) // bad version
	w.WriteUint32(0)
	w.WriteUint32(0)
	w.WriteBool(false)
	w.WriteUint32(uint32(RequestRegister))
	r := buffer.NewReader(w.Finish())
	if _, err := DeserializePrivateHeader(r, pub); !errors.Is(err, wireerr.ErrInvalidVersion) {
		t.Fatalf("expected ErrInvalidVersion, got %v", err)
	}
}
