package ecdhe

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nettask/nettask/pkg/wireerr"
)

func establishedPair(t *testing.T) (*Session, *Session) {
	t.Helper()
	a := New()
	s := New()
	kpA, err := a.GenerateKeyPair()
	if err != nil {
		t.Fatalf("gen A: %v", err)
	}
	kpS, err := s.GenerateKeyPair()
	if err != nil {
		t.Fatalf("gen S: %v", err)
	}
	psk := []byte("pre-shared-secret")
	salt := []byte("salt-value")
	challenge := []byte("challenge-response")

	if err := a.DeriveSharedSecret(kpS.Public[:], salt, challenge, psk); err != nil {
		t.Fatalf("derive A: %v", err)
	}
	if err := s.DeriveSharedSecret(kpA.Public[:], salt, challenge, psk); err != nil {
		t.Fatalf("derive S: %v", err)
	}
	return a, s
}

func TestDeriveSharedSecretSymmetric(t *testing.T) {
	a, s := establishedPair(t)

	rec, err := a.Encrypt([]byte("hello server"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	plain, err := s.Decrypt(rec)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(plain, []byte("hello server")) {
		t.Fatalf("plain mismatch: %q", plain)
	}
}

func TestEnvelopeAndEncryptAreIndependentContexts(t *testing.T) {
	a, s := establishedPair(t)

	plain := []byte("shared plaintext")
	envRec, err := a.Envelope(plain)
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	// Opening an envelope record through the encrypt context must fail:
	// the two contexts are independently keyed.
	if _, err := s.Decrypt(envRec); err == nil {
		t.Fatalf("expected cross-context open to fail")
	}
	opened, err := s.OpenEnvelope(envRec)
	if err != nil {
		t.Fatalf("open envelope: %v", err)
	}
	if !bytes.Equal(opened, plain) {
		t.Fatalf("envelope roundtrip mismatch")
	}
}

func TestRecordSerializeRoundtrip(t *testing.T) {
	a, s := establishedPair(t)
	rec, err := a.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	b := SerializeEncryptedMessage(rec)
	rec2, err := DeserializeEncryptedMessage(b)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	plain, err := s.Decrypt(rec2)
	if err != nil {
		t.Fatalf("decrypt after roundtrip: %v", err)
	}
	if string(plain) != "payload" {
		t.Fatalf("plain mismatch: %q", plain)
	}
}

func TestTamperedCiphertextFailsOpen(t *testing.T) {
	a, s := establishedPair(t)
	rec, err := a.Encrypt([]byte("important"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	tampered := append([]byte(nil), rec.Ciphertext...)
	tampered[0] ^= 0xFF
	rec.Ciphertext = tampered

	if _, err := s.Decrypt(rec); err == nil {
		t.Fatalf("expected tamper to be detected")
	} else if !errors.Is(err, wireerr.ErrCryptoFailure) {
		t.Fatalf("expected ErrCryptoFailure, got %v", err)
	}
}

func TestUnestablishedSessionRejectsEncrypt(t *testing.T) {
	s := New()
	if _, err := s.GenerateKeyPair(); err != nil {
		t.Fatalf("gen: %v", err)
	}
	if _, err := s.Encrypt([]byte("x")); err == nil {
		t.Fatalf("expected NotLinked error before DeriveSharedSecret")
	}
}
