// Package ecdhe implements the ECDHE collaborator referenced by contract in
// the protocol specification: ephemeral X25519 key agreement bootstrapped by
// a pre-shared secret, producing two independently-keyed AEAD contexts (an
// "envelope" context protecting a datagram's private header and an
// "encrypt" context protecting its application body).
package ecdhe

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"github.com/nettask/nettask/pkg/wireerr"
)

// HashLen is the byte length of the key-agreement hash output; it fixes the
// wire width of a session id (spec.md's HASH_LEN).
const HashLen = sha256.Size

const (
	labelEnvelope = "nettask-envelope-v1"
	labelEncrypt  = "nettask-encrypt-v1"
	labelProof    = "nettask-challenge-proof-v1"
)

// KeyPair is an ephemeral X25519 keypair.
type KeyPair struct {
	Private [32]byte
	Public  [32]byte
}

// Session holds one peer's side of an ECDHE key agreement plus, once
// established, the two derived AEAD contexts. A Session is owned by exactly
// one logical peer at a time; concurrent calls on the same Session must be
// serialized by the caller (see spec.md §5).
type Session struct {
	mu sync.Mutex

	local      KeyPair
	haveLocal  bool
	peerPublic [32]byte

	envelopeAEAD cipher.AEAD
	encryptAEAD  cipher.AEAD
	proof        []byte
	established  bool

	envelopeCounter uint64
	encryptCounter  uint64
}

// New returns an unestablished Session. Call GenerateKeyPair before any
// handshake message is built.
func New() *Session { return &Session{} }

// GenerateKeyPair creates a fresh ephemeral X25519 keypair for this session
// and returns it. The public half is what gets carried on the wire as pk_A
// or pk_S.
func (s *Session) GenerateKeyPair() (KeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kp KeyPair
	if _, err := rand.Read(kp.Private[:]); err != nil {
		return KeyPair{}, fmt.Errorf("ecdhe: generate key pair: %w", err)
	}
	// No explicit clamping here: curve25519.X25519 clamps the scalar
	// internally per RFC 7748, and the derivation path below uses X25519
	// with the same raw private bytes.
	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return KeyPair{}, fmt.Errorf("ecdhe: derive public key: %w", err)
	}
	copy(kp.Public[:], pub)
	s.local = kp
	s.haveLocal = true
	return kp, nil
}

// PublicKey returns the local public key, if generated.
func (s *Session) PublicKey() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.haveLocal {
		return nil
	}
	out := make([]byte, 32)
	copy(out, s.local.Public[:])
	return out
}

// DeriveSharedSecret completes the key agreement: it computes the X25519
// shared point with peerPublicKey, mixes in the pre-shared secret, salt, and
// the handshake challenge transcript via HKDF-SHA256, and derives the
// envelope and encrypt AEAD contexts plus a deterministic challenge proof.
// Both peers call this with the same four inputs (the shared point is
// symmetric under X25519, challenge and salt are exchanged in the clear
// during the handshake, and preSharedSecret is already held by both peers
// out of band), so ChallengeProof() yields matching
// bytes on both sides without a further round trip. After this call,
// Envelope/OpenEnvelope/Encrypt/Decrypt are usable.
func (s *Session) DeriveSharedSecret(peerPublicKey, salt, challengeResponse, preSharedSecret []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.haveLocal {
		return fmt.Errorf("ecdhe: derive shared secret: %w", wireerr.ErrNotLinked)
	}
	if len(peerPublicKey) != 32 {
		return fmt.Errorf("ecdhe: peer public key must be 32 bytes, got %d", len(peerPublicKey))
	}
	copy(s.peerPublic[:], peerPublicKey)

	point, err := curve25519.X25519(s.local.Private[:], s.peerPublic[:])
	if err != nil {
		return fmt.Errorf("ecdhe: x25519: %w", err)
	}

	ikm := make([]byte, 0, len(point)+len(preSharedSecret)+len(challengeResponse))
	ikm = append(ikm, point...)
	ikm = append(ikm, preSharedSecret...)
	ikm = append(ikm, challengeResponse...)

	envKey, err := hkdfExpand(ikm, salt, labelEnvelope)
	if err != nil {
		return err
	}
	encKey, err := hkdfExpand(ikm, salt, labelEncrypt)
	if err != nil {
		return err
	}

	s.envelopeAEAD, err = chacha20poly1305.New(envKey)
	if err != nil {
		return fmt.Errorf("ecdhe: envelope aead: %w", err)
	}
	s.encryptAEAD, err = chacha20poly1305.New(encKey)
	if err != nil {
		return fmt.Errorf("ecdhe: encrypt aead: %w", err)
	}
	proof, err := hkdfExpand(ikm, salt, labelProof)
	if err != nil {
		return err
	}
	s.proof = proof
	s.established = true
	return nil
}

// ChallengeProof returns the deterministic proof-of-derivation value
// computed from the same inputs as the envelope/encrypt keys. The agent
// sends it back as the handshake's challengeResponse; the server compares
// it against its own ChallengeProof() byte-for-byte.
func (s *Session) ChallengeProof() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.proof))
	copy(out, s.proof)
	return out
}

// Established reports whether DeriveSharedSecret has completed.
func (s *Session) Established() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.established
}

func hkdfExpand(ikm, salt []byte, label string) ([]byte, error) {
	r := hkdf.New(sha256.New, ikm, salt, []byte(label))
	out := make([]byte, chacha20poly1305.KeySize)
	if _, err := r.Read(out); err != nil {
		return nil, fmt.Errorf("ecdhe: hkdf expand %s: %w", label, err)
	}
	return out, nil
}

// Record is the wire-agnostic result of an AEAD seal: an IV (nonce), an
// authentication tag, and the ciphertext. SerializeEncryptedMessage and
// DeserializeEncryptedMessage give it a concrete byte form (record.go).
type Record struct {
	IV         []byte
	Tag        []byte
	Ciphertext []byte
}

// Envelope seals plain under the envelope AEAD context, binding the
// datagram's PrivateHeader (included in plain by the caller) to the session.
func (s *Session) Envelope(plain []byte) (Record, error) {
	return s.seal(plain, &s.envelopeCounter, func() cipher.AEAD { return s.envelopeAEAD })
}

// OpenEnvelope opens a Record produced by Envelope.
func (s *Session) OpenEnvelope(rec Record) ([]byte, error) {
	return s.open(rec, func() cipher.AEAD { return s.envelopeAEAD })
}

// Encrypt seals plain under the encrypt AEAD context, used for the
// application body nested inside an envelope.
func (s *Session) Encrypt(plain []byte) (Record, error) {
	return s.seal(plain, &s.encryptCounter, func() cipher.AEAD { return s.encryptAEAD })
}

// Decrypt opens a Record produced by Encrypt.
func (s *Session) Decrypt(rec Record) ([]byte, error) {
	return s.open(rec, func() cipher.AEAD { return s.encryptAEAD })
}

func (s *Session) seal(plain []byte, counter *uint64, aead func() cipher.AEAD) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.established {
		return Record{}, fmt.Errorf("ecdhe: seal: %w", wireerr.ErrNotLinked)
	}
	a := aead()
	nonce := make([]byte, a.NonceSize())
	binary.BigEndian.PutUint64(nonce[a.NonceSize()-8:], *counter)
	*counter++

	sealed := a.Seal(nil, nonce, plain, nil)
	tagStart := len(sealed) - a.Overhead()
	rec := Record{
		IV:         nonce,
		Tag:        append([]byte(nil), sealed[tagStart:]...),
		Ciphertext: append([]byte(nil), sealed[:tagStart]...),
	}
	return rec, nil
}

func (s *Session) open(rec Record, aead func() cipher.AEAD) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.established {
		return nil, fmt.Errorf("ecdhe: open: %w", wireerr.ErrNotLinked)
	}
	a := aead()
	sealed := make([]byte, 0, len(rec.Ciphertext)+len(rec.Tag))
	sealed = append(sealed, rec.Ciphertext...)
	sealed = append(sealed, rec.Tag...)
	plain, err := a.Open(nil, rec.IV, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("ecdhe: open: %w", wireerr.ErrCryptoFailure)
	}
	return plain, nil
}
