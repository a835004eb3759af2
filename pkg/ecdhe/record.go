package ecdhe

import (
	"fmt"

	"github.com/nettask/nettask/pkg/buffer"
	"github.com/nettask/nettask/pkg/wireerr"
)

// SerializeEncryptedMessage gives Record a self-describing byte form:
// u32 ivLen‖iv, u32 tagLen‖tag, u32 ciphertextLen‖ciphertext.
func SerializeEncryptedMessage(rec Record) []byte {
	w := buffer.NewWriter()
	w.WriteBytes(rec.IV)
	w.WriteBytes(rec.Tag)
	w.WriteBytes(rec.Ciphertext)
	return w.Finish()
}

// DeserializeEncryptedMessage parses the byte form produced by
// SerializeEncryptedMessage.
func DeserializeEncryptedMessage(b []byte) (Record, error) {
	r := buffer.NewReader(b)
	iv, err := r.ReadBytes()
	if err != nil {
		return Record{}, fmt.Errorf("ecdhe: deserialize record iv: %w", err)
	}
	tag, err := r.ReadBytes()
	if err != nil {
		return Record{}, fmt.Errorf("ecdhe: deserialize record tag: %w", err)
	}
	ct, err := r.ReadBytes()
	if err != nil {
		return Record{}, fmt.Errorf("ecdhe: deserialize record ciphertext: %w", err)
	}
	if r.Len() != 0 {
		return Record{}, fmt.Errorf("ecdhe: trailing bytes after record: %w", wireerr.ErrMalformedPayload)
	}
	return Record{IV: iv, Tag: tag, Ciphertext: ct}, nil
}
