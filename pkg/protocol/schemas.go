package protocol

import (
	"fmt"

	"github.com/nettask/nettask/pkg/buffer"
	"github.com/nettask/nettask/pkg/ecdhe"
	"github.com/nettask/nettask/pkg/spack"
	"github.com/nettask/nettask/pkg/wireerr"
)

// PushSchemasDatagram carries a map from task name to task schema, protected
// by the double-encryption structure of spec.md §4.4. Its Serialize and
// Deserialize take the session by reference rather than storing it on the
// value, per spec.md §9's binding design note.
type PushSchemasDatagram struct {
	sessionID []byte
	private   PrivateHeader
	Schemas   map[string]spack.TaskSchema
}

// NewPushSchemas builds a PushSchemas datagram value.
func NewPushSchemas(sessionID []byte, seq, ack uint32, schemas map[string]spack.TaskSchema) PushSchemasDatagram {
	return PushSchemasDatagram{
		sessionID: sessionID,
		private:   NewPrivateHeader(PushSchemas, seq, ack, false),
		Schemas:   schemas,
	}
}

func (d PushSchemasDatagram) SessionID() []byte      { return d.sessionID }
func (d PushSchemasDatagram) Private() PrivateHeader { return d.private }

// Serialize encodes and double-encrypts the datagram under session.
func (d PushSchemasDatagram) Serialize(session *ecdhe.Session) ([]byte, error) {
	spackBytes, err := spack.SerializeTaskSchemas(d.Schemas)
	if err != nil {
		return nil, fmt.Errorf("protocol: serialize task schemas: %w", err)
	}
	iw := buffer.NewWriter()
	iw.WriteBytes(spackBytes)

	outerEnc, err := sealEncrypted(session, d.private, iw.Finish())
	if err != nil {
		return nil, err
	}
	return assembleFrame(d.sessionID, CryptoMarkEncrypted, outerEnc)
}

// DeserializePushSchemas opens the double-encryption envelope and unpacks
// the task schema map. Any SPACK parse failure surfaces as
// ErrMalformedPayload.
func DeserializePushSchemas(r *buffer.Reader, pub PublicHeader, session *ecdhe.Session) (PushSchemasDatagram, error) {
	outerEnc, err := r.Read(r.Len())
	if err != nil {
		return PushSchemasDatagram{}, fmt.Errorf("protocol: read outer record: %w", wireerr.ErrTruncatedFrame)
	}
	priv, innerPlain, err := openEncrypted(session, pub, outerEnc)
	if err != nil {
		return PushSchemasDatagram{}, err
	}
	if priv.Type() != PushSchemas {
		return PushSchemasDatagram{}, fmt.Errorf("protocol: PushSchemas.Deserialize: %w", wireerr.ErrWrongType)
	}
	ir := buffer.NewReader(innerPlain)
	spackBytes, err := ir.ReadBytes()
	if err != nil {
		return PushSchemasDatagram{}, fmt.Errorf("protocol: read spack body: %w", wireerr.ErrMalformedPayload)
	}
	schemas, err := spack.DeserializeTaskSchemas(spackBytes)
	if err != nil {
		return PushSchemasDatagram{}, fmt.Errorf("protocol: unpack task schemas: %w", err)
	}
	return PushSchemasDatagram{sessionID: pub.SessionID, private: priv, Schemas: schemas}, nil
}
