package protocol

import (
	"fmt"

	"github.com/nettask/nettask/pkg/buffer"
	"github.com/nettask/nettask/pkg/ecdhe"
	"github.com/nettask/nettask/pkg/spack"
	"github.com/nettask/nettask/pkg/wireerr"
)

// SendMetricsDatagram carries one task's collected metric values, protected
// by the same double-encryption structure as PushSchemas (spec.md §4.4).
// Decoding the metric values requires the task descriptor bound to TaskID,
// since SPACK's positional metric encoding is only meaningful relative to a
// schema.
type SendMetricsDatagram struct {
	sessionID []byte
	private   PrivateHeader
	TaskID    string
	Metric    spack.Metric
}

// NewSendMetrics builds a SendMetrics datagram value.
func NewSendMetrics(sessionID []byte, seq, ack uint32, taskID string, metric spack.Metric) SendMetricsDatagram {
	return SendMetricsDatagram{
		sessionID: sessionID,
		private:   NewPrivateHeader(SendMetrics, seq, ack, false),
		TaskID:    taskID,
		Metric:    metric,
	}
}

func (d SendMetricsDatagram) SessionID() []byte      { return d.sessionID }
func (d SendMetricsDatagram) Private() PrivateHeader { return d.private }

// Serialize encodes and double-encrypts the datagram under session. desc
// must be the task descriptor for d.TaskID; it determines how d.Metric's
// values are packed.
func (d SendMetricsDatagram) Serialize(session *ecdhe.Session, desc spack.TaskDescriptor) ([]byte, error) {
	spackBytes, err := spack.SerializeTaskMetric(d.Metric, desc)
	if err != nil {
		return nil, fmt.Errorf("protocol: serialize task metric: %w", err)
	}
	iw := buffer.NewWriter()
	iw.WriteBytes([]byte(d.TaskID))
	iw.WriteBytes(spackBytes)

	outerEnc, err := sealEncrypted(session, d.private, iw.Finish())
	if err != nil {
		return nil, err
	}
	return assembleFrame(d.sessionID, CryptoMarkEncrypted, outerEnc)
}

// DeserializeSendMetrics opens the double-encryption envelope, reads the
// taskId, looks up its descriptor in taskConfig, and decodes the metric
// values. If taskId is absent from taskConfig, it fails with
// ErrUnknownTask without attempting to interpret the metric bytes.
func DeserializeSendMetrics(r *buffer.Reader, pub PublicHeader, session *ecdhe.Session, taskConfig map[string]spack.TaskDescriptor) (SendMetricsDatagram, error) {
	outerEnc, err := r.Read(r.Len())
	if err != nil {
		return SendMetricsDatagram{}, fmt.Errorf("protocol: read outer record: %w", wireerr.ErrTruncatedFrame)
	}
	priv, innerPlain, err := openEncrypted(session, pub, outerEnc)
	if err != nil {
		return SendMetricsDatagram{}, err
	}
	if priv.Type() != SendMetrics {
		return SendMetricsDatagram{}, fmt.Errorf("protocol: SendMetrics.Deserialize: %w", wireerr.ErrWrongType)
	}
	ir := buffer.NewReader(innerPlain)
	taskIDBytes, err := ir.ReadBytes()
	if err != nil {
		return SendMetricsDatagram{}, fmt.Errorf("protocol: read taskId: %w", wireerr.ErrMalformedPayload)
	}
	taskID := string(taskIDBytes)
	desc, ok := taskConfig[taskID]
	if !ok {
		return SendMetricsDatagram{}, fmt.Errorf("protocol: task %q: %w", taskID, wireerr.ErrUnknownTask)
	}
	spackBytes, err := ir.ReadBytes()
	if err != nil {
		return SendMetricsDatagram{}, fmt.Errorf("protocol: read metric body: %w", wireerr.ErrMalformedPayload)
	}
	metric, err := spack.DeserializeTaskMetric(spackBytes, desc)
	if err != nil {
		return SendMetricsDatagram{}, fmt.Errorf("protocol: decode task metric: %w", err)
	}
	return SendMetricsDatagram{sessionID: pub.SessionID, private: priv, TaskID: taskID, Metric: metric}, nil
}
