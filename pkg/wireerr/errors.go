// Package wireerr defines the typed error taxonomy shared by the datagram
// core, the ECDHE session, and the SPACK codec.
package wireerr

import "errors"

// Sentinel errors, one per row of the error taxonomy. Callers should use
// errors.Is against these; wrapped errors carry additional context via
// fmt.Errorf("...: %w", ...).
var (
	// ErrInvalidSignature: the first 4 bytes of a frame are not "NTTK".
	// The frame is not ours; the caller should drop it silently and leave
	// the session (if any) unaffected.
	ErrInvalidSignature = errors.New("nettask: invalid signature")

	// ErrTruncatedFrame: a positional read ran past the end of the buffer.
	ErrTruncatedFrame = errors.New("nettask: truncated frame")

	// ErrInvalidCryptoMark: cryptoMark is neither "CC" nor "NC".
	ErrInvalidCryptoMark = errors.New("nettask: invalid crypto mark")

	// ErrInvalidVersion: PrivateHeader.version != 1.
	ErrInvalidVersion = errors.New("nettask: invalid version")

	// ErrWrongType: a variant's Deserialize was invoked against a
	// PrivateHeader carrying a different datagram type.
	ErrWrongType = errors.New("nettask: wrong datagram type")

	// ErrCryptoFailure: an AEAD open or seal failed.
	ErrCryptoFailure = errors.New("nettask: crypto failure")

	// ErrMalformedPayload: a SPACK parse failed, or length prefixes were
	// inconsistent with the remaining buffer.
	ErrMalformedPayload = errors.New("nettask: malformed payload")

	// ErrUnknownTask: a metric referenced a taskId absent from the
	// receiver's task descriptor map.
	ErrUnknownTask = errors.New("nettask: unknown task")

	// ErrNotLinked: an encrypted variant was serialized or deserialized
	// without a bound ECDHE session. Programmer error.
	ErrNotLinked = errors.New("nettask: datagram not linked to a session")
)
