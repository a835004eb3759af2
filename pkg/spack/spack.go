// Package spack implements SPACK, the compact self-describing binary object
// format carried by PushSchemas and SendMetrics datagrams. The core's only
// contract with SPACK is the codec interface in spec.md §6; this package
// supplies one concrete implementation of it, built on CBOR (RFC 8949),
// whose self-describing major-type tags are exactly the property spec.md
// asks for.
package spack

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/nettask/nettask/pkg/wireerr"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("spack: init encode mode: %v", err))
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("spack: init decode mode: %v", err))
	}
}

// SerializeSPACK encodes obj into its SPACK wire form.
func SerializeSPACK(obj any) ([]byte, error) {
	b, err := encMode.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("spack: serialize: %w", err)
	}
	return b, nil
}

// DeserializeSPACK decodes SPACK bytes into v, which must be a pointer.
// Any decode failure is reported as ErrMalformedPayload, matching spec.md's
// disposition for SPACK parse failures.
func DeserializeSPACK(b []byte, v any) error {
	if err := decMode.Unmarshal(b, v); err != nil {
		return fmt.Errorf("spack: deserialize: %w: %w", wireerr.ErrMalformedPayload, err)
	}
	return nil
}
