package spack

import (
	"fmt"

	"github.com/nettask/nettask/pkg/wireerr"
)

// Metric is a collected set of field values for one task, keyed by field
// name. Values must be coercible to the FieldType their TaskDescriptor
// declares.
type Metric struct {
	Values map[string]any
}

// SerializeTaskMetric packs m into a compact positional SPACK encoding
// driven by desc: values are ordered by desc.Fields rather than repeating
// field names on the wire, and coerced/validated against each field's
// declared type before encoding.
func SerializeTaskMetric(m Metric, desc TaskDescriptor) ([]byte, error) {
	row := make([]any, len(desc.Fields))
	for i, f := range desc.Fields {
		v, ok := m.Values[f.Name]
		if !ok {
			if f.Required {
				return nil, fmt.Errorf("spack: metric missing required field %q: %w", f.Name, wireerr.ErrMalformedPayload)
			}
			row[i] = nil
			continue
		}
		coerced, err := coerceForWire(v, f.Type)
		if err != nil {
			return nil, fmt.Errorf("spack: metric field %q: %w", f.Name, err)
		}
		row[i] = coerced
	}
	b, err := SerializeSPACK(row)
	if err != nil {
		return nil, fmt.Errorf("spack: serialize task metric: %w", err)
	}
	return b, nil
}

// DeserializeTaskMetric decodes SPACK bytes into a Metric, using desc to
// interpret each positional slot's field type. It fails with
// ErrMalformedPayload if the row width doesn't match desc.
func DeserializeTaskMetric(b []byte, desc TaskDescriptor) (Metric, error) {
	var row []any
	if err := DeserializeSPACK(b, &row); err != nil {
		return Metric{}, fmt.Errorf("spack: deserialize task metric: %w", err)
	}
	if len(row) != len(desc.Fields) {
		return Metric{}, fmt.Errorf("spack: metric row width %d != schema width %d: %w", len(row), len(desc.Fields), wireerr.ErrMalformedPayload)
	}
	vals := make(map[string]any, len(row))
	for i, f := range desc.Fields {
		if row[i] == nil {
			continue
		}
		v, err := coerceFromWire(row[i], f.Type)
		if err != nil {
			return Metric{}, fmt.Errorf("spack: metric field %q: %w", f.Name, err)
		}
		vals[f.Name] = v
	}
	return Metric{Values: vals}, nil
}

// coerceForWire validates v against t and normalizes it to the Go type CBOR
// will encode most compactly (e.g. timestamps as int64).
func coerceForWire(v any, t FieldType) (any, error) {
	switch t {
	case FieldString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T: %w", v, wireerr.ErrMalformedPayload)
		}
		return s, nil
	case FieldInt64, FieldTimestamp:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case uint64:
			return int64(n), nil
		default:
			return nil, fmt.Errorf("expected integer, got %T: %w", v, wireerr.ErrMalformedPayload)
		}
	case FieldFloat64:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		default:
			return nil, fmt.Errorf("expected float64, got %T: %w", v, wireerr.ErrMalformedPayload)
		}
	case FieldBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T: %w", v, wireerr.ErrMalformedPayload)
		}
		return b, nil
	case FieldBytes:
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("expected []byte, got %T: %w", v, wireerr.ErrMalformedPayload)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported field type %v: %w", t, wireerr.ErrMalformedPayload)
	}
}

// coerceFromWire converts a CBOR-decoded any (whose concrete numeric type
// depends on the decoder's choices) back into the Go type matching t.
func coerceFromWire(v any, t FieldType) (any, error) {
	switch t {
	case FieldString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string on wire, got %T: %w", v, wireerr.ErrMalformedPayload)
		}
		return s, nil
	case FieldInt64, FieldTimestamp:
		switch n := v.(type) {
		case int64:
			return n, nil
		case uint64:
			return int64(n), nil
		case float64:
			return int64(n), nil
		default:
			return nil, fmt.Errorf("expected integer on wire, got %T: %w", v, wireerr.ErrMalformedPayload)
		}
	case FieldFloat64:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		case uint64:
			return float64(n), nil
		default:
			return nil, fmt.Errorf("expected float64 on wire, got %T: %w", v, wireerr.ErrMalformedPayload)
		}
	case FieldBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool on wire, got %T: %w", v, wireerr.ErrMalformedPayload)
		}
		return b, nil
	case FieldBytes:
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("expected bytes on wire, got %T: %w", v, wireerr.ErrMalformedPayload)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported field type %v: %w", t, wireerr.ErrMalformedPayload)
	}
}
