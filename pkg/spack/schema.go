package spack

import "fmt"

// FieldType enumerates the primitive field types a TaskSchema can declare
// for its metric values.
type FieldType uint8

const (
	FieldUnknown FieldType = iota
	FieldString
	FieldInt64
	FieldFloat64
	FieldBool
	FieldBytes
	FieldTimestamp // Unix milliseconds, carried as int64
)

// ParseFieldType converts a config-file field type name (as written in a
// task schema YAML file) to a FieldType. It accepts the same spellings
// FieldType.String() produces.
func ParseFieldType(s string) (FieldType, error) {
	switch s {
	case "string":
		return FieldString, nil
	case "int64":
		return FieldInt64, nil
	case "float64":
		return FieldFloat64, nil
	case "bool":
		return FieldBool, nil
	case "bytes":
		return FieldBytes, nil
	case "timestamp":
		return FieldTimestamp, nil
	default:
		return FieldUnknown, fmt.Errorf("spack: unknown field type %q", s)
	}
}

func (t FieldType) String() string {
	switch t {
	case FieldString:
		return "string"
	case FieldInt64:
		return "int64"
	case FieldFloat64:
		return "float64"
	case FieldBool:
		return "bool"
	case FieldBytes:
		return "bytes"
	case FieldTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// FieldDef describes one field of a TaskSchema.
type FieldDef struct {
	Name     string    `cbor:"name"`
	Type     FieldType `cbor:"type"`
	Required bool      `cbor:"required"`
}

// TaskSchema describes the shape of the metrics a task will report. It is
// distributed from agent to server via PushSchemas and is also the "task
// descriptor" a receiver needs to interpret a SendMetrics payload for a
// given taskId.
type TaskSchema struct {
	Name   string     `cbor:"name"`
	Fields []FieldDef `cbor:"fields"`
}

// TaskDescriptor is the task schema as consumed by the metric decoder. It is
// the same shape as TaskSchema: spec.md treats "task descriptor" and
// "task schema" as the same collaborator-supplied object, viewed from two
// operations (distribution vs. metric decoding).
type TaskDescriptor = TaskSchema

// Equal reports whether two schemas are identical field-for-field, in order.
// Used by tests asserting SPACK round-trip equality (spec.md S2).
func (s TaskSchema) Equal(o TaskSchema) bool {
	if s.Name != o.Name || len(s.Fields) != len(o.Fields) {
		return false
	}
	for i := range s.Fields {
		if s.Fields[i] != o.Fields[i] {
			return false
		}
	}
	return true
}

// PackedTaskSchemas is the packed-collection wire shape produced by
// PackTaskSchemas. SerializeSPACK/DeserializeSPACK operate on this type, not
// directly on a bare map, so a decoder can always tell a packed collection
// apart from other SPACK payloads.
type PackedTaskSchemas struct {
	Tasks map[string]TaskSchema `cbor:"tasks"`
}

// PackTaskSchemas packs an unpacked task-name→schema map for SPACK
// serialization.
func PackTaskSchemas(m map[string]TaskSchema) PackedTaskSchemas {
	return PackedTaskSchemas{Tasks: m}
}

// UnpackTaskSchemas unwraps a packed collection back into a plain map.
func UnpackTaskSchemas(p PackedTaskSchemas) map[string]TaskSchema {
	if p.Tasks == nil {
		return map[string]TaskSchema{}
	}
	return p.Tasks
}

// IsSPACKTaskCollection reports whether x is already a packed task
// collection (as opposed to a still-unpacked map[string]TaskSchema).
// PushSchemas serialization does not call it: SerializeTaskSchemas always
// takes a plain map and packs it itself.
func IsSPACKTaskCollection(x any) bool {
	_, ok := x.(PackedTaskSchemas)
	return ok
}

// SerializeTaskSchemas is the composed operation spec.md §4.4 step 1
// describes for PushSchemas: pack then serialize.
func SerializeTaskSchemas(m map[string]TaskSchema) ([]byte, error) {
	packed := PackTaskSchemas(m)
	b, err := SerializeSPACK(packed)
	if err != nil {
		return nil, fmt.Errorf("spack: serialize task schemas: %w", err)
	}
	return b, nil
}

// DeserializeTaskSchemas is the composed inverse: deserialize to a packed
// collection, then unpack.
func DeserializeTaskSchemas(b []byte) (map[string]TaskSchema, error) {
	var packed PackedTaskSchemas
	if err := DeserializeSPACK(b, &packed); err != nil {
		return nil, fmt.Errorf("spack: deserialize task schemas: %w", err)
	}
	return UnpackTaskSchemas(packed), nil
}
