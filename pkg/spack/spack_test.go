package spack

import "testing"

func TestSerializeSPACKRoundtrip(t *testing.T) {
	in := map[string]any{"x": int64(1), "y": "z"}
	b, err := SerializeSPACK(in)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	var out map[string]any
	if err := DeserializeSPACK(b, &out); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if out["y"] != "z" {
		t.Fatalf("roundtrip mismatch: %#v", out)
	}
}

func TestTaskSchemasRoundtrip(t *testing.T) {
	cpu := TaskSchema{Name: "cpu", Fields: []FieldDef{
		{Name: "usage", Type: FieldFloat64, Required: true},
		{Name: "ts", Type: FieldTimestamp, Required: true},
	}}
	mem := TaskSchema{Name: "mem", Fields: []FieldDef{
		{Name: "bytes", Type: FieldInt64, Required: true},
	}}
	in := map[string]TaskSchema{"cpu": cpu, "mem": mem}

	b, err := SerializeTaskSchemas(in)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	out, err := DeserializeTaskSchemas(b)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(out))
	}
	if !out["cpu"].Equal(cpu) || !out["mem"].Equal(mem) {
		t.Fatalf("schema mismatch: %#v", out)
	}
}

func TestIsSPACKTaskCollection(t *testing.T) {
	packed := PackTaskSchemas(map[string]TaskSchema{"cpu": {Name: "cpu"}})
	if !IsSPACKTaskCollection(packed) {
		t.Fatalf("expected packed collection to be recognized")
	}
	if IsSPACKTaskCollection(map[string]TaskSchema{"cpu": {Name: "cpu"}}) {
		t.Fatalf("expected unpacked map to not be recognized as packed")
	}
}

func TestTaskMetricRoundtrip(t *testing.T) {
	desc := TaskDescriptor{Name: "cpu", Fields: []FieldDef{
		{Name: "usage", Type: FieldFloat64, Required: true},
		{Name: "ts", Type: FieldTimestamp, Required: true},
	}}
	m := Metric{Values: map[string]any{"usage": 0.42, "ts": int64(1_700_000_000)}}

	b, err := SerializeTaskMetric(m, desc)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	out, err := DeserializeTaskMetric(b, desc)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if out.Values["usage"].(float64) != 0.42 || out.Values["ts"].(int64) != 1_700_000_000 {
		t.Fatalf("metric mismatch: %#v", out.Values)
	}
}

func TestTaskMetricMissingRequiredField(t *testing.T) {
	desc := TaskDescriptor{Name: "cpu", Fields: []FieldDef{
		{Name: "usage", Type: FieldFloat64, Required: true},
	}}
	m := Metric{Values: map[string]any{}}
	if _, err := SerializeTaskMetric(m, desc); err == nil {
		t.Fatalf("expected error for missing required field")
	}
}

func TestTaskMetricOptionalFieldOmitted(t *testing.T) {
	desc := TaskDescriptor{Name: "cpu", Fields: []FieldDef{
		{Name: "usage", Type: FieldFloat64, Required: true},
		{Name: "note", Type: FieldString, Required: false},
	}}
	m := Metric{Values: map[string]any{"usage": 1.0}}
	b, err := SerializeTaskMetric(m, desc)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	out, err := DeserializeTaskMetric(b, desc)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if _, present := out.Values["note"]; present {
		t.Fatalf("expected omitted optional field to stay absent")
	}
}
