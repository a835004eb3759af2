package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nettask/nettask/pkg/spack"
)

func TestLoadTaskSchemas(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.yaml")
	contents := `
tasks:
  - name: cpu-sample
    fields:
      - {name: usage, type: float64, required: true}
      - {name: ts, type: timestamp, required: true}
  - name: disk-sample
    fields:
      - {name: path, type: string, required: true}
      - {name: free_bytes, type: int64, required: false}
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := LoadTaskSchemas(path)
	if err != nil {
		t.Fatalf("LoadTaskSchemas: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 task schemas, got %d", len(got))
	}

	cpu, ok := got["cpu-sample"]
	if !ok {
		t.Fatalf("missing cpu-sample schema")
	}
	want := spack.TaskSchema{Name: "cpu-sample", Fields: []spack.FieldDef{
		{Name: "usage", Type: spack.FieldFloat64, Required: true},
		{Name: "ts", Type: spack.FieldTimestamp, Required: true},
	}}
	if !cpu.Equal(want) {
		t.Fatalf("cpu-sample schema mismatch: got %+v want %+v", cpu, want)
	}

	disk := got["disk-sample"]
	if disk.Fields[1].Required {
		t.Fatalf("disk-sample.free_bytes should not be required")
	}
}

func TestLoadTaskSchemasUnknownFieldType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.yaml")
	contents := `
tasks:
  - name: bogus
    fields:
      - {name: x, type: not-a-real-type, required: true}
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := LoadTaskSchemas(path); err == nil {
		t.Fatalf("expected an error for an unknown field type")
	}
}

func TestLoadTaskSchemasMissingFile(t *testing.T) {
	if _, err := LoadTaskSchemas(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
