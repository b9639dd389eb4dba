package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

// --- Loader Tests ---

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()

	spec := `{
		"name": "from-file",
		"steps": [
			{"name": "wait", "type": "delay", "config": {"duration_sec": 1}}
		],
		"on_failure": {"name": "report", "type": "transform"}
	}`
	if err := os.WriteFile(filepath.Join(dir, "from-file.json"), []byte(spec), 0o644); err != nil {
		t.Fatal(err)
	}
	// Non-JSON files are ignored
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatal(err)
	}

	specs, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(specs) != 1 {
		t.Fatalf("expected 1 spec, got %d", len(specs))
	}
	if specs[0].Name != "from-file" {
		t.Errorf("expected name from-file, got %s", specs[0].Name)
	}
	if len(specs[0].Steps) != 1 || specs[0].Steps[0].Type != "delay" {
		t.Errorf("steps should be parsed, got %+v", specs[0].Steps)
	}
	if specs[0].OnFailure == nil || specs[0].OnFailure.Name != "report" {
		t.Error("on_failure should be parsed")
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
