package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	d, err := Load(filepath.Join(t.TempDir(), "nepl.yaml"))
	if err != nil {
		t.Fatalf("Load returned error for a missing manifest: %v", err)
	}
	want := DefaultDefaults()
	if d != want {
		t.Fatalf("got %+v, want %+v", d, want)
	}
}

func TestLoadParsesManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nepl.yaml")
	content := "indent_width: 2\ntarget: wasi\nprofile: release\nentry: main\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Defaults{IndentWidth: 2, Target: "wasi", Profile: "release", Entry: "main"}
	if d != want {
		t.Fatalf("got %+v, want %+v", d, want)
	}
}

func TestLoadPartialManifestKeepsDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nepl.yaml")
	if err := os.WriteFile(path, []byte("target: wasi\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Target != "wasi" {
		t.Errorf("Target = %q, want wasi", d.Target)
	}
	if d.IndentWidth != DefaultDefaults().IndentWidth {
		t.Errorf("IndentWidth = %d, want default %d", d.IndentWidth, DefaultDefaults().IndentWidth)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nepl.yaml")
	if err := os.WriteFile(path, []byte("indent_width: [this is not a scalar\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed YAML, got nil")
	}
}

func TestOverrideAppliesOnlyNonZeroValues(t *testing.T) {
	base := Defaults{IndentWidth: 4, Target: "wasm", Profile: "default", Entry: "main"}
	got := base.Override("", "debug", "", 0)
	want := Defaults{IndentWidth: 4, Target: "wasm", Profile: "debug", Entry: "main"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestOverrideAppliesAllFields(t *testing.T) {
	base := DefaultDefaults()
	got := base.Override("wasi", "release", "start", 8)
	want := Defaults{IndentWidth: 8, Target: "wasi", Profile: "release", Entry: "start"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
