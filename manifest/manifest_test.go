package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadManifest(t *testing.T) {
	// Create a temporary directory with an interrogate.toml
	dir := t.TempDir()
	tomlContent := `
[project]
name = "scene-bindings"
library = "libscene"

[input]
files = ["decls/*.cue"]

[generate]
convert-strings = false
manage-refcounts = true
assert-checks = true
true-names = true
export-names = true
build-database = true
bindings = ["c"]

[output]
dir = "out"
wrappers = "scene_wrap.cxx"
prototypes = "scene_wrap.h"
database = "scene.cbor"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "scene-bindings" {
		t.Errorf("project name = %q, want scene-bindings", m.Project.Name)
	}
	if m.Project.Library != "libscene" {
		t.Errorf("project library = %q, want libscene", m.Project.Library)
	}
	want := GenerationConfig{
		ConvertStrings:  false,
		ManageRefCounts: true,
		AssertChecks:    true,
		TrueNames:       true,
		ExportNames:     true,
		BuildDatabase:   true,
		Bindings:        []string{"c"},
	}
	if diff := cmp.Diff(want, m.Generate); diff != "" {
		t.Errorf("generate config mismatch (-want +got):\n%s", diff)
	}
	if got := m.OutputPath(m.Output.Database); got != filepath.Join(dir, "out", "scene.cbor") {
		t.Errorf("database path = %q", got)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	m, err := Parse([]byte(`
[project]
name = "minimal"
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if diff := cmp.Diff(DefaultGenerationConfig(), m.Generate); diff != "" {
		t.Errorf("default generate config (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(DefaultOutput(), m.Output); diff != "" {
		t.Errorf("default output (-want +got):\n%s", diff)
	}
}

func TestParseUnknownKey(t *testing.T) {
	_, err := Parse([]byte(`
[generate]
convert-string = true
`))
	if err == nil || !strings.Contains(err.Error(), "generate.convert-string") {
		t.Errorf("expected unknown key error, got %v", err)
	}
}

func TestValidateReportsEverything(t *testing.T) {
	m := &Manifest{
		Generate: GenerationConfig{BuildDatabase: true, Bindings: []string{"python"}},
		Output:   Output{Database: "meta.json"},
	}
	err := m.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{
		"project.name",
		"input.files",
		"output.wrappers",
		"output.prototypes",
		"output.database",
		`unknown binding "python"`,
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("validation error does not mention %q:\n%v", want, err)
		}
	}
}

func TestFindAndLoad(t *testing.T) {
	// Create nested directory structure
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	tomlContent := `[project]
name = "found-project"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Project.Name != "found-project" {
		t.Errorf("project name = %q, want found-project", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no interrogate.toml exists")
	}
}

func TestInputFiles(t *testing.T) {
	dir := t.TempDir()
	declDir := filepath.Join(dir, "decls")
	if err := os.MkdirAll(declDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"b.cue", "a.cue", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(declDir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	m := &Manifest{Dir: dir, Input: Input{Files: []string{"decls/*.cue"}}}
	files, err := m.InputFiles()
	if err != nil {
		t.Fatalf("InputFiles: %v", err)
	}
	want := []string{filepath.Join(declDir, "a.cue"), filepath.Join(declDir, "b.cue")}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("input files (-want +got):\n%s", diff)
	}

	m.Input.Files = []string{"missing/*.cue"}
	if _, err := m.InputFiles(); err == nil {
		t.Error("expected error for pattern matching nothing")
	}
}

func TestDatabaseFormat(t *testing.T) {
	tests := map[string]string{
		"meta.cbor":   "cbor",
		"meta.db":     "sqlite",
		"meta.SQLite": "sqlite",
		"meta.json":   "",
	}
	for path, want := range tests {
		if got := DatabaseFormat(path); got != want {
			t.Errorf("DatabaseFormat(%q) = %q, want %q", path, got, want)
		}
	}
}
