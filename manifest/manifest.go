// Package manifest handles interrogate.toml project configuration.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
)

// FileName is the manifest file searched for by FindAndLoad.
const FileName = "interrogate.toml"

// Manifest represents an interrogate.toml project configuration.
type Manifest struct {
	Project  Project          `toml:"project"`
	Input    Input            `toml:"input"`
	Generate GenerationConfig `toml:"generate"`
	Output   Output           `toml:"output"`

	// Dir is the directory containing the interrogate.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name string `toml:"name"`
	// Library names the wrapped library; it seeds every wrapper's
	// library hash. Declaration files may also name it.
	Library string `toml:"library"`
}

// Input lists declaration files. Entries may be glob patterns.
type Input struct {
	Files []string `toml:"files"`
}

// Output configures where generated artifacts go.
type Output struct {
	Dir        string `toml:"dir"`
	Wrappers   string `toml:"wrappers"`
	Prototypes string `toml:"prototypes"`
	// Database is the metadata file. The extension selects the format:
	// ".cbor" for the canonical CBOR image, ".db" or ".sqlite" for SQLite.
	Database string `toml:"database"`
}

// DefaultOutput returns the output layout used when the manifest is silent.
func DefaultOutput() Output {
	return Output{
		Dir:        "generated",
		Wrappers:   "wrappers.cxx",
		Prototypes: "wrappers.h",
		Database:   "interrogate.db",
	}
}

// Load parses an interrogate.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes manifest text. Keys absent from the text keep their
// defaults.
func Parse(data []byte) (*Manifest, error) {
	m := Manifest{
		Generate: DefaultGenerationConfig(),
		Output:   DefaultOutput(),
	}
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find an interrogate.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// InputFiles expands the configured declaration files relative to the
// manifest directory. Glob patterns are expanded in lexical order; a
// pattern matching nothing is an error.
func (m *Manifest) InputFiles() ([]string, error) {
	var files []string
	for _, pattern := range m.Input.Files {
		full := m.resolve(pattern)
		matches, err := filepath.Glob(full)
		if err != nil {
			return nil, fmt.Errorf("bad input pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("input %q matches no files", pattern)
		}
		files = append(files, matches...)
	}
	return files, nil
}

// OutputPath returns the absolute path of a file in the output directory.
func (m *Manifest) OutputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(m.resolve(m.Output.Dir), name)
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// DatabaseFormat reports the format selected by the database extension:
// "cbor", "sqlite", or "" when unrecognized.
func DatabaseFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cbor":
		return "cbor"
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite"
	}
	return ""
}

// Validate reports every problem with the manifest at once.
func (m *Manifest) Validate() error {
	var result error
	if m.Project.Name == "" {
		result = multierror.Append(result, errors.New("project.name is required"))
	}
	if len(m.Input.Files) == 0 {
		result = multierror.Append(result, errors.New("input.files must list at least one declaration file"))
	}
	if m.Output.Wrappers == "" {
		result = multierror.Append(result, errors.New("output.wrappers must not be empty"))
	}
	if m.Output.Prototypes == "" {
		result = multierror.Append(result, errors.New("output.prototypes must not be empty"))
	}
	if m.Generate.BuildDatabase && DatabaseFormat(m.Output.Database) == "" {
		result = multierror.Append(result, fmt.Errorf("output.database %q: extension must be .cbor, .db or .sqlite", m.Output.Database))
	}
	if err := m.Generate.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}
