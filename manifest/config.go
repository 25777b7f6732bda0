package manifest

import (
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
)

// KnownBindings lists the host bindings a run can emit.
var KnownBindings = []string{"c"}

// GenerationConfig holds the toggles of one generation run. It is a plain
// value: copy it, never share a pointer to one under modification.
type GenerationConfig struct {
	// ConvertStrings exposes string-like parameters and returns as the
	// host's atomic string.
	ConvertStrings bool `toml:"convert-strings"`
	// ManageRefCounts hands reference-counted returns to the host and
	// unwraps smart pointers to raw pointers.
	ManageRefCounts bool `toml:"manage-refcounts"`
	// AssertChecks emits null checks on receiver parameters.
	AssertChecks bool `toml:"assert-checks"`
	// TrueNames publishes wrappers under their sanitized C++ names instead
	// of hashed ones.
	TrueNames bool `toml:"true-names"`
	// ExportNames gives wrappers external linkage so a runtime can resolve
	// them by symbol name.
	ExportNames   bool     `toml:"export-names"`
	BuildDatabase bool     `toml:"build-database"`
	Bindings      []string `toml:"bindings"`
}

// DefaultGenerationConfig returns the toggles used when neither the
// manifest nor the command line says otherwise.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		ConvertStrings:  true,
		ManageRefCounts: true,
		BuildDatabase:   true,
		Bindings:        []string{"c"},
	}
}

// HasBinding reports whether the named binding is enabled.
func (c GenerationConfig) HasBinding(name string) bool {
	return slices.Contains(c.Bindings, name)
}

// Validate checks the binding list.
func (c GenerationConfig) Validate() error {
	var result error
	if len(c.Bindings) == 0 {
		result = multierror.Append(result, fmt.Errorf("generate.bindings must name at least one of %v", KnownBindings))
	}
	for _, b := range c.Bindings {
		if !slices.Contains(KnownBindings, b) {
			result = multierror.Append(result, fmt.Errorf("generate.bindings: unknown binding %q", b))
		}
	}
	return result
}
