// Package emit turns a declaration unit into wrapper source text and
// database records. A Binding supplies the host-specific policy and
// emission; the Generator walks the unit in a fixed order so that output
// and index allocation are reproducible.
package emit

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/interrogate/manifest"
	"github.com/chazu/interrogate/overload"
	"github.com/chazu/interrogate/remap"
)

func logger() commonlog.Logger { return commonlog.GetLogger("interrogate.emit") }

// Binding is one host-language target.
type Binding interface {
	remap.Policy
	remap.Hooks

	Name() string
	// WrapGlobalFunctions asks for free functions to be wrapped.
	WrapGlobalFunctions() bool
	// WrapperNamePrefix and UniqueNamePrefix start the generated symbol
	// and lookup names.
	WrapperNamePrefix() string
	UniqueNamePrefix() string
	// Wrappable reports whether the binding can emit r at all.
	Wrappable(r *remap.Remap) bool

	// WritePrologue writes the leading text of every artifact.
	WritePrologue(sink *Sink, library string)
	// EmitWrapper writes the prototype and body of one wrapper. obj is
	// the object r belongs to, or nil.
	EmitWrapper(sink *Sink, r *remap.Remap, obj *overload.Object)
}

var bindings = map[string]func(manifest.GenerationConfig) Binding{
	"c": func(cfg manifest.GenerationConfig) Binding { return NewCBinding(cfg) },
}

// NewBinding returns the binding registered under name.
func NewBinding(name string, cfg manifest.GenerationConfig) (Binding, error) {
	ctor, ok := bindings[name]
	if !ok {
		names := make([]string, 0, len(bindings))
		for n := range bindings {
			names = append(names, n)
		}
		slices.Sort(names)
		return nil, fmt.Errorf("unknown binding %q (available: %s)", name, strings.Join(names, ", "))
	}
	return ctor(cfg), nil
}
