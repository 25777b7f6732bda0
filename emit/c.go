package emit

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/chazu/interrogate/convert"
	"github.com/chazu/interrogate/decl"
	"github.com/chazu/interrogate/manifest"
	"github.com/chazu/interrogate/naming"
	"github.com/chazu/interrogate/overload"
	"github.com/chazu/interrogate/remap"
)

// CBinding emits plain C-callable wrapper functions: every receiver,
// argument and result crosses the boundary as a C type.
type CBinding struct {
	cfg   manifest.GenerationConfig
	table *convert.Table
}

// NewCBinding returns the C binding for cfg.
func NewCBinding(cfg manifest.GenerationConfig) *CBinding {
	return &CBinding{cfg: cfg, table: convert.NewTable(cfg)}
}

func (b *CBinding) Name() string { return "c" }

func (b *CBinding) RemapParameter(owner *decl.Struct, t decl.Type) convert.Conversion {
	return b.table.Remap(owner, t)
}

func (b *CBinding) SynthesizeThisParameter() bool { return true }
func (b *CBinding) SelfHandleType() decl.Type     { return nil }
func (b *CBinding) WrapGlobalFunctions() bool     { return true }
func (b *CBinding) WrapperNamePrefix() string     { return "_inC" }
func (b *CBinding) UniqueNamePrefix() string      { return "_inc" }

// Wrappable rejects extension methods and methods taking an explicit
// host self, neither of which has a C calling convention.
func (b *CBinding) Wrappable(r *remap.Remap) bool {
	return !r.Extension && !r.Flags.Has(remap.FlagExplicitSelf)
}

func (b *CBinding) DefaultConstructor(*decl.Struct) string { return "" }

func (b *CBinding) IndexError(w io.Writer, indent int, r *remap.Remap) {
	convert.Indent(w, indent)
	io.WriteString(w, "interrogate_index_error();\n")
	convert.Indent(w, indent)
	if r.ReturnsVoid() {
		io.WriteString(w, "return;\n")
	} else {
		io.WriteString(w, "return {};\n")
	}
}

func (b *CBinding) Diagnose(r *remap.Remap, msg string) {
	logger().Errorf("%s: %s", r, msg)
}

func (b *CBinding) WritePrologue(sink *Sink, library string) {
	banner := fmt.Sprintf("/*\n * C wrappers for %s.\n * Generated by interrogate. Do not edit.\n */\n\n", library)
	io.WriteString(&sink.Prototypes, banner)
	io.WriteString(&sink.Bodies, banner)
	io.WriteString(&sink.Bodies, "#include <algorithm>\n")
	if b.cfg.AssertChecks {
		io.WriteString(&sink.Bodies, "#include <cassert>\n")
	}
	if b.cfg.ConvertStrings {
		io.WriteString(&sink.Bodies, "#include <string>\n")
	}
	io.WriteString(&sink.Bodies, "\n")
}

// Prototype renders the wrapper declaration without storage class.
func (b *CBinding) Prototype(r *remap.Remap) string {
	params := make([]string, len(r.Params))
	for i, p := range r.Params {
		params[i] = decl.Declare(p.Conv.NewType(), naming.Placeholder(i))
	}
	return decl.Declare(r.Return.NewType(), r.WrapperName+"("+strings.Join(params, ", ")+")")
}

func (b *CBinding) header(r *remap.Remap) string {
	if b.cfg.ExportNames {
		return `extern "C" ` + b.Prototype(r)
	}
	return "static " + b.Prototype(r)
}

func (b *CBinding) EmitWrapper(sink *Sink, r *remap.Remap, obj *overload.Object) {
	header := b.header(r)
	fmt.Fprintf(&sink.Prototypes, "%s;\n", header)

	w := &sink.Bodies
	fmt.Fprintf(w, "/*\n * C wrapper for\n * %s\n */\n", r.Func.Prototype())
	fmt.Fprintf(w, "%s {\n", header)
	if b.cfg.AssertChecks && r.FirstTrueParam > 0 {
		fmt.Fprintf(w, "  assert(%s != nullptr);\n", naming.Placeholder(0))
	}
	expr := r.CallFunction(w, 2, remap.Call{
		ConvertResult: true,
		Sequence:      obj.IsSequence(),
		Hooks:         b,
	})
	if expr != "" && r.ManageRefCount {
		expr = b.manageReturn(w, 2, r, expr)
	}
	if expr != "" {
		fmt.Fprintf(w, "  return %s;\n", expr)
	}
	io.WriteString(w, "}\n\n")
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// manageReturn takes a reference on behalf of the caller.
func (b *CBinding) manageReturn(w io.Writer, indent int, r *remap.Remap, expr string) string {
	if !identifier.MatchString(expr) {
		convert.Indent(w, indent)
		fmt.Fprintf(w, "%s = %s;\n", decl.Declare(r.Return.NewType(), "refcount"), expr)
		expr = "refcount"
	}
	switch r.Kind {
	case remap.Constructor, remap.TypecastOperator, remap.TypecastMethod:
		convert.Indent(w, indent)
		fmt.Fprintf(w, "%s->ref();\n", expr)
	default:
		convert.Indent(w, indent)
		fmt.Fprintf(w, "if (%s != nullptr) {\n", expr)
		convert.Indent(w, indent+2)
		fmt.Fprintf(w, "%s->ref();\n", expr)
		convert.Indent(w, indent)
		io.WriteString(w, "}\n")
	}
	return expr
}
