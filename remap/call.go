package remap

import (
	"fmt"
	"io"
	"strings"

	"github.com/chazu/interrogate/convert"
	"github.com/chazu/interrogate/decl"
	"github.com/chazu/interrogate/naming"
)

// Hooks are the binding-specific parts of call emission.
type Hooks interface {
	// DefaultConstructor returns the expression creating a default
	// instance of owner, or "" to use plain new.
	DefaultConstructor(owner *decl.Struct) string
	// IndexError writes the statements signalling an out-of-range index
	// and leaving the wrapper.
	IndexError(w io.Writer, indent int, r *Remap)
	// Diagnose reports a wrapper that cannot be emitted as classified.
	Diagnose(r *Remap, msg string)
}

// Call configures one rendering of a Remap's native call.
type Call struct {
	// Container is the receiver expression. When empty the receiver
	// parameter's expression is used.
	Container string
	// Args overrides the expressions of the leading parameters, indexed
	// like Remap.Params. Missing entries use the positional placeholders.
	Args []string
	// ConvertResult passes the result through the return conversion.
	ConvertResult bool
	// Sequence reports that the owning object follows the sequence
	// protocol, which requires bounds-checked integer indexing.
	Sequence bool
	Hooks    Hooks
}

func (c Call) paramExpr(n int) string {
	if n < len(c.Args) {
		return c.Args[n]
	}
	return naming.Placeholder(n)
}

func (r *Remap) container(c Call) string {
	if c.Container != "" {
		return c.Container
	}
	if r.FirstTrueParam > 0 {
		return c.paramExpr(0)
	}
	return "this"
}

// passParam renders the converted nth parameter.
func (r *Remap) passParam(c Call, n int) string {
	var b strings.Builder
	r.Params[n].Conv.PassParameter(&b, c.paramExpr(n))
	return b.String()
}

// CallFunction writes the statements of the native call and returns the
// expression the wrapper returns, or "" when it returns nothing.
func (r *Remap) CallFunction(w io.Writer, indent int, c Call) string {
	if c.Sequence && r.HasReceiver && r.NumArgs() > 0 &&
		(r.Flags.Has(FlagGetItemInt) || r.Flags.Has(FlagSetItemInt) || r.Flags.Has(FlagDelItemInt)) {
		index := c.paramExpr(r.FirstTrueParam)
		convert.Indent(w, indent)
		fmt.Fprintf(w, "if (%s < 0 || %s >= (%s)->size()) {\n", index, index, r.container(c))
		c.Hooks.IndexError(w, indent+2, r)
		convert.Indent(w, indent)
		io.WriteString(w, "}\n")
	}

	switch r.Kind {
	case Destructor:
		convert.Indent(w, indent)
		if r.Owner.IsRefCounted() {
			fmt.Fprintf(w, "unref_delete(%s);\n", r.container(c))
		} else {
			fmt.Fprintf(w, "delete %s;\n", r.container(c))
		}
		return ""

	case TypecastMethod:
		expr := fmt.Sprintf("(%s)(*%s)", r.Return.OrigType().Spelling(), r.container(c))
		return r.result(w, indent, c, expr)

	case TypecastOperator:
		src := r.container(c)
		if !r.HasReceiver {
			src = r.passParam(c, r.FirstTrueParam)
		}
		expr := fmt.Sprintf("(%s)%s", r.Return.OrigType().Spelling(), src)
		return r.result(w, indent, c, expr)

	case Constructor:
		return r.construct(w, indent, c)

	case AssignmentOperator:
		convert.Indent(w, indent)
		fmt.Fprintf(w, "%s;\n", r.CallString(c))
		recv := r.container(c)
		ret := r.result(w, indent, c, "*"+recv)
		// Staging through address-of undoes the dereference.
		if ret == "&(*"+recv+")" || ret == "&*"+recv {
			ret = recv
		}
		return ret

	case Getter:
		return r.result(w, indent, c, r.member(c))

	case Setter:
		convert.Indent(w, indent)
		target := r.member(c)
		src := r.passParam(c, len(r.Params)-1)
		if arr := decl.AsArray(r.Params[len(r.Params)-1].Conv.OrigType()); arr != nil && arr.Bound >= 0 {
			fmt.Fprintf(w, "std::copy(%s, %s + %d, %s);\n", src, src, arr.Bound, target)
		} else {
			fmt.Fprintf(w, "%s = %s;\n", target, src)
		}
		return ""
	}

	call := r.CallString(c)
	if r.Kind == ItemAssignmentOperator || r.ReturnsVoid() {
		convert.Indent(w, indent)
		fmt.Fprintf(w, "%s;\n", call)
		return ""
	}
	return r.result(w, indent, c, call)
}

func (r *Remap) result(w io.Writer, indent int, c Call, expr string) string {
	if !c.ConvertResult {
		return expr
	}
	return r.Return.ReturnExpr(r.Return.PrepareReturnExpr(w, indent, expr))
}

func (r *Remap) member(c Call) string {
	if r.HasReceiver {
		return "(" + r.container(c) + ")->" + r.Expression
	}
	return r.Expression
}

func (r *Remap) construct(w io.Writer, indent int, c Call) string {
	if r.ReturnsVoid() {
		c.Hooks.Diagnose(r, "constructor returns void")
		return ""
	}
	class := r.Owner.QualifiedName()

	if r.NumArgs() == 0 {
		if expr := c.Hooks.DefaultConstructor(r.Owner); expr != "" {
			return expr
		}
	}

	if r.Extension {
		convert.Indent(w, indent)
		fmt.Fprintf(w, "%s *result = new %s;\n", class, class)
		convert.Indent(w, indent)
		args := r.argList(c, len(r.Params))
		if args != "" {
			args = ", " + args
		}
		fmt.Fprintf(w, "Extension<%s>::__init__(result%s);\n", class, args)
		return "result"
	}

	return "new " + class + "(" + r.argList(c, len(r.Params)) + ")"
}

// argList renders the converted non-receiver parameters before end.
func (r *Remap) argList(c Call, end int) string {
	args := make([]string, 0, end-r.FirstTrueParam)
	for i := r.FirstTrueParam; i < end; i++ {
		args = append(args, r.passParam(c, i))
	}
	return strings.Join(args, ", ")
}

// CallString renders the native call expression without staging.
func (r *Remap) CallString(c Call) string {
	var b strings.Builder
	name := r.Func.Name
	switch {
	case r.Extension && r.HasReceiver:
		fmt.Fprintf(&b, "invoke_extension(%s).%s(", r.container(c), name)
	case r.Extension:
		fmt.Fprintf(&b, "Extension<%s>::%s(", r.Owner.QualifiedName(), name)
	case r.Owner != nil && name == r.Owner.Name:
		fmt.Fprintf(&b, "%s(", r.Owner.QualifiedName())
	case r.HasReceiver:
		fmt.Fprintf(&b, "(%s)->%s(", r.container(c), name)
	default:
		fmt.Fprintf(&b, "%s(", r.Func.ScopedName())
	}

	end := len(r.Params)
	if r.Kind == ItemAssignmentOperator {
		end--
	}
	b.WriteString(r.argList(c, end))
	b.WriteString(")")

	if r.Kind == ItemAssignmentOperator {
		fmt.Fprintf(&b, " = %s", r.passParam(c, end))
	}
	return b.String()
}
