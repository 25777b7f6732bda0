// Package convert decides how one value crosses the wrapper boundary:
// the type the wrapper exposes, the expression that turns a wrapper
// argument into a native argument, and the staging that turns a native
// result into something the wrapper can return.
package convert

import (
	"fmt"
	"io"
	"strings"

	"github.com/chazu/interrogate/decl"
)

// Strategy identifies a conversion variant.
type Strategy int

const (
	Invalid Strategy = iota
	Unchanged
	ThisPointer
	CharStarToString
	WCharStarToWString
	BasicStringToString
	BasicStringRefToString
	BasicStringPtrToString
	BasicWStringToWString
	BasicWStringRefToWString
	BasicWStringPtrToWString
	ConstToNonConst
	SmartPointerToPointer
	ReferenceToPointer
	ConcreteToPointer
	ReferenceToConcrete
	EnumToInt
)

var strategyNames = [...]string{
	Invalid:                  "invalid",
	Unchanged:                "unchanged",
	ThisPointer:              "this-pointer",
	CharStarToString:         "char-star-to-string",
	WCharStarToWString:       "wchar-star-to-wstring",
	BasicStringToString:      "string-to-string",
	BasicStringRefToString:   "string-ref-to-string",
	BasicStringPtrToString:   "string-ptr-to-string",
	BasicWStringToWString:    "wstring-to-wstring",
	BasicWStringRefToWString: "wstring-ref-to-wstring",
	BasicWStringPtrToWString: "wstring-ptr-to-wstring",
	ConstToNonConst:          "const-to-non-const",
	SmartPointerToPointer:    "smart-pointer-to-pointer",
	ReferenceToPointer:       "reference-to-pointer",
	ConcreteToPointer:        "concrete-to-pointer",
	ReferenceToConcrete:      "reference-to-concrete",
	EnumToInt:                "enum-to-int",
}

func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// Conversion is the contract for one value in one parameter or return
// position.
type Conversion interface {
	Strategy() Strategy
	// OrigType is the declared C++ type.
	OrigType() decl.Type
	// NewType is the type exposed at the wrapper boundary.
	NewType() decl.Type
	// Valid is false when no strategy can carry the type. An invalid
	// conversion poisons the wrapper that contains it.
	Valid() bool
	// PassParameter writes the native-call argument built from the
	// wrapper-side expression.
	PassParameter(w io.Writer, expr string)
	// PrepareReturnExpr writes any statements needed to hold the native
	// result and returns the expression standing for it.
	PrepareReturnExpr(w io.Writer, indent int, expr string) string
	// ReturnExpr turns the (possibly staged) result into the value the
	// wrapper returns.
	ReturnExpr(expr string) string
	// AtomicString reports that the exposed type is the host's string.
	AtomicString() bool
	// ReturnNeedsManagement reports that a returned pointer is owned by
	// the caller.
	ReturnNeedsManagement() bool
	// ReturnDestructor is the function the caller uses to free a managed
	// return, or nil when the release path is reference counting.
	ReturnDestructor() *decl.Function
}

// Indent writes n spaces.
func Indent(w io.Writer, n int) {
	io.WriteString(w, strings.Repeat(" ", n))
}

type base struct {
	strategy Strategy
	orig     decl.Type
	exposed  decl.Type
}

func (b *base) Strategy() Strategy               { return b.strategy }
func (b *base) OrigType() decl.Type              { return b.orig }
func (b *base) NewType() decl.Type               { return b.exposed }
func (b *base) Valid() bool                      { return true }
func (b *base) AtomicString() bool               { return false }
func (b *base) ReturnNeedsManagement() bool      { return false }
func (b *base) ReturnDestructor() *decl.Function { return nil }

func (b *base) PassParameter(w io.Writer, expr string) { io.WriteString(w, expr) }

func (b *base) PrepareReturnExpr(_ io.Writer, _ int, expr string) string { return expr }

func (b *base) ReturnExpr(expr string) string { return expr }

// --- invalid / unchanged / this ---

type invalid struct{ base }

func (*invalid) Valid() bool { return false }

type unchanged struct{ base }

type thisPointer struct{ base }

// --- string family ---

// atomicString is embedded by every conversion exposing the host string.
type atomicString struct{ base }

func (*atomicString) AtomicString() bool { return true }

type charStar struct{ atomicString }

// PassParameter casts the const host buffer back when the native
// parameter takes a mutable character pointer.
func (c *charStar) PassParameter(w io.Writer, expr string) {
	p := decl.UnwrapConst(c.orig).(*decl.Pointer)
	if decl.IsConst(p.To) {
		io.WriteString(w, expr)
		return
	}
	fmt.Fprintf(w, "(%s)%s", decl.UnwrapConst(c.orig).Spelling(), expr)
}

// basicString carries std::string and std::wstring values, by value,
// const reference or const pointer.
type basicString struct {
	atomicString
	// class is the string class spelling, holder the name of the static
	// that keeps a returned value alive until the caller has copied it.
	class  string
	holder string
	shape  stringShape
}

type stringShape int

const (
	byValue stringShape = iota
	byRef
	byPtr
)

func (s *basicString) PassParameter(w io.Writer, expr string) {
	switch s.shape {
	case byPtr:
		fmt.Fprintf(w, "&static_cast<const %s &>(%s(%s))", s.class, s.class, expr)
	default:
		fmt.Fprintf(w, "%s(%s)", s.class, expr)
	}
}

func (s *basicString) PrepareReturnExpr(w io.Writer, indent int, expr string) string {
	Indent(w, indent)
	fmt.Fprintf(w, "static %s %s;\n", s.class, s.holder)
	Indent(w, indent)
	if s.shape == byPtr {
		fmt.Fprintf(w, "%s = *(%s);\n", s.holder, expr)
	} else {
		fmt.Fprintf(w, "%s = %s;\n", s.holder, expr)
	}
	return s.holder
}

func (s *basicString) ReturnExpr(expr string) string { return expr + ".c_str()" }

// --- pointer / reference adjustments ---

type constToNonConst struct{ base }

type smartPointer struct {
	base
	class string
}

func (s *smartPointer) PassParameter(w io.Writer, expr string) {
	fmt.Fprintf(w, "%s(%s)", s.class, expr)
}

func (s *smartPointer) PrepareReturnExpr(w io.Writer, indent int, expr string) string {
	Indent(w, indent)
	fmt.Fprintf(w, "%s return_value = %s;\n", s.class, expr)
	return "return_value"
}

func (s *smartPointer) ReturnExpr(expr string) string { return expr + ".p()" }

// The smart pointer releases its reference when return_value goes out of
// scope, so the caller always receives ownership of one reference.
func (s *smartPointer) ReturnNeedsManagement() bool { return true }

type referenceToPointer struct {
	base
	rvalue bool
}

func (r *referenceToPointer) PassParameter(w io.Writer, expr string) {
	if r.rvalue {
		fmt.Fprintf(w, "std::move(*%s)", expr)
		return
	}
	fmt.Fprintf(w, "*%s", expr)
}

func (r *referenceToPointer) ReturnExpr(expr string) string { return "&(" + expr + ")" }

type concreteToPointer struct {
	base
	class *decl.Struct
}

func (c *concreteToPointer) PassParameter(w io.Writer, expr string) {
	fmt.Fprintf(w, "*%s", expr)
}

func (c *concreteToPointer) ReturnExpr(expr string) string {
	return "new " + c.class.QualifiedName() + "(" + expr + ")"
}

func (c *concreteToPointer) ReturnNeedsManagement() bool { return true }

func (c *concreteToPointer) ReturnDestructor() *decl.Function { return c.class.CallerDestructor() }

type referenceToConcrete struct{ base }

type enumToInt struct {
	base
	enum decl.Type
}

func (e *enumToInt) PassParameter(w io.Writer, expr string) {
	fmt.Fprintf(w, "(%s)%s", e.enum.Spelling(), expr)
}

func (e *enumToInt) ReturnExpr(expr string) string { return "(int)" + expr }
