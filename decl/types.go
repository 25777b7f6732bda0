// Package decl is the in-memory declaration model consumed by the wrapper
// generator: C++ types, functions, structs, enums and the capability
// predicates the conversion table and classifier query.
package decl

import (
	"fmt"
	"strings"
)

// Type is a C++ type as known to the declaration model. Types are
// immutable once constructed and may be shared freely.
type Type interface {
	// Spelling returns the C++ spelling, e.g. "const std::string &".
	Spelling() string
	isType()
}

// BuiltinKind enumerates the fundamental C++ types.
type BuiltinKind int

const (
	Void BuiltinKind = iota
	Bool
	Char
	SChar
	UChar
	WChar
	Char16
	Char32
	Short
	UShort
	Int
	UInt
	Long
	ULong
	LongLong
	ULongLong
	SizeT
	Float
	Double
	LongDouble
)

var builtinNames = [...]string{
	Void:       "void",
	Bool:       "bool",
	Char:       "char",
	SChar:      "signed char",
	UChar:      "unsigned char",
	WChar:      "wchar_t",
	Char16:     "char16_t",
	Char32:     "char32_t",
	Short:      "short",
	UShort:     "unsigned short",
	Int:        "int",
	UInt:       "unsigned int",
	Long:       "long",
	ULong:      "unsigned long",
	LongLong:   "long long",
	ULongLong:  "unsigned long long",
	SizeT:      "size_t",
	Float:      "float",
	Double:     "double",
	LongDouble: "long double",
}

func (k BuiltinKind) String() string {
	if int(k) < len(builtinNames) {
		return builtinNames[k]
	}
	return fmt.Sprintf("BuiltinKind(%d)", int(k))
}

// Builtin is a fundamental type.
type Builtin struct {
	Kind BuiltinKind
}

func (Builtin) isType()            {}
func (b Builtin) Spelling() string { return b.Kind.String() }

// Pointer is a pointer to another type.
type Pointer struct {
	To Type
}

func (*Pointer) isType() {}

func (p *Pointer) Spelling() string {
	if f, ok := p.To.(*FuncType); ok {
		return f.declarator("(*)")
	}
	return p.To.Spelling() + " *"
}

// Reference is an lvalue or rvalue reference.
type Reference struct {
	To     Type
	RValue bool
}

func (*Reference) isType() {}

func (r *Reference) Spelling() string {
	if r.RValue {
		return r.To.Spelling() + " &&"
	}
	return r.To.Spelling() + " &"
}

// Const is a const-qualified type.
type Const struct {
	Of Type
}

func (*Const) isType() {}

func (c *Const) Spelling() string {
	if _, ok := c.Of.(*Pointer); ok {
		return c.Of.Spelling() + "const"
	}
	return "const " + c.Of.Spelling()
}

// Array is a C array. Bound is negative when the extent is unknown.
type Array struct {
	Of    Type
	Bound int
}

func (*Array) isType() {}

func (a *Array) Spelling() string {
	if a.Bound < 0 {
		return a.Of.Spelling() + " []"
	}
	return fmt.Sprintf("%s [%d]", a.Of.Spelling(), a.Bound)
}

// FuncType is the type of a function, reachable only through a pointer.
type FuncType struct {
	Return Type
	Params []Type
}

func (*FuncType) isType() {}

func (f *FuncType) Spelling() string { return f.declarator("") }

func (f *FuncType) declarator(inner string) string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Spelling()
	}
	if inner == "" {
		return fmt.Sprintf("%s (%s)", f.Return.Spelling(), strings.Join(params, ", "))
	}
	return fmt.Sprintf("%s %s(%s)", f.Return.Spelling(), inner, strings.Join(params, ", "))
}

// Typedef names another type.
type Typedef struct {
	Name  string
	Scope string
	To    Type
}

func (*Typedef) isType()            {}
func (t *Typedef) Spelling() string { return qualify(t.Scope, t.Name) }

// Enum is an enumerated type.
type Enum struct {
	Name    string
	Scope   string
	Values  []EnumValue
	Comment string
}

// EnumValue is one enumerator.
type EnumValue struct {
	Name  string
	Value int64
}

func (*Enum) isType()            {}
func (e *Enum) Spelling() string { return qualify(e.Scope, e.Name) }

func qualify(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "::" + name
}

// Declare renders a declaration of name with type t, placing the name
// where C++ requires it for arrays and function pointers.
func Declare(t Type, name string) string {
	switch tt := t.(type) {
	case *Array:
		if tt.Bound < 0 {
			return Declare(tt.Of, name) + "[]"
		}
		return fmt.Sprintf("%s[%d]", Declare(tt.Of, name), tt.Bound)
	case *Pointer:
		if f, ok := tt.To.(*FuncType); ok {
			return f.declarator("(*" + name + ")")
		}
	}
	s := t.Spelling()
	if strings.HasSuffix(s, "*") || strings.HasSuffix(s, "&") {
		return s + name
	}
	return s + " " + name
}

// Constructors for the common shapes, used heavily by synthesized
// declarations and tests.

// PointerTo returns a pointer to t.
func PointerTo(t Type) Type { return &Pointer{To: t} }

// RefTo returns an lvalue reference to t.
func RefTo(t Type) Type { return &Reference{To: t} }

// ConstOf returns t const-qualified. Already-const types are returned as is.
func ConstOf(t Type) Type {
	if _, ok := t.(*Const); ok {
		return t
	}
	return &Const{Of: t}
}

// VoidType returns the void type.
func VoidType() Type { return Builtin{Kind: Void} }
