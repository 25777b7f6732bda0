package decl

import "strings"

// Role marks structs the generator treats specially.
type Role int

const (
	RoleNone Role = iota
	RoleString
	RoleWString
	RoleByteVector
	RoleRefCountBase
	RoleSmartPointer
	RoleHostObject
)

var roleNames = map[string]Role{
	"":              RoleNone,
	"string":        RoleString,
	"wstring":       RoleWString,
	"byte_vector":   RoleByteVector,
	"refcount_base": RoleRefCountBase,
	"smart_pointer": RoleSmartPointer,
	"host_object":   RoleHostObject,
}

// ParseRole maps a declaration-file role name to a Role.
func ParseRole(name string) (Role, bool) {
	r, ok := roleNames[name]
	return r, ok
}

// String returns the declaration-file spelling of r.
func (r Role) String() string {
	for name, role := range roleNames {
		if role == r {
			return name
		}
	}
	return "unknown"
}

// Struct is a wrapped (or merely referenced) struct or class.
type Struct struct {
	Name  string
	Scope string
	Role  Role

	// Pointee is the managed type of a smart pointer (RoleSmartPointer).
	Pointee Type

	Bases        []Derivation
	Constructors []*Function
	Destructor   *Function
	Methods      []*Function
	Casts        []*Function
	Elements     []*Element
	Nested       []Type

	Final               bool
	Unpublished         bool
	Incomplete          bool
	RefCounted          bool
	ProtectedDestructor bool
	Comment             string

	implicitDtor *Function
}

func (*Struct) isType()            {}
func (s *Struct) Spelling() string { return s.QualifiedName() }

// QualifiedName returns the scope-qualified name.
func (s *Struct) QualifiedName() string { return qualify(s.Scope, s.Name) }

// Derivation is one entry in a struct's base list.
type Derivation struct {
	Base     *Struct
	Virtual  bool
	Upcast   bool
	Downcast bool
}

// DestructorFunc returns the declared destructor, or an implicit one
// synthesized on first use. The result is stable across calls.
func (s *Struct) DestructorFunc() *Function {
	if s.Destructor != nil {
		return s.Destructor
	}
	if s.implicitDtor == nil {
		s.implicitDtor = &Function{
			Name:   "~" + s.Name,
			Owner:  s,
			Return: VoidType(),
			Flags:  FlagDestructor,
		}
	}
	return s.implicitDtor
}

// CallerDestructor returns the destructor a caller may invoke to free an
// s, or nil when the destructor is protected.
func (s *Struct) CallerDestructor() *Function {
	if s.ProtectedDestructor {
		return nil
	}
	return s.DestructorFunc()
}

// IsRefCounted reports whether s (or any base) is reference counted.
func (s *Struct) IsRefCounted() bool {
	return s.depthFirst(func(c *Struct) bool {
		return c.RefCounted || c.Role == RoleRefCountBase
	})
}

// DerivesFrom reports whether base appears anywhere in s's hierarchy,
// s itself included.
func (s *Struct) DerivesFrom(base *Struct) bool {
	return s.depthFirst(func(c *Struct) bool { return c == base })
}

func (s *Struct) depthFirst(pred func(*Struct) bool) bool {
	seen := map[*Struct]bool{}
	var walk func(*Struct) bool
	walk = func(c *Struct) bool {
		if c == nil || seen[c] {
			return false
		}
		seen[c] = true
		if pred(c) {
			return true
		}
		for _, d := range c.Bases {
			if walk(d.Base) {
				return true
			}
		}
		return false
	}
	return walk(s)
}

// FuncFlags are the storage-class and operator bits of a callable.
type FuncFlags uint32

const (
	FlagStatic FuncFlags = 1 << iota
	FlagConstMethod
	FlagExplicit
	FlagVirtual
	FlagExtension
	FlagBlocking
	FlagConstructor
	FlagDestructor
	FlagTypecast
	FlagCopyConstructor
	FlagMoveConstructor
)

// Has reports whether all bits of f are set.
func (ff FuncFlags) Has(f FuncFlags) bool { return ff&f == f }

// Function is one concrete C++ function or method signature.
type Function struct {
	// Name is the local name: "get_x", "operator +=", "operator float".
	Name    string
	Owner   *Struct
	Return  Type
	Params  []Param
	Flags   FuncFlags
	Comment string
}

// Param is one declared parameter.
type Param struct {
	Name    string
	Type    Type
	Default string
}

// HasDefault reports whether the parameter carries a default value.
func (p Param) HasDefault() bool { return p.Default != "" }

// NumDefaults counts the trailing parameters that have default values.
func (f *Function) NumDefaults() int {
	n := 0
	for i := len(f.Params) - 1; i >= 0 && f.Params[i].HasDefault(); i-- {
		n++
	}
	return n
}

// IsStatic reports whether the function is a free function or static member.
func (f *Function) IsStatic() bool { return f.Owner == nil || f.Flags.Has(FlagStatic) }

// IsConstructor reports whether f constructs its owner.
func (f *Function) IsConstructor() bool { return f.Flags.Has(FlagConstructor) }

// IsDestructor reports whether f destroys its owner.
func (f *Function) IsDestructor() bool { return f.Flags.Has(FlagDestructor) }

// IsCopyConstructor reports whether f is a copy constructor, either by
// flag or by its single const-reference-to-owner parameter.
func (f *Function) IsCopyConstructor() bool {
	if !f.IsConstructor() {
		return false
	}
	if f.Flags.Has(FlagCopyConstructor) {
		return true
	}
	if len(f.Params) != 1 || f.Owner == nil {
		return false
	}
	r, ok := Resolve(f.Params[0].Type).(*Reference)
	return ok && !r.RValue && Unwrap(r) == Type(f.Owner)
}

// IsMoveConstructor reports whether f is a move constructor.
func (f *Function) IsMoveConstructor() bool {
	if !f.IsConstructor() {
		return false
	}
	if f.Flags.Has(FlagMoveConstructor) {
		return true
	}
	if len(f.Params) != 1 || f.Owner == nil {
		return false
	}
	r, ok := Resolve(f.Params[0].Type).(*Reference)
	return ok && r.RValue && Unwrap(r) == Type(f.Owner)
}

// ScopedName returns the owner-qualified name.
func (f *Function) ScopedName() string {
	if f.Owner == nil {
		return f.Name
	}
	return f.Owner.QualifiedName() + "::" + f.Name
}

// Prototype renders the C++ declaration, used in emitted comments and
// metadata.
func (f *Function) Prototype() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		if p.Name != "" {
			params[i] = Declare(p.Type, p.Name)
		} else {
			params[i] = p.Type.Spelling()
		}
		if p.HasDefault() {
			params[i] += " = " + p.Default
		}
	}
	s := f.ScopedName() + "(" + strings.Join(params, ", ") + ")"
	if f.Return != nil && !f.IsConstructor() && !f.IsDestructor() {
		s = Declare(f.Return, s)
	}
	if f.Flags.Has(FlagConstMethod) {
		s += " const"
	}
	return s
}

// Element is a data member or global variable.
type Element struct {
	Name     string
	Owner    *Struct
	Type     Type
	Static   bool
	ReadOnly bool
	Comment  string
}

// ScopedName returns the owner-qualified name.
func (e *Element) ScopedName() string {
	if e.Owner == nil {
		return e.Name
	}
	return e.Owner.QualifiedName() + "::" + e.Name
}

// Manifest is a preprocessor-level constant (#define).
type Manifest struct {
	Name       string
	Definition string
	// Type is nil for untyped manifests.
	Type    Type
	Comment string
}

// Unit is one parsed translation unit: everything a generation run visits.
type Unit struct {
	Library   string
	Types     []Type
	Functions []*Function
	Manifests []*Manifest
	Elements  []*Element
}
