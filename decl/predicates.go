package decl

import "strconv"

// Capability predicates. Typedefs are always seen through; top-level
// const is ignored unless the predicate says otherwise.

// Resolve strips typedef layers from the outside of t.
func Resolve(t Type) Type {
	for {
		td, ok := t.(*Typedef)
		if !ok || td.To == nil {
			return t
		}
		t = td.To
	}
}

// UnwrapConst strips typedefs and top-level const qualifiers.
func UnwrapConst(t Type) Type {
	t = Resolve(t)
	for {
		c, ok := t.(*Const)
		if !ok {
			return t
		}
		t = Resolve(c.Of)
	}
}

// UnwrapReference strips one reference, if present.
func UnwrapReference(t Type) Type {
	if r, ok := UnwrapConst(t).(*Reference); ok {
		return Resolve(r.To)
	}
	return Resolve(t)
}

// UnwrapPointer strips one pointer, if present.
func UnwrapPointer(t Type) Type {
	if p, ok := UnwrapConst(t).(*Pointer); ok {
		return Resolve(p.To)
	}
	return Resolve(t)
}

// Unwrap strips every const, reference, pointer and typedef layer and
// returns the underlying "meat" type.
func Unwrap(t Type) Type {
	for {
		switch tt := Resolve(t).(type) {
		case *Const:
			t = tt.Of
		case *Reference:
			t = tt.To
		case *Pointer:
			t = tt.To
		default:
			return tt
		}
	}
}

func builtinKind(t Type) (BuiltinKind, bool) {
	b, ok := UnwrapConst(t).(Builtin)
	return b.Kind, ok
}

// IsVoid reports whether t is void.
func IsVoid(t Type) bool {
	k, ok := builtinKind(t)
	return ok && k == Void
}

// IsBool reports whether t is bool.
func IsBool(t Type) bool {
	k, ok := builtinKind(t)
	return ok && k == Bool
}

// IsInteger reports whether t is a character or integer type.
func IsInteger(t Type) bool {
	k, ok := builtinKind(t)
	return ok && k >= Char && k <= SizeT
}

// IsFloat reports whether t is a floating-point type.
func IsFloat(t Type) bool {
	k, ok := builtinKind(t)
	return ok && k >= Float && k <= LongDouble
}

// IsArithmetic reports whether t is a non-void fundamental type.
func IsArithmetic(t Type) bool {
	k, ok := builtinKind(t)
	return ok && k != Void
}

// IsEnum reports whether t is an enumerated type.
func IsEnum(t Type) bool {
	_, ok := UnwrapConst(t).(*Enum)
	return ok
}

// IsSimple reports whether t is arithmetic or an enum.
func IsSimple(t Type) bool { return IsArithmetic(t) || IsEnum(t) }

// IsConst reports whether t is const-qualified at the top level.
func IsConst(t Type) bool {
	_, ok := Resolve(t).(*Const)
	return ok
}

// IsPointer reports whether t is a pointer.
func IsPointer(t Type) bool {
	_, ok := UnwrapConst(t).(*Pointer)
	return ok
}

// IsReference reports whether t is a reference.
func IsReference(t Type) bool {
	_, ok := UnwrapConst(t).(*Reference)
	return ok
}

// IsStruct reports whether t is a struct or class held by value.
func IsStruct(t Type) bool {
	_, ok := UnwrapConst(t).(*Struct)
	return ok
}

// AsStruct returns the struct held by value in t, if any.
func AsStruct(t Type) *Struct {
	s, _ := UnwrapConst(t).(*Struct)
	return s
}

// IsArray reports whether t is an array.
func IsArray(t Type) bool {
	_, ok := UnwrapConst(t).(*Array)
	return ok
}

// AsArray returns t as an array, if it is one.
func AsArray(t Type) *Array {
	a, _ := UnwrapConst(t).(*Array)
	return a
}

// IsFunction reports whether t is a function type.
func IsFunction(t Type) bool {
	_, ok := UnwrapConst(t).(*FuncType)
	return ok
}

// IsFunctionPointer reports whether t is a pointer to a function.
func IsFunctionPointer(t Type) bool {
	return IsPointer(t) && IsFunction(UnwrapPointer(t))
}

// IsSimpleArray reports whether t is a fixed-size, one-dimensional array
// of a simple type.
func IsSimpleArray(t Type) bool {
	a := AsArray(t)
	return a != nil && a.Bound >= 0 && !IsArray(a.Of) && IsSimple(a.Of)
}

func isCharPointerOf(t Type, kind BuiltinKind) bool {
	if !IsPointer(t) {
		return false
	}
	k, ok := builtinKind(UnwrapPointer(t))
	return ok && k == kind
}

// IsCharPointer reports whether t is char * or const char *.
func IsCharPointer(t Type) bool { return isCharPointerOf(t, Char) }

// IsWCharPointer reports whether t is wchar_t * or const wchar_t *.
func IsWCharPointer(t Type) bool { return isCharPointerOf(t, WChar) }

// RoleOf returns the role of the struct held by value in t.
func RoleOf(t Type) Role {
	if s := AsStruct(t); s != nil {
		return s.Role
	}
	return RoleNone
}

// IsByValue reports whether t is a struct with the given role, by value.
func IsByValue(t Type, role Role) bool { return RoleOf(t) == role }

// IsConstRefTo reports whether t is a const lvalue reference to a struct
// with the given role.
func IsConstRefTo(t Type, role Role) bool {
	r, ok := UnwrapConst(t).(*Reference)
	return ok && !r.RValue && IsConst(r.To) && RoleOf(r.To) == role
}

// IsConstPtrTo reports whether t is a pointer to a const struct with the
// given role.
func IsConstPtrTo(t Type, role Role) bool {
	p, ok := UnwrapConst(t).(*Pointer)
	return ok && IsConst(p.To) && RoleOf(p.To) == role
}

// IsStringLike reports whether the meat of t is a string or wide string.
func IsStringLike(t Type) bool {
	if IsCharPointer(t) || IsWCharPointer(t) {
		return true
	}
	r := RoleOf(Unwrap(t))
	return r == RoleString || r == RoleWString
}

// IsByteVector reports whether t is a byte vector by value (possibly const)
// or by reference.
func IsByteVector(t Type) bool { return RoleOf(UnwrapReference(t)) == RoleByteVector }

// IsSmartPointer reports whether t is a smart pointer by value.
func IsSmartPointer(t Type) bool { return RoleOf(t) == RoleSmartPointer }

// IsConstRefToSmartPointer reports whether t is const PointerTo<T> &.
func IsConstRefToSmartPointer(t Type) bool { return IsConstRefTo(t, RoleSmartPointer) }

// IsRefCountPointer reports whether t points at a reference-counted struct.
func IsRefCountPointer(t Type) bool {
	if !IsPointer(t) {
		return false
	}
	s := AsStruct(UnwrapPointer(t))
	return s != nil && s.IsRefCounted()
}

// IsConstRefToSimple reports whether t is a const reference to an
// arithmetic or enum type.
func IsConstRefToSimple(t Type) bool {
	r, ok := UnwrapConst(t).(*Reference)
	return ok && !r.RValue && IsConst(r.To) && IsSimple(r.To)
}

// IsHostObjectPointer reports whether t points at the host's opaque
// object handle.
func IsHostObjectPointer(t Type) bool {
	return IsPointer(t) && RoleOf(UnwrapPointer(t)) == RoleHostObject
}

// SameType reports whether a and b spell the same type after typedef
// resolution.
func SameType(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return Canonical(a) == Canonical(b)
}

// Canonical spells t with every typedef layer resolved.
func Canonical(t Type) string {
	switch tt := Resolve(t).(type) {
	case *Pointer:
		if f, ok := Resolve(tt.To).(*FuncType); ok {
			return Canonical(&FuncType{Return: f.Return, Params: f.Params}) + "*"
		}
		return Canonical(tt.To) + " *"
	case *Reference:
		if tt.RValue {
			return Canonical(tt.To) + " &&"
		}
		return Canonical(tt.To) + " &"
	case *Const:
		if _, ok := Resolve(tt.Of).(*Pointer); ok {
			return Canonical(tt.Of) + "const"
		}
		return "const " + Canonical(tt.Of)
	case *Array:
		if tt.Bound < 0 {
			return Canonical(tt.Of) + " []"
		}
		return Canonical(tt.Of) + " [" + strconv.Itoa(tt.Bound) + "]"
	case *FuncType:
		s := Canonical(tt.Return) + " ("
		for i, p := range tt.Params {
			if i > 0 {
				s += ", "
			}
			s += Canonical(p)
		}
		return s + ")"
	default:
		return tt.Spelling()
	}
}
