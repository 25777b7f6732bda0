package convert

import (
	"github.com/chazu/interrogate/decl"
	"github.com/chazu/interrogate/manifest"
)

// Table picks the conversion for a type in a parameter or return slot.
// Rules are tried in a fixed order and the first match wins.
type Table struct {
	convertStrings  bool
	manageRefCounts bool
}

// NewTable builds a conversion table for the given run configuration.
func NewTable(cfg manifest.GenerationConfig) *Table {
	return &Table{
		convertStrings:  cfg.ConvertStrings,
		manageRefCounts: cfg.ManageRefCounts,
	}
}

var (
	constChar  = decl.PointerTo(decl.ConstOf(decl.Builtin{Kind: decl.Char}))
	constWChar = decl.PointerTo(decl.ConstOf(decl.Builtin{Kind: decl.WChar}))
)

// Remap returns the conversion for t. owner is the struct whose member is
// being wrapped, or nil for free functions.
func (tb *Table) Remap(owner *decl.Struct, t decl.Type) Conversion {
	if tb.convertStrings {
		if c := tb.stringRule(owner, t); c != nil {
			return c
		}
	}

	if tb.manageRefCounts && (owner == nil || owner.Role != decl.RoleSmartPointer) {
		if decl.IsSmartPointer(t) || decl.IsConstRefToSmartPointer(t) {
			sp := decl.AsStruct(decl.UnwrapReference(t))
			if sp.Pointee != nil {
				return &smartPointer{
					base:  base{SmartPointerToPointer, t, decl.PointerTo(sp.Pointee)},
					class: sp.QualifiedName(),
				}
			}
		}
	}

	switch {
	case decl.IsConstRefToSimple(t):
		return &referenceToConcrete{base{ReferenceToConcrete, t, decl.UnwrapConst(decl.UnwrapReference(t))}}

	case decl.IsReference(t):
		r := decl.UnwrapConst(t).(*decl.Reference)
		if decl.IsFunction(r.To) || decl.IsArray(r.To) {
			return Reject(t)
		}
		return &referenceToPointer{base: base{ReferenceToPointer, t, decl.PointerTo(r.To)}, rvalue: r.RValue}

	case decl.IsStruct(t):
		s := decl.AsStruct(t)
		if s.Incomplete {
			return Reject(t)
		}
		return &concreteToPointer{base: base{ConcreteToPointer, t, decl.PointerTo(s)}, class: s}

	case decl.IsEnum(t):
		return &enumToInt{base: base{EnumToInt, t, decl.Builtin{Kind: decl.Int}}, enum: decl.UnwrapConst(t)}

	case decl.IsFunctionPointer(t):
		return Reject(t)

	case decl.IsPointer(t), decl.IsVoid(t), decl.IsArithmetic(t), decl.IsSimpleArray(t):
		return &unchanged{base{Unchanged, t, t}}
	}
	return Reject(t)
}

// stringRule applies the string rules. It returns nil when none applies.
func (tb *Table) stringRule(owner *decl.Struct, t decl.Type) Conversion {
	switch {
	case decl.IsCharPointer(t):
		return &charStar{atomicString{base{CharStarToString, t, constChar}}}
	case decl.IsWCharPointer(t):
		return &charStar{atomicString{base{WCharStarToWString, t, constWChar}}}
	}

	// The string classes' own members see their own type unconverted.
	if owner != nil && (owner.Role == decl.RoleString || owner.Role == decl.RoleWString) {
		return nil
	}

	for _, fam := range []struct {
		role            decl.Role
		value, ref, ptr Strategy
		exposed         decl.Type
		holder          string
	}{
		{decl.RoleString, BasicStringToString, BasicStringRefToString, BasicStringPtrToString, constChar, "string_holder"},
		{decl.RoleWString, BasicWStringToWString, BasicWStringRefToWString, BasicWStringPtrToWString, constWChar, "wstring_holder"},
	} {
		str := func(s Strategy, shape stringShape) Conversion {
			class := decl.AsStruct(decl.Unwrap(t)).QualifiedName()
			return &basicString{
				atomicString: atomicString{base{s, t, fam.exposed}},
				class:        class,
				holder:       fam.holder,
				shape:        shape,
			}
		}
		switch {
		case decl.IsByValue(t, fam.role):
			return str(fam.value, byValue)
		case decl.IsConstRefTo(t, fam.role):
			return str(fam.ref, byRef)
		case decl.IsConstPtrTo(t, fam.role):
			return str(fam.ptr, byPtr)
		case (decl.IsReference(t) || decl.IsPointer(t)) && decl.RoleOf(decl.Unwrap(t)) == fam.role:
			// Host strings are immutable; a mutable alias cannot be exposed.
			return Reject(t)
		}
	}

	switch {
	case decl.IsConstRefTo(t, decl.RoleByteVector):
		return &referenceToConcrete{base{ReferenceToConcrete, t, decl.UnwrapConst(decl.UnwrapReference(t))}}
	case decl.IsByValue(t, decl.RoleByteVector) && decl.IsConst(t):
		return &constToNonConst{base{ConstToNonConst, t, decl.UnwrapConst(t)}}
	case decl.IsByValue(t, decl.RoleByteVector):
		return &unchanged{base{Unchanged, t, t}}
	}
	return nil
}

// Reject returns the conversion for a type no strategy can carry.
func Reject(t decl.Type) Conversion { return &invalid{base{Invalid, t, t}} }

// Keep wraps t unchanged regardless of what the table would choose.
func Keep(t decl.Type) Conversion { return &unchanged{base{Unchanged, t, t}} }

// This returns the receiver conversion for a method of owner. It is
// always valid.
func This(owner *decl.Struct, isConst bool) Conversion {
	var pointee decl.Type = owner
	if isConst {
		pointee = decl.ConstOf(owner)
	}
	t := decl.PointerTo(pointee)
	return &thisPointer{base{ThisPointer, t, t}}
}

// Void returns the conversion for a void return.
func Void() Conversion {
	t := decl.VoidType()
	return &unchanged{base{Unchanged, t, t}}
}
