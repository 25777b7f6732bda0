package overload

import (
	"slices"

	"github.com/chazu/interrogate/decl"
	"github.com/chazu/interrogate/remap"
)

// Bucket is the overloads of a function taking the same number of
// host-side arguments, most specific first.
type Bucket struct {
	Arity  int
	Remaps []*remap.Remap
}

// Buckets groups f's remaps by non-receiver arity in ascending order.
func (f *Function) Buckets() []Bucket {
	byArity := map[int][]*remap.Remap{}
	var arities []int
	for _, r := range f.Remaps {
		n := r.NumArgs()
		if _, ok := byArity[n]; !ok {
			arities = append(arities, n)
		}
		byArity[n] = append(byArity[n], r)
	}
	slices.Sort(arities)

	out := make([]Bucket, 0, len(arities))
	for _, n := range arities {
		rs := byArity[n]
		SortBySpecificity(rs)
		out = append(out, Bucket{Arity: n, Remaps: rs})
	}
	return out
}

// Ordered returns f's remaps in dispatch order: by ascending arity, most
// specific first within an arity.
func (f *Function) Ordered() []*remap.Remap {
	var out []*remap.Remap
	for _, b := range f.Buckets() {
		out = append(out, b.Remaps...)
	}
	return out
}

// SortBySpecificity orders rs deepest first, keeping declaration order
// between equally specific remaps.
func SortBySpecificity(rs []*remap.Remap) {
	depths := make(map[*remap.Remap][]int, len(rs))
	for _, r := range rs {
		depths[r] = Specificity(r)
	}
	slices.SortStableFunc(rs, func(a, b *remap.Remap) int {
		return slices.Compare(depths[b], depths[a])
	})
}

// Specificity is the inheritance depth of each declared argument type.
func Specificity(r *remap.Remap) []int {
	out := make([]int, r.NumArgs())
	for i := range out {
		out[i] = Depth(r.Arg(i).Conv.OrigType())
	}
	return out
}

// Depth is the structural inheritance depth of t: zero for arithmetic,
// string and host-object types, otherwise one more than the deepest base
// of the struct t names, points to or refers to.
func Depth(t decl.Type) int {
	t = decl.UnwrapConst(t)
	switch decl.Resolve(t).(type) {
	case *decl.Pointer, *decl.Reference:
		t = decl.UnwrapConst(decl.UnwrapPointer(decl.UnwrapReference(t)))
	}
	s := decl.AsStruct(t)
	if s == nil {
		return 0
	}
	switch s.Role {
	case decl.RoleString, decl.RoleWString, decl.RoleHostObject:
		return 0
	}
	return structDepth(s, map[*decl.Struct]bool{})
}

func structDepth(s *decl.Struct, visiting map[*decl.Struct]bool) int {
	if visiting[s] {
		return 0
	}
	visiting[s] = true
	defer delete(visiting, s)
	deepest := 0
	for _, d := range s.Bases {
		if d.Base != nil {
			deepest = max(deepest, structDepth(d.Base, visiting))
		}
	}
	return 1 + deepest
}

// Coercion lists the argument positions of one remap where a host value
// may be converted through an implicit constructor.
type Coercion struct {
	Remap     *remap.Remap
	Positions []int
}

// CoercionPlan returns, in dispatch order, the remaps with at least one
// argument whose target struct can be built from a single value. It is
// consulted only after every strict overload has failed.
func (f *Function) CoercionPlan() []Coercion {
	var plan []Coercion
	for _, r := range f.Ordered() {
		var pos []int
		for i := 0; i < r.NumArgs(); i++ {
			if s := coercionTarget(r.Arg(i).Conv.OrigType()); s != nil && CanCoerce(s) {
				pos = append(pos, i)
			}
		}
		if len(pos) > 0 {
			plan = append(plan, Coercion{Remap: r, Positions: pos})
		}
	}
	return plan
}

// coercionTarget returns the struct behind a pointer or const reference.
func coercionTarget(t decl.Type) *decl.Struct {
	switch rt := decl.Resolve(decl.UnwrapConst(t)).(type) {
	case *decl.Pointer:
		return decl.AsStruct(decl.UnwrapConst(rt.To))
	case *decl.Reference:
		if decl.IsConst(rt.To) {
			return decl.AsStruct(decl.UnwrapConst(rt.To))
		}
	}
	return nil
}

// CanCoerce reports whether s has a non-explicit constructor callable
// with exactly one argument that is not a copy or move constructor.
func CanCoerce(s *decl.Struct) bool {
	for _, c := range s.Constructors {
		if c.Flags.Has(decl.FlagExplicit) || c.IsCopyConstructor() || c.IsMoveConstructor() {
			continue
		}
		if n := len(c.Params); n >= 1 && n-c.NumDefaults() <= 1 {
			return true
		}
	}
	return false
}
