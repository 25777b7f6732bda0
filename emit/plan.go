package emit

import (
	"github.com/chazu/interrogate/decl"
	"github.com/chazu/interrogate/naming"
	"github.com/chazu/interrogate/overload"
	"github.com/chazu/interrogate/remap"
)

type role int

const (
	roleConstructor role = iota
	roleDestructor
	roleMethod
	roleCast
	roleUpcast
	roleDowncast
	roleGetter
	roleSetter
)

// entry is one function of a wrapped type together with the place its
// index is recorded.
type entry struct {
	role role
	fn   *overload.Function
	base int
	elem *decl.Element
}

type typePlan struct {
	t decl.Type
	// obj is nil for types whose members are not wrapped.
	obj     *overload.Object
	entries []entry
	nested  []*typePlan
}

type accessorPlan struct {
	elem           *decl.Element
	getter, setter *overload.Function
}

type manifestPlan struct {
	m      *decl.Manifest
	getter *overload.Function
}

// plan is the first pass: everything classified and grouped, in
// emission order.
type plan struct {
	types     []*typePlan
	globals   []*overload.Function
	manifests []manifestPlan
	elements  []accessorPlan
}

// remaps lists every remap of the plan in emission order.
func (p *plan) remaps() []*remap.Remap {
	var out []*remap.Remap
	add := func(f *overload.Function) {
		if f != nil {
			out = append(out, f.Ordered()...)
		}
	}
	var walk func(tp *typePlan)
	walk = func(tp *typePlan) {
		for _, e := range tp.entries {
			add(e.fn)
		}
		for _, n := range tp.nested {
			walk(n)
		}
	}
	for _, tp := range p.types {
		walk(tp)
	}
	for _, f := range p.globals {
		add(f)
	}
	for _, m := range p.manifests {
		add(m.getter)
	}
	for _, a := range p.elements {
		add(a.getter)
		add(a.setter)
	}
	return out
}

func (g *run) planUnit(unit *decl.Unit) *plan {
	p := &plan{}
	for _, t := range unit.Types {
		p.types = append(p.types, g.planType(t))
	}
	if g.binding.WrapGlobalFunctions() {
		for _, group := range groupByName(unit.Functions) {
			f := overload.NewFunction(group[0].Name, nil)
			for _, fn := range group {
				g.addRemaps(f, remap.Request{Func: fn})
			}
			if !f.Empty() {
				p.globals = append(p.globals, f)
			}
		}
	}
	for _, m := range unit.Manifests {
		mp := manifestPlan{m: m}
		if m.Type != nil {
			fn := &decl.Function{Name: naming.Getter(m.Name), Return: m.Type, Comment: m.Comment}
			mp.getter = g.function(fn.Name, nil, remap.Request{Func: fn, Kind: remap.Getter, Expression: m.Name})
		}
		p.manifests = append(p.manifests, mp)
	}
	for _, e := range unit.Elements {
		p.elements = append(p.elements, g.planAccessors(e))
	}
	return p
}

func (g *run) planType(t decl.Type) *typePlan {
	tp := &typePlan{t: t}
	s, ok := t.(*decl.Struct)
	if !ok || s.Incomplete || s.Unpublished {
		return tp
	}
	tp.obj = overload.NewObject(s)
	add := func(e entry) {
		if e.fn != nil && !e.fn.Empty() {
			tp.entries = append(tp.entries, e)
			tp.obj.AddFunction(e.fn)
		}
	}

	ctors := overload.NewFunction(s.Name, s)
	for _, c := range s.Constructors {
		g.addRemaps(ctors, remap.Request{Func: c})
	}
	add(entry{role: roleConstructor, fn: ctors})

	if !s.ProtectedDestructor {
		dtor := s.DestructorFunc()
		add(entry{role: roleDestructor, fn: g.function(dtor.Name, s, remap.Request{Func: dtor})})
	}

	for _, group := range groupByName(s.Methods) {
		f := overload.NewFunction(group[0].Name, s)
		for _, fn := range group {
			g.addRemaps(f, remap.Request{Func: fn})
		}
		add(entry{role: roleMethod, fn: f})
	}
	for _, group := range groupByName(s.Casts) {
		f := overload.NewFunction(group[0].Name, s)
		for _, fn := range group {
			g.addRemaps(f, remap.Request{Func: fn})
		}
		add(entry{role: roleCast, fn: f})
	}

	for i, d := range s.Bases {
		if !d.Upcast {
			continue
		}
		fn := &decl.Function{
			Name:   naming.Upcast(d.Base.Name),
			Owner:  s,
			Return: decl.PointerTo(d.Base),
			Flags:  decl.FlagConstMethod,
		}
		add(entry{role: roleUpcast, base: i, fn: g.function(fn.Name, s, remap.Request{Func: fn, Kind: remap.TypecastOperator})})
	}
	for i, d := range s.Bases {
		// A pointer to a virtual base cannot be cast back statically.
		if !d.Downcast || d.Virtual {
			continue
		}
		fn := &decl.Function{
			Name:   naming.Downcast(s.Name, d.Base.Name),
			Owner:  s,
			Return: decl.PointerTo(s),
			Params: []decl.Param{{Name: "ptr", Type: decl.PointerTo(d.Base)}},
			Flags:  decl.FlagStatic,
		}
		add(entry{role: roleDowncast, base: i, fn: g.function(fn.Name, s, remap.Request{Func: fn, Kind: remap.TypecastOperator})})
	}

	for _, e := range s.Elements {
		a := g.planAccessors(e)
		add(entry{role: roleGetter, elem: e, fn: a.getter})
		add(entry{role: roleSetter, elem: e, fn: a.setter})
	}

	for _, n := range s.Nested {
		tp.nested = append(tp.nested, g.planType(n))
	}
	return tp
}

// planAccessors synthesizes the getter and setter of a data member or
// global variable.
func (g *run) planAccessors(e *decl.Element) accessorPlan {
	a := accessorPlan{elem: e}
	expr := e.Name
	var flags, getterFlags decl.FuncFlags
	switch {
	case e.Owner == nil:
	case e.Static:
		expr = e.ScopedName()
		flags = decl.FlagStatic
		getterFlags = decl.FlagStatic
	default:
		getterFlags = decl.FlagConstMethod
	}

	ret := e.Type
	arr := decl.AsArray(e.Type)
	if arr != nil {
		// A const receiver only yields const elements.
		if getterFlags.Has(decl.FlagConstMethod) && !decl.IsConst(arr.Of) {
			ret = decl.PointerTo(decl.ConstOf(arr.Of))
		} else {
			ret = decl.PointerTo(arr.Of)
		}
	}
	getter := &decl.Function{Name: naming.Getter(e.Name), Owner: e.Owner, Return: ret, Flags: getterFlags, Comment: e.Comment}
	a.getter = g.function(getter.Name, e.Owner, remap.Request{Func: getter, Kind: remap.Getter, Expression: expr})

	if e.ReadOnly || decl.IsConst(e.Type) || (arr != nil && !decl.IsSimpleArray(e.Type)) {
		return a
	}
	setter := &decl.Function{
		Name:    naming.Setter(e.Name),
		Owner:   e.Owner,
		Return:  decl.VoidType(),
		Params:  []decl.Param{{Name: "value", Type: e.Type}},
		Flags:   flags,
		Comment: e.Comment,
	}
	a.setter = g.function(setter.Name, e.Owner, remap.Request{Func: setter, Kind: remap.Setter, Expression: expr})
	return a
}

// function classifies a single callable into its own function, or
// returns nil when nothing could be wrapped.
func (g *run) function(name string, owner *decl.Struct, req remap.Request) *overload.Function {
	f := overload.NewFunction(name, owner)
	g.addRemaps(f, req)
	if f.Empty() {
		return nil
	}
	return f
}

// groupByName groups callables by name in order of first appearance.
func groupByName(fns []*decl.Function) [][]*decl.Function {
	var groups [][]*decl.Function
	at := map[string]int{}
	for _, fn := range fns {
		i, ok := at[fn.Name]
		if !ok {
			i = len(groups)
			at[fn.Name] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], fn)
	}
	return groups
}
