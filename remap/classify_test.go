package remap

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/interrogate/convert"
	"github.com/chazu/interrogate/decl"
	"github.com/chazu/interrogate/manifest"
)

func paramStrategies(r *Remap) []convert.Strategy {
	var out []convert.Strategy
	for _, p := range r.Params {
		out = append(out, p.Conv.Strategy())
	}
	return out
}

func TestScenarioA_PointAccessors(t *testing.T) {
	point := &decl.Struct{Name: "Point"}
	getX := method(point, "get_x", tFloat, decl.FlagConstMethod)
	setX := method(point, "set_x", tVoid, 0, param("x", tFloat))

	g := classify(t, getX, 0)
	if g.Kind != Normal || !g.HasReceiver || !g.ReceiverConst {
		t.Errorf("get_x: kind=%s receiver=%v const=%v", g.Kind, g.HasReceiver, g.ReceiverConst)
	}
	if g.NumArgs() != 0 || g.Return.Strategy() != convert.Unchanged || !decl.IsFloat(g.Return.NewType()) {
		t.Errorf("get_x: args=%d return=%s", g.NumArgs(), g.Return.Strategy())
	}
	if g.Args != NoArgs || g.Flags != 0 {
		t.Errorf("get_x: shape=%s flags=%s", g.Args, g.Flags)
	}

	s := classify(t, setX, 0)
	if s.Kind != Normal || !s.HasReceiver || s.ReceiverConst {
		t.Errorf("set_x: kind=%s receiver=%v const=%v", s.Kind, s.HasReceiver, s.ReceiverConst)
	}
	want := []convert.Strategy{convert.ThisPointer, convert.Unchanged}
	if diff := cmp.Diff(want, paramStrategies(s)); diff != "" {
		t.Errorf("set_x params (-want +got):\n%s", diff)
	}
	if !s.ReturnsVoid() || s.Args != SingleArg {
		t.Errorf("set_x: void=%v shape=%s", s.ReturnsVoid(), s.Args)
	}
}

func TestScenarioB_BinaryOperator(t *testing.T) {
	vec := &decl.Struct{Name: "Vec3"}
	add := method(vec, "operator +", vec, decl.FlagConstMethod, param("other", decl.RefTo(decl.ConstOf(vec))))

	r := classify(t, add, 0)
	if r.Kind != Normal {
		t.Errorf("kind = %s, want normal", r.Kind)
	}
	if r.Flags != 0 {
		t.Errorf("flags = %s, want none", r.Flags)
	}
	if r.Args != SingleArg {
		t.Errorf("shape = %s, want single-arg", r.Args)
	}
	if r.Return.Strategy() != convert.ConcreteToPointer || !r.ReturnNeedsManagement {
		t.Errorf("return = %s managed=%v", r.Return.Strategy(), r.ReturnNeedsManagement)
	}
	if r.ReturnDestructor != vec.DestructorFunc() {
		t.Error("by-value return should be released with Vec3's destructor")
	}
}

func TestScenarioC_ItemAssignment(t *testing.T) {
	arr := &decl.Struct{Name: "IntArray"}
	index := method(arr, "operator []", decl.RefTo(tInt), 0, param("n", tInt))

	r := classify(t, index, 0)
	if r.Kind != ItemAssignmentOperator {
		t.Fatalf("kind = %s, want item-assignment-operator", r.Kind)
	}
	if len(r.Params) != 3 {
		t.Fatalf("params = %d, want 3", len(r.Params))
	}
	last := r.Params[2]
	if last.Name != "assign_val" || last.Conv.Strategy() != convert.ReferenceToConcrete {
		t.Errorf("assigned value: name=%q strategy=%s", last.Name, last.Conv.Strategy())
	}
	if !r.ReturnsVoid() {
		t.Error("item assignment returns nothing")
	}
	if want := FlagsOf(FlagSetItem, FlagSetItemInt); r.Flags != want {
		t.Errorf("flags = %s, want %s", r.Flags, want)
	}
	if r.Args != VarArgs {
		t.Errorf("shape = %s, want var-args", r.Args)
	}
}

func TestScenarioD_GlobalFunction(t *testing.T) {
	sum := &decl.Function{Name: "global_sum", Return: tInt, Params: []decl.Param{param("a", tInt), param("b", tInt)}}
	r := classify(t, sum, 0)
	if r.Kind != Normal || r.HasReceiver {
		t.Errorf("kind=%s receiver=%v", r.Kind, r.HasReceiver)
	}
	if diff := cmp.Diff([]convert.Strategy{convert.Unchanged, convert.Unchanged}, paramStrategies(r)); diff != "" {
		t.Errorf("params (-want +got):\n%s", diff)
	}
	if r.Return.Strategy() != convert.Unchanged || !decl.IsInteger(r.Return.NewType()) {
		t.Errorf("return = %s", r.Return.Strategy())
	}
	if r.Args != KeywordArgs {
		t.Errorf("shape = %s, want keyword-args", r.Args)
	}
}

func TestParameterCountWithDefaults(t *testing.T) {
	node := &decl.Struct{Name: "Node"}
	fn := method(node, "find", decl.PointerTo(node), decl.FlagConstMethod,
		param("name", tInt),
		decl.Param{Name: "depth", Type: tInt, Default: "1"},
		decl.Param{Name: "flags", Type: tInt, Default: "0"},
	)
	for n := 0; n <= 2; n++ {
		r := classify(t, fn, n)
		if want := 1 + 3 - n; len(r.Params) != want {
			t.Errorf("NumDefaults=%d: params = %d, want %d", n, len(r.Params), want)
		}
	}
	if _, err := newClassifier(allOn).Classify(Request{Func: fn, NumDefaults: 3}); err == nil {
		t.Error("expected error leaving off a non-default parameter")
	}
}

func TestAssignmentOperator(t *testing.T) {
	vec := &decl.Struct{Name: "Vec3"}
	// The declared return type is ignored.
	addAssign := method(vec, "operator +=", tVoid, 0, param("other", decl.RefTo(decl.ConstOf(vec))))
	divAssign := method(vec, "operator /=", decl.RefTo(vec), 0, param("s", tFloat))

	r := classify(t, addAssign, 0)
	if r.Kind != AssignmentOperator {
		t.Fatalf("kind = %s, want assignment-operator", r.Kind)
	}
	if got := r.Return.OrigType().Spelling(); got != "Vec3 &" {
		t.Errorf("return conversion over %q, want Vec3 &", got)
	}
	if r.Return.Strategy() != convert.ReferenceToPointer {
		t.Errorf("return strategy = %s", r.Return.Strategy())
	}

	d := classify(t, divAssign, 0)
	if !d.Flags.Has(FlagDivideFloat) {
		t.Errorf("operator /= with float: flags = %s", d.Flags)
	}
}

func TestDispatchTable(t *testing.T) {
	node := &decl.Struct{Name: "Node"}
	ptr := decl.PointerTo(node)
	tests := []struct {
		fn    *decl.Function
		flags Flags
		shape ArgsShape
	}{
		{method(node, "operator []", ptr, decl.FlagConstMethod, param("n", tInt)), FlagsOf(FlagGetItem, FlagGetItemInt), SingleArg},
		{method(node, "__getitem__", ptr, decl.FlagConstMethod, param("key", ptr)), FlagsOf(FlagGetItem), SingleArg},
		{method(node, "__setitem__", tVoid, 0, param("n", tInt), param("v", ptr)), FlagsOf(FlagSetItem, FlagSetItemInt), VarArgs},
		{method(node, "__setitem__", tVoid, 0, param("k", ptr), param("v", ptr)), FlagsOf(FlagSetItem), VarArgs},
		{method(node, "__delitem__", tVoid, 0, param("n", tInt)), FlagsOf(FlagDelItem, FlagDelItemInt), SingleArg},
		{method(node, "size", tSizeT, decl.FlagConstMethod), FlagsOf(FlagSize), NoArgs},
		{method(node, "__len__", tInt, decl.FlagConstMethod), FlagsOf(FlagSize), NoArgs},
		{method(node, "size", tFloat, decl.FlagConstMethod), 0, NoArgs},
		{method(node, "make_copy", ptr, decl.FlagConstMethod), FlagsOf(FlagMakeCopy), NoArgs},
		{method(node, "__iter__", ptr, 0), FlagsOf(FlagIterate), NoArgs},
		{method(node, "compare_to", tInt, decl.FlagConstMethod, param("o", ptr)), FlagsOf(FlagCompareTo), SingleArg},
		{method(node, "make", ptr, decl.FlagStatic, param("a", tInt), param("b", tInt)), FlagsOf(FlagCoerceConstructor), VarArgs},
		{method(node, "operator /", ptr, decl.FlagConstMethod, param("s", tFloat)), FlagsOf(FlagDivideFloat), SingleArg},
		{method(node, "operator /", ptr, decl.FlagConstMethod, param("s", tInt)), 0, SingleArg},
		{method(node, "get_hash", tSizeT, decl.FlagConstMethod), FlagsOf(FlagHash), NoArgs},
		{method(node, "get_key", tInt, decl.FlagConstMethod), FlagsOf(FlagHash), NoArgs},
		{method(node, "operator ()", tVoid, 0), 0, KeywordArgs},
		{method(node, "__getattr__", ptr, 0, param("a", tInt), param("b", tInt)), 0, VarArgs},
		{method(node, "reparent", tVoid, 0, param("a", ptr), param("b", tInt)), 0, KeywordArgs},
	}
	for _, tt := range tests {
		t.Run(tt.fn.Prototype(), func(t *testing.T) {
			r := classify(t, tt.fn, 0)
			if r.Flags != tt.flags {
				t.Errorf("flags = %s, want %s", r.Flags, tt.flags)
			}
			if r.Args != tt.shape {
				t.Errorf("shape = %s, want %s", r.Args, tt.shape)
			}
		})
	}
}

func TestConstructorFlags(t *testing.T) {
	vec := &decl.Struct{Name: "Vec3"}
	tests := []struct {
		fn    *decl.Function
		flags Flags
	}{
		{ctor(vec, 0), 0},
		{ctor(vec, 0, param("other", decl.RefTo(decl.ConstOf(vec)))), FlagsOf(FlagCopyConstructor)},
		{ctor(vec, 0, param("other", &decl.Reference{To: vec, RValue: true})), 0},
		{ctor(vec, 0, param("fill", tFloat)), FlagsOf(FlagCoerceConstructor)},
		{ctor(vec, decl.FlagExplicit, param("fill", tFloat)), 0},
	}
	for _, tt := range tests {
		t.Run(tt.fn.Prototype(), func(t *testing.T) {
			r := classify(t, tt.fn, 0)
			if r.Kind != Constructor || r.HasReceiver {
				t.Errorf("kind=%s receiver=%v", r.Kind, r.HasReceiver)
			}
			if r.Flags != tt.flags {
				t.Errorf("flags = %s, want %s", r.Flags, tt.flags)
			}
			if r.Args != KeywordArgs {
				t.Errorf("shape = %s, want keyword-args", r.Args)
			}
			if !r.ReturnNeedsManagement || r.ReturnDestructor != vec.DestructorFunc() {
				t.Error("constructed instances are owned by the caller")
			}
			if got := r.Return.NewType().Spelling(); got != "Vec3 *" {
				t.Errorf("return type = %q", got)
			}
		})
	}
}

func TestForcedVoidReturn(t *testing.T) {
	s := &decl.Struct{Name: "Widget"}
	opaque := &decl.Struct{Name: "Opaque", Incomplete: true}
	fn := method(s, "get_impl", opaque, decl.FlagConstMethod)

	r := classify(t, fn, 0)
	if !r.ForcedVoid || !r.ReturnsVoid() {
		t.Errorf("forced=%v void=%v", r.ForcedVoid, r.ReturnsVoid())
	}
	if r.ReturnNeedsManagement {
		t.Error("forced-void returns are never managed")
	}
}

func TestSkipInvalidParameter(t *testing.T) {
	s := &decl.Struct{Name: "Widget"}
	cb, _ := decl.ParseType("void (*)(int)", nil)
	fn := method(s, "set_callback", tVoid, 0, param("cb", cb))

	_, err := newClassifier(allOn).Classify(Request{Func: fn})
	var skip *SkipError
	if !errors.As(err, &skip) {
		t.Fatalf("expected *SkipError, got %v", err)
	}
	if skip.Func != fn {
		t.Error("skip error should name the function")
	}

	traverse := method(s, "__traverse__", tInt, 0, param("visit", cb), param("arg", decl.PointerTo(tVoid)))
	r := classify(t, traverse, 0)
	if r.Params[1].Conv.Strategy() != convert.Unchanged {
		t.Errorf("traversal hook parameter kept as %s", r.Params[1].Conv.Strategy())
	}
}

func TestSkipMutableStringReference(t *testing.T) {
	str := &decl.Struct{Name: "string", Scope: "std", Role: decl.RoleString}
	fn := &decl.Function{Name: "read_line", Return: tVoid, Params: []decl.Param{param("out", decl.RefTo(str))}}
	if _, err := newClassifier(allOn).Classify(Request{Func: fn}); err == nil {
		t.Error("expected mutable string reference to be rejected")
	}
	// Without string conversion the reference is an ordinary pointer.
	r, err := newClassifier(manifest.GenerationConfig{}).Classify(Request{Func: fn})
	if err != nil {
		t.Fatal(err)
	}
	if r.Params[0].Conv.Strategy() != convert.ReferenceToPointer {
		t.Errorf("strategy = %s", r.Params[0].Conv.Strategy())
	}
}

func TestRefCountManagement(t *testing.T) {
	node := &decl.Struct{Name: "Node", RefCounted: true}
	locked := &decl.Struct{Name: "Locked", RefCounted: true, ProtectedDestructor: true}
	getChild := method(node, "get_child", decl.PointerTo(node), decl.FlagConstMethod)
	getLocked := method(node, "get_locked", decl.PointerTo(locked), decl.FlagConstMethod)

	r := classify(t, getChild, 0)
	if !r.ManageRefCount || !r.ReturnNeedsManagement || r.ReturnDestructor != node.DestructorFunc() {
		t.Errorf("managed=%v needs=%v dtor=%v", r.ManageRefCount, r.ReturnNeedsManagement, r.ReturnDestructor)
	}

	l := classify(t, getLocked, 0)
	if l.ManageRefCount || l.ReturnNeedsManagement {
		t.Error("protected destructors keep the return unmanaged")
	}

	off, err := newClassifier(manifest.GenerationConfig{}).Classify(Request{Func: getChild})
	if err != nil {
		t.Fatal(err)
	}
	if off.ManageRefCount {
		t.Error("reference counting disabled")
	}
}

func TestConstructorWithProtectedDestructor(t *testing.T) {
	sealed := &decl.Struct{Name: "Sealed", ProtectedDestructor: true}
	r := classify(t, ctor(sealed, 0), 0)
	if !r.ReturnNeedsManagement || r.ReturnDestructor != nil {
		t.Errorf("needs=%v dtor=%v, want a managed return without a destructor", r.ReturnNeedsManagement, r.ReturnDestructor)
	}
}

func TestExplicitSelf(t *testing.T) {
	handle := &decl.Struct{Name: "PyObject", Role: decl.RoleHostObject}
	node := &decl.Struct{Name: "Node"}
	fn := method(node, "__reduce__", decl.PointerTo(handle), decl.FlagConstMethod,
		param("self", decl.PointerTo(handle)), param("proto", tInt))

	policy := &testPolicy{table: convert.NewTable(allOn), self: decl.PointerTo(handle)}
	r, err := NewClassifier(policy, allOn).Classify(Request{Func: fn})
	if err != nil {
		t.Fatal(err)
	}
	if !r.Flags.Has(FlagExplicitSelf) {
		t.Error("expected explicit-self flag")
	}
	if r.NumArgs() != 1 || r.Arg(0).Name != "proto" {
		t.Errorf("self should be removed: args=%d", r.NumArgs())
	}

	plain := classify(t, fn, 0)
	if plain.Flags.Has(FlagExplicitSelf) || plain.NumArgs() != 2 {
		t.Error("bindings without a handle type keep self")
	}
}

func TestRequestedKinds(t *testing.T) {
	base := &decl.Struct{Name: "Base"}
	derived := &decl.Struct{Name: "Derived", Bases: []decl.Derivation{{Base: base, Upcast: true}}}
	up := &decl.Function{Name: "upcast_to_Base", Owner: derived, Return: decl.PointerTo(base), Flags: decl.FlagConstMethod}
	r, err := newClassifier(allOn).Classify(Request{Func: up, Kind: TypecastOperator})
	if err != nil {
		t.Fatal(err)
	}
	if r.Kind != TypecastOperator || !r.HasReceiver {
		t.Errorf("kind=%s receiver=%v", r.Kind, r.HasReceiver)
	}

	cast := &decl.Function{Name: "operator float", Owner: derived, Return: tFloat, Flags: decl.FlagTypecast | decl.FlagConstMethod}
	if c := classify(t, cast, 0); c.Kind != TypecastMethod {
		t.Errorf("typecast operator kind = %s", c.Kind)
	}

	dtor := derived.DestructorFunc()
	if d := classify(t, dtor, 0); d.Kind != Destructor || !d.HasReceiver || !d.ReturnsVoid() {
		t.Errorf("destructor kind=%s receiver=%v", d.Kind, d.HasReceiver)
	}
}

func TestSignatureDistinguishesOverloads(t *testing.T) {
	vec := &decl.Struct{Name: "Vec3"}
	a := classify(t, method(vec, "scale", tVoid, 0, param("s", tFloat)), 0)
	b := classify(t, method(vec, "scale", tVoid, 0, param("s", tInt)), 0)
	c := classify(t, method(vec, "scale", tVoid, 0, param("factor", tFloat)), 0)
	if a.Signature() == b.Signature() {
		t.Error("different parameter types should give different signatures")
	}
	if a.Signature() != c.Signature() {
		t.Error("parameter names should not affect the signature")
	}
}
