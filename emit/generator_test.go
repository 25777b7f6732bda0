package emit

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"

	"github.com/chazu/interrogate/decl"
	"github.com/chazu/interrogate/manifest"
	"github.com/chazu/interrogate/metadb"
)

// fixture builds a small unit by hand so that every record can be
// asserted exactly.
func fixture() *decl.Unit {
	str := &decl.Struct{Name: "string", Scope: "std", Role: decl.RoleString}
	rc := &decl.Struct{Name: "ReferenceCount", Role: decl.RoleRefCountBase}

	shape := &decl.Struct{Name: "Shape", Bases: []decl.Derivation{{Base: rc, Upcast: true}}}
	shape.Methods = []*decl.Function{
		{Name: "get_name", Owner: shape, Return: decl.RefTo(decl.ConstOf(str)), Flags: decl.FlagConstMethod},
		{Name: "area", Owner: shape, Return: tFloat, Flags: decl.FlagConstMethod | decl.FlagVirtual},
	}

	circle := &decl.Struct{Name: "Circle", Bases: []decl.Derivation{{Base: shape, Upcast: true, Downcast: true}}}
	circle.Constructors = []*decl.Function{{Name: "Circle", Owner: circle, Flags: decl.FlagConstructor,
		Params: []decl.Param{{Name: "radius", Type: tFloat, Default: "1"}}}}
	circle.Elements = []*decl.Element{{Name: "radius", Owner: circle, Type: tFloat, ReadOnly: true}}

	mesh := &decl.Struct{Name: "Mesh", Bases: []decl.Derivation{{Base: shape, Upcast: true, Downcast: true, Virtual: true}}}

	list := &decl.Struct{Name: "FloatList"}
	list.Methods = []*decl.Function{
		{Name: "size", Owner: list, Return: decl.Builtin{Kind: decl.SizeT}, Flags: decl.FlagConstMethod},
		{Name: "operator []", Owner: list, Return: tFloat, Flags: decl.FlagConstMethod,
			Params: []decl.Param{{Name: "n", Type: tInt}}},
		{Name: "operator []", Owner: list, Return: decl.RefTo(tFloat),
			Params: []decl.Param{{Name: "n", Type: tInt}}},
	}

	visitor := &decl.Struct{Name: "Visitor", Incomplete: true}

	return &decl.Unit{
		Library: "libgeom",
		Types:   []decl.Type{rc, shape, circle, mesh, list},
		Functions: []*decl.Function{
			{Name: "make_circle", Return: decl.PointerTo(circle), Params: []decl.Param{{Name: "radius", Type: tFloat}}},
			{Name: "accept", Return: tVoid, Params: []decl.Param{{Name: "v", Type: visitor}}},
			{Name: "tick", Return: visitor},
		},
		Manifests: []*decl.Manifest{
			{Name: "GEOM_VERSION", Definition: "2", Type: tInt},
			{Name: "GEOM_DEBUG"},
		},
		Elements: []*decl.Element{
			{Name: "gravity", Type: tFloat, Comment: "// Downward acceleration."},
		},
	}
}

func generate(t *testing.T, cfg manifest.GenerationConfig, unit *decl.Unit) *Result {
	t.Helper()
	b, err := NewBinding("c", cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := NewGenerator(cfg, b).Generate(unit)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return res
}

func functionNamed(t *testing.T, db *metadb.Database, scoped string) *metadb.FunctionRecord {
	t.Helper()
	for _, f := range db.Functions() {
		if f.ScopedName == scoped {
			return f
		}
	}
	t.Fatalf("no function record %s", scoped)
	return nil
}

func typeNamed(t *testing.T, db *metadb.Database, name string) *metadb.TypeRecord {
	t.Helper()
	i, ok := db.TypeNamed(name)
	if !ok {
		t.Fatalf("no type record %s", name)
	}
	rec, _ := db.Type(i)
	return rec
}

func TestGenerate_FunctionOrder(t *testing.T) {
	res := generate(t, manifest.DefaultGenerationConfig(), fixture())

	var got []string
	for _, f := range res.Database.Functions() {
		got = append(got, f.ScopedName)
	}
	want := []string{
		"ReferenceCount::~ReferenceCount",
		"Shape::~Shape",
		"Shape::get_name",
		"Shape::area",
		"Shape::upcast_to_ReferenceCount",
		"Circle::Circle",
		"Circle::~Circle",
		"Circle::upcast_to_Shape",
		"Circle::downcast_to_Circle_from_Shape",
		"Circle::get_radius",
		"Mesh::~Mesh",
		"Mesh::upcast_to_Shape",
		"FloatList::~FloatList",
		"FloatList::size",
		"FloatList::operator []",
		"make_circle",
		"tick",
		"get_GEOM_VERSION",
		"get_gravity",
		"set_gravity",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("function records (-want +got):\n%s", diff)
	}
}

func TestGenerate_Records(t *testing.T) {
	res := generate(t, manifest.DefaultGenerationConfig(), fixture())
	db := res.Database

	circle := typeNamed(t, db, "Circle")
	if !circle.Wrapped || len(circle.Constructors) != 1 || len(circle.Derivations) != 1 {
		t.Fatalf("Circle record: %+v", circle)
	}
	if d := circle.Derivations[0]; d.Upcast != functionNamed(t, db, "Circle::upcast_to_Shape").Index ||
		d.Downcast != functionNamed(t, db, "Circle::downcast_to_Circle_from_Shape").Index {
		t.Errorf("Circle derivation: %+v", d)
	}
	if ctor := functionNamed(t, db, "Circle::Circle"); len(ctor.Wrappers) != 2 {
		t.Errorf("default argument should give 2 constructor wrappers, got %d", len(ctor.Wrappers))
	}

	mesh := typeNamed(t, db, "Mesh")
	if d := mesh.Derivations[0]; !d.Virtual || d.Upcast == metadb.NoIndex || d.Downcast != metadb.NoIndex {
		t.Errorf("virtual base should be upcast only: %+v", d)
	}

	if len(circle.Elements) != 1 {
		t.Fatalf("Circle elements: %v", circle.Elements)
	}
	radius, _ := db.Element(circle.Elements[0])
	if radius.Getter == metadb.NoIndex || radius.Setter != metadb.NoIndex {
		t.Errorf("read-only element should have a getter only: %+v", radius)
	}

	list := typeNamed(t, db, "FloatList")
	if diff := cmp.Diff([]string{"sequence"}, list.Protocols); diff != "" {
		t.Errorf("FloatList protocols (-want +got):\n%s", diff)
	}

	manifests := db.Manifests()
	if len(manifests) != 2 {
		t.Fatalf("expected 2 manifests, got %d", len(manifests))
	}
	if manifests[0].Getter == metadb.NoIndex || manifests[0].Type == metadb.NoIndex {
		t.Errorf("typed manifest should have a getter: %+v", manifests[0])
	}
	if manifests[1].Getter != metadb.NoIndex || manifests[1].Type != metadb.NoIndex {
		t.Errorf("untyped manifest should have no getter: %+v", manifests[1])
	}

	elems := db.Elements()
	gravity := elems[len(elems)-1]
	if gravity.Name != "gravity" || gravity.Comment != "Downward acceleration." ||
		gravity.Getter == metadb.NoIndex || gravity.Setter == metadb.NoIndex {
		t.Errorf("global element: %+v", gravity)
	}
}

func TestGenerate_ManagedReturns(t *testing.T) {
	res := generate(t, manifest.DefaultGenerationConfig(), fixture())
	db := res.Database

	mk := functionNamed(t, db, "make_circle")
	w, _ := db.Wrapper(mk.Wrappers[0])
	dtor := functionNamed(t, db, "Circle::~Circle")
	if !w.CallerManages || w.Destructor != dtor.Index {
		t.Errorf("make_circle wrapper: manages=%v destructor=%d, want destructor %d", w.CallerManages, w.Destructor, dtor.Index)
	}
	if len(dtor.Wrappers) != 1 || !dtor.IsMethod {
		t.Errorf("destructor record: %+v", dtor)
	}

	name := functionNamed(t, db, "Shape::get_name")
	nw, _ := db.Wrapper(name.Wrappers[0])
	if !nw.ReturnsAtomicString() {
		t.Errorf("get_name should return an atomic string, got index %d", nw.Return)
	}
	if len(nw.Params) != 1 || !nw.Params[0].IsReceiver {
		t.Errorf("get_name params: %+v", nw.Params)
	}
	if got, ok := db.LookupWrapper(nw.UniqueName); !ok || got.Index != nw.Index {
		t.Errorf("LookupWrapper(%s) = %v, %v; want index %d", nw.UniqueName, got, ok, nw.Index)
	}
}

func TestGenerate_SkippedAndForcedVoid(t *testing.T) {
	res := generate(t, manifest.DefaultGenerationConfig(), fixture())
	s := res.Summary
	if len(s.Skipped) != 1 || s.Skipped[0].Func.Name != "accept" {
		t.Fatalf("skipped: %v", s.Skipped)
	}
	if s.ForcedVoid != 1 {
		t.Errorf("ForcedVoid = %d, want 1", s.ForcedVoid)
	}
	tick := functionNamed(t, res.Database, "tick")
	if w, _ := res.Database.Wrapper(tick.Wrappers[0]); w.HasReturn {
		t.Errorf("tick should be wrapped returning void: %+v", w)
	}

	var buf bytes.Buffer
	s.WriteSkipped(&buf)
	if !strings.Contains(buf.String(), "accept") {
		t.Errorf("WriteSkipped: %q", buf.String())
	}
}

func TestGenerate_BoundsChecks(t *testing.T) {
	res := generate(t, manifest.DefaultGenerationConfig(), fixture())
	body := res.Sink.Bodies.String()
	if n := strings.Count(body, ">= (param0)->size()) {"); n != 2 {
		t.Errorf("expected bounds checks on both item wrappers, got %d", n)
	}
	if !strings.Contains(body, "unref_delete(param0);") {
		t.Error("reference-counted destructors should unref")
	}
}

func TestGenerate_Names(t *testing.T) {
	res := generate(t, manifest.DefaultGenerationConfig(), fixture())
	prefix := "_inC" + res.Database.LibraryHash
	seen := map[string]bool{}
	for _, w := range res.Database.Wrappers() {
		if !strings.HasPrefix(w.Name, prefix) {
			t.Errorf("wrapper name %s lacks prefix %s", w.Name, prefix)
		}
		if seen[w.Name] {
			t.Errorf("wrapper name %s assigned twice", w.Name)
		}
		seen[w.Name] = true
		if !strings.Contains(res.Sink.Prototypes.String(), " "+w.Name+"(") &&
			!strings.Contains(res.Sink.Prototypes.String(), "*"+w.Name+"(") {
			t.Errorf("no prototype for %s", w.Name)
		}
	}
}

func TestGenerate_ArrayMemberGetter(t *testing.T) {
	particle := &decl.Struct{Name: "Particle"}
	particle.Elements = []*decl.Element{{Name: "pos", Owner: particle, Type: &decl.Array{Of: tFloat, Bound: 3}}}
	res := generate(t, manifest.DefaultGenerationConfig(), &decl.Unit{Library: "libfx", Types: []decl.Type{particle}})

	getter := functionNamed(t, res.Database, "Particle::get_pos")
	w, _ := res.Database.Wrapper(getter.Wrappers[0])
	want := "static const float *" + w.Name + "(const Particle *param0);\n"
	if !strings.Contains(res.Sink.Prototypes.String(), want) {
		t.Errorf("getter prototype missing %q in:\n%s", want, res.Sink.Prototypes.String())
	}
	if !strings.Contains(res.Sink.Bodies.String(), "  return (param0)->pos;\n") {
		t.Errorf("getter body:\n%s", res.Sink.Bodies.String())
	}
	setter := functionNamed(t, res.Database, "Particle::set_pos")
	if len(setter.Wrappers) != 1 {
		t.Errorf("setter wrappers: %v", setter.Wrappers)
	}
}

func TestGenerate_TrueNames(t *testing.T) {
	cfg := manifest.DefaultGenerationConfig()
	cfg.TrueNames = true
	res := generate(t, cfg, fixture())
	if f := functionNamed(t, res.Database, "Shape::get_name"); f.Name != "Shape_get_name" {
		t.Errorf("reported name = %q", f.Name)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := manifest.DefaultGenerationConfig()
	a := generate(t, cfg, fixture())
	b := generate(t, cfg, fixture())

	if a.Sink.Bodies.String() != b.Sink.Bodies.String() {
		t.Error("bodies differ between runs")
	}
	if a.Sink.Prototypes.String() != b.Sink.Prototypes.String() {
		t.Error("prototypes differ between runs")
	}
	ea, err := a.Database.Encode()
	if err != nil {
		t.Fatal(err)
	}
	eb, err := b.Database.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ea, eb) {
		t.Error("databases differ between runs")
	}
}

func loadArchive(t *testing.T, path string) *decl.Unit {
	t.Helper()
	ar, err := txtar.ParseFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	var srcs []decl.Source
	for _, f := range ar.Files {
		srcs = append(srcs, decl.Source{Name: f.Name, Data: f.Data})
	}
	unit, err := decl.LoadSources(srcs...)
	if err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	return unit
}

func TestGenerate_Golden(t *testing.T) {
	cfg := manifest.DefaultGenerationConfig()
	cfg.AssertChecks = true
	res := generate(t, cfg, loadArchive(t, "testdata/geometry.txtar"))

	s := res.Summary
	if s.Library != "libgeom" || s.Binding != "c" {
		t.Errorf("summary header: %s", s)
	}
	if s.Wrappers == 0 || s.Wrappers != len(res.Database.Wrappers()) {
		t.Errorf("summary counts %d wrappers, database has %d", s.Wrappers, len(res.Database.Wrappers()))
	}
	if len(s.Skipped) != 1 || s.ForcedVoid != 1 {
		t.Errorf("skipped=%d forced void=%d", len(s.Skipped), s.ForcedVoid)
	}

	body := res.Sink.Bodies.String()
	proto := res.Sink.Prototypes.String()
	updateGolden(t, "testdata/geometry.c.golden", body)
	updateGolden(t, "testdata/geometry.h.golden", proto)
	compareGolden(t, "testdata/geometry.c.golden", body)
	compareGolden(t, "testdata/geometry.h.golden", proto)
}

func TestSummaryString(t *testing.T) {
	s := &Summary{Library: "libgeom", Binding: "c", Types: 12, Functions: 1200, Wrappers: 2500, PrototypeBytes: 1000, BodyBytes: 500}
	want := "libgeom (c binding): 2,500 wrappers for 1,200 functions over 12 types, 0 skipped, 1.5 kB of code"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestSinkWriteFiles(t *testing.T) {
	dir := t.TempDir()
	var s Sink
	s.Prototypes.WriteString("int f(void);\n")
	s.Bodies.WriteString("int f(void) { return 0; }\n")
	if err := s.WriteFiles(filepath.Join(dir, "w.h"), filepath.Join(dir, "w.cxx")); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "w.cxx"))
	if err != nil || string(got) != s.Bodies.String() {
		t.Errorf("body file = %q, %v", got, err)
	}

	missing := filepath.Join(dir, "no", "such", "dir")
	err = s.WriteFiles(filepath.Join(missing, "w.h"), filepath.Join(missing, "w.cxx"))
	if err == nil || !strings.Contains(err.Error(), "2 errors") {
		t.Errorf("expected both writes to fail, got %v", err)
	}
}

func updateGolden(t *testing.T, path, content string) {
	t.Helper()
	if os.Getenv("UPDATE_GOLDEN") == "" {
		return
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating testdata dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("updating golden file: %v", err)
	}
}

func compareGolden(t *testing.T, path, got string) {
	t.Helper()
	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Logf("Golden file %s does not exist. Run with UPDATE_GOLDEN=1 to create.", path)
		return
	}
	if err != nil {
		t.Fatalf("reading golden file: %v", err)
	}
	if string(expected) != got {
		t.Errorf("output differs from golden file %s.\nRun with UPDATE_GOLDEN=1 to update.", path)
	}
}
