package emit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/interrogate/decl"
	"github.com/chazu/interrogate/manifest"
	"github.com/chazu/interrogate/metadb"
	"github.com/chazu/interrogate/overload"
	"github.com/chazu/interrogate/remap"
)

// Generator produces the wrappers of a unit for one binding.
type Generator struct {
	cfg     manifest.GenerationConfig
	binding Binding
}

// NewGenerator returns a generator for binding under cfg.
func NewGenerator(cfg manifest.GenerationConfig, binding Binding) *Generator {
	return &Generator{cfg: cfg, binding: binding}
}

// Result is the output of one generation run.
type Result struct {
	Sink     *Sink
	Database *metadb.Database
	Summary  *Summary
}

// run is the state of one Generate call.
type run struct {
	cfg        manifest.GenerationConfig
	binding    Binding
	classifier *remap.Classifier
	db         *metadb.Database
	sink       *Sink
	summary    *Summary

	// memo holds the remaps of every callable classified so far. A
	// callable reached a second time contributes nothing.
	memo  map[*decl.Function][]*remap.Remap
	dtors map[*decl.Function]metadb.Index
	err   error
}

// Generate classifies, names and emits every wrapper of unit. Skipped
// callables never fail the run; only internal inconsistencies do.
func (g *Generator) Generate(unit *decl.Unit) (*Result, error) {
	r := &run{
		cfg:        g.cfg,
		binding:    g.binding,
		classifier: remap.NewClassifier(g.binding, g.cfg),
		db:         metadb.New(unit.Library),
		sink:       &Sink{},
		summary:    &Summary{Library: unit.Library, Binding: g.binding.Name()},
		memo:       map[*decl.Function][]*remap.Remap{},
		dtors:      map[*decl.Function]metadb.Index{},
	}

	p := r.planUnit(unit)
	if r.err != nil {
		return nil, r.err
	}

	namer := overload.Namer{
		Library:       r.db.LibraryHash,
		WrapperPrefix: g.binding.WrapperNamePrefix(),
		UniquePrefix:  g.binding.UniqueNamePrefix(),
		TrueNames:     g.cfg.TrueNames,
	}
	if err := namer.AssignNames(p.remaps()); err != nil {
		return nil, err
	}

	g.binding.WritePrologue(r.sink, unit.Library)
	r.emit(p)
	if r.err != nil {
		return nil, r.err
	}

	r.summary.count(r.db, r.sink)
	return &Result{Sink: r.sink, Database: r.db, Summary: r.summary}, nil
}

func (g *run) check(err error) {
	if err != nil && g.err == nil {
		g.err = err
	}
}

// addRemaps classifies fn at every arity its default arguments allow and
// adds the wrappable results to f.
func (g *run) addRemaps(f *overload.Function, req remap.Request) {
	if _, seen := g.memo[req.Func]; seen {
		return
	}
	var out []*remap.Remap
	for n := 0; n <= req.Func.NumDefaults(); n++ {
		req.NumDefaults = n
		r, err := g.classifier.Classify(req)
		if err != nil {
			var skip *remap.SkipError
			if errors.As(err, &skip) {
				g.summary.Skipped = append(g.summary.Skipped, skip)
				continue
			}
			g.check(err)
			return
		}
		if !g.binding.Wrappable(r) {
			logger().Debugf("%s: not supported by the %s binding", r, g.binding.Name())
			g.summary.Unsupported++
			continue
		}
		if r.ForcedVoid {
			g.summary.ForcedVoid++
		}
		out = append(out, r)
		f.Add(r)
	}
	g.memo[req.Func] = out
}

// emit is the second pass. It allocates every database index in
// emission order.
func (g *run) emit(p *plan) {
	for _, tp := range p.types {
		g.emitType(tp)
	}
	for _, f := range p.globals {
		g.emitFunction(f, nil)
	}
	for _, mp := range p.manifests {
		var getter metadb.Index
		if mp.getter != nil {
			getter = g.emitFunction(mp.getter, nil)
		}
		rec := &metadb.ManifestRecord{
			Index:      g.db.AllocateIndex(),
			Name:       mp.m.Name,
			Definition: mp.m.Definition,
			Comment:    trimComment(mp.m.Comment),
			Type:       g.typeIndex(mp.m.Type),
			Getter:     getter,
		}
		g.check(g.db.AddManifest(rec))
	}
	for _, a := range p.elements {
		g.emitElement(a.elem, g.emitFunction(a.getter, nil), g.emitFunction(a.setter, nil))
	}
}

func (g *run) emitType(tp *typePlan) metadb.Index {
	idx := g.typeIndex(tp.t)
	rec, _ := g.db.Type(idx)
	if tp.obj != nil {
		rec.Wrapped = true
		rec.Protocols = tp.obj.Protocols.List()
		getters := map[*decl.Element]metadb.Index{}
		setters := map[*decl.Element]metadb.Index{}
		for _, e := range tp.entries {
			fi := g.emitFunction(e.fn, tp.obj)
			switch e.role {
			case roleConstructor:
				rec.Constructors = append(rec.Constructors, fi)
			case roleDestructor:
				rec.Destructor = fi
			case roleMethod:
				rec.Methods = append(rec.Methods, fi)
			case roleCast:
				rec.Casts = append(rec.Casts, fi)
			case roleUpcast:
				rec.Derivations[e.base].Upcast = fi
			case roleDowncast:
				rec.Derivations[e.base].Downcast = fi
			case roleGetter:
				getters[e.elem] = fi
			case roleSetter:
				setters[e.elem] = fi
			}
		}
		for _, e := range tp.obj.Type.Elements {
			rec.Elements = append(rec.Elements, g.emitElement(e, getters[e], setters[e]))
		}
	}
	for _, n := range tp.nested {
		rec.Nested = append(rec.Nested, g.emitType(n))
	}
	g.check(g.db.UpdateType(rec))
	return idx
}

func (g *run) emitElement(e *decl.Element, getter, setter metadb.Index) metadb.Index {
	rec := &metadb.ElementRecord{
		Index:      g.db.AllocateIndex(),
		Name:       e.Name,
		ScopedName: e.ScopedName(),
		Comment:    trimComment(e.Comment),
		Type:       g.typeIndex(e.Type),
		Getter:     getter,
		Setter:     setter,
	}
	g.check(g.db.AddElement(rec))
	return rec.Index
}

// emitFunction emits every wrapper of f in dispatch order and records
// the function. A nil f records nothing.
func (g *run) emitFunction(f *overload.Function, obj *overload.Object) metadb.Index {
	if f == nil {
		return metadb.NoIndex
	}
	first := f.Remaps[0]
	rec := &metadb.FunctionRecord{
		Name:       f.Name,
		ScopedName: f.ScopedName(),
		Comment:    trimComment(f.Comment),
		Owner:      g.typeIndex(ownerType(f.Owner)),
		IsMethod:   f.HasReceiver,
		Flags:      flagNames(f.Flags),
	}
	if g.cfg.TrueNames {
		rec.Name = first.ReportedName
	}

	update := false
	if first.Kind == remap.Destructor {
		rec.Index = g.destructorIndex(first.Func)
		update = true
	} else {
		rec.Index = g.db.AllocateIndex()
		g.check(g.db.AddFunction(rec))
	}

	for _, r := range f.Ordered() {
		rec.Wrappers = append(rec.Wrappers, g.emitWrapper(r, rec.Index, obj))
	}
	if update {
		g.check(g.db.UpdateFunction(rec))
	}
	return rec.Index
}

func (g *run) emitWrapper(r *remap.Remap, fi metadb.Index, obj *overload.Object) metadb.Index {
	g.binding.EmitWrapper(g.sink, r, obj)

	rec := &metadb.WrapperRecord{
		Index:          g.db.AllocateIndex(),
		Function:       fi,
		Name:           r.WrapperName,
		UniqueName:     r.UniqueName,
		Comment:        trimComment(r.Func.Comment),
		CallableByName: g.cfg.ExportNames,
	}
	for _, p := range r.Params {
		rec.Params = append(rec.Params, metadb.ParamRecord{
			Type:       g.conversionIndex(p.Conv.NewType(), p.Conv.AtomicString()),
			Name:       p.Name,
			HasName:    p.HasName,
			IsReceiver: p.IsReceiver,
		})
	}
	if !r.ReturnsVoid() {
		rec.HasReturn = true
		rec.Return = g.conversionIndex(r.Return.NewType(), r.Return.AtomicString())
	}
	if r.ReturnNeedsManagement {
		rec.CallerManages = true
		if r.ReturnDestructor != nil {
			rec.Destructor = g.destructorIndex(r.ReturnDestructor)
		}
	}
	g.check(g.db.AddWrapper(rec))
	return rec.Index
}

// destructorIndex returns the function index of a destructor, recording
// the function on first use. Managed returns may name a destructor
// before its type is visited.
func (g *run) destructorIndex(fn *decl.Function) metadb.Index {
	if i, ok := g.dtors[fn]; ok {
		return i
	}
	i := g.db.AllocateIndex()
	g.dtors[fn] = i
	g.check(g.db.AddFunction(&metadb.FunctionRecord{
		Index:      i,
		Name:       fn.Name,
		ScopedName: fn.ScopedName(),
		Owner:      g.typeIndex(ownerType(fn.Owner)),
		IsMethod:   true,
	}))
	return i
}

func (g *run) conversionIndex(t decl.Type, atomic bool) metadb.Index {
	if atomic {
		return metadb.AtomicString
	}
	return g.typeIndex(t)
}

// typeIndex returns the index of t, recording it and everything it is
// built on the first time it is seen.
func (g *run) typeIndex(t decl.Type) metadb.Index {
	if t == nil {
		return metadb.NoIndex
	}
	name := t.Spelling()
	if i, ok := g.db.TypeNamed(name); ok {
		return i
	}
	rec := &metadb.TypeRecord{Index: g.db.AllocateIndex(), Name: name, ScopedName: name}
	g.check(g.db.AddType(rec))

	switch tt := t.(type) {
	case decl.Builtin:
		rec.Kind = "builtin"
	case *decl.Pointer:
		if _, ok := tt.To.(*decl.FuncType); ok {
			rec.Kind = "function-pointer"
			break
		}
		rec.Kind = "pointer"
		rec.Wraps = g.typeIndex(tt.To)
	case *decl.Reference:
		rec.Kind = "reference"
		rec.Wraps = g.typeIndex(tt.To)
	case *decl.Const:
		rec.Kind = "const"
		rec.Wraps = g.typeIndex(tt.Of)
	case *decl.Array:
		rec.Kind = "array"
		rec.Wraps = g.typeIndex(tt.Of)
	case *decl.Typedef:
		rec.Kind = "typedef"
		rec.Name = tt.Name
		rec.Wraps = g.typeIndex(tt.To)
	case *decl.Enum:
		rec.Kind = "enum"
		rec.Name = tt.Name
		rec.Comment = trimComment(tt.Comment)
		for _, v := range tt.Values {
			rec.EnumValues = append(rec.EnumValues, metadb.EnumValueRecord{Name: v.Name, Value: v.Value})
		}
	case *decl.Struct:
		rec.Kind = "struct"
		rec.Name = tt.Name
		rec.Comment = trimComment(tt.Comment)
		rec.Final = tt.Final
		rec.Unpublished = tt.Unpublished
		rec.Incomplete = tt.Incomplete
		for _, d := range tt.Bases {
			rec.Derivations = append(rec.Derivations, metadb.DerivationRecord{
				Base:    g.typeIndex(d.Base),
				Virtual: d.Virtual,
			})
		}
	case *decl.FuncType:
		rec.Kind = "function"
	default:
		g.check(fmt.Errorf("type %s: unexpected %T", name, t))
	}
	return rec.Index
}

// ownerType avoids a typed nil inside the decl.Type interface.
func ownerType(s *decl.Struct) decl.Type {
	if s == nil {
		return nil
	}
	return s
}

func flagNames(fs remap.Flags) []string {
	var out []string
	for _, f := range fs.List() {
		out = append(out, f.String())
	}
	return out
}

// trimComment strips comment markers and surrounding blank space.
func trimComment(c string) string {
	if c == "" {
		return ""
	}
	lines := strings.Split(c, "\n")
	for i, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimSuffix(l, "*/")
		for _, marker := range []string{"///", "//", "/**", "/*", "*"} {
			if rest, ok := strings.CutPrefix(l, marker); ok {
				l = rest
				break
			}
		}
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
