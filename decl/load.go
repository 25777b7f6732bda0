package decl

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/tliron/commonlog"
)

//go:embed schema.cue
var schemaSource string

// Source is one declaration document.
type Source struct {
	Name string
	Data []byte
}

// LoadFiles reads and loads declaration files (CUE or JSON) into a Unit.
func LoadFiles(paths ...string) (*Unit, error) {
	srcs := make([]Source, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", p, err)
		}
		srcs = append(srcs, Source{Name: p, Data: data})
	}
	return LoadSources(srcs...)
}

// LoadSources validates each document against the declaration schema and
// links the result into a single Unit. Documents are visited in the order
// given, which fixes the traversal order of the generation run.
func LoadSources(srcs ...Source) (*Unit, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("declaration schema: %w", err)
	}
	fileDef := schema.LookupPath(cue.ParsePath("#File"))

	var files []fileDecl
	for _, src := range srcs {
		v := ctx.CompileBytes(src.Data, cue.Filename(src.Name))
		if err := v.Err(); err != nil {
			return nil, fmt.Errorf("parse error in %s: %s", src.Name, cueerrors.Details(err, nil))
		}
		u := fileDef.Unify(v)
		if err := u.Validate(cue.Concrete(true)); err != nil {
			return nil, fmt.Errorf("invalid declarations in %s: %s", src.Name, cueerrors.Details(err, nil))
		}
		var f fileDecl
		if err := u.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode %s: %w", src.Name, err)
		}
		files = append(files, f)
	}

	l := newLinker()
	return l.link(files)
}

// --- Decoded document shapes ---

type fileDecl struct {
	Library   string         `json:"library"`
	Types     []typeDecl     `json:"types"`
	Functions []funcDecl     `json:"functions"`
	Manifests []manifestDecl `json:"manifests"`
	Elements  []elementDecl  `json:"elements"`
}

type typeDecl struct {
	Kind         string          `json:"kind"`
	Name         string          `json:"name"`
	Role         string          `json:"role"`
	Pointee      string          `json:"pointee"`
	To           string          `json:"to"`
	Bases        []baseDecl      `json:"bases"`
	Constructors []funcDecl      `json:"constructors"`
	Destructor   *dtorDecl       `json:"destructor"`
	Methods      []funcDecl      `json:"methods"`
	Casts        []funcDecl      `json:"casts"`
	Elements     []elementDecl   `json:"elements"`
	Nested       []typeDecl      `json:"nested"`
	Values       []enumValueDecl `json:"values"`
	RefCounted   bool            `json:"refcounted"`
	Final        bool            `json:"final"`
	Unpublished  bool            `json:"unpublished"`
	Incomplete   bool            `json:"incomplete"`
	Comment      string          `json:"comment"`
}

type baseDecl struct {
	Name     string `json:"name"`
	Virtual  bool   `json:"virtual"`
	Upcast   *bool  `json:"upcast"`
	Downcast *bool  `json:"downcast"`
}

type dtorDecl struct {
	Protected bool   `json:"protected"`
	Virtual   bool   `json:"virtual"`
	Comment   string `json:"comment"`
}

type funcDecl struct {
	Name      string      `json:"name"`
	Return    string      `json:"return"`
	Params    []paramDecl `json:"params"`
	Static    bool        `json:"static"`
	Const     bool        `json:"const"`
	Explicit  bool        `json:"explicit"`
	Virtual   bool        `json:"virtual"`
	Extension bool        `json:"extension"`
	Blocking  bool        `json:"blocking"`
	Copy      bool        `json:"copy"`
	Move      bool        `json:"move"`
	Comment   string      `json:"comment"`
}

type paramDecl struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default string `json:"default"`
}

type elementDecl struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Static   bool   `json:"static"`
	ReadOnly bool   `json:"readonly"`
	Comment  string `json:"comment"`
}

type manifestDecl struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
	Type       string `json:"type"`
	Comment    string `json:"comment"`
}

type enumValueDecl struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// --- Linking ---

// wellKnown assigns roles to conventional names when a declaration file
// does not say otherwise.
var wellKnown = map[string]Role{
	"std::string":                RoleString,
	"std::basic_string<char>":    RoleString,
	"string":                     RoleString,
	"std::wstring":               RoleWString,
	"std::basic_string<wchar_t>": RoleWString,
	"wstring":                    RoleWString,
	"vector_uchar":               RoleByteVector,
	"std::vector<unsigned char>": RoleByteVector,
	"ReferenceCount":             RoleRefCountBase,
	"PyObject":                   RoleHostObject,
}

var smartPointerTemplates = []string{"PointerTo<", "ConstPointerTo<", "PT(", "CPT("}

type linker struct {
	types map[string]Type
	// pending holds the declarations of registered types, visited in the
	// second pass.
	pending []pendingType
	unit    *Unit
}

type pendingType struct {
	decl  *typeDecl
	scope string
	t     Type
}

func newLinker() *linker {
	return &linker{types: map[string]Type{}, unit: &Unit{}}
}

func logger() commonlog.Logger { return commonlog.GetLogger("interrogate.decl") }

func (l *linker) link(files []fileDecl) (*Unit, error) {
	// Pass 1: register every named type so declarations may refer to types
	// defined later or in other files.
	for fi := range files {
		f := &files[fi]
		if f.Library != "" {
			if l.unit.Library != "" && l.unit.Library != f.Library {
				return nil, fmt.Errorf("conflicting library names %q and %q", l.unit.Library, f.Library)
			}
			l.unit.Library = f.Library
		}
		for ti := range f.Types {
			t, err := l.register(&f.Types[ti], "")
			if err != nil {
				return nil, err
			}
			l.unit.Types = append(l.unit.Types, t)
		}
	}

	// Pass 2: fill in bodies.
	for i := 0; i < len(l.pending); i++ {
		if err := l.fill(l.pending[i]); err != nil {
			return nil, err
		}
	}

	for fi := range files {
		f := &files[fi]
		for i := range f.Functions {
			fn, err := l.function(&f.Functions[i], nil)
			if err != nil {
				return nil, err
			}
			l.unit.Functions = append(l.unit.Functions, fn)
		}
		for i := range f.Manifests {
			m, err := l.manifest(&f.Manifests[i])
			if err != nil {
				return nil, err
			}
			l.unit.Manifests = append(l.unit.Manifests, m)
		}
		for i := range f.Elements {
			e, err := l.element(&f.Elements[i], nil)
			if err != nil {
				return nil, err
			}
			l.unit.Elements = append(l.unit.Elements, e)
		}
	}
	return l.unit, nil
}

func (l *linker) register(td *typeDecl, scope string) (Type, error) {
	qname := qualify(scope, normalizeName(td.Name))
	if _, dup := l.types[qname]; dup {
		if s, ok := l.types[qname].(*Struct); !ok || !s.Incomplete {
			return nil, fmt.Errorf("type %s declared twice", qname)
		}
	}

	var t Type
	switch td.Kind {
	case "struct", "class":
		role, ok := ParseRole(td.Role)
		if !ok {
			return nil, fmt.Errorf("type %s: unknown role %q", qname, td.Role)
		}
		if role == RoleNone {
			role = wellKnown[qname]
		}
		if role == RoleNone && isSmartPointerName(td.Name) {
			role = RoleSmartPointer
		}
		s := &Struct{
			Name:        normalizeName(td.Name),
			Scope:       scope,
			Role:        role,
			Final:       td.Final,
			Unpublished: td.Unpublished,
			Incomplete:  td.Incomplete,
			RefCounted:  td.RefCounted,
			Comment:     td.Comment,
		}
		// A forward reference may already have created this struct.
		if prev, ok := l.types[qname].(*Struct); ok {
			*prev = *s
			s = prev
		}
		t = s
	case "enum":
		e := &Enum{Name: td.Name, Scope: scope, Comment: td.Comment}
		for _, v := range td.Values {
			e.Values = append(e.Values, EnumValue{Name: v.Name, Value: v.Value})
		}
		t = e
	case "typedef":
		if td.To == "" {
			return nil, fmt.Errorf("typedef %s has no target", qname)
		}
		t = &Typedef{Name: td.Name, Scope: scope}
	default:
		return nil, fmt.Errorf("type %s: unknown kind %q", qname, td.Kind)
	}
	l.types[qname] = t
	l.pending = append(l.pending, pendingType{decl: td, scope: scope, t: t})

	if s, ok := t.(*Struct); ok {
		for ni := range td.Nested {
			nt, err := l.register(&td.Nested[ni], qname)
			if err != nil {
				return nil, err
			}
			s.Nested = append(s.Nested, nt)
		}
	}
	return t, nil
}

func isSmartPointerName(name string) bool {
	for _, p := range smartPointerTemplates {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// lookupIn returns a LookupFunc searching scope, its parents, then the
// global scope. Unknown names become incomplete structs.
func (l *linker) lookupIn(scope string) LookupFunc {
	return func(name string) Type {
		for s := scope; s != ""; s = parentScope(s) {
			if t, ok := l.types[s+"::"+name]; ok {
				return t
			}
		}
		if t, ok := l.types[name]; ok {
			return t
		}
		return l.forward(name)
	}
}

func (l *linker) forward(name string) Type {
	scope, simple := "", name
	if i := strings.LastIndex(name, "::"); i >= 0 && !strings.Contains(name[i:], ">") {
		scope, simple = name[:i], name[i+2:]
	}
	s := &Struct{Name: simple, Scope: scope, Incomplete: true, Role: wellKnown[name]}
	if isSmartPointerName(simple) {
		s.Role = RoleSmartPointer
		s.Pointee = l.templateArg(simple)
	}
	logger().Debugf("forward-declaring unknown type %s", name)
	l.types[name] = s
	return s
}

// templateArg resolves the single template argument of a smart pointer
// name such as "PointerTo<Node>" or "PT(Node)".
func (l *linker) templateArg(name string) Type {
	open := strings.IndexAny(name, "<(")
	if open < 0 {
		return nil
	}
	arg := strings.TrimSpace(name[open+1 : len(name)-1])
	t, err := ParseType(arg, l.lookupIn(""))
	if err != nil {
		return nil
	}
	return t
}

func parentScope(s string) string {
	if i := strings.LastIndex(s, "::"); i >= 0 {
		return s[:i]
	}
	return ""
}

func (l *linker) parse(spelling, scope, what string) (Type, error) {
	t, err := ParseType(spelling, l.lookupIn(scope))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return t, nil
}

func (l *linker) fill(p pendingType) error {
	td := p.decl
	switch t := p.t.(type) {
	case *Typedef:
		to, err := l.parse(td.To, p.scope, "typedef "+t.Spelling())
		if err != nil {
			return err
		}
		t.To = to
	case *Struct:
		return l.fillStruct(t, td)
	}
	return nil
}

func (l *linker) fillStruct(s *Struct, td *typeDecl) error {
	qname := s.QualifiedName()
	if td.Pointee != "" {
		pt, err := l.parse(td.Pointee, s.Scope, qname+" pointee")
		if err != nil {
			return err
		}
		s.Pointee = pt
	} else if s.Role == RoleSmartPointer {
		s.Pointee = l.templateArg(s.Name)
	}

	for _, b := range td.Bases {
		bt, err := l.parse(b.Name, s.Scope, qname+" base")
		if err != nil {
			return err
		}
		base := AsStruct(bt)
		if base == nil {
			return fmt.Errorf("%s: base %s is not a struct", qname, b.Name)
		}
		d := Derivation{Base: base, Virtual: b.Virtual, Upcast: true, Downcast: !b.Virtual}
		if b.Upcast != nil {
			d.Upcast = *b.Upcast
		}
		if b.Downcast != nil {
			d.Downcast = *b.Downcast && !b.Virtual
		}
		s.Bases = append(s.Bases, d)
	}

	for i := range td.Constructors {
		fd := td.Constructors[i]
		if fd.Name == "" {
			fd.Name = s.Name
		}
		fn, err := l.function(&fd, s)
		if err != nil {
			return err
		}
		fn.Flags |= FlagConstructor
		fn.Return = VoidType()
		s.Constructors = append(s.Constructors, fn)
	}
	if td.Destructor != nil {
		fn := &Function{
			Name:    "~" + s.Name,
			Owner:   s,
			Return:  VoidType(),
			Flags:   FlagDestructor,
			Comment: td.Destructor.Comment,
		}
		if td.Destructor.Virtual {
			fn.Flags |= FlagVirtual
		}
		s.Destructor = fn
		s.ProtectedDestructor = td.Destructor.Protected
	}
	for i := range td.Methods {
		if td.Methods[i].Name == "" {
			return fmt.Errorf("%s: method %d has no name", qname, i)
		}
		fn, err := l.function(&td.Methods[i], s)
		if err != nil {
			return err
		}
		s.Methods = append(s.Methods, fn)
	}
	for i := range td.Casts {
		fd := td.Casts[i]
		if fd.Return == "" {
			return fmt.Errorf("%s: typecast operator %d has no target type", qname, i)
		}
		if fd.Name == "" {
			fd.Name = "operator " + fd.Return
		}
		fn, err := l.function(&fd, s)
		if err != nil {
			return err
		}
		fn.Flags |= FlagTypecast
		s.Casts = append(s.Casts, fn)
	}
	for i := range td.Elements {
		e, err := l.element(&td.Elements[i], s)
		if err != nil {
			return err
		}
		s.Elements = append(s.Elements, e)
	}
	return nil
}

func (l *linker) scopeOf(owner *Struct) string {
	if owner == nil {
		return ""
	}
	return owner.QualifiedName()
}

func (l *linker) function(fd *funcDecl, owner *Struct) (*Function, error) {
	scope := l.scopeOf(owner)
	name := fd.Name
	if name == "" {
		return nil, fmt.Errorf("function in %q has no name", scope)
	}
	what := qualify(scope, name)

	ret := fd.Return
	if ret == "" {
		ret = "void"
	}
	rt, err := l.parse(ret, scope, what+" return type")
	if err != nil {
		return nil, err
	}
	fn := &Function{Name: name, Owner: owner, Return: rt, Comment: fd.Comment}
	for i, pd := range fd.Params {
		pt, err := l.parse(pd.Type, scope, fmt.Sprintf("%s parameter %d", what, i))
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, Param{Name: pd.Name, Type: pt, Default: pd.Default})
	}
	flags := []struct {
		on   bool
		flag FuncFlags
	}{
		{fd.Static, FlagStatic},
		{fd.Const, FlagConstMethod},
		{fd.Explicit, FlagExplicit},
		{fd.Virtual, FlagVirtual},
		{fd.Extension, FlagExtension},
		{fd.Blocking, FlagBlocking},
		{fd.Copy, FlagCopyConstructor},
		{fd.Move, FlagMoveConstructor},
	}
	for _, f := range flags {
		if f.on {
			fn.Flags |= f.flag
		}
	}
	return fn, nil
}

func (l *linker) element(ed *elementDecl, owner *Struct) (*Element, error) {
	scope := l.scopeOf(owner)
	t, err := l.parse(ed.Type, scope, qualify(scope, ed.Name))
	if err != nil {
		return nil, err
	}
	return &Element{
		Name:     ed.Name,
		Owner:    owner,
		Type:     t,
		Static:   ed.Static,
		ReadOnly: ed.ReadOnly,
		Comment:  ed.Comment,
	}, nil
}

func (l *linker) manifest(md *manifestDecl) (*Manifest, error) {
	m := &Manifest{Name: md.Name, Definition: md.Definition, Comment: md.Comment}
	if md.Type != "" {
		t, err := l.parse(md.Type, "", "manifest "+md.Name)
		if err != nil {
			return nil, err
		}
		m.Type = t
	}
	return m, nil
}
