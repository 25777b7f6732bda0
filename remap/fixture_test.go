package remap

import (
	"fmt"
	"io"
	"testing"

	"github.com/chazu/interrogate/convert"
	"github.com/chazu/interrogate/decl"
	"github.com/chazu/interrogate/manifest"
)

// testPolicy is the minimal C binding's view of the classifier policy.
type testPolicy struct {
	table *convert.Table
	self  decl.Type
}

func (p *testPolicy) RemapParameter(owner *decl.Struct, t decl.Type) convert.Conversion {
	return p.table.Remap(owner, t)
}
func (p *testPolicy) SynthesizeThisParameter() bool { return true }
func (p *testPolicy) SelfHandleType() decl.Type     { return p.self }

type testHooks struct {
	defaultCtor string
	diagnosed   []string
}

func (h *testHooks) DefaultConstructor(*decl.Struct) string { return h.defaultCtor }

func (h *testHooks) IndexError(w io.Writer, indent int, _ *Remap) {
	fmt.Fprintf(w, "%*sreturn index_error();\n", indent, "")
}

func (h *testHooks) Diagnose(r *Remap, msg string) {
	h.diagnosed = append(h.diagnosed, r.String()+": "+msg)
}

var (
	tInt    decl.Type = decl.Builtin{Kind: decl.Int}
	tFloat  decl.Type = decl.Builtin{Kind: decl.Float}
	tVoid             = decl.VoidType()
	tSizeT  decl.Type = decl.Builtin{Kind: decl.SizeT}
	allOn             = manifest.GenerationConfig{ConvertStrings: true, ManageRefCounts: true}
	noHooks           = &testHooks{}
)

func newClassifier(cfg manifest.GenerationConfig) *Classifier {
	return NewClassifier(&testPolicy{table: convert.NewTable(cfg)}, cfg)
}

func classify(t *testing.T, fn *decl.Function, numDefaults int) *Remap {
	t.Helper()
	r, err := newClassifier(allOn).Classify(Request{Func: fn, NumDefaults: numDefaults})
	if err != nil {
		t.Fatalf("Classify(%s): %v", fn.Prototype(), err)
	}
	return r
}

func method(owner *decl.Struct, name string, ret decl.Type, flags decl.FuncFlags, params ...decl.Param) *decl.Function {
	fn := &decl.Function{Name: name, Owner: owner, Return: ret, Params: params, Flags: flags}
	owner.Methods = append(owner.Methods, fn)
	return fn
}

func ctor(owner *decl.Struct, flags decl.FuncFlags, params ...decl.Param) *decl.Function {
	fn := &decl.Function{Name: owner.Name, Owner: owner, Return: tVoid, Params: params, Flags: flags | decl.FlagConstructor}
	owner.Constructors = append(owner.Constructors, fn)
	return fn
}

func param(name string, t decl.Type) decl.Param { return decl.Param{Name: name, Type: t} }
