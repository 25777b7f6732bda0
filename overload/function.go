// Package overload groups classified remaps into host-visible functions
// and objects, names every wrapper with a stable collision-resistant hash
// and orders overloads for dispatch by argument count.
package overload

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/interrogate/decl"
	"github.com/chazu/interrogate/remap"
)

func logger() commonlog.Logger { return commonlog.GetLogger("interrogate.overload") }

// Function is every remap published under one logical name.
type Function struct {
	Name  string
	Owner *decl.Struct
	// Comment is the leading comment of the first declaration.
	Comment string

	Remaps      []*remap.Remap
	HasReceiver bool
	Flags       remap.Flags
}

// NewFunction returns an empty function named name.
func NewFunction(name string, owner *decl.Struct) *Function {
	return &Function{Name: name, Owner: owner}
}

// Add appends r in declaration order.
func (f *Function) Add(r *remap.Remap) {
	if len(f.Remaps) == 0 {
		f.Comment = r.Func.Comment
	}
	f.Remaps = append(f.Remaps, r)
	f.Flags = f.Flags.Union(r.Flags)
	if r.HasReceiver {
		f.HasReceiver = true
	}
}

// Empty reports whether every overload was skipped.
func (f *Function) Empty() bool { return len(f.Remaps) == 0 }

// ScopedName is the owner-qualified name.
func (f *Function) ScopedName() string {
	if f.Owner == nil {
		return f.Name
	}
	return f.Owner.QualifiedName() + "::" + f.Name
}

// Protocol is a host calling protocol an object supports as a whole.
type Protocol int

const (
	ProtocolSequence Protocol = iota
	ProtocolMapping
	ProtocolMakeCopy
	ProtocolIterator
)

var protocolNames = [...]string{
	ProtocolSequence: "sequence",
	ProtocolMapping:  "mapping",
	ProtocolMakeCopy: "make-copy",
	ProtocolIterator: "iterator",
}

func (p Protocol) String() string { return protocolNames[p] }

// Protocols is a set of Protocol values.
type Protocols uint8

// Has reports whether p is in the set.
func (s Protocols) Has(p Protocol) bool { return s&(1<<p) != 0 }

// With returns the set with p added.
func (s Protocols) With(p Protocol) Protocols { return s | 1<<p }

// List returns the members in declaration order.
func (s Protocols) List() []string {
	var out []string
	for p := ProtocolSequence; p <= ProtocolIterator; p++ {
		if s.Has(p) {
			out = append(out, p.String())
		}
	}
	return out
}

// Object is a wrapped struct with its functions.
type Object struct {
	Type      *decl.Struct
	Functions []*Function
	Protocols Protocols
}

// NewObject returns an object for t with no functions.
func NewObject(t *decl.Struct) *Object { return &Object{Type: t} }

// AddFunction appends f and refreshes the derived protocols.
func (o *Object) AddFunction(f *Function) {
	o.Functions = append(o.Functions, f)
	o.Protocols = DeriveProtocols(o.Functions)
}

// IsSequence reports whether integer indexing is bounds-checked.
func (o *Object) IsSequence() bool { return o != nil && o.Protocols.Has(ProtocolSequence) }

// DeriveProtocols computes the object-level protocols implied by the
// dispatch flags of its functions. An object indexed by integer that
// also reports its size is a sequence; any other indexable object is a
// mapping.
func DeriveProtocols(fns []*Function) Protocols {
	var all remap.Flags
	for _, f := range fns {
		all = all.Union(f.Flags)
	}
	var p Protocols
	switch {
	case all.Has(remap.FlagGetItemInt) && all.Has(remap.FlagSize):
		p = p.With(ProtocolSequence)
	case all.Has(remap.FlagGetItem):
		p = p.With(ProtocolMapping)
	}
	if all.Has(remap.FlagMakeCopy) || all.Has(remap.FlagCopyConstructor) {
		p = p.With(ProtocolMakeCopy)
	}
	if all.Has(remap.FlagIterate) {
		p = p.With(ProtocolIterator)
	}
	return p
}
