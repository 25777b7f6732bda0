// Package remap classifies one native callable at one arity into a Remap:
// the description of a single emittable wrapper, including its calling
// shape, the conversion of every parameter and of the return value, and
// the host protocols it takes part in. It also renders the native call a
// wrapper body makes.
package remap

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/chazu/interrogate/convert"
	"github.com/chazu/interrogate/decl"
	"github.com/chazu/interrogate/sighash"
)

// Kind is the calling shape of a wrapper.
type Kind int

const (
	Normal Kind = iota
	Constructor
	Destructor
	TypecastOperator
	TypecastMethod
	AssignmentOperator
	ItemAssignmentOperator
	Getter
	Setter
)

var kindNames = [...]string{
	Normal:                 "normal",
	Constructor:            "constructor",
	Destructor:             "destructor",
	TypecastOperator:       "typecast-operator",
	TypecastMethod:         "typecast-method",
	AssignmentOperator:     "assignment-operator",
	ItemAssignmentOperator: "item-assignment-operator",
	Getter:                 "getter",
	Setter:                 "setter",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Flag is one host protocol a wrapper takes part in.
type Flag uint

const (
	FlagGetItem Flag = iota
	FlagGetItemInt
	FlagSetItem
	FlagSetItemInt
	FlagDelItem
	FlagDelItemInt
	FlagSize
	FlagMakeCopy
	FlagIterate
	FlagCompareTo
	FlagHash
	FlagCoerceConstructor
	FlagDivideFloat
	FlagCopyConstructor
	FlagExplicitSelf
	numFlags
)

var flagNames = [...]string{
	FlagGetItem:           "get-item",
	FlagGetItemInt:        "get-item-int",
	FlagSetItem:           "set-item",
	FlagSetItemInt:        "set-item-int",
	FlagDelItem:           "del-item",
	FlagDelItemInt:        "del-item-int",
	FlagSize:              "size",
	FlagMakeCopy:          "make-copy",
	FlagIterate:           "iterate",
	FlagCompareTo:         "compare-to",
	FlagHash:              "hash",
	FlagCoerceConstructor: "coerce-constructor",
	FlagDivideFloat:       "divide-float",
	FlagCopyConstructor:   "copy-constructor",
	FlagExplicitSelf:      "explicit-self",
}

func (f Flag) String() string {
	if f < numFlags {
		return flagNames[f]
	}
	return fmt.Sprintf("Flag(%d)", uint(f))
}

// Flags is a set of Flag values.
type Flags uint32

// FlagsOf builds a set from its members.
func FlagsOf(fs ...Flag) Flags {
	var s Flags
	for _, f := range fs {
		s = s.With(f)
	}
	return s
}

// Has reports whether f is in the set.
func (s Flags) Has(f Flag) bool { return s&(1<<f) != 0 }

// With returns the set with f added.
func (s Flags) With(f Flag) Flags { return s | 1<<f }

// Union returns the members of either set.
func (s Flags) Union(o Flags) Flags { return s | o }

// Len returns the number of members.
func (s Flags) Len() int { return bits.OnesCount32(uint32(s)) }

// List returns the members in declaration order.
func (s Flags) List() []Flag {
	var out []Flag
	for f := Flag(0); f < numFlags; f++ {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func (s Flags) String() string {
	names := make([]string, 0, s.Len())
	for _, f := range s.List() {
		names = append(names, f.String())
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// ArgsShape is how a host passes arguments to the wrapper.
type ArgsShape int

const (
	NoArgs ArgsShape = iota
	SingleArg
	VarArgs
	KeywordArgs
)

var shapeNames = [...]string{
	NoArgs:      "no-args",
	SingleArg:   "single-arg",
	VarArgs:     "var-args",
	KeywordArgs: "keyword-args",
}

func (a ArgsShape) String() string {
	if int(a) < len(shapeNames) {
		return shapeNames[a]
	}
	return fmt.Sprintf("ArgsShape(%d)", int(a))
}

// Parameter is one wrapper parameter.
type Parameter struct {
	HasName    bool
	Name       string
	IsReceiver bool
	Conv       convert.Conversion
}

// Remap describes one emittable wrapper for one arity of one native
// callable. It is immutable once classified, except for the name fields
// filled in by the overload organizer.
type Remap struct {
	Kind  Kind
	Func  *decl.Function
	Owner *decl.Struct
	// NumDefaults is how many trailing default parameters were left off.
	NumDefaults int
	// Expression is the member expression of a getter or setter.
	Expression string

	Params []Parameter
	// FirstTrueParam is the index of the first non-receiver parameter.
	FirstTrueParam int
	Return         convert.Conversion
	ForcedVoid     bool

	HasReceiver   bool
	ReceiverConst bool
	Extension     bool
	Blocking      bool
	Flags         Flags
	Args          ArgsShape

	ReturnNeedsManagement bool
	ReturnDestructor      *decl.Function
	ManageRefCount        bool

	Hash         string
	UniqueName   string
	WrapperName  string
	ReportedName string
}

// NumArgs counts the parameters after the receiver.
func (r *Remap) NumArgs() int { return len(r.Params) - r.FirstTrueParam }

// Arg returns the ith parameter after the receiver.
func (r *Remap) Arg(i int) Parameter { return r.Params[r.FirstTrueParam+i] }

// Signature identifies the wrapper for naming. It depends only on the
// declared types and names, never on pointer identity or run order.
func (r *Remap) Signature() string {
	sig := sighash.NewSignature().
		Add(sighash.TagKind, r.Kind.String()).
		Add(sighash.TagName, r.Func.ScopedName())
	if r.Owner != nil {
		sig.Add(sighash.TagScope, r.Owner.QualifiedName())
	}
	if r.HasReceiver {
		recv := "this"
		if r.ReceiverConst {
			recv = "const this"
		}
		sig.Add(sighash.TagReceiver, recv)
	}
	for _, p := range r.Params[r.FirstTrueParam:] {
		sig.Add(sighash.TagParam, decl.Canonical(p.Conv.OrigType()))
	}
	sig.Add(sighash.TagReturn, decl.Canonical(r.Return.OrigType()))
	if r.Flags.Has(FlagExplicitSelf) {
		sig.Add(sighash.TagFlag, FlagExplicitSelf.String())
	}
	return sig.String()
}

// ReturnsVoid reports whether the wrapper has no return value.
func (r *Remap) ReturnsVoid() bool { return decl.IsVoid(r.Return.NewType()) }

func (r *Remap) String() string {
	return fmt.Sprintf("%s %s/%d", r.Kind, r.Func.ScopedName(), r.NumArgs())
}

// SkipError reports that a callable cannot be wrapped at one arity. It is
// never fatal to a run.
type SkipError struct {
	Func        *decl.Function
	NumDefaults int
	Reason      string
}

func (e *SkipError) Error() string {
	if e.NumDefaults > 0 {
		return fmt.Sprintf("%s (without %d default arguments): %s", e.Func.Prototype(), e.NumDefaults, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Func.Prototype(), e.Reason)
}
