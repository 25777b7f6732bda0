package remap

import (
	"slices"

	"github.com/chazu/interrogate/decl"
)

// methodRule recognizes a conventional method name. Rules are tried in
// order; the first whose name matches decides, even when its guard then
// adds nothing.
type methodRule struct {
	names []string
	apply func(r *Remap)
}

// methodRules is the dispatch table for Normal methods.
var methodRules = []methodRule{
	{[]string{"operator []", "__getitem__"}, func(r *Remap) {
		if r.HasReceiver && r.NumArgs() == 1 {
			r.Flags = r.Flags.With(FlagGetItem)
			if r.argIsInteger(0) {
				r.Flags = r.Flags.With(FlagGetItemInt)
			}
		}
	}},
	{[]string{"__setitem__"}, func(r *Remap) {
		if r.HasReceiver && r.NumArgs() >= 1 {
			r.Flags = r.Flags.With(FlagSetItem)
			if r.argIsInteger(0) {
				r.Flags = r.Flags.With(FlagSetItemInt)
				r.Args = VarArgs
			}
		}
	}},
	{[]string{"__delitem__"}, func(r *Remap) {
		if r.HasReceiver && r.NumArgs() == 1 {
			r.Flags = r.Flags.With(FlagDelItem)
			if r.argIsInteger(0) {
				r.Flags = r.Flags.With(FlagDelItemInt)
				r.Args = SingleArg
			}
		}
	}},
	{[]string{"size", "__len__"}, func(r *Remap) {
		if r.HasReceiver && r.NumArgs() == 0 && decl.IsInteger(r.Return.NewType()) {
			r.Flags = r.Flags.With(FlagSize)
		}
	}},
	{[]string{"make_copy"}, func(r *Remap) {
		if r.HasReceiver && r.NumArgs() == 0 && decl.IsPointer(r.Return.NewType()) {
			r.Flags = r.Flags.With(FlagMakeCopy)
		}
	}},
	{[]string{"__iter__"}, func(r *Remap) {
		if r.HasReceiver && r.NumArgs() == 0 && decl.IsPointer(r.Return.NewType()) {
			r.Flags = r.Flags.With(FlagIterate)
		}
	}},
	{[]string{"compare_to"}, func(r *Remap) {
		if r.HasReceiver && r.NumArgs() == 1 && decl.IsInteger(r.Return.NewType()) {
			r.Flags = r.Flags.With(FlagCompareTo)
		}
	}},
	{[]string{"make"}, func(r *Remap) {
		if !r.HasReceiver && r.NumArgs() >= 1 && decl.IsPointer(r.Return.NewType()) {
			r.Flags = r.Flags.With(FlagCoerceConstructor)
		}
	}},
	{[]string{"operator /"}, func(r *Remap) {
		if r.HasReceiver && r.NumArgs() == 1 && r.argIsFloat(0) {
			r.Flags = r.Flags.With(FlagDivideFloat)
		}
	}},
	{[]string{"get_key", "get_hash"}, func(r *Remap) {
		if r.HasReceiver && r.NumArgs() == 0 && decl.IsInteger(r.Return.NewType()) {
			r.Flags = r.Flags.With(FlagHash)
		}
	}},
	{[]string{"operator ()", "__call__"}, func(r *Remap) {
		r.Args = KeywordArgs
	}},
	// Attribute hooks keep their positional shape.
	{[]string{"__getattr__", "__setattr__", "__delattr__"}, func(*Remap) {}},
}

func (r *Remap) argIsInteger(i int) bool { return decl.IsInteger(r.Arg(i).Conv.NewType()) }

func (r *Remap) argIsFloat(i int) bool { return decl.IsFloat(r.Arg(i).Conv.NewType()) }

// dispatch derives the protocol flags and argument shape.
func (r *Remap) dispatch() {
	switch n := r.NumArgs(); {
	case n == 0:
		r.Args = NoArgs
	case n == 1:
		r.Args = SingleArg
	default:
		r.Args = VarArgs
	}

	switch r.Kind {
	case Normal:
		for _, rule := range methodRules {
			if slices.Contains(rule.names, r.Func.Name) {
				rule.apply(r)
				return
			}
		}
		// Every other method taking several arguments accepts them by name.
		if r.Args == VarArgs {
			r.Args = KeywordArgs
		}

	case Constructor:
		switch {
		case r.Func.IsCopyConstructor():
			r.Flags = r.Flags.With(FlagCopyConstructor)
		case r.Func.IsMoveConstructor():
		case !r.HasReceiver && r.NumArgs() >= 1 && !r.Func.Flags.Has(decl.FlagExplicit):
			r.Flags = r.Flags.With(FlagCoerceConstructor)
		}
		r.Args = KeywordArgs

	case AssignmentOperator:
		if r.Func.Name == "operator /=" && r.NumArgs() == 1 && r.argIsFloat(0) {
			r.Flags = r.Flags.With(FlagDivideFloat)
		}

	case ItemAssignmentOperator:
		r.Flags = r.Flags.With(FlagSetItem)
		if r.NumArgs() >= 2 && r.argIsInteger(0) {
			r.Flags = r.Flags.With(FlagSetItemInt)
		}
		r.Args = VarArgs
	}
}
