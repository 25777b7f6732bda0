package remap

import (
	"fmt"
	"slices"

	"github.com/tliron/commonlog"

	"github.com/chazu/interrogate/convert"
	"github.com/chazu/interrogate/decl"
	"github.com/chazu/interrogate/manifest"
	"github.com/chazu/interrogate/naming"
)

func logger() commonlog.Logger { return commonlog.GetLogger("interrogate.remap") }

// Policy is the part of a host binding the classifier consults.
type Policy interface {
	// RemapParameter chooses the conversion of a parameter or return type
	// of a member of owner (nil for free functions).
	RemapParameter(owner *decl.Struct, t decl.Type) convert.Conversion
	// SynthesizeThisParameter asks for the receiver as an explicit first
	// wrapper parameter.
	SynthesizeThisParameter() bool
	// SelfHandleType is the binding's opaque host-object handle type, or
	// nil when the binding has none.
	SelfHandleType() decl.Type
}

// Request asks for one Remap.
type Request struct {
	Func *decl.Function
	// Owner is the struct being wrapped. It defaults to Func.Owner.
	Owner *decl.Struct
	// NumDefaults trailing default parameters are left off.
	NumDefaults int
	// Kind requests a synthesized shape: TypecastOperator for cast
	// helpers, Getter or Setter for data-member accessors. Anything else
	// lets the callable decide.
	Kind Kind
	// Expression is the member expression a Getter or Setter touches.
	Expression string
}

// Classifier turns requests into Remaps.
type Classifier struct {
	policy          Policy
	manageRefCounts bool
}

// NewClassifier returns a classifier consulting policy under cfg.
func NewClassifier(policy Policy, cfg manifest.GenerationConfig) *Classifier {
	return &Classifier{policy: policy, manageRefCounts: cfg.ManageRefCounts}
}

// assignmentOperators are the compound and simple assignment operators.
var assignmentOperators = []string{
	"operator =", "operator *=", "operator /=", "operator %=", "operator +=", "operator -=",
	"operator |=", "operator &=", "operator ^=", "operator <<=", "operator >>=",
}

// IsAssignmentOperator reports whether name is an assignment operator.
func IsAssignmentOperator(name string) bool { return slices.Contains(assignmentOperators, name) }

// traverseHook is the garbage-collector traversal callback; its
// parameters are kept even when no conversion exists for them.
const traverseHook = "__traverse__"

// Classify builds the Remap for req. A *SkipError is returned when the
// callable cannot be wrapped at this arity.
func (c *Classifier) Classify(req Request) (*Remap, error) {
	fn := req.Func
	owner := req.Owner
	if owner == nil {
		owner = fn.Owner
	}
	skip := func(format string, args ...any) (*Remap, error) {
		err := &SkipError{Func: fn, NumDefaults: req.NumDefaults, Reason: fmt.Sprintf(format, args...)}
		logger().Debugf("skipping %s", err)
		return nil, err
	}

	if req.NumDefaults < 0 || req.NumDefaults > fn.NumDefaults() {
		return skip("cannot leave off %d of %d default arguments", req.NumDefaults, fn.NumDefaults())
	}

	r := &Remap{
		Func:        fn,
		Owner:       owner,
		NumDefaults: req.NumDefaults,
		Expression:  req.Expression,
		Extension:   fn.Flags.Has(decl.FlagExtension),
		Blocking:    fn.Flags.Has(decl.FlagBlocking),
	}

	switch {
	case fn.IsConstructor():
		r.Kind = Constructor
	case fn.IsDestructor():
		r.Kind = Destructor
	case fn.Flags.Has(decl.FlagTypecast):
		r.Kind = TypecastMethod
	case req.Kind == TypecastOperator, req.Kind == Getter, req.Kind == Setter:
		r.Kind = req.Kind
	case IsAssignmentOperator(fn.Name):
		r.Kind = AssignmentOperator
	}

	if owner != nil && !fn.IsStatic() && r.Kind != Constructor {
		r.HasReceiver = true
		r.ReceiverConst = fn.Flags.Has(decl.FlagConstMethod)
	}

	var elemType decl.Type
	if r.Kind == Normal && r.HasReceiver && fn.Name == "operator []" && !r.ReceiverConst {
		if ref, ok := decl.UnwrapConst(fn.Return).(*decl.Reference); ok && !ref.RValue && !decl.IsConst(ref.To) {
			r.Kind = ItemAssignmentOperator
			elemType = ref.To
		}
	}

	switch r.Kind {
	case Constructor, AssignmentOperator, ItemAssignmentOperator:
		if owner == nil {
			return skip("%s has no owning type", r.Kind)
		}
	}

	// Parameters.
	if r.HasReceiver && c.policy.SynthesizeThisParameter() {
		r.Params = append(r.Params, Parameter{
			Name:       "this",
			IsReceiver: true,
			Conv:       convert.This(owner, r.ReceiverConst),
		})
		r.FirstTrueParam = 1
	}
	count := len(fn.Params) - req.NumDefaults
	for i, p := range fn.Params[:count] {
		conv := c.policy.RemapParameter(owner, p.Type)
		if !conv.Valid() {
			if fn.Name != traverseHook {
				return skip("parameter %d has unsupported type %s", i, p.Type.Spelling())
			}
			conv = convert.Keep(p.Type)
		}
		param := Parameter{HasName: p.Name != "", Name: p.Name, Conv: conv}
		if !param.HasName {
			param.Name = naming.Placeholder(i)
		}
		r.Params = append(r.Params, param)
	}

	if self := c.policy.SelfHandleType(); self != nil && r.NumArgs() > 0 {
		first := r.Arg(0)
		if first.Name == "self" && decl.SameType(first.Conv.NewType(), self) {
			r.Params = slices.Delete(r.Params, r.FirstTrueParam, r.FirstTrueParam+1)
			r.Flags = r.Flags.With(FlagExplicitSelf)
		}
	}

	if r.Kind == ItemAssignmentOperator {
		conv := c.policy.RemapParameter(owner, decl.RefTo(decl.ConstOf(elemType)))
		if !conv.Valid() {
			return skip("assigned element type %s is unsupported", elemType.Spelling())
		}
		r.Params = append(r.Params, Parameter{HasName: true, Name: "assign_val", Conv: conv})
	}

	// Return value.
	switch r.Kind {
	case Constructor:
		r.Return = c.policy.RemapParameter(owner, decl.PointerTo(owner))
		if !r.Return.Valid() {
			return skip("cannot return a new %s", owner.QualifiedName())
		}
		r.ReturnNeedsManagement = true
		r.ReturnDestructor = owner.CallerDestructor()
	case AssignmentOperator:
		r.Return = c.policy.RemapParameter(owner, decl.RefTo(owner))
		if !r.Return.Valid() {
			return skip("cannot return a reference to %s", owner.QualifiedName())
		}
	case ItemAssignmentOperator, Destructor, Setter:
		r.Return = convert.Void()
	default:
		r.Return = c.policy.RemapParameter(owner, fn.Return)
		if !r.Return.Valid() {
			logger().Noticef("%s: unsupported return type %s, wrapping as void", fn.Prototype(), fn.Return.Spelling())
			r.Return = convert.Void()
			r.ForcedVoid = true
		}
		if !r.ForcedVoid {
			r.ReturnNeedsManagement = r.Return.ReturnNeedsManagement()
			r.ReturnDestructor = r.Return.ReturnDestructor()
		}
	}
	if !r.ForcedVoid {
		c.manageRefCount(r)
	}

	r.dispatch()
	return r, nil
}

// manageRefCount hands reference-counted returns to the caller.
func (c *Classifier) manageRefCount(r *Remap) {
	if !c.manageRefCounts || !decl.IsRefCountPointer(r.Return.NewType()) {
		return
	}
	pointee := decl.AsStruct(decl.UnwrapPointer(r.Return.NewType()))
	if pointee.ProtectedDestructor {
		return
	}
	r.ManageRefCount = true
	r.ReturnNeedsManagement = true
	r.ReturnDestructor = pointee.DestructorFunc()
}
