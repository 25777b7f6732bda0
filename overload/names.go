package overload

import (
	"errors"
	"fmt"

	"github.com/chazu/interrogate/naming"
	"github.com/chazu/interrogate/remap"
	"github.com/chazu/interrogate/sighash"
)

var (
	// ErrHashExhausted aborts a run when no suffix letter separates two
	// colliding wrappers.
	ErrHashExhausted = errors.New("wrapper hash space exhausted")
	// ErrDuplicateSignature aborts a run when two remaps share a
	// signature, which upstream deduplication should have prevented.
	ErrDuplicateSignature = errors.New("duplicate wrapper signature")
)

// Hasher derives hash fragments from signature text.
type Hasher struct {
	Primary   func(sig string) string
	Secondary func(sig string) string
}

// DefaultHasher hashes with sighash.
var DefaultHasher = Hasher{Primary: sighash.Primary, Secondary: sighash.Secondary}

// Namer assigns wrapper names.
type Namer struct {
	// Library is the library hash shared by every wrapper of a run.
	Library       string
	WrapperPrefix string
	UniquePrefix  string
	TrueNames     bool
	Hasher        Hasher
}

// AssignNames fills Hash, WrapperName, UniqueName and ReportedName of
// every remap. Names depend only on signatures and on the order of
// remaps, never on pointer identity.
func (n Namer) AssignNames(remaps []*remap.Remap) error {
	h := n.Hasher
	if h.Primary == nil {
		h = DefaultHasher
	}

	// A nil entry marks a primary hash already split by a collision, so
	// later wrappers hashing to it extend immediately.
	byHash := make(map[string]*remap.Remap, len(remaps))
	sigs := make(map[*remap.Remap]string, len(remaps))
	bySig := make(map[string]*remap.Remap, len(remaps))

	insert := func(r *remap.Remap, hash string) error {
		if _, taken := byHash[hash]; !taken {
			r.Hash = hash
			byHash[hash] = r
			return nil
		}
		for c := 'a'; c <= 'z'; c++ {
			candidate := hash + string(c)
			if _, taken := byHash[candidate]; !taken {
				logger().Debugf("%s: second-level collision on %s, using %s", r, hash, candidate)
				r.Hash = candidate
				byHash[candidate] = r
				return nil
			}
		}
		return fmt.Errorf("%s: %w", r, ErrHashExhausted)
	}

	for _, r := range remaps {
		sig := r.Signature()
		if prev, dup := bySig[sig]; dup {
			return fmt.Errorf("%s and %s: %w", prev, r, ErrDuplicateSignature)
		}
		bySig[sig] = r
		sigs[r] = sig
		hash := h.Primary(sig)

		other, collided := byHash[hash]
		if !collided {
			r.Hash = hash
			byHash[hash] = r
			continue
		}
		if other != nil {
			logger().Debugf("primary hash %s shared by %s and %s", hash, other, r)
			byHash[hash] = nil
			if err := insert(other, hash+h.Secondary(sigs[other])); err != nil {
				return err
			}
		}
		if err := insert(r, hash+h.Secondary(sig)); err != nil {
			return err
		}
	}

	for _, r := range remaps {
		r.WrapperName = n.WrapperPrefix + n.Library + r.Hash
		r.UniqueName = n.UniquePrefix + n.Library + r.Hash
		r.ReportedName = r.WrapperName
		if n.TrueNames {
			scope := ""
			if r.Owner != nil {
				scope = r.Owner.QualifiedName()
			}
			r.ReportedName = naming.Reported(scope, r.Func.Name)
		}
	}
	return nil
}
