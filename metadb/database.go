package metadb

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/chazu/interrogate/sighash"
)

var (
	// ErrDuplicateIndex is returned when a record reuses an index.
	ErrDuplicateIndex = errors.New("duplicate index")
	// ErrUnknownIndex is returned when a record refers to an index that
	// was never allocated.
	ErrUnknownIndex = errors.New("unknown index")
)

// Database holds the records of one library. It is append-only during a
// generation run and not safe for concurrent use.
type Database struct {
	Library     string
	LibraryHash string

	next      Index
	types     map[Index]*TypeRecord
	functions map[Index]*FunctionRecord
	wrappers  map[Index]*WrapperRecord
	manifests map[Index]*ManifestRecord
	elements  map[Index]*ElementRecord

	typeByName    map[string]Index
	wrapperByName map[string]Index
}

// New returns an empty database for library.
func New(library string) *Database {
	return &Database{
		Library:       library,
		LibraryHash:   sighash.Library(library),
		types:         map[Index]*TypeRecord{},
		functions:     map[Index]*FunctionRecord{},
		wrappers:      map[Index]*WrapperRecord{},
		manifests:     map[Index]*ManifestRecord{},
		elements:      map[Index]*ElementRecord{},
		typeByName:    map[string]Index{},
		wrapperByName: map[string]Index{},
	}
}

// AllocateIndex returns the next unused index.
func (db *Database) AllocateIndex() Index {
	db.next++
	return db.next
}

// check verifies that i was allocated and is not yet used.
func (db *Database) check(i Index) error {
	if i <= NoIndex || i > db.next {
		return fmt.Errorf("index %d: %w", i, ErrUnknownIndex)
	}
	if db.used(i) {
		return fmt.Errorf("index %d: %w", i, ErrDuplicateIndex)
	}
	return nil
}

func (db *Database) used(i Index) bool {
	_, t := db.types[i]
	_, f := db.functions[i]
	_, w := db.wrappers[i]
	_, m := db.manifests[i]
	_, e := db.elements[i]
	return t || f || w || m || e
}

// AddType records r under r.Index.
func (db *Database) AddType(r *TypeRecord) error {
	if err := db.check(r.Index); err != nil {
		return fmt.Errorf("type %s: %w", r.ScopedName, err)
	}
	db.types[r.Index] = r
	db.typeByName[r.ScopedName] = r.Index
	return nil
}

// AddFunction records r under r.Index.
func (db *Database) AddFunction(r *FunctionRecord) error {
	if err := db.check(r.Index); err != nil {
		return fmt.Errorf("function %s: %w", r.ScopedName, err)
	}
	db.functions[r.Index] = r
	return nil
}

// AddWrapper records r under r.Index.
func (db *Database) AddWrapper(r *WrapperRecord) error {
	if err := db.check(r.Index); err != nil {
		return fmt.Errorf("wrapper %s: %w", r.Name, err)
	}
	if r.UniqueName != "" {
		if prev, ok := db.wrapperByName[r.UniqueName]; ok {
			return fmt.Errorf("wrapper %s: unique name already used by %d: %w", r.UniqueName, prev, ErrDuplicateIndex)
		}
		db.wrapperByName[r.UniqueName] = r.Index
	}
	db.wrappers[r.Index] = r
	return nil
}

// AddManifest records r under r.Index.
func (db *Database) AddManifest(r *ManifestRecord) error {
	if err := db.check(r.Index); err != nil {
		return fmt.Errorf("manifest %s: %w", r.Name, err)
	}
	db.manifests[r.Index] = r
	return nil
}

// AddElement records r under r.Index.
func (db *Database) AddElement(r *ElementRecord) error {
	if err := db.check(r.Index); err != nil {
		return fmt.Errorf("element %s: %w", r.ScopedName, err)
	}
	db.elements[r.Index] = r
	return nil
}

// UpdateType replaces an existing type record.
func (db *Database) UpdateType(r *TypeRecord) error {
	if _, ok := db.types[r.Index]; !ok {
		return fmt.Errorf("type %s (%d): %w", r.ScopedName, r.Index, ErrUnknownIndex)
	}
	db.types[r.Index] = r
	return nil
}

// UpdateFunction replaces an existing function record.
func (db *Database) UpdateFunction(r *FunctionRecord) error {
	if _, ok := db.functions[r.Index]; !ok {
		return fmt.Errorf("function %s (%d): %w", r.ScopedName, r.Index, ErrUnknownIndex)
	}
	db.functions[r.Index] = r
	return nil
}

// Type returns the type record at i.
func (db *Database) Type(i Index) (*TypeRecord, bool) {
	r, ok := db.types[i]
	return r, ok
}

// TypeNamed returns the index of the type spelled name.
func (db *Database) TypeNamed(name string) (Index, bool) {
	i, ok := db.typeByName[name]
	return i, ok
}

// Function returns the function record at i.
func (db *Database) Function(i Index) (*FunctionRecord, bool) {
	r, ok := db.functions[i]
	return r, ok
}

// Wrapper returns the wrapper record at i.
func (db *Database) Wrapper(i Index) (*WrapperRecord, bool) {
	r, ok := db.wrappers[i]
	return r, ok
}

// LookupWrapper finds a wrapper by its unique name.
func (db *Database) LookupWrapper(uniqueName string) (*WrapperRecord, bool) {
	i, ok := db.wrapperByName[uniqueName]
	if !ok {
		return nil, false
	}
	return db.wrappers[i], true
}

// Manifest returns the manifest record at i.
func (db *Database) Manifest(i Index) (*ManifestRecord, bool) {
	r, ok := db.manifests[i]
	return r, ok
}

// Element returns the element record at i.
func (db *Database) Element(i Index) (*ElementRecord, bool) {
	r, ok := db.elements[i]
	return r, ok
}

// Types returns every type record in index order.
func (db *Database) Types() []*TypeRecord {
	return sorted(db.types, func(r *TypeRecord) Index { return r.Index })
}

// Functions returns every function record in index order.
func (db *Database) Functions() []*FunctionRecord {
	return sorted(db.functions, func(r *FunctionRecord) Index { return r.Index })
}

// Wrappers returns every wrapper record in index order.
func (db *Database) Wrappers() []*WrapperRecord {
	return sorted(db.wrappers, func(r *WrapperRecord) Index { return r.Index })
}

// Manifests returns every manifest record in index order.
func (db *Database) Manifests() []*ManifestRecord {
	return sorted(db.manifests, func(r *ManifestRecord) Index { return r.Index })
}

// Elements returns every element record in index order.
func (db *Database) Elements() []*ElementRecord {
	return sorted(db.elements, func(r *ElementRecord) Index { return r.Index })
}

// NumIndices is the number of indices allocated so far.
func (db *Database) NumIndices() int { return int(db.next) }

func sorted[R any](m map[Index]R, key func(R) Index) []R {
	out := slices.Collect(maps.Values(m))
	slices.SortFunc(out, func(a, b R) int { return cmp.Compare(key(a), key(b)) })
	return out
}
