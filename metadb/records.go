// Package metadb is the interrogate database: the records describing
// every wrapped type, function, wrapper, manifest constant and global
// element, keyed by indices allocated from a single counter. A database
// persists as canonical CBOR or as SQLite.
package metadb

// Index identifies one record. Indices are allocated in emission order,
// so a fixed input always yields the same indices.
type Index int32

const (
	// NoIndex marks an absent reference.
	NoIndex Index = 0
	// AtomicString stands in for the type index of a value exposed as
	// the host's own string type.
	AtomicString Index = -1
)

// TypeRecord describes a wrapped or referenced type.
type TypeRecord struct {
	Index      Index  `cbor:"1,keyasint"`
	Name       string `cbor:"2,keyasint"`
	ScopedName string `cbor:"3,keyasint"`
	// Kind is "struct", "enum", "typedef", "pointer", "reference",
	// "const", "array", "builtin" or "function-pointer".
	Kind    string `cbor:"4,keyasint"`
	Comment string `cbor:"5,keyasint,omitempty"`

	// Wraps is the type a pointer, reference, const, array or typedef
	// is built on.
	Wraps Index `cbor:"6,keyasint,omitempty"`

	Protocols    []string           `cbor:"7,keyasint,omitempty"`
	Derivations  []DerivationRecord `cbor:"8,keyasint,omitempty"`
	Constructors []Index            `cbor:"9,keyasint,omitempty"`
	Destructor   Index              `cbor:"10,keyasint,omitempty"`
	Methods      []Index            `cbor:"11,keyasint,omitempty"`
	Casts        []Index            `cbor:"12,keyasint,omitempty"`
	Elements     []Index            `cbor:"13,keyasint,omitempty"`
	Nested       []Index            `cbor:"14,keyasint,omitempty"`
	EnumValues   []EnumValueRecord  `cbor:"15,keyasint,omitempty"`

	Final       bool `cbor:"16,keyasint,omitempty"`
	Unpublished bool `cbor:"17,keyasint,omitempty"`
	Incomplete  bool `cbor:"18,keyasint,omitempty"`
	// Wrapped is set for types whose members were wrapped, as opposed
	// to types that are only referenced.
	Wrapped bool `cbor:"19,keyasint,omitempty"`
}

// DerivationRecord is one base class of a struct.
type DerivationRecord struct {
	Base     Index `cbor:"1,keyasint"`
	Upcast   Index `cbor:"2,keyasint,omitempty"`
	Downcast Index `cbor:"3,keyasint,omitempty"`
	Virtual  bool  `cbor:"4,keyasint,omitempty"`
}

// EnumValueRecord is one enumerator.
type EnumValueRecord struct {
	Name  string `cbor:"1,keyasint"`
	Value int64  `cbor:"2,keyasint"`
}

// FunctionRecord is one host-visible function: every wrapper published
// under one name.
type FunctionRecord struct {
	Index      Index  `cbor:"1,keyasint"`
	Name       string `cbor:"2,keyasint"`
	ScopedName string `cbor:"3,keyasint"`
	Comment    string `cbor:"4,keyasint,omitempty"`
	// Owner is the struct the function belongs to, or NoIndex.
	Owner    Index    `cbor:"5,keyasint,omitempty"`
	IsMethod bool     `cbor:"6,keyasint,omitempty"`
	Flags    []string `cbor:"7,keyasint,omitempty"`
	// Wrappers are listed in dispatch order.
	Wrappers []Index `cbor:"8,keyasint,omitempty"`
}

// ParamRecord is one wrapper parameter.
type ParamRecord struct {
	Type       Index  `cbor:"1,keyasint"`
	Name       string `cbor:"2,keyasint,omitempty"`
	HasName    bool   `cbor:"3,keyasint,omitempty"`
	IsReceiver bool   `cbor:"4,keyasint,omitempty"`
}

// WrapperRecord is one emitted wrapper function.
type WrapperRecord struct {
	Index      Index         `cbor:"1,keyasint"`
	Function   Index         `cbor:"2,keyasint"`
	Name       string        `cbor:"3,keyasint"`
	UniqueName string        `cbor:"4,keyasint,omitempty"`
	Comment    string        `cbor:"5,keyasint,omitempty"`
	Params     []ParamRecord `cbor:"6,keyasint,omitempty"`
	Return     Index         `cbor:"7,keyasint,omitempty"`
	HasReturn  bool          `cbor:"8,keyasint,omitempty"`
	// CallerManages is set when the caller owns the returned pointer;
	// Destructor then names the function that frees it, when known.
	CallerManages  bool  `cbor:"9,keyasint,omitempty"`
	Destructor     Index `cbor:"10,keyasint,omitempty"`
	CallableByName bool  `cbor:"11,keyasint,omitempty"`
}

// ReturnsAtomicString reports whether the wrapper returns a host string.
func (w *WrapperRecord) ReturnsAtomicString() bool { return w.Return == AtomicString }

// ManifestRecord is a preprocessor constant.
type ManifestRecord struct {
	Index      Index  `cbor:"1,keyasint"`
	Name       string `cbor:"2,keyasint"`
	Definition string `cbor:"3,keyasint"`
	Comment    string `cbor:"4,keyasint,omitempty"`
	// Type and Getter are set for typed manifests.
	Type   Index `cbor:"5,keyasint,omitempty"`
	Getter Index `cbor:"6,keyasint,omitempty"`
}

// ElementRecord is a data member or global variable.
type ElementRecord struct {
	Index      Index  `cbor:"1,keyasint"`
	Name       string `cbor:"2,keyasint"`
	ScopedName string `cbor:"3,keyasint"`
	Comment    string `cbor:"4,keyasint,omitempty"`
	Type       Index  `cbor:"5,keyasint"`
	Getter     Index  `cbor:"6,keyasint,omitempty"`
	Setter     Index  `cbor:"7,keyasint,omitempty"`
}
