package metadb

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// FormatVersion is bumped whenever a record layout changes incompatibly.
const FormatVersion = 1

// cborEncMode uses canonical encoding so a database is byte-identical
// across runs.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("metadb: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// file is the persisted form of a Database.
type file struct {
	Version     int               `cbor:"1,keyasint"`
	Library     string            `cbor:"2,keyasint"`
	LibraryHash string            `cbor:"3,keyasint"`
	NextIndex   Index             `cbor:"4,keyasint"`
	Types       []*TypeRecord     `cbor:"5,keyasint,omitempty"`
	Functions   []*FunctionRecord `cbor:"6,keyasint,omitempty"`
	Wrappers    []*WrapperRecord  `cbor:"7,keyasint,omitempty"`
	Manifests   []*ManifestRecord `cbor:"8,keyasint,omitempty"`
	Elements    []*ElementRecord  `cbor:"9,keyasint,omitempty"`
}

// Encode serializes db to canonical CBOR.
func (db *Database) Encode() ([]byte, error) {
	return cborEncMode.Marshal(&file{
		Version:     FormatVersion,
		Library:     db.Library,
		LibraryHash: db.LibraryHash,
		NextIndex:   db.next,
		Types:       db.Types(),
		Functions:   db.Functions(),
		Wrappers:    db.Wrappers(),
		Manifests:   db.Manifests(),
		Elements:    db.Elements(),
	})
}

// Decode deserializes a database written by Encode.
func Decode(data []byte) (*Database, error) {
	var f file
	if err := cbor.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("metadb: unmarshal database: %w", err)
	}
	if f.Version != FormatVersion {
		return nil, fmt.Errorf("metadb: unsupported database version %d", f.Version)
	}
	return f.restore()
}

// restore rebuilds a Database, re-validating every index.
func (f *file) restore() (*Database, error) {
	db := New(f.Library)
	db.LibraryHash = f.LibraryHash
	db.next = f.NextIndex
	for _, r := range f.Types {
		if err := db.AddType(r); err != nil {
			return nil, err
		}
	}
	for _, r := range f.Functions {
		if err := db.AddFunction(r); err != nil {
			return nil, err
		}
	}
	for _, r := range f.Wrappers {
		if err := db.AddWrapper(r); err != nil {
			return nil, err
		}
	}
	for _, r := range f.Manifests {
		if err := db.AddManifest(r); err != nil {
			return nil, err
		}
	}
	for _, r := range f.Elements {
		if err := db.AddElement(r); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// WriteFile encodes db to path.
func (db *Database) WriteFile(path string) error {
	data, err := db.Encode()
	if err != nil {
		return fmt.Errorf("metadb: encode: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile decodes the database at path.
func ReadFile(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
