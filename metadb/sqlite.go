package metadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	_ "modernc.org/sqlite"
)

// ErrWrapperNotFound is returned by Store.LookupWrapper.
var ErrWrapperNotFound = errors.New("wrapper not found")

// Record kinds stored in the records table.
const (
	kindType     = "type"
	kindFunction = "function"
	kindWrapper  = "wrapper"
	kindManifest = "manifest"
	kindElement  = "element"
)

const schema = `
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE records (
	idx         INTEGER PRIMARY KEY,
	kind        TEXT NOT NULL,
	name        TEXT NOT NULL,
	unique_name TEXT,
	data        BLOB NOT NULL
);
CREATE UNIQUE INDEX records_unique_name ON records (unique_name) WHERE unique_name IS NOT NULL;
`

// SaveSQLite writes db to a fresh SQLite database at path. Each record
// is stored as canonical CBOR next to the columns it is looked up by.
func SaveSQLite(ctx context.Context, path string, db *Database) (err error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing old database: %w", err)
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); err == nil {
			err = cerr
		}
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	meta := [][2]string{
		{"version", strconv.Itoa(FormatVersion)},
		{"library", db.Library},
		{"library_hash", db.LibraryHash},
		{"next_index", strconv.Itoa(int(db.next))},
	}
	for _, kv := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", kv[0], kv[1]); err != nil {
			return fmt.Errorf("writing meta %s: %w", kv[0], err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO records (idx, kind, name, unique_name, data) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	insert := func(idx Index, kind, name, unique string, rec any) error {
		data, err := cborEncMode.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding %s %s: %w", kind, name, err)
		}
		var u any
		if unique != "" {
			u = unique
		}
		if _, err := stmt.ExecContext(ctx, int64(idx), kind, name, u, data); err != nil {
			return fmt.Errorf("saving %s %s: %w", kind, name, err)
		}
		return nil
	}
	for _, r := range db.Types() {
		if err := insert(r.Index, kindType, r.ScopedName, "", r); err != nil {
			return err
		}
	}
	for _, r := range db.Functions() {
		if err := insert(r.Index, kindFunction, r.ScopedName, "", r); err != nil {
			return err
		}
	}
	for _, r := range db.Wrappers() {
		if err := insert(r.Index, kindWrapper, r.Name, r.UniqueName, r); err != nil {
			return err
		}
	}
	for _, r := range db.Manifests() {
		if err := insert(r.Index, kindManifest, r.Name, "", r); err != nil {
			return err
		}
	}
	for _, r := range db.Elements() {
		if err := insert(r.Index, kindElement, r.ScopedName, "", r); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Store is a read-only handle on a database saved by SaveSQLite.
type Store struct {
	db *sql.DB
}

// OpenSQLite opens the database at path.
func OpenSQLite(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// LookupWrapper finds a wrapper by its unique name.
func (s *Store) LookupWrapper(ctx context.Context, uniqueName string) (*WrapperRecord, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM records WHERE kind = ? AND unique_name = ?", kindWrapper, uniqueName,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", uniqueName, ErrWrapperNotFound)
		}
		return nil, fmt.Errorf("querying wrapper: %w", err)
	}
	var w WrapperRecord
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding wrapper %s: %w", uniqueName, err)
	}
	return &w, nil
}

// Load reads every record back into a Database.
func (s *Store) Load(ctx context.Context) (*Database, error) {
	f := &file{}
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("querying meta: %w", err)
	}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning meta: %w", err)
		}
		switch key {
		case "version":
			f.Version, _ = strconv.Atoi(value)
		case "library":
			f.Library = value
		case "library_hash":
			f.LibraryHash = value
		case "next_index":
			n, _ := strconv.Atoi(value)
			f.NextIndex = Index(n)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading meta: %w", err)
	}
	if f.Version != FormatVersion {
		return nil, fmt.Errorf("metadb: unsupported database version %d", f.Version)
	}

	rows, err = s.db.QueryContext(ctx, "SELECT kind, data FROM records ORDER BY idx")
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var data []byte
		if err := rows.Scan(&kind, &data); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if err := f.decodeRecord(kind, data); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return f.restore()
}

func (f *file) decodeRecord(kind string, data []byte) error {
	var err error
	switch kind {
	case kindType:
		r := &TypeRecord{}
		err = cbor.Unmarshal(data, r)
		f.Types = append(f.Types, r)
	case kindFunction:
		r := &FunctionRecord{}
		err = cbor.Unmarshal(data, r)
		f.Functions = append(f.Functions, r)
	case kindWrapper:
		r := &WrapperRecord{}
		err = cbor.Unmarshal(data, r)
		f.Wrappers = append(f.Wrappers, r)
	case kindManifest:
		r := &ManifestRecord{}
		err = cbor.Unmarshal(data, r)
		f.Manifests = append(f.Manifests, r)
	case kindElement:
		r := &ElementRecord{}
		err = cbor.Unmarshal(data, r)
		f.Elements = append(f.Elements, r)
	default:
		return fmt.Errorf("unknown record kind %q", kind)
	}
	if err != nil {
		return fmt.Errorf("decoding %s record: %w", kind, err)
	}
	return nil
}
