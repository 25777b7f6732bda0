package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/chazu/interrogate/manifest"
	"github.com/chazu/interrogate/metadb"
)

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "list the wrappers recorded in a database",
		ArgsUsage: "<database>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "wrapper", Aliases: []string{"w"}, Usage: "show one wrapper by unique name"},
		},
		Action: runInspect,
	}
}

func runInspect(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("inspect takes exactly one database path")
	}
	path := c.Args().First()
	unique := c.String("wrapper")

	var db *metadb.Database
	switch manifest.DatabaseFormat(path) {
	case "cbor":
		var err error
		if db, err = metadb.ReadFile(path); err != nil {
			return err
		}
	case "sqlite":
		store, err := metadb.OpenSQLite(path)
		if err != nil {
			return err
		}
		defer store.Close()
		if unique != "" {
			w, err := store.LookupWrapper(c.Context, unique)
			if err != nil {
				return err
			}
			printWrapper(c.App.Writer, w)
			return nil
		}
		if db, err = store.Load(c.Context); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%s: extension must be .cbor, .db or .sqlite", path)
	}

	if unique != "" {
		w, ok := db.LookupWrapper(unique)
		if !ok {
			return fmt.Errorf("%s: %w", unique, metadb.ErrWrapperNotFound)
		}
		printWrapper(c.App.Writer, w)
		return nil
	}

	out := c.App.Writer
	fmt.Fprintf(out, "library %s (hash %s): %d types, %d functions, %d wrappers\n",
		db.Library, db.LibraryHash, len(db.Types()), len(db.Functions()), len(db.Wrappers()))
	for _, f := range db.Functions() {
		fmt.Fprintf(out, "%s\n", f.ScopedName)
		for _, wi := range f.Wrappers {
			if w, ok := db.Wrapper(wi); ok {
				fmt.Fprintf(out, "  %s  %s\n", w.UniqueName, w.Name)
			}
		}
	}
	return nil
}

func printWrapper(out io.Writer, w *metadb.WrapperRecord) {
	fmt.Fprintf(out, "%s (%s), function %d\n", w.UniqueName, w.Name, w.Function)
	params := make([]string, len(w.Params))
	for i, p := range w.Params {
		name := p.Name
		if p.IsReceiver {
			name = "this"
		}
		params[i] = fmt.Sprintf("%s:%d", name, p.Type)
	}
	fmt.Fprintf(out, "  params: %s\n", strings.Join(params, ", "))
	switch {
	case w.ReturnsAtomicString():
		fmt.Fprintln(out, "  returns: atomic string")
	case w.HasReturn:
		fmt.Fprintf(out, "  returns: type %d\n", w.Return)
	}
	if w.CallerManages {
		fmt.Fprintf(out, "  caller manages result (destructor %d)\n", w.Destructor)
	}
}
