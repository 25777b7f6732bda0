package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/chazu/interrogate/decl"
	"github.com/chazu/interrogate/emit"
	"github.com/chazu/interrogate/manifest"
	"github.com/chazu/interrogate/metadb"
)

// toggles maps command-line switches onto the generation config.
var toggles = []struct {
	name  string
	usage string
	field func(*manifest.GenerationConfig) *bool
}{
	{"convert-strings", "expose strings as the host's atomic string", func(c *manifest.GenerationConfig) *bool { return &c.ConvertStrings }},
	{"manage-refcounts", "hand reference-counted returns to the caller", func(c *manifest.GenerationConfig) *bool { return &c.ManageRefCounts }},
	{"assert-checks", "assert that receivers are not null", func(c *manifest.GenerationConfig) *bool { return &c.AssertChecks }},
	{"true-names", "publish wrappers under their C++ names", func(c *manifest.GenerationConfig) *bool { return &c.TrueNames }},
	{"export-names", "give wrappers external linkage", func(c *manifest.GenerationConfig) *bool { return &c.ExportNames }},
	{"build-database", "write the metadata database", func(c *manifest.GenerationConfig) *bool { return &c.BuildDatabase }},
}

func generateCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "dir", Aliases: []string{"C"}, Value: ".", Usage: "directory to search for " + manifest.FileName},
		&cli.StringFlag{Name: "library", Aliases: []string{"l"}, Usage: "library name; overrides the manifest and declarations"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output directory"},
		&cli.StringFlag{Name: "database", Usage: "database file name (.cbor, .db or .sqlite)"},
		&cli.StringSliceFlag{Name: "binding", Usage: "host binding to emit (repeatable)"},
	}
	for _, tg := range toggles {
		flags = append(flags, &cli.BoolFlag{Name: tg.name, Usage: tg.usage})
	}
	return &cli.Command{
		Name:      "generate",
		Usage:     "emit wrappers for the declarations of a library",
		ArgsUsage: "[declaration files...]",
		Description: "With no arguments the declaration files listed in " + manifest.FileName +
			" are used. Files given on the command line replace them.",
		Flags:  flags,
		Action: runGenerate,
	}
}

// loadManifest finds the project manifest and applies command-line
// overrides. Without a manifest the command line must name the inputs.
func loadManifest(c *cli.Context) (*manifest.Manifest, error) {
	m, err := manifest.FindAndLoad(c.String("dir"))
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	if m == nil {
		if c.NArg() == 0 {
			return nil, fmt.Errorf("no %s found and no declaration files given", manifest.FileName)
		}
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		m = &manifest.Manifest{
			Generate: manifest.DefaultGenerationConfig(),
			Output:   manifest.DefaultOutput(),
			Dir:      cwd,
		}
	}

	if c.NArg() > 0 {
		m.Input.Files = nil
		for _, arg := range c.Args().Slice() {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return nil, err
			}
			m.Input.Files = append(m.Input.Files, abs)
		}
	}
	if c.IsSet("library") {
		m.Project.Library = c.String("library")
	}
	if c.IsSet("output") {
		m.Output.Dir = c.String("output")
		if !filepath.IsAbs(m.Output.Dir) {
			abs, err := filepath.Abs(m.Output.Dir)
			if err != nil {
				return nil, err
			}
			m.Output.Dir = abs
		}
	}
	if c.IsSet("database") {
		m.Output.Database = c.String("database")
	}
	if c.IsSet("binding") {
		m.Generate.Bindings = c.StringSlice("binding")
	}
	for _, tg := range toggles {
		if c.IsSet(tg.name) {
			*tg.field(&m.Generate) = c.Bool(tg.name)
		}
	}
	if m.Project.Name == "" {
		m.Project.Name = m.Project.Library
		if m.Project.Name == "" {
			m.Project.Name = filepath.Base(m.Dir)
		}
	}
	return m, m.Validate()
}

func runGenerate(c *cli.Context) error {
	m, err := loadManifest(c)
	if err != nil {
		return err
	}

	files, err := m.InputFiles()
	if err != nil {
		return err
	}
	unit, err := decl.LoadFiles(files...)
	if err != nil {
		return err
	}
	if m.Project.Library != "" {
		unit.Library = m.Project.Library
	}
	if unit.Library == "" {
		return errors.New("no library name: set project.library, pass --library or name it in a declaration file")
	}

	if err := os.MkdirAll(m.OutputPath(""), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	multi := len(m.Generate.Bindings) > 1
	for _, name := range m.Generate.Bindings {
		b, err := emit.NewBinding(name, m.Generate)
		if err != nil {
			return err
		}
		res, err := emit.NewGenerator(m.Generate, b).Generate(unit)
		if err != nil {
			return fmt.Errorf("%s binding: %w", name, err)
		}

		protoPath := m.OutputPath(outputName(m.Output.Prototypes, name, multi))
		bodyPath := m.OutputPath(outputName(m.Output.Wrappers, name, multi))
		if err := res.Sink.WriteFiles(protoPath, bodyPath); err != nil {
			return err
		}
		if m.Generate.BuildDatabase {
			dbPath := m.OutputPath(outputName(m.Output.Database, name, multi))
			if err := writeDatabase(c, dbPath, res.Database); err != nil {
				return fmt.Errorf("writing %s: %w", dbPath, err)
			}
		}

		res.Summary.Log()
		fmt.Fprintln(c.App.Writer, res.Summary)
	}
	return nil
}

// outputName tags a file name with the binding when several are emitted.
func outputName(file, binding string, multi bool) string {
	if !multi {
		return file
	}
	ext := filepath.Ext(file)
	return strings.TrimSuffix(file, ext) + "_" + binding + ext
}

func writeDatabase(c *cli.Context, path string, db *metadb.Database) error {
	switch manifest.DatabaseFormat(path) {
	case "cbor":
		return db.WriteFile(path)
	case "sqlite":
		return metadb.SaveSQLite(c.Context, path, db)
	}
	return fmt.Errorf("unrecognized database format")
}
