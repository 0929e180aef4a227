package commands

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chazu/seam/pkg/disasm"
	"github.com/chazu/seam/pkg/export"
	"github.com/chazu/seam/pkg/kernel"
	"github.com/chazu/seam/pkg/kernel/sdfx"
	"github.com/chazu/seam/pkg/topo"
	"github.com/chazu/seam/pkg/validate"
)

// RunFlags contains flags for the run command
type RunFlags struct {
	commonFlags
	Output  string
	STL     string
	Preview string
	Cells   int
	Mesh    string
}

// SetupRunFlags creates and configures a FlagSet for the run command.
func SetupRunFlags() (*flag.FlagSet, *RunFlags) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	flags := &RunFlags{}

	flags.register(fs)
	fs.StringVar(&flags.Output, "o", "", "write the result as a BREP table to this path")
	fs.StringVar(&flags.STL, "stl", "", "write the faceted result as STL to this path")
	fs.StringVar(&flags.Preview, "preview", "", "write a marching cubes preview as STL to this path")
	fs.IntVar(&flags.Cells, "cells", 200, "marching cubes cells along the longest axis for -preview")
	fs.StringVar(&flags.Mesh, "mesh", "", "write colored part meshes as JSON to this path")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: seam run [flags] <script.lisp>\n\n")
		Writef(fs.Output(), "Evaluate a seam script, report its topology and validation findings,\n")
		Writef(fs.Output(), "and write the shape it built.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  seam run examples/split.lisp\n")
		Writef(fs.Output(), "  seam run -o molds.brep -stl molds.stl examples/split.lisp\n")
		Writef(fs.Output(), "  seam run -c seam.toml -preview preview.stl examples/split.lisp\n")
	}

	return fs, flags
}

// HandleRun executes the run command
func HandleRun(w io.Writer, args []string) error {
	fs, flags := SetupRunFlags()
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("run command requires exactly one script path")
	}
	script := fs.Arg(0)
	for _, out := range []string{flags.Output, flags.STL, flags.Preview, flags.Mesh} {
		if out == "" {
			continue
		}
		if err := ValidateOutputPath(out, script); err != nil {
			return err
		}
	}

	cfg, logger, err := flags.load()
	if err != nil {
		return err
	}
	source, err := os.ReadFile(script)
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}

	res := NewApp(cfg, logger).Evaluate(string(source))
	for _, e := range res.Warnings {
		Writef(w, "warning: %s\n", e.Message)
	}
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			if e.Line > 0 {
				Writef(w, "%s:%d: %s\n", script, e.Line, e.Message)
			} else {
				Writef(w, "%s: %s\n", script, e.Message)
			}
		}
		return fmt.Errorf("script failed with %d error(s)", len(res.Errors))
	}
	if res.Shape.IsNull() {
		return fmt.Errorf("script built no shapes: define solids with defsolid or build a compound")
	}

	Writef(w, "Run: %s\n", res.Session.RunID)
	if err := disasm.WriteStats(w, disasm.Collect(res.Shape)); err != nil {
		return err
	}
	Writef(w, "Duplicates: %d\n", len(res.Session.Duplicates))
	writeFindings(w, validate.New(cfg.Keyer()).Validate(res.Shape))

	if flags.Output != "" {
		if err := export.WriteBREPFile(flags.Output, res.Shape); err != nil {
			return fmt.Errorf("writing BREP: %w", err)
		}
		Writef(w, "Wrote %s\n", flags.Output)
	}
	if flags.STL != "" {
		if err := export.WriteSTL(flags.STL, res.Kernel); err != nil {
			return fmt.Errorf("writing STL: %w", err)
		}
		Writef(w, "Wrote %s\n", flags.STL)
	}
	if flags.Preview != "" {
		if err := writePreview(flags.Preview, res.Shape, flags.Cells); err != nil {
			return err
		}
		Writef(w, "Wrote %s\n", flags.Preview)
	}
	if flags.Mesh != "" {
		data, err := json.Marshal(res.Meshes)
		if err != nil {
			return fmt.Errorf("marshaling meshes: %w", err)
		}
		if err := os.WriteFile(flags.Mesh, data, 0o644); err != nil {
			return fmt.Errorf("writing meshes: %w", err)
		}
		Writef(w, "Wrote %s\n", flags.Mesh)
	}
	return nil
}

// writePreview renders s with marching cubes and saves it as STL.
func writePreview(path string, s topo.Shape, cells int) error {
	mesh, err := sdfx.New(sdfx.WithCells(cells)).ToMesh(s)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	if err := export.WriteSTL(path, []*kernel.Mesh{mesh}); err != nil {
		return fmt.Errorf("writing preview: %w", err)
	}
	return nil
}

// writeFindings prints validation errors, then warnings.
func writeFindings(w io.Writer, r validate.Result) {
	if r.Valid() && len(r.Warnings) == 0 {
		Writef(w, "Validation: ok\n")
		return
	}
	Writef(w, "Validation: %d error(s), %d warning(s)\n", len(r.Errors), len(r.Warnings))
	for _, f := range r.Errors {
		Writef(w, "  %s\n", f.Error())
	}
	for _, f := range r.Warnings {
		Writef(w, "  %s\n", f.Error())
	}
}
