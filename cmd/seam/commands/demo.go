package commands

import (
	"flag"
	"fmt"
	"io"

	"github.com/chazu/seam/pkg/disasm"
	"github.com/chazu/seam/pkg/export"
	"github.com/chazu/seam/pkg/glue"
	"github.com/chazu/seam/pkg/kernel/ortho"
	"github.com/chazu/seam/pkg/tessellate"
	"github.com/chazu/seam/pkg/topo"
	"github.com/chazu/seam/pkg/validate"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DemoFlags contains flags for the demo command
type DemoFlags struct {
	commonFlags
	Output string
	STL    string
	Format string
}

// SetupDemoFlags creates and configures a FlagSet for the demo command.
func SetupDemoFlags() (*flag.FlagSet, *DemoFlags) {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	flags := &DemoFlags{}

	flags.register(fs)
	fs.StringVar(&flags.Output, "o", "", "write the glued molds as a BREP table to this path")
	fs.StringVar(&flags.STL, "stl", "", "write the glued molds as STL to this path")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: seam demo [flags]\n\n")
		Writef(fs.Output(), "Split a unit block twice, glue the molds and report each pass.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
	}

	return fs, flags
}

// ReplacementReport names a stale face and the faces replacing it by key.
type ReplacementReport struct {
	Stale string   `json:"stale" yaml:"stale"`
	Faces []string `json:"faces" yaml:"faces"`
}

// DemoReport summarizes a split-and-glue run.
type DemoReport struct {
	FirstPass    int                 `json:"firstPass" yaml:"firstPass"`
	SecondPass   int                 `json:"secondPass" yaml:"secondPass"`
	FinalPass    int                 `json:"finalPass" yaml:"finalPass"`
	Replacements []ReplacementReport `json:"replacements" yaml:"replacements"`
	Stats        disasm.Stats        `json:"stats" yaml:"stats"`
	Valid        bool                `json:"valid" yaml:"valid"`
	Warnings     int                 `json:"warnings" yaml:"warnings"`
}

// HandleDemo executes the demo command
func HandleDemo(w io.Writer, args []string) error {
	fs, flags := SetupDemoFlags()
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return fmt.Errorf("demo command takes no arguments")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}
	cfg, logger, err := flags.load()
	if err != nil {
		return err
	}

	k := ortho.New(ortho.WithLogger(logger))
	block, tool1, tool2, err := demoScene(k)
	if err != nil {
		return err
	}

	rec := glue.NewReconciler(
		glue.WithKernel(k),
		glue.WithKeyer(cfg.Keyer()),
		glue.WithSewingTolerance(cfg.Sewing.Tolerance),
		glue.WithLogger(logger),
	)
	asm, err := rec.SplitAndGlue(block, tool1, tool2, cfg.Border.Tolerance)
	if err != nil {
		return err
	}

	vr := validate.New(cfg.Keyer()).Validate(asm.Compound)
	report := DemoReport{
		FirstPass:  len(asm.FirstPass),
		SecondPass: len(asm.SecondPass),
		FinalPass:  len(asm.FinalPass),
		Stats:      disasm.Collect(asm.Compound),
		Valid:      vr.Valid(),
		Warnings:   len(vr.Warnings),
	}
	for _, rp := range asm.Replacements {
		rr := ReplacementReport{Stale: string(rec.Keyer().Face(rp.Stale))}
		for _, f := range rp.Faces {
			rr.Faces = append(rr.Faces, string(rec.Keyer().Face(f)))
		}
		report.Replacements = append(report.Replacements, rr)
	}

	if flags.Output != "" {
		if err := export.WriteBREPFile(flags.Output, asm.Compound); err != nil {
			return fmt.Errorf("writing BREP: %w", err)
		}
	}
	if flags.STL != "" {
		meshes, err := tessellate.Tessellate(asm.Compound)
		if err != nil {
			return err
		}
		if err := export.WriteSTL(flags.STL, meshes); err != nil {
			return fmt.Errorf("writing STL: %w", err)
		}
	}

	if flags.Format != FormatText {
		return OutputStructured(w, report, flags.Format)
	}
	Writef(w, "Split and glue\n")
	Writef(w, "==============\n\n")
	Writef(w, "First pass duplicates:  %d\n", report.FirstPass)
	Writef(w, "Second pass duplicates: %d\n", report.SecondPass)
	for _, rr := range report.Replacements {
		Writef(w, "Replaced %s with %d faces\n", rr.Stale, len(rr.Faces))
	}
	Writef(w, "Final pass duplicates:  %d\n\n", report.FinalPass)
	if err := disasm.WriteStats(w, report.Stats); err != nil {
		return err
	}
	Writef(w, "\n")
	writeFindings(w, vr)
	return nil
}

// demoScene returns a unit block, a tool splitting it at x=0.5 and a tool
// splitting the right half at y=0.7.
func demoScene(k *ortho.Kernel) (block, tool1, tool2 topo.Shape, err error) {
	boxes := [3][2]v3.Vec{
		{{}, {X: 1, Y: 1, Z: 1}},
		{{X: 0.5, Y: -1, Z: -1}, {X: 2, Y: 2, Z: 2}},
		{{X: -1, Y: 0.7, Z: -1}, {X: 2, Y: 2, Z: 2}},
	}
	var out [3]topo.Shape
	for i, b := range boxes {
		if out[i], err = k.BoxMinMax(b[0], b[1]); err != nil {
			return block, tool1, tool2, fmt.Errorf("demo scene: %w", err)
		}
	}
	return out[0], out[1], out[2], nil
}
