package commands

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/seam/pkg/disasm"
	"github.com/chazu/seam/pkg/export"
	"github.com/chazu/seam/pkg/topo"
)

// StatsFlags contains flags for the stats command
type StatsFlags struct {
	commonFlags
	Format string
	Tree   bool
}

// SetupStatsFlags creates and configures a FlagSet for the stats command.
func SetupStatsFlags() (*flag.FlagSet, *StatsFlags) {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	flags := &StatsFlags{}

	flags.register(fs)
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")
	fs.BoolVar(&flags.Tree, "tree", false, "print the topology tree of a script result instead of counts")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: seam stats [flags] <file.brep|script.lisp>\n\n")
		Writef(fs.Output(), "Print the number of distinct entities of each type and how often\n")
		Writef(fs.Output(), "they occur. BREP files are read; anything else is run as a script.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
	}

	return fs, flags
}

// HandleStats executes the stats command
func HandleStats(w io.Writer, args []string) error {
	fs, flags := SetupStatsFlags()
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("stats command requires exactly one file path")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	path := fs.Arg(0)
	if flags.Tree {
		if isBREP(path) {
			return fmt.Errorf("-tree needs a script, not a BREP file")
		}
		shape, err := evaluateScript(path, &flags.commonFlags)
		if err != nil {
			return err
		}
		return disasm.WriteTopology(w, shape)
	}

	stats, err := collectStats(path, &flags.commonFlags)
	if err != nil {
		return err
	}
	if flags.Format != FormatText {
		return OutputStructured(w, stats, flags.Format)
	}
	return disasm.WriteStats(w, stats)
}

func isBREP(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".brep")
}

func collectStats(path string, common *commonFlags) (disasm.Stats, error) {
	if isBREP(path) {
		ix, err := export.ReadIndexFile(path)
		if err != nil {
			return disasm.Stats{}, err
		}
		return ix.Stats(), nil
	}
	shape, err := evaluateScript(path, common)
	if err != nil {
		return disasm.Stats{}, err
	}
	return disasm.Collect(shape), nil
}

// evaluateScript runs the script at path and returns the shape it built.
func evaluateScript(path string, common *commonFlags) (topo.Shape, error) {
	cfg, logger, err := common.load()
	if err != nil {
		return topo.Shape{}, err
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return topo.Shape{}, fmt.Errorf("reading script: %w", err)
	}
	res := NewApp(cfg, logger).Evaluate(string(source))
	if len(res.Errors) > 0 {
		return topo.Shape{}, fmt.Errorf("%s: %s", path, res.Errors[0].Message)
	}
	return res.Shape, nil
}
