package commands

import (
	"flag"
	"fmt"
	"io"

	"github.com/chazu/seam/pkg/export"
)

// IDsFlags contains flags for the ids command
type IDsFlags struct {
	Format string
}

// SetupIDsFlags creates and configures a FlagSet for the ids command.
func SetupIDsFlags() (*flag.FlagSet, *IDsFlags) {
	fs := flag.NewFlagSet("ids", flag.ContinueOnError)
	flags := &IDsFlags{}

	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: seam ids [flags] <file.brep>\n\n")
		Writef(fs.Output(), "Print every TShape record of a BREP file with its child references.\n")
		Writef(fs.Output(), "Negative references are reversed occurrences.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
	}

	return fs, flags
}

// HandleIDs executes the ids command
func HandleIDs(w io.Writer, args []string) error {
	fs, flags := SetupIDsFlags()
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("ids command requires exactly one BREP file")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	ix, err := export.ReadIndexFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if flags.Format != FormatText {
		return OutputStructured(w, ix, flags.Format)
	}
	Writef(w, "TShapes %d\n", ix.Declared)
	for _, r := range ix.Records {
		Writef(w, "%s\n", r)
	}
	return nil
}
