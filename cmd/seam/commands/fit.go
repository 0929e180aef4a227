package commands

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chazu/seam/pkg/fit"
	"github.com/chazu/seam/pkg/topo"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// FitFlags contains flags for the fit command
type FitFlags struct {
	T      string
	X      string
	Y      string
	Pinned bool
	Format string

	Surface string
	Grid    fit.SurfaceGrid
}

// SetupFitFlags creates and configures a FlagSet for the fit command.
func SetupFitFlags() (*flag.FlagSet, *FitFlags) {
	fs := flag.NewFlagSet("fit", flag.ContinueOnError)
	flags := &FitFlags{}

	fs.StringVar(&flags.T, "t", "", "comma separated curve parameters (default: uniform over [0,1])")
	fs.StringVar(&flags.X, "x", "", "comma separated sample x coordinates")
	fs.StringVar(&flags.Y, "y", "", "comma separated sample y coordinates")
	fs.BoolVar(&flags.Pinned, "pinned", false, "pin the end control points to the first and last samples")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")
	fs.StringVar(&flags.Surface, "surface", "", "fit a B-spline surface to the \"u v x y z\" samples in `file`")
	fs.IntVar(&flags.Grid.UPoles, "nu", 4, "surface poles along u")
	fs.IntVar(&flags.Grid.VPoles, "nv", 4, "surface poles along v")
	fs.IntVar(&flags.Grid.UDegree, "du", 3, "surface degree along u")
	fs.IntVar(&flags.Grid.VDegree, "dv", 3, "surface degree along v")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: seam fit [flags]\n\n")
		Writef(fs.Output(), "Fit a planar cubic Bezier curve to samples by least squares.\n")
		Writef(fs.Output(), "With -surface, fit a B-spline patch on clamped uniform knots instead.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  seam fit -x 0,1,2,3 -y 0,1,1,0\n")
		Writef(fs.Output(), "  seam fit -pinned -t 0,0.3,0.7,1 -x 0,1,2,3 -y 0,1,1,0\n")
		Writef(fs.Output(), "  seam fit -surface samples.txt -nu 5 -nv 4 -du 3 -dv 2\n")
	}

	return fs, flags
}

// HandleFit executes the fit command
func HandleFit(w io.Writer, args []string) error {
	fs, flags := SetupFitFlags()
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return fmt.Errorf("fit command takes no arguments")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}
	if flags.Surface != "" {
		return fitSurface(w, flags)
	}

	xs, err := parseFloats(flags.X)
	if err != nil {
		return fmt.Errorf("-x: %w", err)
	}
	ys, err := parseFloats(flags.Y)
	if err != nil {
		return fmt.Errorf("-y: %w", err)
	}
	ts := fit.UniformParams(len(xs))
	if flags.T != "" {
		if ts, err = parseFloats(flags.T); err != nil {
			return fmt.Errorf("-t: %w", err)
		}
	}

	solve := fit.CubicBezier
	if flags.Pinned {
		solve = fit.CubicBezierPinned
	}
	c, err := solve(ts, xs, ys)
	if err != nil {
		return err
	}

	if flags.Format != FormatText {
		return OutputStructured(w, c, flags.Format)
	}
	for i := range c.X {
		Writef(w, "P%d: %s %s\n", i,
			strconv.FormatFloat(c.X[i], 'g', 6, 64), strconv.FormatFloat(c.Y[i], 'g', 6, 64))
	}
	return nil
}

// SurfaceResult is the structured output of a surface fit.
type SurfaceResult struct {
	UDegree int            `json:"u_degree" yaml:"u_degree"`
	VDegree int            `json:"v_degree" yaml:"v_degree"`
	UKnots  []float64      `json:"u_knots" yaml:"u_knots"`
	VKnots  []float64      `json:"v_knots" yaml:"v_knots"`
	Poles   [][][3]float64 `json:"poles" yaml:"poles"`
}

func fitSurface(w io.Writer, flags *FitFlags) error {
	samples, err := readSurfaceSamples(flags.Surface)
	if err != nil {
		return err
	}
	s, err := fit.BSplineSurface(samples, flags.Grid)
	if err != nil {
		return err
	}
	res := newSurfaceResult(s)

	if flags.Format != FormatText {
		return OutputStructured(w, res, flags.Format)
	}
	Writef(w, "degree %dx%d, %dx%d poles\n", res.UDegree, res.VDegree, len(res.Poles), len(res.Poles[0]))
	for i, row := range res.Poles {
		for j, p := range row {
			Writef(w, "P%d,%d: %s %s %s\n", i, j,
				strconv.FormatFloat(p[0], 'g', 6, 64),
				strconv.FormatFloat(p[1], 'g', 6, 64),
				strconv.FormatFloat(p[2], 'g', 6, 64))
		}
	}
	return nil
}

func newSurfaceResult(s *topo.BSplineSurface) SurfaceResult {
	res := SurfaceResult{
		UDegree: s.UDegree,
		VDegree: s.VDegree,
		UKnots:  s.UKnots,
		VKnots:  s.VKnots,
		Poles:   make([][][3]float64, len(s.Poles)),
	}
	for i, row := range s.Poles {
		res.Poles[i] = make([][3]float64, len(row))
		for j, p := range row {
			res.Poles[i][j] = [3]float64{p.X, p.Y, p.Z}
		}
	}
	return res
}

// readSurfaceSamples reads one "u v x y z" sample per line. Blank lines
// and lines starting with # are skipped.
func readSurfaceSamples(path string) ([]fit.SurfaceSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open samples: %w", err)
	}
	defer f.Close()

	var out []fit.SurfaceSample
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 5 {
			return nil, fmt.Errorf("%s:%d: want 5 numbers, got %d", path, line, len(fields))
		}
		var v [5]float64
		for i, s := range fields {
			if v[i], err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("%s:%d: invalid number %q", path, line, s)
			}
		}
		out = append(out, fit.SurfaceSample{U: v[0], V: v[1], P: v3.Vec{X: v[2], Y: v[3], Z: v[4]}})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}
	return out, nil
}

// parseFloats splits a comma separated list of numbers.
func parseFloats(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		out = append(out, f)
	}
	return out, nil
}
