package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/seam/pkg/disasm"
	"github.com/chazu/seam/pkg/export"
	"github.com/chazu/seam/pkg/fit"
	"github.com/chazu/seam/pkg/topo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"
)

// writeScript stores source in a temporary .lisp file and returns its path.
func writeScript(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.lisp")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestValidateOutputFormat(t *testing.T) {
	for _, f := range []string{FormatText, FormatJSON, FormatYAML} {
		assert.NoError(t, ValidateOutputFormat(f))
	}
	err := ValidateOutputFormat("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format 'xml'")
}

func TestOutputStructured(t *testing.T) {
	data := map[string]int{"faces": 16}

	var buf bytes.Buffer
	require.NoError(t, OutputStructured(&buf, data, FormatJSON))
	assert.JSONEq(t, `{"faces": 16}`, buf.String())

	buf.Reset()
	require.NoError(t, OutputStructured(&buf, data, FormatYAML))
	assert.Equal(t, "faces: 16\n", strings.TrimSuffix(buf.String(), "\n"))

	assert.Error(t, OutputStructured(&buf, data, FormatText))
}

func TestValidateOutputPath(t *testing.T) {
	assert.NoError(t, ValidateOutputPath("out.brep", "in.lisp"))
	assert.Error(t, ValidateOutputPath("in.lisp", "other.lisp", "in.lisp"))
}

func TestCommonFlagsLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, logger, err := (&commonFlags{}).load()
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.Equal(t, 1e-5, cfg.Border.Tolerance)
	})

	t.Run("config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seam.toml")
		require.NoError(t, os.WriteFile(path, []byte("[border]\ntolerance = 0.001\n"), 0o644))
		cfg, _, err := (&commonFlags{Config: path}).load()
		require.NoError(t, err)
		assert.Equal(t, 0.001, cfg.Border.Tolerance)
	})

	t.Run("missing config", func(t *testing.T) {
		_, _, err := (&commonFlags{Config: "/nonexistent/seam.toml"}).load()
		assert.Error(t, err)
	})
}

func TestSetupRunFlags(t *testing.T) {
	fs, flags := SetupRunFlags()

	t.Run("default values", func(t *testing.T) {
		assert.Empty(t, flags.Output)
		assert.Empty(t, flags.STL)
		assert.Empty(t, flags.Preview)
		assert.Equal(t, 200, flags.Cells)
		assert.False(t, flags.Verbose)
	})

	t.Run("parse flags", func(t *testing.T) {
		args := []string{"-o", "out.brep", "-stl", "out.stl", "-cells", "50", "-v", "-c", "seam.toml", "split.lisp"}
		require.NoError(t, fs.Parse(args))
		assert.Equal(t, "out.brep", flags.Output)
		assert.Equal(t, "out.stl", flags.STL)
		assert.Equal(t, 50, flags.Cells)
		assert.True(t, flags.Verbose)
		assert.Equal(t, "seam.toml", flags.Config)
		assert.Equal(t, "split.lisp", fs.Arg(0))
	})
}

func TestHandleRun_NoArgs(t *testing.T) {
	assert.Error(t, HandleRun(&bytes.Buffer{}, []string{}))
}

func TestHandleRun_Help(t *testing.T) {
	assert.NoError(t, HandleRun(&bytes.Buffer{}, []string{"--help"}))
}

func TestHandleRun_ErrorPaths(t *testing.T) {
	t.Run("non-existent script", func(t *testing.T) {
		assert.Error(t, HandleRun(&bytes.Buffer{}, []string{"/nonexistent/script.lisp"}))
	})

	t.Run("output overwrites input", func(t *testing.T) {
		script := writeScript(t, splitAndGlueScript)
		err := HandleRun(&bytes.Buffer{}, []string{"-o", script, script})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "would overwrite")
	})

	t.Run("script error", func(t *testing.T) {
		script := writeScript(t, "(cut 1 2)")
		var buf bytes.Buffer
		err := HandleRun(&buf, []string{script})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "script failed with 1 error(s)")
		assert.Contains(t, buf.String(), script)
	})

	t.Run("no shapes", func(t *testing.T) {
		script := writeScript(t, "(def a 1)")
		err := HandleRun(&bytes.Buffer{}, []string{script})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "built no shapes")
	})
}

func TestHandleRun_WritesOutputs(t *testing.T) {
	script := writeScript(t, splitAndGlueScript)
	dir := t.TempDir()
	brep := filepath.Join(dir, "molds.brep")
	stl := filepath.Join(dir, "molds.stl")
	mesh := filepath.Join(dir, "molds.json")

	var buf bytes.Buffer
	require.NoError(t, HandleRun(&buf, []string{"-o", brep, "-stl", stl, "-mesh", mesh, script}))

	out := buf.String()
	assert.Contains(t, out, "Run: ")
	assert.Contains(t, out, "SOLID     : 3 x 3")
	assert.Contains(t, out, "Duplicates: 4")
	assert.Contains(t, out, "Validation: ")
	assert.Contains(t, out, "Wrote "+brep)

	ix, err := export.ReadIndexFile(brep)
	require.NoError(t, err)
	assert.Equal(t, 3, ix.Stats().Get(topo.Solid).Distinct)
	assert.Equal(t, 16, ix.Stats().Get(topo.Face).Distinct)

	info, err := os.Stat(stl)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	data, err := os.ReadFile(mesh)
	require.NoError(t, err)
	var meshes []MeshData
	require.NoError(t, json.Unmarshal(data, &meshes))
	assert.Len(t, meshes, 3)
}

func TestHandleRun_ExampleScripts(t *testing.T) {
	for _, name := range []string{"split.lisp", "split_and_glue.lisp"} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, HandleRun(&buf, []string{filepath.Join("..", "..", "..", "examples", name)}))
			assert.Contains(t, buf.String(), "SOLID     : 3 x 3")
			assert.Contains(t, buf.String(), "Duplicates: 4")
		})
	}
}

func TestHandleDemo(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, HandleDemo(&buf, nil))
		out := buf.String()
		assert.Contains(t, out, "First pass duplicates:  1")
		assert.Contains(t, out, "Second pass duplicates: 1")
		assert.Contains(t, out, "Final pass duplicates:  2")
		assert.Contains(t, out, "with 2 faces")
		assert.Contains(t, out, "FACE      : 16 x ")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, HandleDemo(&buf, []string{"-format", "json"}))
		var report DemoReport
		require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
		assert.Equal(t, 1, report.FirstPass)
		assert.Equal(t, 1, report.SecondPass)
		assert.Equal(t, 2, report.FinalPass)
		require.Len(t, report.Replacements, 1)
		assert.Len(t, report.Replacements[0].Faces, 2)
		assert.Equal(t, 3, report.Stats.Get(topo.Solid).Distinct)
		assert.Equal(t, 16, report.Stats.Get(topo.Vertex).Distinct)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, HandleDemo(&buf, []string{"-format", "yaml"}))
		var report DemoReport
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &report))
		assert.Equal(t, 2, report.FinalPass)
	})

	t.Run("writes brep", func(t *testing.T) {
		brep := filepath.Join(t.TempDir(), "demo.brep")
		require.NoError(t, HandleDemo(&bytes.Buffer{}, []string{"-o", brep}))
		ix, err := export.ReadIndexFile(brep)
		require.NoError(t, err)
		assert.Equal(t, 16, ix.Stats().Get(topo.Face).Distinct)
	})

	t.Run("invalid format", func(t *testing.T) {
		assert.Error(t, HandleDemo(&bytes.Buffer{}, []string{"-format", "invalid"}))
	})

	t.Run("extra args", func(t *testing.T) {
		assert.Error(t, HandleDemo(&bytes.Buffer{}, []string{"extra"}))
	})
}

func TestHandleStats(t *testing.T) {
	script := writeScript(t, splitAndGlueScript)
	brep := filepath.Join(t.TempDir(), "molds.brep")
	require.NoError(t, HandleRun(&bytes.Buffer{}, []string{"-o", brep, script}))

	t.Run("script and brep agree", func(t *testing.T) {
		var fromScript, fromBREP bytes.Buffer
		require.NoError(t, HandleStats(&fromScript, []string{"-format", "json", script}))
		require.NoError(t, HandleStats(&fromBREP, []string{"-format", "json", brep}))

		var a, b disasm.Stats
		require.NoError(t, json.Unmarshal(fromScript.Bytes(), &a))
		require.NoError(t, json.Unmarshal(fromBREP.Bytes(), &b))
		assert.Equal(t, a, b)
		assert.Equal(t, 16, a.Get(topo.Vertex).Distinct)
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, HandleStats(&buf, []string{brep}))
		assert.Contains(t, buf.String(), "SOLID     : 3 x 3")
	})

	t.Run("tree", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, HandleStats(&buf, []string{"-tree", script}))
		assert.True(t, strings.HasPrefix(buf.String(), "COMPOUND"))
		assert.Contains(t, buf.String(), "checked")
	})

	t.Run("tree rejects brep", func(t *testing.T) {
		assert.Error(t, HandleStats(&bytes.Buffer{}, []string{"-tree", brep}))
	})

	t.Run("no args", func(t *testing.T) {
		assert.Error(t, HandleStats(&bytes.Buffer{}, nil))
	})

	t.Run("help", func(t *testing.T) {
		assert.NoError(t, HandleStats(&bytes.Buffer{}, []string{"--help"}))
	})

	t.Run("bad brep", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.brep")
		require.NoError(t, os.WriteFile(path, []byte("not a brep\n"), 0o644))
		assert.Error(t, HandleStats(&bytes.Buffer{}, []string{path}))
	})
}

func TestHandleIDs(t *testing.T) {
	script := writeScript(t, splitAndGlueScript)
	brep := filepath.Join(t.TempDir(), "molds.brep")
	require.NoError(t, HandleRun(&bytes.Buffer{}, []string{"-o", brep, script}))

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, HandleIDs(&buf, []string{brep}))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.NotEmpty(t, lines)
		assert.True(t, strings.HasPrefix(lines[0], "TShapes "))
		assert.Contains(t, buf.String(), "SOLID: ")
		assert.Contains(t, buf.String(), " -> ")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, HandleIDs(&buf, []string{"-format", "json", brep}))
		var ix export.Index
		require.NoError(t, json.Unmarshal(buf.Bytes(), &ix))
		assert.Equal(t, ix.Declared, len(ix.Records))
		assert.NotEmpty(t, ix.Records)
	})

	t.Run("no args", func(t *testing.T) {
		assert.Error(t, HandleIDs(&bytes.Buffer{}, nil))
	})

	t.Run("missing file", func(t *testing.T) {
		assert.Error(t, HandleIDs(&bytes.Buffer{}, []string{"/nonexistent/molds.brep"}))
	})

	t.Run("self-containing compound", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "loop.brep")
		require.NoError(t, os.WriteFile(path, []byte("TShapes 1\nCo\n\n+1 0 *\n\n+1\n"), 0o644))
		err := HandleIDs(&bytes.Buffer{}, []string{path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "references 1")
		assert.Error(t, HandleStats(&bytes.Buffer{}, []string{path}))
	})
}

func TestHandleFit(t *testing.T) {
	args := []string{"-x", "0,1,2,3", "-y", "0,1,1,0"}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, HandleFit(&buf, args))
		assert.Contains(t, buf.String(), "P1: 1 1.5\n")
		assert.Equal(t, 4, strings.Count(buf.String(), "\n"))
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, HandleFit(&buf, append([]string{"-format", "json"}, args...)))
		var c fit.Curve2
		require.NoError(t, json.Unmarshal(buf.Bytes(), &c))
		want := [4]float64{0, 1.5, 1.5, 0}
		for i := range want {
			assert.InDelta(t, float64(i), c.X[i], 1e-9)
			assert.InDelta(t, want[i], c.Y[i], 1e-9)
		}
	})

	t.Run("pinned with params", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, HandleFit(&buf, []string{"-pinned", "-format", "json",
			"-t", "0,0.25,0.5,0.75,1", "-x", "0,1,2,3,4", "-y", "1,2,2.5,2,1"}))
		var c fit.Curve2
		require.NoError(t, json.Unmarshal(buf.Bytes(), &c))
		assert.Equal(t, 0.0, c.X[0])
		assert.Equal(t, 4.0, c.X[3])
		assert.Equal(t, 1.0, c.Y[0])
		assert.Equal(t, 1.0, c.Y[3])
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
		}{
			{"too few samples", []string{"-x", "0,1", "-y", "0,1"}},
			{"length mismatch", []string{"-x", "0,1,2,3", "-y", "0,1,1"}},
			{"bad number", []string{"-x", "0,a,2,3", "-y", "0,1,1,0"}},
			{"bad params", []string{"-t", "0,1", "-x", "0,1,2,3", "-y", "0,1,1,0"}},
			{"invalid format", append([]string{"-format", "xml"}, args...)},
			{"extra args", append(args, "extra")},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Error(t, HandleFit(&bytes.Buffer{}, tt.args))
			})
		}
	})

	t.Run("help", func(t *testing.T) {
		assert.NoError(t, HandleFit(&bytes.Buffer{}, []string{"--help"}))
	})
}

func writeSurfaceSamples(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "samples.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestHandleFitSurface(t *testing.T) {
	// z = x + 2y sampled on a 5x5 grid with x = u, y = v.
	var b strings.Builder
	b.WriteString("# u v x y z\n")
	for _, u := range fit.UniformParams(5) {
		for _, v := range fit.UniformParams(5) {
			fmt.Fprintf(&b, "%g %g %g %g %g\n", u, v, u, v, u+2*v)
		}
	}
	path := writeSurfaceSamples(t, b.String())
	grid := []string{"-nu", "2", "-nv", "2", "-du", "1", "-dv", "1"}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, HandleFit(&buf, append([]string{"-surface", path, "-format", "json"}, grid...)))
		var res SurfaceResult
		require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
		assert.Equal(t, 1, res.UDegree)
		assert.Equal(t, []float64{0, 0, 1, 1}, res.UKnots)
		want := [][][3]float64{{{0, 0, 0}, {0, 1, 2}}, {{1, 0, 1}, {1, 1, 3}}}
		require.Len(t, res.Poles, 2)
		for i := range want {
			require.Len(t, res.Poles[i], 2)
			for j := range want[i] {
				assert.InDeltaSlice(t, want[i][j][:], res.Poles[i][j][:], 1e-9)
			}
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, HandleFit(&buf, append([]string{"-surface", path, "-format", "yaml"}, grid...)))
		var res SurfaceResult
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &res))
		assert.Equal(t, []float64{0, 0, 1, 1}, res.VKnots)
		assert.Len(t, res.Poles, 2)
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, HandleFit(&buf, append([]string{"-surface", path}, grid...)))
		assert.Contains(t, buf.String(), "degree 1x1, 2x2 poles\n")
		assert.Contains(t, buf.String(), "P1,1: ")
		assert.Equal(t, 5, strings.Count(buf.String(), "\n"))
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name, body string
			args       []string
		}{
			{"underdetermined", "0 0 0 0 0\n1 1 1 1 1\n", nil},
			{"short line", "0 0 0 0\n", nil},
			{"bad number", "0 0 0 0 z\n", nil},
			{"degree", b.String(), []string{"-nu", "2", "-du", "2"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				args := append([]string{"-surface", writeSurfaceSamples(t, tt.body)}, tt.args...)
				assert.Error(t, HandleFit(&bytes.Buffer{}, args))
			})
		}
		assert.Error(t, HandleFit(&bytes.Buffer{}, []string{"-surface", "/nonexistent/samples.txt"}))
	})
}

func TestParseFloats(t *testing.T) {
	got, err := parseFloats(" 1, 2.5 ,-3e-1")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, -0.3}, got)

	got, err = parseFloats("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = parseFloats("1,,2")
	assert.Error(t, err)
}
