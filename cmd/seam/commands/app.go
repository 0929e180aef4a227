package commands

import (
	"log/slog"

	"github.com/chazu/seam/pkg/config"
	"github.com/chazu/seam/pkg/engine"
	"github.com/chazu/seam/pkg/kernel"
	"github.com/chazu/seam/pkg/tessellate"
	"github.com/chazu/seam/pkg/topo"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App evaluates scripts and turns their result into meshes.
type App struct {
	engine *engine.Engine
	logger *slog.Logger
}

// MeshData is the JSON-serializable mesh format written by run -mesh.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of evaluating one script.
type EvalResult struct {
	Session *engine.Session `json:"-"`
	Shape   topo.Shape      `json:"-"`
	Kernel  []*kernel.Mesh  `json:"-"`

	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates a new App whose engine is configured from cfg.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		engine: engine.NewEngine(engine.WithConfig(cfg), engine.WithLogger(logger)),
		logger: logger,
	}
}

// Evaluate takes Lisp source and returns the shape it built, its meshes and
// any errors.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a session.
	s, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.logger.Error("evaluate fatal error", "error", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors to the report format.
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}
	result.Session = s
	for _, w := range s.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.Message})
	}

	result.Shape = s.Result()
	if result.Shape.IsNull() {
		return result
	}

	// Step 3: Tessellate the result into triangle meshes.
	meshes, err := tessellate.Tessellate(result.Shape)
	if err != nil {
		a.logger.Error("tessellate error", "error", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}
	result.Kernel = meshes

	// Step 4: Assign each part a palette color.
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}

	a.logger.Debug("evaluated", "run", s.RunID.String(), "parts", len(meshes))
	return result
}
