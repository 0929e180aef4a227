// Package engine provides the Lisp evaluation engine for seam.
// It wraps zygomys in a sandboxed environment whose builtins drive the
// geometry kernel and the gluing algorithms, and collects the named solids
// a script defines into a Session.
package engine

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/seam/pkg/config"
	"github.com/chazu/seam/pkg/geokey"
	"github.com/chazu/seam/pkg/glue"
	"github.com/chazu/seam/pkg/kernel"
	"github.com/chazu/seam/pkg/kernel/ortho"
	"github.com/chazu/seam/pkg/topo"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/google/uuid"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code or a kernel failure
// inside a builtin.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Message string
	// ShapeID is the entity the warning is about, or 0.
	ShapeID uint64
}

// Session is everything a script produced.
type Session struct {
	// RunID identifies the evaluation in logs.
	RunID uuid.UUID

	// Names lists solids defined with defsolid in definition order.
	Names  []string
	solids map[string]topo.Shape

	// Compound is the last compound built by the script.
	Compound topo.Shape
	// Duplicates are the faces found by every reconcile pass, in order.
	Duplicates []topo.Shape
	Warnings   []EvalWarning
}

func newSession() *Session {
	return &Session{RunID: uuid.New(), solids: make(map[string]topo.Shape)}
}

// Solid returns the solid defined under name.
func (s *Session) Solid(name string) (topo.Shape, bool) {
	sh, ok := s.solids[name]
	return sh, ok
}

// Define binds name to sh. Redefining a name replaces the shape and records
// a warning.
func (s *Session) Define(name string, sh topo.Shape) {
	if _, ok := s.solids[name]; ok {
		s.Warnings = append(s.Warnings, EvalWarning{
			Message: fmt.Sprintf("solid %q redefined", name),
			ShapeID: sh.ID(),
		})
	} else {
		s.Names = append(s.Names, name)
	}
	s.solids[name] = sh
}

// Result is the shape a script evaluates to: its last compound, or else a
// compound of its named solids. It is null when the script built neither.
func (s *Session) Result() topo.Shape {
	if !s.Compound.IsNull() {
		return s.Compound
	}
	if len(s.Names) == 0 {
		return topo.Shape{}
	}
	shapes := make([]topo.Shape, 0, len(s.Names))
	for _, n := range s.Names {
		shapes = append(shapes, s.solids[n])
	}
	return topo.MakeCompound(shapes...)
}

// Engine wraps the zygomys interpreter for seam scripts.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment and session for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	timeout   time.Duration
	kernel    kernel.Kernel
	keyer     *geokey.Keyer
	sewingTol float64
	borderTol float64
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the hard limit for a single evaluation.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithKernel sets the geometry kernel builtins run on.
func WithKernel(k kernel.Kernel) Option {
	return func(e *Engine) { e.kernel = k }
}

// WithLogger sets the logger handed to the reconciler.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithConfig applies key policy, tolerances and timeout from cfg.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		e.keyer = cfg.Keyer()
		e.sewingTol = cfg.Sewing.Tolerance
		e.borderTol = cfg.Border.Tolerance
		if d, err := cfg.EngineTimeout(); err == nil {
			e.timeout = d
		}
	}
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		timeout:   DefaultTimeout,
		keyer:     geokey.NewKeyer(geokey.DefaultPolicy()),
		sewingTol: ortho.DefaultSewingTolerance,
		borderTol: glue.DefaultBorderTolerance,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.kernel == nil {
		e.kernel = ortho.New(ortho.WithLogger(e.logger))
	}
	return e
}

// Evaluate runs a seam script and returns the session it built.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns session + nil errors + nil error
//   - On parse/eval failure: returns nil session + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Session, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		s, evalErrs, err := e.evaluate(source)
		ch <- evalResult{session: s, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation, e.timeout)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*Session, []EvalError, error) {
	s := newSession()
	// Empty source is a valid program that produces an empty session.
	if strings.TrimSpace(source) == "" {
		return s, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	rec := glue.NewReconciler(
		glue.WithKernel(e.kernel),
		glue.WithKeyer(e.keyer),
		glue.WithSewingTolerance(e.sewingTol),
		glue.WithLogger(e.logger.With("run", s.RunID.String())),
	)
	registerBuiltins(env, s, &scope{kernel: e.kernel, rec: rec, borderTol: e.borderTol})

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	e.logger.Debug("evaluated script",
		"run", s.RunID.String(), "solids", len(s.Names), "duplicates", len(s.Duplicates))
	return s, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := p.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
