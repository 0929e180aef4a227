package engine

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chazu/seam/pkg/config"
	"github.com/chazu/seam/pkg/topo"
)

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine()

	for _, src := range []string{"", "   \n\t  \n  "} {
		s, evalErrs, err := eng.Evaluate(src)
		if err != nil {
			t.Fatalf("unexpected fatal error: %v", err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("unexpected eval errors: %v", evalErrs)
		}
		if s == nil {
			t.Fatal("expected non-nil session")
		}
		if len(s.Names) != 0 || !s.Result().IsNull() {
			t.Errorf("expected empty session, got %d solids", len(s.Names))
		}
	}
}

func TestEvaluateValidExpression(t *testing.T) {
	eng := NewEngine()

	source := `
(def x 10)
(def y 20)
(+ x y)
`
	s, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if s == nil {
		t.Fatal("expected non-nil session")
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine()

	// Unmatched paren is a parse error.
	s, evalErrs, err := eng.Evaluate("(+ 1 2")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if s != nil {
		t.Fatal("expected nil session on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for syntax error")
	}
	if evalErrs[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := NewEngine()

	s, evalErrs, err := eng.Evaluate("(+ 1 undefined-symbol)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if s != nil {
		t.Fatal("expected nil session on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := EvalError{Message: "no location"}
	if s2 := e2.Error(); strings.Contains(s2, "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", s2)
	}
}

func TestEvaluateFreshSessions(t *testing.T) {
	eng := NewEngine()
	src := `(defsolid "cube" (box :min (vec3 0 0 0) :max (vec3 1 1 1)))`

	var prev *Session
	for i := 0; i < 3; i++ {
		s, evalErrs, err := eng.Evaluate(src)
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("iteration %d: unexpected eval errors: %v", i, evalErrs)
		}
		if len(s.Names) != 1 {
			t.Fatalf("iteration %d: got %d solids, want 1", i, len(s.Names))
		}
		if len(s.Warnings) != 0 {
			t.Errorf("iteration %d: unexpected warnings %v", i, s.Warnings)
		}
		if prev != nil && prev.RunID == s.RunID {
			t.Errorf("iteration %d: run ID %s reused", i, s.RunID)
		}
		prev = s
	}
}

func TestWithConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.Timeout = "250ms"
	cfg.Border.Tolerance = 0.5
	eng := NewEngine(WithConfig(cfg))
	if eng.timeout != 250*time.Millisecond {
		t.Errorf("timeout = %s, want 250ms", eng.timeout)
	}
	if eng.borderTol != 0.5 {
		t.Errorf("border tolerance = %g, want 0.5", eng.borderTol)
	}
	if eng.kernel == nil {
		t.Error("expected a default kernel")
	}
}

func TestWaitWithTimeout(t *testing.T) {
	var mu sync.Mutex
	var gen uint64 = 1
	ch := make(chan evalResult) // Never sends

	start := time.Now()
	_, _, err := waitWithTimeout(ch, 1, &mu, &gen, 50*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timed out after 50ms") {
		t.Errorf("expected timeout error message, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took %s", elapsed)
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(2) // Current generation is 2

	ch := make(chan evalResult, 1)
	ch <- evalResult{}

	// Pass generation 1 (stale).
	_, _, err := waitWithTimeout(ch, 1, &mu, &gen, DefaultTimeout)
	if err == nil {
		t.Fatal("expected error for stale generation")
	}
	if !strings.Contains(err.Error(), "superseded") {
		t.Errorf("expected superseded error, got: %v", err)
	}
}

func TestSessionDefine(t *testing.T) {
	s := newSession()
	a := topo.MakeSolid(topo.MakeShell())
	b := topo.MakeSolid(topo.MakeShell())

	s.Define("a", a)
	s.Define("b", b)
	s.Define("a", b)

	if got := strings.Join(s.Names, ","); got != "a,b" {
		t.Errorf("Names = %s, want a,b", got)
	}
	if got, _ := s.Solid("a"); !got.IsSame(b) {
		t.Error("redefinition did not replace the solid")
	}
	if len(s.Warnings) != 1 || !strings.Contains(s.Warnings[0].Message, `"a" redefined`) {
		t.Errorf("Warnings = %v, want one redefinition warning", s.Warnings)
	}
	if _, ok := s.Solid("missing"); ok {
		t.Error("Solid(missing) should report false")
	}

	res := s.Result()
	if res.Type() != topo.Compound || res.NumChildren() != 2 {
		t.Errorf("Result = %v, want a compound of 2", res)
	}

	s.Compound = topo.MakeCompound(a)
	if !s.Result().IsSame(s.Compound) {
		t.Error("Result should prefer the last compound")
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "error on line format",
			msg:      "Error on line 5: unexpected token\n",
			wantLine: 5,
			wantMsg:  "unexpected token",
		},
		{
			name:     "no line info",
			msg:      "some generic error",
			wantLine: 0,
			wantMsg:  "some generic error",
		},
		{
			name:     "line format lowercase",
			msg:      "error on line 12: missing paren",
			wantLine: 12,
			wantMsg:  "missing paren",
		},
		{
			name:     "short line format",
			msg:      "line 3: cut: kernel: boolean result is empty",
			wantLine: 3,
			wantMsg:  "boolean result is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }
