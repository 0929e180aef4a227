package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/seam/pkg/disasm"
	"github.com/chazu/seam/pkg/glue"
	"github.com/chazu/seam/pkg/kernel"
	"github.com/chazu/seam/pkg/topo"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms seam Lisp source code before passing it to
// zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: nth-face -> nth_face
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
//  3. Line comments: ; and ;; become //, which is what zygomys expects.
//
// All transformations respect string literal boundaries.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"':
			j := skipQuoted(b, i)
			result = append(result, b[i:j]...)
			i = j
		case b[i] == '`':
			j := i + 1
			for j < len(b) && b[j] != '`' {
				j++
			}
			j = min(j+1, len(b))
			result = append(result, b[i:j]...)
			i = j
		case b[i] == ';':
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
		case b[i] == ':' && i+1 < len(b) && b[i+1] == '=':
			// Preserve := (assignment operator).
			result = append(result, b[i], b[i+1])
			i += 2
		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			result = append(result, '"')
			result = append(result, kwPrefix...)
			result = append(result, b[i+1:j]...)
			result = append(result, '"')
			i = j
		case b[i] == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			// A hyphen between identifier characters, not a minus operator.
			result = append(result, '_')
			i++
		default:
			result = append(result, b[i])
			i++
		}
	}
	return string(result)
}

// skipQuoted returns the index just past the double-quoted literal that
// starts at b[i].
func skipQuoted(b []byte, i int) int {
	j := i + 1
	for j < len(b) && b[j] != '"' {
		if b[j] == '\\' && j+1 < len(b) {
			j += 2
			continue
		}
		j++
	}
	return min(j+1, len(b))
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpShape wraps a topo.Shape so it can be passed between builtins.
type sexpShape struct {
	shape topo.Shape
}

func (s *sexpShape) SexpString(ps *zygo.PrintState) string {
	if s.shape.IsNull() {
		return "(shape null)"
	}
	return fmt.Sprintf("(%s %d)", strings.ToLower(s.shape.Type().String()), s.shape.ID())
}
func (s *sexpShape) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a point or displacement.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i += 2
		} else {
			// Keyword at end with no value; treat as flag with nil.
			result.kw[name] = zygo.SexpNull
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_face) and plain strings ("face").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toShapeType converts a keyword such as :face to a topo.ShapeType.
func toShapeType(s zygo.Sexp) (topo.ShapeType, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected shape type keyword: %w", err)
	}
	for _, t := range topo.Types {
		if strings.EqualFold(t.String(), name) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("invalid shape type %q", name)
}

// toShape extracts a topo.Shape from a sexpShape.
func toShape(s zygo.Sexp) (topo.Shape, error) {
	if v, ok := s.(*sexpShape); ok {
		return v.shape, nil
	}
	return topo.Shape{}, fmt.Errorf("expected shape, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a v3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toShapes extracts the shapes of a list, or a single shape as a list of one.
func toShapes(s zygo.Sexp) ([]topo.Shape, error) {
	if v, ok := s.(*sexpShape); ok {
		return []topo.Shape{v.shape}, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]topo.Shape, 0, len(items))
	for i, item := range items {
		sh, err := toShape(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, sh)
	}
	return out, nil
}

// shapeList converts shapes to a Lisp list.
func shapeList(shapes []topo.Shape) zygo.Sexp {
	items := make([]zygo.Sexp, len(shapes))
	for i, sh := range shapes {
		items[i] = &sexpShape{shape: sh}
	}
	return zygo.MakeList(items)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// scope is what builtins run against.
type scope struct {
	kernel    kernel.Kernel
	rec       *glue.Reconciler
	borderTol float64
}

// tolerance returns the :tolerance keyword argument, or the border
// tolerance when absent.
func (sc *scope) tolerance(pa kwArgs) (float64, error) {
	v, ok := pa.kw["tolerance"]
	if !ok {
		return sc.borderTol, nil
	}
	tol, err := toFloat64(v)
	if err != nil {
		return 0, err
	}
	if tol <= 0 {
		return 0, fmt.Errorf("must be positive, got %g", tol)
	}
	return tol, nil
}

// binaryShapeOp adapts a two-shape kernel operation into a builtin.
func binaryShapeOp(fn func(a, b topo.Shape) (topo.Shape, error)) zygo.ZlispUserFunction {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		name = strings.ReplaceAll(name, "_", "-")
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("%s requires exactly 2 shapes, got %d", name, len(args))
		}
		a, err := toShape(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: first: %w", name, err)
		}
		b, err := toShape(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: second: %w", name, err)
		}
		out, err := fn(a, b)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
		}
		return &sexpShape{shape: out}, nil
	}
}

// registerBuiltins installs all seam builtins into a zygomys environment.
// Builtins record what the script defines in s.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *Session, sc *scope) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (box :min (vec3 0 0 0) :max (vec3 1 1 1))
	// (box p0 p1 p2 p3 p4 p5 p6 p7)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) == 8 {
			var pts [8]v3.Vec
			for i, a := range pa.positional {
				p, err := toVec3(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("box: point %d: %w", i, err)
				}
				pts[i] = p
			}
			sh, err := sc.kernel.Box(pts)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: %w", err)
			}
			return &sexpShape{shape: sh}, nil
		}
		if len(pa.positional) != 0 {
			return zygo.SexpNull, fmt.Errorf("box takes 8 points or :min and :max, got %d positional arguments", len(pa.positional))
		}

		lo, ok := pa.kw["min"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("box: missing :min")
		}
		hi, ok := pa.kw["max"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("box: missing :max")
		}
		minV, err := toVec3(lo)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: min: %w", err)
		}
		maxV, err := toVec3(hi)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: max: %w", err)
		}
		sh, err := sc.kernel.BoxMinMax(minV, maxV)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		return &sexpShape{shape: sh}, nil
	})

	// -----------------------------------------------------------------------
	// (cut a b) (common a b) (fuse a b)
	// -----------------------------------------------------------------------
	env.AddFunction("cut", binaryShapeOp(sc.kernel.Cut))
	env.AddFunction("common", binaryShapeOp(sc.kernel.Common))
	env.AddFunction("fuse", binaryShapeOp(sc.kernel.Fuse))

	// -----------------------------------------------------------------------
	// (translate s (vec3 1 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("translate requires a shape and a vec3")
		}
		sh, err := toShape(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: shape: %w", err)
		}
		d, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: offset: %w", err)
		}
		return &sexpShape{shape: sc.kernel.Translate(sh, d)}, nil
	})

	// -----------------------------------------------------------------------
	// (reconcile base other ...) -> (list base' other' ...)
	// -----------------------------------------------------------------------
	env.AddFunction("reconcile", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("reconcile requires a base shape")
		}
		shapes := make([]topo.Shape, 0, len(args))
		for i, a := range args {
			sh, err := toShape(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("reconcile: argument %d: %w", i, err)
			}
			shapes = append(shapes, sh)
		}
		out, dups, err := sc.rec.Reconcile(shapes[0], shapes[1:]...)
		if err != nil {
			return zygo.SexpNull, err
		}
		s.Duplicates = append(s.Duplicates, dups...)
		return shapeList(out), nil
	})

	// -----------------------------------------------------------------------
	// (duplicates) -> every duplicate face found so far
	// -----------------------------------------------------------------------
	env.AddFunction("duplicates", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return shapeList(s.Duplicates), nil
	})

	// -----------------------------------------------------------------------
	// (find-replacement-faces stale (list piece ...) hint :tolerance 1e-5)
	// -----------------------------------------------------------------------
	env.AddFunction("find_replacement_faces", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 3 {
			return zygo.SexpNull, fmt.Errorf("find-replacement-faces requires a stale face, a search list and a hint")
		}
		stale, err := toShape(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("find-replacement-faces: stale: %w", err)
		}
		search, err := toShapes(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("find-replacement-faces: search: %w", err)
		}
		hint, err := toShape(pa.positional[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("find-replacement-faces: hint: %w", err)
		}
		tol, err := sc.tolerance(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("find-replacement-faces: tolerance: %w", err)
		}
		found, err := sc.rec.FindReplacementFaces(stale, search, hint, tol)
		if err != nil {
			return zygo.SexpNull, err
		}
		return shapeList(found), nil
	})

	// -----------------------------------------------------------------------
	// (replace-face solid stale (list face ...))
	// -----------------------------------------------------------------------
	env.AddFunction("replace_face", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("replace-face requires a solid, a stale face and a list of faces")
		}
		solid, err := toShape(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("replace-face: solid: %w", err)
		}
		stale, err := toShape(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("replace-face: stale: %w", err)
		}
		split, err := toShapes(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("replace-face: faces: %w", err)
		}
		out, err := sc.rec.ReplaceFaceWithSplitFaces(solid, stale, split)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpShape{shape: out}, nil
	})

	// -----------------------------------------------------------------------
	// (split-and-glue block tool1 tool2 :tolerance 1e-5) -> (list mold ...)
	// -----------------------------------------------------------------------
	env.AddFunction("split_and_glue", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 3 {
			return zygo.SexpNull, fmt.Errorf("split-and-glue requires a block and two tools")
		}
		var in [3]topo.Shape
		for i, a := range pa.positional {
			sh, err := toShape(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("split-and-glue: argument %d: %w", i, err)
			}
			in[i] = sh
		}
		tol, err := sc.tolerance(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("split-and-glue: tolerance: %w", err)
		}
		asm, err := sc.rec.SplitAndGlue(in[0], in[1], in[2], tol)
		if err != nil {
			return zygo.SexpNull, err
		}
		s.Duplicates = append(s.Duplicates, asm.FirstPass...)
		s.Duplicates = append(s.Duplicates, asm.SecondPass...)
		s.Duplicates = append(s.Duplicates, asm.FinalPass...)
		s.Compound = asm.Compound
		return shapeList(asm.Solids), nil
	})

	// -----------------------------------------------------------------------
	// (faces s) -> distinct faces of s
	// -----------------------------------------------------------------------
	env.AddFunction("faces", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("faces requires exactly 1 shape")
		}
		sh, err := toShape(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("faces: %w", err)
		}
		return shapeList(disasm.Disassemble(sh).Faces()), nil
	})

	// -----------------------------------------------------------------------
	// (nth-face s 0)
	// -----------------------------------------------------------------------
	env.AddFunction("nth_face", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("nth-face requires a shape and an index")
		}
		sh, err := toShape(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("nth-face: %w", err)
		}
		i, err := toInt(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("nth-face: index: %w", err)
		}
		faces := disasm.Disassemble(sh).Faces()
		if i < 0 || i >= len(faces) {
			return zygo.SexpNull, fmt.Errorf("nth-face: index %d out of range [0,%d)", i, len(faces))
		}
		return &sexpShape{shape: faces[i]}, nil
	})

	// -----------------------------------------------------------------------
	// (nth-shape (list a b) 1)
	// -----------------------------------------------------------------------
	env.AddFunction("nth_shape", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("nth-shape requires a list and an index")
		}
		shapes, err := toShapes(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("nth-shape: %w", err)
		}
		i, err := toInt(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("nth-shape: index: %w", err)
		}
		if i < 0 || i >= len(shapes) {
			return zygo.SexpNull, fmt.Errorf("nth-shape: index %d out of range [0,%d)", i, len(shapes))
		}
		return &sexpShape{shape: shapes[i]}, nil
	})

	// -----------------------------------------------------------------------
	// (defsolid "name" s)
	// -----------------------------------------------------------------------
	env.AddFunction("defsolid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("defsolid requires a name and a shape")
		}
		solidName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid: name: %w", err)
		}
		sh, err := toShape(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid: %w", err)
		}
		if err := topo.Check(sh, topo.Solid); err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid %q: %w", solidName, err)
		}
		s.Define(solidName, sh)
		return args[1], nil
	})

	// -----------------------------------------------------------------------
	// (compound a b ...) or (compound (list a b ...))
	// -----------------------------------------------------------------------
	env.AddFunction("compound", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var shapes []topo.Shape
		for i, a := range args {
			sh, err := toShapes(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("compound: argument %d: %w", i, err)
			}
			shapes = append(shapes, sh...)
		}
		if len(shapes) == 0 {
			return zygo.SexpNull, errors.New("compound requires at least one shape")
		}
		s.Compound = topo.MakeCompound(shapes...)
		return &sexpShape{shape: s.Compound}, nil
	})

	// -----------------------------------------------------------------------
	// (count-entities s :face) -> number of distinct faces under s
	// -----------------------------------------------------------------------
	env.AddFunction("count_entities", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("count-entities requires a shape and a type keyword")
		}
		sh, err := toShape(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("count-entities: %w", err)
		}
		typ, err := toShapeType(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("count-entities: %w", err)
		}
		return &zygo.SexpInt{Val: int64(disasm.Collect(sh).Get(typ).Distinct)}, nil
	})

	// -----------------------------------------------------------------------
	// (stats s) -> "SOLID     : 1 x 1\n..."
	// -----------------------------------------------------------------------
	env.AddFunction("stats", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("stats requires exactly 1 shape")
		}
		sh, err := toShape(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("stats: %w", err)
		}
		var b strings.Builder
		if err := disasm.WriteStats(&b, disasm.Collect(sh)); err != nil {
			return zygo.SexpNull, err
		}
		return &zygo.SexpStr{S: b.String()}, nil
	})
}
