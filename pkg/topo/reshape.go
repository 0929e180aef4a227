package topo

// ReShape records substitutions of sub-shapes and applies them to whole
// trees. Replacements are keyed by TShape: recording old->new is the same as
// recording old.Reversed()->new.Reversed(). A later Replace of the same
// TShape overwrites the earlier one.
//
// Apply never mutates its argument. Every ancestor of a replaced entity is
// rebuilt once per Apply call, so entities shared in the input stay shared
// in the output.
type ReShape struct {
	repl  map[*TShape]Shape
	order []*TShape
}

// NewReShape returns an empty ReShape.
func NewReShape() *ReShape {
	return &ReShape{repl: make(map[*TShape]Shape)}
}

// Replace records that old is to be substituted by new wherever it occurs.
func (r *ReShape) Replace(old, new Shape) {
	if old.IsNull() {
		return
	}
	if old.o == Reversed {
		new = new.Reversed()
	}
	if _, ok := r.repl[old.t]; !ok {
		r.order = append(r.order, old.t)
	}
	r.repl[old.t] = new
}

// IsRecorded reports whether a replacement exists for s's TShape.
func (r *ReShape) IsRecorded(s Shape) bool {
	_, ok := r.repl[s.t]
	return ok
}

// Value returns the replacement of s, oriented like s, or s itself.
func (r *ReShape) Value(s Shape) Shape {
	n, ok := r.repl[s.t]
	if !ok {
		return s
	}
	if s.o == Reversed {
		return n.Reversed()
	}
	return n
}

// Len returns the number of recorded replacements.
func (r *ReShape) Len() int { return len(r.order) }

// Apply returns s with every recorded replacement substituted. Replacement
// values are rewritten too, so a value whose own sub-shapes were replaced
// comes out rebuilt, the same object the rest of the output uses. Chains
// old->mid->new resolve to new; a cycle stops at the entity that closes it.
func (r *ReShape) Apply(s Shape) Shape {
	if s.IsNull() {
		return s
	}
	return r.apply(s, make(map[*TShape]Shape), make(map[*TShape]bool))
}

// ApplyAll applies the replacements to each shape with a shared memo, so
// entities shared between the inputs stay shared between the outputs.
func (r *ReShape) ApplyAll(shapes []Shape) []Shape {
	memo := make(map[*TShape]Shape)
	busy := make(map[*TShape]bool)
	out := make([]Shape, len(shapes))
	for i, s := range shapes {
		if s.IsNull() {
			continue
		}
		out[i] = r.apply(s, memo, busy)
	}
	return out
}

func (r *ReShape) apply(s Shape, memo map[*TShape]Shape, busy map[*TShape]bool) Shape {
	res, ok := memo[s.t]
	switch {
	case ok:
	case busy[s.t]:
		res = Shape{t: s.t}
	default:
		busy[s.t] = true
		res = r.forward(s.t, memo, busy)
		delete(busy, s.t)
		memo[s.t] = res
	}
	if s.o == Reversed {
		return res.Reversed()
	}
	return res
}

// forward computes the image of the Forward-oriented t.
func (r *ReShape) forward(t *TShape, memo map[*TShape]Shape, busy map[*TShape]bool) Shape {
	if n, ok := r.repl[t]; ok {
		return r.apply(n, memo, busy)
	}
	var children []Shape
	for i, c := range t.children {
		nc := r.apply(c, memo, busy)
		if children == nil && !nc.IsEqual(c) {
			children = make([]Shape, len(t.children))
			copy(children, t.children[:i])
		}
		if children != nil {
			children[i] = nc
		}
	}
	if children == nil {
		return Shape{t: t}
	}
	return rebuild(t, children)
}
