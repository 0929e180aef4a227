package glue

import (
	"errors"
	"fmt"

	"github.com/chazu/seam/pkg/topo"
)

// Assembly is the outcome of SplitAndGlue.
type Assembly struct {
	// Solids are the glued molds: the first half of the block, then the
	// two pieces of its second half.
	Solids   []topo.Shape
	Compound topo.Shape

	// Duplicates of each reconcile pass, in pass order.
	FirstPass  []topo.Shape
	SecondPass []topo.Shape
	FinalPass  []topo.Shape

	Replacements []Replacement
}

// SplitAndGlue splits block in two with tool1 and glues the halves, splits
// the second half again with tool2 and glues its pieces, then swaps the
// face of the first half that the second split made stale for the smaller
// faces that now cover it. A last reconcile pass makes all three molds share
// their common faces.
func (r *Reconciler) SplitAndGlue(block, tool1, tool2 topo.Shape, tol float64) (*Assembly, error) {
	if r.kernel == nil {
		return nil, errors.New("split and glue: reconciler has no kernel")
	}
	k := r.kernel
	out := &Assembly{}

	mold1, err := k.Cut(block, tool1)
	if err != nil {
		return nil, fmt.Errorf("split and glue: cut by first tool: %w", err)
	}
	mold2, err := k.Common(block, tool1)
	if err != nil {
		return nil, fmt.Errorf("split and glue: common with first tool: %w", err)
	}
	molds, dups, err := r.Reconcile(mold1, mold2)
	if err != nil {
		return nil, fmt.Errorf("split and glue: %w", err)
	}
	out.FirstPass = dups

	mold3, err := k.Cut(molds[1], tool2)
	if err != nil {
		return nil, fmt.Errorf("split and glue: cut by second tool: %w", err)
	}
	mold4, err := k.Common(molds[1], tool2)
	if err != nil {
		return nil, fmt.Errorf("split and glue: common with second tool: %w", err)
	}
	pieces, pieceDups, err := r.Reconcile(mold3, mold4)
	if err != nil {
		return nil, fmt.Errorf("split and glue: %w", err)
	}
	out.SecondPass = pieceDups

	repl, err := r.ReplacementDictionary(dups, pieces, pieceDups, tol)
	if err != nil {
		return nil, fmt.Errorf("split and glue: %w", err)
	}
	out.Replacements = repl

	first := molds[0]
	for _, rp := range repl {
		first, err = r.ReplaceFaceWithSplitFaces(first, rp.Stale, rp.Faces)
		if err != nil {
			return nil, fmt.Errorf("split and glue: %w", err)
		}
	}

	final, finalDups, err := r.Reconcile(first, pieces...)
	if err != nil {
		return nil, fmt.Errorf("split and glue: final pass: %w", err)
	}
	out.FinalPass = finalDups
	out.Solids = final
	out.Compound = topo.MakeCompound(final...)

	r.logger.Info("split and glue",
		"solids", len(final), "replacements", len(repl),
		"first", len(dups), "second", len(pieceDups), "final", len(finalDups))
	return out, nil
}
