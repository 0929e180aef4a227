package glue

import (
	"errors"
	"fmt"

	"github.com/chazu/seam/pkg/topo"
)

var (
	// ErrMissingEntity is returned when a duplicate face has a vertex, edge
	// or wire with no counterpart of the same key on the canonical face.
	ErrMissingEntity = errors.New("glue: no canonical entity for key")
	// ErrSingleReplacement is returned when border reconciliation finds
	// exactly one face covering a stale face. A single face would have the
	// stale face's key and should have been glued directly.
	ErrSingleReplacement = errors.New("glue: exactly one replacement face found")
)

// EntityError reports the kind and key of a failed old/new lookup.
type EntityError struct {
	Kind topo.ShapeType
	Key  string
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrMissingEntity, e.Kind, e.Key)
}

func (e *EntityError) Unwrap() error { return ErrMissingEntity }
