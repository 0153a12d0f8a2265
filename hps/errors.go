package hps

import (
	"errors"
	"fmt"

	"github.com/meliao/ha-hps/tree"
)

var (
	// ErrSingularLocalSystem reports a leaf whose collocation system could
	// not be factored or exceeded the condition limit.
	ErrSingularLocalSystem = errors.New("singular local system")
	// ErrSingularMergeSystem is the interface elimination analog.
	ErrSingularMergeSystem = errors.New("singular merge system")
	// ErrPatchMismatch reports boundaries that cannot be conformed during
	// a merge.
	ErrPatchMismatch = tree.ErrPatchMismatch
	// ErrStaleOperatorUse reports a solve against operators invalidated by
	// MarkDirty and not yet recomputed.
	ErrStaleOperatorUse = errors.New("stale operator use")
	// ErrNoRetainedOperators reports a downward pass against a hierarchy
	// built without retained solve operators.
	ErrNoRetainedOperators = errors.New("hierarchy built without retained operators")
	// ErrNotBuilt reports use of a solver before Build.
	ErrNotBuilt = errors.New("hierarchy not built")
)

// NodeError ties a failure to the patch it occurred on.
type NodeError struct {
	ID    tree.NodeID
	Level int
	Err   error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %d (level %d): %v", e.ID, e.Level, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

func nodeErr(id tree.NodeID, level int, err error) error {
	return &NodeError{ID: id, Level: level, Err: err}
}
