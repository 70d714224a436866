package reconcile

import (
	"errors"
	"fmt"

	"github.com/roach88/ringaudit/internal/nodesync"
	"github.com/roach88/ringaudit/internal/token"
)

// SweepError reports a sweep step that broke the coverage invariants. It
// means the input was not sorted as the sweep assumes, or a policy bug; the
// table's coverage cannot be trusted.
type SweepError struct {
	// Step names the decision being applied ("gap", "merge", "trim", ...).
	Step string

	// Open is the last record of the working set when the step failed.
	Open nodesync.Record

	// Incoming is the record being folded.
	Incoming nodesync.Record

	Err error
}

func (e *SweepError) Error() string {
	return fmt.Sprintf("sweep %s: open %s, incoming %s: %v",
		e.Step, e.Open.Range, e.Incoming.Range, e.Err)
}

func (e *SweepError) Unwrap() error {
	return e.Err
}

// IsInvariantViolation reports whether err comes from a sweep step that would
// have inverted or disconnected ranges.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, token.ErrInvalidRange) || errors.Is(err, token.ErrIncompatibleRanges)
}
