package audit

import (
	"errors"
	"fmt"

	"github.com/roach88/ringaudit/internal/nodesync"
	"github.com/roach88/ringaudit/internal/reconcile"
)

// ErrorCode classifies a table failure.
type ErrorCode string

const (
	CodeSource       ErrorCode = "SOURCE"        // the row source failed
	CodeMalformedRow ErrorCode = "MALFORMED_ROW" // a row could not be decoded
	CodeSweep        ErrorCode = "SWEEP"         // reconciliation hit an invariant violation
)

// TableError is a failure that aborted one table.
type TableError struct {
	Keyspace string
	Table    string
	Code     ErrorCode
	Err      error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("%s.%s [%s]: %v", e.Keyspace, e.Table, e.Code, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}

// classify picks the code for an error raised while processing a table.
func classify(err error) ErrorCode {
	var sweepErr *reconcile.SweepError
	switch {
	case errors.As(err, &sweepErr):
		return CodeSweep
	case errors.Is(err, nodesync.ErrMalformedRow):
		return CodeMalformedRow
	default:
		return CodeSource
	}
}
