package report

import (
	"context"

	"github.com/roach88/ringaudit/internal/audit"
	"github.com/roach88/ringaudit/internal/store"
)

// Recorder persists each table result under a store audit run.
type Recorder struct {
	ctx   context.Context
	store *store.Store
	runID string
}

// NewRecorder writes into the given run, which must already exist.
func NewRecorder(ctx context.Context, s *store.Store, runID string) *Recorder {
	return &Recorder{ctx: ctx, store: s, runID: runID}
}

// Report stores one table.
func (r *Recorder) Report(res audit.TableResult) error {
	return r.store.WriteRunTable(r.ctx, r.runID, ToRunTable(res))
}

// ToRunTable converts a table result to its stored form.
func ToRunTable(res audit.TableResult) store.RunTable {
	t := store.RunTable{
		Position: res.Position,
		Keyspace: res.Keyspace,
		Table:    res.Table,
		Records:  res.Records,
	}
	if res.Failed() {
		t.ErrorCode = string(res.Err.Code)
		t.ErrorMessage = res.Err.Err.Error()
	}
	return t
}

// FromRunTable rebuilds a table result from storage so stored runs render
// like live ones. Row counts and durations are not stored.
func FromRunTable(t store.RunTable) audit.TableResult {
	res := audit.TableResult{
		Position: t.Position,
		Keyspace: t.Keyspace,
		Table:    t.Table,
		Records:  t.Records,
	}
	if t.Failed() {
		res.Records = nil
		res.Err = &audit.TableError{
			Keyspace: t.Keyspace,
			Table:    t.Table,
			Code:     audit.ErrorCode(t.ErrorCode),
			Err:      storedError(t.ErrorMessage),
		}
	}
	return res
}

// storedError is an error known only by its message.
type storedError string

func (e storedError) Error() string { return string(e) }
