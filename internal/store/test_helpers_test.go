package store

import (
	"net/netip"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/ringaudit/internal/nodesync"
	"github.com/roach88/ringaudit/internal/testutil"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// stepClock returns a clock that advances one minute per call.
func stepClock(start time.Time) func() time.Time {
	return testutil.NewStepClock(start, time.Minute).Now
}

func createTestRow(table string, start, end int64, success, failure *nodesync.Attempt) nodesync.Row {
	return nodesync.Row{
		Keyspace:         "domain_1300",
		Table:            table,
		StartToken:       start,
		EndToken:         end,
		LastSuccessful:   success,
		LastUnsuccessful: failure,
	}
}

func createTestCapture(table string, rows ...nodesync.Row) TableCapture {
	return TableCapture{Keyspace: "domain_1300", Table: table, Rows: rows}
}

func createTestAttempt(at time.Time, outcome nodesync.Outcome, nodes ...string) *nodesync.Attempt {
	a := &nodesync.Attempt{StartedAt: at, Outcome: outcome}
	for _, n := range nodes {
		a.MissingNodes = append(a.MissingNodes, netip.MustParseAddr(n))
	}
	return a
}
