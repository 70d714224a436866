package report

import (
	"fmt"
	"io"

	"github.com/roach88/ringaudit/internal/audit"
)

// Text writes the human-readable report.
type Text struct {
	W io.Writer

	// Summary appends the ring share of each outcome after a table's records.
	Summary bool
}

// Report writes one table.
func (t *Text) Report(r audit.TableResult) error {
	if _, err := fmt.Fprintf(t.W, "Checking %s.%s...\n", r.Keyspace, r.Table); err != nil {
		return err
	}
	if r.Failed() {
		_, err := fmt.Fprintf(t.W, "%s.%s failed [%s]: %v\n", r.Keyspace, r.Table, r.Err.Code, r.Err.Err)
		return err
	}

	for _, rec := range r.Records {
		if _, err := fmt.Fprintln(t.W, rec); err != nil {
			return err
		}
	}

	if !t.Summary {
		return nil
	}
	for _, s := range RingShare(r.Records) {
		if _, err := fmt.Fprintf(t.W, "  %s: %s%% of ring, %d %s\n",
			s.Outcome.Label(), s.Percent(), s.Records, plural(s.Records, "range", "ranges")); err != nil {
			return err
		}
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
