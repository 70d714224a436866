package report

import (
	"database/sql"
	"errors"
	"math"
	"net/netip"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ringaudit/internal/audit"
	"github.com/roach88/ringaudit/internal/nodesync"
	"github.com/roach88/ringaudit/internal/token"
)

var (
	succeededAt = time.Date(2020, 10, 15, 1, 38, 29, 0, time.UTC)
	failedAt    = time.Date(2020, 10, 15, 5, 50, 46, 362000000, time.UTC)
)

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// healthyResult is a three-record coverage set: in sync at both ends of the
// ring, never validated in the middle except for a partially in sync tail.
func healthyResult() audit.TableResult {
	const ks, tbl = "domain_1300", "xml_doc_1300"
	return audit.TableResult{
		Position: 0,
		Keyspace: ks,
		Table:    tbl,
		Rows:     2,
		Records: []nodesync.Record{
			{
				Keyspace:       ks,
				Table:          tbl,
				Range:          token.MustNew(math.MinInt64, -6757561564810904124),
				LastValidation: succeededAt,
				Outcome:        nodesync.InSync,
				LastSuccess:    sql.NullTime{Time: succeededAt, Valid: true},
			},
			nodesync.Unvalidated(ks, tbl, token.MustNew(-6757561564810904124, 6709070199063470667)),
			{
				Keyspace:       ks,
				Table:          tbl,
				Range:          token.MustNew(6709070199063470667, math.MaxInt64),
				LastValidation: failedAt,
				Outcome:        nodesync.PartiallyInSync,
				LastSuccess:    sql.NullTime{Time: succeededAt, Valid: true},
				MissingNodes:   []netip.Addr{netip.MustParseAddr("10.0.0.7")},
			},
		},
	}
}

func failedResult() audit.TableResult {
	return audit.TableResult{
		Position: 1,
		Keyspace: "domain_1300",
		Table:    "xml_doc_1305",
		Err: &audit.TableError{
			Keyspace: "domain_1300",
			Table:    "xml_doc_1305",
			Code:     audit.CodeSource,
			Err:      errors.New("fetch rows: connection refused"),
		},
	}
}
