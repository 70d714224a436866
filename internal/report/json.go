package report

import (
	"io"
	"time"

	"github.com/roach88/ringaudit/internal/audit"
	"github.com/roach88/ringaudit/internal/nodesync"
)

// JSON writes one canonical JSON document per table, newline separated.
type JSON struct {
	W io.Writer

	// Summary adds a ring_share array to each table document.
	Summary bool
}

// Report writes one table.
func (j *JSON) Report(r audit.TableResult) error {
	data, err := MarshalCanonical(tableDocument(r, j.Summary))
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = j.W.Write(data)
	return err
}

func tableDocument(r audit.TableResult, summary bool) map[string]any {
	doc := map[string]any{
		"keyspace": r.Keyspace,
		"table":    r.Table,
		"position": r.Position,
		"rows":     r.Rows,
	}
	if r.Failed() {
		doc["error"] = map[string]any{
			"code":    string(r.Err.Code),
			"message": r.Err.Err.Error(),
		}
		return doc
	}

	records := make([]any, len(r.Records))
	for i, rec := range r.Records {
		records[i] = recordDocument(rec)
	}
	doc["records"] = records

	if summary {
		shares := RingShare(r.Records)
		docs := make([]any, len(shares))
		for i, s := range shares {
			docs[i] = map[string]any{
				"outcome": int(s.Outcome),
				"label":   s.Outcome.String(),
				"tokens":  s.Tokens,
				"records": s.Records,
				"percent": s.Percent(),
			}
		}
		doc["ring_share"] = docs
	}
	return doc
}

func recordDocument(rec nodesync.Record) map[string]any {
	nodes := make([]any, len(rec.MissingNodes))
	for i, n := range rec.MissingNodes {
		nodes[i] = n.String()
	}
	doc := map[string]any{
		"lower":           rec.Range.Lower,
		"upper":           rec.Range.Upper,
		"outcome":         int(rec.Outcome),
		"label":           rec.Outcome.String(),
		"last_validation": rec.LastValidation.UTC().Format(time.RFC3339Nano),
		"missing_nodes":   nodes,
	}
	if rec.LastSuccess.Valid {
		doc["last_success"] = rec.LastSuccess.Time.UTC().Format(time.RFC3339Nano)
	}
	return doc
}
