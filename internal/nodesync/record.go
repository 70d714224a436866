package nodesync

import (
	"database/sql"
	"fmt"
	"net/netip"
	"slices"
	"time"

	"github.com/roach88/ringaudit/internal/token"
)

// Epoch is the validation time of ranges with no history.
var Epoch = time.Unix(0, 0).UTC()

// Record is the effective validation state of one token range.
type Record struct {
	Keyspace       string
	Table          string
	Range          token.Range
	LastValidation time.Time
	Outcome        Outcome
	LastSuccess    sql.NullTime
	MissingNodes   []netip.Addr
}

// Unvalidated returns the record assumed for ranges NodeSync never reported on.
func Unvalidated(keyspace, table string, r token.Range) Record {
	return Record{
		Keyspace:       keyspace,
		Table:          table,
		Range:          r,
		LastValidation: Epoch,
		Outcome:        Uncompleted,
	}
}

// Compare orders records by range, then by validation time.
func Compare(a, b Record) int {
	if c := token.Compare(a.Range, b.Range); c != 0 {
		return c
	}
	return a.LastValidation.Compare(b.LastValidation)
}

// Merge combines two records with intersecting ranges into one covering both.
//
// The result keeps the earliest validation time, the larger outcome code and
// the latest success. Missing nodes come from the side with the latest success;
// on a tie they come from that.
func (r Record) Merge(that Record) (Record, error) {
	rng, err := r.Range.Merge(that.Range)
	if err != nil {
		return Record{}, err
	}

	lastValidation := r.LastValidation
	if that.LastValidation.Before(lastValidation) {
		lastValidation = that.LastValidation
	}

	lastSuccess, missing := that.LastSuccess, that.MissingNodes
	if successAfter(r.LastSuccess, that.LastSuccess) {
		lastSuccess, missing = r.LastSuccess, r.MissingNodes
	}

	return Record{
		Keyspace:       r.Keyspace,
		Table:          r.Table,
		Range:          rng,
		LastValidation: lastValidation,
		Outcome:        max(r.Outcome, that.Outcome),
		LastSuccess:    lastSuccess,
		MissingNodes:   slices.Clone(missing),
	}, nil
}

// WithUpper returns a copy of r whose range ends at upper.
func (r Record) WithUpper(upper int64) (Record, error) {
	rng, err := r.Range.WithUpper(upper)
	if err != nil {
		return Record{}, err
	}
	r.Range = rng
	r.MissingNodes = slices.Clone(r.MissingNodes)
	return r, nil
}

// WithLower returns a copy of r whose range starts at lower.
func (r Record) WithLower(lower int64) (Record, error) {
	rng, err := r.Range.WithLower(lower)
	if err != nil {
		return Record{}, err
	}
	r.Range = rng
	r.MissingNodes = slices.Clone(r.MissingNodes)
	return r, nil
}

// Equal reports whether a and b carry the same state. Unlike Compare it looks
// at every field.
func (r Record) Equal(that Record) bool {
	return r.Keyspace == that.Keyspace &&
		r.Table == that.Table &&
		r.Range == that.Range &&
		r.LastValidation.Equal(that.LastValidation) &&
		r.Outcome == that.Outcome &&
		r.LastSuccess.Valid == that.LastSuccess.Valid &&
		r.LastSuccess.Time.Equal(that.LastSuccess.Time) &&
		slices.Equal(r.MissingNodes, that.MissingNodes)
}

// String renders the record the way the audit report prints it.
func (r Record) String() string {
	return fmt.Sprintf("%s.%s, range %s, lastOutcome=%s", r.Keyspace, r.Table, r.Range, r.Outcome.Label())
}

// successAfter reports whether a is strictly later than b. A null success is
// earlier than any recorded one.
func successAfter(a, b sql.NullTime) bool {
	switch {
	case !a.Valid:
		return false
	case !b.Valid:
		return true
	default:
		return a.Time.After(b.Time)
	}
}
