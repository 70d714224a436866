package nodesync

import (
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/roach88/ringaudit/internal/token"
)

// ErrMalformedRow is returned for rows that carry no usable validation fact.
var ErrMalformedRow = errors.New("malformed nodesync row")

// Decode turns a raw row into one record, or two when the range wraps.
//
// The more recent of the two attempts wins; the successful one only if it is
// strictly after the unsuccessful one. An absent attempt counts as epoch.
func Decode(row Row) ([]Record, error) {
	if row.Keyspace == "" || row.Table == "" {
		return nil, fmt.Errorf("%w: missing keyspace or table name", ErrMalformedRow)
	}

	last := latest(row.LastSuccessful, row.LastUnsuccessful)
	if last == nil {
		return nil, fmt.Errorf("%w: %s.%s (%d, %d] has no validation attempt",
			ErrMalformedRow, row.Keyspace, row.Table, row.StartToken, row.EndToken)
	}

	base := Record{
		Keyspace:       row.Keyspace,
		Table:          row.Table,
		LastValidation: last.StartedAt,
		Outcome:        last.Outcome,
		MissingNodes:   NodeSet(last.MissingNodes),
	}
	if row.LastSuccessful != nil {
		base.LastSuccess = sql.NullTime{Time: row.LastSuccessful.StartedAt, Valid: true}
	}

	if !row.Wraps() {
		rng, err := token.New(row.StartToken, row.EndToken)
		if err != nil {
			return nil, err
		}
		base.Range = rng
		return []Record{base}, nil
	}

	high, low := base, base
	high.Range = token.Range{Lower: row.StartToken, Upper: math.MaxInt64}
	low.Range = token.Range{Lower: math.MinInt64, Upper: row.EndToken}
	return []Record{high, low}, nil
}

// DecodeAll decodes rows in order. It stops at the first malformed row.
func DecodeAll(rows []Row) ([]Record, error) {
	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		decoded, err := Decode(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		records = append(records, decoded...)
	}
	return records, nil
}

func latest(success, failure *Attempt) *Attempt {
	switch {
	case success == nil:
		return failure
	case failure == nil:
		return success
	}
	successAt, failureAt := Epoch, Epoch
	if !success.StartedAt.IsZero() {
		successAt = success.StartedAt
	}
	if !failure.StartedAt.IsZero() {
		failureAt = failure.StartedAt
	}
	if successAt.After(failureAt) {
		return success
	}
	return failure
}
