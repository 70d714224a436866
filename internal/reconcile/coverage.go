package reconcile

import (
	"slices"

	"github.com/roach88/ringaudit/internal/nodesync"
)

// Coverage sorts records, drops duplicates under nodesync.Compare (the first
// one wins), and sweeps them into the table's coverage set.
//
// With no records the result is the full ring, Uncompleted.
func Coverage(keyspace, table string, records []nodesync.Record, opts ...Option) ([]nodesync.Record, error) {
	sorted := Sorted(records)

	s := NewSweep(keyspace, table, opts...)
	for _, r := range sorted {
		if err := s.Fold(r); err != nil {
			return nil, err
		}
	}
	return s.Result()
}

// Sorted returns a sorted copy of records without duplicates.
func Sorted(records []nodesync.Record) []nodesync.Record {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, nodesync.Compare)
	return slices.CompactFunc(sorted, func(a, b nodesync.Record) bool {
		return nodesync.Compare(a, b) == 0
	})
}
