// Package nodesync holds the validation facts recorded by NodeSync for each
// token range of a table, and the records the coverage sweep works on.
//
// # Rows and records
//
// A Row is what the data source returns for one entry of
// system_distributed.nodesync_status: the range bounds plus the last successful
// and last unsuccessful validation attempts, either of which may be absent.
//
// A Record is the normalized form used by the sweep: the most recent attempt
// supplies the outcome, the validation time and the missing nodes. Rows whose
// start token is greater than their end token wrap past math.MaxInt64 and
// decode into two records.
//
// # Ordering
//
// Records are ordered by range (lower bound, then upper bound) and then by
// validation time. Two records equal under Compare are the same element.
//
// Records are values: Merge and WithUpper return new records.
package nodesync
