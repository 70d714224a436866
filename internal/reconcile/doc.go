// Package reconcile folds the validation records of one table into its
// coverage set: the minimal ordered list of non-overlapping records whose
// ranges together span the whole token ring.
//
// # Sweep
//
// The sweep starts from a single full-ring record in the Uncompleted state and
// consumes records in nodesync.Compare order. Only the last element of the
// working set is ever touched, so the set is a slice with a replace-last
// operation.
//
// For each incoming record r, with h the last element:
//
//   - gap: h and r do not touch; the tokens in between are closed by an
//     Uncompleted record and r is then folded against it
//   - merge: they touch and share an outcome; h becomes h.Merge(r)
//   - replace: outcomes differ and both start at the same token; r supersedes h
//   - trim: outcomes differ otherwise; h is cut at r's lower bound and r appended
//
// When the input is exhausted, the ring after the last element is closed like
// a gap. Neighbouring records share their boundary token.
//
// Sweeping an existing coverage set returns it unchanged.
package reconcile
