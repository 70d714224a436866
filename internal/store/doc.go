// Package store provides SQLite-backed storage for audit inputs and results.
//
// The store keeps two independent logs:
//   - Snapshots: raw nodesync_status rows captured from a cluster, replayable
//     as an audit source without network access
//   - Audit runs: the coverage set (or the failure) of every table audited in
//     a run, in audit order
//
// # Identity and ordering
//
// Snapshot and run IDs are UUIDv7, so they sort by creation time. Rows keep
// the order the source returned them in (seq); coverage records keep sweep
// order. All reads ORDER BY those columns.
//
// # Encoding
//
// Timestamps are INTEGER unix nanoseconds. Validation attempts and missing
// node sets are JSON TEXT. Tokens are stored as signed 64-bit INTEGER.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
