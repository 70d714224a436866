// Package audit drives the per-table pipeline: fetch rows from a Source,
// decode them, reconcile them into a coverage set, and hand the result to a
// Reporter.
//
// Tables are independent. A failing table becomes a TableResult carrying a
// *TableError and never stops its siblings. Tables run concurrently up to the
// configured parallelism, but results reach the Reporter in table order.
package audit
