// Package report renders audit results.
//
// Every renderer implements audit.Reporter:
//   - Text: the line-per-record report, optionally followed by the ring share
//     of each outcome
//   - JSON: one canonical JSON document per table (sorted keys, NFC strings)
//   - Metrics: Prometheus gauges written in textfile-collector format
//   - Recorder: persists each table into a store audit run
//
// Multi fans a result out to several reporters in order.
package report
