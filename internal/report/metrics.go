package report

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/ringaudit/internal/audit"
)

// Metrics collects per-table gauges for the Prometheus textfile collector.
// It owns its registry, so nothing leaks into the default one.
type Metrics struct {
	registry *prometheus.Registry

	RingShare       *prometheus.GaugeVec
	CoverageRecords *prometheus.GaugeVec
	OldestValidated *prometheus.GaugeVec
	TableErrors     *prometheus.CounterVec
}

// NewMetrics creates and registers all audit metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RingShare: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ringaudit",
			Name:      "ring_share",
			Help:      "Fraction of the token ring whose effective NodeSync outcome is the given one, labelled with code and description",
		}, []string{"keyspace", "table", "outcome"}),

		CoverageRecords: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ringaudit",
			Name:      "coverage_records",
			Help:      "Number of records in the reconciled coverage set",
		}, []string{"keyspace", "table"}),

		OldestValidated: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ringaudit",
			Name:      "oldest_validation_timestamp_seconds",
			Help:      "Unix time of the oldest effective validation; 0 when part of the ring was never validated",
		}, []string{"keyspace", "table"}),

		TableErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ringaudit",
			Name:      "table_errors_total",
			Help:      "Tables whose audit was aborted, by error code",
		}, []string{"keyspace", "table", "code"}),
	}
}

// Registry exposes the registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Report records one table.
func (m *Metrics) Report(r audit.TableResult) error {
	if r.Failed() {
		m.TableErrors.WithLabelValues(r.Keyspace, r.Table, string(r.Err.Code)).Inc()
		return nil
	}

	for _, s := range RingShare(r.Records) {
		m.RingShare.WithLabelValues(r.Keyspace, r.Table, s.Outcome.Label()).Set(s.Fraction())
	}
	m.CoverageRecords.WithLabelValues(r.Keyspace, r.Table).Set(float64(len(r.Records)))

	if len(r.Records) > 0 {
		oldest := r.Records[0].LastValidation
		for _, rec := range r.Records[1:] {
			if rec.LastValidation.Before(oldest) {
				oldest = rec.LastValidation
			}
		}
		m.OldestValidated.WithLabelValues(r.Keyspace, r.Table).Set(float64(oldest.Unix()))
	}
	return nil
}

// WriteFile writes all metrics to path in text exposition format. The file is
// replaced atomically.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
