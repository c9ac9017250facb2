package metrics

import (
	"github.com/scopedfs/scopedfs/pkg/stream"
)

// NewStreamMetrics creates a Prometheus-backed stream.Metrics instance.
// Returns nil when metrics are disabled; a nil stream.Metrics records
// nothing.
func NewStreamMetrics() stream.Metrics {
	if !IsEnabled() || newPrometheusStreamMetrics == nil {
		return nil
	}
	return newPrometheusStreamMetrics()
}

var newPrometheusStreamMetrics func() stream.Metrics

// RegisterStreamMetricsConstructor registers the Prometheus stream metrics
// constructor. Called by pkg/metrics/prometheus during package init.
func RegisterStreamMetricsConstructor(constructor func() stream.Metrics) {
	newPrometheusStreamMetrics = constructor
}
