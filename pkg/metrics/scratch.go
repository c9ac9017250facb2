package metrics

import (
	"github.com/scopedfs/scopedfs/pkg/scratch"
)

// NewScratchMetrics creates a Prometheus-backed scratch.Metrics instance.
// Returns nil when metrics are disabled; a nil scratch.Metrics records
// nothing.
func NewScratchMetrics() scratch.Metrics {
	if !IsEnabled() || newPrometheusScratchMetrics == nil {
		return nil
	}
	return newPrometheusScratchMetrics()
}

var newPrometheusScratchMetrics func() scratch.Metrics

// RegisterScratchMetricsConstructor registers the Prometheus scratch
// metrics constructor. Called by pkg/metrics/prometheus during package init.
func RegisterScratchMetricsConstructor(constructor func() scratch.Metrics) {
	newPrometheusScratchMetrics = constructor
}
