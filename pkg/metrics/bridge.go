package metrics

import (
	"github.com/scopedfs/scopedfs/pkg/bridge"
)

// NewBridgeMetrics creates a Prometheus-backed bridge.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called) or the
// prometheus implementation package was not imported. A nil bridge.Metrics
// is valid and records nothing.
func NewBridgeMetrics() bridge.Metrics {
	if !IsEnabled() || newPrometheusBridgeMetrics == nil {
		return nil
	}
	return newPrometheusBridgeMetrics()
}

// newPrometheusBridgeMetrics is implemented in pkg/metrics/prometheus.
// The indirection avoids an import cycle while keeping the API here.
var newPrometheusBridgeMetrics func() bridge.Metrics

// RegisterBridgeMetricsConstructor registers the Prometheus bridge metrics
// constructor. Called by pkg/metrics/prometheus during package init.
func RegisterBridgeMetricsConstructor(constructor func() bridge.Metrics) {
	newPrometheusBridgeMetrics = constructor
}
