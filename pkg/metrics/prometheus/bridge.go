// Package prometheus provides the Prometheus-backed implementations of the
// metric interfaces consumed by the bridge, scratch, and stream packages.
// Import it for side effects; the constructors register themselves with
// pkg/metrics during init.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/scopedfs/scopedfs/pkg/bridge"
	"github.com/scopedfs/scopedfs/pkg/metrics"
)

func init() {
	metrics.RegisterBridgeMetricsConstructor(newBridgeMetrics)
}

// bridgeMetrics is the Prometheus implementation of bridge.Metrics.
type bridgeMetrics struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func newBridgeMetrics() bridge.Metrics {
	reg := metrics.GetRegistry()

	return &bridgeMetrics{
		invocations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopedfs_bridge_invocations_total",
				Help: "Total bridge invocations by operation and outcome",
			},
			[]string{"op", "status"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scopedfs_bridge_invocation_duration_seconds",
				Help:    "Bridge invocation latency by operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
}

func (m *bridgeMetrics) ObserveInvoke(op bridge.Op, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.invocations.WithLabelValues(string(op), status).Inc()
	m.duration.WithLabelValues(string(op)).Observe(duration.Seconds())
}
