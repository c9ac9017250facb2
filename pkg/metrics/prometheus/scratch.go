package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/scopedfs/scopedfs/pkg/metrics"
	"github.com/scopedfs/scopedfs/pkg/scratch"
)

func init() {
	metrics.RegisterScratchMetricsConstructor(newScratchMetrics)
}

// scratchMetrics is the Prometheus implementation of scratch.Metrics.
type scratchMetrics struct {
	creates       *prometheus.CounterVec
	removes       *prometheus.CounterVec
	sweeps        *prometheus.CounterVec
	sweepDuration prometheus.Histogram
}

func newScratchMetrics() scratch.Metrics {
	reg := metrics.GetRegistry()

	return &scratchMetrics{
		creates: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopedfs_scratch_creates_total",
				Help: "Total scratch file creations by outcome",
			},
			[]string{"status"},
		),
		removes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopedfs_scratch_removes_total",
				Help: "Total scratch file removals by outcome",
			},
			[]string{"status"},
		),
		sweeps: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopedfs_scratch_sweeps_total",
				Help: "Total bulk sweeps of the scratch root by outcome",
			},
			[]string{"status"},
		),
		sweepDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scopedfs_scratch_sweep_duration_seconds",
				Help:    "Duration of bulk scratch sweeps",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *scratchMetrics) RecordCreate(err error) {
	m.creates.WithLabelValues(statusOf(err)).Inc()
}

func (m *scratchMetrics) RecordRemove(err error) {
	m.removes.WithLabelValues(statusOf(err)).Inc()
}

func (m *scratchMetrics) RecordSweep(duration time.Duration, err error) {
	m.sweeps.WithLabelValues(statusOf(err)).Inc()
	m.sweepDuration.Observe(duration.Seconds())
}
