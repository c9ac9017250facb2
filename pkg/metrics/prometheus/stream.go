package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/scopedfs/scopedfs/pkg/metrics"
	"github.com/scopedfs/scopedfs/pkg/stream"
)

func init() {
	metrics.RegisterStreamMetricsConstructor(newStreamMetrics)
}

// streamMetrics is the Prometheus implementation of stream.Metrics.
type streamMetrics struct {
	opened          *prometheus.CounterVec
	reflects        *prometheus.CounterVec
	reflectDuration *prometheus.HistogramVec
	disposed        prometheus.Counter
}

func newStreamMetrics() stream.Metrics {
	reg := metrics.GetRegistry()

	return &streamMetrics{
		opened: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopedfs_streams_opened_total",
				Help: "Total writable streams opened by routing",
			},
			[]string{"routing"},
		),
		reflects: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopedfs_stream_reflects_total",
				Help: "Total stream reflects by trigger and outcome",
			},
			[]string{"trigger", "status"},
		),
		reflectDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scopedfs_stream_reflect_duration_seconds",
				Help:    "Duration of stream reflects by trigger",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"trigger"},
		),
		disposed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "scopedfs_streams_disposed_total",
				Help: "Total streams disposed without reflect",
			},
		),
	}
}

func (m *streamMetrics) RecordOpen(buffered bool) {
	routing := "direct"
	if buffered {
		routing = "buffered"
	}
	m.opened.WithLabelValues(routing).Inc()
}

func (m *streamMetrics) RecordReflect(trigger string, duration time.Duration, err error) {
	m.reflects.WithLabelValues(trigger, statusOf(err)).Inc()
	m.reflectDuration.WithLabelValues(trigger).Observe(duration.Seconds())
}

func (m *streamMetrics) RecordDispose() {
	m.disposed.Inc()
}
