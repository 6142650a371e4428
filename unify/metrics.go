// ABOUTME: Prometheus instrumentation for fetches, mutations, rollbacks and retries
// ABOUTME: Registered against a caller-supplied registerer so tests stay isolated
package unify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's collectors. A nil *Metrics disables recording.
type Metrics struct {
	fetches       *prometheus.CounterVec
	sourceErrors  *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	mutations     *prometheus.CounterVec
	rollbacks     *prometheus.CounterVec
	retries       *prometheus.CounterVec
	streamSize    prometheus.Gauge
	pending       prometheus.Gauge
}

// NewMetrics registers the engine collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbook",
			Name:      "fetches_total",
			Help:      "Full aggregation runs by result.",
		}, []string{"result"}),
		sourceErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbook",
			Name:      "source_fetch_errors_total",
			Help:      "Source reads that failed after retries.",
		}, []string{"origin"}),
		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leadbook",
			Name:      "fetch_duration_seconds",
			Help:      "Wall time of a full aggregation run.",
			Buckets:   prometheus.DefBuckets,
		}),
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbook",
			Name:      "mutations_total",
			Help:      "Optimistic mutations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		rollbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbook",
			Name:      "rollbacks_total",
			Help:      "Optimistic patches reverted after a remote failure.",
		}, []string{"kind"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbook",
			Name:      "remote_retries_total",
			Help:      "Remote call retries by call name.",
		}, []string{"call"}),
		streamSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "leadbook",
			Name:      "stream_contacts",
			Help:      "Records in the visible merged stream.",
		}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "leadbook",
			Name:      "pending_mutations",
			Help:      "Optimistic patches awaiting remote confirmation.",
		}),
	}
}

func (m *Metrics) observeFetch(start time.Time, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.fetches.WithLabelValues(result).Inc()
	m.fetchDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeSourceError(origin string) {
	if m == nil {
		return
	}
	m.sourceErrors.WithLabelValues(origin).Inc()
}

func (m *Metrics) observeMutation(kind, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) observeRollback(kind string) {
	if m == nil {
		return
	}
	m.rollbacks.WithLabelValues(kind).Inc()
}

func (m *Metrics) setStream(size, pending int) {
	if m == nil {
		return
	}
	m.streamSize.Set(float64(size))
	m.pending.Set(float64(pending))
}
