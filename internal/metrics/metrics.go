// Package metrics exposes prometheus instruments for the progression engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "expeditions"

type Metrics struct {
	registry *prometheus.Registry

	transitions *prometheus.CounterVec
	unlocks     prometheus.Counter
	completions prometheus.Counter
	rewards     *prometheus.CounterVec
	useCases    *prometheus.HistogramVec
}

// New creates instruments on a dedicated registry with Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pin_transitions_total",
			Help:      "Pin status changes by resulting status.",
		}, []string{"status"}),
		unlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pin_unlocks_total",
			Help:      "Pins unlocked by a resolved outcome.",
		}),
		completions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expedition_completions_total",
			Help:      "Student expeditions completed through a FINAL pin.",
		}),
		rewards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reward_deliveries_total",
			Help:      "Reward grant delivery attempts by result.",
		}, []string{"result"}),
		useCases: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "use_case_duration_seconds",
			Help:      "Service use case latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"use_case", "outcome"}),
	}
	reg.MustRegister(
		m.transitions, m.unlocks, m.completions, m.rewards, m.useCases,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) PinTransition(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) PinsUnlocked(n int) {
	if m == nil || n == 0 {
		return
	}
	m.unlocks.Add(float64(n))
}

func (m *Metrics) ExpeditionCompleted() {
	if m == nil {
		return
	}
	m.completions.Inc()
}

// Reward delivery results.
const (
	RewardDelivered = "delivered"
	RewardFailed    = "failed"
	RewardSkipped   = "skipped"
)

func (m *Metrics) RewardDelivery(result string) {
	if m == nil {
		return
	}
	m.rewards.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveUseCase(name string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.useCases.WithLabelValues(name, outcome).Observe(d.Seconds())
}
