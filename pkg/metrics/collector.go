package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/statekit/pkg/history"
	"github.com/dmitrymomot/statekit/pkg/transition"
)

var (
	_ transition.Observer  = (*Collector)(nil)
	_ history.Observer     = (*Collector)(nil)
	_ prometheus.Collector = (*Collector)(nil)
)

const (
	outcomeAllowed  = "allowed"
	outcomeDenied   = "denied"
	outcomeRecorded = "recorded"
	outcomeSkipped  = "skipped"
	outcomeFailed   = "failed"
)

// Collector exports authorization and history outcomes as Prometheus metrics.
// Pass it to transition.WithObserver and history.WithObserver, then register it.
type Collector struct {
	lookups   *prometheus.CounterVec
	available *prometheus.HistogramVec
	decisions *prometheus.CounterVec
	records   *prometheus.CounterVec
}

// New creates a Collector. An empty namespace defaults to "statekit".
func New(namespace string) *Collector {
	if namespace == "" {
		namespace = "statekit"
	}
	return &Collector{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_lookups_total",
			Help:      "Available transition lookups by model type and whether the actor was anonymous.",
		}, []string{"model_type", "anonymous"}),
		available: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "available_transitions",
			Help:      "Number of transitions available to an actor per lookup.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}, []string{"model_type"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorization_decisions_total",
			Help:      "Transition authorization decisions.",
		}, []string{"model_type", "from_state", "to_state", "outcome"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_records_total",
			Help:      "History recorder outcomes by model type.",
		}, []string{"model_type", "outcome"}),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.lookups.Describe(ch)
	c.available.Describe(ch)
	c.decisions.Describe(ch)
	c.records.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.lookups.Collect(ch)
	c.available.Collect(ch)
	c.decisions.Collect(ch)
	c.records.Collect(ch)
}

func (c *Collector) AvailabilityResolved(_ context.Context, q transition.Query, anonymous bool, available int) {
	c.lookups.WithLabelValues(string(q.ModelType), strconv.FormatBool(anonymous)).Inc()
	if !anonymous {
		c.available.WithLabelValues(string(q.ModelType)).Observe(float64(available))
	}
}

func (c *Collector) AuthorizationDecided(_ context.Context, q transition.Query, toState string, allowed bool) {
	outcome := outcomeDenied
	if allowed {
		outcome = outcomeAllowed
	}
	c.decisions.WithLabelValues(string(q.ModelType), q.FromState, toState, outcome).Inc()
}

func (c *Collector) Recorded(_ context.Context, rec history.Record) {
	c.records.WithLabelValues(string(rec.Model.Type), outcomeRecorded).Inc()
}

func (c *Collector) Skipped(_ context.Context, commit history.Commit) {
	c.records.WithLabelValues(string(commit.Model.Type), outcomeSkipped).Inc()
}

func (c *Collector) Failed(_ context.Context, commit history.Commit, _ error) {
	c.records.WithLabelValues(string(commit.Model.Type), outcomeFailed).Inc()
}

// Handler returns an HTTP handler exposing a dedicated registry with the
// collector and the Go runtime collectors.
func Handler(c *Collector) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c, prometheus.NewGoCollector())
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
