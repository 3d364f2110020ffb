// Package metrics defines the Prometheus collectors exported by a solving
// session.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultLabel  = "result"
	BackendLabel = "backend"
)

// Collectors groups the per-session metrics. A nil *Collectors is valid and
// records nothing.
type Collectors struct {
	termsCreated prometheus.Counter
	termsReused  prometheus.Counter
	symbols      prometheus.Counter
	checks       *prometheus.CounterVec
	checkSat     prometheus.Histogram
	contextLevel prometheus.Gauge
}

// NewCollectors creates the collectors and registers them with reg. Passing a
// nil registerer creates unregistered collectors.
func NewCollectors(reg prometheus.Registerer, backend string) (*Collectors, error) {
	constLabels := prometheus.Labels{BackendLabel: backend}
	c := &Collectors{
		termsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "smtswitch_terms_created_total",
				Help:        "Number of canonical terms created",
				ConstLabels: constLabels,
			},
		),
		termsReused: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "smtswitch_terms_reused_total",
				Help:        "Number of term constructions answered by an existing canonical term",
				ConstLabels: constLabels,
			},
		),
		symbols: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "smtswitch_symbols_total",
				Help:        "Number of declared symbols",
				ConstLabels: constLabels,
			},
		),
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "smtswitch_check_sat_total",
				Help:        "Number of satisfiability checks by result",
				ConstLabels: constLabels,
			},
			[]string{ResultLabel},
		),
		checkSat: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:        "smtswitch_check_sat_seconds",
				Help:        "Duration of satisfiability checks",
				ConstLabels: constLabels,
				Buckets:     prometheus.ExponentialBuckets(0.0005, 4, 10),
			},
		),
		contextLevel: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "smtswitch_context_level",
				Help:        "Current assertion stack depth",
				ConstLabels: constLabels,
			},
		),
	}
	if reg == nil {
		return c, nil
	}
	for _, col := range []prometheus.Collector{c.termsCreated, c.termsReused, c.symbols, c.checks, c.checkSat, c.contextLevel} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collectors) TermCreated() {
	if c != nil {
		c.termsCreated.Inc()
	}
}

func (c *Collectors) TermReused() {
	if c != nil {
		c.termsReused.Inc()
	}
}

func (c *Collectors) SymbolDeclared() {
	if c != nil {
		c.symbols.Inc()
	}
}

// ObserveCheck records one check-sat call.
func (c *Collectors) ObserveCheck(result string, took time.Duration) {
	if c == nil {
		return
	}
	c.checks.WithLabelValues(result).Inc()
	c.checkSat.Observe(took.Seconds())
}

func (c *Collectors) SetContextLevel(level uint64) {
	if c != nil {
		c.contextLevel.Set(float64(level))
	}
}
