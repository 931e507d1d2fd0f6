// Package metrics holds the Prometheus collectors of the server.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors the services and interceptors report to.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Calculations   *prometheus.CounterVec
	RemainderUnits prometheus.Counter
	Settlements    prometheus.Counter
	Shares         *prometheus.CounterVec
	RPCDuration    *prometheus.HistogramVec
}

// New registers and returns the collectors under namespace. A nil reg uses
// prometheus.DefaultRegisterer.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Number of splits calculated.",
		}, []string{"split_method", "rounding_method"}),
		RemainderUnits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remainder_units_total",
			Help:      "Absolute rounding adjustment distributed across people.",
		}),
		Settlements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Number of settlement transfers emitted.",
		}),
		Shares: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "share_operations_total",
			Help:      "Share link operations by outcome.",
		}, []string{"operation", "outcome"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_ms",
			Help:      "RPC latency distribution in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"procedure", "code"}),
	}
	register(reg, &m.Calculations)
	register(reg, &m.RemainderUnits)
	register(reg, &m.Settlements)
	register(reg, &m.Shares)
	register(reg, &m.RPCDuration)
	return m
}

// ObserveCalculation records one calculated split.
func (m *Metrics) ObserveCalculation(splitMethod, roundingMethod string, adjustment float64, settlements int) {
	if m == nil {
		return
	}
	m.Calculations.WithLabelValues(splitMethod, roundingMethod).Inc()
	if adjustment < 0 {
		adjustment = -adjustment
	}
	m.RemainderUnits.Add(adjustment)
	m.Settlements.Add(float64(settlements))
}

// ObserveShare records a share operation ("create", "get") and its outcome.
func (m *Metrics) ObserveShare(operation, outcome string) {
	if m == nil {
		return
	}
	m.Shares.WithLabelValues(operation, outcome).Inc()
}

// ObserveRPC records the duration of one RPC.
func (m *Metrics) ObserveRPC(procedure, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.RPCDuration.WithLabelValues(procedure, code).Observe(float64(d) / float64(time.Millisecond))
}

// register adds c to reg, reusing the existing collector when one with the
// same description is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c *C) {
	if err := reg.Register(*c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				*c = existing
				return
			}
		}
		panic(fmt.Errorf("register collector: %w", err))
	}
}
