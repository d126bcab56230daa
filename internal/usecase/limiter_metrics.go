package usecase

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/adityachilka1/nicu-pediasense-sub002/internal/core/domain"
)

// MetricsOptions configures the limiter decision collectors.
type MetricsOptions struct {
	Registerer prometheus.Registerer
	Namespace  string
}

// Metrics exposes Prometheus collectors for rate-limit decisions. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Decisions *prometheus.CounterVec
	Fallbacks prometheus.Counter
}

// NewMetrics constructs and registers the decision collectors with the
// provided registerer.
func NewMetrics(opts MetricsOptions) (*Metrics, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "ratelimit"
	}

	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decisions_total",
		Help:      "Total number of rate-limit decisions partitioned by class, backend, and outcome.",
	}, []string{"class", "backend", "outcome"})

	if err := reg.Register(decisions); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				decisions = existing
			} else {
				return nil, fmt.Errorf("existing decisions collector has unexpected type %T", already.ExistingCollector)
			}
		} else {
			return nil, fmt.Errorf("register decisions collector: %w", err)
		}
	}

	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "remote_fallbacks_total",
		Help:      "Total number of calls served locally because the remote backend failed.",
	})

	if err := reg.Register(fallbacks); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(prometheus.Counter); ok {
				fallbacks = existing
			} else {
				return nil, fmt.Errorf("existing fallbacks collector has unexpected type %T", already.ExistingCollector)
			}
		} else {
			return nil, fmt.Errorf("register fallbacks collector: %w", err)
		}
	}

	return &Metrics{
		Decisions: decisions,
		Fallbacks: fallbacks,
	}, nil
}

// ObserveDecision records one allowed or exceeded decision.
func (m *Metrics) ObserveDecision(class string, backend domain.Backend, allowed bool) {
	if m == nil || m.Decisions == nil {
		return
	}

	outcome := "allowed"
	if !allowed {
		outcome = "exceeded"
	}

	m.Decisions.With(prometheus.Labels{
		"class":   class,
		"backend": string(backend),
		"outcome": outcome,
	}).Inc()
}

// ObserveFallback records one remote-to-local degradation.
func (m *Metrics) ObserveFallback() {
	if m == nil || m.Fallbacks == nil {
		return
	}
	m.Fallbacks.Inc()
}
