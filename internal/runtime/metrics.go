package runtime

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics exposes dispatch outcomes and handler latency to
// Prometheus. Install it on a dispatcher through Hooks.
type DispatchMetrics struct {
	dispatchTotal   *prometheus.CounterVec
	handlerDuration *prometheus.HistogramVec
}

// NewDispatchMetrics creates the collectors and registers them with
// registerer (the default registerer when nil). Listeners in the same
// process share the collectors already registered.
func NewDispatchMetrics(registerer prometheus.Registerer) (*DispatchMetrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	total := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tagflow",
			Name:      "dispatch_total",
			Help:      "Number of dispatched messages by outcome",
		},
		[]string{"listener", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tagflow",
			Name:      "handler_duration_seconds",
			Help:      "Time spent in handlers, replies excluded",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"listener", "handler"},
	)

	var err error
	if total, err = registerCollector(registerer, total); err != nil {
		return nil, err
	}
	if duration, err = registerCollector(registerer, duration); err != nil {
		return nil, err
	}

	return &DispatchMetrics{dispatchTotal: total, handlerDuration: duration}, nil
}

func registerCollector[C prometheus.Collector](registerer prometheus.Registerer, c C) (C, error) {
	if err := registerer.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Hooks returns dispatch hooks feeding the collectors.
func (m *DispatchMetrics) Hooks() DispatchHooks {
	return DispatchHooks{
		OnRouted: func(ev DispatchEvent) {
			m.dispatchTotal.WithLabelValues(ev.Listener, OutcomeRouted.String()).Inc()
			m.handlerDuration.WithLabelValues(ev.Listener, ev.Handler).Observe(ev.Duration.Seconds())
		},
		OnNoMatch: func(ev DispatchEvent) {
			m.dispatchTotal.WithLabelValues(ev.Listener, OutcomeNoMatch.String()).Inc()
		},
		OnAmbiguous: func(ev DispatchEvent) {
			m.dispatchTotal.WithLabelValues(ev.Listener, OutcomeAmbiguous.String()).Inc()
		},
		OnFault: func(ev DispatchEvent, _ error) {
			m.dispatchTotal.WithLabelValues(ev.Listener, "fault").Inc()
			m.handlerDuration.WithLabelValues(ev.Listener, ev.Handler).Observe(ev.Duration.Seconds())
		},
	}
}
