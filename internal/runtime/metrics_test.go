package runtime

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchMetricsCountOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewDispatchMetrics(reg)
	require.NoError(t, err)

	hooks := m.Hooks()
	hooks.OnRouted(DispatchEvent{Listener: "agent", Handler: "h", Duration: time.Millisecond})
	hooks.OnRouted(DispatchEvent{Listener: "agent", Handler: "h", Duration: time.Millisecond})
	hooks.OnNoMatch(DispatchEvent{Listener: "agent"})
	hooks.OnAmbiguous(DispatchEvent{Listener: "agent"})
	hooks.OnFault(DispatchEvent{Listener: "agent", Handler: "h"}, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dispatchTotal.WithLabelValues("agent", "routed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatchTotal.WithLabelValues("agent", "no_match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatchTotal.WithLabelValues("agent", "ambiguous")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatchTotal.WithLabelValues("agent", "fault")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.handlerDuration))
}

func TestDispatchMetricsShareRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewDispatchMetrics(reg)
	require.NoError(t, err)
	second, err := NewDispatchMetrics(reg)
	require.NoError(t, err)

	second.Hooks().OnNoMatch(DispatchEvent{Listener: "other"})
	assert.Equal(t, 1.0, testutil.ToFloat64(first.dispatchTotal.WithLabelValues("other", "no_match")))
}
