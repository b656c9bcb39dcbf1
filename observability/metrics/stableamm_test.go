package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestStableAMMMetricsObserve(t *testing.T) {
	m := StableAMM()
	require.Same(t, m, StableAMM())

	before := testutil.ToFloat64(m.operations.WithLabelValues("swap", "ok"))
	m.ObserveOperation("swap", "ok")
	m.ObserveOperation("swap", "ok")
	require.Equal(t, before+2, testutil.ToFloat64(m.operations.WithLabelValues("swap", "ok")))

	m.ObserveOperation("swap", "")
	require.GreaterOrEqual(t, testutil.ToFloat64(m.operations.WithLabelValues("swap", "unknown")), 1.0)

	m.ObservePool("7", 1.0015, 5413)
	require.Equal(t, 1.0015, testutil.ToFloat64(m.virtualPrice.WithLabelValues("7")))
	require.Equal(t, 5413.0, testutil.ToFloat64(m.amplification.WithLabelValues("7")))

	m.ObserveHeight(42)
	require.Equal(t, 42.0, testutil.ToFloat64(m.blockHeight))
}

func TestStableAMMMetricsNilSafe(t *testing.T) {
	var m *StableAMMMetrics
	require.NotPanics(t, func() {
		m.ObserveOperation("swap", "ok")
		m.ObservePool("0", 1, 100)
		m.ObserveHeight(1)
	})
}
