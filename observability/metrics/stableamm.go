package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type StableAMMMetrics struct {
	operations    *prometheus.CounterVec
	virtualPrice  *prometheus.GaugeVec
	amplification *prometheus.GaugeVec
	blockHeight   prometheus.Gauge
}

var (
	stableAMMOnce     sync.Once
	stableAMMRegistry *StableAMMMetrics
)

func StableAMM() *StableAMMMetrics {
	stableAMMOnce.Do(func() {
		stableAMMRegistry = &StableAMMMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stableamm_operations_total",
				Help: "Count of pool operations by kind and outcome.",
			}, []string{"op", "outcome"}),
			virtualPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "stableamm_virtual_price",
				Help: "Invariant value per LP token, in whole units.",
			}, []string{"pool"}),
			amplification: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "stableamm_amplification_precise",
				Help: "Current amplification coefficient scaled by A precision.",
			}, []string{"pool"}),
			blockHeight: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "stableamm_block_height",
				Help: "Logical height of the last committed operation.",
			}),
		}
		prometheus.MustRegister(
			stableAMMRegistry.operations,
			stableAMMRegistry.virtualPrice,
			stableAMMRegistry.amplification,
			stableAMMRegistry.blockHeight,
		)
	})
	return stableAMMRegistry
}

func (m *StableAMMMetrics) ObserveOperation(op, outcome string) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

func (m *StableAMMMetrics) ObservePool(pool string, virtualPrice float64, aPrecise uint64) {
	if m == nil {
		return
	}
	m.virtualPrice.WithLabelValues(pool).Set(virtualPrice)
	m.amplification.WithLabelValues(pool).Set(float64(aPrecise))
}

func (m *StableAMMMetrics) ObserveHeight(height uint64) {
	if m == nil {
		return
	}
	m.blockHeight.Set(float64(height))
}
