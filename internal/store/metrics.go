package store

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	apperrors "github.com/utafrali/storefront-cart/pkg/errors"
)

// Operation outcomes recorded in cart_operations_total.
const (
	outcomeOK             = "ok"
	outcomeNoop           = "noop"
	outcomeOutOfStock     = "out_of_stock"
	outcomeNotFound       = "not_found"
	outcomeNetworkFailure = "network_failure"
	outcomeError          = "error"
)

// Metrics holds the store's Prometheus collectors.
type Metrics struct {
	operations *prometheus.CounterVec
	lines      prometheus.Gauge
	units      prometheus.Gauge
}

// NewMetrics creates the store collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cart_operations_total",
				Help: "Cart commands by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		lines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cart_line_items",
			Help: "Distinct products currently in the cart",
		}),
		units: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cart_units",
			Help: "Sum of quantities currently in the cart",
		}),
	}
	reg.MustRegister(m.operations, m.lines, m.units)
	return m
}

func (m *Metrics) observe(operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) setSize(lines, units int) {
	if m == nil {
		return
	}
	m.lines.Set(float64(lines))
	m.units.Set(float64(units))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, apperrors.ErrOutOfStock):
		return outcomeOutOfStock
	case errors.Is(err, apperrors.ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, apperrors.ErrNetworkFailure):
		return outcomeNetworkFailure
	default:
		return outcomeError
	}
}
