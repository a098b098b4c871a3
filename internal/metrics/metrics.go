// Package metrics exposes checkout counters in the Prometheus format.
package metrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Checkout records order placement outcomes on its own registry.
type Checkout struct {
	registry        *prometheus.Registry
	ordersPlaced    prometheus.Counter
	orderFailures   *prometheus.CounterVec
	stockRetries    prometheus.Counter
	placementLength prometheus.Histogram
}

func NewCheckout() *Checkout {
	registry := prometheus.NewRegistry()
	m := &Checkout{
		registry: registry,
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders committed by the checkout flow.",
		}),
		orderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_failures_total",
			Help:      "Checkout attempts that were rolled back, by reason.",
		}, []string{"reason"}),
		stockRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_retries_total",
			Help:      "Checkout transactions retried after lock or serialization contention.",
		}),
		placementLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_placement_duration_seconds",
			Help:      "Time spent placing an order, retries included.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	registry.MustRegister(
		m.ordersPlaced,
		m.orderFailures,
		m.stockRetries,
		m.placementLength,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Checkout) OrderPlaced(d time.Duration) {
	m.ordersPlaced.Inc()
	m.placementLength.Observe(d.Seconds())
}

func (m *Checkout) OrderFailed(reason string) {
	m.orderFailures.WithLabelValues(reason).Inc()
}

func (m *Checkout) StockRetry() {
	m.stockRetries.Inc()
}

func (m *Checkout) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry for scraping.
func (m *Checkout) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
}
