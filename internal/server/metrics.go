package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks solve outcomes on a private registry so parallel test
// servers never collide.
type Metrics struct {
	registry *prometheus.Registry
	solves   *prometheus.CounterVec
	duration prometheus.Histogram
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_solves_total",
		Help: "Solve requests by outcome.",
	}, []string{"status"})

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_solve_duration_seconds",
		Help:    "Wall-clock duration of solve requests.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	registry.MustRegister(solves, duration)
	return &Metrics{registry: registry, solves: solves, duration: duration}
}

func (metrics *Metrics) ObserveSolve(status string, seconds float64) {
	metrics.solves.WithLabelValues(status).Inc()
	metrics.duration.Observe(seconds)
}

func (metrics *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{}))
}
