// Package metrics exposes the latest run as Prometheus gauges.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazz-dev/apismoke/internal/checker"
)

// Metrics holds the collectors for check results and a private registry.
type Metrics struct {
	registry   *prometheus.Registry
	ok         *prometheus.GaugeVec
	responseMs *prometheus.GaugeVec
	statusCode *prometheus.GaugeVec
	run        *prometheus.GaugeVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ok: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "apismoke_check_ok",
				Help: "Whether the endpoint check passed in the latest run (1) or not (0)",
			},
			[]string{"service", "endpoint"},
		),
		responseMs: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "apismoke_check_response_ms",
				Help: "Elapsed time of the endpoint check in milliseconds",
			},
			[]string{"service", "endpoint"},
		),
		statusCode: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "apismoke_check_status_code",
				Help: "HTTP status code observed by the endpoint check, 0 on transport failure",
			},
			[]string{"service", "endpoint", "method"},
		),
		run: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "apismoke_run_checks",
				Help: "Number of checks in the latest run by result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ok,
		m.responseMs,
		m.statusCode,
		m.run,
	)
	return m
}

// Registry returns the registry holding all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Observe replaces the per-check gauges with the contents of rep.
// Checks missing from rep no longer appear in the output.
func (m *Metrics) Observe(rep checker.Report) {
	m.ok.Reset()
	m.responseMs.Reset()
	m.statusCode.Reset()

	for _, r := range rep.Results {
		ok := 0.0
		if r.OK {
			ok = 1
		}
		m.ok.WithLabelValues(r.Service, r.Endpoint).Set(ok)
		m.responseMs.WithLabelValues(r.Service, r.Endpoint).Set(r.ResponseMs)

		status := 0
		if r.StatusCode != nil {
			status = *r.StatusCode
		}
		m.statusCode.WithLabelValues(r.Service, r.Endpoint, r.Method).Set(float64(status))
	}

	m.run.WithLabelValues("total").Set(float64(rep.Summary.Total))
	m.run.WithLabelValues("passed").Set(float64(rep.Summary.Passed))
	m.run.WithLabelValues("failed").Set(float64(rep.Summary.Failed))
}
