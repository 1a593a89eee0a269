package promexporter

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter manages Prometheus metrics export
type Exporter struct {
	registry *prometheus.Registry
}

// NewExporter creates an exporter with its own registry.
func NewExporter() *Exporter {
	return &Exporter{registry: prometheus.NewRegistry()}
}

// RegisterClient exports the statistics of a client.
func (e *Exporter) RegisterClient(src Source) error {
	return e.registry.Register(NewClientCollector(src))
}

// RegisterPool exports the statistics of a pool.
func (e *Exporter) RegisterPool(addr string, src PoolSource) error {
	return e.registry.Register(NewPoolCollector(addr, src))
}

// Registry returns the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler returns an HTTP handler for the /metrics endpoint
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP serves /metrics on addr until the listener fails.
func (e *Exporter) ServeHTTP(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	return http.ListenAndServe(addr, mux)
}
