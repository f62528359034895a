// Package metrics provides Prometheus metrics for timefs backends.
//
// Metrics are optional: until InitRegistry is called, constructors return
// nil and backends fall back to their no-op implementation.
//
// Usage:
//
//	metrics.InitRegistry()
//	opts.Metrics = metrics.NewVFSMetrics()
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry creates the process registry. Later calls are ignored.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the process registry, nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

func IsEnabled() bool {
	return GetRegistry() != nil
}

// Handler serves the process registry, or 503 when metrics are disabled.
func Handler() http.Handler {
	if !IsEnabled() {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics collection is disabled", http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
