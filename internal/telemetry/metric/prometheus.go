package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Shard lock metrics
	LockAcquisitions *prometheus.CounterVec
	LockWouldBlock   *prometheus.CounterVec
	LockWait         *prometheus.HistogramVec

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with every application metric and the Go
// runtime collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		LockAcquisitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharded",
			Subsystem: "lock",
			Name:      "acquisitions_total",
			Help:      "Shard lock acquisitions by map and mode.",
		}, []string{"map", "mode"}),

		LockWouldBlock: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharded",
			Subsystem: "lock",
			Name:      "would_block_total",
			Help:      "Non-blocking shard acquisitions refused because the shard was busy.",
		}, []string{"map", "mode"}),

		LockWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sharded",
			Subsystem: "lock",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for a blocking shard acquisition.",
			Buckets:   []float64{1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 0.1, 1},
		}, []string{"map", "mode"}),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardkv",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shardkv",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.LockAcquisitions,
		r.LockWouldBlock,
		r.LockWait,
		r.RequestsTotal,
		r.RequestDuration,
	)
	return r
}

// MustRegister registers additional collectors, such as the storage engine
// gauges.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.registry.MustRegister(cs...)
}

// Prometheus returns the underlying registry.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}

// Handler returns the /metrics handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler returns the /metrics handler for the global registry.
func Handler() http.Handler {
	return Global().Handler()
}
