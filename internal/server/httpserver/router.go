package httpserver

import (
	"net/http"

	"github.com/yndnr/sharded-go/internal/server/httpserver/handler"
	"github.com/yndnr/sharded-go/internal/telemetry/logger"
	"github.com/yndnr/sharded-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Handler *handler.Handler
	Logger  logger.Logger

	// Metrics records request metrics and serves /metrics. Nil disables
	// both.
	Metrics *metric.Registry

	// RateLimiter limits the /v1 API per client. Nil disables limiting.
	RateLimiter *RateLimiter

	// AdminToken guards /admin routes. Empty disables them.
	AdminToken string
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	h := cfg.Handler
	mux := http.NewServeMux()

	// Order: RequestID -> Recover -> AccessLog -> extra -> handler
	handle := func(pattern string, fn http.HandlerFunc, extra ...Middleware) {
		mws := append([]Middleware{
			RequestID(log),
			Recover(),
			AccessLog(pattern, cfg.Metrics),
		}, extra...)
		mux.Handle(pattern, Chain(fn, mws...))
	}

	var api []Middleware
	if cfg.RateLimiter != nil {
		api = append(api, cfg.RateLimiter.Middleware())
	}
	admin := []Middleware{AdminAuth(cfg.AdminToken)}

	// Health endpoints
	handle("GET /health", h.Health)
	handle("GET /ready", h.Ready)

	if cfg.Metrics != nil {
		handle("GET /metrics", cfg.Metrics.Handler().ServeHTTP)
	}

	// Key/value API
	handle("GET /v1/keys", h.ListKeys, api...)
	handle("GET /v1/keys/{key...}", h.GetKey, api...)
	handle("PUT /v1/keys/{key...}", h.PutKey, api...)
	handle("DELETE /v1/keys/{key...}", h.DeleteKey, api...)
	handle("POST /v1/move", h.MoveKey, api...)
	handle("GET /v1/stats", h.Stats, api...)

	// Admin API
	handle("GET /admin/v1/status", h.AdminStatus, admin...)
	handle("GET /admin/v1/backup", h.Backup, admin...)

	return mux
}
