// Package httptransport assembles the public HTTP surface: middleware,
// credential API, health probes and the Prometheus endpoint.
package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	credentialhandler "vcdemo/internal/credential/handler"
	"vcdemo/internal/platform/health"
	"vcdemo/pkg/platform/middleware/metadata"
	"vcdemo/pkg/platform/middleware/request"
	"vcdemo/pkg/platform/middleware/requesttime"
	"vcdemo/pkg/validation"
)

// Config carries the router dependencies.
type Config struct {
	Credentials    *credentialhandler.Handler
	Health         *health.Handler
	RequestMetrics *request.Metrics
	Gatherer       prometheus.Gatherer
	Logger         *slog.Logger
	RequestTimeout time.Duration
	TrustedProxies []netip.Prefix
	// Clock overrides the request-scoped clock. Nil means time.Now.
	Clock func() time.Time
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(metadata.NewMiddleware(metadata.Config{TrustedProxies: cfg.TrustedProxies}).Handler)
	r.Use(requesttime.MiddlewareWithClock(clock))
	r.Use(request.Logger(cfg.Logger))
	if cfg.RequestMetrics != nil {
		r.Use(cfg.RequestMetrics.Middleware)
	}
	r.Use(request.BodyLimit(validation.MaxBodySize))
	if cfg.RequestTimeout > 0 {
		r.Use(request.Timeout(cfg.RequestTimeout))
	}

	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	cfg.Credentials.Register(r)

	return r
}
