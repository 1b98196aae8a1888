package http

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/renovamx/storefront/internal/cart"
	"github.com/renovamx/storefront/internal/checkout"
	"github.com/renovamx/storefront/internal/session"
	"github.com/renovamx/storefront/pkg/health"
	"github.com/renovamx/storefront/pkg/middleware"
)

// RouterConfig carries the handler dependencies.
type RouterConfig struct {
	ServiceName string
	Carts       *cart.Manager
	Checkout    *checkout.Service
	Sessions    session.Provider
	Health      *health.Handler
	CORS        middleware.CORSConfig
	Logger      *slog.Logger
}

// NewRouter assembles the storefront HTTP API.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimw.RealIP)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.RequestLogger(cfg.Logger))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/cart", NewCartHandler(cfg.Carts, cfg.Sessions).Routes())
		r.Mount("/checkout", NewCheckoutHandler(cfg.Checkout, cfg.Sessions).Routes())
	})

	return r
}
