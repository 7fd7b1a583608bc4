// Package api provides the HTTP API of the delivery route service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/deliveryroute/deliveryroute/internal/api/handler"
	"github.com/deliveryroute/deliveryroute/internal/api/middleware"
	"github.com/deliveryroute/deliveryroute/internal/api/response"
	"github.com/deliveryroute/deliveryroute/internal/fleet"
)

// DefaultSolveTimeout bounds one solve request end to end.
const DefaultSolveTimeout = 60 * time.Second

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	Planner   handler.Planner
	Profiles  *fleet.Registry
	Upstreams handler.HealthSource

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool
	// SolveRateLimit overrides middleware.SolveRateLimit when RequestLimit is set.
	SolveRateLimit middleware.RateLimitConfig
	// SolveTimeout bounds a solve request (default: DefaultSolveTimeout).
	SolveTimeout time.Duration
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "deliveryroute-api"
	}
	solveLimit := cfg.SolveRateLimit
	if solveLimit.RequestLimit == 0 {
		solveLimit = middleware.SolveRateLimit
	}
	if solveLimit.WindowLength == 0 {
		solveLimit.WindowLength = time.Minute
	}
	solveTimeout := cfg.SolveTimeout
	if solveTimeout == 0 {
		solveTimeout = DefaultSolveTimeout
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route matches "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r, r.Method+" is not supported on "+r.URL.Path)
	})

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Upstreams)
	solveHandler := handler.NewSolveHandler(cfg.Planner, cfg.Profiles, cfg.Logger).WithTimeout(solveTimeout)

	solveRateLimit := middleware.RateLimitByIP(solveLimit)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	// Unversioned path kept for existing map clients.
	r.With(solveRateLimit, middleware.RequireJSON).Post("/solve", solveHandler.Solve)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(standardRateLimit).Get("/status", opsHandler.SystemStatus)
		})

		if cfg.Profiles != nil {
			r.With(standardRateLimit).Get("/vehicle-profiles", solveHandler.VehicleProfiles)
		}

		r.With(solveRateLimit, middleware.RequireJSON).Post("/routes:solve", solveHandler.Solve)
	})

	return r
}
