package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/deliveryroute/deliveryroute/internal/telemetry"
	"github.com/deliveryroute/deliveryroute/pkg/geo"
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Table computes distance/duration matrices (required).
	Table TableProvider

	// Path renders road-following geometry (optional; RenderPath fails without it).
	Path PathProvider

	// Timeout bounds each upstream call (default: 10 seconds).
	Timeout time.Duration

	// TableTimeout bounds matrix computation (default: Timeout). A table provider that
	// fetches its own data first needs room for that fetch as well.
	TableTimeout time.Duration

	// Metrics records upstream call durations (optional).
	Metrics *telemetry.UpstreamMetrics

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service fronts the configured providers: it validates input, bounds every call with
// a timeout, normalizes errors onto the routing sentinels and validates matrices.
type Service struct {
	table        TableProvider
	path         PathProvider
	timeout      time.Duration
	tableTimeout time.Duration
	metrics      *telemetry.UpstreamMetrics
	logger       zerolog.Logger
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	tableTimeout := cfg.TableTimeout
	if tableTimeout == 0 {
		tableTimeout = timeout
	}

	return &Service{
		table:        cfg.Table,
		path:         cfg.Path,
		timeout:      timeout,
		tableTimeout: tableTimeout,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}
}

// ComputeMatrices returns validated matrices for stops, in meters and seconds.
func (s *Service) ComputeMatrices(ctx context.Context, stops []geo.Coordinate) (*Matrices, error) {
	name := s.table.Name()
	if err := ValidateStops(name, stops); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.tableTimeout)
	defer cancel()

	s.logger.Debug().
		Str("provider", name).
		Int("stops", len(stops)).
		Msg("computing travel matrices")

	start := time.Now()
	m, err := s.table.ComputeMatrices(ctx, stops)
	s.metrics.Record(ctx, name, "table", time.Since(start), err)
	if err != nil {
		err = normalize(ctx, name, err)
		s.logger.Error().Err(err).
			Str("provider", name).
			Int("stops", len(stops)).
			Msg("failed to compute travel matrices")
		return nil, err
	}

	if err := m.Validate(len(stops)); err != nil {
		return nil, Unavailable(name, "INVALID_TABLE", err.Error())
	}

	s.logger.Debug().
		Str("provider", name).
		Dur("elapsed", time.Since(start)).
		Msg("travel matrices computed")

	return m, nil
}

// RenderPath returns the road-following geometry through stops in the given order.
func (s *Service) RenderPath(ctx context.Context, stops []geo.Coordinate) ([]geo.Coordinate, error) {
	if s.path == nil {
		return nil, Unavailable("none", "NO_PATH_PROVIDER", "no path provider configured")
	}

	name := s.path.Name()
	if err := ValidateStops(name, stops); err != nil {
		return nil, err
	}
	if len(stops) < 2 {
		return nil, &Error{
			Provider: name,
			Code:     "TOO_FEW_STOPS",
			Message:  "a path needs at least two stops",
			Err:      ErrInvalidCoordinates,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	path, err := s.path.RoutePath(ctx, stops)
	s.metrics.Record(ctx, name, "route", time.Since(start), err)
	if err != nil {
		return nil, normalize(ctx, name, err)
	}

	s.logger.Debug().
		Str("provider", name).
		Int("points", len(path)).
		Msg("path geometry received")

	return path, nil
}

// TableProviderName returns the name of the matrix provider.
func (s *Service) TableProviderName() string {
	return s.table.Name()
}

// normalize maps any provider error onto one of the routing sentinels so callers only
// need errors.Is checks.
func normalize(ctx context.Context, provider string, err error) error {
	switch {
	case errors.Is(err, ErrUpstreamUnavailable),
		errors.Is(err, ErrGeometry),
		errors.Is(err, ErrRateLimitExceeded),
		errors.Is(err, ErrInvalidCoordinates):
		return err
	case ctx.Err() != nil:
		return Unavailable(provider, "TIMEOUT", fmt.Sprintf("upstream call did not complete: %v", ctx.Err()))
	default:
		return Unavailable(provider, "UPSTREAM_ERROR", err.Error())
	}
}
