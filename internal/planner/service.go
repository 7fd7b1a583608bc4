package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/deliveryroute/deliveryroute/internal/fleet"
	"github.com/deliveryroute/deliveryroute/internal/optimizer"
	"github.com/deliveryroute/deliveryroute/internal/routing"
	"github.com/deliveryroute/deliveryroute/internal/telemetry"
	"github.com/deliveryroute/deliveryroute/internal/trip"
	"github.com/deliveryroute/deliveryroute/pkg/geo"
)

// DefaultMaxStops bounds the number of locations per request, depot included.
const DefaultMaxStops = 50

// Outcomes reported on the solve counter.
const (
	OutcomeOK         = "ok"
	OutcomeValidation = "validation_error"
	OutcomeCapacity   = "capacity_exceeded"
	OutcomeInfeasible = "infeasible"
	OutcomeUpstream   = "upstream_error"
	OutcomeError      = "error"
)

// ServiceConfig holds configuration for the planner.
type ServiceConfig struct {
	// Matrices computes travel matrices (required).
	Matrices MatrixSource

	// Paths renders path geometry (optional; without it the path is omitted).
	Paths PathSource

	// Profiles resolves vehicle types (default: the built-in table).
	Profiles *fleet.Registry

	// MaxStops bounds locations per request (default: 50).
	MaxStops int

	// Optimizer tunes the route search.
	Optimizer optimizer.Options

	// Metrics records stage durations (optional).
	Metrics *telemetry.PipelineMetrics

	// Logger for planner operations.
	Logger zerolog.Logger
}

// Service runs solve requests. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	matrices MatrixSource
	paths    PathSource
	profiles *fleet.Registry
	maxStops int
	opts     optimizer.Options
	metrics  *telemetry.PipelineMetrics
	tracer   trace.Tracer
	logger   zerolog.Logger
}

// NewService creates a planner.
func NewService(cfg ServiceConfig) *Service {
	profiles := cfg.Profiles
	if profiles == nil {
		profiles = fleet.DefaultRegistry()
	}

	maxStops := cfg.MaxStops
	if maxStops <= 0 {
		maxStops = DefaultMaxStops
	}

	return &Service{
		matrices: cfg.Matrices,
		paths:    cfg.Paths,
		profiles: profiles,
		maxStops: maxStops,
		opts:     cfg.Optimizer,
		metrics:  cfg.Metrics,
		tracer:   telemetry.Tracer(),
		logger:   cfg.Logger,
	}
}

// Profiles returns the vehicle profile registry in use.
func (s *Service) Profiles() *fleet.Registry {
	return s.profiles
}

// Plan validates req, checks capacity and then computes the route and its summary.
// The path geometry is fetched concurrently; its failure only clears PathAvailable.
func (s *Service) Plan(ctx context.Context, req Request) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "planner.Plan", trace.WithAttributes(
		attribute.Int("planner.stops", len(req.Locations)),
		attribute.Float64("planner.vehicle_type", req.VehicleType),
	))
	defer span.End()

	result, err := s.plan(ctx, req)

	outcome := outcomeOf(err)
	s.metrics.RecordSolve(ctx, len(req.Locations), outcome)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}

	span.SetAttributes(attribute.Bool("planner.path_available", result.PathAvailable))
	return result, nil
}

func (s *Service) plan(ctx context.Context, req Request) (*Result, error) {
	stops, err := validate(req, s.maxStops)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.Resolve(req.VehicleType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := checkCapacity(stops, profile); err != nil {
		s.logger.Info().
			Float64("vehicle_type", profile.Code).
			Float64("capacity", profile.Capacity).
			Msg("solve rejected: demand exceeds vehicle capacity")
		return nil, err
	}

	coords := req.Locations

	var (
		summary       *trip.Summary
		path          []geo.Coordinate
		pathAvailable bool
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		summary, err = s.route(gctx, coords, profile)
		return err
	})

	if s.paths != nil {
		g.Go(func() error {
			p, err := s.path(gctx, coords)
			if err != nil {
				// Path geometry is informational; the route stands without it.
				s.logger.Warn().Err(err).
					Int("stops", len(coords)).
					Msg("path geometry unavailable, omitting from result")
				return nil
			}
			path, pathAvailable = p, true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("stops", len(coords)).
		Float64("vehicle_type", profile.Code).
		Float64("total_distance_km", summary.TotalDistanceKm).
		Float64("total_duration_min", summary.TotalDurationMin).
		Bool("path_available", pathAvailable).
		Msg("route planned")

	return &Result{
		Summary:        summary,
		Profile:        profile,
		Path:           path,
		PathAvailable:  pathAvailable,
		MatrixProvider: s.matrices.TableProviderName(),
	}, nil
}

// route computes matrices, solves the tour and summarizes it.
func (s *Service) route(ctx context.Context, coords []geo.Coordinate, profile fleet.Profile) (*trip.Summary, error) {
	var m *routing.Matrices
	err := s.stage(ctx, "matrices", func(ctx context.Context) error {
		var err error
		m, err = s.matrices.ComputeMatrices(ctx, coords)
		if err != nil {
			return fmt.Errorf("computing travel matrices: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var tour optimizer.Route
	err = s.stage(ctx, "solve", func(context.Context) error {
		var err error
		tour, err = optimizer.Solve(len(coords), 0, m.Distance, s.opts)
		if err != nil {
			return fmt.Errorf("solving route: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var summary *trip.Summary
	err = s.stage(ctx, "summarize", func(context.Context) error {
		var err error
		summary, err = trip.Summarize(tour, m, profile, coords)
		return err
	})
	return summary, err
}

// path renders the geometry through the stops in request order.
func (s *Service) path(ctx context.Context, coords []geo.Coordinate) ([]geo.Coordinate, error) {
	var p []geo.Coordinate
	err := s.stage(ctx, "path", func(ctx context.Context) error {
		var err error
		p, err = s.paths.RenderPath(ctx, coords)
		return err
	})
	return p, err
}

// stage runs fn inside a span and records its duration.
func (s *Service) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "planner."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	s.metrics.RecordStage(ctx, name, elapsed, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, name+" failed")
	}

	s.logger.Debug().
		Str("stage", name).
		Dur("elapsed", elapsed).
		Bool("ok", err == nil).
		Msg("planner stage finished")

	return err
}

// outcomeOf classifies an error for the solve counter.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrCapacityExceeded):
		return OutcomeCapacity
	case errors.Is(err, ErrValidation), errors.Is(err, routing.ErrInvalidCoordinates):
		return OutcomeValidation
	case errors.Is(err, optimizer.ErrInfeasible):
		return OutcomeInfeasible
	case errors.Is(err, routing.ErrUpstreamUnavailable),
		errors.Is(err, routing.ErrGeometry),
		errors.Is(err, routing.ErrRateLimitExceeded):
		return OutcomeUpstream
	default:
		return OutcomeError
	}
}
