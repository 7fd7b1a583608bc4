// Package app assembles the planner and its upstream providers from configuration.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/deliveryroute/deliveryroute/internal/config"
	"github.com/deliveryroute/deliveryroute/internal/fleet"
	"github.com/deliveryroute/deliveryroute/internal/optimizer"
	"github.com/deliveryroute/deliveryroute/internal/planner"
	"github.com/deliveryroute/deliveryroute/internal/provider/resilience"
	"github.com/deliveryroute/deliveryroute/internal/roadnet/overpass"
	"github.com/deliveryroute/deliveryroute/internal/routing"
	"github.com/deliveryroute/deliveryroute/internal/routing/localgraph"
	"github.com/deliveryroute/deliveryroute/internal/routing/openrouteservice"
	"github.com/deliveryroute/deliveryroute/internal/routing/osrm"
	"github.com/deliveryroute/deliveryroute/internal/telemetry"
)

// Options carries the shared infrastructure handed to every component.
type Options struct {
	Logger          zerolog.Logger
	Registry        *resilience.Registry
	UpstreamMetrics *telemetry.UpstreamMetrics
	PipelineMetrics *telemetry.PipelineMetrics
}

// Components are the long-lived pieces built at startup.
type Components struct {
	Planner  *planner.Service
	Routing  *routing.Service
	Profiles *fleet.Registry
	Registry *resilience.Registry
}

// remoteProvider is a routing service offering both tables and path geometry.
type remoteProvider interface {
	routing.TableProvider
	routing.PathProvider
}

// Build wires the configured matrix strategy, path provider and vehicle profiles into
// a planner.
func Build(cfg config.Config, opts Options) (*Components, error) {
	registry := opts.Registry
	if registry == nil {
		registry = resilience.NewRegistry()
	}

	profiles := fleet.DefaultRegistry()
	if cfg.VehicleProfilesFile != "" {
		loaded, err := fleet.LoadFile(cfg.VehicleProfilesFile)
		if err != nil {
			return nil, err
		}
		profiles = loaded
		opts.Logger.Info().
			Str("file", cfg.VehicleProfilesFile).
			Int("reserved", len(profiles.Reserved())).
			Msg("vehicle profiles loaded")
	}

	remote, err := newRemote(cfg, registry, opts.Logger)
	if err != nil {
		return nil, err
	}

	var table routing.TableProvider = remote
	tableTimeout := cfg.UpstreamTimeout
	if cfg.MatrixStrategy == config.StrategyLocal {
		source := overpass.NewClient(overpass.ClientConfig{
			URL:        cfg.OverpassURL,
			Timeout:    cfg.GraphFetchTimeout,
			MaxRetries: cfg.UpstreamMaxRetries,
			Registry:   registry,
			Logger:     opts.Logger.With().Str("component", overpass.ProviderName).Logger(),
		})
		table = localgraph.New(localgraph.Config{
			Source:        source,
			RadiusMeters:  cfg.GraphRadiusKm * 1000,
			SpeedKmh:      cfg.AverageSpeedKmh,
			MaxSnapMeters: cfg.MaxSnapMeters,
			Logger:        opts.Logger.With().Str("component", localgraph.ProviderName).Logger(),
		})
		tableTimeout = cfg.GraphFetchTimeout + cfg.UpstreamTimeout
	}

	routingSvc := routing.NewService(routing.ServiceConfig{
		Table:        table,
		Path:         remote,
		Timeout:      cfg.UpstreamTimeout,
		TableTimeout: tableTimeout,
		Metrics:      opts.UpstreamMetrics,
		Logger:       opts.Logger.With().Str("component", "routing").Logger(),
	})

	plannerSvc := planner.NewService(planner.ServiceConfig{
		Matrices:  routingSvc,
		Paths:     routingSvc,
		Profiles:  profiles,
		MaxStops:  cfg.MaxStops,
		Optimizer: optimizer.Options{LocalSearch: cfg.LocalSearch},
		Metrics:   opts.PipelineMetrics,
		Logger:    opts.Logger.With().Str("component", "planner").Logger(),
	})

	opts.Logger.Info().
		Str("matrix_strategy", cfg.MatrixStrategy).
		Str("table_provider", table.Name()).
		Str("path_provider", remote.Name()).
		Str("local_search", string(cfg.LocalSearch)).
		Msg("planner configured")

	return &Components{
		Planner:  plannerSvc,
		Routing:  routingSvc,
		Profiles: profiles,
		Registry: registry,
	}, nil
}

func newRemote(cfg config.Config, registry *resilience.Registry, logger zerolog.Logger) (remoteProvider, error) {
	switch cfg.RoutingProvider {
	case config.ProviderOSRM:
		return osrm.NewClient(osrm.ClientConfig{
			BaseURL:    cfg.OSRMBaseURL,
			Profile:    cfg.OSRMProfile,
			Timeout:    cfg.UpstreamTimeout,
			MaxRetries: cfg.UpstreamMaxRetries,
			Registry:   registry,
			Logger:     logger.With().Str("component", osrm.ProviderName).Logger(),
		}), nil
	case config.ProviderOpenRouteService:
		return openrouteservice.NewClient(openrouteservice.ClientConfig{
			APIKey:     cfg.ORSAPIKey,
			BaseURL:    cfg.ORSBaseURL,
			Profile:    cfg.ORSProfile,
			Timeout:    cfg.UpstreamTimeout,
			MaxRetries: cfg.UpstreamMaxRetries,
			Registry:   registry,
			Logger:     logger.With().Str("component", openrouteservice.ProviderName).Logger(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown routing provider %q", cfg.RoutingProvider)
	}
}
