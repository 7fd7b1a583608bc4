// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/deliveryroute/deliveryroute/internal/optimizer"
)

// Matrix strategies.
const (
	StrategyRemote = "remote"
	StrategyLocal  = "local"
)

// Remote routing providers.
const (
	ProviderOSRM             = "osrm"
	ProviderOpenRouteService = "openrouteservice"
)

// Config holds the service configuration. It is read once at startup and passed to
// constructors.
type Config struct {
	Port        string
	Environment string

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool
	// SolveRateLimit is the number of solve requests allowed per client IP per minute.
	SolveRateLimit int

	OTelEnabled  bool
	OTLPEndpoint string

	// MatrixStrategy is "remote" (routing table service) or "local" (road graph).
	MatrixStrategy string
	// RoutingProvider is the remote service for tables and path geometry.
	RoutingProvider string

	OSRMBaseURL string
	OSRMProfile string

	ORSAPIKey  string
	ORSBaseURL string
	ORSProfile string

	OverpassURL     string
	GraphRadiusKm   float64
	AverageSpeedKmh float64
	// GraphFetchTimeout bounds the road graph download for the local strategy.
	GraphFetchTimeout time.Duration
	// MaxSnapMeters is the farthest a stop may lie from the road graph.
	MaxSnapMeters float64

	UpstreamTimeout    time.Duration
	UpstreamMaxRetries uint64

	LocalSearch optimizer.LocalSearch
	MaxStops    int

	// VehicleProfilesFile is an optional YAML profile table.
	VehicleProfilesFile string
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var errs []error

	parseFloat := func(key, def string) float64 {
		v, err := strconv.ParseFloat(getEnvOrDefault(key, def), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return v
	}
	parseInt := func(key, def string) int {
		v, err := strconv.Atoi(getEnvOrDefault(key, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return v
	}

	timeout, err := time.ParseDuration(getEnvOrDefault("UPSTREAM_TIMEOUT", "10s"))
	if err != nil {
		errs = append(errs, fmt.Errorf("UPSTREAM_TIMEOUT: %w", err))
	}
	graphTimeout, err := time.ParseDuration(getEnvOrDefault("GRAPH_FETCH_TIMEOUT", "30s"))
	if err != nil {
		errs = append(errs, fmt.Errorf("GRAPH_FETCH_TIMEOUT: %w", err))
	}
	retries, err := strconv.ParseUint(getEnvOrDefault("UPSTREAM_MAX_RETRIES", "2"), 10, 64)
	if err != nil {
		errs = append(errs, fmt.Errorf("UPSTREAM_MAX_RETRIES: %w", err))
	}
	localSearch, err := optimizer.ParseLocalSearch(getEnvOrDefault("LOCAL_SEARCH", string(optimizer.LocalSearchNone)))
	if err != nil {
		errs = append(errs, fmt.Errorf("LOCAL_SEARCH: %w", err))
	}

	cfg := Config{
		Port:                getEnvOrDefault("APP_PORT", "8080"),
		Environment:         getEnvOrDefault("APP_ENV", "development"),
		RequireTLS:          os.Getenv("REQUIRE_TLS") == "true",
		SolveRateLimit:      parseInt("SOLVE_RATE_LIMIT", "30"),
		OTelEnabled:         os.Getenv("OTEL_ENABLED") == "true",
		OTLPEndpoint:        getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		MatrixStrategy:      getEnvOrDefault("MATRIX_STRATEGY", StrategyRemote),
		RoutingProvider:     getEnvOrDefault("ROUTING_PROVIDER", ProviderOSRM),
		OSRMBaseURL:         getEnvOrDefault("OSRM_BASE_URL", "http://router.project-osrm.org"),
		OSRMProfile:         getEnvOrDefault("OSRM_PROFILE", "driving"),
		ORSAPIKey:           os.Getenv("ORS_API_KEY"),
		ORSBaseURL:          getEnvOrDefault("ORS_BASE_URL", "https://api.openrouteservice.org"),
		ORSProfile:          getEnvOrDefault("ORS_PROFILE", "driving-car"),
		OverpassURL:         getEnvOrDefault("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		GraphRadiusKm:       parseFloat("GRAPH_RADIUS_KM", "5"),
		AverageSpeedKmh:     parseFloat("AVERAGE_SPEED_KMH", "50"),
		GraphFetchTimeout:   graphTimeout,
		MaxSnapMeters:       parseFloat("MAX_SNAP_DISTANCE_M", "1000"),
		UpstreamTimeout:     timeout,
		UpstreamMaxRetries:  retries,
		LocalSearch:         localSearch,
		MaxStops:            parseInt("MAX_STOPS", "50"),
		VehicleProfilesFile: os.Getenv("VEHICLE_PROFILES_FILE"),
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %w", errs[0])
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	switch c.MatrixStrategy {
	case StrategyRemote, StrategyLocal:
	default:
		return fmt.Errorf("invalid configuration: MATRIX_STRATEGY must be %q or %q, got %q",
			StrategyRemote, StrategyLocal, c.MatrixStrategy)
	}

	switch c.RoutingProvider {
	case ProviderOSRM:
	case ProviderOpenRouteService:
		if c.ORSAPIKey == "" {
			return fmt.Errorf("invalid configuration: ORS_API_KEY is required for %s", ProviderOpenRouteService)
		}
	default:
		return fmt.Errorf("invalid configuration: ROUTING_PROVIDER must be %q or %q, got %q",
			ProviderOSRM, ProviderOpenRouteService, c.RoutingProvider)
	}

	if c.GraphRadiusKm <= 0 {
		return fmt.Errorf("invalid configuration: GRAPH_RADIUS_KM must be positive, got %v", c.GraphRadiusKm)
	}
	if c.AverageSpeedKmh <= 0 {
		return fmt.Errorf("invalid configuration: AVERAGE_SPEED_KMH must be positive, got %v", c.AverageSpeedKmh)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("invalid configuration: UPSTREAM_TIMEOUT must be positive, got %v", c.UpstreamTimeout)
	}
	if c.MatrixStrategy == StrategyLocal {
		if c.GraphFetchTimeout <= 0 {
			return fmt.Errorf("invalid configuration: GRAPH_FETCH_TIMEOUT must be positive, got %v", c.GraphFetchTimeout)
		}
		if c.MaxSnapMeters <= 0 {
			return fmt.Errorf("invalid configuration: MAX_SNAP_DISTANCE_M must be positive, got %v", c.MaxSnapMeters)
		}
	}
	if c.SolveRateLimit < 1 {
		return fmt.Errorf("invalid configuration: SOLVE_RATE_LIMIT must be at least 1, got %d", c.SolveRateLimit)
	}
	if c.MaxStops < 2 {
		return fmt.Errorf("invalid configuration: MAX_STOPS must be at least 2, got %d", c.MaxStops)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
