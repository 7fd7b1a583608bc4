// Package osrm provides a client for the OSRM table and route services.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deliveryroute/deliveryroute/internal/provider/resilience"
	"github.com/deliveryroute/deliveryroute/internal/routing"
	"github.com/deliveryroute/deliveryroute/pkg/geo"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "osrm"

	// DefaultBaseURL is the public OSRM demo server.
	DefaultBaseURL = "http://router.project-osrm.org"

	// DefaultProfile is the OSRM routing profile.
	DefaultProfile = "driving"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OSRM client.
type ClientConfig struct {
	// BaseURL is the OSRM server (optional, defaults to the public demo server).
	BaseURL string

	// Profile is the routing profile (optional, defaults to "driving").
	Profile string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the per-attempt request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// MaxRetries is the number of retries on transient failures.
	MaxRetries uint64

	// Registry is the upstream health registry (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OSRM API client. It implements routing.TableProvider and
// routing.PathProvider.
type Client struct {
	baseURL    string
	profile    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new OSRM client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	profile := cfg.Profile
	if profile == "" {
		profile = DefaultProfile
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.MaxRetries = cfg.MaxRetries
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = cfg.Logger
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    baseURL,
		profile:    profile,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// ComputeMatrices queries the table service for all stops in one call.
// OSRM reports meters and seconds, which are the canonical matrix units.
func (c *Client) ComputeMatrices(ctx context.Context, stops []geo.Coordinate) (*routing.Matrices, error) {
	url := fmt.Sprintf("%s/table/v1/%s/%s?annotations=distance,duration",
		c.baseURL, c.profile, encodeCoordinates(stops))

	c.logger.Debug().
		Int("stops", len(stops)).
		Str("profile", c.profile).
		Msg("requesting table from OSRM")

	var resp tableResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}

	if resp.Code != codeOk {
		return nil, mapCode(resp.Code, resp.Message)
	}

	distances, err := routing.FromNullable(ProviderName, "distance", resp.Distances, len(stops), 1)
	if err != nil {
		return nil, err
	}
	durations, err := routing.FromNullable(ProviderName, "duration", resp.Durations, len(stops), 1)
	if err != nil {
		return nil, err
	}

	return &routing.Matrices{Distances: distances, Durations: durations}, nil
}

// RoutePath queries the route service for the full overview geometry through stops
// in order and returns it as (lat, lon) pairs.
func (c *Client) RoutePath(ctx context.Context, stops []geo.Coordinate) ([]geo.Coordinate, error) {
	url := fmt.Sprintf("%s/route/v1/%s/%s?overview=full&geometries=geojson",
		c.baseURL, c.profile, encodeCoordinates(stops))

	var resp routeResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}

	if resp.Code != codeOk {
		return nil, mapCode(resp.Code, resp.Message)
	}
	if len(resp.Routes) == 0 {
		return nil, routing.Unmatched(ProviderName, codeNoRoute, "route service returned no routes")
	}

	line := resp.Routes[0].Geometry.Coordinates
	path := make([]geo.Coordinate, 0, len(line))
	for i, pair := range line {
		if len(pair) < 2 {
			return nil, routing.Unavailable(ProviderName, "BAD_GEOMETRY",
				fmt.Sprintf("geometry point %d has %d values", i, len(pair)))
		}
		// GeoJSON order is [lon, lat].
		path = append(path, geo.Coordinate{Lat: pair[1], Lon: pair[0]})
	}

	c.logger.Debug().
		Int("points", len(path)).
		Float64("distance_m", resp.Routes[0].Distance).
		Msg("received route geometry from OSRM")

	return path, nil
}

// get performs a GET and decodes a 200 response into out.
func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return routing.Unavailable(ProviderName, "REQUEST_FAILED",
			fmt.Sprintf("failed to reach routing provider: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return routing.Unavailable(ProviderName, "READ_FAILED", "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return handleErrorResponse(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return routing.Unavailable(ProviderName, "DECODE_FAILED",
			fmt.Sprintf("decoding response: %v", err))
	}
	return nil
}

// handleErrorResponse maps OSRM error responses to routing errors.
func handleErrorResponse(statusCode int, body []byte) error {
	if statusCode == http.StatusTooManyRequests {
		return &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "API rate limit exceeded, please try again later",
			Err:      routing.ErrRateLimitExceeded,
		}
	}

	var osrmErr errorResponse
	if err := json.Unmarshal(body, &osrmErr); err == nil && osrmErr.Code != "" {
		return mapCode(osrmErr.Code, osrmErr.Message)
	}

	return routing.Unavailable(ProviderName, "HTTP_"+strconv.Itoa(statusCode),
		fmt.Sprintf("routing provider returned status %d", statusCode))
}

// mapCode maps a non-Ok OSRM code to a routing error.
func mapCode(code, message string) error {
	if message == "" {
		message = "routing provider returned code " + code
	}

	switch code {
	case codeNoRoute, codeNoSegment, codeNoTable:
		return routing.Unmatched(ProviderName, code, message)
	default:
		// Stops are range-checked before the call; InvalidQuery and TooBig are
		// provider failures too.
		return routing.Unavailable(ProviderName, code, message)
	}
}

// encodeCoordinates renders stops as OSRM's "lon,lat;lon,lat" path segment.
func encodeCoordinates(stops []geo.Coordinate) string {
	parts := make([]string, len(stops))
	for i, s := range stops {
		parts[i] = strconv.FormatFloat(s.Lon, 'f', 6, 64) + "," + strconv.FormatFloat(s.Lat, 'f', 6, 64)
	}
	return strings.Join(parts, ";")
}
