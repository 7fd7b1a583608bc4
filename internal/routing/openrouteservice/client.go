// Package openrouteservice provides a client for the OpenRouteService matrix and
// directions APIs.
package openrouteservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deliveryroute/deliveryroute/internal/provider/resilience"
	"github.com/deliveryroute/deliveryroute/internal/routing"
	"github.com/deliveryroute/deliveryroute/pkg/geo"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "openrouteservice"

	// DefaultBaseURL is the OpenRouteService API base URL.
	DefaultBaseURL = "https://api.openrouteservice.org"

	// DefaultProfile is the ORS routing profile for delivery vehicles.
	DefaultProfile = "driving-car"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenRouteService client.
type ClientConfig struct {
	// APIKey is the ORS API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to ORS API).
	BaseURL string

	// Profile is the routing profile (optional, defaults to "driving-car").
	Profile string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// MaxRetries is the number of retries on transient failures.
	MaxRetries uint64

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenRouteService API client. It implements routing.TableProvider and
// routing.PathProvider.
type Client struct {
	apiKey     string
	baseURL    string
	profile    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new OpenRouteService client.
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
		apiKey:     cfg.APIKey,
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

// ComputeMatrices requests a full distance and duration matrix for stops in meters
// and seconds.
func (c *Client) ComputeMatrices(ctx context.Context, stops []geo.Coordinate) (*routing.Matrices, error) {
	reqBody := matrixRequest{
		Locations: lonLat(stops),
		Metrics:   []string{"distance", "duration"},
		Units:     "m",
	}

	c.logger.Debug().
		Str("profile", c.profile).
		Int("stops", len(stops)).
		Msg("requesting matrix from ORS")

	var resp matrixResponse
	if err := c.post(ctx, "/v2/matrix/"+c.profile, reqBody, &resp); err != nil {
		return nil, err
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

// RoutePath requests directions through stops in order and decodes the route geometry.
func (c *Client) RoutePath(ctx context.Context, stops []geo.Coordinate) ([]geo.Coordinate, error) {
	reqBody := directionsRequest{
		Coordinates:  lonLat(stops),
		Instructions: false,
		Geometry:     true,
		Units:        "m",
	}

	var resp directionsResponse
	if err := c.post(ctx, "/v2/directions/"+c.profile, reqBody, &resp); err != nil {
		return nil, err
	}

	if len(resp.Routes) == 0 {
		return nil, routing.Unmatched(ProviderName, "NO_ROUTE", "directions returned no routes")
	}

	path := geo.DecodePolyline(resp.Routes[0].Geometry, geo.PrecisionDefault)

	c.logger.Debug().
		Int("points", len(path)).
		Float64("distance_m", resp.Routes[0].Summary.Distance).
		Msg("received directions from ORS")

	return path, nil
}

// post sends body as JSON to path and decodes a 200 response into out.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Accept", "application/json, application/geo+json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return routing.Unavailable(ProviderName, "REQUEST_FAILED",
			fmt.Sprintf("failed to reach routing provider: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return routing.Unavailable(ProviderName, "READ_FAILED", "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return handleErrorResponse(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return routing.Unavailable(ProviderName, "DECODE_FAILED",
			fmt.Sprintf("decoding response: %v", err))
	}
	return nil
}

// handleErrorResponse maps ORS error responses to routing errors.
func handleErrorResponse(statusCode int, body []byte) error {
	if statusCode == http.StatusTooManyRequests {
		return &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "API rate limit exceeded, please try again later",
			Err:      routing.ErrRateLimitExceeded,
		}
	}

	var orsErr orsErrorResponse
	if err := json.Unmarshal(body, &orsErr); err != nil {
		return routing.Unavailable(ProviderName, fmt.Sprintf("HTTP_%d", statusCode),
			fmt.Sprintf("routing provider returned status %d", statusCode))
	}

	switch orsErr.Error.Code {
	case orsErrorCodeRouteNotFound, orsErrorCodePointNotFound, orsErrorCodeMatrixPointMiss:
		return routing.Unmatched(ProviderName, "NO_ROUTE", orsErr.Error.Message)
	case orsErrorCodeInvalidParam:
		return routing.Unavailable(ProviderName, "BAD_REQUEST", orsErr.Error.Message)
	}

	switch {
	case statusCode == http.StatusForbidden || statusCode == http.StatusUnauthorized:
		return routing.Unavailable(ProviderName, "FORBIDDEN",
			"API access denied - check API key configuration")
	case statusCode >= 500:
		return routing.Unavailable(ProviderName, fmt.Sprintf("SERVER_%d", statusCode),
			"routing provider is temporarily unavailable")
	default:
		return routing.Unavailable(ProviderName, fmt.Sprintf("HTTP_%d", statusCode), orsErr.Error.Message)
	}
}

// lonLat converts stops to ORS's [lon, lat] order.
func lonLat(stops []geo.Coordinate) [][]float64 {
	out := make([][]float64, len(stops))
	for i, s := range stops {
		out[i] = []float64{s.Lon, s.Lat}
	}
	return out
}
