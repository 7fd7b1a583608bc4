// Package overpass fetches drivable road networks from an Overpass API endpoint.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deliveryroute/deliveryroute/internal/provider/resilience"
	"github.com/deliveryroute/deliveryroute/internal/roadnet"
	"github.com/deliveryroute/deliveryroute/internal/routing"
	"github.com/deliveryroute/deliveryroute/pkg/geo"
)

const (
	// ProviderName identifies this road-network source.
	ProviderName = "overpass"

	// DefaultURL is the public Overpass interpreter.
	DefaultURL = "https://overpass-api.de/api/interpreter"

	// DefaultTimeout is the default request timeout. Overpass queries are slower than
	// routing table calls.
	DefaultTimeout = 30 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Overpass client.
type ClientConfig struct {
	// URL is the interpreter endpoint (optional, defaults to the public instance).
	URL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 30s).
	Timeout time.Duration

	// MaxRetries is the number of retries on transient failures.
	MaxRetries uint64

	// Registry is the upstream health registry (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Overpass API client implementing roadnet.Source.
type Client struct {
	url        string
	timeout    time.Duration
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new Overpass client.
func NewClient(cfg ClientConfig) *Client {
	endpoint := cfg.URL
	if endpoint == "" {
		endpoint = DefaultURL
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
		url:        endpoint,
		timeout:    timeout,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchGraph downloads all drivable ways inside box and builds a directed graph that
// honors one-way restrictions.
func (c *Client) FetchGraph(ctx context.Context, box geo.BoundingBox) (*roadnet.Graph, error) {
	query := buildQuery(box, c.timeout)

	c.logger.Debug().
		Float64("south", box.South).
		Float64("west", box.West).
		Float64("north", box.North).
		Float64("east", box.East).
		Msg("requesting road network from Overpass")

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, routing.Unavailable(ProviderName, "REQUEST_FAILED",
			fmt.Sprintf("failed to reach road network source: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, routing.Unavailable(ProviderName, "READ_FAILED", "failed to read response body")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "too many concurrent Overpass queries",
			Err:      routing.ErrRateLimitExceeded,
		}
	case resp.StatusCode != http.StatusOK:
		return nil, routing.Unavailable(ProviderName, "HTTP_"+strconv.Itoa(resp.StatusCode),
			fmt.Sprintf("road network source returned status %d", resp.StatusCode))
	}

	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, routing.Unavailable(ProviderName, "DECODE_FAILED",
			fmt.Sprintf("decoding response: %v", err))
	}
	// Overpass reports query timeouts and memory exhaustion as a remark on a 200.
	if out.Remark != "" && len(out.Elements) == 0 {
		return nil, routing.Unavailable(ProviderName, "QUERY_FAILED", out.Remark)
	}

	g := buildGraph(out.Elements)

	c.logger.Debug().
		Int("nodes", g.NodeCount()).
		Int("edges", len(g.Edges())).
		Msg("road network received from Overpass")

	return g, nil
}

// buildQuery renders the Overpass QL query for drivable ways inside box.
func buildQuery(box geo.BoundingBox, timeout time.Duration) string {
	return fmt.Sprintf(`[out:json][timeout:%d];way["highway"~"%s"](%s,%s,%s,%s);(._;>;);out body;`,
		int(timeout.Seconds()),
		drivableHighways,
		formatFloat(box.South), formatFloat(box.West),
		formatFloat(box.North), formatFloat(box.East))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 7, 64)
}

// buildGraph converts Overpass elements into a road graph. Only nodes referenced by a
// drivable way become vertices.
func buildGraph(elements []element) *roadnet.Graph {
	coords := make(map[int64]geo.Coordinate)
	for _, el := range elements {
		if el.Type == elementNode {
			coords[el.ID] = geo.Coordinate{Lat: el.Lat, Lon: el.Lon}
		}
	}

	g := roadnet.NewGraph()
	for _, el := range elements {
		if el.Type != elementWay || len(el.Nodes) < 2 {
			continue
		}
		if el.Tags["access"] == "no" || el.Tags["access"] == "private" || el.Tags["motor_vehicle"] == "no" {
			continue
		}

		for _, id := range el.Nodes {
			if c, ok := coords[id]; ok {
				g.AddNode(id, c)
			}
		}

		forward, backward := directions(el.Tags)
		for i := 0; i+1 < len(el.Nodes); i++ {
			a, b := el.Nodes[i], el.Nodes[i+1]
			if forward {
				g.AddEdge(a, b)
			}
			if backward {
				g.AddEdge(b, a)
			}
		}
	}
	return g
}

// directions reports which way traffic may travel along a way's node order.
func directions(tags map[string]string) (forward, backward bool) {
	switch tags["oneway"] {
	case "yes", "true", "1":
		return true, false
	case "-1", "reverse":
		return false, true
	case "no", "false", "0":
		return true, true
	}
	if tags["junction"] == "roundabout" || tags["highway"] == "motorway" {
		return true, false
	}
	return true, true
}
