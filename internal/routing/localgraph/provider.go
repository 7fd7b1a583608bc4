// Package localgraph computes travel matrices from a road graph downloaded around the
// depot, using shortest paths over physical road length and a constant average speed.
package localgraph

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/deliveryroute/deliveryroute/internal/roadnet"
	"github.com/deliveryroute/deliveryroute/internal/routing"
	"github.com/deliveryroute/deliveryroute/pkg/geo"
)

const (
	// ProviderName identifies this matrix strategy.
	ProviderName = "localgraph"

	// DefaultRadiusMeters is the half-width of the area fetched around the depot.
	DefaultRadiusMeters = 5000.0

	// DefaultSpeedKmh is the assumed average travel speed.
	DefaultSpeedKmh = 50.0

	// DefaultMaxSnapMeters is the furthest a stop may lie from its nearest road vertex.
	DefaultMaxSnapMeters = 1000.0
)

// Config holds configuration for the local graph strategy.
type Config struct {
	// Source provides the road network (required).
	Source roadnet.Source

	// RadiusMeters is the distance fetched around the depot (default: 5000).
	RadiusMeters float64

	// SpeedKmh converts path length to duration (default: 50).
	SpeedKmh float64

	// MaxSnapMeters fails stops further than this from the network (default: 1000).
	MaxSnapMeters float64

	// Logger for provider operations.
	Logger zerolog.Logger
}

// Provider implements routing.TableProvider on top of a roadnet.Source.
type Provider struct {
	source   roadnet.Source
	radius   float64
	speedMps float64
	maxSnap  float64
	logger   zerolog.Logger
}

// New creates a local graph provider.
func New(cfg Config) *Provider {
	radius := cfg.RadiusMeters
	if radius <= 0 {
		radius = DefaultRadiusMeters
	}
	speed := cfg.SpeedKmh
	if speed <= 0 {
		speed = DefaultSpeedKmh
	}
	maxSnap := cfg.MaxSnapMeters
	if maxSnap <= 0 {
		maxSnap = DefaultMaxSnapMeters
	}

	return &Provider{
		source:   cfg.Source,
		radius:   radius,
		speedMps: speed / 3.6,
		maxSnap:  maxSnap,
		logger:   cfg.Logger,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return ProviderName
}

// ComputeMatrices fetches the network around the depot (stops[0]), keeps its largest
// connected component, snaps every stop to its nearest vertex and runs a single-source
// shortest path search from each stop.
func (p *Provider) ComputeMatrices(ctx context.Context, stops []geo.Coordinate) (*routing.Matrices, error) {
	if len(stops) == 0 {
		return &routing.Matrices{}, nil
	}

	box := geo.BoxAround(stops[0], p.radius)
	fetched, err := p.source.FetchGraph(ctx, box)
	if err != nil {
		return nil, err
	}

	network := fetched.LargestComponent()
	if pruned := fetched.NodeCount() - network.NodeCount(); pruned > 0 {
		p.logger.Debug().
			Int("pruned_nodes", pruned).
			Int("graph_nodes", network.NodeCount()).
			Msg("dropped road fragments outside the main network")
	}

	snapped, err := p.snap(network, stops)
	if err != nil {
		return nil, err
	}

	wg := toWeighted(network)
	n := len(stops)
	distances := routing.NewSquare(n)
	durations := routing.NewSquare(n)

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		shortest := path.DijkstraFrom(simple.Node(snapped[i]), wg)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			length := shortest.WeightTo(snapped[j])
			if math.IsInf(length, 1) {
				return nil, routing.Unmatched(ProviderName, "UNREACHABLE",
					fmt.Sprintf("no road path from stop %d to stop %d", i, j))
			}
			distances[i][j] = length
			durations[i][j] = length / p.speedMps
		}
	}

	p.logger.Debug().
		Int("stops", n).
		Int("graph_nodes", network.NodeCount()).
		Int("graph_edges", len(network.Edges())).
		Msg("computed matrices from local road graph")

	return &routing.Matrices{Distances: distances, Durations: durations}, nil
}

// snap maps each stop to the ID of its nearest graph vertex.
func (p *Provider) snap(network *roadnet.Graph, stops []geo.Coordinate) ([]int64, error) {
	index, err := roadnet.NewIndex(network)
	if errors.Is(err, roadnet.ErrEmptyGraph) {
		return nil, routing.Unmatched(ProviderName, "EMPTY_GRAPH",
			fmt.Sprintf("no drivable roads within %.0fm of the depot", p.radius))
	}
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(stops))
	for i, s := range stops {
		node, dist := index.Nearest(s)

		p.logger.Debug().
			Int("stop", i).
			Int64("node", node.ID).
			Float64("snap_distance_m", dist).
			Msg("snapped stop to road network")

		if dist > p.maxSnap {
			return nil, routing.Unmatched(ProviderName, "TOO_FAR",
				fmt.Sprintf("stop %d is %.0fm from the nearest road, limit is %.0fm", i, dist, p.maxSnap))
		}
		ids[i] = node.ID
	}
	return ids, nil
}

// toWeighted converts the road graph into a gonum weighted digraph keeping the shortest
// of any parallel segments.
func toWeighted(network *roadnet.Graph) *simple.WeightedDirectedGraph {
	wg := simple.NewWeightedDirectedGraph(0, math.Inf(1))
	for _, n := range network.Nodes() {
		wg.AddNode(simple.Node(n.ID))
	}
	for _, e := range network.Edges() {
		if existing := wg.WeightedEdge(e.From, e.To); existing != nil && existing.Weight() <= e.Length {
			continue
		}
		wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(e.From), simple.Node(e.To), e.Length))
	}
	return wg
}
