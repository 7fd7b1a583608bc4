// Package roadnet models a drivable road network as a directed graph of intersections
// and road segments, fetched for a bounding box from a road-network data source.
package roadnet

import (
	"context"
	"errors"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/deliveryroute/deliveryroute/pkg/geo"
)

// ErrEmptyGraph indicates the data source returned no drivable roads for the area.
var ErrEmptyGraph = errors.New("road network has no drivable nodes")

// Source fetches the drivable road network inside a bounding box.
type Source interface {
	FetchGraph(ctx context.Context, box geo.BoundingBox) (*Graph, error)
	Name() string
}

// Node is a graph vertex: an intersection or shape point of a road.
type Node struct {
	ID       int64
	Location geo.Coordinate
}

// Edge is a directed road segment between two nodes.
type Edge struct {
	From   int64
	To     int64
	Length float64 // meters
}

// Graph is a directed road graph. It is built once per request and then only read.
type Graph struct {
	nodes map[int64]Node
	edges []Edge
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[int64]Node)}
}

// AddNode adds or replaces a node.
func (g *Graph) AddNode(id int64, loc geo.Coordinate) {
	g.nodes[id] = Node{ID: id, Location: loc}
}

// AddEdge adds a directed segment from one known node to another with its
// great-circle length. Self loops and segments with unknown endpoints are ignored.
func (g *Graph) AddEdge(from, to int64) bool {
	if from == to {
		return false
	}
	a, ok := g.nodes[from]
	if !ok {
		return false
	}
	b, ok := g.nodes[to]
	if !ok {
		return false
	}
	g.edges = append(g.edges, Edge{From: from, To: to, Length: geo.Distance(a.Location, b.Location)})
	return true
}

// Node returns the node with the given ID.
func (g *Graph) Node(id int64) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes ordered by ID.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns the directed segments in insertion order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// LargestComponent returns the subgraph of the largest weakly connected component,
// dropping isolated fragments such as service aisles cut off by access filters. Ties go
// to the component holding the lowest node ID. g is returned as is when it is already
// connected.
func (g *Graph) LargestComponent() *Graph {
	if len(g.nodes) == 0 {
		return g
	}

	ug := simple.NewUndirectedGraph()
	for _, n := range g.Nodes() {
		ug.AddNode(simple.Node(n.ID))
	}
	for _, e := range g.edges {
		ug.SetEdge(simple.Edge{F: simple.Node(e.From), T: simple.Node(e.To)})
	}

	var (
		best      []graph.Node
		bestMinID int64
	)
	for _, comp := range topo.ConnectedComponents(ug) {
		minID := comp[0].ID()
		for _, n := range comp[1:] {
			if n.ID() < minID {
				minID = n.ID()
			}
		}
		if len(comp) > len(best) || (len(comp) == len(best) && minID < bestMinID) {
			best, bestMinID = comp, minID
		}
	}
	if len(best) == len(g.nodes) {
		return g
	}

	sub := NewGraph()
	for _, n := range best {
		sub.nodes[n.ID()] = g.nodes[n.ID()]
	}
	for _, e := range g.edges {
		if _, ok := sub.nodes[e.From]; ok {
			sub.edges = append(sub.edges, e)
		}
	}
	return sub
}
