package roadnet

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/deliveryroute/deliveryroute/pkg/geo"
)

// Index answers nearest-vertex queries over a graph. Vertices are placed on the unit
// sphere so that the kd-tree's Euclidean ordering matches great-circle ordering.
type Index struct {
	tree *kdtree.Tree
}

// NewIndex builds a kd-tree over every node of g.
func NewIndex(g *Graph) (*Index, error) {
	if g.NodeCount() == 0 {
		return nil, ErrEmptyGraph
	}

	nodes := g.Nodes()
	points := make(vertices, len(nodes))
	for i, n := range nodes {
		points[i] = newVertex(n)
	}
	return &Index{tree: kdtree.New(points, false)}, nil
}

// Nearest returns the node closest to c and its distance in meters.
// Ties go to the lowest node ID so snapping is deterministic.
func (x *Index) Nearest(c geo.Coordinate) (Node, float64) {
	q := newVertex(Node{ID: math.MaxInt64, Location: c})

	found, dist := x.tree.Nearest(q)
	best := found.(vertex)

	// Collect every vertex at the same distance to break ties by ID.
	keep := kdtree.NewDistKeeper(dist)
	x.tree.NearestSet(keep, q)
	for _, cd := range keep.Heap {
		if cd.Comparable == nil || cd.Dist > dist {
			continue
		}
		if v := cd.Comparable.(vertex); v.node.ID < best.node.ID {
			best = v
		}
	}
	return best.node, geo.Distance(c, best.node.Location)
}

// vertex is a node positioned on the unit sphere.
type vertex struct {
	node Node
	xyz  [3]float64
}

func newVertex(n Node) vertex {
	lat := n.Location.Lat * math.Pi / 180
	lon := n.Location.Lon * math.Pi / 180
	return vertex{
		node: n,
		xyz:  [3]float64{math.Cos(lat) * math.Cos(lon), math.Cos(lat) * math.Sin(lon), math.Sin(lat)},
	}
}

func (v vertex) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return v.xyz[d] - c.(vertex).xyz[d]
}

func (v vertex) Dims() int { return 3 }

// Distance returns the squared chord length between two vertices.
func (v vertex) Distance(c kdtree.Comparable) float64 {
	q := c.(vertex)
	var sum float64
	for i := range v.xyz {
		d := v.xyz[i] - q.xyz[i]
		sum += d * d
	}
	return sum
}

type vertices []vertex

func (v vertices) Index(i int) kdtree.Comparable         { return v[i] }
func (v vertices) Len() int                              { return len(v) }
func (v vertices) Pivot(d kdtree.Dim) int                { return plane{Dim: d, vertices: v}.Pivot() }
func (v vertices) Slice(start, end int) kdtree.Interface { return v[start:end] }

// plane sorts vertices along one dimension for median partitioning.
type plane struct {
	kdtree.Dim
	vertices
}

func (p plane) Less(i, j int) bool { return p.vertices[i].xyz[p.Dim] < p.vertices[j].xyz[p.Dim] }
func (p plane) Swap(i, j int)      { p.vertices[i], p.vertices[j] = p.vertices[j], p.vertices[i] }
func (p plane) Pivot() int         { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.vertices = p.vertices[start:end]
	return p
}
