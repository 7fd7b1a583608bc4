// Package optimizer builds a single-vehicle depot-to-depot tour over a cost matrix.
package optimizer

import (
	"errors"
	"fmt"
	"math"
)

// ErrInfeasible indicates no tour can be built from the available arc costs.
var ErrInfeasible = errors.New("no feasible tour")

// ErrInvalidProblem indicates the problem dimensions are unusable.
var ErrInvalidProblem = errors.New("invalid routing problem")

// CostFunc returns the cost of travelling from stop i to stop j.
type CostFunc func(from, to int) float64

// LocalSearch selects the improvement phase run after the first solution.
type LocalSearch string

const (
	// LocalSearchNone keeps the first solution as is.
	LocalSearchNone LocalSearch = "none"
	// LocalSearchTwoOpt applies first-improvement 2-opt segment reversals.
	LocalSearchTwoOpt LocalSearch = "two_opt"
)

// ParseLocalSearch validates a local search name. Empty means none.
func ParseLocalSearch(s string) (LocalSearch, error) {
	switch LocalSearch(s) {
	case "", LocalSearchNone:
		return LocalSearchNone, nil
	case LocalSearchTwoOpt:
		return LocalSearchTwoOpt, nil
	default:
		return "", fmt.Errorf("unknown local search %q", s)
	}
}

// Options tune the solver.
type Options struct {
	// LocalSearch is the improvement phase (default: none).
	LocalSearch LocalSearch

	// MaxPasses bounds the number of full 2-opt sweeps (default: 100).
	MaxPasses int
}

// Route is a visiting order over stop indices starting and ending at the depot.
type Route []int

// Solve returns a depot-to-depot tour visiting every stop in [0, n) exactly once.
//
// The first solution extends the partial tour from its last stop along the cheapest
// usable outgoing arc; the lowest stop index wins ties. Arcs with a negative or
// non-finite cost are unusable.
func Solve(n, depot int, cost CostFunc, opts Options) (Route, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: need at least one stop, got %d", ErrInvalidProblem, n)
	}
	if depot < 0 || depot >= n {
		return nil, fmt.Errorf("%w: depot %d outside [0, %d)", ErrInvalidProblem, depot, n)
	}

	route, err := cheapestArc(n, depot, cost)
	if err != nil {
		return nil, err
	}

	if opts.LocalSearch == LocalSearchTwoOpt {
		passes := opts.MaxPasses
		if passes <= 0 {
			passes = 100
		}
		route = twoOpt(route, cost, passes)
	}

	return route, nil
}

// cheapestArc builds the first solution.
func cheapestArc(n, depot int, cost CostFunc) (Route, error) {
	visited := make([]bool, n)
	visited[depot] = true

	route := make(Route, 0, n+1)
	route = append(route, depot)

	for len(route) < n {
		from := route[len(route)-1]
		next, best := -1, math.Inf(1)
		for to := 0; to < n; to++ {
			if visited[to] {
				continue
			}
			c := cost(from, to)
			if !usable(c) {
				continue
			}
			if c < best {
				next, best = to, c
			}
		}
		if next < 0 {
			return nil, fmt.Errorf("%w: no usable arc leaves stop %d", ErrInfeasible, from)
		}
		visited[next] = true
		route = append(route, next)
	}

	last := route[len(route)-1]
	if last != depot {
		if !usable(cost(last, depot)) {
			return nil, fmt.Errorf("%w: stop %d cannot return to the depot", ErrInfeasible, last)
		}
		route = append(route, depot)
	}
	if len(route) == 1 {
		route = append(route, depot)
	}
	return route, nil
}

// twoOpt reverses inner segments while doing so lowers the tour cost. Costs may be
// asymmetric, so every candidate is priced in full.
func twoOpt(route Route, cost CostFunc, maxPasses int) Route {
	best := append(Route(nil), route...)
	bestCost := best.Cost(cost)

	for pass := 0; pass < maxPasses; pass++ {
		improved := false
		for i := 1; i < len(best)-2; i++ {
			for j := i + 1; j < len(best)-1; j++ {
				candidate := append(Route(nil), best...)
				reverse(candidate[i : j+1])
				if c := candidate.Cost(cost); c < bestCost-1e-9 {
					best, bestCost = candidate, c
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	return best
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func usable(c float64) bool {
	return c >= 0 && !math.IsInf(c, 0) && !math.IsNaN(c)
}

// Cost sums the arc costs along the route. Unusable arcs make the cost +Inf.
func (r Route) Cost(cost CostFunc) float64 {
	total := 0.0
	for i := 0; i+1 < len(r); i++ {
		c := cost(r[i], r[i+1])
		if !usable(c) {
			return math.Inf(1)
		}
		total += c
	}
	return total
}

// Validate checks that r starts and ends at depot and visits every other stop in
// [0, n) exactly once.
func (r Route) Validate(n, depot int) error {
	if len(r) != n+1 {
		return fmt.Errorf("route has %d entries, expected %d", len(r), n+1)
	}
	if r[0] != depot || r[len(r)-1] != depot {
		return fmt.Errorf("route must start and end at depot %d", depot)
	}

	seen := make([]bool, n)
	for _, idx := range r[1 : len(r)-1] {
		if idx < 0 || idx >= n {
			return fmt.Errorf("route visits unknown stop %d", idx)
		}
		if idx == depot || seen[idx] {
			return fmt.Errorf("route visits stop %d more than once", idx)
		}
		seen[idx] = true
	}
	return nil
}
