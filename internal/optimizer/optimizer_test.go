package optimizer

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func matrixCost(m [][]float64) CostFunc {
	return func(from, to int) float64 { return m[from][to] }
}

func TestSolve_CheapestArc(t *testing.T) {
	m := [][]float64{
		{0, 10, 15, 20},
		{10, 0, 35, 25},
		{15, 35, 0, 30},
		{20, 25, 30, 0},
	}

	route, err := Solve(4, 0, matrixCost(m), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Route{0, 1, 3, 2, 0}
	if !equal(route, want) {
		t.Fatalf("expected %v, got %v", want, route)
	}
	if c := route.Cost(matrixCost(m)); c != 80 {
		t.Errorf("expected cost 80, got %f", c)
	}
}

func TestSolve_TieGoesToLowestIndex(t *testing.T) {
	m := [][]float64{
		{0, 5, 5, 7},
		{5, 0, 3, 3},
		{5, 3, 0, 4},
		{7, 3, 4, 0},
	}

	route, err := Solve(4, 0, matrixCost(m), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Route{0, 1, 2, 3, 0}
	if !equal(route, want) {
		t.Fatalf("expected %v, got %v", want, route)
	}
}

func TestSolve_Deterministic(t *testing.T) {
	m := randomMatrix(rand.New(rand.NewSource(7)), 12)

	first, err := Solve(12, 0, matrixCost(m), Options{LocalSearch: LocalSearchTwoOpt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Solve(12, 0, matrixCost(m), Options{LocalSearch: LocalSearchTwoOpt})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !equal(first, again) {
			t.Fatalf("expected identical routes, got %v and %v", first, again)
		}
	}
}

func TestSolve_NonZeroDepot(t *testing.T) {
	m := [][]float64{
		{0, 4, 1},
		{4, 0, 2},
		{1, 2, 0},
	}

	route, err := Solve(3, 1, matrixCost(m), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := route.Validate(3, 1); err != nil {
		t.Fatalf("invalid route %v: %v", route, err)
	}
	want := Route{1, 2, 0, 1}
	if !equal(route, want) {
		t.Errorf("expected %v, got %v", want, route)
	}
}

func TestSolve_SingleStop(t *testing.T) {
	route, err := Solve(1, 0, matrixCost([][]float64{{0}}), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equal(route, Route{0, 0}) {
		t.Errorf("expected [0 0], got %v", route)
	}
}

func TestSolve_Infeasible(t *testing.T) {
	inf := math.Inf(1)

	tests := []struct {
		name string
		m    [][]float64
	}{
		{
			name: "depot cannot leave",
			m: [][]float64{
				{0, inf, inf},
				{1, 0, 1},
				{1, 1, 0},
			},
		},
		{
			name: "no return to depot",
			m: [][]float64{
				{0, 1, 2},
				{inf, 0, 1},
				{inf, 1, 0},
			},
		},
		{
			name: "negative arc",
			m: [][]float64{
				{0, -1},
				{1, 0},
			},
		},
		{
			name: "NaN arc",
			m: [][]float64{
				{0, 1},
				{math.NaN(), 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Solve(len(tt.m), 0, matrixCost(tt.m), Options{})
			if !errors.Is(err, ErrInfeasible) {
				t.Errorf("expected ErrInfeasible, got %v", err)
			}
		})
	}
}

func TestSolve_SkipsUnusableArcWhenAlternativeExists(t *testing.T) {
	inf := math.Inf(1)
	m := [][]float64{
		{0, inf, 5},
		{3, 0, inf},
		{9, 2, 0},
	}

	route, err := Solve(3, 0, matrixCost(m), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equal(route, Route{0, 2, 1, 0}) {
		t.Errorf("expected [0 2 1 0], got %v", route)
	}
}

func TestSolve_InvalidProblem(t *testing.T) {
	if _, err := Solve(0, 0, nil, Options{}); !errors.Is(err, ErrInvalidProblem) {
		t.Errorf("expected ErrInvalidProblem for empty problem, got %v", err)
	}
	if _, err := Solve(3, 3, nil, Options{}); !errors.Is(err, ErrInvalidProblem) {
		t.Errorf("expected ErrInvalidProblem for depot out of range, got %v", err)
	}
}

func TestSolve_TwoOptImproves(t *testing.T) {
	// Rounded Euclidean distances (meters) between grid points where the first
	// solution crosses itself.
	m := [][]float64{
		{0, 8602, 2000, 4000, 2000},
		{8602, 0, 7616, 7071, 9899},
		{2000, 7616, 0, 2000, 4000},
		{4000, 7071, 2000, 0, 6000},
		{2000, 9899, 4000, 6000, 0},
	}
	cost := matrixCost(m)

	greedy, err := Solve(5, 0, cost, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equal(greedy, Route{0, 2, 3, 4, 1, 0}) || greedy.Cost(cost) != 28501 {
		t.Fatalf("unexpected first solution %v (cost %f)", greedy, greedy.Cost(cost))
	}

	improved, err := Solve(5, 0, cost, Options{LocalSearch: LocalSearchTwoOpt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := improved.Validate(5, 0); err != nil {
		t.Fatalf("invalid route %v: %v", improved, err)
	}
	if !equal(improved, Route{0, 4, 1, 3, 2, 0}) || improved.Cost(cost) != 22970 {
		t.Errorf("expected [0 4 1 3 2 0] with cost 22970, got %v (cost %f)", improved, improved.Cost(cost))
	}
}

func TestSolve_TwoOptNeverWorse(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 25; trial++ {
		n := 3 + rng.Intn(15)
		m := randomMatrix(rng, n)
		cost := matrixCost(m)

		base, err := Solve(n, 0, cost, Options{})
		if err != nil {
			t.Fatalf("trial %d: unexpected error: %v", trial, err)
		}
		improved, err := Solve(n, 0, cost, Options{LocalSearch: LocalSearchTwoOpt})
		if err != nil {
			t.Fatalf("trial %d: unexpected error: %v", trial, err)
		}

		if err := base.Validate(n, 0); err != nil {
			t.Fatalf("trial %d: invalid first solution: %v", trial, err)
		}
		if err := improved.Validate(n, 0); err != nil {
			t.Fatalf("trial %d: invalid improved route: %v", trial, err)
		}
		if improved.Cost(cost) > base.Cost(cost) {
			t.Errorf("trial %d: 2-opt made the tour worse: %f > %f", trial, improved.Cost(cost), base.Cost(cost))
		}
	}
}

func TestParseLocalSearch(t *testing.T) {
	tests := []struct {
		in      string
		want    LocalSearch
		wantErr bool
	}{
		{"", LocalSearchNone, false},
		{"none", LocalSearchNone, false},
		{"two_opt", LocalSearchTwoOpt, false},
		{"guided", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLocalSearch(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLocalSearch(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLocalSearch(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRoute_Validate(t *testing.T) {
	tests := []struct {
		name    string
		route   Route
		wantErr bool
	}{
		{"valid", Route{0, 2, 1, 0}, false},
		{"missing stop", Route{0, 1, 0}, true},
		{"duplicate stop", Route{0, 1, 1, 0}, true},
		{"open tour", Route{0, 1, 2, 1}, true},
		{"depot revisited", Route{0, 0, 1, 0}, true},
		{"unknown stop", Route{0, 1, 5, 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.route.Validate(3, 0)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func randomMatrix(rng *rand.Rand, n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			if i != j {
				m[i][j] = float64(1 + rng.Intn(10000))
			}
		}
	}
	return m
}

func equal(a, b Route) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
