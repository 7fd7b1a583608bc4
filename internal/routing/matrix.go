package routing

import (
	"fmt"
	"math"
)

// Matrices holds pairwise travel figures between stops.
// Every provider converts its upstream units so that distances are in meters and
// durations in seconds; Validate enforces the structural invariants.
type Matrices struct {
	// Distances[i][j] is the travel distance from stop i to stop j in meters.
	Distances [][]float64
	// Durations[i][j] is the travel duration from stop i to stop j in seconds.
	Durations [][]float64
}

// Size returns the number of stops covered by the matrices.
func (m *Matrices) Size() int {
	return len(m.Distances)
}

// Distance returns the distance in meters from i to j.
func (m *Matrices) Distance(i, j int) float64 {
	return m.Distances[i][j]
}

// Duration returns the duration in seconds from i to j.
func (m *Matrices) Duration(i, j int) float64 {
	return m.Durations[i][j]
}

// Validate checks that both matrices are n×n with a zero diagonal and finite,
// non-negative entries.
func (m *Matrices) Validate(n int) error {
	if err := validateSquare("distance", m.Distances, n); err != nil {
		return err
	}
	return validateSquare("duration", m.Durations, n)
}

func validateSquare(kind string, rows [][]float64, n int) error {
	if len(rows) != n {
		return fmt.Errorf("%s matrix has %d rows, expected %d", kind, len(rows), n)
	}
	for i, row := range rows {
		if len(row) != n {
			return fmt.Errorf("%s matrix row %d has %d columns, expected %d", kind, i, len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%s matrix entry [%d][%d] is not finite", kind, i, j)
			}
			if v < 0 {
				return fmt.Errorf("%s matrix entry [%d][%d] is negative: %f", kind, i, j, v)
			}
		}
		if row[i] != 0 {
			return fmt.Errorf("%s matrix diagonal [%d][%d] is %f, expected 0", kind, i, i, row[i])
		}
	}
	return nil
}

// NewSquare allocates an n×n zero matrix.
func NewSquare(n int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
	}
	return rows
}

// FromNullable converts an upstream table whose unreachable pairs are null into a dense
// matrix scaled by factor. A null off-diagonal entry is reported as an ErrGeometry error.
func FromNullable(provider, kind string, table [][]*float64, n int, factor float64) ([][]float64, error) {
	if len(table) != n {
		return nil, Unavailable(provider, "BAD_TABLE",
			fmt.Sprintf("%s table has %d rows, expected %d", kind, len(table), n))
	}

	out := NewSquare(n)
	for i, row := range table {
		if len(row) != n {
			return nil, Unavailable(provider, "BAD_TABLE",
				fmt.Sprintf("%s table row %d has %d columns, expected %d", kind, i, len(row), n))
		}
		for j, v := range row {
			if i == j {
				continue
			}
			if v == nil {
				return nil, Unmatched(provider, "UNREACHABLE",
					fmt.Sprintf("no %s between stop %d and stop %d", kind, i, j))
			}
			out[i][j] = *v * factor
		}
	}
	return out, nil
}
