package planner

import (
	"fmt"
	"math"

	"github.com/deliveryroute/deliveryroute/internal/fleet"
)

// validate checks the request shape and returns the stops.
func validate(req Request, maxStops int) ([]Stop, error) {
	n := len(req.Locations)
	if n < 2 {
		return nil, fmt.Errorf("%w: at least a depot and one delivery stop are required, got %d locations", ErrValidation, n)
	}
	if maxStops > 0 && n > maxStops {
		return nil, fmt.Errorf("%w: %d locations exceeds the limit of %d", ErrValidation, n, maxStops)
	}
	if len(req.Demands) != n {
		return nil, fmt.Errorf("%w: %d demands given for %d locations", ErrValidation, len(req.Demands), n)
	}

	stops := make([]Stop, n)
	for i, loc := range req.Locations {
		if err := loc.Validate(); err != nil {
			return nil, fmt.Errorf("%w: location %d: %v", ErrValidation, i, err)
		}
		d := req.Demands[i]
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return nil, fmt.Errorf("%w: demand %d must be a non-negative number, got %v", ErrValidation, i, d)
		}
		stops[i] = Stop{Index: i, Location: loc, Demand: d}
	}
	return stops, nil
}

// checkCapacity rejects any delivery stop whose demand exceeds the profile capacity.
// The depot carries no demand constraint.
func checkCapacity(stops []Stop, profile fleet.Profile) error {
	for _, s := range stops[1:] {
		if s.Demand > profile.Capacity {
			return fmt.Errorf("%w: stop %d demand %v exceeds capacity %v",
				ErrCapacityExceeded, s.Index, s.Demand, profile.Capacity)
		}
	}
	return nil
}
