// Package planner runs the solve pipeline: request validation, vehicle profile
// resolution, the capacity check, travel matrices, route optimization and trip
// summary, with path geometry fetched alongside.
package planner

import (
	"context"
	"errors"

	"github.com/deliveryroute/deliveryroute/internal/fleet"
	"github.com/deliveryroute/deliveryroute/internal/routing"
	"github.com/deliveryroute/deliveryroute/internal/trip"
	"github.com/deliveryroute/deliveryroute/pkg/geo"
)

// CapacityMessage is the client-facing reason for a capacity rejection.
const CapacityMessage = "Demand exceeds vehicle capacity."

// Sentinel errors for planning.
var (
	// ErrValidation indicates a malformed or incomplete solve request.
	ErrValidation = errors.New("invalid solve request")
	// ErrCapacityExceeded indicates a stop demand above the vehicle's capacity threshold.
	ErrCapacityExceeded = errors.New("demand exceeds vehicle capacity")
)

// Request is one solve request. Locations[0] is the depot; Demands is parallel to
// Locations.
type Request struct {
	Locations   []geo.Coordinate
	Demands     []float64
	VehicleType float64
}

// Stop is a validated request stop.
type Stop struct {
	Index    int
	Location geo.Coordinate
	Demand   float64
}

// Result is the outcome of a successful solve.
type Result struct {
	Summary *trip.Summary
	Profile fleet.Profile

	// Path is the road-following geometry through the stops; nil when PathAvailable
	// is false.
	Path          []geo.Coordinate
	PathAvailable bool

	// MatrixProvider names the strategy that produced the matrices.
	MatrixProvider string
}

// MatrixSource computes travel matrices for stops.
type MatrixSource interface {
	ComputeMatrices(ctx context.Context, stops []geo.Coordinate) (*routing.Matrices, error)
	TableProviderName() string
}

// PathSource renders road-following geometry.
type PathSource interface {
	RenderPath(ctx context.Context, stops []geo.Coordinate) ([]geo.Coordinate, error)
}
