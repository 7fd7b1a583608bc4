// Package routing defines the road-network facing side of route planning:
// travel matrices between stops and road-following path geometry.
package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/deliveryroute/deliveryroute/pkg/geo"
)

// Sentinel errors for routing operations.
var (
	// ErrUpstreamUnavailable indicates a routing or road-network service could not be
	// reached, timed out, or answered with a non-success status.
	ErrUpstreamUnavailable = errors.New("routing upstream unavailable")
	// ErrGeometry indicates a stop could not be associated with a usable network location,
	// or the network has no path between two stops.
	ErrGeometry = errors.New("stop cannot be matched to the road network")
	// ErrRateLimitExceeded indicates the upstream API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// TableProvider computes travel matrices between stops.
type TableProvider interface {
	// ComputeMatrices returns distance (meters) and duration (seconds) matrices indexed
	// identically to stops.
	ComputeMatrices(ctx context.Context, stops []geo.Coordinate) (*Matrices, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// PathProvider returns road-following geometry for an ordered stop sequence.
type PathProvider interface {
	// RoutePath returns the full-detail geometry connecting stops in order, as (lat, lon).
	RoutePath(ctx context.Context, stops []geo.Coordinate) ([]geo.Coordinate, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Error provides detailed error information from a routing provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying sentinel error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Provider + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Provider + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrUpstreamUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}

// Unavailable builds an upstream availability error for provider.
func Unavailable(provider, code, message string) *Error {
	return &Error{Provider: provider, Code: code, Message: message, Err: ErrUpstreamUnavailable}
}

// Unmatched builds a geometry error for provider.
func Unmatched(provider, code, message string) *Error {
	return &Error{Provider: provider, Code: code, Message: message, Err: ErrGeometry}
}

// ValidateStops checks every coordinate and returns an ErrInvalidCoordinates error
// naming the first offending stop.
func ValidateStops(provider string, stops []geo.Coordinate) error {
	for i, s := range stops {
		if err := s.Validate(); err != nil {
			return &Error{
				Provider: provider,
				Code:     "INVALID_COORDINATES",
				Message:  fmt.Sprintf("stop %d: %v", i, err),
				Err:      ErrInvalidCoordinates,
			}
		}
	}
	return nil
}
