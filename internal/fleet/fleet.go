// Package fleet resolves numeric vehicle-type codes to vehicle profiles: the capacity
// threshold that bounds per-stop demand and the fuel-efficiency figure.
package fleet

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidVehicleType indicates a vehicle-type code that is not a positive finite number.
var ErrInvalidVehicleType = errors.New("vehicle type must be a positive number")

// Capacity thresholds of the built-in profile table.
const (
	ReducedCapacity  = 10.0
	StandardCapacity = 15.0
)

// Profile describes a vehicle for one solve request.
type Profile struct {
	// Code is the vehicle-type value supplied by the client.
	Code float64 `json:"code"`
	// Name labels reserved profiles; empty for the standard profile.
	Name string `json:"name,omitempty"`
	// Capacity is the maximum demand any single stop may carry.
	Capacity float64 `json:"capacity"`
	// Efficiency is distance per unit fuel, in the same units as Code.
	Efficiency float64 `json:"efficiency"`
}

// Reserved is a vehicle-type code with its own capacity threshold.
type Reserved struct {
	Code     float64 `yaml:"code"`
	Name     string  `yaml:"name"`
	Capacity float64 `yaml:"capacity"`
}

// Registry is a closed table of reserved codes plus a default capacity for every other
// code. It is read-only after construction.
type Registry struct {
	reserved        map[float64]Reserved
	defaultCapacity float64
}

// DefaultReserved returns the built-in reserved codes: 58.5 and 62 carry the reduced
// capacity.
func DefaultReserved() []Reserved {
	return []Reserved{
		{Code: 58.5, Name: "reduced-58.5", Capacity: ReducedCapacity},
		{Code: 62, Name: "reduced-62", Capacity: ReducedCapacity},
	}
}

// NewRegistry builds a registry. A non-positive default capacity falls back to
// StandardCapacity.
func NewRegistry(reserved []Reserved, defaultCapacity float64) (*Registry, error) {
	if defaultCapacity <= 0 {
		defaultCapacity = StandardCapacity
	}

	r := &Registry{
		reserved:        make(map[float64]Reserved, len(reserved)),
		defaultCapacity: defaultCapacity,
	}
	for _, res := range reserved {
		if err := validateCode(res.Code); err != nil {
			return nil, fmt.Errorf("reserved profile %q: %w", res.Name, err)
		}
		if res.Capacity <= 0 || math.IsInf(res.Capacity, 0) || math.IsNaN(res.Capacity) {
			return nil, fmt.Errorf("reserved profile %q: capacity must be positive, got %v", res.Name, res.Capacity)
		}
		if _, dup := r.reserved[res.Code]; dup {
			return nil, fmt.Errorf("reserved profile code %v listed twice", res.Code)
		}
		r.reserved[res.Code] = res
	}
	return r, nil
}

// DefaultRegistry returns the built-in profile table.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultReserved(), StandardCapacity)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the profile for a vehicle-type code. The efficiency figure equals the
// code itself.
func (r *Registry) Resolve(code float64) (Profile, error) {
	if err := validateCode(code); err != nil {
		return Profile{}, err
	}

	p := Profile{Code: code, Capacity: r.defaultCapacity, Efficiency: code}
	if res, ok := r.reserved[code]; ok {
		p.Name = res.Name
		p.Capacity = res.Capacity
	}
	return p, nil
}

// DefaultCapacity returns the capacity of codes not in the reserved table.
func (r *Registry) DefaultCapacity() float64 {
	return r.defaultCapacity
}

// Reserved returns the reserved codes ordered by code.
func (r *Registry) Reserved() []Reserved {
	out := make([]Reserved, 0, len(r.reserved))
	for _, res := range r.reserved {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func validateCode(code float64) error {
	if math.IsNaN(code) || math.IsInf(code, 0) || code <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidVehicleType, code)
	}
	return nil
}
