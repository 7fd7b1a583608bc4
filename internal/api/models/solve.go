package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Number is a JSON number that also accepts a numeric string such as "40" or "58.5".
type Number float64

// UnmarshalJSON implements json.Unmarshaler for Number.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("%q is not a number", s)
		}
		*n = Number(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%s is not a number", data)
	}
	*n = Number(f)
	return nil
}

// SolveRequest is the body of POST /solve and POST /v1/routes:solve.
type SolveRequest struct {
	// Locations are [lat, lon] pairs; the first one is the depot.
	Locations [][]float64 `json:"locations"`

	// Demands are per-location quantities, parallel to Locations.
	Demands []Number `json:"demands"`

	// VehicleType selects the capacity threshold and is the fuel efficiency figure.
	VehicleType *Number `json:"vehicle_type"`
}

// LatLng is a stop position in the shape used by map clients.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RouteDetail is one leg of the solved route.
type RouteDetail struct {
	From            string  `json:"from"`
	To              string  `json:"to"`
	Distance        float64 `json:"distance"`
	Duration        float64 `json:"duration"`
	FuelConsumption float64 `json:"fuel_consumption"`
}

// SolveResponse is the body of a successful solve.
type SolveResponse struct {
	ID string `json:"id"`

	// Route is the road-following path as [lat, lon] pairs; omitted when path
	// geometry could not be fetched.
	Route [][]float64 `json:"route,omitempty"`

	Locations [][]float64 `json:"locations"`
	Order     []int       `json:"order"`

	// Routes holds the ordered stop points, one list per vehicle.
	Routes [][]LatLng `json:"routes"`

	RouteDetails         []RouteDetail `json:"route_details"`
	TotalDistance        float64       `json:"total_distance"`
	TotalDuration        float64       `json:"total_duration"`
	TotalFuelConsumption float64       `json:"total_fuel_consumption"`
	PathAvailable        bool          `json:"path_available"`
}

// VehicleProfile is one row of the active vehicle profile table.
type VehicleProfile struct {
	Code     float64 `json:"code"`
	Name     string  `json:"name,omitempty"`
	Capacity float64 `json:"capacity"`
}

// VehicleProfiles lists the reserved capacity thresholds and the default for every
// other vehicle type.
type VehicleProfiles struct {
	DefaultCapacity float64          `json:"default_capacity"`
	Reserved        []VehicleProfile `json:"reserved"`
}
