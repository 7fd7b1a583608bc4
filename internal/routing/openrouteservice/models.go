package openrouteservice

// matrixRequest represents the ORS matrix API request body.
type matrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Metrics   []string    `json:"metrics"`
	Units     string      `json:"units"`
}

// matrixResponse represents the ORS matrix API response.
// Unreachable pairs are reported as null.
type matrixResponse struct {
	Distances    [][]*float64 `json:"distances"`
	Durations    [][]*float64 `json:"durations"`
	Destinations []snapped    `json:"destinations,omitempty"`
	Sources      []snapped    `json:"sources,omitempty"`
	Metadata     *metadata    `json:"metadata,omitempty"`
}

// snapped is a location after snapping to the road network.
type snapped struct {
	Location        []float64 `json:"location"`
	SnappedDistance float64   `json:"snapped_distance,omitempty"`
}

// directionsRequest represents the ORS directions API request body.
type directionsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Instructions bool        `json:"instructions"`
	Geometry     bool        `json:"geometry"`
	Units        string      `json:"units"`
}

// directionsResponse represents the ORS directions API response.
type directionsResponse struct {
	Routes   []orsRoute `json:"routes"`
	BBox     []float64  `json:"bbox,omitempty"`
	Metadata *metadata  `json:"metadata,omitempty"`
}

// metadata contains response metadata.
type metadata struct {
	Attribution string `json:"attribution,omitempty"`
	Service     string `json:"service,omitempty"`
	Timestamp   int64  `json:"timestamp,omitempty"`
}

// orsRoute represents a single route in the ORS response.
type orsRoute struct {
	Summary   routeSummary `json:"summary"`
	Geometry  string       `json:"geometry"` // Encoded polyline, precision 5
	WayPoints []int        `json:"way_points,omitempty"`
}

// routeSummary contains summary information for a route.
type routeSummary struct {
	Distance float64 `json:"distance"` // Distance in meters
	Duration float64 `json:"duration"` // Duration in seconds
}

// orsErrorResponse represents an error response from ORS.
type orsErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Info string `json:"info,omitempty"`
}

// ORS error codes for error mapping.
const (
	orsErrorCodeInvalidParam    = 2003 // Invalid parameter value
	orsErrorCodeRouteNotFound   = 2009 // Route not found
	orsErrorCodePointNotFound   = 2010 // Point not found (cannot snap to a road)
	orsErrorCodeMatrixPointMiss = 6010 // Matrix point not found
)
