package osrm

// tableResponse is the OSRM table service response. Unreachable pairs are null.
type tableResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message,omitempty"`
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
	Sources   []waypoint   `json:"sources,omitempty"`
}

// routeResponse is the OSRM route service response requested with geojson geometries.
type routeResponse struct {
	Code    string     `json:"code"`
	Message string     `json:"message,omitempty"`
	Routes  []route    `json:"routes"`
	Points  []waypoint `json:"waypoints,omitempty"`
}

type route struct {
	Distance float64  `json:"distance"` // meters
	Duration float64  `json:"duration"` // seconds
	Geometry geometry `json:"geometry"`
}

// geometry is a GeoJSON LineString; coordinates are [lon, lat].
type geometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

// waypoint is a snapped input coordinate.
type waypoint struct {
	Name     string    `json:"name"`
	Location []float64 `json:"location"`
	Distance float64   `json:"distance"` // meters from the input coordinate to the snapped one
}

// errorResponse is returned with non-200 statuses.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OSRM response codes used for error mapping.
const (
	codeOk        = "Ok"
	codeNoRoute   = "NoRoute"
	codeNoSegment = "NoSegment"
	codeNoTable   = "NoTable"
)
