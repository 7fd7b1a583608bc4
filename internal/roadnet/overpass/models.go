package overpass

// response is the Overpass JSON output for an "out body" query.
type response struct {
	Version   float64   `json:"version"`
	Generator string    `json:"generator"`
	Remark    string    `json:"remark,omitempty"`
	Elements  []element `json:"elements"`
}

// element is a node or way in the Overpass output.
type element struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat,omitempty"`
	Lon   float64           `json:"lon,omitempty"`
	Nodes []int64           `json:"nodes,omitempty"`
	Tags  map[string]string `json:"tags,omitempty"`
}

const (
	elementNode = "node"
	elementWay  = "way"
)

// drivableHighways are the highway classes a delivery vehicle may use.
const drivableHighways = "^(motorway|trunk|primary|secondary|tertiary|unclassified|residential|" +
	"motorway_link|trunk_link|primary_link|secondary_link|tertiary_link|living_street|road)$"
