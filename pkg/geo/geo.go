// Package geo provides coordinate math shared by the routing providers:
// great-circle distance, bounding boxes around a point and polyline codecs.
package geo

import (
	"fmt"
	"math"
)

const earthRadiusMeters = 6371009

// Coordinate represents a geographic point in degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Validate checks that the coordinate is finite and within WGS84 ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return fmt.Errorf("coordinate (%f, %f) is not finite", c.Lat, c.Lon)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", c.Lon)
	}
	return nil
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(math.Min(1, h)))
}

// BoundingBox is a latitude/longitude aligned box.
type BoundingBox struct {
	South float64
	West  float64
	North float64
	East  float64
}

// BoxAround returns the box extending distMeters north, south, east and west of center.
func BoxAround(center Coordinate, distMeters float64) BoundingBox {
	deltaLat := (distMeters / earthRadiusMeters) * 180 / math.Pi
	deltaLon := (distMeters / (earthRadiusMeters * math.Cos(center.Lat*math.Pi/180))) * 180 / math.Pi

	return BoundingBox{
		South: center.Lat - deltaLat,
		West:  center.Lon - deltaLon,
		North: center.Lat + deltaLat,
		East:  center.Lon + deltaLon,
	}
}

// Contains reports whether c lies inside the box, edges included.
func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Lat >= b.South && c.Lat <= b.North && c.Lon >= b.West && c.Lon <= b.East
}
