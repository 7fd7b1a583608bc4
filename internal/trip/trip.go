// Package trip turns a solved route into per-leg and total distance, duration and fuel
// figures.
package trip

import (
	"fmt"

	"github.com/deliveryroute/deliveryroute/internal/fleet"
	"github.com/deliveryroute/deliveryroute/internal/optimizer"
	"github.com/deliveryroute/deliveryroute/internal/routing"
	"github.com/deliveryroute/deliveryroute/pkg/geo"
)

// Leg is the travel between two consecutive stops of a route.
type Leg struct {
	From        string
	To          string
	FromIndex   int
	ToIndex     int
	DistanceKm  float64
	DurationMin float64
	Fuel        float64
}

// Summary is the display-ready result of one solve.
type Summary struct {
	Route            optimizer.Route
	Stops            []geo.Coordinate
	Legs             []Leg
	TotalDistanceKm  float64
	TotalDurationMin float64
	TotalFuel        float64
}

// Summarize walks route leg by leg. Distances are converted from meters to kilometers,
// durations from seconds to minutes, and fuel is distance divided by the profile's
// efficiency. Legs with zero distance and zero duration are dropped and do not count
// towards the totals.
func Summarize(route optimizer.Route, m *routing.Matrices, profile fleet.Profile, stops []geo.Coordinate) (*Summary, error) {
	if profile.Efficiency <= 0 {
		return nil, fmt.Errorf("profile efficiency must be positive, got %v", profile.Efficiency)
	}

	n := m.Size()
	s := &Summary{
		Route: route,
		Stops: stops,
		Legs:  make([]Leg, 0, len(route)),
	}

	for i := 0; i+1 < len(route); i++ {
		from, to := route[i], route[i+1]
		if from < 0 || from >= n || to < 0 || to >= n {
			return nil, fmt.Errorf("route leg %d->%d outside %d-stop matrix", from, to, n)
		}

		km := m.Distance(from, to) / 1000
		minutes := m.Duration(from, to) / 60
		if km == 0 && minutes == 0 {
			continue
		}

		leg := Leg{
			From:        Label(from),
			To:          Label(to),
			FromIndex:   from,
			ToIndex:     to,
			DistanceKm:  km,
			DurationMin: minutes,
			Fuel:        km / profile.Efficiency,
		}
		s.Legs = append(s.Legs, leg)
		s.TotalDistanceKm += leg.DistanceKm
		s.TotalDurationMin += leg.DurationMin
		s.TotalFuel += leg.Fuel
	}

	return s, nil
}

// Label renders a stop index as a letter: 0 is "A", 25 is "Z", 26 is "AA".
func Label(index int) string {
	if index < 0 {
		return ""
	}

	var buf [16]byte
	pos := len(buf)
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		pos--
		buf[pos] = byte('A' + (n-1)%26)
	}
	return string(buf[pos:])
}
