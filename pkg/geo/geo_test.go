package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Coordinate
		expected float64
		delta    float64
	}{
		{
			name:     "same point",
			a:        Coordinate{Lat: -6.8773, Lon: 107.5765},
			b:        Coordinate{Lat: -6.8773, Lon: 107.5765},
			expected: 0,
			delta:    0.001,
		},
		{
			name:     "one degree of latitude",
			a:        Coordinate{Lat: 0, Lon: 0},
			b:        Coordinate{Lat: 1, Lon: 0},
			expected: 111195,
			delta:    1,
		},
		{
			name:     "symmetric",
			a:        Coordinate{Lat: 1, Lon: 0},
			b:        Coordinate{Lat: 0, Lon: 0},
			expected: 111195,
			delta:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.expected) > tt.delta {
				t.Errorf("expected %.2f, got %.2f", tt.expected, got)
			}
		})
	}
}

func TestBoxAround(t *testing.T) {
	center := Coordinate{Lat: -6.8773, Lon: 107.5765}
	box := BoxAround(center, 5000)

	if !box.Contains(center) {
		t.Fatal("expected box to contain its center")
	}

	north := Distance(center, Coordinate{Lat: box.North, Lon: center.Lon})
	if math.Abs(north-5000) > 1 {
		t.Errorf("expected north edge 5000m away, got %.2f", north)
	}

	east := Distance(center, Coordinate{Lat: center.Lat, Lon: box.East})
	if math.Abs(east-5000) > 5 {
		t.Errorf("expected east edge about 5000m away, got %.2f", east)
	}

	if box.Contains(Coordinate{Lat: center.Lat + 1, Lon: center.Lon}) {
		t.Error("expected point one degree north to be outside the box")
	}
}

func TestCoordinate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       Coordinate
		wantErr bool
	}{
		{name: "valid", c: Coordinate{Lat: 52.37, Lon: 4.90}},
		{name: "latitude too high", c: Coordinate{Lat: 91, Lon: 0}, wantErr: true},
		{name: "longitude too low", c: Coordinate{Lat: 0, Lon: -181}, wantErr: true},
		{name: "not a number", c: Coordinate{Lat: math.NaN(), Lon: 0}, wantErr: true},
		{name: "infinite", c: Coordinate{Lat: 0, Lon: math.Inf(1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
