package fleet

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_Resolve(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		code         float64
		wantCapacity float64
	}{
		{58.5, 10},
		{62, 10},
		{40, 15},
		{58, 15},
		{62.0001, 15},
		{0.5, 15},
	}

	for _, tt := range tests {
		p, err := r.Resolve(tt.code)
		require.NoError(t, err)
		assert.Equal(t, tt.wantCapacity, p.Capacity, "capacity for code %v", tt.code)
		assert.Equal(t, tt.code, p.Efficiency, "efficiency for code %v", tt.code)
		assert.Equal(t, tt.code, p.Code)
	}
}

func TestRegistry_Resolve_InvalidCode(t *testing.T) {
	r := DefaultRegistry()

	for _, code := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := r.Resolve(code)
		assert.ErrorIs(t, err, ErrInvalidVehicleType, "code %v", code)
	}
}

func TestNewRegistry_Validation(t *testing.T) {
	_, err := NewRegistry([]Reserved{{Code: 10, Capacity: 0}}, 15)
	assert.Error(t, err)

	_, err = NewRegistry([]Reserved{{Code: -3, Capacity: 5}}, 15)
	assert.ErrorIs(t, err, ErrInvalidVehicleType)

	_, err = NewRegistry([]Reserved{{Code: 10, Capacity: 5}, {Code: 10, Capacity: 6}}, 15)
	assert.Error(t, err)

	r, err := NewRegistry(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, StandardCapacity, r.DefaultCapacity())
}

func TestRegistry_ReservedSorted(t *testing.T) {
	reserved := DefaultRegistry().Reserved()
	require.Len(t, reserved, 2)
	assert.Equal(t, 58.5, reserved[0].Code)
	assert.Equal(t, 62.0, reserved[1].Code)
}

func TestParse(t *testing.T) {
	data := []byte(`
default_capacity: 20
reserved:
  - code: 3.5
    name: cargo-bike
    capacity: 2
  - code: 58.5
    name: small-van
    capacity: 10
`)

	r, err := Parse(data)
	require.NoError(t, err)

	p, err := r.Resolve(3.5)
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.Capacity)
	assert.Equal(t, "cargo-bike", p.Name)

	p, err = r.Resolve(62)
	require.NoError(t, err)
	assert.Equal(t, 20.0, p.Capacity)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("default_capacity: 15\nreserverd: []\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reserved:\n  - code: 62\n    capacity: 8\n"), 0o600))

	r, err := LoadFile(path)
	require.NoError(t, err)

	p, err := r.Resolve(62)
	require.NoError(t, err)
	assert.Equal(t, 8.0, p.Capacity)
	assert.Equal(t, StandardCapacity, r.DefaultCapacity())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
