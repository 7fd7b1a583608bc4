package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deliveryroute/deliveryroute/internal/api/models"
)

func TestNumber_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{`40`, 40, false},
		{`58.5`, 58.5, false},
		{`"62"`, 62, false},
		{`" 58.5"`, 0, true},
		{`"forty"`, 0, true},
		{`true`, 0, true},
		{`[1]`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var n models.Number
			err := json.Unmarshal([]byte(tt.input), &n)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, float64(n), 0)
		})
	}
}

func TestSolveRequest_Decode(t *testing.T) {
	body := `{
		"locations": [[-6.877339, 107.5765], [-6.9, 107.6]],
		"demands": [0, "3"],
		"vehicle_type": "40"
	}`

	var req models.SolveRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	require.Len(t, req.Locations, 2)
	assert.Equal(t, []float64{-6.877339, 107.5765}, req.Locations[0])
	assert.Equal(t, []models.Number{0, 3}, req.Demands)
	require.NotNil(t, req.VehicleType)
	assert.InDelta(t, 40, float64(*req.VehicleType), 0)
}

func TestSolveResponse_OmitsRouteWhenPathMissing(t *testing.T) {
	resp := models.SolveResponse{
		ID:           "sol_1",
		Locations:    [][]float64{{1, 2}},
		Order:        []int{0, 0},
		Routes:       [][]models.LatLng{{{Latitude: 1, Longitude: 2}}},
		RouteDetails: []models.RouteDetail{},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "route")
	assert.Equal(t, false, raw["path_available"])
	assert.Contains(t, raw, "route_details")
}

func TestTimestamp_JSON(t *testing.T) {
	ts := models.NewTimestamp(time.Date(2024, 3, 1, 12, 30, 15, 999, time.FixedZone("X", 3600)))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-01T11:30:15Z"`, string(data))

	var back models.Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, ts.Time().Equal(back.Time()))

	assert.Error(t, json.Unmarshal([]byte(`12`), &back))
}
