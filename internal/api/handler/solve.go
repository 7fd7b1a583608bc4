package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/deliveryroute/deliveryroute/internal/api/middleware"
	"github.com/deliveryroute/deliveryroute/internal/api/models"
	"github.com/deliveryroute/deliveryroute/internal/api/response"
	"github.com/deliveryroute/deliveryroute/internal/fleet"
	"github.com/deliveryroute/deliveryroute/internal/optimizer"
	"github.com/deliveryroute/deliveryroute/internal/planner"
	"github.com/deliveryroute/deliveryroute/internal/routing"
	"github.com/deliveryroute/deliveryroute/pkg/geo"
)

// maxSolveBodyBytes bounds the solve request body.
const maxSolveBodyBytes = 1 << 20

// Planner plans a delivery route.
type Planner interface {
	Plan(ctx context.Context, req planner.Request) (*planner.Result, error)
}

// SolveHandler handles route solving endpoints.
type SolveHandler struct {
	planner  Planner
	profiles *fleet.Registry
	logger   zerolog.Logger
	timeout  time.Duration
}

// NewSolveHandler creates a new SolveHandler. profiles backs the vehicle profile
// listing and may be nil when that endpoint is not mounted.
func NewSolveHandler(p Planner, profiles *fleet.Registry, logger zerolog.Logger) *SolveHandler {
	return &SolveHandler{
		planner:  p,
		profiles: profiles,
		logger:   logger,
	}
}

// WithTimeout bounds each planner call to d. Zero leaves the request context as is.
func (h *SolveHandler) WithTimeout(d time.Duration) *SolveHandler {
	h.timeout = d
	return h
}

// Solve handles POST /solve and POST /v1/routes:solve.
func (h *SolveHandler) Solve(w http.ResponseWriter, r *http.Request) {
	var input models.SolveRequest
	body := http.MaxBytesReader(w, r.Body, maxSolveBodyBytes)
	if err := json.NewDecoder(body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body: "+err.Error(), nil)
		return
	}

	req, fieldErrors := toPlannerRequest(input)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "request body is incomplete or malformed", fieldErrors)
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.planner.Plan(ctx, req)
	if err != nil {
		h.writePlanError(w, r, err)
		return
	}

	resp := toSolveResponse(input.Locations, result)
	response.JSON(w, r, http.StatusOK, resp)
}

// VehicleProfiles handles GET /v1/vehicle-profiles.
func (h *SolveHandler) VehicleProfiles(w http.ResponseWriter, r *http.Request) {
	reserved := h.profiles.Reserved()
	out := models.VehicleProfiles{
		DefaultCapacity: h.profiles.DefaultCapacity(),
		Reserved:        make([]models.VehicleProfile, 0, len(reserved)),
	}
	for _, p := range reserved {
		out.Reserved = append(out.Reserved, models.VehicleProfile{
			Code:     p.Code,
			Name:     p.Name,
			Capacity: p.Capacity,
		})
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	response.JSON(w, r, http.StatusOK, out)
}

// writePlanError maps planner and provider errors to Problem responses.
func (h *SolveHandler) writePlanError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, planner.ErrCapacityExceeded):
		response.CapacityExceeded(w, r, planner.CapacityMessage)
	case errors.Is(err, planner.ErrValidation), errors.Is(err, routing.ErrInvalidCoordinates):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, optimizer.ErrInfeasible):
		response.Unprocessable(w, r, "no route visits every stop and returns to the depot")
	case errors.Is(err, routing.ErrGeometry):
		h.logUpstream(r, err)
		response.ServiceUnavailable(w, r, "a stop could not be matched to the road network")
	case errors.Is(err, routing.ErrRateLimitExceeded):
		h.logUpstream(r, err)
		w.Header().Set("Retry-After", "30")
		response.ServiceUnavailable(w, r, "routing provider rate limit reached, try again later")
	case errors.Is(err, routing.ErrUpstreamUnavailable):
		h.logUpstream(r, err)
		response.ServiceUnavailable(w, r, "routing provider unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logUpstream(r, err)
		response.ServiceUnavailable(w, r, "route computation did not finish in time")
	default:
		h.logger.Error().Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("solve failed")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}

func (h *SolveHandler) logUpstream(r *http.Request, err error) {
	h.logger.Warn().Err(err).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Msg("solve failed upstream")
}

// toPlannerRequest checks the request shape and converts it. Value checks such as
// coordinate ranges and demand signs are left to the planner.
func toPlannerRequest(in models.SolveRequest) (planner.Request, []models.FieldError) {
	var fieldErrors []models.FieldError

	if len(in.Locations) == 0 {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "locations", Message: "required", Code: "REQUIRED"})
	}
	if in.Demands == nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "demands", Message: "required", Code: "REQUIRED"})
	}
	if in.VehicleType == nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "vehicle_type", Message: "required", Code: "REQUIRED"})
	}

	locations := make([]geo.Coordinate, 0, len(in.Locations))
	for i, loc := range in.Locations {
		if len(loc) != 2 {
			fieldErrors = append(fieldErrors, models.FieldError{
				Field:   fmt.Sprintf("locations[%d]", i),
				Message: "must be a [latitude, longitude] pair",
				Code:    "INVALID_FORMAT",
			})
			continue
		}
		locations = append(locations, geo.Coordinate{Lat: loc[0], Lon: loc[1]})
	}

	if len(fieldErrors) > 0 {
		return planner.Request{}, fieldErrors
	}

	demands := make([]float64, len(in.Demands))
	for i, d := range in.Demands {
		demands[i] = float64(d)
	}

	return planner.Request{
		Locations:   locations,
		Demands:     demands,
		VehicleType: float64(*in.VehicleType),
	}, nil
}

func toSolveResponse(locations [][]float64, result *planner.Result) models.SolveResponse {
	summary := result.Summary

	resp := models.SolveResponse{
		ID:                   "sol_" + uuid.NewString(),
		Locations:            locations,
		Order:                []int(summary.Route),
		RouteDetails:         make([]models.RouteDetail, 0, len(summary.Legs)),
		TotalDistance:        summary.TotalDistanceKm,
		TotalDuration:        summary.TotalDurationMin,
		TotalFuelConsumption: summary.TotalFuel,
		PathAvailable:        result.PathAvailable,
	}

	if result.PathAvailable {
		resp.Route = make([][]float64, 0, len(result.Path))
		for _, c := range result.Path {
			resp.Route = append(resp.Route, []float64{c.Lat, c.Lon})
		}
	}

	stops := make([]models.LatLng, 0, len(summary.Route))
	for _, idx := range summary.Route {
		c := summary.Stops[idx]
		stops = append(stops, models.LatLng{Latitude: c.Lat, Longitude: c.Lon})
	}
	resp.Routes = [][]models.LatLng{stops}

	for _, leg := range summary.Legs {
		resp.RouteDetails = append(resp.RouteDetails, models.RouteDetail{
			From:            leg.From,
			To:              leg.To,
			Distance:        leg.DistanceKm,
			Duration:        leg.DurationMin,
			FuelConsumption: leg.Fuel,
		})
	}

	return resp
}
