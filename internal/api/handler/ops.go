// Package handler provides HTTP handlers for the route service API.
package handler

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/deliveryroute/deliveryroute/internal/api/models"
	"github.com/deliveryroute/deliveryroute/internal/api/response"
	"github.com/deliveryroute/deliveryroute/internal/provider/resilience"
)

// HealthSource reports the state of the upstream providers.
type HealthSource interface {
	All() []*resilience.Health
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	upstreams HealthSource
	now       func() time.Time
}

// NewOpsHandler creates a new OpsHandler. upstreams may be nil, in which case no
// providers are reported and readiness always succeeds.
func NewOpsHandler(version, buildTime string, upstreams HealthSource) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		upstreams: upstreams,
		now:       time.Now,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.NewTimestamp(h.now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. The service is not ready while any
// upstream circuit breaker is open, since every solve would fail fast.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	providers := h.providers()
	status := overallStatus(providers)

	health := models.Health{
		Status: status,
		Time:   models.NewTimestamp(h.now()),
	}

	code := http.StatusOK
	if status == models.HealthStatusFail {
		code = http.StatusServiceUnavailable
		open := make([]string, 0, len(providers))
		for _, p := range providers {
			if p.Status == models.HealthStatusFail {
				open = append(open, p.Provider)
			}
		}
		health.Details = map[string]any{"openCircuits": open}
	}

	response.JSON(w, r, code, health)
}

// SystemStatus handles GET /v1/ops/status - upstream provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	providers := h.providers()
	status := models.SystemStatus{
		Status:    overallStatus(providers),
		Time:      models.NewTimestamp(h.now()),
		Version:   h.version,
		BuildTime: h.buildTime,
		Providers: providers,
	}
	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) providers() []models.ProviderStatus {
	if h.upstreams == nil {
		return []models.ProviderStatus{}
	}

	all := h.upstreams.All()
	out := make([]models.ProviderStatus, 0, len(all))
	for _, u := range all {
		p := models.ProviderStatus{
			Provider:     u.Name,
			Status:       providerStatus(u),
			CircuitState: u.CircuitState.String(),
			Requests:     u.Counts.Requests,
			Failures:     u.Counts.ConsecutiveFailures,
		}
		if u.LastSuccessAt != nil {
			ts := models.NewTimestamp(*u.LastSuccessAt)
			p.LastSuccessAt = &ts
		}
		if u.LastFailureAt != nil {
			ts := models.NewTimestamp(*u.LastFailureAt)
			p.LastFailureAt = &ts
		}
		if u.LastError != "" {
			msg := u.LastError
			p.Message = &msg
		}
		out = append(out, p)
	}
	return out
}

func providerStatus(h *resilience.Health) models.HealthStatus {
	switch h.CircuitState {
	case gobreaker.StateOpen:
		return models.HealthStatusFail
	case gobreaker.StateHalfOpen:
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}

// overallStatus is the worst provider status.
func overallStatus(providers []models.ProviderStatus) models.HealthStatus {
	status := models.HealthStatusOK
	for _, p := range providers {
		switch p.Status {
		case models.HealthStatusFail:
			return models.HealthStatusFail
		case models.HealthStatusDegraded:
			status = models.HealthStatusDegraded
		}
	}
	return status
}
