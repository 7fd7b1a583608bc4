package models

import (
	"encoding/json"
	"net/http"
)

// Problem represents an RFC7807 error response, written with Content-Type
// application/problem+json.
//
// Error repeats Detail for clients that only read a flat {"error": "..."} body.
type Problem struct {
	// Type is a URI reference that identifies the problem type.
	Type string `json:"type"`

	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`

	// Status is the HTTP status code for this occurrence of the problem.
	Status int `json:"status"`

	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail,omitempty"`

	// Instance is a URI reference that identifies the specific occurrence.
	Instance string `json:"instance,omitempty"`

	// TraceID is the request trace identifier for debugging.
	TraceID string `json:"traceId"`

	// Error mirrors Detail.
	Error string `json:"error,omitempty"`

	// Errors contains structured field validation errors.
	Errors []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ProblemType constants for the error types the API returns.
const (
	ProblemTypeValidation           = "https://deliveryroute.dev/problems/validation-error"
	ProblemTypeCapacityExceeded     = "https://deliveryroute.dev/problems/capacity-exceeded"
	ProblemTypeUnsupportedMediaType = "https://deliveryroute.dev/problems/unsupported-media-type"
	ProblemTypeNotFound             = "https://deliveryroute.dev/problems/not-found"
	ProblemTypeMethodNotAllowed     = "https://deliveryroute.dev/problems/method-not-allowed"
	ProblemTypeInfeasible           = "https://deliveryroute.dev/problems/no-feasible-route"
	ProblemTypeTooManyRequests      = "https://deliveryroute.dev/problems/too-many-requests"
	ProblemTypeInternal             = "https://deliveryroute.dev/problems/internal-error"
	ProblemTypeUnavailable          = "https://deliveryroute.dev/problems/service-unavailable"
)

// NewProblem creates a new Problem with the given parameters.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

// WithDetail sets the detail message and its legacy error mirror.
func (p *Problem) WithDetail(detail string) *Problem {
	p.Detail = detail
	p.Error = detail
	return p
}

// WithInstance adds the request instance URI to the Problem.
func (p *Problem) WithInstance(instance string) *Problem {
	p.Instance = instance
	return p
}

// WithErrors adds field errors to the Problem.
func (p *Problem) WithErrors(errors []FieldError) *Problem {
	p.Errors = errors
	return p
}

// Write writes the Problem as JSON to the ResponseWriter.
func (p *Problem) Write(w http.ResponseWriter) {
	if p.Error == "" {
		p.Error = p.Detail
	}
	w.Header().Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		w.Header().Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest creates a 400 Bad Request problem.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	return NewProblem(ProblemTypeValidation, "Validation error", http.StatusBadRequest, traceID).
		WithDetail(detail).
		WithErrors(errors)
}

// NewCapacityExceeded creates a 400 problem for a demand above the vehicle capacity.
func NewCapacityExceeded(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeCapacityExceeded, "Capacity exceeded", http.StatusBadRequest, traceID).
		WithDetail(detail)
}

// NewUnsupportedMediaType creates a 415 Unsupported Media Type problem.
func NewUnsupportedMediaType(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeUnsupportedMediaType, "Unsupported media type", http.StatusUnsupportedMediaType, traceID).
		WithDetail(detail)
}

// NewNotFound creates a 404 Not Found problem.
func NewNotFound(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeNotFound, "Not found", http.StatusNotFound, traceID).
		WithDetail(detail)
}

// NewMethodNotAllowed creates a 405 Method Not Allowed problem.
func NewMethodNotAllowed(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeMethodNotAllowed, "Method not allowed", http.StatusMethodNotAllowed, traceID).
		WithDetail(detail)
}

// NewUnprocessable creates a 422 problem for a request no route can satisfy.
func NewUnprocessable(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeInfeasible, "No feasible route", http.StatusUnprocessableEntity, traceID).
		WithDetail(detail)
}

// NewTooManyRequests creates a 429 Too Many Requests problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests, traceID).
		WithDetail(detail)
}

// NewInternalError creates a 500 Internal Server Error problem.
func NewInternalError(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeInternal, "Internal server error", http.StatusInternalServerError, traceID).
		WithDetail(detail)
}

// NewServiceUnavailable creates a 503 Service Unavailable problem.
func NewServiceUnavailable(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeUnavailable, "Service unavailable", http.StatusServiceUnavailable, traceID).
		WithDetail(detail)
}
