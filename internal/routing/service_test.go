package routing

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/deliveryroute/deliveryroute/pkg/geo"
)

// mockTable is a mock matrix provider for testing.
type mockTable struct {
	name      string
	matrices  *Matrices
	err       error
	callCount atomic.Int32
	delay     time.Duration
}

func (m *mockTable) ComputeMatrices(ctx context.Context, _ []geo.Coordinate) (*Matrices, error) {
	m.callCount.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.matrices, nil
}

func (m *mockTable) Name() string {
	return m.name
}

// mockPath is a mock path provider for testing.
type mockPath struct {
	path      []geo.Coordinate
	err       error
	callCount atomic.Int32
}

func (m *mockPath) RoutePath(_ context.Context, _ []geo.Coordinate) ([]geo.Coordinate, error) {
	m.callCount.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.path, nil
}

func (m *mockPath) Name() string {
	return "mock-path"
}

var twoStops = []geo.Coordinate{
	{Lat: 52.3676, Lon: 4.9041},
	{Lat: 52.0907, Lon: 5.1214},
}

func validMatrices() *Matrices {
	return &Matrices{
		Distances: [][]float64{{0, 41000}, {40500, 0}},
		Durations: [][]float64{{0, 2460}, {2400, 0}},
	}
}

func TestService_ComputeMatrices_Success(t *testing.T) {
	table := &mockTable{name: "test-provider", matrices: validMatrices()}
	service := NewService(ServiceConfig{Table: table, Logger: zerolog.Nop()})

	m, err := service.ComputeMatrices(context.Background(), twoStops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if table.callCount.Load() != 1 {
		t.Errorf("expected 1 provider call, got %d", table.callCount.Load())
	}
	if m.Distance(0, 1) != 41000 {
		t.Errorf("expected distance 41000, got %f", m.Distance(0, 1))
	}
}

func TestService_ComputeMatrices_NoCaching(t *testing.T) {
	table := &mockTable{name: "test-provider", matrices: validMatrices()}
	service := NewService(ServiceConfig{Table: table, Logger: zerolog.Nop()})

	for i := 0; i < 3; i++ {
		if _, err := service.ComputeMatrices(context.Background(), twoStops); err != nil {
			t.Fatalf("unexpected error on call %d: %v", i, err)
		}
	}

	if table.callCount.Load() != 3 {
		t.Errorf("expected every call to reach the provider, got %d calls", table.callCount.Load())
	}
}

func TestService_ComputeMatrices_InvalidCoordinates(t *testing.T) {
	tests := []struct {
		name  string
		stops []geo.Coordinate
	}{
		{
			name:  "latitude out of range",
			stops: []geo.Coordinate{{Lat: 91, Lon: 4.9}, {Lat: 52, Lon: 5}},
		},
		{
			name:  "longitude out of range",
			stops: []geo.Coordinate{{Lat: 52, Lon: 4.9}, {Lat: 52, Lon: -181}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &mockTable{name: "test-provider", matrices: validMatrices()}
			service := NewService(ServiceConfig{Table: table, Logger: zerolog.Nop()})

			_, err := service.ComputeMatrices(context.Background(), tt.stops)
			if !errors.Is(err, ErrInvalidCoordinates) {
				t.Errorf("expected ErrInvalidCoordinates, got %v", err)
			}
			if table.callCount.Load() != 0 {
				t.Errorf("expected no provider call, got %d", table.callCount.Load())
			}
		})
	}
}

func TestService_ComputeMatrices_ErrorNormalization(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{
			name:    "sentinel passes through",
			err:     Unmatched("test-provider", "UNREACHABLE", "no route"),
			wantErr: ErrGeometry,
		},
		{
			name:    "rate limit passes through",
			err:     &Error{Provider: "test-provider", Code: "RATE_LIMIT", Err: ErrRateLimitExceeded},
			wantErr: ErrRateLimitExceeded,
		},
		{
			name:    "unknown error becomes unavailable",
			err:     errors.New("connection reset by peer"),
			wantErr: ErrUpstreamUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &mockTable{name: "test-provider", err: tt.err}
			service := NewService(ServiceConfig{Table: table, Logger: zerolog.Nop()})

			_, err := service.ComputeMatrices(context.Background(), twoStops)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestService_ComputeMatrices_Timeout(t *testing.T) {
	table := &mockTable{name: "slow-provider", matrices: validMatrices(), delay: time.Second}
	service := NewService(ServiceConfig{
		Table:   table,
		Timeout: 20 * time.Millisecond,
		Logger:  zerolog.Nop(),
	})

	_, err := service.ComputeMatrices(context.Background(), twoStops)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}

	var routingErr *Error
	if !errors.As(err, &routingErr) || routingErr.Code != "TIMEOUT" {
		t.Errorf("expected TIMEOUT code, got %v", err)
	}
}

func TestService_ComputeMatrices_TableTimeout(t *testing.T) {
	table := &mockTable{name: "fetching-provider", matrices: validMatrices(), delay: 60 * time.Millisecond}
	service := NewService(ServiceConfig{
		Table:        table,
		Timeout:      20 * time.Millisecond,
		TableTimeout: 2 * time.Second,
		Logger:       zerolog.Nop(),
	})

	m, err := service.ComputeMatrices(context.Background(), twoStops)
	if err != nil {
		t.Fatalf("table deadline should cover the slow provider: %v", err)
	}
	if m.Distances[0][1] != 41000 {
		t.Errorf("unexpected distance %v", m.Distances[0][1])
	}
}

func TestService_ComputeMatrices_RejectsMalformedTable(t *testing.T) {
	tests := []struct {
		name     string
		matrices *Matrices
	}{
		{
			name: "wrong shape",
			matrices: &Matrices{
				Distances: [][]float64{{0}},
				Durations: [][]float64{{0}},
			},
		},
		{
			name: "negative entry",
			matrices: &Matrices{
				Distances: [][]float64{{0, -1}, {1, 0}},
				Durations: [][]float64{{0, 1}, {1, 0}},
			},
		},
		{
			name: "non-zero diagonal",
			matrices: &Matrices{
				Distances: [][]float64{{0, 1}, {1, 0}},
				Durations: [][]float64{{3, 1}, {1, 0}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &mockTable{name: "test-provider", matrices: tt.matrices}
			service := NewService(ServiceConfig{Table: table, Logger: zerolog.Nop()})

			_, err := service.ComputeMatrices(context.Background(), twoStops)
			if !errors.Is(err, ErrUpstreamUnavailable) {
				t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
			}
		})
	}
}

func TestService_RenderPath(t *testing.T) {
	path := &mockPath{path: []geo.Coordinate{twoStops[0], {Lat: 52.2, Lon: 5.0}, twoStops[1]}}
	service := NewService(ServiceConfig{
		Table:  &mockTable{name: "test-provider"},
		Path:   path,
		Logger: zerolog.Nop(),
	})

	got, err := service.RenderPath(context.Background(), twoStops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 points, got %d", len(got))
	}
}

func TestService_RenderPath_Errors(t *testing.T) {
	t.Run("no path provider", func(t *testing.T) {
		service := NewService(ServiceConfig{Table: &mockTable{name: "t"}, Logger: zerolog.Nop()})
		_, err := service.RenderPath(context.Background(), twoStops)
		if !errors.Is(err, ErrUpstreamUnavailable) {
			t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
		}
	})

	t.Run("single stop", func(t *testing.T) {
		path := &mockPath{}
		service := NewService(ServiceConfig{Table: &mockTable{name: "t"}, Path: path, Logger: zerolog.Nop()})
		_, err := service.RenderPath(context.Background(), twoStops[:1])
		if !errors.Is(err, ErrInvalidCoordinates) {
			t.Errorf("expected ErrInvalidCoordinates, got %v", err)
		}
		if path.callCount.Load() != 0 {
			t.Errorf("expected no provider call, got %d", path.callCount.Load())
		}
	})

	t.Run("provider failure", func(t *testing.T) {
		path := &mockPath{err: errors.New("boom")}
		service := NewService(ServiceConfig{Table: &mockTable{name: "t"}, Path: path, Logger: zerolog.Nop()})
		_, err := service.RenderPath(context.Background(), twoStops)
		if !errors.Is(err, ErrUpstreamUnavailable) {
			t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
		}
	})
}

func TestError_IsRetryable(t *testing.T) {
	tests := []struct {
		err  *Error
		want bool
	}{
		{Unavailable("p", "HTTP_503", "down"), true},
		{&Error{Provider: "p", Err: ErrRateLimitExceeded}, true},
		{Unmatched("p", "NoRoute", "no route"), false},
		{&Error{Provider: "p", Err: ErrInvalidCoordinates}, false},
	}

	for _, tt := range tests {
		if got := tt.err.IsRetryable(); got != tt.want {
			t.Errorf("%v: IsRetryable() = %v, want %v", tt.err, got, tt.want)
		}
	}
}
