package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// UpstreamMetrics records calls to routing and road-network providers.
type UpstreamMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
}

// NewUpstreamMetrics creates the upstream call instruments on the global meter.
func NewUpstreamMetrics() (*UpstreamMetrics, error) {
	meter := otel.Meter(InstrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"upstream.request.duration",
		metric.WithDescription("Duration of routing upstream calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"upstream.request.total",
		metric.WithDescription("Total number of routing upstream calls"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &UpstreamMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}, nil
}

// Record records one upstream call. A nil receiver is a no-op.
func (m *UpstreamMetrics) Record(ctx context.Context, provider, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("upstream.provider", provider),
		attribute.String("upstream.operation", operation),
		attribute.Bool("error", err != nil),
	)

	// Detached so a cancelled request still gets its measurement.
	ctx = context.WithoutCancel(ctx)
	m.requestDuration.Record(ctx, duration.Seconds(), attrs)
	m.requestTotal.Add(ctx, 1, attrs)
}

// PipelineMetrics records the duration and outcome of route planning stages.
type PipelineMetrics struct {
	stageDuration metric.Float64Histogram
	solveTotal    metric.Int64Counter
	stopsPerSolve metric.Int64Histogram
}

// NewPipelineMetrics creates the planner instruments on the global meter.
func NewPipelineMetrics() (*PipelineMetrics, error) {
	meter := otel.Meter(InstrumentationName)

	stageDuration, err := meter.Float64Histogram(
		"planner.stage.duration",
		metric.WithDescription("Duration of route planning stages in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	solveTotal, err := meter.Int64Counter(
		"planner.solve.total",
		metric.WithDescription("Total number of solve requests by outcome"),
		metric.WithUnit("{solve}"),
	)
	if err != nil {
		return nil, err
	}

	stopsPerSolve, err := meter.Int64Histogram(
		"planner.solve.stops",
		metric.WithDescription("Number of stops per solve request, depot included"),
		metric.WithUnit("{stop}"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		stageDuration: stageDuration,
		solveTotal:    solveTotal,
		stopsPerSolve: stopsPerSolve,
	}, nil
}

// RecordStage records the duration of one pipeline stage. A nil receiver is a no-op.
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.stageDuration.Record(context.WithoutCancel(ctx), duration.Seconds(), metric.WithAttributes(
		attribute.String("planner.stage", stage),
		attribute.Bool("error", err != nil),
	))
}

// RecordSolve records a finished solve request. A nil receiver is a no-op.
func (m *PipelineMetrics) RecordSolve(ctx context.Context, stops int, outcome string) {
	if m == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	m.solveTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("planner.outcome", outcome)))
	m.stopsPerSolve.Record(ctx, int64(stops))
}
