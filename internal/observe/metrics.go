// Package observe provides OpenTelemetry metric instruments for test sessions.
//
// Instruments are created from a [metric.MeterProvider]. The CLI installs an
// SDK provider with [InitProvider]; tests use [NewMetrics] with an sdkmetric
// ManualReader.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/verte-zerg/speechtasker"

// Metrics holds the metric instruments used by the matrix builder and the
// session driver. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// MatrixBuilds counts matrix builds by mode and status.
	MatrixBuilds metric.Int64Counter

	// TrialsPresented counts trial presentations, repeats included.
	// Use with attribute.Bool("repeat", ...).
	TrialsPresented metric.Int64Counter

	// TrialsScored counts scored trials by outcome.
	TrialsScored metric.Int64Counter

	// ResultErrors counts failed result writes.
	ResultErrors metric.Int64Counter

	// ResponseDuration tracks time from presentation to scoring.
	ResponseDuration metric.Float64Histogram
}

var responseBuckets = []float64{
	1, 2, 5, 10, 20, 30, 60, 120,
}

// NewMetrics creates the instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.MatrixBuilds, err = m.Int64Counter("speechtasker.matrix.builds",
		metric.WithDescription("Matrix builds by mode and status."),
	); err != nil {
		return nil, err
	}
	if met.TrialsPresented, err = m.Int64Counter("speechtasker.trials.presented",
		metric.WithDescription("Trial presentations, including repeats."),
	); err != nil {
		return nil, err
	}
	if met.TrialsScored, err = m.Int64Counter("speechtasker.trials.scored",
		metric.WithDescription("Scored trials by outcome."),
	); err != nil {
		return nil, err
	}
	if met.ResultErrors, err = m.Int64Counter("speechtasker.results.errors",
		metric.WithDescription("Result rows that could not be recorded."),
	); err != nil {
		return nil, err
	}
	if met.ResponseDuration, err = m.Float64Histogram("speechtasker.trial.response.duration",
		metric.WithDescription("Time from trial presentation to scoring."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(responseBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// RecordBuild counts a matrix build.
func (m *Metrics) RecordBuild(ctx context.Context, mode string, err error) {
	if m == nil {
		return
	}
	m.MatrixBuilds.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("status", status(err)),
	))
}

// RecordPresented counts a trial presentation.
func (m *Metrics) RecordPresented(ctx context.Context, repeat bool) {
	if m == nil {
		return
	}
	m.TrialsPresented.Add(ctx, 1, metric.WithAttributes(attribute.Bool("repeat", repeat)))
}

// RecordScored counts a scored trial and the time the operator took.
func (m *Metrics) RecordScored(ctx context.Context, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TrialsScored.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if elapsed > 0 {
		m.ResponseDuration.Record(ctx, elapsed.Seconds())
	}
}

// RecordResultError counts a failed result write.
func (m *Metrics) RecordResultError(ctx context.Context) {
	if m == nil {
		return
	}
	m.ResultErrors.Add(ctx, 1)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
