package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

var meter = otel.Meter("tax-agent")

// UploadMetrics counts registry outcomes and tax computations.
// A nil *UploadMetrics records nothing.
type UploadMetrics struct {
	processedCounter    metric.Int64Counter
	skippedCounter      metric.Int64Counter
	erroredCounter      metric.Int64Counter
	computationsCounter metric.Int64Counter
	computeDuration     metric.Float64Histogram
}

// NewUploadMetrics registers the instruments on the global meter provider
func NewUploadMetrics() (*UploadMetrics, error) {
	processed, err := meter.Int64Counter(
		"tax_agent.uploads.processed",
		metric.WithDescription("Documents accepted into the registry"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		return nil, err
	}

	skipped, err := meter.Int64Counter(
		"tax_agent.uploads.skipped",
		metric.WithDescription("Documents skipped because the registry already holds them"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		return nil, err
	}

	errored, err := meter.Int64Counter(
		"tax_agent.uploads.errored",
		metric.WithDescription("Documents that could not be processed"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		return nil, err
	}

	computations, err := meter.Int64Counter(
		"tax_agent.computations",
		metric.WithDescription("Tax computations run"),
		metric.WithUnit("{computation}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"tax_agent.computation.duration",
		metric.WithDescription("Duration of tax computation including form rendering"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &UploadMetrics{
		processedCounter:    processed,
		skippedCounter:      skipped,
		erroredCounter:      errored,
		computationsCounter: computations,
		computeDuration:     duration,
	}, nil
}

// RecordOutcome counts one upload outcome under its kind
func (m *UploadMetrics) RecordOutcome(ctx context.Context, outcome entity.UploadOutcome) {
	if m == nil {
		return
	}
	switch outcome.Kind {
	case entity.OutcomeProcessed:
		m.processedCounter.Add(ctx, 1)
	case entity.OutcomeSkipped:
		m.skippedCounter.Add(ctx, 1,
			metric.WithAttributes(attribute.String("reason", outcome.Reason)),
		)
	case entity.OutcomeErrored:
		m.erroredCounter.Add(ctx, 1)
	}
}

// RecordComputation counts a computation run
func (m *UploadMetrics) RecordComputation(ctx context.Context, status entity.FilingStatus, formGenerated bool, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("filing_status", status.String()),
		attribute.Bool("form_generated", formGenerated),
	)
	m.computationsCounter.Add(ctx, 1, attrs)
	m.computeDuration.Record(ctx, duration.Seconds(), attrs)
}
