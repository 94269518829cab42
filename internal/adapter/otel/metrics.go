package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "principal"

// Metrics holds all Principal metric instruments.
type Metrics struct {
	RequestsProcessed  metric.Int64Counter
	RequestsPublished  metric.Int64Counter
	RequestsRejected   metric.Int64Counter
	SpecialistFailures metric.Int64Counter
	Approvals          metric.Int64Counter
	QueueSaturated     metric.Int64Counter
	ProcessDuration    metric.Float64Histogram
	QualityScore       metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.RequestsProcessed, err = meter.Int64Counter("principal.requests.processed",
		metric.WithDescription("Number of requests processed"))
	if err != nil {
		return nil, err
	}

	m.RequestsPublished, err = meter.Int64Counter("principal.requests.published",
		metric.WithDescription("Number of responses approved for publication"))
	if err != nil {
		return nil, err
	}

	m.RequestsRejected, err = meter.Int64Counter("principal.requests.rejected",
		metric.WithDescription("Number of responses rejected"))
	if err != nil {
		return nil, err
	}

	m.SpecialistFailures, err = meter.Int64Counter("principal.specialist.failures",
		metric.WithDescription("Number of failed specialist calls"))
	if err != nil {
		return nil, err
	}

	m.Approvals, err = meter.Int64Counter("principal.specialist.approvals",
		metric.WithDescription("Number of specialist results approved for synthesis"))
	if err != nil {
		return nil, err
	}

	m.QueueSaturated, err = meter.Int64Counter("principal.queue.saturated",
		metric.WithDescription("Number of submissions refused because the dispatch queue was full"))
	if err != nil {
		return nil, err
	}

	m.ProcessDuration, err = meter.Float64Histogram("principal.process.duration_seconds",
		metric.WithDescription("Request processing time in seconds"))
	if err != nil {
		return nil, err
	}

	m.QualityScore, err = meter.Float64Histogram("principal.quality.score",
		metric.WithDescription("Overall quality score of assessed content"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
