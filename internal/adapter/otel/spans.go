package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "principal"

// StartProcessSpan starts a span for processing one request.
func StartProcessSpan(ctx context.Context, requestID, requestType string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "process",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("request.type", requestType),
		),
	)
}

// StartSpecialistSpan starts a span for one specialist call within a request.
func StartSpecialistSpan(ctx context.Context, domain string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "specialist",
		trace.WithAttributes(attribute.String("specialist.domain", domain)),
	)
}

// StartSynthesisSpan starts a span for synthesis and final assessment.
func StartSynthesisSpan(ctx context.Context, approved int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "synthesis",
		trace.WithAttributes(attribute.Int("synthesis.approved", approved)),
	)
}
