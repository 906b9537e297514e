package monitoring

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "namespace-project-operator"

// Tracer is a noop tracer until a TracerProvider is registered.
var Tracer = otel.Tracer(tracerName)

// StartAdmissionSpan starts a span for one admission request.
func StartAdmissionSpan(ctx context.Context, operation, name string) (context.Context, trace.Span) {
	return Tracer.Start(ctx, "NamespaceProject.Admit",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("k8s.admission.operation", operation),
			attribute.String("k8s.namespace.name", name),
		),
	)
}

// StartReconcileSpan starts a span for one backfill reconciliation.
func StartReconcileSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return Tracer.Start(ctx, "NamespaceProject.Reconcile",
		trace.WithAttributes(attribute.String("k8s.namespace.name", name)),
	)
}

// EndSpan tags span with the decision outcome, records err if set and ends it.
func EndSpan(span trace.Span, outcome string, err error) {
	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
