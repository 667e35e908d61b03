// Package tracing provides the process tracer. Span export is configured by
// the deployment, not here; without an SDK the spans are no-ops.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const name = "civicportal"

// Start opens a span on the portal tracer.
func Start(ctx context.Context, spanName string) (context.Context, trace.Span) {
	return otel.Tracer(name).Start(ctx, spanName)
}
