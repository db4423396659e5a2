package httpapi

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/futboss/internal/platform/tracing"
)

// Only handlers get child spans; middleware and helpers share the request span.
var apiTracer = tracing.New("futboss/internal/interfaces/httpapi", tracing.WithPrefix("httpapi.Handler."))

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return apiTracer.Start(ctx, name)
}
