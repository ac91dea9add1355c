package reporter

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/i2y/mcpboot/internal/domain"
	"github.com/i2y/mcpboot/internal/usecase"
)

// Reporter implements usecase.ErrorReporter. Each report is logged, recorded
// on the active span and counted.
type Reporter struct {
	logger *slog.Logger
	errors metric.Int64Counter
}

var _ usecase.ErrorReporter = (*Reporter)(nil)

// New creates a Reporter bound to meter.
func New(logger *slog.Logger, meter metric.Meter) (*Reporter, error) {
	counter, err := meter.Int64Counter(
		"mcp.tool.errors",
		metric.WithDescription("Number of reported tool call failures"),
	)
	if err != nil {
		return nil, err
	}
	return &Reporter{
		logger: logger.With("component", "error_reporter"),
		errors: counter,
	}, nil
}

// Report records err. A nil error is ignored.
func (r *Reporter) Report(ctx context.Context, err error) {
	if err == nil {
		return
	}
	kind := Kind(err)

	r.logger.ErrorContext(ctx, "Tool call failed.", slog.String("kind", kind), slog.Any("error", err))
	trace.SpanFromContext(ctx).RecordError(err, trace.WithAttributes(attribute.String("error.kind", kind)))
	r.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("error.kind", kind)))
}

// Kind classifies err for logs and metrics.
func Kind(err error) string {
	var mappingErr *domain.MappingError
	var invocationErr *domain.HandlerInvocationError
	switch {
	case errors.As(err, &mappingErr):
		return "mapping"
	case errors.As(err, &invocationErr):
		return "invocation"
	default:
		return "internal"
	}
}
