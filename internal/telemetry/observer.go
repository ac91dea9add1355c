package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/i2y/mcpboot/internal/usecase"
)

// ToolObserver records tool invocation counts and latency.
type ToolObserver struct {
	invocations metric.Int64Counter
	latency     metric.Float64Histogram
}

var _ usecase.InvocationObserver = (*ToolObserver)(nil)

// NewToolObserver creates a tool observer bound to the provided meter.
func NewToolObserver(meter metric.Meter) (*ToolObserver, error) {
	invocations, err := meter.Int64Counter(
		"mcp.tool.invocations",
		metric.WithDescription("Number of tool invocations"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"mcp.tool.latency",
		metric.WithDescription("Tool latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	return &ToolObserver{invocations: invocations, latency: latency}, nil
}

// ObserveInvoke records one invocation result.
func (o *ToolObserver) ObserveInvoke(ctx context.Context, toolName string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	options := metric.WithAttributes(
		attribute.String("tool_name", toolName),
		attribute.Bool("success", err == nil),
	)
	o.invocations.Add(ctx, 1, options)
	o.latency.Record(ctx, duration.Seconds(), options)
}
