package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/i2y/mcpboot/internal/domain"
)

// InvocationObserver records the outcome of tool invocations.
type InvocationObserver interface {
	ObserveInvoke(ctx context.Context, toolName string, duration time.Duration, err error)
}

// InvokeToolUseCase handles receiving a tool invocation request and executing it.
type InvokeToolUseCase struct {
	registry ToolRegistry
	tracer   trace.Tracer
	observer InvocationObserver
	logger   *slog.Logger
}

// NewInvokeToolUseCase creates a new InvokeToolUseCase.
func NewInvokeToolUseCase(registry ToolRegistry, tracer trace.Tracer, observer InvocationObserver, logger *slog.Logger) *InvokeToolUseCase {
	return &InvokeToolUseCase{
		registry: registry,
		tracer:   tracer,
		observer: observer,
		logger:   logger.With("usecase", "InvokeTool"),
	}
}

// Execute finds the tool and runs its handler with the raw call arguments.
// Handler failures have already been reported by the handler; they are
// returned without being reported again.
func (uc *InvokeToolUseCase) Execute(ctx context.Context, toolName string, params map[string]any) (any, error) {
	invocationID := uuid.NewString()
	log := uc.logger.With(slog.String("tool_name", toolName), slog.String("invocation_id", invocationID))

	registered, ok := uc.registry.GetTool(toolName)
	if !ok {
		log.Warn("Tool not found")
		return nil, fmt.Errorf("%w: %s", domain.ErrToolNotFound, toolName)
	}

	ctx, span := uc.tracer.Start(ctx, "tool.invoke", trace.WithAttributes(
		attribute.String("mcp.tool.name", toolName),
		attribute.String("mcp.invocation.id", invocationID),
		attribute.Bool("mcp.tool.manual", registered.IsManual),
	))
	defer span.End()

	log.Debug("Executing tool invocation")
	start := time.Now()
	result, err := registered.Handler(ctx, params)
	elapsed := time.Since(start)
	uc.observer.ObserveInvoke(ctx, toolName, elapsed, err)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Debug("Tool invocation failed", slog.Duration("duration", elapsed))
		return nil, fmt.Errorf("failed to invoke tool %s: %w", toolName, err)
	}

	span.SetStatus(codes.Ok, "")
	log.Info("Tool invocation successful", slog.Duration("duration", elapsed))
	return result, nil
}
