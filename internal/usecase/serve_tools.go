package usecase

import (
	"context"
	"log/slog"

	"github.com/i2y/mcpboot/internal/domain"
)

// ServeToolsUseCase provides the functionality to list available tools.
type ServeToolsUseCase struct {
	registry ToolRegistry
	logger   *slog.Logger
}

// NewServeToolsUseCase creates a new ServeToolsUseCase.
func NewServeToolsUseCase(registry ToolRegistry, logger *slog.Logger) *ServeToolsUseCase {
	return &ServeToolsUseCase{
		registry: registry,
		logger:   logger.With("usecase", "ServeTools"),
	}
}

// Execute returns the descriptors of all registered tools.
func (uc *ServeToolsUseCase) Execute(ctx context.Context) []domain.Tool {
	tools := uc.registry.GetTools()
	uc.logger.DebugContext(ctx, "Listed tools", slog.Int("count", len(tools)))
	return tools
}
