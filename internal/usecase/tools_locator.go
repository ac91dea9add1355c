package usecase

import (
	"fmt"
	"log/slog"
	"reflect"
)

// ToolsLocator registers every scanned type carrying a Tool marker.
// It is not safe for concurrent use; scans are sequential.
type ToolsLocator struct {
	registry ToolRegistry
	parser   *AttributesParser
	factory  *ToolFactory
	logger   *slog.Logger
	found    int
}

// NewToolsLocator creates a new ToolsLocator.
func NewToolsLocator(registry ToolRegistry, parser *AttributesParser, factory *ToolFactory, logger *slog.Logger) *ToolsLocator {
	return &ToolsLocator{
		registry: registry,
		parser:   parser,
		factory:  factory,
		logger:   logger.With("component", "tools_locator"),
	}
}

// Listen inspects one candidate type. Types that cannot be instantiated or
// carry no Tool marker are skipped. An invalid tool type is an error that
// must abort startup.
func (l *ToolsLocator) Listen(class reflect.Type) error {
	if !isInstantiable(class) {
		return nil
	}

	marker, ok := l.parser.ParseToolAttribute(class)
	if !ok {
		return nil
	}
	log := l.logger.With(slog.String("tool_name", marker.Name), slog.String("type", class.String()))

	hints := l.parser.ParseAnnotationAttributes(class)
	tool, err := l.factory.CreateTool(class, marker, hints)
	if err != nil {
		log.Error("Invalid tool definition.", slog.Any("error", err))
		return fmt.Errorf("failed to create tool %s: %w", marker.Name, err)
	}
	handler, err := l.factory.CreateHandler(class)
	if err != nil {
		log.Error("Invalid tool handler.", slog.Any("error", err))
		return fmt.Errorf("failed to create handler for tool %s: %w", marker.Name, err)
	}

	l.registry.RegisterTool(tool, handler, false)
	l.found++
	log.Debug("Tool discovered.")
	return nil
}

// Finalize ends a scan pass.
func (l *ToolsLocator) Finalize() {
	l.logger.Info("Tool discovery finished.", slog.Int("tool_count", l.found))
	l.found = 0
}
