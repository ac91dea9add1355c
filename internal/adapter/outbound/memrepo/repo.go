package memrepo

import (
	"log/slog"
	"sync"

	"github.com/i2y/mcpboot/internal/domain"
	"github.com/i2y/mcpboot/internal/usecase"
)

// Registry provides an in-memory implementation of usecase.ToolRegistry.
// A registration under an existing name replaces the previous tool.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]*domain.RegisteredTool // Map tool name to registered tool
	order    []string                          // Tool names in first-registration order
	disabled map[string]struct{}
	logger   *slog.Logger
}

var _ usecase.ToolRegistry = (*Registry)(nil)

// NewRegistry creates a new in-memory registry. Registrations of the
// disabled tool names are ignored.
func NewRegistry(logger *slog.Logger, disabled ...string) *Registry {
	r := &Registry{
		tools:    make(map[string]*domain.RegisteredTool),
		disabled: make(map[string]struct{}, len(disabled)),
		logger:   logger.With("component", "registry"),
	}
	for _, name := range disabled {
		r.disabled[name] = struct{}{}
	}
	return r
}

// RegisterTool stores the tool and its handler under tool.Name.
func (r *Registry) RegisterTool(tool domain.Tool, handler domain.Handler, isManual bool) {
	log := r.logger.With(slog.String("tool_name", tool.Name))
	if _, ok := r.disabled[tool.Name]; ok {
		log.Info("Tool is disabled, skipping registration")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, exists := r.tools[tool.Name]; exists {
		// TODO: decide whether duplicate tool names should fail startup instead of overwriting.
		log.Warn("Tool already registered, overwriting", slog.Bool("previous_manual", prev.IsManual), slog.Bool("manual", isManual))
	} else {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = &domain.RegisteredTool{Tool: tool, Handler: handler, IsManual: isManual}
	log.Debug("Registered tool", slog.Bool("manual", isManual), slog.Int("total_tools", len(r.tools)))
}

// GetTool retrieves a registered tool by its name.
func (r *Registry) GetTool(name string) (*domain.RegisteredTool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	return tool, ok
}

// GetTools returns the descriptors of all registered tools.
func (r *Registry) GetTools() []domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]domain.Tool, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, r.tools[name].Tool)
	}
	return list
}
