package middleware

import (
	"net/http"
	"sync"
)

// Middleware wraps an HTTP handler of an MCP transport.
type Middleware func(http.Handler) http.Handler

// Registry accepts middlewares.
type Registry interface {
	Register(mw Middleware)
}

// Repository exposes the registered middlewares.
type Repository interface {
	All() []Middleware
}

// Manager is the single store behind Registry and Repository.
type Manager struct {
	mu          sync.RWMutex
	middlewares []Middleware
}

var (
	_ Registry   = (*Manager)(nil)
	_ Repository = (*Manager)(nil)
)

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register appends mw. Middlewares run in registration order.
func (m *Manager) Register(mw Middleware) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.middlewares = append(m.middlewares, mw)
}

// All returns the registered middlewares in registration order.
func (m *Manager) All() []Middleware {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Middleware(nil), m.middlewares...)
}

// Chain wraps h so that the first middleware is the outermost.
func Chain(h http.Handler, middlewares []Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
