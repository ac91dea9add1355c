package usecase

import (
	"context"
	"reflect"

	"github.com/i2y/mcpboot/internal/domain"
)

// --- Discovery Related ---

// AttributeReader returns the markers declared for a candidate type.
type AttributeReader interface {
	// FirstClassMetadata returns the first marker of type attribute declared
	// for class, or false when there is none.
	FirstClassMetadata(class reflect.Type, attribute reflect.Type) (any, bool)
}

// ClassListener is notified once per candidate type during a scan pass,
// then finalized once when the pass ends.
type ClassListener interface {
	Listen(class reflect.Type) error
	Finalize()
}

// ObjectFactory builds instances of tool types, resolving their dependencies.
type ObjectFactory interface {
	// Make returns a pointer to a new instance of class.
	Make(class reflect.Type) (reflect.Value, error)
}

// SchemaMapper converts Go types to JSON Schema and JSON payloads to Go values.
type SchemaMapper interface {
	// ToJSONSchema accepts JSON schema text, a known type name or a reflect.Type.
	ToJSONSchema(source any) (domain.JSONSchema, error)
	// ToObject decodes data into a new value of class, or into a generic
	// JSON value when class is nil.
	ToObject(data []byte, class reflect.Type) (any, error)
}

// ErrorReporter records a failure raised while serving a tool call.
type ErrorReporter interface {
	Report(ctx context.Context, err error)
}

// --- Registry ---

// ToolRegistry stores tools keyed by name. The last registration for a name wins.
type ToolRegistry interface {
	RegisterTool(tool domain.Tool, handler domain.Handler, isManual bool)
	GetTool(name string) (*domain.RegisteredTool, bool)
	// GetTools returns descriptors only, in registration order.
	GetTools() []domain.Tool
}
