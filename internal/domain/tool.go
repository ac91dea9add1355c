package domain

import (
	"context"
	"encoding/json"
)

// JSONSchema is a JSON Schema document in its decoded form.
// It is kept as a generic map so schemas supplied verbatim (configuration
// overrides) and generated ones travel through the same type.
type JSONSchema map[string]any

// EmptyObjectSchema returns the input schema used by tools that take no arguments.
func EmptyObjectSchema() JSONSchema {
	return JSONSchema{"type": "object"}
}

// MarshalRaw encodes the schema for libraries that expect raw JSON.
func (s JSONSchema) MarshalRaw() (json.RawMessage, error) {
	if s == nil {
		return json.Marshal(EmptyObjectSchema())
	}
	return json.Marshal(map[string]any(s))
}

// BehaviorHints describe the side-effect profile of a tool.
// A nil pointer means the author did not declare that hint.
// IdempotentHint is only meaningful when ReadOnlyHint is false.
type BehaviorHints struct {
	ReadOnlyHint    *bool `json:"readOnlyHint,omitempty"`
	DestructiveHint *bool `json:"destructiveHint,omitempty"`
	IdempotentHint  *bool `json:"idempotentHint,omitempty"`
	OpenWorldHint   *bool `json:"openWorldHint,omitempty"`
}

// Tool is the static, metadata-only description of a capability.
// Name is the registry key.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema JSONSchema     `json:"inputSchema"`
	Annotations *BehaviorHints `json:"annotations,omitempty"`
}

// Handler executes a tool with the raw arguments of a call.
// The arguments map may be nil or empty.
type Handler func(ctx context.Context, arguments map[string]any) (any, error)

// RegisteredTool binds a Tool to its Handler.
// IsManual distinguishes explicitly registered tools from discovered ones.
type RegisteredTool struct {
	Tool     Tool
	Handler  Handler
	IsManual bool
}
