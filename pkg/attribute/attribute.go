// Package attribute holds the declarative markers attached to tool types
// in the catalog. Markers carry data only; the discovery pipeline reads them.
package attribute

// Tool marks a type as an MCP tool.
type Tool struct {
	Name        string
	Description string
}

// IsReadonly declares that the tool does not modify its environment.
type IsReadonly struct {
	ReadOnlyHint bool
}

// IsDestructive declares whether the tool may perform destructive updates
// to its environment. False means the tool performs only additive updates.
type IsDestructive struct {
	Destructive bool
}

// IsIdempotent declares that calling the tool repeatedly with the same
// arguments has no additional effect on its environment.
// Only meaningful when the tool is not read-only.
type IsIdempotent struct {
	Idempotent bool
}

// IsOpenWorld declares whether the tool interacts with an "open world" of
// external entities. A web search tool is open, a memory tool is not.
type IsOpenWorld struct {
	OpenWorld bool
}

// Readonly returns IsReadonly{true}.
func Readonly() IsReadonly { return IsReadonly{ReadOnlyHint: true} }

// Destructive returns IsDestructive{true}.
func Destructive() IsDestructive { return IsDestructive{Destructive: true} }

// Idempotent returns IsIdempotent{true}.
func Idempotent() IsIdempotent { return IsIdempotent{Idempotent: true} }

// OpenWorld returns IsOpenWorld{true}.
func OpenWorld() IsOpenWorld { return IsOpenWorld{OpenWorld: true} }
