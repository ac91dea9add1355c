package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/i2y/mcpboot/internal/domain"
	"github.com/i2y/mcpboot/pkg/attribute"
)

// EntryPointName is the method a tool type must export to be invocable.
const EntryPointName = "Invoke"

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// ToolFactory turns validated candidate types into tool descriptors and handlers.
type ToolFactory struct {
	factory         ObjectFactory
	mapper          SchemaMapper
	reporter        ErrorReporter
	schemaOverrides map[string]string
	logger          *slog.Logger
}

// ToolFactoryOption configures a ToolFactory.
type ToolFactoryOption func(*ToolFactory)

// WithSchemaOverrides replaces the generated input schema of the named tools
// with the given JSON schema text.
func WithSchemaOverrides(overrides map[string]string) ToolFactoryOption {
	return func(f *ToolFactory) {
		f.schemaOverrides = overrides
	}
}

// NewToolFactory creates a new ToolFactory.
func NewToolFactory(
	factory ObjectFactory,
	mapper SchemaMapper,
	reporter ErrorReporter,
	logger *slog.Logger,
	opts ...ToolFactoryOption,
) *ToolFactory {
	f := &ToolFactory{
		factory:  factory,
		mapper:   mapper,
		reporter: reporter,
		logger:   logger.With("component", "tool_factory"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateTool validates class and builds its descriptor from the Tool marker
// and the optional behavior hints.
func (f *ToolFactory) CreateTool(class reflect.Type, marker attribute.Tool, hints *domain.BehaviorHints) (domain.Tool, error) {
	entry, err := inspectEntryPoint(class)
	if err != nil {
		return domain.Tool{}, err
	}

	var schema domain.JSONSchema
	if override, ok := f.schemaOverrides[marker.Name]; ok {
		schema, err = f.mapper.ToJSONSchema(override)
		if err != nil {
			return domain.Tool{}, fmt.Errorf("invalid schema override for tool %s: %w", marker.Name, err)
		}
		f.logger.Info("Using configured input schema.", slog.String("tool_name", marker.Name))
	} else {
		schema, err = f.inputSchema(entry)
		if err != nil {
			return domain.Tool{}, err
		}
	}

	return domain.Tool{
		Name:        marker.Name,
		Description: marker.Description,
		InputSchema: schema,
		Annotations: hints,
	}, nil
}

// CreateHandler builds the invocation handler bound to class.
func (f *ToolFactory) CreateHandler(class reflect.Type) (domain.Handler, error) {
	entry, err := inspectEntryPoint(class)
	if err != nil {
		return nil, err
	}
	h := &ClassHandler{
		factory:  f.factory,
		mapper:   f.mapper,
		reporter: f.reporter,
		entry:    entry,
	}
	return h.Handle, nil
}

func (f *ToolFactory) inputSchema(entry entryPoint) (domain.JSONSchema, error) {
	if entry.argType == nil {
		return domain.EmptyObjectSchema(), nil
	}
	schema, err := f.mapper.ToJSONSchema(entry.argType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema for %s: %w", entry.argType, err)
	}
	return schema, nil
}

// ClassHandler invokes a tool type with arguments decoded from a call payload.
type ClassHandler struct {
	factory  ObjectFactory
	mapper   SchemaMapper
	reporter ErrorReporter
	entry    entryPoint
}

// Handle decodes arguments, constructs the tool and invokes it.
// Failures are reported once and returned.
func (h *ClassHandler) Handle(ctx context.Context, arguments map[string]any) (result any, err error) {
	name := h.entry.class.String()
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &domain.HandlerInvocationError{Tool: name, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			h.reporter.Report(ctx, err)
		}
	}()

	var arg any
	if h.entry.argType != nil {
		arg, err = decodeArguments(h.mapper, arguments, h.entry.argType)
		if err != nil {
			return nil, err
		}
	}

	instance, err := h.factory.Make(h.entry.class)
	if err != nil {
		return nil, &domain.HandlerInvocationError{Tool: name, Err: fmt.Errorf("failed to construct: %w", err)}
	}

	result, err = h.entry.call(ctx, instance, arg)
	if err != nil {
		return nil, &domain.HandlerInvocationError{Tool: name, Err: err}
	}
	return result, nil
}

// decodeArguments round-trips the raw arguments through JSON into argType.
func decodeArguments(mapper SchemaMapper, arguments map[string]any, argType reflect.Type) (any, error) {
	if arguments == nil {
		arguments = map[string]any{}
	}
	payload, err := json.Marshal(arguments)
	if err != nil {
		return nil, &domain.MappingError{Target: argType.String(), Err: err}
	}
	obj, err := mapper.ToObject(payload, argType)
	if err != nil {
		var mappingErr *domain.MappingError
		if errors.As(err, &mappingErr) {
			return nil, err
		}
		return nil, &domain.MappingError{Target: argType.String(), Err: err}
	}
	return obj, nil
}

// entryPoint is the validated shape of a tool type's Invoke method.
type entryPoint struct {
	class       reflect.Type
	method      reflect.Method
	withContext bool
	argType     reflect.Type
}

// isInstantiable reports whether class names a concrete type that can be built.
func isInstantiable(class reflect.Type) bool {
	if class == nil {
		return false
	}
	if class.Kind() == reflect.Pointer {
		class = class.Elem()
	}
	switch class.Kind() {
	case reflect.Interface, reflect.Invalid, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return false
	}
	return true
}

func inspectEntryPoint(class reflect.Type) (entryPoint, error) {
	if !isInstantiable(class) {
		return entryPoint{}, domain.InvalidCandidatef("type %v must be instantiable", class)
	}
	if class.Kind() == reflect.Pointer {
		class = class.Elem()
	}

	// Go reflection only lists exported methods, so a missing and an
	// unexported entry point are the same failure.
	method, ok := reflect.PointerTo(class).MethodByName(EntryPointName)
	if !ok {
		return entryPoint{}, domain.InvalidCandidatef("type %s must have an exported %s method", class, EntryPointName)
	}

	entry := entryPoint{class: class, method: method}
	mt := method.Type

	first := 1 // receiver
	if mt.NumIn() > first && mt.In(first) == contextType {
		entry.withContext = true
		first++
	}

	switch mt.NumIn() - first {
	case 0:
	case 1:
		argType := mt.In(first)
		if !isStructType(argType) {
			return entryPoint{}, domain.InvalidCandidatef("handler method %s.%s parameter should be a struct, %s given", class, EntryPointName, argType)
		}
		entry.argType = argType
	default:
		return entryPoint{}, domain.InvalidCandidatef("handler method %s.%s should have exactly one parameter or no parameters at all", class, EntryPointName)
	}

	switch mt.NumOut() {
	case 0, 1:
	case 2:
		if mt.Out(1) != errorType {
			return entryPoint{}, domain.InvalidCandidatef("handler method %s.%s second result must be error", class, EntryPointName)
		}
	default:
		return entryPoint{}, domain.InvalidCandidatef("handler method %s.%s must return at most a result and an error", class, EntryPointName)
	}

	return entry, nil
}

func isStructType(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

func (e entryPoint) call(ctx context.Context, instance reflect.Value, arg any) (any, error) {
	in := []reflect.Value{instance}
	if e.withContext {
		in = append(in, reflect.ValueOf(&ctx).Elem())
	}
	if e.argType != nil {
		in = append(in, reflect.ValueOf(arg))
	}

	out := e.method.Func.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if e.method.Type.Out(0) == errorType {
			return nil, asError(out[0])
		}
		return out[0].Interface(), nil
	default:
		if err := asError(out[1]); err != nil {
			return nil, err
		}
		return out[0].Interface(), nil
	}
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	err, _ := v.Interface().(error)
	return err
}
