package schemamapper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/invopop/jsonschema"

	"github.com/i2y/mcpboot/internal/domain"
	"github.com/i2y/mcpboot/internal/usecase"
)

// TypeResolver resolves a Go type from its name (reflect.Type.String form).
type TypeResolver interface {
	LookupType(name string) (reflect.Type, bool)
}

// Mapper implements usecase.SchemaMapper. Schemas are generated from struct
// tags with invopop/jsonschema; decoded payloads are validated against that
// schema with kin-openapi before being decoded into the target type.
// Nested types are inlined unless the type is recursive, in which case they
// are kept in $defs.
type Mapper struct {
	reflector    *jsonschema.Reflector
	refReflector *jsonschema.Reflector
	resolver  TypeResolver
	cache     bool
	compiled  sync.Map // reflect.Type -> *compiledSchema
	logger    *slog.Logger
}

var _ usecase.SchemaMapper = (*Mapper)(nil)

// compiledSchema holds a generated schema and its validator.
type compiledSchema struct {
	raw       []byte
	validator *openapi3.Schema
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithCache keeps generated schemas for the lifetime of the mapper.
func WithCache(enabled bool) Option {
	return func(m *Mapper) { m.cache = enabled }
}

// WithTypeResolver lets ToJSONSchema accept type names.
func WithTypeResolver(resolver TypeResolver) Option {
	return func(m *Mapper) { m.resolver = resolver }
}

// New creates a new Mapper.
func New(logger *slog.Logger, opts ...Option) *Mapper {
	m := &Mapper{
		reflector: &jsonschema.Reflector{
			Anonymous:                 true,
			DoNotReference:            true,
			AllowAdditionalProperties: true,
		},
		refReflector: &jsonschema.Reflector{
			Anonymous:                 true,
			AllowAdditionalProperties: true,
		},
		logger: logger.With("component", "schema_mapper"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ToJSONSchema returns the schema for source. JSON text is returned as
// parsed; a type name known to the resolver or a reflect.Type of a struct
// yields a generated schema.
func (m *Mapper) ToJSONSchema(source any) (domain.JSONSchema, error) {
	switch s := source.(type) {
	case reflect.Type:
		return m.generate(s)
	case json.RawMessage:
		return parseSchemaText(s)
	case []byte:
		return parseSchemaText(s)
	case string:
		if json.Valid([]byte(s)) {
			return parseSchemaText([]byte(s))
		}
		if m.resolver != nil {
			if t, ok := m.resolver.LookupType(s); ok {
				return m.generate(t)
			}
		}
		return nil, fmt.Errorf("%w: invalid type or JSON schema provided: %s", domain.ErrInvalidSchemaSource, s)
	default:
		return nil, fmt.Errorf("%w: unsupported source %T", domain.ErrInvalidSchemaSource, source)
	}
}

// ToObject decodes data. With a nil class it returns the generic JSON value;
// otherwise the payload must satisfy the class schema and a new value of
// class (a pointer when class is a pointer type) is returned.
func (m *Mapper) ToObject(data []byte, class reflect.Type) (any, error) {
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		target := "value"
		if class != nil {
			target = class.String()
		}
		return nil, &domain.MappingError{Target: target, Err: err}
	}
	if class == nil {
		return tree, nil
	}

	base := class
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	if base.Kind() == reflect.Struct {
		compiled, err := m.compile(base)
		if err != nil {
			return nil, &domain.MappingError{Target: class.String(), Err: err}
		}
		if err := compiled.validator.VisitJSON(tree, openapi3.MultiErrors()); err != nil {
			m.logger.Debug("Payload rejected by schema.", slog.String("type", class.String()), slog.Any("error", err))
			return nil, &domain.MappingError{Target: class.String(), Err: err}
		}
	}

	ptr := reflect.New(base)
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(ptr.Interface()); err != nil {
		return nil, &domain.MappingError{Target: class.String(), Err: err}
	}
	if class.Kind() == reflect.Pointer {
		return ptr.Interface(), nil
	}
	return ptr.Elem().Interface(), nil
}

func (m *Mapper) generate(t reflect.Type) (domain.JSONSchema, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", domain.ErrInvalidSchemaSource)
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", domain.ErrInvalidSchemaSource, t)
	}
	compiled, err := m.compile(t)
	if err != nil {
		return nil, err
	}
	return parseSchemaText(compiled.raw)
}

func (m *Mapper) compile(t reflect.Type) (*compiledSchema, error) {
	if cached, ok := m.compiled.Load(t); ok {
		return cached.(*compiledSchema), nil
	}

	reflector := m.reflector
	if isRecursive(t) {
		reflector = m.refReflector
	}
	generated, err := json.Marshal(reflector.ReflectFromType(t))
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema for %s: %w", t, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(generated, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode schema for %s: %w", t, err)
	}
	delete(doc, "$schema")
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema for %s: %w", t, err)
	}

	// The validator works on its own copy so raw stays as generated.
	var validatorDoc map[string]any
	if err := json.Unmarshal(raw, &validatorDoc); err != nil {
		return nil, fmt.Errorf("failed to decode schema for %s: %w", t, err)
	}
	markNullable(validatorDoc, t)
	validator, err := buildValidator(validatorDoc)
	if err != nil {
		return nil, fmt.Errorf("failed to build validator for %s: %w", t, err)
	}

	compiled := &compiledSchema{raw: raw, validator: validator}
	if m.cache {
		m.compiled.Store(t, compiled)
	}
	m.logger.Debug("Generated schema.", slog.String("type", t.String()), slog.Bool("cached", m.cache))
	return compiled, nil
}

func parseSchemaText(text []byte) (domain.JSONSchema, error) {
	var schema domain.JSONSchema
	if err := json.Unmarshal(text, &schema); err != nil {
		return nil, fmt.Errorf("%w: schema must be a JSON object: %v", domain.ErrInvalidSchemaSource, err)
	}
	return schema, nil
}
