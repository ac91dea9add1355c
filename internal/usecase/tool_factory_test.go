package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/i2y/mcpboot/internal/domain"
	"github.com/i2y/mcpboot/internal/usecase"
	"github.com/i2y/mcpboot/pkg/attribute"
)

func schemaJSON(t *testing.T, schema domain.JSONSchema) string {
	t.Helper()
	raw, err := schema.MarshalRaw()
	require.NoError(t, err)
	return string(raw)
}

func TestToolFactory_CreateTool(t *testing.T) {
	readOnly := true

	tests := []struct {
		name       string
		class      reflect.Type
		hints      *domain.BehaviorHints
		wantSchema string
		wantErr    error
	}{
		{
			name:       "Struct parameter",
			class:      reflect.TypeFor[greetTool](),
			wantSchema: `{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`,
		},
		{
			name:       "Pointer to struct parameter",
			class:      reflect.TypeFor[pointerArgTool](),
			wantSchema: `{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`,
		},
		{
			name:       "No parameter, pointer receiver",
			class:      reflect.TypeFor[pingTool](),
			hints:      &domain.BehaviorHints{ReadOnlyHint: &readOnly},
			wantSchema: `{"type":"object"}`,
		},
		{
			name:       "Context parameter is not an argument",
			class:      reflect.TypeFor[lookupTool](),
			wantSchema: `{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`,
		},
		{
			name:       "Untyped and nullable fields",
			class:      reflect.TypeFor[noteTool](),
			wantSchema: `{"type":"object","properties":{"data":true,"note":{"type":"string"}},"required":["data","note"]}`,
		},
		{
			name:  "Recursive parameter",
			class: reflect.TypeFor[categoryTool](),
			wantSchema: `{
				"type":"object",
				"properties":{"name":{"type":"string"},"children":{"type":"array","items":{"$ref":"#/$defs/Category"}}},
				"required":["name"],
				"$defs":{"Category":{
					"type":"object",
					"properties":{"name":{"type":"string"},"children":{"type":"array","items":{"$ref":"#/$defs/Category"}}},
					"required":["name"]
				}}
			}`,
		},
		{name: "Nil type", class: nil, wantErr: domain.ErrInvalidCandidate},
		{name: "Interface type", class: reflect.TypeFor[context.Context](), wantErr: domain.ErrInvalidCandidate},
		{name: "No entry point", class: reflect.TypeFor[noEntryTool](), wantErr: domain.ErrInvalidCandidate},
		{name: "Unexported entry point", class: reflect.TypeFor[unexportedEntryTool](), wantErr: domain.ErrInvalidCandidate},
		{name: "Two parameters", class: reflect.TypeFor[twoParamTool](), wantErr: domain.ErrInvalidCandidate},
		{name: "Scalar parameter", class: reflect.TypeFor[scalarParamTool](), wantErr: domain.ErrInvalidCandidate},
		{name: "Second result is not an error", class: reflect.TypeFor[badResultTool](), wantErr: domain.ErrInvalidCandidate},
		{name: "Three results", class: reflect.TypeFor[tooManyResultsTool](), wantErr: domain.ErrInvalidCandidate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			f := newFixture(t)
			marker := attribute.Tool{Name: "tool", Description: "A tool"}

			tool, err := f.toolFactory.CreateTool(tt.class, marker, tt.hints)

			if tt.wantErr != nil {
				assert.ErrorIs(err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal("tool", tool.Name)
			assert.Equal("A tool", tool.Description)
			assert.JSONEq(tt.wantSchema, schemaJSON(t, tool.InputSchema))
			assert.Equal(tt.hints, tool.Annotations)
		})
	}
}

func TestToolFactory_CreateTool_SchemaOverride(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, usecase.WithSchemaOverrides(map[string]string{
		"greet": `{"type":"object","properties":{"name":{"type":"string","minLength":1}}}`,
		"typed": "usecase_test.GreetInput",
		"bad":   "not a schema",
	}))
	f.catalog.AddType(reflect.TypeFor[GreetInput]())

	tool, err := f.toolFactory.CreateTool(reflect.TypeFor[greetTool](), attribute.Tool{Name: "greet"}, nil)
	require.NoError(t, err)
	assert.JSONEq(`{"type":"object","properties":{"name":{"type":"string","minLength":1}}}`, schemaJSON(t, tool.InputSchema))

	tool, err = f.toolFactory.CreateTool(reflect.TypeFor[pingTool](), attribute.Tool{Name: "typed"}, nil)
	require.NoError(t, err)
	assert.JSONEq(`{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`, schemaJSON(t, tool.InputSchema))

	_, err = f.toolFactory.CreateTool(reflect.TypeFor[greetTool](), attribute.Tool{Name: "bad"}, nil)
	assert.ErrorIs(err, domain.ErrInvalidSchemaSource)
}

func TestToolFactory_CreateHandler(t *testing.T) {
	tests := []struct {
		name       string
		class      reflect.Type
		args       map[string]any
		wantResult any
		wantErrAs  any
		wantErrIs  error
	}{
		{
			name:       "Struct argument",
			class:      reflect.TypeFor[greetTool](),
			args:       map[string]any{"name": "Ada"},
			wantResult: "Hello, Ada!",
		},
		{
			name:       "Pointer argument",
			class:      reflect.TypeFor[pointerArgTool](),
			args:       map[string]any{"name": "Ada"},
			wantResult: "Ada",
		},
		{
			name:       "No argument with nil payload",
			class:      reflect.TypeFor[pingTool](),
			args:       nil,
			wantResult: "pong",
		},
		{
			name:       "Context and error results",
			class:      reflect.TypeFor[lookupTool](),
			args:       map[string]any{"name": "Ada"},
			wantResult: map[string]string{"name": "Ada"},
		},
		{
			name:       "Null for pointer and untyped fields",
			class:      reflect.TypeFor[noteTool](),
			args:       map[string]any{"data": nil, "note": nil},
			wantResult: "no note",
		},
		{
			name:       "Untyped field takes any value",
			class:      reflect.TypeFor[noteTool](),
			args:       map[string]any{"data": []any{1, "two"}, "note": "kept"},
			wantResult: "kept",
		},
		{
			name:       "Recursive argument",
			class:      reflect.TypeFor[categoryTool](),
			args:       map[string]any{"name": "root", "children": []any{map[string]any{"name": "a", "children": []any{map[string]any{"name": "b"}}}}},
			wantResult: 3,
		},
		{
			name:      "Recursive argument invalid deep inside",
			class:     reflect.TypeFor[categoryTool](),
			args:      map[string]any{"name": "root", "children": []any{map[string]any{"children": []any{map[string]any{"name": 7}}}}},
			wantErrAs: new(*domain.MappingError),
		},
		{
			name:      "Returned error",
			class:     reflect.TypeFor[lookupTool](),
			args:      map[string]any{"name": "missing"},
			wantErrAs: new(*domain.HandlerInvocationError),
			wantErrIs: errLookup,
		},
		{
			name:      "Error as only result",
			class:     reflect.TypeFor[errorOnlyTool](),
			wantErrAs: new(*domain.HandlerInvocationError),
			wantErrIs: errLookup,
		},
		{
			name:      "Panic",
			class:     reflect.TypeFor[panicTool](),
			wantErrAs: new(*domain.HandlerInvocationError),
		},
		{
			name:      "Wrong argument type",
			class:     reflect.TypeFor[greetTool](),
			args:      map[string]any{"name": 123},
			wantErrAs: new(*domain.MappingError),
		},
		{
			name:      "Missing required argument",
			class:     reflect.TypeFor[greetTool](),
			args:      map[string]any{},
			wantErrAs: new(*domain.MappingError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			f := newFixture(t)
			if tt.wantErrAs != nil {
				f.reporter.On("Report", mock.Anything, mock.Anything).Once()
			}

			handler, err := f.toolFactory.CreateHandler(tt.class)
			require.NoError(t, err)

			result, err := handler(context.Background(), tt.args)

			if tt.wantErrAs != nil {
				assert.Nil(result)
				assert.ErrorAs(err, tt.wantErrAs)
				if tt.wantErrIs != nil {
					assert.ErrorIs(err, tt.wantErrIs)
				}
				f.reporter.AssertNumberOfCalls(t, "Report", 1)
				f.reporter.AssertCalled(t, "Report", mock.Anything, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(tt.wantResult, result)
			f.reporter.AssertNotCalled(t, "Report", mock.Anything, mock.Anything)
		})
	}
}

func TestToolFactory_CreateHandler_InvalidCandidate(t *testing.T) {
	f := newFixture(t)
	_, err := f.toolFactory.CreateHandler(reflect.TypeFor[scalarParamTool]())
	assert.ErrorIs(t, err, domain.ErrInvalidCandidate)
}

func TestClassHandler_DecodesBeforeConstruction(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)

	constructed := 0
	require.NoError(t, f.objects.Bind(func() *countingTool {
		constructed++
		return &countingTool{}
	}))
	f.catalog.Add(reflect.TypeFor[countingTool](), attribute.Tool{Name: "count"})
	require.NoError(t, f.locator.Listen(reflect.TypeFor[countingTool]()))
	before := f.registry.GetTools()

	registered, ok := f.registry.GetTool("count")
	require.True(t, ok)

	f.reporter.On("Report", mock.Anything, mock.Anything).Once()
	_, err := registered.Handler(context.Background(), map[string]any{"name": 123})

	var mappingErr *domain.MappingError
	assert.ErrorAs(err, &mappingErr)
	assert.Equal(0, constructed, "no instance is built for an invalid payload")
	f.reporter.AssertNumberOfCalls(t, "Report", 1)
	assert.Equal(before, f.registry.GetTools(), "a failed call does not touch the registry")

	result, err := registered.Handler(context.Background(), map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal("Ada", result)
	assert.Equal(1, constructed)

	result, err = registered.Handler(context.Background(), map[string]any{"name": "Grace"})
	require.NoError(t, err)
	assert.Equal("Grace", result)
	assert.Equal(2, constructed, "each call gets a fresh instance")
}

func TestClassHandler_DependencyFailure(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)

	require.NoError(t, f.objects.Bind(func() (*countingTool, error) {
		return nil, errors.New("database unavailable")
	}))
	handler, err := f.toolFactory.CreateHandler(reflect.TypeFor[countingTool]())
	require.NoError(t, err)

	f.reporter.On("Report", mock.Anything, mock.Anything).Once()
	_, err = handler(context.Background(), map[string]any{"name": "Ada"})

	var invocationErr *domain.HandlerInvocationError
	assert.ErrorAs(err, &invocationErr)
	assert.Contains(err.Error(), "database unavailable")
	f.reporter.AssertNumberOfCalls(t, "Report", 1)
}

func TestClassHandler_ResultIsJSONEncodable(t *testing.T) {
	f := newFixture(t)
	handler, err := f.toolFactory.CreateHandler(reflect.TypeFor[lookupTool]())
	require.NoError(t, err)

	result, err := handler(context.Background(), map[string]any{"name": "Ada", "extra": true})
	require.NoError(t, err)
	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada"}`, string(data))
}
