package usecase

import (
	"context"
	"fmt"
	"reflect"

	"github.com/i2y/mcpboot/internal/domain"
	"github.com/i2y/mcpboot/pkg/attribute"
)

// ToolFunc is a typed tool implementation bound with RegisterFunc.
type ToolFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// RegisterFunc registers fn as a manual tool. The argument type is fixed by
// the In type parameter, which must be a struct or a pointer to one.
func RegisterFunc[In, Out any](
	registry ToolRegistry,
	mapper SchemaMapper,
	reporter ErrorReporter,
	marker attribute.Tool,
	hints *domain.BehaviorHints,
	fn ToolFunc[In, Out],
) error {
	argType := reflect.TypeFor[In]()
	if !isStructType(argType) {
		return domain.InvalidCandidatef("tool %s argument should be a struct, %s given", marker.Name, argType)
	}
	schema, err := mapper.ToJSONSchema(argType)
	if err != nil {
		return fmt.Errorf("failed to generate schema for tool %s: %w", marker.Name, err)
	}

	handler := func(ctx context.Context, arguments map[string]any) (result any, err error) {
		defer func() {
			if r := recover(); r != nil {
				result = nil
				err = &domain.HandlerInvocationError{Tool: marker.Name, Err: fmt.Errorf("panic: %v", r)}
			}
			if err != nil {
				reporter.Report(ctx, err)
			}
		}()

		obj, err := decodeArguments(mapper, arguments, argType)
		if err != nil {
			return nil, err
		}
		in, ok := obj.(In)
		if !ok {
			return nil, &domain.MappingError{Target: argType.String(), Err: fmt.Errorf("mapper returned %T", obj)}
		}
		out, err := fn(ctx, in)
		if err != nil {
			return nil, &domain.HandlerInvocationError{Tool: marker.Name, Err: err}
		}
		return out, nil
	}

	registry.RegisterTool(domain.Tool{
		Name:        marker.Name,
		Description: marker.Description,
		InputSchema: schema,
		Annotations: hints,
	}, handler, true)
	return nil
}
