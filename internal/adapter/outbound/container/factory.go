package container

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"go.uber.org/dig"

	"github.com/i2y/mcpboot/internal/usecase"
)

var errorType = reflect.TypeFor[error]()

// Factory implements usecase.ObjectFactory on top of a dig container.
// Dependencies provided to the container are singletons; tool types bound
// with a constructor get a fresh instance on every Make.
type Factory struct {
	mu           sync.Mutex
	container    *dig.Container
	constructors map[reflect.Type]reflect.Value
	logger       *slog.Logger
}

var _ usecase.ObjectFactory = (*Factory)(nil)

// New creates a factory with an empty container.
func New(logger *slog.Logger) *Factory {
	return &Factory{
		container:    dig.New(),
		constructors: make(map[reflect.Type]reflect.Value),
		logger:       logger.With("component", "object_factory"),
	}
}

// Provide adds a dependency constructor to the container.
func (f *Factory) Provide(constructor any, opts ...dig.ProvideOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.container.Provide(constructor, opts...); err != nil {
		return fmt.Errorf("failed to provide dependency: %w", err)
	}
	return nil
}

// Bind registers the constructor used to build the type it returns.
// The constructor returns T or *T, optionally with an error; its
// parameters are resolved from the container on each Make.
func (f *Factory) Bind(constructor any) error {
	ctor := reflect.ValueOf(constructor)
	ft := ctor.Type()
	if ft.Kind() != reflect.Func || ft.IsVariadic() {
		return fmt.Errorf("constructor must be a non-variadic function, %s given", ft)
	}
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return fmt.Errorf("constructor %s must return a value and an optional error", ft)
	}

	class := ft.Out(0)
	if class.Kind() == reflect.Pointer {
		class = class.Elem()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[class] = ctor
	f.logger.Debug("Bound constructor.", slog.String("type", class.String()))
	return nil
}

// Make returns a pointer to a new instance of class. Dependencies are
// resolved under the factory lock; the bound constructor runs outside it.
func (f *Factory) Make(class reflect.Type) (reflect.Value, error) {
	if class == nil {
		return reflect.Value{}, errors.New("cannot make nil type")
	}
	if class.Kind() == reflect.Pointer {
		class = class.Elem()
	}

	ctor, args, err := f.resolve(class)
	if err != nil {
		return reflect.Value{}, err
	}
	if !ctor.IsValid() {
		return reflect.New(class), nil
	}

	out := ctor.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, fmt.Errorf("failed to make %s: %w", class, out[1].Interface().(error))
	}
	made := out[0]

	if made.Kind() != reflect.Pointer {
		ptr := reflect.New(class)
		ptr.Elem().Set(made)
		return ptr, nil
	}
	if made.IsNil() {
		return reflect.Value{}, fmt.Errorf("constructor for %s returned nil", class)
	}
	return made, nil
}

// resolve returns the constructor bound to class and its arguments taken
// from the container. The constructor is invalid when none is bound.
func (f *Factory) resolve(class reflect.Type) (reflect.Value, []reflect.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ctor, ok := f.constructors[class]
	if !ok {
		return reflect.Value{}, nil, nil
	}

	ft := ctor.Type()
	params := make([]reflect.Type, ft.NumIn())
	for i := range params {
		params[i] = ft.In(i)
	}

	var args []reflect.Value
	collect := reflect.MakeFunc(reflect.FuncOf(params, nil, false), func(in []reflect.Value) []reflect.Value {
		args = append([]reflect.Value(nil), in...)
		return nil
	})
	if err := f.container.Invoke(collect.Interface()); err != nil {
		return reflect.Value{}, nil, fmt.Errorf("failed to make %s: %w", class, err)
	}
	return ctor, args, nil
}
