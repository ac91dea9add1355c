// Package demo contains the sample tools served by the mcpboot command.
package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/i2y/mcpboot/internal/adapter/outbound/catalog"
	"github.com/i2y/mcpboot/internal/adapter/outbound/container"
	"github.com/i2y/mcpboot/internal/domain"
	"github.com/i2y/mcpboot/internal/usecase"
	"github.com/i2y/mcpboot/pkg/attribute"
)

// DefaultSalutation is the salutation provided to Greet.
const DefaultSalutation Salutation = "Hello"

// Salutation is the word Greet puts in front of a name.
type Salutation string

// GreetInput is the argument of the greet tool.
type GreetInput struct {
	Name string `json:"name"`
}

// Greet says hello.
type Greet struct {
	salutation Salutation
}

// NewGreet creates a Greet using salutation.
func NewGreet(salutation Salutation) *Greet {
	return &Greet{salutation: salutation}
}

// Invoke greets in.Name with the configured salutation.
func (g *Greet) Invoke(in GreetInput) string {
	return fmt.Sprintf("%s, %s!", g.salutation, in.Name)
}

// Ping answers "pong".
type Ping struct{}

// Invoke returns "pong".
func (Ping) Invoke() string { return "pong" }

// ClockInput is the argument of the clock tool.
type ClockInput struct {
	Timezone string `json:"timezone,omitempty" jsonschema:"description=IANA time zone name, UTC when empty"`
}

// ClockOutput is the result of the clock tool.
type ClockOutput struct {
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
}

// Clock reports the current time in a time zone.
type Clock struct {
	now func() time.Time
}

// NewClock creates a Clock reading now.
func NewClock(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Invoke returns the current time formatted as RFC 3339 in the requested
// zone. An unknown zone is an error.
func (c *Clock) Invoke(_ context.Context, in ClockInput) (ClockOutput, error) {
	name := in.Timezone
	if name == "" {
		name = "UTC"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return ClockOutput{}, fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	return ClockOutput{
		Time:     c.now().In(loc).Format(time.RFC3339),
		Timezone: loc.String(),
	}, nil
}

// AddInput is the argument of the add tool.
type AddInput struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// AddOutput is the result of the add tool.
type AddOutput struct {
	Sum float64 `json:"sum"`
}

// Add sums two numbers.
func Add(_ context.Context, in AddInput) (AddOutput, error) {
	return AddOutput{Sum: in.A + in.B}, nil
}

// Register adds the demo tool types to c and their constructors to f.
func Register(c *catalog.Catalog, f *container.Factory) error {
	catalog.Register[Greet](c, attribute.Tool{Name: "greet", Description: "Greets a person by name"})
	catalog.Register[Ping](c, attribute.Tool{Name: "ping", Description: "Checks that the server answers"}, attribute.Readonly())
	catalog.Register[Clock](c,
		attribute.Tool{Name: "clock", Description: "Returns the current time in a time zone"},
		attribute.Readonly(),
		attribute.Idempotent(),
		attribute.IsOpenWorld{OpenWorld: false},
	)

	if err := f.Provide(func() Salutation { return DefaultSalutation }); err != nil {
		return err
	}
	if err := f.Provide(func() func() time.Time { return time.Now }); err != nil {
		return err
	}
	if err := f.Bind(NewGreet); err != nil {
		return err
	}
	return f.Bind(NewClock)
}

// RegisterManual registers the tools bound without the catalog.
func RegisterManual(registry usecase.ToolRegistry, mapper usecase.SchemaMapper, reporter usecase.ErrorReporter) error {
	readOnly := true
	return usecase.RegisterFunc(registry, mapper, reporter,
		attribute.Tool{Name: "add", Description: "Adds two numbers"},
		&domain.BehaviorHints{ReadOnlyHint: &readOnly},
		Add,
	)
}
