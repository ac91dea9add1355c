package usecase_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/i2y/mcpboot/internal/adapter/outbound/catalog"
	"github.com/i2y/mcpboot/internal/adapter/outbound/container"
	"github.com/i2y/mcpboot/internal/adapter/outbound/memrepo"
	"github.com/i2y/mcpboot/internal/adapter/outbound/schemamapper"
	"github.com/i2y/mcpboot/internal/usecase"
)

// MockErrorReporter is a mock implementation of the ErrorReporter interface.
type MockErrorReporter struct {
	mock.Mock
}

func (m *MockErrorReporter) Report(ctx context.Context, err error) {
	m.Called(ctx, err)
}

// MockInvocationObserver is a mock implementation of the InvocationObserver interface.
type MockInvocationObserver struct {
	mock.Mock
}

func (m *MockInvocationObserver) ObserveInvoke(ctx context.Context, toolName string, duration time.Duration, err error) {
	m.Called(ctx, toolName, duration, err)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// fixture wires the discovery pipeline on real in-memory adapters.
type fixture struct {
	catalog     *catalog.Catalog
	registry    *memrepo.Registry
	mapper      *schemamapper.Mapper
	objects     *container.Factory
	reporter    *MockErrorReporter
	toolFactory *usecase.ToolFactory
	locator     *usecase.ToolsLocator
}

func newFixture(t *testing.T, opts ...usecase.ToolFactoryOption) *fixture {
	t.Helper()
	logger := testLogger()
	f := &fixture{
		catalog:  catalog.New(),
		registry: memrepo.NewRegistry(logger),
		objects:  container.New(logger),
		reporter: &MockErrorReporter{},
	}
	f.mapper = schemamapper.New(logger, schemamapper.WithTypeResolver(f.catalog))
	f.toolFactory = usecase.NewToolFactory(f.objects, f.mapper, f.reporter, logger, opts...)
	f.locator = usecase.NewToolsLocator(f.registry, usecase.NewAttributesParser(f.catalog), f.toolFactory, logger)
	return f
}

// --- Tool types used across the tests ---

type GreetInput struct {
	Name string `json:"name"`
}

type greetTool struct{}

func (greetTool) Invoke(in GreetInput) string {
	return "Hello, " + in.Name + "!"
}

type NoteInput struct {
	Data any     `json:"data"`
	Note *string `json:"note"`
}

type noteTool struct{}

func (noteTool) Invoke(in NoteInput) string {
	if in.Note == nil {
		return "no note"
	}
	return *in.Note
}

type Category struct {
	Name     string     `json:"name"`
	Children []Category `json:"children,omitempty"`
}

type categoryTool struct{}

func (categoryTool) Invoke(in Category) int {
	count := 1
	for _, child := range in.Children {
		count += categoryTool{}.Invoke(child)
	}
	return count
}

type pingTool struct{}

func (*pingTool) Invoke() string { return "pong" }

type pointerArgTool struct{}

func (pointerArgTool) Invoke(in *GreetInput) string { return in.Name }

var errLookup = errors.New("lookup failed")

type lookupTool struct{}

func (lookupTool) Invoke(ctx context.Context, in GreetInput) (map[string]string, error) {
	if ctx == nil {
		return nil, errors.New("missing context")
	}
	if in.Name == "missing" {
		return nil, errLookup
	}
	return map[string]string{"name": in.Name}, nil
}

type errorOnlyTool struct{}

func (errorOnlyTool) Invoke() error { return errLookup }

type panicTool struct{}

func (panicTool) Invoke() string { panic("boom") }

type noEntryTool struct{}

func (noEntryTool) Run() string { return "" }

type unexportedEntryTool struct{}

func (unexportedEntryTool) invoke() string { return "" }

type twoParamTool struct{}

func (twoParamTool) Invoke(a, b GreetInput) string { return a.Name + b.Name }

type scalarParamTool struct{}

func (scalarParamTool) Invoke(name string) string { return name }

type badResultTool struct{}

func (badResultTool) Invoke() (string, int) { return "", 0 }

type tooManyResultsTool struct{}

func (tooManyResultsTool) Invoke() (string, string, error) { return "", "", nil }

// countingTool counts how often its constructor runs.
type countingTool struct{}

func (countingTool) Invoke(in GreetInput) string { return in.Name }
