package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i2y/mcpboot/internal/domain"
	"github.com/i2y/mcpboot/internal/usecase"
)

func TestServeToolsUseCase_Execute(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)
	uc := usecase.NewServeToolsUseCase(f.registry, testLogger())

	assert.Empty(uc.Execute(context.Background()))

	noop := func(context.Context, map[string]any) (any, error) { return nil, nil }
	f.registry.RegisterTool(domain.Tool{Name: "b", InputSchema: domain.EmptyObjectSchema()}, noop, false)
	f.registry.RegisterTool(domain.Tool{Name: "a", InputSchema: domain.EmptyObjectSchema()}, noop, true)

	tools := uc.Execute(context.Background())
	if assert.Len(tools, 2) {
		assert.Equal("b", tools[0].Name)
		assert.Equal("a", tools[1].Name)
	}
}
