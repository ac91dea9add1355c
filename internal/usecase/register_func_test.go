package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/i2y/mcpboot/internal/domain"
	"github.com/i2y/mcpboot/internal/usecase"
	"github.com/i2y/mcpboot/pkg/attribute"
)

type SumInput struct {
	Values []int `json:"values"`
}

func sum(_ context.Context, in SumInput) (int, error) {
	if len(in.Values) == 0 {
		return 0, errors.New("nothing to sum")
	}
	total := 0
	for _, v := range in.Values {
		total += v
	}
	return total, nil
}

func TestRegisterFunc(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)
	destructive := false

	err := usecase.RegisterFunc(f.registry, f.mapper, f.reporter,
		attribute.Tool{Name: "sum", Description: "Adds integers"},
		&domain.BehaviorHints{DestructiveHint: &destructive},
		sum,
	)
	require.NoError(t, err)

	registered, ok := f.registry.GetTool("sum")
	require.True(t, ok)
	assert.True(registered.IsManual)
	assert.JSONEq(`{"type":"object","properties":{"values":{"type":"array","items":{"type":"integer"}}},"required":["values"]}`,
		schemaJSON(t, registered.Tool.InputSchema))
	assert.False(*registered.Tool.Annotations.DestructiveHint)

	result, err := registered.Handler(context.Background(), map[string]any{"values": []any{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(6, result)
}

func TestRegisterFunc_Failures(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)
	require.NoError(t, usecase.RegisterFunc(f.registry, f.mapper, f.reporter, attribute.Tool{Name: "sum"}, nil, sum))
	registered, _ := f.registry.GetTool("sum")

	f.reporter.On("Report", mock.Anything, mock.Anything).Twice()

	_, err := registered.Handler(context.Background(), map[string]any{"values": "1,2"})
	var mappingErr *domain.MappingError
	assert.ErrorAs(err, &mappingErr)

	_, err = registered.Handler(context.Background(), map[string]any{"values": []any{}})
	var invocationErr *domain.HandlerInvocationError
	assert.ErrorAs(err, &invocationErr)
	assert.Equal("sum", invocationErr.Tool)

	f.reporter.AssertNumberOfCalls(t, "Report", 2)
}

func TestRegisterFunc_RejectsScalarArgument(t *testing.T) {
	f := newFixture(t)
	err := usecase.RegisterFunc(f.registry, f.mapper, f.reporter, attribute.Tool{Name: "echo"}, nil,
		func(_ context.Context, s string) (string, error) { return s, nil })

	assert.ErrorIs(t, err, domain.ErrInvalidCandidate)
	assert.Empty(t, f.registry.GetTools())
}
