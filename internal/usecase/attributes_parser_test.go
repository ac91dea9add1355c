package usecase_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/mcpboot/internal/adapter/outbound/catalog"
	"github.com/i2y/mcpboot/internal/usecase"
	"github.com/i2y/mcpboot/pkg/attribute"
)

func TestAttributesParser_ParseToolAttribute(t *testing.T) {
	assert := assert.New(t)

	c := catalog.New()
	catalog.Register[greetTool](c, attribute.Tool{Name: "greet", Description: "Says hello"})
	catalog.Register[pingTool](c, &attribute.Tool{Name: "ping"})
	catalog.Register[noEntryTool](c)
	parser := usecase.NewAttributesParser(c)

	marker, ok := parser.ParseToolAttribute(reflect.TypeFor[greetTool]())
	assert.True(ok)
	assert.Equal(attribute.Tool{Name: "greet", Description: "Says hello"}, marker)

	marker, ok = parser.ParseToolAttribute(reflect.TypeFor[*pingTool]())
	assert.True(ok, "pointer markers and pointer types are accepted")
	assert.Equal("ping", marker.Name)

	_, ok = parser.ParseToolAttribute(reflect.TypeFor[noEntryTool]())
	assert.False(ok)
}

func TestAttributesParser_ParseAnnotationAttributes(t *testing.T) {
	yes, no := true, false

	tests := []struct {
		name    string
		markers []any
		want    *struct{ readOnly, destructive, idempotent, openWorld *bool }
	}{
		{
			name:    "No hints declared",
			markers: []any{attribute.Tool{Name: "t"}},
			want:    nil,
		},
		{
			name: "All hints declared false",
			markers: []any{
				attribute.IsReadonly{}, attribute.IsDestructive{},
				attribute.IsIdempotent{}, attribute.IsOpenWorld{},
			},
			want: &struct{ readOnly, destructive, idempotent, openWorld *bool }{&no, &no, &no, &no},
		},
		{
			name:    "Only read-only declared",
			markers: []any{attribute.Readonly()},
			want:    &struct{ readOnly, destructive, idempotent, openWorld *bool }{readOnly: &yes},
		},
		{
			name:    "First marker of a kind wins",
			markers: []any{attribute.Destructive(), attribute.IsDestructive{Destructive: false}, attribute.OpenWorld()},
			want:    &struct{ readOnly, destructive, idempotent, openWorld *bool }{destructive: &yes, openWorld: &yes},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			c := catalog.New().Add(reflect.TypeFor[greetTool](), tt.markers...)
			hints := usecase.NewAttributesParser(c).ParseAnnotationAttributes(reflect.TypeFor[greetTool]())

			if tt.want == nil {
				assert.Nil(hints)
				return
			}
			require.NotNil(t, hints)
			assert.Equal(tt.want.readOnly, hints.ReadOnlyHint)
			assert.Equal(tt.want.destructive, hints.DestructiveHint)
			assert.Equal(tt.want.idempotent, hints.IdempotentHint)
			assert.Equal(tt.want.openWorld, hints.OpenWorldHint)
		})
	}
}
