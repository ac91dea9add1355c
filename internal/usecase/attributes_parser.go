package usecase

import (
	"reflect"

	"github.com/i2y/mcpboot/internal/domain"
	"github.com/i2y/mcpboot/pkg/attribute"
)

// AttributesParser extracts tool metadata from the markers of a candidate type.
type AttributesParser struct {
	reader AttributeReader
}

// NewAttributesParser creates an AttributesParser reading markers from reader.
func NewAttributesParser(reader AttributeReader) *AttributesParser {
	return &AttributesParser{reader: reader}
}

// ParseToolAttribute returns the Tool marker of class, if any.
func (p *AttributesParser) ParseToolAttribute(class reflect.Type) (attribute.Tool, bool) {
	return firstMarker[attribute.Tool](p.reader, class)
}

// ParseAnnotationAttributes collects the behavior hint markers of class.
// It returns nil when no hint is declared, so "no opinion" stays distinct
// from hints explicitly set to false.
func (p *AttributesParser) ParseAnnotationAttributes(class reflect.Type) *domain.BehaviorHints {
	hints := domain.BehaviorHints{}
	if m, ok := firstMarker[attribute.IsReadonly](p.reader, class); ok {
		hints.ReadOnlyHint = &m.ReadOnlyHint
	}
	if m, ok := firstMarker[attribute.IsDestructive](p.reader, class); ok {
		hints.DestructiveHint = &m.Destructive
	}
	if m, ok := firstMarker[attribute.IsIdempotent](p.reader, class); ok {
		hints.IdempotentHint = &m.Idempotent
	}
	if m, ok := firstMarker[attribute.IsOpenWorld](p.reader, class); ok {
		hints.OpenWorldHint = &m.OpenWorld
	}

	if hints.ReadOnlyHint == nil && hints.DestructiveHint == nil &&
		hints.IdempotentHint == nil && hints.OpenWorldHint == nil {
		return nil
	}
	return &hints
}

func firstMarker[T any](reader AttributeReader, class reflect.Type) (T, bool) {
	var zero T
	v, ok := reader.FirstClassMetadata(class, reflect.TypeFor[T]())
	if !ok {
		return zero, false
	}
	switch m := v.(type) {
	case T:
		return m, true
	case *T:
		if m != nil {
			return *m, true
		}
	}
	return zero, false
}
