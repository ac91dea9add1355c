package schemamapper

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

const defsPrefix = "#/$defs/"

var (
	timeType = reflect.TypeFor[time.Time]()
	urlType  = reflect.TypeFor[url.URL]()
)

// subschemaKeys are built recursively; everything else on a node is decoded
// by kin-openapi directly.
var subschemaKeys = []string{
	"$ref", "$defs", "$id", "$schema", "$comment",
	"properties", "patternProperties", "items", "prefixItems", "additionalProperties",
	"oneOf", "anyOf", "allOf", "not", "const",
}

// isRecursive reports whether a struct type reaches itself through its fields.
func isRecursive(t reflect.Type) bool {
	return walkStructs(t, map[reflect.Type]bool{}, map[reflect.Type]bool{})
}

func walkStructs(t reflect.Type, onPath, done map[reflect.Type]bool) bool {
	t = elemType(t)
	if t.Kind() != reflect.Struct || t == timeType || t == urlType || done[t] {
		return false
	}
	if onPath[t] {
		return true
	}
	onPath[t] = true
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() && !f.Anonymous {
			continue
		}
		if walkStructs(f.Type, onPath, done) {
			return true
		}
	}
	delete(onPath, t)
	done[t] = true
	return false
}

// elemType strips pointers and containers down to the value type.
func elemType(t reflect.Type) reflect.Type {
	for {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Map:
			t = t.Elem()
		default:
			return t
		}
	}
}

// markNullable flags every property decoded from a Go pointer, slice, map or
// interface as nullable, since encoding/json accepts null for those.
func markNullable(doc map[string]any, t reflect.Type) {
	annotate(doc, t)
	defs, _ := doc["$defs"].(map[string]any)
	if defs == nil {
		return
	}
	named := map[string]reflect.Type{}
	collectNamed(t, named)
	for name, def := range defs {
		node, ok := def.(map[string]any)
		if dt, known := named[name]; ok && known {
			annotate(node, dt)
		}
	}
}

func collectNamed(t reflect.Type, named map[string]reflect.Type) {
	t = elemType(t)
	if t.Kind() != reflect.Struct || t == timeType || t == urlType {
		return
	}
	if _, seen := named[t.Name()]; seen && t.Name() != "" {
		return
	}
	if t.Name() != "" {
		named[t.Name()] = t
	}
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); f.IsExported() || f.Anonymous {
			collectNamed(f.Type, named)
		}
	}
}

func annotate(node map[string]any, t reflect.Type) {
	if node == nil {
		return
	}
	if _, isRef := node["$ref"]; isRef {
		return
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if items, ok := node["items"].(map[string]any); ok {
			annotate(items, t.Elem())
		}
	case reflect.Map:
		if values, ok := node["additionalProperties"].(map[string]any); ok {
			annotate(values, t.Elem())
		}
	case reflect.Struct:
		if props, ok := node["properties"].(map[string]any); ok {
			annotateFields(props, t)
		}
	}
}

func annotateFields(props map[string]any, t reflect.Type) {
	if t == timeType || t == urlType {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if f.Anonymous && name == "" {
			embedded := f.Type
			if embedded.Kind() == reflect.Pointer {
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				annotateFields(props, embedded)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		prop, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		switch f.Type.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
			prop["nullable"] = true
		}
		annotate(prop, f.Type)
	}
}

// validatorBuilder converts a JSON Schema document into kin-openapi schemas.
// $defs references resolve to shared schema values, so recursive types
// become cyclic validators bounded by the depth of the payload.
type validatorBuilder struct {
	defs  map[string]any
	built map[string]*openapi3.Schema
}

func buildValidator(doc map[string]any) (*openapi3.Schema, error) {
	defs, _ := doc["$defs"].(map[string]any)
	b := &validatorBuilder{defs: defs, built: map[string]*openapi3.Schema{}}
	return b.build(doc)
}

func (b *validatorBuilder) build(node any) (*openapi3.Schema, error) {
	switch n := node.(type) {
	case bool:
		anything := &openapi3.Schema{Nullable: true}
		if n {
			return anything, nil
		}
		return &openapi3.Schema{Not: &openapi3.SchemaRef{Value: anything}}, nil
	case map[string]any:
		if ref, ok := n["$ref"].(string); ok {
			target, err := b.resolve(ref)
			if err != nil {
				return nil, err
			}
			if nullable, _ := n["nullable"].(bool); nullable {
				return &openapi3.Schema{Nullable: true, AnyOf: openapi3.SchemaRefs{{Value: target}}}, nil
			}
			return target, nil
		}
		return b.buildObject(n)
	default:
		return nil, fmt.Errorf("unexpected schema node %T", node)
	}
}

func (b *validatorBuilder) resolve(ref string) (*openapi3.Schema, error) {
	name, ok := strings.CutPrefix(ref, defsPrefix)
	if !ok {
		return nil, fmt.Errorf("unsupported reference %q", ref)
	}
	if s, ok := b.built[name]; ok {
		return s, nil
	}
	def, ok := b.defs[name]
	if !ok {
		return nil, fmt.Errorf("unresolved reference %q", ref)
	}
	placeholder := &openapi3.Schema{}
	b.built[name] = placeholder
	s, err := b.build(def)
	if err != nil {
		return nil, err
	}
	*placeholder = *s
	return placeholder, nil
}

func (b *validatorBuilder) buildObject(n map[string]any) (*openapi3.Schema, error) {
	scalar := make(map[string]any, len(n))
	for k, v := range n {
		scalar[k] = v
	}
	for _, k := range subschemaKeys {
		delete(scalar, k)
	}
	if c, ok := n["const"]; ok {
		scalar["enum"] = []any{c}
	}
	text, err := json.Marshal(scalar)
	if err != nil {
		return nil, err
	}
	s := &openapi3.Schema{}
	if err := json.Unmarshal(text, s); err != nil {
		return nil, err
	}

	if props, ok := n["properties"].(map[string]any); ok {
		s.Properties = make(openapi3.Schemas, len(props))
		for name, prop := range props {
			ps, err := b.build(prop)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", name, err)
			}
			s.Properties[name] = &openapi3.SchemaRef{Value: ps}
		}
	}
	if items, ok := n["items"]; ok {
		is, err := b.build(items)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		s.Items = &openapi3.SchemaRef{Value: is}
	}
	switch ap := n["additionalProperties"].(type) {
	case bool:
		s.AdditionalProperties = openapi3.AdditionalProperties{Has: openapi3.BoolPtr(ap)}
	case map[string]any:
		as, err := b.build(ap)
		if err != nil {
			return nil, fmt.Errorf("additionalProperties: %w", err)
		}
		s.AdditionalProperties = openapi3.AdditionalProperties{Schema: &openapi3.SchemaRef{Value: as}}
	}
	if s.OneOf, err = b.buildAll(n["oneOf"]); err != nil {
		return nil, fmt.Errorf("oneOf: %w", err)
	}
	if s.AnyOf, err = b.buildAll(n["anyOf"]); err != nil {
		return nil, fmt.Errorf("anyOf: %w", err)
	}
	if s.AllOf, err = b.buildAll(n["allOf"]); err != nil {
		return nil, fmt.Errorf("allOf: %w", err)
	}
	if not, ok := n["not"]; ok {
		ns, err := b.build(not)
		if err != nil {
			return nil, fmt.Errorf("not: %w", err)
		}
		s.Not = &openapi3.SchemaRef{Value: ns}
	}
	return s, nil
}

func (b *validatorBuilder) buildAll(node any) (openapi3.SchemaRefs, error) {
	list, ok := node.([]any)
	if !ok {
		return nil, nil
	}
	refs := make(openapi3.SchemaRefs, 0, len(list))
	for _, item := range list {
		s, err := b.build(item)
		if err != nil {
			return nil, err
		}
		refs = append(refs, &openapi3.SchemaRef{Value: s})
	}
	return refs, nil
}
