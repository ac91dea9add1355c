// Package catalog is the explicit registration table of candidate tool types.
// Applications add their types with the markers that describe them; the
// catalog then serves as the attribute reader and as the source of a scan.
package catalog

import (
	"reflect"
	"sync"

	"github.com/i2y/mcpboot/internal/usecase"
)

// Catalog holds candidate types in insertion order with their markers.
type Catalog struct {
	mu      sync.RWMutex
	classes []reflect.Type
	markers map[reflect.Type][]any
	types   map[string]reflect.Type
}

var _ usecase.AttributeReader = (*Catalog)(nil)

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		markers: make(map[reflect.Type][]any),
		types:   make(map[string]reflect.Type),
	}
}

// Register adds T to the catalog with the given markers.
func Register[T any](c *Catalog, markers ...any) *Catalog {
	return c.Add(reflect.TypeFor[T](), markers...)
}

// Add adds class to the catalog. Adding a class twice appends the new
// markers; the class is scanned once. Struct parameter types of the class
// entry point become resolvable by name.
func (c *Catalog) Add(class reflect.Type, markers ...any) *Catalog {
	if class == nil {
		return c
	}
	key := normalize(class)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, seen := c.markers[key]; !seen {
		c.classes = append(c.classes, key)
		c.markers[key] = nil
	}
	c.markers[key] = append(c.markers[key], markers...)
	c.types[key.String()] = key

	if key.Kind() != reflect.Interface {
		if m, ok := reflect.PointerTo(key).MethodByName(usecase.EntryPointName); ok {
			for i := 1; i < m.Type.NumIn(); i++ {
				if p := normalize(m.Type.In(i)); p.Kind() == reflect.Struct {
					c.types[p.String()] = p
				}
			}
		}
	}
	return c
}

// AddType makes types resolvable by name without making them candidates.
func (c *Catalog) AddType(types ...reflect.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range types {
		if t == nil {
			continue
		}
		t = normalize(t)
		c.types[t.String()] = t
	}
}

// Classes returns the candidate types in insertion order.
func (c *Catalog) Classes() []reflect.Type {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]reflect.Type(nil), c.classes...)
}

// FirstClassMetadata returns the first marker of the attribute type declared for class.
func (c *Catalog) FirstClassMetadata(class reflect.Type, attribute reflect.Type) (any, bool) {
	if class == nil || attribute == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, m := range c.markers[normalize(class)] {
		mt := reflect.TypeOf(m)
		if mt == attribute || (mt != nil && mt.Kind() == reflect.Pointer && mt.Elem() == attribute) {
			return m, true
		}
	}
	return nil, false
}

// LookupType resolves a type by its reflect.Type.String name, e.g. "demo.GreetInput".
func (c *Catalog) LookupType(name string) (reflect.Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.types[name]
	return t, ok
}

func normalize(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}
