package measurement

import (
	"sort"
	"strings"
	"sync"
)

// Shape tells whether a field contributes one wire pair or a repeatable group.
type Shape int

const (
	ShapeSingle Shape = iota
	ShapeCompound
)

func (s Shape) String() string {
	switch s {
	case ShapeSingle:
		return "single"
	case ShapeCompound:
		return "compound"
	default:
		return "unknown"
	}
}

// Descriptor is the registry entry for a field kind.
type Descriptor struct {
	Kind  FieldKind
	Shape Shape

	// WireKey is set for single fields.
	WireKey  string
	Monetary bool

	// Compound is set for compound fields.
	Compound *CompoundSpec
}

// Registry resolves field kinds and shorthand constants. It is read-only after
// construction and safe to share.
type Registry struct {
	fields         map[FieldKind]Descriptor
	hitTypes       map[string]string
	productActions map[string]string
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return newRegistry(singleCatalog, compoundCatalog, hitTypeCatalog, productActionCatalog)
})

// DefaultRegistry returns the compiled-in Measurement Protocol catalog.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

func newRegistry(singles []singleEntry, compounds []CompoundSpec, hitTypes, actions []string) *Registry {
	r := &Registry{
		fields:         make(map[FieldKind]Descriptor, len(singles)+len(compounds)),
		hitTypes:       make(map[string]string, len(hitTypes)),
		productActions: make(map[string]string, len(actions)),
	}
	for _, entry := range singles {
		r.fields[entry.kind] = Descriptor{
			Kind:     entry.kind,
			Shape:    ShapeSingle,
			WireKey:  entry.wireKey,
			Monetary: entry.monetary,
		}
	}
	for i := range compounds {
		spec := compounds[i]
		r.fields[spec.Kind] = Descriptor{
			Kind:     spec.Kind,
			Shape:    ShapeCompound,
			Compound: &spec,
		}
	}
	for _, value := range hitTypes {
		r.hitTypes[shorthandKey(value)] = value
	}
	for _, value := range actions {
		r.productActions[shorthandKey(value)] = value
	}
	return r
}

// Lookup resolves a field kind.
func (r *Registry) Lookup(kind FieldKind) (Descriptor, error) {
	desc, ok := r.fields[kind]
	if !ok {
		return Descriptor{}, &UnknownFieldError{Field: kind}
	}
	return desc, nil
}

// HitType resolves a hit-type shorthand such as "pageview" or "Event".
func (r *Registry) HitType(name string) (string, error) {
	value, ok := r.hitTypes[shorthandKey(name)]
	if !ok {
		return "", &UnknownConstantError{Kind: "hit type", Name: name}
	}
	return value, nil
}

// ProductAction resolves a product-action shorthand such as "purchase" or
// "CheckoutOption".
func (r *Registry) ProductAction(name string) (string, error) {
	value, ok := r.productActions[shorthandKey(name)]
	if !ok {
		return "", &UnknownConstantError{Kind: "product action", Name: name}
	}
	return value, nil
}

// Descriptors returns every registered field sorted by kind.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.fields))
	for _, desc := range r.fields {
		out = append(out, desc)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Kind < out[j].Kind
	})
	return out
}

func shorthandKey(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "", "-", "").Replace(name)
}
