package ir

import (
	"fmt"
	"slices"
)

// Registry is the frozen family of views computed for one root entity.
//
// A Registry has no mutators. It is assembled once with a RegistryBuilder
// and may then be read from any number of goroutines without locking.
// The views it returns are shared with every other reader: callers must
// treat them, and their Relations and SubclassColumns, as read-only.
type Registry struct {
	root          string
	maxExtraDepth int

	views     []*ViewDefinition
	viewIndex map[string]*ViewDefinition

	embedded      []*EmbeddedViewDefinition
	embeddedIndex map[string]*EmbeddedViewDefinition

	core       map[string]string   // entity name -> first non-extended, non-subclass view
	subclasses map[string][]string // super view name -> subclass view names
}

// Root returns the root entity name.
func (r *Registry) Root() string { return r.root }

// MaxExtraDepth returns the cycle unrolling bound the registry was built with.
func (r *Registry) MaxExtraDepth() int { return r.maxExtraDepth }

// Len returns the number of entity views.
func (r *Registry) Len() int { return len(r.views) }

// Views returns every entity view in allocation order. The slice is a
// copy; the views are not.
func (r *Registry) Views() []*ViewDefinition {
	return slices.Clone(r.views)
}

// EmbeddedViews returns every embedded view in allocation order.
func (r *Registry) EmbeddedViews() []*EmbeddedViewDefinition {
	return slices.Clone(r.embedded)
}

// View looks up an entity view by name.
func (r *Registry) View(name string) (*ViewDefinition, bool) {
	v, ok := r.viewIndex[name]
	return v, ok
}

// EmbeddedView looks up an embedded view by name.
func (r *Registry) EmbeddedView(name string) (*EmbeddedViewDefinition, bool) {
	v, ok := r.embeddedIndex[name]
	return v, ok
}

// RootView returns the view of the root entity, or nil for an empty registry.
func (r *Registry) RootView() *ViewDefinition {
	if len(r.views) == 0 {
		return nil
	}
	return r.views[0]
}

// CoreView returns the first non-extended view allocated for entity.
func (r *Registry) CoreView(entity string) (*ViewDefinition, bool) {
	name, ok := r.core[entity]
	if !ok {
		return nil, false
	}
	return r.View(name)
}

// SubclassViews returns the subclass views specialising superViewName,
// in subclass declaration order.
func (r *Registry) SubclassViews(superViewName string) []*ViewDefinition {
	names := r.subclasses[superViewName]
	out := make([]*ViewDefinition, 0, len(names))
	for _, n := range names {
		out = append(out, r.viewIndex[n])
	}
	return out
}

// RegistryBuilder assembles a Registry. It is not safe for concurrent use.
type RegistryBuilder struct {
	reg   *Registry
	built bool
}

// NewRegistryBuilder starts a registry for root.
func NewRegistryBuilder(root string, maxExtraDepth int) *RegistryBuilder {
	return &RegistryBuilder{reg: &Registry{
		root:          root,
		maxExtraDepth: maxExtraDepth,
		viewIndex:     make(map[string]*ViewDefinition),
		embeddedIndex: make(map[string]*EmbeddedViewDefinition),
		core:          make(map[string]string),
		subclasses:    make(map[string][]string),
	}}
}

// AddView registers v. The first view added becomes the root view.
// Subclass views must be added after their super view.
func (b *RegistryBuilder) AddView(v *ViewDefinition) error {
	if b.built {
		return fmt.Errorf("add view %q: registry already built", v.Name)
	}
	if v.Entity == nil {
		return fmt.Errorf("add view %q: missing entity", v.Name)
	}
	if _, dup := b.reg.viewIndex[v.Name]; dup {
		return fmt.Errorf("add view %q: duplicate view name", v.Name)
	}
	if v.SuperClassViewName != "" {
		if _, ok := b.reg.viewIndex[v.SuperClassViewName]; !ok {
			return fmt.Errorf("add view %q: unknown super view %q", v.Name, v.SuperClassViewName)
		}
		b.reg.subclasses[v.SuperClassViewName] = append(b.reg.subclasses[v.SuperClassViewName], v.Name)
	}

	b.reg.views = append(b.reg.views, v)
	b.reg.viewIndex[v.Name] = v

	if !v.IsExtended && v.SuperClassViewName == "" {
		if _, ok := b.reg.core[v.Entity.Name]; !ok {
			b.reg.core[v.Entity.Name] = v.Name
		}
	}
	return nil
}

// AddEmbeddedView registers an embedded view.
func (b *RegistryBuilder) AddEmbeddedView(v *EmbeddedViewDefinition) error {
	if b.built {
		return fmt.Errorf("add embedded view %q: registry already built", v.Name)
	}
	if _, dup := b.reg.embeddedIndex[v.Name]; dup {
		return fmt.Errorf("add embedded view %q: duplicate view name", v.Name)
	}
	b.reg.embedded = append(b.reg.embedded, v)
	b.reg.embeddedIndex[v.Name] = v
	return nil
}

// Build freezes and returns the registry. Further Add calls fail.
func (b *RegistryBuilder) Build() *Registry {
	b.built = true
	return b.reg
}
