package ir

import "slices"

// EntityMetadata describes one persistent entity as seen by schema reflection.
// It is supplied once and never mutated by fetchview.
type EntityMetadata struct {
	Name          string         `json:"name"`
	QualifiedName string         `json:"qualified_name"`
	IDField       string         `json:"id_field"`
	Columns       []string       `json:"columns"`
	LazyColumns   []string       `json:"lazy_columns,omitempty"`
	Relations     []RelationEdge `json:"relations,omitempty"`
	Embedded      []EmbeddedEdge `json:"embedded,omitempty"`
	SubClasses    []string       `json:"sub_classes,omitempty"`  // qualified names
	SuperClass    string         `json:"super_class,omitempty"` // qualified name
}

// RelationEdge is a navigable association from one entity to another.
type RelationEdge struct {
	FieldName        string `json:"field_name"`
	TargetEntityName string `json:"target_entity_name"`
	IsCollection     bool   `json:"is_collection"`
}

// EmbeddedEdge is a value-object field stored inline with its owner.
type EmbeddedEdge struct {
	FieldName string `json:"field_name"`
	TypeName  string `json:"type_name"`
}

// EmbeddableMetadata describes a value object that has no identity of its own.
// Embeddables may nest other embeddables but never hold relations.
type EmbeddableMetadata struct {
	Name     string         `json:"name"`
	Columns  []string       `json:"columns"`
	Embedded []EmbeddedEdge `json:"embedded,omitempty"`
}

// Relation returns the relation declared under field.
func (e *EntityMetadata) Relation(field string) (RelationEdge, bool) {
	for _, r := range e.Relations {
		if r.FieldName == field {
			return r, true
		}
	}
	return RelationEdge{}, false
}

// Embedding returns the embedded edge declared under field.
func (e *EntityMetadata) Embedding(field string) (EmbeddedEdge, bool) {
	for _, emb := range e.Embedded {
		if emb.FieldName == field {
			return emb, true
		}
	}
	return EmbeddedEdge{}, false
}

// HasColumn reports whether field is an eagerly loaded column.
func (e *EntityMetadata) HasColumn(field string) bool {
	return field == e.IDField || slices.Contains(e.Columns, field)
}

// HasLazyColumn reports whether field is a lazily loaded column.
func (e *EntityMetadata) HasLazyColumn(field string) bool {
	return slices.Contains(e.LazyColumns, field)
}

// Graph is the read-only entity relation graph handed to the analyzer.
//
// Entities and embeddables keep their declaration order. Lookups accept
// either the simple or the qualified entity name. When a name is declared
// twice the first declaration wins; compiler.ValidateGraph reports the clash.
type Graph struct {
	entities        []*EntityMetadata
	embeddables     []*EmbeddableMetadata
	entityIndex     map[string]*EntityMetadata
	embeddableIndex map[string]*EmbeddableMetadata
}

// NewGraph builds a Graph and its lookup indices.
func NewGraph(entities []*EntityMetadata, embeddables []*EmbeddableMetadata) *Graph {
	g := &Graph{
		entities:        slices.Clone(entities),
		embeddables:     slices.Clone(embeddables),
		entityIndex:     make(map[string]*EntityMetadata, len(entities)*2),
		embeddableIndex: make(map[string]*EmbeddableMetadata, len(embeddables)),
	}
	for _, e := range entities {
		if _, ok := g.entityIndex[e.Name]; !ok {
			g.entityIndex[e.Name] = e
		}
		if e.QualifiedName != "" {
			if _, ok := g.entityIndex[e.QualifiedName]; !ok {
				g.entityIndex[e.QualifiedName] = e
			}
		}
	}
	for _, emb := range embeddables {
		if _, ok := g.embeddableIndex[emb.Name]; !ok {
			g.embeddableIndex[emb.Name] = emb
		}
	}
	return g
}

// Entities returns all entities in declaration order.
func (g *Graph) Entities() []*EntityMetadata {
	return slices.Clone(g.entities)
}

// Embeddables returns all embeddables in declaration order.
func (g *Graph) Embeddables() []*EmbeddableMetadata {
	return slices.Clone(g.embeddables)
}

// Entity looks up an entity by simple or qualified name.
func (g *Graph) Entity(ref string) (*EntityMetadata, bool) {
	e, ok := g.entityIndex[ref]
	return e, ok
}

// Embeddable looks up an embeddable by name.
func (g *Graph) Embeddable(name string) (*EmbeddableMetadata, bool) {
	emb, ok := g.embeddableIndex[name]
	return emb, ok
}

// SubClasses resolves the declared subclasses of e, skipping unknown names.
func (g *Graph) SubClasses(e *EntityMetadata) []*EntityMetadata {
	var subs []*EntityMetadata
	for _, ref := range e.SubClasses {
		if sub, ok := g.Entity(ref); ok {
			subs = append(subs, sub)
		}
	}
	return subs
}
