package selection

// Builder assembles a Selection field by field.
//
//	sel := selection.NewBuilder().
//		Field("interpret", selection.Node("companies", selection.Node("company"))).
//		Field("producer").
//		Build()
type Builder struct {
	nodes []*FieldNode
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Field adds an untyped field with optional subfields.
func (b *Builder) Field(name string, sub ...*FieldNode) *Builder {
	b.nodes = append(b.nodes, Node(name, sub...))
	return b
}

// TypedField adds a field that only applies to the given subtype.
func (b *Builder) TypedField(name, typ string, sub ...*FieldNode) *Builder {
	b.nodes = append(b.nodes, TypedNode(name, typ, sub...))
	return b
}

// Build returns the Selection. The Builder may keep being used afterwards;
// the built Selection does not observe later additions.
func (b *Builder) Build() *Selection {
	return New(b.nodes...)
}
