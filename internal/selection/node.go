package selection

import "slices"

// FieldNode is one requested field. Type is empty unless the field belongs to
// a specific polymorphic branch. A node without children is a leaf.
type FieldNode struct {
	field    string
	typ      string
	children []*FieldNode
}

// Node returns an untyped field node.
func Node(field string, children ...*FieldNode) *FieldNode {
	return TypedNode(field, "", children...)
}

// TypedNode returns a field node bound to one polymorphic branch.
func TypedNode(field, typ string, children ...*FieldNode) *FieldNode {
	n := &FieldNode{field: field, typ: typ}
	if len(children) > 0 {
		n.children = mergeNodes(children)
	}
	return n
}

// Field returns the field name.
func (n *FieldNode) Field() string { return n.field }

// Type returns the type tag, or "" for an untyped node.
func (n *FieldNode) Type() string { return n.typ }

// Children returns a copy of the child list.
func (n *FieldNode) Children() []*FieldNode { return slices.Clone(n.children) }

// IsLeaf reports whether the node has no children.
func (n *FieldNode) IsLeaf() bool { return len(n.children) == 0 }

func (n *FieldNode) key() nodeKey { return nodeKey{n.field, n.typ} }

// segment is the type-qualified path segment.
func (n *FieldNode) segment() string {
	if n.typ == "" {
		return n.field
	}
	return n.typ + "." + n.field
}

type nodeKey struct {
	field string
	typ   string
}

// clone deep-copies n so a Selection never shares nodes with its inputs.
func (n *FieldNode) clone() *FieldNode {
	c := &FieldNode{field: n.field, typ: n.typ}
	if len(n.children) > 0 {
		c.children = make([]*FieldNode, len(n.children))
		for i, ch := range n.children {
			c.children[i] = ch.clone()
		}
	}
	return c
}
