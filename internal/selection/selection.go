package selection

import (
	"slices"
	"strings"
)

// Selection is an immutable, path-indexed tree of requested fields.
//
// The zero value and nil are both empty selections. All operations return
// new Selections and never modify the receiver.
type Selection struct {
	immediate []*FieldNode

	// fields maps every indexed path to the nodes found there. Two typed
	// variants of one field share their simple path.
	fields map[string][]*FieldNode

	// paths holds the distinct indexed paths in sorted order.
	paths []string
}

// New builds a Selection from root nodes. Duplicate (field, type) pairs are
// merged, and the nodes are copied so later changes to the inputs cannot
// leak in.
func New(nodes ...*FieldNode) *Selection {
	s := &Selection{
		immediate: mergeNodes(nodes),
		fields:    make(map[string][]*FieldNode),
	}
	for _, n := range s.immediate {
		s.index(n, nil, nil)
	}
	s.paths = make([]string, 0, len(s.fields))
	for p := range s.fields {
		s.paths = append(s.paths, p)
	}
	slices.Sort(s.paths)
	return s
}

func (s *Selection) index(n *FieldNode, simple, qualified []string) {
	simple = append(slices.Clone(simple), n.field)
	qualified = append(slices.Clone(qualified), n.segment())

	sp := strings.Join(simple, "/")
	s.fields[sp] = append(s.fields[sp], n)
	if qp := strings.Join(qualified, "/"); qp != sp {
		s.fields[qp] = append(s.fields[qp], n)
	}

	for _, ch := range n.children {
		s.index(ch, simple, qualified)
	}
}

// Immediate returns the root-level nodes in insertion order.
func (s *Selection) Immediate() []*FieldNode {
	if s == nil {
		return nil
	}
	return slices.Clone(s.immediate)
}

// IsEmpty reports whether nothing is selected.
func (s *Selection) IsEmpty() bool {
	return s == nil || len(s.immediate) == 0
}

// Paths returns every indexed path, sorted. Type-qualified spellings are
// included for typed nodes.
func (s *Selection) Paths() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.paths)
}

// Contains reports whether any indexed path matches pattern.
// An empty pattern matches nothing. It panics with *PatternError if pattern
// is malformed.
func (s *Selection) Contains(pattern string) bool {
	pattern, ok := normalizePattern(pattern)
	if !ok {
		return false
	}
	m := mustCompile(pattern)
	if s == nil {
		return false
	}
	for _, p := range s.paths {
		if m.match(p) {
			return true
		}
	}
	return false
}

// SubSelect unions the children of every node whose path matches pattern.
// It returns nil if nothing matched or the matched nodes are all leaves.
// It panics with *PatternError if pattern is malformed.
func (s *Selection) SubSelect(pattern string) *Selection {
	pattern, ok := normalizePattern(pattern)
	if !ok {
		return nil
	}
	m := mustCompile(pattern)
	if s == nil {
		return nil
	}

	var children []*FieldNode
	for _, n := range s.matching(m) {
		children = append(children, n.children...)
	}
	if len(children) == 0 {
		return nil
	}
	return New(children...)
}

// matching returns the distinct nodes whose simple or qualified path
// matches, in path order.
func (s *Selection) matching(m matcher) []*FieldNode {
	var (
		out  []*FieldNode
		seen = make(map[*FieldNode]bool)
	)
	for _, p := range s.paths {
		if !m.match(p) {
			continue
		}
		for _, n := range s.fields[p] {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

// TypeSelect gathers every node tagged with typeName, at any depth, into a
// new root set. It returns nil when no node carries the tag.
func (s *Selection) TypeSelect(typeName string) *Selection {
	if s == nil || typeName == "" {
		return nil
	}
	var found []*FieldNode
	var walk func([]*FieldNode)
	walk = func(nodes []*FieldNode) {
		for _, n := range nodes {
			if n.typ == typeName {
				found = append(found, n)
			}
			walk(n.children)
		}
	}
	walk(s.immediate)
	if len(found) == 0 {
		return nil
	}
	return New(found...)
}

// ForType narrows the root level to what applies to one concrete type:
// untyped nodes plus nodes tagged with typeName, with the root-level tags
// dropped. Nested levels are left alone. It returns nil when nothing applies.
func (s *Selection) ForType(typeName string) *Selection {
	if s == nil {
		return nil
	}
	var keep []*FieldNode
	for _, n := range s.immediate {
		if n.typ == "" || n.typ == typeName {
			keep = append(keep, n)
		}
	}
	if len(keep) == 0 {
		return nil
	}
	// Untyped and typed variants of one field collapse into one node.
	untyped := make([]*FieldNode, len(keep))
	for i, n := range keep {
		untyped[i] = &FieldNode{field: n.field, children: n.children}
	}
	return New(untyped...)
}

// OnlyType is like ForType but keeps only the nodes explicitly tagged with
// typeName.
func (s *Selection) OnlyType(typeName string) *Selection {
	if s == nil || typeName == "" {
		return nil
	}
	var keep []*FieldNode
	for _, n := range s.immediate {
		if n.typ == typeName {
			keep = append(keep, &FieldNode{field: n.field, children: n.children})
		}
	}
	if len(keep) == 0 {
		return nil
	}
	return New(keep...)
}

// String renders the selection in a compact GraphQL-like form, with type
// tags as field[Type].
func (s *Selection) String() string {
	if s.IsEmpty() {
		return "{}"
	}
	var b strings.Builder
	writeNodes(&b, s.immediate)
	return b.String()
}

func writeNodes(b *strings.Builder, nodes []*FieldNode) {
	b.WriteByte('{')
	for i, n := range nodes {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(n.field)
		if n.typ != "" {
			b.WriteString("[" + n.typ + "]")
		}
		if len(n.children) > 0 {
			b.WriteByte(' ')
			writeNodes(b, n.children)
		}
	}
	b.WriteByte('}')
}
