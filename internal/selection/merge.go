package selection

// Merge returns the structural union of the given selections.
//
// Nodes sharing a (field, type) pair at the same position are unified and
// their children merged by the same rule. The result does not depend on
// argument order or on repetition, when compared as a set of paths.
// Nil selections are skipped; Merge of nothing is an empty Selection.
func Merge(sels ...*Selection) *Selection {
	var nodes []*FieldNode
	for _, s := range sels {
		if s == nil {
			continue
		}
		nodes = append(nodes, s.immediate...)
	}
	return New(nodes...)
}

// Merge returns the union of s and others. s is left unchanged.
func (s *Selection) Merge(others ...*Selection) *Selection {
	return Merge(append([]*Selection{s}, others...)...)
}

// mergeNodes unifies nodes by (field, type), keeping first-seen order.
// Inputs are never modified; the result is a fresh tree.
func mergeNodes(nodes []*FieldNode) []*FieldNode {
	var (
		order  []nodeKey
		groups = make(map[nodeKey][]*FieldNode)
	)
	for _, n := range nodes {
		if n == nil {
			continue
		}
		k := n.key()
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], n)
	}

	out := make([]*FieldNode, 0, len(order))
	for _, k := range order {
		var children []*FieldNode
		for _, n := range groups[k] {
			children = append(children, n.children...)
		}
		merged := &FieldNode{field: k.field, typ: k.typ}
		if len(children) > 0 {
			merged.children = mergeNodes(children)
		}
		out = append(out, merged)
	}
	return out
}
