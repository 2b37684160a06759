// Package fetchplan turns a request Selection into the tree of relations a
// loader should fetch eagerly.
//
// A Plan is computed against a view registry built once by the analyzer.
// Translation is a pure function of (registry, view, selection): it keeps
// no state between calls, and because a Selection is finite it needs no
// cycle detection even when the view graph it walks was unrolled from a
// cyclic schema.
//
// # SELECTION MATCHING
//
// For each relation of the current view, in view order, the relation is
// planned when the selection contains its field. The child plan is
// translated from the relation's sub-selection. A relation selected without
// sub-fields yields a leaf child: eager columns and embedded values, no
// fetches. Field names that the view does not know are ignored.
//
// # POLYMORPHISM
//
// Type tags in a selection (GraphQL inline fragments) restrict a field to
// one concrete entity. Each node narrows the selection to its own entity,
// and each subclass view of the node becomes a Branch holding only what
// that subclass adds. Subclass-only fields never appear in a sibling
// branch.
//
// # TRUNCATION
//
// A selection can be deeper than the registry's max extra depth allows
// along a cyclic relation. The plan stops where the views stop; the
// relations that were requested but had no view to expand into are listed
// in Truncated as dotted paths rather than reported as errors.
package fetchplan
