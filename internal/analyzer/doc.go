// Package analyzer computes the view registry for a root entity.
//
// The analyzer walks the entity relation graph once per root, before any
// request is served, and produces a frozen ir.Registry holding every view a
// selection over that root can resolve to.
//
// ARCHITECTURE:
//
// First visit:
// A depth-first walk starts at the root. Each branch carries its own set of
// visited entity names, copied before every descent, so two branches meeting
// at the same entity (a diamond) both get a normal view. A relation that
// leads back to an entity already on the branch closes a cycle.
//
// Cycle closing:
// With max extra depth d > 0 a closed cycle gets a level 1 extended view,
// which is queued. Each worklist round expands the queued level r views by
// one relation hop into level r+1 extended views, and only level r < d views
// are queued. Level d views are terminal: they expose no relations. With
// d = 0 a cyclic relation is not represented at all.
//
// For a self-referencing Node{next: Node} and d = 2:
//
//	NodeView      -next-> NodeNodeView1 (extended, level 1)
//	NodeNodeView1 -next-> NodeNodeView2 (extended, level 2, terminal)
//
// Inheritance:
// Every view of an entity with subclasses gets one subclass view per
// subclass. A subclass view starts from its super view's relations, keyed by
// field name, and resolves only the relations the subclass adds.
//
// Naming:
// View names come from ir.ViewName with one occurrence counter per target
// entity per root. Relations, subclasses and the worklist are all processed
// in declaration order, so the same graph always yields the same names.
//
// TERMINATION:
//
// A branch's visited set grows with every first-visit descent and is bounded
// by the number of entities. Extended views only ever create views one level
// deeper, and levels stop at d. Both bounds are finite.
package analyzer
