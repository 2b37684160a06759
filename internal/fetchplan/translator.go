package fetchplan

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/fetchview/internal/ir"
	"github.com/roach88/fetchview/internal/selection"
)

// ErrUnknownView is returned by Translator.PlanFrom for a view name the
// registry does not hold.
var ErrUnknownView = errors.New("fetchplan: unknown view")

// Translator plans selections against one registry. It is safe for
// concurrent use because the registry is read-only.
type Translator struct {
	reg *ir.Registry
}

// NewTranslator returns a Translator bound to reg.
func NewTranslator(reg *ir.Registry) *Translator {
	return &Translator{reg: reg}
}

// Registry returns the registry the translator plans against.
func (t *Translator) Registry() *ir.Registry { return t.reg }

// Plan translates sel against the registry's root view.
func (t *Translator) Plan(sel *selection.Selection) *Plan {
	return Translate(t.reg, t.reg.RootView(), sel)
}

// PlanFrom translates sel starting at the named view.
func (t *Translator) PlanFrom(viewName string, sel *selection.Selection) (*Plan, error) {
	v, ok := t.reg.View(viewName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, viewName)
	}
	return Translate(t.reg, v, sel), nil
}

// Translate computes the plan for sel at view. A nil or empty selection is
// a leaf request: all eager columns and embedded values, no fetches.
func Translate(reg *ir.Registry, view *ir.ViewDefinition, sel *selection.Selection) *Plan {
	if view == nil {
		return nil
	}
	t := translation{reg: reg}
	return t.node(view, sel, "")
}

type translation struct {
	reg *ir.Registry
}

// node plans a view for its own entity.
func (t translation) node(v *ir.ViewDefinition, raw *selection.Selection, prefix string) *Plan {
	e := v.Entity
	leaf := raw.IsEmpty()
	sel := raw.ForType(e.Name)

	p := &Plan{View: v.Name, Entity: e.Name}
	p.Columns = append(p.Columns, e.IDField)
	for _, c := range e.Columns {
		if c != e.IDField && (leaf || sel.Contains(c)) {
			p.Columns = append(p.Columns, c)
		}
	}
	if !leaf {
		for _, c := range e.LazyColumns {
			if sel.Contains(c) {
				p.LazyColumns = append(p.LazyColumns, c)
			}
		}
	}
	p.Embedded = t.embedded(v.Embedded, sel, leaf)

	if !leaf {
		for _, rel := range v.Relations {
			if sel.Contains(rel.Field) {
				p.Fetches = append(p.Fetches, t.fetch(rel, sel, join(prefix, rel.Field)))
			}
		}
		p.Truncated = truncated(v, sel, prefix, func(string) bool { return true }, "")
	}
	p.Subtypes = t.branches(v, raw, prefix)
	return p
}

// branches plans one Branch per subclass view of v that has anything to
// load. A branch carries the fields its subclass adds, plus fields the
// selection tags with the subclass explicitly.
func (t translation) branches(v *ir.ViewDefinition, raw *selection.Selection, prefix string) []Branch {
	var out []Branch
	for _, sv := range t.reg.SubclassViews(v.Name) {
		if b := t.branch(sv, v.Entity, raw, prefix); b != nil {
			out = append(out, Branch{Type: sv.Entity.Name, Plan: b})
		}
	}
	return out
}

func (t translation) branch(sv *ir.ViewDefinition, super *ir.EntityMetadata, raw *selection.Selection, prefix string) *Plan {
	e := sv.Entity
	leaf := raw.IsEmpty()
	sel := raw.ForType(e.Name)
	tagged := raw.OnlyType(e.Name)

	own := func(field string) bool {
		if leaf {
			return false
		}
		return tagged.Contains(field)
	}
	wants := func(field string, added []string) bool {
		if leaf {
			return slices.Contains(added, field)
		}
		return sel.Contains(field) && (slices.Contains(added, field) || own(field))
	}

	p := &Plan{View: sv.Name, Entity: e.Name}
	for _, c := range e.Columns {
		if c != e.IDField && wants(c, sv.SubclassColumns) {
			p.Columns = append(p.Columns, c)
		}
	}
	if !leaf {
		for _, c := range e.LazyColumns {
			if wants(c, sv.SubclassColumns) {
				p.LazyColumns = append(p.LazyColumns, c)
			}
		}
	}

	var added []ir.EmbeddedRef
	for _, ref := range sv.Embedded {
		if _, inherited := super.Embedding(ref.Field); !inherited || own(ref.Field) {
			added = append(added, ref)
		}
	}
	p.Embedded = t.embedded(added, sel, leaf)

	tag := "[" + e.Name + "]"
	if !leaf {
		for _, rel := range sv.Relations {
			if wants(rel.Field, sv.SubclassRelations) {
				p.Fetches = append(p.Fetches, t.fetch(rel, sel, join(prefix, rel.Field+tag)))
			}
		}
		p.Truncated = truncated(sv, sel, prefix, func(field string) bool {
			return slices.Contains(sv.SubclassRelations, field) || own(field)
		}, tag)
	}
	p.Subtypes = t.branches(sv, raw, prefix)

	if len(p.Columns) == 0 && len(p.LazyColumns) == 0 && len(p.Embedded) == 0 &&
		len(p.Fetches) == 0 && len(p.Subtypes) == 0 && len(p.Truncated) == 0 {
		return nil
	}
	return p
}

func (t translation) fetch(rel ir.RelationView, sel *selection.Selection, path string) Fetch {
	f := Fetch{Field: rel.Field, View: rel.View, Collection: rel.Collection}
	child, ok := t.reg.View(rel.View)
	if !ok {
		f.Child = &Plan{View: rel.View}
		return f
	}
	f.Child = t.node(child, sel.SubSelect(rel.Field), path)
	return f
}

// embedded plans the embedded values of refs. Everything is loaded for a
// leaf request, and for an embedded field selected without sub-fields.
func (t translation) embedded(refs []ir.EmbeddedRef, sel *selection.Selection, all bool) []EmbeddedFetch {
	var out []EmbeddedFetch
	for _, ref := range refs {
		if !all && !sel.Contains(ref.Field) {
			continue
		}
		ev, ok := t.reg.EmbeddedView(ref.View)
		if !ok {
			continue
		}
		var sub *selection.Selection
		if !all {
			sub = sel.SubSelect(ref.Field)
		}
		whole := sub.IsEmpty()

		ef := EmbeddedFetch{Field: ref.Field, View: ev.Name}
		for _, c := range ev.Embeddable.Columns {
			if whole || sub.Contains(c) {
				ef.Columns = append(ef.Columns, c)
			}
		}
		ef.Embedded = t.embedded(ev.Embedded, sub, whole)
		out = append(out, ef)
	}
	return out
}

// truncated lists the selected fields that are relations of the entity
// but have no view on v: the registry ran out of depth there.
func truncated(v *ir.ViewDefinition, sel *selection.Selection, prefix string, eligible func(string) bool, tag string) []string {
	var out []string
	for _, n := range sel.Immediate() {
		field := n.Field()
		if _, planned := v.Relation(field); planned || !eligible(field) {
			continue
		}
		if _, ok := v.Entity.Relation(field); ok {
			out = append(out, join(prefix, field+tag))
		}
	}
	return out
}
