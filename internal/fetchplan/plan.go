package fetchplan

import (
	"fmt"
	"strings"
)

// Plan is the eager-load tree for one view.
type Plan struct {
	View        string          `json:"view"`
	Entity      string          `json:"entity"`
	Columns     []string        `json:"columns,omitempty"`
	LazyColumns []string        `json:"lazy_columns,omitempty"`
	Embedded    []EmbeddedFetch `json:"embedded,omitempty"`
	Fetches     []Fetch         `json:"fetches,omitempty"`
	Subtypes    []Branch        `json:"subtypes,omitempty"`

	// Truncated lists requested relations that had no view to expand into,
	// as dotted paths from the plan root.
	Truncated []string `json:"truncated,omitempty"`
}

// Fetch is one relation to load eagerly and the plan for what it loads.
type Fetch struct {
	Field      string `json:"field"`
	View       string `json:"view"`
	Collection bool   `json:"collection,omitempty"`
	Child      *Plan  `json:"child"`
}

// Branch is the part of a plan that applies only when the loaded entity is
// of a given subclass.
type Branch struct {
	Type string `json:"type"`
	Plan *Plan  `json:"plan"`
}

// EmbeddedFetch is a value object loaded inline with its owner.
type EmbeddedFetch struct {
	Field    string          `json:"field"`
	View     string          `json:"view"`
	Columns  []string        `json:"columns,omitempty"`
	Embedded []EmbeddedFetch `json:"embedded,omitempty"`
}

// Fetch returns the planned fetch for field.
func (p *Plan) Fetch(field string) (Fetch, bool) {
	if p == nil {
		return Fetch{}, false
	}
	for _, f := range p.Fetches {
		if f.Field == field {
			return f, true
		}
	}
	return Fetch{}, false
}

// Subtype returns the branch plan for a subclass entity.
func (p *Plan) Subtype(entity string) (*Plan, bool) {
	if p == nil {
		return nil, false
	}
	for _, b := range p.Subtypes {
		if b.Type == entity {
			return b.Plan, true
		}
	}
	return nil, false
}

// IsLeaf reports whether the plan loads no relation, in any branch.
func (p *Plan) IsLeaf() bool {
	return p.Depth() == 0
}

// Depth is the longest chain of fetches below p. Branch fetches sit at the
// same level as the node's own fetches.
func (p *Plan) Depth() int {
	if p == nil {
		return 0
	}
	depth := 0
	for _, f := range p.Fetches {
		depth = max(depth, 1+f.Child.Depth())
	}
	for _, b := range p.Subtypes {
		depth = max(depth, b.Plan.Depth())
	}
	return depth
}

// Paths lists every planned relation as a dotted attribute path, depth
// first in plan order. A relation planned inside a subclass branch is
// written field[Type], e.g. "composer.aiData[AiComposer]".
func (p *Plan) Paths() []string {
	var out []string
	p.walk("", func(path string, _ Fetch) {
		out = append(out, path)
	})
	return out
}

// AllTruncated gathers the truncated paths of the whole tree.
func (p *Plan) AllTruncated() []string {
	if p == nil {
		return nil
	}
	out := append([]string(nil), p.Truncated...)
	for _, f := range p.Fetches {
		out = append(out, f.Child.AllTruncated()...)
	}
	for _, b := range p.Subtypes {
		out = append(out, b.Plan.AllTruncated()...)
	}
	return out
}

func (p *Plan) walk(prefix string, fn func(path string, f Fetch)) {
	if p == nil {
		return
	}
	for _, f := range p.Fetches {
		path := join(prefix, f.Field)
		fn(path, f)
		f.Child.walk(path, fn)
	}
	for _, b := range p.Subtypes {
		b.walk(prefix, fn)
	}
}

func (b Branch) walk(prefix string, fn func(path string, f Fetch)) {
	for _, f := range b.Plan.Fetches {
		path := join(prefix, fmt.Sprintf("%s[%s]", f.Field, b.Type))
		fn(path, f)
		f.Child.walk(path, fn)
	}
	for _, nested := range b.Plan.Subtypes {
		nested.walk(prefix, fn)
	}
}

func join(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}

// String renders the plan as an indented tree:
//
//	SongView (Song)
//	  columns: id
//	  fetch interpret -> SongPersonView1 (Person)
//	    columns: id, name
//
// Collection fetches are marked with a trailing "*" on the field.
func (p *Plan) String() string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	p.write(&b, 0, "")
	return b.String()
}

func (p *Plan) write(b *strings.Builder, depth int, label string) {
	indent := strings.Repeat("  ", depth)
	inner := indent + "  "

	fmt.Fprintf(b, "%s%s%s (%s)\n", indent, label, p.View, p.Entity)
	if len(p.Columns) > 0 {
		fmt.Fprintf(b, "%scolumns: %s\n", inner, strings.Join(p.Columns, ", "))
	}
	if len(p.LazyColumns) > 0 {
		fmt.Fprintf(b, "%slazy: %s\n", inner, strings.Join(p.LazyColumns, ", "))
	}
	writeEmbedded(b, inner, p.Embedded)
	for _, f := range p.Fetches {
		field := f.Field
		if f.Collection {
			field += "*"
		}
		f.Child.write(b, depth+1, "fetch "+field+" -> ")
	}
	for _, br := range p.Subtypes {
		br.Plan.write(b, depth+1, "as "+br.Type+" -> ")
	}
	for _, t := range p.Truncated {
		fmt.Fprintf(b, "%struncated: %s\n", inner, t)
	}
}

func writeEmbedded(b *strings.Builder, indent string, embedded []EmbeddedFetch) {
	for _, e := range embedded {
		fmt.Fprintf(b, "%sembedded %s -> %s", indent, e.Field, e.View)
		if len(e.Columns) > 0 {
			fmt.Fprintf(b, ": %s", strings.Join(e.Columns, ", "))
		}
		b.WriteByte('\n')
		writeEmbedded(b, indent+"  ", e.Embedded)
	}
}
