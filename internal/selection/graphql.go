package selection

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// ErrNoOperation is returned when a GraphQL document holds only fragments.
var ErrNoOperation = errors.New("selection: graphql document has no operation")

// ParseGraphQL builds a Selection from the selection set of the first
// operation in query. Top-level fields are fields of the root entity.
//
// Inline fragments and fragment spreads with a type condition tag their
// fields with that type. Aliases and arguments are ignored, as is __typename.
//
//	ParseGraphQL(`{ interpret { companies { company } } producer }`)
//	ParseGraphQL(`{ composer { ... on AiComposer { aiData } } }`)
func ParseGraphQL(query string) (*Selection, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "selection", Input: query})
	if err != nil {
		return nil, fmt.Errorf("parse graphql selection: %w", err)
	}
	if len(doc.Operations) == 0 {
		return nil, ErrNoOperation
	}

	c := &gqlConverter{doc: doc, active: make(map[string]bool)}
	nodes, err := c.convert(doc.Operations[0].SelectionSet, "")
	if err != nil {
		return nil, err
	}
	return New(nodes...), nil
}

// MustParseGraphQL is like ParseGraphQL but panics on error.
// Use only in tests and for static query shapes.
func MustParseGraphQL(query string) *Selection {
	s, err := ParseGraphQL(query)
	if err != nil {
		panic(err)
	}
	return s
}

type gqlConverter struct {
	doc    *ast.QueryDocument
	active map[string]bool // fragment spreads on the current stack
}

// convert maps a selection set to nodes. typ is the type condition in
// effect, or "" outside any fragment.
func (c *gqlConverter) convert(set ast.SelectionSet, typ string) ([]*FieldNode, error) {
	var out []*FieldNode
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			if s.Name == "__typename" {
				continue
			}
			children, err := c.convert(s.SelectionSet, "")
			if err != nil {
				return nil, err
			}
			out = append(out, TypedNode(s.Name, typ, children...))

		case *ast.InlineFragment:
			nodes, err := c.convert(s.SelectionSet, fragmentType(s.TypeCondition, typ))
			if err != nil {
				return nil, err
			}
			out = append(out, nodes...)

		case *ast.FragmentSpread:
			def := c.doc.Fragments.ForName(s.Name)
			if def == nil {
				return nil, fmt.Errorf("graphql selection: unknown fragment %q", s.Name)
			}
			if c.active[s.Name] {
				return nil, fmt.Errorf("graphql selection: fragment %q spreads itself", s.Name)
			}
			c.active[s.Name] = true
			nodes, err := c.convert(def.SelectionSet, fragmentType(def.TypeCondition, typ))
			delete(c.active, s.Name)
			if err != nil {
				return nil, err
			}
			out = append(out, nodes...)
		}
	}
	return out, nil
}

func fragmentType(cond, outer string) string {
	if cond != "" {
		return cond
	}
	return outer
}
