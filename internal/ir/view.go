package ir

// ViewDefinition describes one entity reachable from a registry root together
// with the views its relations resolve to.
//
// A view with IsExtended set was created to close a schema cycle. Its Level
// counts how many hops past the cycle it sits (1 for the first extension).
// First-visit views have Level 0. An extended view without relations is
// terminal: nothing past it can be fetched.
type ViewDefinition struct {
	Name               string          `json:"name"`
	Entity             *EntityMetadata `json:"entity"`
	Relations          []RelationView  `json:"relations,omitempty"`
	Embedded           []EmbeddedRef   `json:"embedded,omitempty"`
	SuperClassViewName string          `json:"super_class_view_name,omitempty"`
	IsExtended         bool            `json:"is_extended"`
	Level              int             `json:"level"`

	// SubclassColumns and SubclassRelations list what a subclass view adds on
	// top of its super view. Both are empty for views without a super view.
	SubclassColumns   []string `json:"subclass_columns,omitempty"`
	SubclassRelations []string `json:"subclass_relations,omitempty"`
}

// RelationView maps one relation field to the view it resolves to.
type RelationView struct {
	Field      string `json:"field"`
	View       string `json:"view"`
	Collection bool   `json:"collection"`
}

// EmbeddedRef maps one embedded field to its embedded view.
type EmbeddedRef struct {
	Field string `json:"field"`
	View  string `json:"view"`
}

// EmbeddedViewDefinition is the value-object counterpart of ViewDefinition.
type EmbeddedViewDefinition struct {
	Name       string              `json:"name"`
	Embeddable *EmbeddableMetadata `json:"embeddable"`
	Embedded   []EmbeddedRef       `json:"embedded,omitempty"`
}

// Relation returns the resolved relation for field.
func (v *ViewDefinition) Relation(field string) (RelationView, bool) {
	for _, r := range v.Relations {
		if r.Field == field {
			return r, true
		}
	}
	return RelationView{}, false
}

// RelationMap returns the field -> view name mapping.
// Use Relations when order matters.
func (v *ViewDefinition) RelationMap() map[string]string {
	m := make(map[string]string, len(v.Relations))
	for _, r := range v.Relations {
		m[r.Field] = r.View
	}
	return m
}

// EmbeddedView returns the embedded view name for field.
func (v *ViewDefinition) EmbeddedView(field string) (string, bool) {
	for _, e := range v.Embedded {
		if e.Field == field {
			return e.View, true
		}
	}
	return "", false
}

// IsTerminal reports whether the view closes a cycle without exposing
// any further relation.
func (v *ViewDefinition) IsTerminal() bool {
	return v.IsExtended && len(v.Relations) == 0
}

// IsSubclassView reports whether the view specialises a super view.
func (v *ViewDefinition) IsSubclassView() bool {
	return v.SuperClassViewName != ""
}

// EmbeddedView returns the nested embedded view name for field.
func (v *EmbeddedViewDefinition) EmbeddedView(field string) (string, bool) {
	for _, e := range v.Embedded {
		if e.Field == field {
			return e.View, true
		}
	}
	return "", false
}
