package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/fetchview/internal/ir"
)

// Graph validation error codes (E200-E299).
const (
	ErrEntityNameEmpty     = "E201" // entity or embeddable name is empty
	ErrDuplicateEntity     = "E202" // two declarations share a name
	ErrDanglingRelation    = "E203" // relation target is not an entity
	ErrDanglingSubClass    = "E204" // declared subclass is not an entity
	ErrDanglingSuperClass  = "E205" // declared superclass is not an entity
	ErrInheritanceMismatch = "E206" // subclass and superclass declarations disagree
	ErrMissingIDField      = "E207" // entity has no id field
	ErrDuplicateField      = "E208" // field declared twice on one type
	ErrUnknownEmbeddable   = "E209" // embedded field names an unknown embeddable
	ErrRecursiveEmbeddable = "E210" // embeddable contains itself
	ErrViewNameCollision   = "E211" // two entities map to one view identifier
	ErrInheritanceCycle    = "E212" // entity is its own ancestor
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateGraph checks a graph for structural problems.
// Returns all errors found (does not fail-fast). Cycles between entities are
// legal and not reported here; see AnalyzeCycles.
func ValidateGraph(g *ir.Graph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateNames(g)...)
	for _, e := range g.Entities() {
		errs = append(errs, validateEntity(g, e)...)
	}
	for _, emb := range g.Embeddables() {
		errs = append(errs, validateEmbeddable(g, emb)...)
	}
	errs = append(errs, validateInheritanceCycles(g)...)
	return errs
}

func validateNames(g *ir.Graph) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	idents := make(map[string]string)

	for i, e := range g.Entities() {
		field := fmt.Sprintf("entities[%d].name", i)
		if strings.TrimSpace(e.Name) == "" {
			errs = append(errs, ValidationError{Field: field, Message: "entity name is required", Code: ErrEntityNameEmpty})
			continue
		}
		if seen[e.Name] {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("duplicate entity name: %q", e.Name), Code: ErrDuplicateEntity})
			continue
		}
		seen[e.Name] = true

		ident := ir.Identifier(e.Name)
		if other, ok := idents[ident]; ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("entities %q and %q both name views %q", other, e.Name, ident),
				Code:    ErrViewNameCollision,
			})
		}
		idents[ident] = e.Name
	}

	for i, emb := range g.Embeddables() {
		field := fmt.Sprintf("embeddables[%d].name", i)
		if strings.TrimSpace(emb.Name) == "" {
			errs = append(errs, ValidationError{Field: field, Message: "embeddable name is required", Code: ErrEntityNameEmpty})
			continue
		}
		if seen[emb.Name] {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("duplicate type name: %q", emb.Name), Code: ErrDuplicateEntity})
		}
		seen[emb.Name] = true
	}
	return errs
}

func validateEntity(g *ir.Graph, e *ir.EntityMetadata) []ValidationError {
	var errs []ValidationError
	prefix := "entity." + e.Name

	if strings.TrimSpace(e.IDField) == "" {
		errs = append(errs, ValidationError{Field: prefix + ".id", Message: "id field is required", Code: ErrMissingIDField})
	}

	fields := make(map[string]bool)
	dup := func(name, where string) {
		if fields[name] {
			errs = append(errs, ValidationError{
				Field:   prefix + "." + where,
				Message: fmt.Sprintf("field %q declared more than once", name),
				Code:    ErrDuplicateField,
			})
		}
		fields[name] = true
	}
	if e.IDField != "" {
		fields[e.IDField] = true
	}
	for _, c := range e.Columns {
		dup(c, "columns")
	}
	for _, c := range e.LazyColumns {
		dup(c, "lazy_columns")
	}

	for _, r := range e.Relations {
		dup(r.FieldName, "relations")
		if _, ok := g.Entity(r.TargetEntityName); !ok {
			errs = append(errs, ValidationError{
				Field:   prefix + ".relations." + r.FieldName,
				Message: fmt.Sprintf("relation target %q is not a known entity", r.TargetEntityName),
				Code:    ErrDanglingRelation,
			})
		}
	}
	for _, emb := range e.Embedded {
		dup(emb.FieldName, "embedded")
		if _, ok := g.Embeddable(emb.TypeName); !ok {
			errs = append(errs, ValidationError{
				Field:   prefix + ".embedded." + emb.FieldName,
				Message: fmt.Sprintf("embedded type %q is not a known embeddable", emb.TypeName),
				Code:    ErrUnknownEmbeddable,
			})
		}
	}

	for _, ref := range e.SubClasses {
		sub, ok := g.Entity(ref)
		if !ok {
			errs = append(errs, ValidationError{
				Field:   prefix + ".sub_classes",
				Message: fmt.Sprintf("subclass %q is not a known entity", ref),
				Code:    ErrDanglingSubClass,
			})
			continue
		}
		if sub.SuperClass != "" && !refersTo(g, sub.SuperClass, e) {
			errs = append(errs, ValidationError{
				Field:   prefix + ".sub_classes",
				Message: fmt.Sprintf("subclass %q declares super class %q", ref, sub.SuperClass),
				Code:    ErrInheritanceMismatch,
			})
		}
	}

	if e.SuperClass != "" {
		super, ok := g.Entity(e.SuperClass)
		if !ok {
			errs = append(errs, ValidationError{
				Field:   prefix + ".super_class",
				Message: fmt.Sprintf("super class %q is not a known entity", e.SuperClass),
				Code:    ErrDanglingSuperClass,
			})
		} else if !slices.ContainsFunc(super.SubClasses, func(ref string) bool { return refersTo(g, ref, e) }) {
			errs = append(errs, ValidationError{
				Field:   prefix + ".super_class",
				Message: fmt.Sprintf("super class %q does not list %q as a subclass", e.SuperClass, e.Name),
				Code:    ErrInheritanceMismatch,
			})
		}
	}
	return errs
}

func validateEmbeddable(g *ir.Graph, emb *ir.EmbeddableMetadata) []ValidationError {
	var errs []ValidationError
	prefix := "embeddable." + emb.Name

	fields := make(map[string]bool)
	for _, c := range emb.Columns {
		if fields[c] {
			errs = append(errs, ValidationError{Field: prefix + ".columns", Message: fmt.Sprintf("field %q declared more than once", c), Code: ErrDuplicateField})
		}
		fields[c] = true
	}
	for _, e := range emb.Embedded {
		if _, ok := g.Embeddable(e.TypeName); !ok {
			errs = append(errs, ValidationError{
				Field:   prefix + ".embedded." + e.FieldName,
				Message: fmt.Sprintf("embedded type %q is not a known embeddable", e.TypeName),
				Code:    ErrUnknownEmbeddable,
			})
		}
	}

	if path := embeddableCycle(g, emb); path != nil {
		errs = append(errs, ValidationError{
			Field:   prefix + ".embedded",
			Message: "embeddable contains itself: " + strings.Join(path, " → "),
			Code:    ErrRecursiveEmbeddable,
		})
	}
	return errs
}

// embeddableCycle returns the path back to start if start embeds itself.
func embeddableCycle(g *ir.Graph, start *ir.EmbeddableMetadata) []string {
	var walk func(cur *ir.EmbeddableMetadata, path []string) []string
	walk = func(cur *ir.EmbeddableMetadata, path []string) []string {
		for _, e := range cur.Embedded {
			if e.TypeName == start.Name {
				return append(slices.Clone(path), e.TypeName)
			}
			if slices.Contains(path, e.TypeName) {
				continue
			}
			next, ok := g.Embeddable(e.TypeName)
			if !ok {
				continue
			}
			if found := walk(next, append(slices.Clone(path), e.TypeName)); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(start, []string{start.Name})
}

// validateInheritanceCycles reports entities reachable from themselves
// through subclass declarations.
func validateInheritanceCycles(g *ir.Graph) []ValidationError {
	var errs []ValidationError
	for _, e := range g.Entities() {
		if path := subclassCycle(g, e); path != nil {
			errs = append(errs, ValidationError{
				Field:   "entity." + e.Name + ".sub_classes",
				Message: "inheritance cycle: " + strings.Join(path, " → "),
				Code:    ErrInheritanceCycle,
			})
		}
	}
	return errs
}

func subclassCycle(g *ir.Graph, start *ir.EntityMetadata) []string {
	var walk func(cur *ir.EntityMetadata, path []string) []string
	walk = func(cur *ir.EntityMetadata, path []string) []string {
		for _, sub := range g.SubClasses(cur) {
			if sub == start {
				return append(slices.Clone(path), sub.Name)
			}
			if slices.Contains(path, sub.Name) {
				continue
			}
			if found := walk(sub, append(slices.Clone(path), sub.Name)); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(start, []string{start.Name})
}

func refersTo(g *ir.Graph, ref string, e *ir.EntityMetadata) bool {
	target, ok := g.Entity(ref)
	return ok && target == e
}
