package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/fetchview/internal/ir"
)

// DefaultIDField is used when an entity does not name its identifier.
const DefaultIDField = "id"

// CompileEntity parses a CUE value into EntityMetadata.
// The entity name is taken from the value's label:
//
//	entity: Song: {
//		qualified_name: "music.Song"
//		columns: ["title"]
//		relations: {
//			interpret: "Person"
//			tracks: {target: "Track", collection: true}
//		}
//	}
func CompileEntity(v cue.Value) (*ir.EntityMetadata, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	e := &ir.EntityMetadata{Name: labelOf(v), IDField: DefaultIDField}
	if e.Name == "" {
		return nil, &CompileError{Field: "name", Message: "entity must be declared under a label", Pos: v.Pos()}
	}
	e.QualifiedName = e.Name

	var err error
	if e.QualifiedName, err = optionalString(v, "qualified_name", e.QualifiedName); err != nil {
		return nil, err
	}
	if e.IDField, err = optionalString(v, "id", e.IDField); err != nil {
		return nil, err
	}
	if e.SuperClass, err = optionalString(v, "super_class", ""); err != nil {
		return nil, err
	}
	if e.Columns, err = stringList(v, "columns"); err != nil {
		return nil, err
	}
	if e.LazyColumns, err = stringList(v, "lazy_columns"); err != nil {
		return nil, err
	}
	if e.SubClasses, err = stringList(v, "sub_classes"); err != nil {
		return nil, err
	}
	if e.Relations, err = parseRelations(v); err != nil {
		return nil, err
	}
	if e.Embedded, err = parseEmbedded(v); err != nil {
		return nil, err
	}
	return e, nil
}

// CompileEmbeddable parses a CUE value into EmbeddableMetadata.
func CompileEmbeddable(v cue.Value) (*ir.EmbeddableMetadata, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	emb := &ir.EmbeddableMetadata{Name: labelOf(v)}
	if emb.Name == "" {
		return nil, &CompileError{Field: "name", Message: "embeddable must be declared under a label", Pos: v.Pos()}
	}
	if v.LookupPath(cue.ParsePath("relations")).Exists() {
		return nil, &CompileError{
			Field:   "relations",
			Message: fmt.Sprintf("embeddable %q cannot declare relations", emb.Name),
			Pos:     v.Pos(),
		}
	}

	var err error
	if emb.Columns, err = stringList(v, "columns"); err != nil {
		return nil, err
	}
	if emb.Embedded, err = parseEmbedded(v); err != nil {
		return nil, err
	}
	return emb, nil
}

// CompileGraph compiles every entity and embeddable under the top-level
// "entity" and "embeddable" fields of v, stopping at the first error.
func CompileGraph(v cue.Value) (*ir.Graph, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	entities, embeddables, errs := compileAll(v, true)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return ir.NewGraph(entities, embeddables), nil
}

// compileAll walks the entity and embeddable sections. With failFast it
// returns after the first error.
func compileAll(v cue.Value, failFast bool) ([]*ir.EntityMetadata, []*ir.EmbeddableMetadata, []error) {
	var (
		entities    []*ir.EntityMetadata
		embeddables []*ir.EmbeddableMetadata
		errs        []error
	)

	if section := v.LookupPath(cue.ParsePath("entity")); section.Exists() {
		iter, err := section.Fields()
		if err != nil {
			return nil, nil, []error{formatCUEError(err)}
		}
		for iter.Next() {
			e, err := CompileEntity(iter.Value())
			if err != nil {
				errs = append(errs, err)
				if failFast {
					return nil, nil, errs
				}
				continue
			}
			entities = append(entities, e)
		}
	}

	if section := v.LookupPath(cue.ParsePath("embeddable")); section.Exists() {
		iter, err := section.Fields()
		if err != nil {
			return nil, nil, append(errs, formatCUEError(err))
		}
		for iter.Next() {
			emb, err := CompileEmbeddable(iter.Value())
			if err != nil {
				errs = append(errs, err)
				if failFast {
					return nil, nil, errs
				}
				continue
			}
			embeddables = append(embeddables, emb)
		}
	}

	return entities, embeddables, errs
}

// parseRelations reads the relations struct. Each relation is either a
// target name or {target, collection}.
func parseRelations(v cue.Value) ([]ir.RelationEdge, error) {
	relVal := v.LookupPath(cue.ParsePath("relations"))
	if !relVal.Exists() {
		return nil, nil
	}
	iter, err := relVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rels []ir.RelationEdge
	for iter.Next() {
		rel := ir.RelationEdge{FieldName: iter.Label()}
		val := iter.Value()

		if target, err := val.String(); err == nil {
			rel.TargetEntityName = target
			rels = append(rels, rel)
			continue
		}

		targetVal := val.LookupPath(cue.ParsePath("target"))
		if !targetVal.Exists() {
			return nil, &CompileError{
				Field:   "relations." + rel.FieldName,
				Message: "relation must be a target name or a struct with a target field",
				Pos:     val.Pos(),
			}
		}
		if rel.TargetEntityName, err = targetVal.String(); err != nil {
			return nil, formatCUEError(err)
		}
		if collVal := val.LookupPath(cue.ParsePath("collection")); collVal.Exists() {
			if rel.IsCollection, err = collVal.Bool(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

// parseEmbedded reads the embedded struct: field name -> embeddable name.
func parseEmbedded(v cue.Value) ([]ir.EmbeddedEdge, error) {
	embVal := v.LookupPath(cue.ParsePath("embedded"))
	if !embVal.Exists() {
		return nil, nil
	}
	iter, err := embVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var edges []ir.EmbeddedEdge
	for iter.Next() {
		typeName, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   "embedded." + iter.Label(),
				Message: "embedded field must name an embeddable",
				Pos:     iter.Value().Pos(),
			}
		}
		edges = append(edges, ir.EmbeddedEdge{FieldName: iter.Label(), TypeName: typeName})
	}
	return edges, nil
}

func labelOf(v cue.Value) string {
	sels := v.Path().Selectors()
	if len(sels) == 0 {
		return ""
	}
	return sels[len(sels)-1].String()
}

func optionalString(v cue.Value, field, def string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return def, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
