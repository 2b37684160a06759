package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fetchview/internal/ir"
)

// Schema is the YAML form of an entity relation graph. Unlike the CUE form,
// relations and embedded fields are lists, so declaration order is explicit.
//
//	entities:
//	  - name: Song
//	    columns: [title]
//	    relations:
//	      - {field: interpret, target: Person}
//	embeddables:
//	  - name: Address
//	    columns: [street, city]
type Schema struct {
	Entities    []SchemaEntity     `yaml:"entities"`
	Embeddables []SchemaEmbeddable `yaml:"embeddables,omitempty"`
}

// SchemaEntity is one entity in a YAML schema.
type SchemaEntity struct {
	Name          string           `yaml:"name"`
	QualifiedName string           `yaml:"qualified_name,omitempty"`
	ID            string           `yaml:"id,omitempty"`
	Columns       []string         `yaml:"columns,omitempty"`
	LazyColumns   []string         `yaml:"lazy_columns,omitempty"`
	Relations     []SchemaRelation `yaml:"relations,omitempty"`
	Embedded      []SchemaEmbedded `yaml:"embedded,omitempty"`
	SubClasses    []string         `yaml:"sub_classes,omitempty"`
	SuperClass    string           `yaml:"super_class,omitempty"`
}

// SchemaRelation is one relation edge in a YAML schema.
type SchemaRelation struct {
	Field      string `yaml:"field"`
	Target     string `yaml:"target"`
	Collection bool   `yaml:"collection,omitempty"`
}

// SchemaEmbedded is one embedded field in a YAML schema.
type SchemaEmbedded struct {
	Field string `yaml:"field"`
	Type  string `yaml:"type"`
}

// SchemaEmbeddable is one value object in a YAML schema.
type SchemaEmbeddable struct {
	Name     string           `yaml:"name"`
	Columns  []string         `yaml:"columns,omitempty"`
	Embedded []SchemaEmbedded `yaml:"embedded,omitempty"`
}

// ErrEmptySchema is returned for a YAML document without content.
var ErrEmptySchema = errors.New("schema is empty")

// CompileYAML decodes a YAML schema into a Graph. Unknown keys are rejected.
func CompileYAML(data []byte) (*ir.Graph, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Schema
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptySchema
		}
		return nil, fmt.Errorf("decode yaml schema: %w", err)
	}
	return s.Graph()
}

// Graph converts the decoded schema into an ir.Graph.
func (s *Schema) Graph() (*ir.Graph, error) {
	entities := make([]*ir.EntityMetadata, 0, len(s.Entities))
	for i, se := range s.Entities {
		if se.Name == "" {
			return nil, &CompileError{Field: fmt.Sprintf("entities[%d].name", i), Message: "entity name is required"}
		}
		e := &ir.EntityMetadata{
			Name:          se.Name,
			QualifiedName: se.QualifiedName,
			IDField:       se.ID,
			Columns:       se.Columns,
			LazyColumns:   se.LazyColumns,
			SubClasses:    se.SubClasses,
			SuperClass:    se.SuperClass,
			Embedded:      embeddedEdges(se.Embedded),
		}
		if e.QualifiedName == "" {
			e.QualifiedName = e.Name
		}
		if e.IDField == "" {
			e.IDField = DefaultIDField
		}
		for _, r := range se.Relations {
			e.Relations = append(e.Relations, ir.RelationEdge{
				FieldName:        r.Field,
				TargetEntityName: r.Target,
				IsCollection:     r.Collection,
			})
		}
		entities = append(entities, e)
	}

	embeddables := make([]*ir.EmbeddableMetadata, 0, len(s.Embeddables))
	for i, se := range s.Embeddables {
		if se.Name == "" {
			return nil, &CompileError{Field: fmt.Sprintf("embeddables[%d].name", i), Message: "embeddable name is required"}
		}
		embeddables = append(embeddables, &ir.EmbeddableMetadata{
			Name:     se.Name,
			Columns:  se.Columns,
			Embedded: embeddedEdges(se.Embedded),
		})
	}

	return ir.NewGraph(entities, embeddables), nil
}

func embeddedEdges(in []SchemaEmbedded) []ir.EmbeddedEdge {
	var out []ir.EmbeddedEdge
	for _, e := range in {
		out = append(out, ir.EmbeddedEdge{FieldName: e.Field, TypeName: e.Type})
	}
	return out
}
