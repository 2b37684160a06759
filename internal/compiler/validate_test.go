package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fetchview/internal/ir"
	"github.com/roach88/fetchview/internal/testutil"
)

func TestValidateFixtures(t *testing.T) {
	graphs := map[string]*ir.Graph{
		"self-ref":  testutil.SelfRef(),
		"circular":  testutil.Circular(),
		"songs":     testutil.Songs(),
		"composers": testutil.Composers(),
		"diamond":   testutil.Diamond(),
		"ring":      testutil.Ring(4),
		"mutual":    testutil.MutualPair(),
	}
	for name, g := range graphs {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, ValidateGraph(g))
		})
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidateGraphErrors(t *testing.T) {
	tests := []struct {
		name     string
		entities []*ir.EntityMetadata
		embs     []*ir.EmbeddableMetadata
		want     string
	}{
		{
			name:     "empty name",
			entities: []*ir.EntityMetadata{{Name: " ", IDField: "id"}},
			want:     ErrEntityNameEmpty,
		},
		{
			name:     "duplicate entity",
			entities: []*ir.EntityMetadata{{Name: "A", IDField: "id"}, {Name: "A", IDField: "id"}},
			want:     ErrDuplicateEntity,
		},
		{
			name: "dangling relation",
			entities: []*ir.EntityMetadata{{Name: "A", IDField: "id", Relations: []ir.RelationEdge{
				{FieldName: "b", TargetEntityName: "B"},
			}}},
			want: ErrDanglingRelation,
		},
		{
			name:     "dangling subclass",
			entities: []*ir.EntityMetadata{{Name: "A", IDField: "id", SubClasses: []string{"B"}}},
			want:     ErrDanglingSubClass,
		},
		{
			name:     "dangling superclass",
			entities: []*ir.EntityMetadata{{Name: "A", IDField: "id", SuperClass: "B"}},
			want:     ErrDanglingSuperClass,
		},
		{
			name: "superclass does not list subclass",
			entities: []*ir.EntityMetadata{
				{Name: "A", IDField: "id"},
				{Name: "B", IDField: "id", SuperClass: "A"},
			},
			want: ErrInheritanceMismatch,
		},
		{
			name:     "missing id",
			entities: []*ir.EntityMetadata{{Name: "A"}},
			want:     ErrMissingIDField,
		},
		{
			name:     "duplicate field",
			entities: []*ir.EntityMetadata{{Name: "A", IDField: "id", Columns: []string{"x"}, LazyColumns: []string{"x"}}},
			want:     ErrDuplicateField,
		},
		{
			name:     "column shadows id",
			entities: []*ir.EntityMetadata{{Name: "A", IDField: "id", Columns: []string{"id"}}},
			want:     ErrDuplicateField,
		},
		{
			name: "unknown embeddable",
			entities: []*ir.EntityMetadata{{Name: "A", IDField: "id", Embedded: []ir.EmbeddedEdge{
				{FieldName: "addr", TypeName: "Address"},
			}}},
			want: ErrUnknownEmbeddable,
		},
		{
			name:     "recursive embeddable",
			entities: []*ir.EntityMetadata{{Name: "A", IDField: "id"}},
			embs: []*ir.EmbeddableMetadata{
				{Name: "X", Embedded: []ir.EmbeddedEdge{{FieldName: "y", TypeName: "Y"}}},
				{Name: "Y", Embedded: []ir.EmbeddedEdge{{FieldName: "x", TypeName: "X"}}},
			},
			want: ErrRecursiveEmbeddable,
		},
		{
			name: "view name collision",
			entities: []*ir.EntityMetadata{
				{Name: "company_person", IDField: "id"},
				{Name: "CompanyPerson", IDField: "id"},
			},
			want: ErrViewNameCollision,
		},
		{
			name: "inheritance cycle",
			entities: []*ir.EntityMetadata{
				{Name: "A", IDField: "id", SubClasses: []string{"B"}, SuperClass: "B"},
				{Name: "B", IDField: "id", SubClasses: []string{"A"}, SuperClass: "A"},
			},
			want: ErrInheritanceCycle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateGraph(ir.NewGraph(tt.entities, tt.embs))
			require.NotEmpty(t, errs)
			assert.Contains(t, codes(errs), tt.want)
		})
	}
}

func TestValidateGraphCollectsAll(t *testing.T) {
	g := ir.NewGraph([]*ir.EntityMetadata{
		{Name: "A", Relations: []ir.RelationEdge{{FieldName: "b", TargetEntityName: "B"}}},
	}, nil)
	errs := ValidateGraph(g)
	assert.ElementsMatch(t, []string{ErrMissingIDField, ErrDanglingRelation}, codes(errs))
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "entity.A.id", Message: "id field is required", Code: ErrMissingIDField}
	assert.Equal(t, "[E207] entity.A.id: id field is required", err.Error())
}
