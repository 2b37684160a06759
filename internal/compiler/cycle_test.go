package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fetchview/internal/ir"
	"github.com/roach88/fetchview/internal/testutil"
)

func TestAnalyzeCyclesEmpty(t *testing.T) {
	warnings := AnalyzeCycles(ir.NewGraph(nil, nil))
	assert.NotNil(t, warnings)
	assert.Empty(t, warnings)
}

func TestAnalyzeCyclesDAG(t *testing.T) {
	assert.Empty(t, AnalyzeCycles(testutil.Diamond()))
	assert.Empty(t, AnalyzeCycles(testutil.Composers()))
}

func TestAnalyzeCyclesSelfLoop(t *testing.T) {
	warnings := AnalyzeCycles(testutil.SelfRef())
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"Node", "Node"}, warnings[0].Path)
	assert.Equal(t, []string{"next"}, warnings[0].Fields)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "Node.next")
}

func TestAnalyzeCyclesMutual(t *testing.T) {
	warnings := AnalyzeCycles(testutil.Songs())
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"Person", "CompanyPerson", "Person"}, warnings[0].Path)
	assert.Equal(t, []string{"companies", "person"}, warnings[0].Fields)
	assert.Equal(t, "Relation cycle: Person → CompanyPerson → Person", warnings[0].Message)
}

func TestAnalyzeCyclesRing(t *testing.T) {
	warnings := AnalyzeCycles(testutil.Ring(4))
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"E0", "E1", "E2", "E3", "E0"}, warnings[0].Path)
	assert.Len(t, warnings[0].Fields, 4)
}

func TestAnalyzeCyclesShortestLoop(t *testing.T) {
	// A -> B -> C -> B and B -> A: the walk must not dead-end in C.
	g := ir.NewGraph([]*ir.EntityMetadata{
		{Name: "A", IDField: "id", Relations: []ir.RelationEdge{{FieldName: "b", TargetEntityName: "B"}}},
		{Name: "B", IDField: "id", Relations: []ir.RelationEdge{
			{FieldName: "c", TargetEntityName: "C"},
			{FieldName: "a", TargetEntityName: "A"},
		}},
		{Name: "C", IDField: "id", Relations: []ir.RelationEdge{{FieldName: "b", TargetEntityName: "B"}}},
	}, nil)

	warnings := AnalyzeCycles(g)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"A", "B", "A"}, warnings[0].Path)
	assert.Equal(t, []string{"b", "a"}, warnings[0].Fields)
}

func TestAnalyzeCyclesStableOrder(t *testing.T) {
	g := ir.NewGraph([]*ir.EntityMetadata{
		{Name: "Z", IDField: "id", Relations: []ir.RelationEdge{{FieldName: "self", TargetEntityName: "Z"}}},
		{Name: "A", IDField: "id", Relations: []ir.RelationEdge{{FieldName: "self", TargetEntityName: "A"}}},
	}, nil)
	for range 20 {
		warnings := AnalyzeCycles(g)
		require.Len(t, warnings, 2)
		assert.Equal(t, "Z", warnings[0].Path[0])
		assert.Equal(t, "A", warnings[1].Path[0])
	}
}
