package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphLookups(t *testing.T) {
	song, person := songEntities()
	company := &EntityMetadata{Name: "CompanyPerson", QualifiedName: "music.CompanyPerson", IDField: "id"}
	shadow := &EntityMetadata{Name: "Song", QualifiedName: "other.Song", IDField: "id"}
	addr := &EmbeddableMetadata{Name: "Address", Columns: []string{"street"}}

	g := NewGraph([]*EntityMetadata{song, person, company, shadow}, []*EmbeddableMetadata{addr})

	e, ok := g.Entity("Song")
	require.True(t, ok)
	assert.Same(t, song, e, "first declaration wins")

	e, ok = g.Entity("other.Song")
	require.True(t, ok)
	assert.Same(t, shadow, e)

	e, ok = g.Entity("music.Person")
	require.True(t, ok)
	assert.Same(t, person, e)

	_, ok = g.Entity("Missing")
	assert.False(t, ok)

	emb, ok := g.Embeddable("Address")
	require.True(t, ok)
	assert.Same(t, addr, emb)

	assert.Len(t, g.Entities(), 4)
	assert.Len(t, g.Embeddables(), 1)
	assert.Equal(t, []*EntityMetadata{company}, g.SubClasses(person))
}

func TestSubClassesSkipsUnknown(t *testing.T) {
	base := &EntityMetadata{Name: "Base", SubClasses: []string{"Ghost"}}
	g := NewGraph([]*EntityMetadata{base}, nil)
	assert.Empty(t, g.SubClasses(base))
}

func TestEntityMetadataFields(t *testing.T) {
	e := &EntityMetadata{
		Name: "Song", IDField: "id",
		Columns:     []string{"title"},
		LazyColumns: []string{"lyrics"},
		Relations:   []RelationEdge{{FieldName: "interpret", TargetEntityName: "Person"}},
		Embedded:    []EmbeddedEdge{{FieldName: "meta", TypeName: "Meta"}},
	}

	assert.True(t, e.HasColumn("id"))
	assert.True(t, e.HasColumn("title"))
	assert.False(t, e.HasColumn("lyrics"))
	assert.True(t, e.HasLazyColumn("lyrics"))

	rel, ok := e.Relation("interpret")
	require.True(t, ok)
	assert.Equal(t, "Person", rel.TargetEntityName)

	emb, ok := e.Embedding("meta")
	require.True(t, ok)
	assert.Equal(t, "Meta", emb.TypeName)
	_, ok = e.Embedding("nope")
	assert.False(t, ok)
}
