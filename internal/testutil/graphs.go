// Package testutil holds entity graphs shared by tests across packages.
//
// Every constructor returns a fresh graph, so tests may hold on to the
// metadata pointers without coordinating with each other.
package testutil

import (
	"fmt"

	"github.com/roach88/fetchview/internal/ir"
)

func entity(name string, columns []string, rels ...ir.RelationEdge) *ir.EntityMetadata {
	return &ir.EntityMetadata{
		Name:          name,
		QualifiedName: "fixture." + name,
		IDField:       "id",
		Columns:       columns,
		Relations:     rels,
	}
}

func one(field, target string) ir.RelationEdge {
	return ir.RelationEdge{FieldName: field, TargetEntityName: target}
}

func many(field, target string) ir.RelationEdge {
	return ir.RelationEdge{FieldName: field, TargetEntityName: target, IsCollection: true}
}

// SelfRef is Node{value, next: Node}.
func SelfRef() *ir.Graph {
	return ir.NewGraph([]*ir.EntityMetadata{
		entity("Node", []string{"value"}, one("next", "Node")),
	}, nil)
}

// Circular is Circular{label, circular: Circular}, persisted in tests as a
// two-row loop.
func Circular() *ir.Graph {
	return ir.NewGraph([]*ir.EntityMetadata{
		entity("Circular", []string{"label"}, one("circular", "Circular")),
	}, nil)
}

// Songs is the music catalogue:
//
//	Song{interpret: Person, producer: Company}
//	Person{companies: [CompanyPerson], address: Address}
//	CompanyPerson{company: Company, person: Person}
//	Company{}
func Songs() *ir.Graph {
	song := entity("Song", []string{"title", "year"},
		one("interpret", "Person"),
		one("producer", "Company"))
	song.LazyColumns = []string{"lyrics"}

	person := entity("Person", []string{"name"}, many("companies", "CompanyPerson"))
	person.Embedded = []ir.EmbeddedEdge{{FieldName: "address", TypeName: "Address"}}

	return ir.NewGraph([]*ir.EntityMetadata{
		song,
		person,
		entity("CompanyPerson", []string{"role"},
			one("company", "Company"),
			one("person", "Person")),
		entity("Company", []string{"name"}),
	}, []*ir.EmbeddableMetadata{
		{Name: "Address", Columns: []string{"street", "city"}, Embedded: []ir.EmbeddedEdge{{FieldName: "geo", TypeName: "Geo"}}},
		{Name: "Geo", Columns: []string{"lat", "lng"}},
	})
}

// Composers is a polymorphic hierarchy:
//
//	Composer{name} <- AiComposer{aiData: AiData}
//	               <- HumanComposer{humanData: HumanData}
//	Album{composer: Composer}
func Composers() *ir.Graph {
	composer := entity("Composer", []string{"name"})
	composer.SubClasses = []string{"fixture.AiComposer", "fixture.HumanComposer"}

	ai := entity("AiComposer", []string{"name", "model_version"}, one("aiData", "AiData"))
	ai.SuperClass = "fixture.Composer"

	human := entity("HumanComposer", []string{"name", "birth_year"}, one("humanData", "HumanData"))
	human.SuperClass = "fixture.Composer"

	return ir.NewGraph([]*ir.EntityMetadata{
		entity("Album", []string{"title"}, one("composer", "Composer")),
		composer,
		ai,
		human,
		entity("AiData", []string{"model"}),
		entity("HumanData", []string{"bio"}),
	}, nil)
}

// Diamond is A{b: B, c: C}, B{d: D}, C{d: D}, D{}. D is reached twice
// without any cycle.
func Diamond() *ir.Graph {
	return ir.NewGraph([]*ir.EntityMetadata{
		entity("A", nil, one("b", "B"), one("c", "C")),
		entity("B", nil, one("d", "D")),
		entity("C", nil, one("d", "D")),
		entity("D", []string{"value"}),
	}, nil)
}

// Ring is a cycle of n entities E0 -> E1 -> ... -> E(n-1) -> E0, each
// linked through a "next" relation.
func Ring(n int) *ir.Graph {
	entities := make([]*ir.EntityMetadata, n)
	for i := range n {
		entities[i] = entity(fmt.Sprintf("E%d", i), nil, one("next", fmt.Sprintf("E%d", (i+1)%n)))
	}
	return ir.NewGraph(entities, nil)
}

// MutualPair is Left{right: Right}, Right{left: Left}.
func MutualPair() *ir.Graph {
	return ir.NewGraph([]*ir.EntityMetadata{
		entity("Left", nil, one("right", "Right")),
		entity("Right", nil, one("left", "Left")),
	}, nil)
}
