package ir

import (
	"fmt"

	"github.com/go-openapi/inflect"
)

// Identifier turns an entity or embeddable name into the identifier used
// inside view names ("company_person" -> "CompanyPerson").
func Identifier(name string) string {
	return inflect.Camelize(name)
}

// ViewName is the only source of entity view names.
//
// The name is a pure function of the target entity, the registry root and the
// occurrence counter for that target. Occurrence 0 is reserved for the root's
// own view. Names never depend on map iteration order.
//
//	ViewName("Song", "Song", 0)   // "SongView"
//	ViewName("Person", "Song", 2) // "SongPersonView2"
func ViewName(target, root string, occurrence int) string {
	if occurrence == 0 {
		return Identifier(root) + "View"
	}
	return fmt.Sprintf("%s%sView%d", Identifier(root), Identifier(target), occurrence)
}

// EmbeddedViewName names embedded views with the same rule as ViewName.
// Embedded occurrences start at 1.
func EmbeddedViewName(embeddable, root string, occurrence int) string {
	return fmt.Sprintf("%s%sEmbeddedView%d", Identifier(root), Identifier(embeddable), occurrence)
}
