package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainRegistry prefixes registry fingerprints. The version suffix allows
// the document layout to change without colliding with old fingerprints.
const DomainRegistry = "fetchview/registry/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns a stable content hash of a registry.
//
// Two registries built from the same graph, root and depth bound always have
// the same fingerprint. The store uses it to detect unchanged re-analysis.
func Fingerprint(r *Registry) (string, error) {
	canonical, err := MarshalCanonical(RegistryDocument(r))
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", r.Root(), err)
	}
	return hashWithDomain(DomainRegistry, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests.
func MustFingerprint(r *Registry) string {
	fp, err := Fingerprint(r)
	if err != nil {
		panic(err)
	}
	return fp
}

// RegistryDocument renders r as plain Go values accepted by MarshalCanonical.
// Slices keep allocation order so the document is order-stable.
func RegistryDocument(r *Registry) map[string]any {
	views := make([]any, 0, r.Len())
	for _, v := range r.Views() {
		views = append(views, viewDocument(v))
	}
	embedded := make([]any, 0, len(r.embedded))
	for _, v := range r.embedded {
		embedded = append(embedded, map[string]any{
			"name":       v.Name,
			"embeddable": v.Embeddable.Name,
			"embedded":   embeddedRefsDocument(v.Embedded),
		})
	}
	return map[string]any{
		"format_version":  RegistryFormatVersion,
		"root":            r.Root(),
		"max_extra_depth": r.MaxExtraDepth(),
		"views":           views,
		"embedded_views":  embedded,
	}
}

func viewDocument(v *ViewDefinition) map[string]any {
	relations := make([]any, 0, len(v.Relations))
	for _, rel := range v.Relations {
		relations = append(relations, map[string]any{
			"field":      rel.Field,
			"view":       rel.View,
			"collection": rel.Collection,
		})
	}
	return map[string]any{
		"name":                  v.Name,
		"entity":                v.Entity.Name,
		"relations":             relations,
		"embedded":              embeddedRefsDocument(v.Embedded),
		"super_class_view_name": v.SuperClassViewName,
		"is_extended":           v.IsExtended,
		"level":                 v.Level,
		"subclass_columns":      nonNilStrings(v.SubclassColumns),
		"subclass_relations":    nonNilStrings(v.SubclassRelations),
	}
}

func embeddedRefsDocument(refs []EmbeddedRef) []any {
	out := make([]any, 0, len(refs))
	for _, e := range refs {
		out = append(out, map[string]any{"field": e.Field, "view": e.View})
	}
	return out
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
