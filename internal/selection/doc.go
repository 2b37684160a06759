// Package selection provides the request-side description of what to load.
//
// A Selection is an immutable tree of FieldNodes built per request (or per
// reusable query shape). It knows nothing about entities or views. The
// fetchplan package matches it against a view registry.
//
// PATHS:
//
// Every node is indexed by the "/"-joined field names from the root:
//
//	{interpret {companies {company}} producer}
//
//	interpret
//	interpret/companies
//	interpret/companies/company
//	producer
//
// Nodes carrying a type tag are additionally indexed with type-qualified
// segments ("AiComposer.aiData"), so a query can target one polymorphic
// branch explicitly.
//
// GLOB QUERIES:
//
// Contains and SubSelect take doublestar patterns. A "*" matches one
// segment, "**" any number of segments and "{a,b}" either alternative.
// Matching is against whole paths, never prefixes:
//
//	s.Contains("interpret")            // true
//	s.Contains("interpret/*/company")  // true
//	s.Contains("inter*")               // true
//	s.Contains("interpret/companies/x") // false
//
// A malformed pattern is a programmer error. Contains and SubSelect panic
// with a *PatternError; use ValidatePattern to check untrusted input first.
//
// UNKNOWN FIELDS:
//
// Asking about a field that was never selected is not an error. Contains
// returns false and SubSelect/TypeSelect return nil. Every query method is
// safe on a nil *Selection.
package selection
