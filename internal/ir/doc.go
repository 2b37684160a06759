// Package ir provides the foundational types shared by every fetchview package.
//
// This package contains the entity metadata model, the view model produced by
// the analyzer and the registry that indexes those views. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Metadata is read-only once a Graph is constructed
//   - A Registry has no mutators; it is assembled with a RegistryBuilder and
//     then shared across goroutines without locks
//   - Ordered slices everywhere output must be deterministic, never map iteration
//   - All JSON tags use snake_case
package ir
