// Package harness runs fetch plan conformance scenarios.
//
// A scenario carries its own schema, picks a root and a depth bound,
// requests a selection and asserts on the resulting registry and plan.
// Each run analyses the schema, stores the registry in a fresh in-memory
// database, reads it back and plans against the stored copy, so every
// scenario also exercises the persistence path.
//
// # Scenario Format
//
//	name: songs_catalogue
//	description: "Nested relations plan in selection order"
//	schema:
//	  entities:
//	    - name: Song
//	      columns: [title]
//	      relations:
//	        - {field: interpret, target: Person}
//	    - name: Person
//	      columns: [name]
//	root: Song
//	max_extra_depth: 1
//	selection: "{ interpret { name } }"
//	assertions:
//	  - type: plan_paths
//	    paths: [interpret]
//	  - type: contains
//	    pattern: interpret/name
//
// # Assertion Types
//
//   - plan_paths: the plan's dotted relation paths, exactly and in order
//   - plan_depth: the plan's depth
//   - contains / not_contains: a glob pattern against the selection
//   - registry_max_views: upper bound on the registry size
//   - truncated: the paths cut off by the depth bound, exactly
//
// # Golden Files
//
// RunWithGolden compares the rendered plan with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
