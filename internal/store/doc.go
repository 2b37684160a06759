// Package store persists view registries in SQLite.
//
// Analysis runs at build time; the store keeps its output so that request
// paths can load a registry instead of recomputing it. Each root has at most
// one stored registry. Writing a registry for a root replaces the previous
// one in a single transaction.
//
// # Layout
//
//   - registries: one row per root with its fingerprint, depth bound and
//     the run id of the write
//   - entities, embeddables: metadata snapshots as msgpack blobs
//   - views, view_relations: entity views in allocation order
//   - embedded_views, embedded_refs: embedded views and the embedded fields
//     of both kinds of view
//
// All child rows carry a seq column; reads order by it so a registry reads
// back in allocation order and with the same fingerprint it was written
// with.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Cascading deletes from registries
package store
