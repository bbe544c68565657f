// Package store is the single serialized gateway to the journal's
// durable data.
//
// # Architecture
//
//   - Record: the persisted shape of each entity (identity, persona,
//     post, media attachment)
//   - Query/Filter/Sort: a typed predicate builder evaluated identically
//     by both backends
//   - Backend: raw storage (SQLiteBackend durable, MemoryBackend
//     ephemeral)
//   - Engine: writer serialization, mutation batching, batch-delete
//     fallback, reset
//
// All repository access goes through an Engine; no caller touches a
// backend directly. Engines are constructed explicitly and injected into
// repositories, so tests can run against isolated instances.
//
// # Write model
//
// Engine.Write serializes logical writers: the callback stages
// mutations on a Writer and they commit atomically in one backend Apply
// when the callback returns nil. Reads do not take the writer lock and
// always observe the latest committed state.
//
// # Batch delete
//
// Engine.DeleteWhere uses the backend's native predicate delete when it
// has one (SQLite). The memory backend lacks it, so the engine fetches
// the matching records and deletes each; both paths must produce the
// same end state, which engine tests assert against both backends.
//
// # SQLite configuration
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Timestamps are stored as fixed-width RFC3339 TEXT in UTC so range
// filters compare correctly as strings. Booleans are 0/1 integers.
//
// # Errors
//
//   - ErrNotFound: update target no longer exists (the batch rolls back)
//   - ErrStoreNotFound: Reset with no configured storage location
//   - OpError: fetch/count/save/delete/reset failure wrapping its cause
package store
