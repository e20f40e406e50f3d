// Package store persists engine snapshots.
//
// A Store is a flat key/value blob store. The engine writes one encoded
// snapshot under a single key on Save and reads it back on Hydrate.
//
// # Backends
//
//   - MemoryStore: process-local, for tests and the demo
//   - SQLStore: any database/sql driver; OpenSQLite opens a pure-Go SQLite
//     database
//   - BadgerStore: embedded BadgerDB, on disk or in memory
//   - S3Store: an S3 bucket, one object per key
//
// All implementations are safe for concurrent use.
package store
