// Package sqlite provides a SQLite-based implementation of the driven storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. A single database file backs three interfaces:
//
//   - RecordStore: content records, their tags and an FTS5 index over the record body
//   - HashStore: the dedup hash set, persisted as one JSON blob
//   - PostContextStore: the carousel cache, persisted as three JSON blobs
//     (post tags, post descriptions, post text)
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.refshelf/data/refshelf.db
//
// # Side State
//
// Side-state blobs are rewritten in full on every save. There is no partial
// or append format.
package sqlite
