// Package history houses concrete implementations of core.HistoryStore.
// The interface itself lives in core so agents never depend on a concrete
// backend; only the wiring layer (config, the root package) decides which
// store to instantiate.
//
// Three backends are provided:
//
//   - InMemoryStore keeps records in a process local map (tests, demos).
//   - FileStore writes one JSON file per agent identity below a folder.
//   - SQLiteStore appends rows to a history_messages table.
package history
