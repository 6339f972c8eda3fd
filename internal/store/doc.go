// Package store provides whole-document persistence for the habit forest.
//
// # Architecture
//
// TreeStore has two operations, Load and Save, and both move the entire
// forest. There is no partial update and no caching between calls; callers
// reload before every operation.
//
//   - FileStore: the forest as an indented JSON array in a single file
//   - MemoryStore: the same encoded bytes held in memory, for tests
//
// # Load Semantics
//
// A missing file is the first-run case and loads as an empty forest, as does
// a file holding only whitespace. Anything else is parsed, checked against
// the embedded forest schema (forest.schema.json) and decoded.
//
// # Atomic Replace
//
// FileStore.Save writes to a temporary file beside the document, syncs it,
// and renames it over the original. Readers therefore see either the
// previous forest or the new one in full.
//
// # Error Handling
//
//   - ErrIO: the document could not be read or written
//   - ErrCorrupt: the document is not JSON, or not shaped like a forest
//
// Both are wrapped with context; test with errors.Is.
package store
