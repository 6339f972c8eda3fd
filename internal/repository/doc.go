// Package repository implements habit operations over a TreeStore.
//
// Every call reloads the forest, so nothing is cached between requests.
// Create, Update and Delete take the writer token for their whole
// load-mutate-save cycle; List and Get do not, and rely on the store
// replacing its document atomically.
//
// IDs are assigned as one more than the largest ID anywhere in the forest
// and never change afterwards. Deleting the habit that holds the largest ID
// lets that number be handed out again.
//
// Errors:
//
//   - ErrValidation: missing title/description, or a negative streak
//   - *NotFoundError: the habit (or named parent) does not exist
//   - store.ErrIO, store.ErrCorrupt: wrapped from the TreeStore
package repository
