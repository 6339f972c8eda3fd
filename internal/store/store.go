// ABOUTME: TreeStore interface and error kinds for habit forest persistence
// ABOUTME: The whole forest is loaded and saved as one document

package store

import (
	"errors"

	"github.com/2389/habit-gateway/internal/habit"
)

// ErrIO is returned when the backing document cannot be read or written for
// a reason other than not existing yet.
var ErrIO = errors.New("storage unavailable")

// ErrCorrupt is returned when the backing document exists but is not a valid
// JSON forest.
var ErrCorrupt = errors.New("corrupt habit data")

// TreeStore persists the habit forest as a single unit.
type TreeStore interface {
	// Load returns the persisted forest. An absent or blank document yields
	// an empty forest.
	Load() (habit.Forest, error)

	// Save replaces the persisted forest with f in full.
	Save(f habit.Forest) error
}
