// ABOUTME: Habit repository: reload, mutate, and rewrite the forest per operation
// ABOUTME: A single writer token serializes every load-mutate-save cycle

package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/2389/habit-gateway/internal/habit"
	"github.com/2389/habit-gateway/internal/store"
)

// ErrValidation is returned when required input is missing or out of range.
var ErrValidation = errors.New("validation failed")

// NotFoundError reports a habit ID that is not present anywhere in the forest.
type NotFoundError struct {
	ID int
	// Parent is set when the missing habit was named as the parent of a new one.
	Parent bool
}

func (e *NotFoundError) Error() string {
	if e.Parent {
		return fmt.Sprintf("Parent with ID %d not found", e.ID)
	}
	return fmt.Sprintf("Habit with ID %d not found", e.ID)
}

// CreateParams describes a new habit.
type CreateParams struct {
	Title       string
	Description string
	// ParentID attaches the habit below an existing one. Nil or 0 means root.
	ParentID *int
}

// UpdateParams lists the fields to change. Title and Description apply only
// when non-empty; Completed and Streak apply whenever set, including false and 0.
type UpdateParams struct {
	Title       *string
	Description *string
	Completed   *bool
	Streak      *int
}

// Repository runs habit operations against a TreeStore.
type Repository struct {
	store  store.TreeStore
	logger *slog.Logger

	// writeMu is the writer token. It is held across the whole
	// load-mutate-save cycle of every mutating operation.
	writeMu sync.Mutex
}

// New creates a Repository over s.
func New(s store.TreeStore, logger *slog.Logger) *Repository {
	return &Repository{
		store:  s,
		logger: logger,
	}
}

// List returns the whole forest.
func (r *Repository) List(ctx context.Context) (habit.Forest, error) {
	forest, err := r.load()
	if err != nil {
		return nil, err
	}
	r.logger.DebugContext(ctx, "habits listed", "count", forest.Count())
	return forest, nil
}

// Get returns the habit with the given ID, searching every depth.
func (r *Repository) Get(ctx context.Context, id int) (*habit.Habit, error) {
	forest, err := r.load()
	if err != nil {
		return nil, err
	}
	h := forest.Find(id)
	if h == nil {
		return nil, &NotFoundError{ID: id}
	}
	return h, nil
}

// Create adds a habit at the root or below the given parent and persists the forest.
func (r *Repository) Create(ctx context.Context, p CreateParams) (*habit.Habit, error) {
	if p.Title == "" || p.Description == "" {
		return nil, fmt.Errorf("%w: title and description are required", ErrValidation)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	forest, err := r.load()
	if err != nil {
		return nil, err
	}

	if int64(forest.MaxID()) >= habit.MaxHabitID {
		return nil, fmt.Errorf("%w: habit id space exhausted", ErrValidation)
	}

	created := habit.New(forest.NextID(), p.Title, p.Description)

	if p.ParentID != nil && *p.ParentID != 0 {
		parent := forest.Find(*p.ParentID)
		if parent == nil {
			return nil, &NotFoundError{ID: *p.ParentID, Parent: true}
		}
		parent.AddSubHabit(created)
	} else {
		forest = append(forest, created)
	}

	if err := r.save(forest); err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "habit created", "id", created.ID, "title", created.Title, "parent_id", derefOrZero(p.ParentID))
	return created, nil
}

// Update applies the supplied fields to an existing habit and persists the forest.
func (r *Repository) Update(ctx context.Context, id int, p UpdateParams) (*habit.Habit, error) {
	if p.Streak != nil && *p.Streak < 0 {
		return nil, fmt.Errorf("%w: streak must not be negative", ErrValidation)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	forest, err := r.load()
	if err != nil {
		return nil, err
	}

	h := forest.Find(id)
	if h == nil {
		return nil, &NotFoundError{ID: id}
	}

	if p.Title != nil && *p.Title != "" {
		h.Title = *p.Title
	}
	if p.Description != nil && *p.Description != "" {
		h.Description = *p.Description
	}
	if p.Completed != nil {
		h.Completed = *p.Completed
	}
	if p.Streak != nil {
		h.Streak = *p.Streak
	}

	if err := r.save(forest); err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "habit updated", "id", id, "title", h.Title)
	return h, nil
}

// Delete removes a habit and everything below it, then persists the forest.
// Returns the removed habit with its subtree.
func (r *Repository) Delete(ctx context.Context, id int) (*habit.Habit, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	forest, err := r.load()
	if err != nil {
		return nil, err
	}

	removed := forest.Remove(id)
	if removed == nil {
		return nil, &NotFoundError{ID: id}
	}

	if err := r.save(forest); err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "habit deleted", "id", id, "descendants", removed.Descendants())
	return removed, nil
}

func (r *Repository) load() (habit.Forest, error) {
	forest, err := r.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading habits: %w", err)
	}
	return forest, nil
}

func (r *Repository) save(forest habit.Forest) error {
	if err := r.store.Save(forest); err != nil {
		r.logger.Error("failed to persist habits", "error", err)
		return fmt.Errorf("saving habits: %w", err)
	}
	return nil
}

func derefOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
