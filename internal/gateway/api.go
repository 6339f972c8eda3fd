// ABOUTME: HTTP API handlers for listing, reading, creating, updating, and deleting habits.
// ABOUTME: Decodes request bodies into repository params and encodes habits as JSON.

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/2389/habit-gateway/internal/habit"
	"github.com/2389/habit-gateway/internal/repository"
)

// IdempotencyKeyHeader lets a client retry POST /habits without creating duplicates.
const IdempotencyKeyHeader = "Idempotency-Key"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// CreateHabitRequest is the JSON request body for POST /habits.
type CreateHabitRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ParentID    *int   `json:"parentId,omitempty"`
}

// UpdateHabitRequest is the JSON request body for PUT /habits/{id}.
// Absent (or null) fields are left unchanged.
type UpdateHabitRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	Streak      *int    `json:"streak,omitempty"`
}

// handleListHabits handles GET /habits requests.
// It returns the whole forest as a JSON array.
func (g *Gateway) handleListHabits(w http.ResponseWriter, r *http.Request) {
	forest, err := g.habits.List(r.Context())
	if err != nil {
		g.sendError(w, r, err)
		return
	}

	g.logger.InfoContext(r.Context(), "habits retrieved", "count", forest.Count())
	g.sendJSON(w, http.StatusOK, forest)
}

// handleGetHabit handles GET /habits/{id} requests.
func (g *Gateway) handleGetHabit(w http.ResponseWriter, r *http.Request) {
	id, ok := g.pathID(w, r)
	if !ok {
		return
	}

	h, err := g.habits.Get(r.Context(), id)
	if err != nil {
		g.sendError(w, r, err)
		return
	}

	g.logger.InfoContext(r.Context(), "habit retrieved", "id", id)
	g.sendJSON(w, http.StatusOK, h)
}

// handleCreateHabit handles POST /habits requests.
//
// Responsibilities:
//  1. Parse JSON body and require title and description
//  2. Replay the earlier result when the Idempotency-Key was already used
//  3. Create the habit at the root or under parentId
//  4. Respond 201 with the created habit
func (g *Gateway) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	req, err := parseCreateRequest(r.Body)
	if err != nil {
		g.sendError(w, r, err)
		return
	}

	params := repository.CreateParams{
		Title:       req.Title,
		Description: req.Description,
		ParentID:    req.ParentID,
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	if key == "" {
		h, err := g.habits.Create(r.Context(), params)
		if err != nil {
			g.sendError(w, r, err)
			return
		}
		g.sendJSON(w, http.StatusCreated, h)
		return
	}

	h, replayed, err := g.createIdempotent(r, key, params)
	if err != nil {
		g.sendError(w, r, err)
		return
	}
	if replayed {
		w.Header().Set("Idempotent-Replayed", "true")
		g.logger.InfoContext(r.Context(), "replayed idempotent create", "id", h.ID, "key", key)
	}
	g.sendJSON(w, http.StatusCreated, h)
}

// createRecord is what the idempotency cache remembers about a keyed create.
type createRecord struct {
	HabitID     int
	Fingerprint string
}

// createFingerprint identifies the request body a key was first used with.
func createFingerprint(p repository.CreateParams) string {
	parentID := 0
	if p.ParentID != nil {
		parentID = *p.ParentID
	}
	return fmt.Sprintf("%q|%q|%d", p.Title, p.Description, parentID)
}

// createIdempotent creates a habit once per key. A repeated key returns the
// habit created the first time, read fresh from the store. Reusing a key
// with a different body is rejected. A key whose habit no longer exists is
// forgotten and the create runs again.
func (g *Gateway) createIdempotent(r *http.Request, key string, params repository.CreateParams) (*habit.Habit, bool, error) {
	g.idempotencyMu.Lock()
	defer g.idempotencyMu.Unlock()

	fingerprint := createFingerprint(params)

	if rec, ok := g.idempotency.Get(key); ok {
		if rec.Fingerprint != fingerprint {
			return nil, false, errIdempotencyMismatch
		}
		h, err := g.habits.Get(r.Context(), rec.HabitID)
		var notFound *repository.NotFoundError
		switch {
		case err == nil:
			return h, true, nil
		case errors.As(err, &notFound):
			g.idempotency.DeleteFunc(func(k string, _ createRecord) bool { return k == key })
		default:
			return nil, false, err
		}
	}

	h, err := g.habits.Create(r.Context(), params)
	if err != nil {
		return nil, false, err
	}
	g.idempotency.Put(key, createRecord{HabitID: h.ID, Fingerprint: fingerprint})
	return h, false, nil
}

// forgetKeys drops idempotency keys whose habit was removed, so a later habit
// reusing the same ID is never replayed for them. Must be called with
// idempotencyMu held.
func (g *Gateway) forgetKeys(removed *habit.Habit) {
	ids := make(map[int]struct{})
	for _, id := range removed.SubtreeIDs() {
		ids[id] = struct{}{}
	}
	n := g.idempotency.DeleteFunc(func(_ string, rec createRecord) bool {
		_, gone := ids[rec.HabitID]
		return gone
	})
	if n > 0 {
		g.logger.Debug("forgot idempotency keys for deleted habits", "count", n)
	}
}

// handleUpdateHabit handles PUT /habits/{id} requests.
func (g *Gateway) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	id, ok := g.pathID(w, r)
	if !ok {
		return
	}

	var req UpdateHabitRequest
	if err := decodeBody(r.Body, &req); err != nil {
		g.sendError(w, r, err)
		return
	}

	h, err := g.habits.Update(r.Context(), id, repository.UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		Streak:      req.Streak,
	})
	if err != nil {
		g.sendError(w, r, err)
		return
	}

	g.sendJSON(w, http.StatusOK, h)
}

// handleDeleteHabit handles DELETE /habits/{id} requests.
func (g *Gateway) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	id, ok := g.pathID(w, r)
	if !ok {
		return
	}

	// Held across the delete so no keyed retry can observe a removed ID
	// before its key is dropped.
	g.idempotencyMu.Lock()
	removed, err := g.habits.Delete(r.Context(), id)
	if err == nil {
		g.forgetKeys(removed)
	}
	g.idempotencyMu.Unlock()

	if err != nil {
		g.sendError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathID parses the {id} path segment, writing a 400 response when it is not an integer.
func (g *Gateway) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		g.sendError(w, r, fmt.Errorf("%w: habit id %q is not an integer", errBadRequest, raw))
		return 0, false
	}
	return id, true
}

// parseCreateRequest parses and validates a CreateHabitRequest from the given reader.
// Returns an error if the JSON is invalid or title/description are missing.
func parseCreateRequest(r io.Reader) (*CreateHabitRequest, error) {
	var req CreateHabitRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}

	if req.Title == "" || req.Description == "" {
		return nil, fmt.Errorf("%w: Title and description are required", repository.ErrValidation)
	}

	return &req, nil
}

// decodeBody decodes a JSON request body into v. An empty body decodes as {}.
// Anything after the first JSON value is rejected.
func decodeBody(r io.Reader, v any) error {
	dec := json.NewDecoder(io.LimitReader(r, maxBodyBytes))
	err := dec.Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: invalid JSON body", errBadRequest)
	}
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid JSON body", errBadRequest)
	}
	return nil
}

// sendJSON writes v as a JSON response with the given status.
func (g *Gateway) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Error("failed to encode response", "error", err)
	}
}
