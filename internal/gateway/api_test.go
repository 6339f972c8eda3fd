// ABOUTME: Tests for the habit HTTP handlers and the JSON error envelope.
// ABOUTME: Drives the full handler chain with httptest against an in-memory store.

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/habit-gateway/internal/config"
	"github.com/2389/habit-gateway/internal/habit"
	"github.com/2389/habit-gateway/internal/repository"
	"github.com/2389/habit-gateway/internal/store"
)

// newTestGateway builds a Gateway over s with a silent logger.
func newTestGateway(t *testing.T, s store.TreeStore) *Gateway {
	t.Helper()

	cfg := config.Default()
	gw := NewWithStore(cfg, s, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(gw.idempotency.Close)
	return gw
}

// do sends a request through the full handler and returns the recorder.
func do(t *testing.T, gw *Gateway, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	gw.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeHabit(t *testing.T, rec *httptest.ResponseRecorder) habit.Habit {
	t.Helper()
	var h habit.Habit
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&h))
	return h
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
	return e
}

func TestRoot(t *testing.T) {
	gw := newTestGateway(t, store.NewMemoryStore())

	rec := do(t, gw, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Daily Habit Tracker API is running!", rec.Body.String())
}

func TestHealth(t *testing.T) {
	gw := newTestGateway(t, store.NewMemoryStore())

	rec := do(t, gw, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestListHabits_Empty(t *testing.T) {
	gw := newTestGateway(t, store.NewMemoryStore())

	rec := do(t, gw, http.MethodGet, "/habits", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateHabit_RootAndChild(t *testing.T) {
	s := store.NewMemoryStore()
	gw := newTestGateway(t, s)

	rec := do(t, gw, http.MethodPost, "/habits", `{"title":"Exercise","description":"Move daily"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	root := decodeHabit(t, rec)
	assert.Equal(t, 1, root.ID)
	assert.Equal(t, "Exercise", root.Title)
	assert.False(t, root.Completed)
	assert.Equal(t, 0, root.Streak)
	assert.Empty(t, root.SubHabits)

	rec = do(t, gw, http.MethodPost, "/habits", `{"title":"Run","description":"5k","parentId":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	child := decodeHabit(t, rec)
	assert.Equal(t, 2, child.ID)

	rec = do(t, gw, http.MethodGet, "/habits", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"id":1,"title":"Exercise","description":"Move daily","completed":false,"streak":0,"subHabits":[
			{"id":2,"title":"Run","description":"5k","completed":false,"streak":0,"subHabits":[]}
		]}
	]`, rec.Body.String())
	assert.Equal(t, 2, s.Saves())
}

func TestCreateHabit_ParentZeroIsRoot(t *testing.T) {
	gw := newTestGateway(t, store.NewMemoryStore())

	rec := do(t, gw, http.MethodPost, "/habits", `{"title":"Read","description":"10 pages","parentId":0}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, gw, http.MethodGet, "/habits", "")
	var forest habit.Forest
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&forest))
	require.Len(t, forest, 1)
	assert.Equal(t, "Read", forest[0].Title)
}

func TestCreateHabit_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing title", `{"description":"d"}`, "Title and description are required"},
		{"missing description", `{"title":"t"}`, "Title and description are required"},
		{"empty strings", `{"title":"","description":""}`, "Title and description are required"},
		{"empty body", ``, "Title and description are required"},
		{"invalid JSON", `{"title":`, "invalid JSON body"},
		{"wrong type", `{"title":1,"description":"d"}`, "invalid JSON body"},
		{"trailing data", `{"title":"a","description":"b"} garbage`, "invalid JSON body"},
		{"second value", `{"title":"a","description":"b"}{"title":"c"}`, "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemoryStore()
			gw := newTestGateway(t, s)

			rec := do(t, gw, http.MethodPost, "/habits", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			e := decodeError(t, rec)
			assert.False(t, e.Success)
			assert.Equal(t, http.StatusBadRequest, e.Status)
			assert.Equal(t, tt.message, e.Message)
			assert.Equal(t, 0, s.Saves())
		})
	}
}

func TestCreateHabit_ParentNotFound(t *testing.T) {
	s := store.NewMemoryStore()
	gw := newTestGateway(t, s)

	rec := do(t, gw, http.MethodPost, "/habits", `{"title":"t","description":"d","parentId":99}`)

	require.Equal(t, http.StatusNotFound, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, http.StatusNotFound, e.Status)
	assert.Equal(t, "Parent with ID 99 not found", e.Message)
	assert.Equal(t, 0, s.Saves())
}

func TestCreateHabit_IdempotencyKeyReplays(t *testing.T) {
	s := store.NewMemoryStore()
	gw := newTestGateway(t, s)

	first := do(t, gw, http.MethodPost, "/habits", `{"title":"Meditate","description":"10 min"}`,
		IdempotencyKeyHeader, "key-1")
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get("Idempotent-Replayed"))
	created := decodeHabit(t, first)

	// The habit changes between the original create and the retry.
	rec := do(t, gw, http.MethodPut, fmt.Sprintf("/habits/%d", created.ID), `{"streak":4}`)
	require.Equal(t, http.StatusOK, rec.Code)

	retry := do(t, gw, http.MethodPost, "/habits", `{"title":"Meditate","description":"10 min"}`,
		IdempotencyKeyHeader, "key-1")
	require.Equal(t, http.StatusCreated, retry.Code)
	assert.Equal(t, "true", retry.Header().Get("Idempotent-Replayed"))
	replayed := decodeHabit(t, retry)
	assert.Equal(t, created.ID, replayed.ID)
	assert.Equal(t, 4, replayed.Streak)

	other := do(t, gw, http.MethodPost, "/habits", `{"title":"Meditate","description":"10 min"}`,
		IdempotencyKeyHeader, "key-2")
	require.Equal(t, http.StatusCreated, other.Code)
	assert.Equal(t, created.ID+1, decodeHabit(t, other).ID)

	assert.Equal(t, 3, s.Saves())
}

func TestCreateHabit_IdempotencyKeyNotCachedOnFailure(t *testing.T) {
	gw := newTestGateway(t, store.NewMemoryStore())

	rec := do(t, gw, http.MethodPost, "/habits", `{"title":"t","description":"d","parentId":5}`,
		IdempotencyKeyHeader, "retry-me")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, gw, http.MethodPost, "/habits", `{"title":"t","description":"d"}`,
		IdempotencyKeyHeader, "retry-me")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Header().Get("Idempotent-Replayed"))
}

func TestCreateHabit_IdempotencyKeyForgottenWhenHabitDeleted(t *testing.T) {
	gw := newTestGateway(t, store.NewMemoryStore())

	rec := do(t, gw, http.MethodPost, "/habits", `{"title":"Meditate","description":"10 min"}`,
		IdempotencyKeyHeader, "k")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 1, decodeHabit(t, rec).ID)

	rec = do(t, gw, http.MethodDelete, "/habits/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	// ID 1 is free again and goes to an unrelated habit.
	rec = do(t, gw, http.MethodPost, "/habits", `{"title":"Groceries","description":"milk"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 1, decodeHabit(t, rec).ID)

	rec = do(t, gw, http.MethodPost, "/habits", `{"title":"Meditate","description":"10 min"}`,
		IdempotencyKeyHeader, "k")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Header().Get("Idempotent-Replayed"))
	h := decodeHabit(t, rec)
	assert.Equal(t, "Meditate", h.Title)
	assert.Equal(t, 2, h.ID)
}

func TestCreateHabit_IdempotencyKeyForgottenWhenAncestorDeleted(t *testing.T) {
	gw := newTestGateway(t, store.NewMemoryStore())

	rec := do(t, gw, http.MethodPost, "/habits", `{"title":"Exercise","description":"daily"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, gw, http.MethodPost, "/habits", `{"title":"Run","description":"5k","parentId":1}`,
		IdempotencyKeyHeader, "child")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 2, decodeHabit(t, rec).ID)

	rec = do(t, gw, http.MethodDelete, "/habits/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, gw.idempotency.Len())
}

func TestCreateHabit_IdempotencyKeyHabitRemovedElsewhere(t *testing.T) {
	gw := newTestGateway(t, store.NewMemoryStore())

	rec := do(t, gw, http.MethodPost, "/habits", `{"title":"t","description":"d"}`,
		IdempotencyKeyHeader, "gone")
	require.Equal(t, http.StatusCreated, rec.Code)

	// Removed without going through the HTTP API, so the key is still cached.
	_, err := gw.habits.Delete(context.Background(), 1)
	require.NoError(t, err)

	rec = do(t, gw, http.MethodPost, "/habits", `{"title":"t","description":"d"}`,
		IdempotencyKeyHeader, "gone")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, "t", decodeHabit(t, rec).Title)
}

func TestCreateHabit_IdempotencyKeyReusedWithDifferentBody(t *testing.T) {
	s := store.NewMemoryStore()
	gw := newTestGateway(t, s)

	rec := do(t, gw, http.MethodPost, "/habits", `{"title":"Meditate","description":"10 min"}`,
		IdempotencyKeyHeader, "k")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, gw, http.MethodPost, "/habits", `{"title":"Groceries","description":"milk"}`,
		IdempotencyKeyHeader, "k")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, http.StatusUnprocessableEntity, e.Status)
	assert.Equal(t, 1, s.Saves())
}

func TestCreateFingerprint(t *testing.T) {
	zero := 0
	three := 3

	root := createFingerprint(repository.CreateParams{Title: "a", Description: "b"})
	assert.Equal(t, root, createFingerprint(repository.CreateParams{Title: "a", Description: "b", ParentID: &zero}))
	assert.NotEqual(t, root, createFingerprint(repository.CreateParams{Title: "a", Description: "b", ParentID: &three}))
	// Separators inside fields cannot make two bodies collide.
	assert.NotEqual(t,
		createFingerprint(repository.CreateParams{Title: "a|b", Description: "c"}),
		createFingerprint(repository.CreateParams{Title: "a", Description: "b|c"}))
}

func TestGetHabit(t *testing.T) {
	gw := newTestGateway(t, store.NewMemoryStoreWithDocument([]byte(`[
		{"id":1,"title":"A","description":"a","completed":false,"streak":0,"subHabits":[
			{"id":2,"title":"B","description":"b","completed":true,"streak":3,"subHabits":[]}
		]}
	]`)))

	rec := do(t, gw, http.MethodGet, "/habits/2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	h := decodeHabit(t, rec)
	assert.Equal(t, "B", h.Title)
	assert.True(t, h.Completed)
	assert.Equal(t, 3, h.Streak)
}

func TestGetHabit_Errors(t *testing.T) {
	gw := newTestGateway(t, store.NewMemoryStore())

	rec := do(t, gw, http.MethodGet, "/habits/42", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Habit with ID 42 not found", decodeError(t, rec).Message)

	rec = do(t, gw, http.MethodGet, "/habits/abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `habit id "abc" is not an integer`, decodeError(t, rec).Message)
}

func TestUpdateHabit(t *testing.T) {
	s := store.NewMemoryStoreWithDocument([]byte(`[
		{"id":1,"title":"Run","description":"5k","completed":true,"streak":7,"subHabits":[]}
	]`))
	gw := newTestGateway(t, s)

	// Empty strings are ignored; false and 0 are applied.
	rec := do(t, gw, http.MethodPut, "/habits/1", `{"title":"","completed":false,"streak":0}`)

	require.Equal(t, http.StatusOK, rec.Code)
	h := decodeHabit(t, rec)
	assert.Equal(t, "Run", h.Title)
	assert.False(t, h.Completed)
	assert.Equal(t, 0, h.Streak)
	assert.Equal(t, 1, s.Saves())
}

func TestUpdateHabit_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		body    string
		status  int
		message string
	}{
		{"not found", "/habits/9", `{"title":"x"}`, http.StatusNotFound, "Habit with ID 9 not found"},
		{"bad id", "/habits/1.5", `{"title":"x"}`, http.StatusBadRequest, `habit id "1.5" is not an integer`},
		{"invalid JSON", "/habits/1", `not json`, http.StatusBadRequest, "invalid JSON body"},
		{"trailing data", "/habits/1", `{"streak":2} x`, http.StatusBadRequest, "invalid JSON body"},
		{"negative streak", "/habits/1", `{"streak":-1}`, http.StatusBadRequest, "streak must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemoryStoreWithDocument([]byte(`[{"id":1,"title":"t","description":"d","subHabits":[]}]`))
			gw := newTestGateway(t, s)

			rec := do(t, gw, http.MethodPut, tt.path, tt.body)

			require.Equal(t, tt.status, rec.Code)
			e := decodeError(t, rec)
			assert.Equal(t, tt.status, e.Status)
			assert.Equal(t, tt.message, e.Message)
			assert.Equal(t, 0, s.Saves())
		})
	}
}

func TestDeleteHabit(t *testing.T) {
	s := store.NewMemoryStoreWithDocument([]byte(`[
		{"id":1,"title":"A","description":"a","subHabits":[
			{"id":2,"title":"B","description":"b","subHabits":[]}
		]},
		{"id":3,"title":"C","description":"c","subHabits":[]}
	]`))
	gw := newTestGateway(t, s)

	rec := do(t, gw, http.MethodDelete, "/habits/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, gw, http.MethodGet, "/habits/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, gw, http.MethodDelete, "/habits/1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Habit with ID 1 not found", decodeError(t, rec).Message)
	assert.Equal(t, 1, s.Saves())
}

func TestCorruptDocument(t *testing.T) {
	gw := newTestGateway(t, store.NewMemoryStoreWithDocument([]byte(`{"not":"a forest"}`)))

	for _, path := range []string{"/habits", "/habits/1"} {
		rec := do(t, gw, http.MethodGet, path, "")
		require.Equal(t, http.StatusInternalServerError, rec.Code, path)
		e := decodeError(t, rec)
		assert.Equal(t, http.StatusInternalServerError, e.Status)
		assert.Equal(t, "Habit data is corrupt", e.Message)
	}
}

func TestStorageFailure(t *testing.T) {
	s := store.NewMemoryStore()
	gw := newTestGateway(t, s)

	s.SetSaveError(fmt.Errorf("%w: disk full", store.ErrIO))
	rec := do(t, gw, http.MethodPost, "/habits", `{"title":"t","description":"d"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "Internal Server Error", e.Message)
	assert.NotContains(t, rec.Body.String(), "disk full")

	// The writer is released; the next call succeeds once storage recovers.
	s.SetSaveError(nil)
	rec = do(t, gw, http.MethodPost, "/habits", `{"title":"t","description":"d"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	s.SetLoadError(errors.New("permission denied"))
	rec = do(t, gw, http.MethodGet, "/habits", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestID(t *testing.T) {
	gw := newTestGateway(t, store.NewMemoryStore())

	rec := do(t, gw, http.MethodGet, "/habits", "")
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	rec = do(t, gw, http.MethodGet, "/habits/nope", "", RequestIDHeader, "client-chosen")
	assert.Equal(t, "client-chosen", rec.Header().Get(RequestIDHeader))
}

func TestMethodNotAllowed(t *testing.T) {
	gw := newTestGateway(t, store.NewMemoryStore())

	rec := do(t, gw, http.MethodPatch, "/habits/1", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestParseCreateRequest(t *testing.T) {
	req, err := parseCreateRequest(bytes.NewReader([]byte(`{"title":"a","description":"b","parentId":3}`)))
	require.NoError(t, err)
	require.NotNil(t, req.ParentID)
	assert.Equal(t, 3, *req.ParentID)

	_, err = parseCreateRequest(bytes.NewReader([]byte(`{"title":"a"}`)))
	assert.Error(t, err)
}
