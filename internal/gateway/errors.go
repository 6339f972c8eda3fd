// ABOUTME: Maps repository and store errors onto HTTP status codes
// ABOUTME: Writes the {success,status,message} JSON error envelope

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/2389/habit-gateway/internal/repository"
	"github.com/2389/habit-gateway/internal/store"
)

// errBadRequest marks malformed requests that never reached the repository.
var errBadRequest = errors.New("bad request")

// errIdempotencyMismatch is returned when an Idempotency-Key is reused with a different body.
var errIdempotencyMismatch = errors.New("Idempotency-Key was already used with a different request")

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// sendError classifies err and writes the matching error response.
// Internal failures are logged with their cause and reported generically.
func (g *Gateway) sendError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *repository.NotFoundError

	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, repository.ErrValidation):
		g.sendJSONError(w, http.StatusBadRequest, clientMessage(err))
	case errors.Is(err, errIdempotencyMismatch):
		g.sendJSONError(w, http.StatusUnprocessableEntity, errIdempotencyMismatch.Error())
	case errors.As(err, &notFound):
		g.sendJSONError(w, http.StatusNotFound, notFound.Error())
	case errors.Is(err, store.ErrCorrupt):
		g.logger.ErrorContext(r.Context(), "habit data is corrupt", "error", err, "path", r.URL.Path)
		g.sendJSONError(w, http.StatusInternalServerError, "Habit data is corrupt")
	default:
		g.logger.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path)
		g.sendJSONError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// clientMessage strips the sentinel prefix from a wrapped 400 error so
// "validation failed: Title and description are required" reads as the detail only.
func clientMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{errBadRequest, repository.ErrValidation} {
		if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
			return rest
		}
	}
	return msg
}

// sendJSONError writes a JSON error response.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Success: false,
		Status:  status,
		Message: message,
	})
}
