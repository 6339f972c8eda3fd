// ABOUTME: Gateway owns the HTTP server, habit repository, and idempotency cache
// ABOUTME: Manages listener setup, serving, and graceful shutdown lifecycle

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/2389/habit-gateway/internal/config"
	"github.com/2389/habit-gateway/internal/dedupe"
	"github.com/2389/habit-gateway/internal/repository"
	"github.com/2389/habit-gateway/internal/store"
)

// Gateway serves the habit HTTP API.
type Gateway struct {
	config     *config.Config
	habits     *repository.Repository
	httpServer *http.Server
	logger     *slog.Logger

	// idempotency maps Idempotency-Key headers to the create they recorded
	idempotency *dedupe.Cache[createRecord]

	// idempotencyMu serializes keyed creates and deletes so two retries of
	// the same key cannot both miss the cache and create twice, and a key is
	// dropped before its habit's ID can be handed out again
	idempotencyMu sync.Mutex
}

// initStore creates the tree store from config.
func initStore(cfg *config.Config) store.TreeStore {
	return store.NewFileStore(cfg.Storage.Path)
}

// New creates a Gateway backed by the file store named in cfg.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return NewWithStore(cfg, initStore(cfg), logger), nil
}

// NewWithStore creates a Gateway over an existing TreeStore.
func NewWithStore(cfg *config.Config, s store.TreeStore, logger *slog.Logger) *Gateway {
	gw := &Gateway{
		config:      cfg,
		habits:      repository.New(s, logger.With("component", "repository")),
		logger:      logger.With("component", "gateway"),
		idempotency: dedupe.New[createRecord](cfg.Idempotency.TTL, cfg.Idempotency.MaxEntries),
	}

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	return gw
}

// Handler returns the full HTTP handler with routes and request logging.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()

	// Liveness
	mux.HandleFunc("GET /{$}", g.handleRoot)
	mux.HandleFunc("GET /health", g.handleHealth)

	// Habit API
	mux.HandleFunc("GET /habits", g.handleListHabits)
	mux.HandleFunc("POST /habits", g.handleCreateHabit)
	mux.HandleFunc("GET /habits/{id}", g.handleGetHabit)
	mux.HandleFunc("PUT /habits/{id}", g.handleUpdateHabit)
	mux.HandleFunc("DELETE /habits/{id}", g.handleDeleteHabit)

	return g.requestLogger(mux)
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown (context canceled), or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}
	return g.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln until ctx is canceled.
func (g *Gateway) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String(), "storage", g.config.Storage.Path)
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), g.config.Server.ShutdownTimeout)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown stops the HTTP server, waiting for in-flight requests, and
// releases the idempotency cache.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	err := g.httpServer.Shutdown(ctx)
	g.idempotency.Close()
	if err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}

// handleRoot answers the bare service URL.
func (g *Gateway) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Daily Habit Tracker API is running!"))
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
