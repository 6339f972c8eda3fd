// Package gateway serves the habit tracker HTTP API.
//
// # Overview
//
// The Gateway owns the HTTP server, the habit repository, and the
// idempotency cache. Every request reloads the habit forest from the
// configured TreeStore, so the JSON document on disk is the only state.
//
// # HTTP API
//
//   - GET / - Plain-text liveness banner
//   - GET /health - Liveness check
//   - GET /habits - Whole forest as a JSON array
//   - POST /habits - Create a habit at the root or under parentId (201)
//   - GET /habits/{id} - One habit with its subtree
//   - PUT /habits/{id} - Partial update (200)
//   - DELETE /habits/{id} - Remove a habit and its subtree (204)
//
// # Errors
//
// Errors use a single envelope:
//
//	{"success": false, "status": 404, "message": "Habit with ID 7 not found"}
//
// Validation failures and malformed ids map to 400, unknown ids to 404,
// and storage failures to 500. Storage causes are logged, never returned.
//
// # Idempotent Creates
//
// A POST /habits carrying an Idempotency-Key header creates at most one
// habit per key within the configured TTL. Retries return the habit that
// the first request created, with an Idempotent-Replayed header.
//
// # Lifecycle
//
//	gw, err := gateway.New(cfg, logger)
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	err = gw.Run(ctx)
//
// Run returns after the context is canceled and in-flight requests drain.
//
// # Key Files
//
//   - gateway.go: Gateway struct, initialization, Run/Shutdown
//   - api.go: habit handlers
//   - errors.go: error classification and envelope
//   - middleware.go: request IDs and access logging
package gateway
