package http

import (
	"net/http"

	"github.com/atinyakov/BookKeeper/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves
// the catalog API.
//
// Parameters:
//
//	graphqlHandler - handler executing GraphQL requests
//	authHandler    - handler for identity endpoints
//	authenticator  - verifies bearer tokens
//	logger         - structured logger for request logging middleware
//
// Routes:
//
//	POST /graphql   → graphqlHandler (JSON bodies only)
//	GET  /api/me    → authHandler.Me
//
// Middleware chain (applied in order):
//  1. RequestID                      : reuses or assigns X-Request-Id
//  2. WithRequestLogging(logger)     : logs every request
//  3. Recoverer                      : turns handler panics into 500s
//  4. BearerAuth(authenticator)      : attaches the verified user, if any
func NewRouter(
	graphqlHandler http.Handler,
	authHandler *AuthHandler,
	authenticator middleware.Authenticator,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.BearerAuth(authenticator, logger))

	// Only allow requests with Content-Type: application/json
	r.With(chiMiddleware.AllowContentType("application/json")).
		Post("/graphql", graphqlHandler.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/me", authHandler.Me)
	})

	return r
}
