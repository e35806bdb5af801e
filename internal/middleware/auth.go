// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/atinyakov/BookKeeper/internal/models"
	"go.uber.org/zap"
)

type ctxKey string

const userKey ctxKey = "user"

// Authenticator resolves a bearer token to a registered user. Rejected
// tokens yield models.ErrUnauthenticated; any other error means the token
// could not be checked.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

// BearerAuth is a middleware that identifies the caller from the
// "Authorization: Bearer <token>" header.
//
// It never rejects a request by itself: catalog reads are public, so a
// missing or invalid token only means the request carries no user.
// Handlers that change data check UserFromContext and refuse anonymous
// callers. On successful verification the user is stored in the request
// context for downstream handlers.
func BearerAuth(auth Authenticator, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			u, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, models.ErrUnauthenticated) {
					log.Debug("bearer token rejected", zap.String("path", r.URL.Path))
				} else {
					log.Warn("cannot verify bearer token", zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok && u.Subject != ""
}

// GetUserIDFromContext extracts the authenticated user's subject from the
// request context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	u, _ := UserFromContext(ctx)
	return u.Subject
}
