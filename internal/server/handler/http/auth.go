package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atinyakov/BookKeeper/internal/middleware"
)

// AuthService defines the interface for the user lookups
// required by the HTTP handlers.
type AuthService interface {
	// UserExists checks whether a user with the given subject is registered.
	UserExists(context.Context, string) (bool, error)
}

// AuthHandler handles HTTP requests about the caller's identity.
type AuthHandler struct {
	// AuthService performs the underlying user lookups.
	AuthService AuthService
}

// Me handles GET /api/me.
// The caller is identified by the bearer token verified upstream by
// middleware.BearerAuth. If that user is registered, it returns a JSON
// status "ok" with the subject and display name.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	exists, err := h.AuthService.UserExists(r.Context(), u.Subject)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, "user not found", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"user":   u.Subject,
		"name":   u.Name,
	})
}
