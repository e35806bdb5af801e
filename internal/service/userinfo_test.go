package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserInfoVerifier(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantSub  string
		wantName string
		wantErr  error
		anyErr   bool
	}{
		{"ok", http.StatusOK, `{"sub":"auth0|1","name":"Ada Lovelace"}`, "auth0|1", "Ada Lovelace", nil, false},
		{"nickname fallback", http.StatusOK, `{"sub":"auth0|2","nickname":"ada"}`, "auth0|2", "ada", nil, false},
		{"unauthorized", http.StatusUnauthorized, `Unauthorized`, "", "", ErrUnauthenticated, true},
		{"forbidden", http.StatusForbidden, ``, "", "", ErrUnauthenticated, true},
		{"no subject", http.StatusOK, `{"name":"x"}`, "", "", ErrUnauthenticated, true},
		{"server error", http.StatusBadGateway, ``, "", "", nil, true},
		{"malformed", http.StatusOK, `{`, "", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/userinfo", r.URL.Path)
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			v := NewUserInfoVerifier(srv.URL, srv.Client())
			u, err := v.Verify(context.Background(), "tok")
			if tt.anyErr {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				} else {
					assert.False(t, errors.Is(err, ErrUnauthenticated), "got %v", err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSub, u.Subject)
			assert.Equal(t, tt.wantName, u.Name)
		})
	}
}

func TestNewUserInfoVerifier_Endpoint(t *testing.T) {
	assert.Equal(t, "https://tenant.eu.auth0.com/userinfo", NewUserInfoVerifier("tenant.eu.auth0.com", nil).endpoint)
	assert.Equal(t, "http://localhost:9/userinfo", NewUserInfoVerifier("http://localhost:9/", nil).endpoint)
}
