package service

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/atinyakov/BookKeeper/internal/models"
)

// UserInfoVerifier verifies access tokens by calling the identity provider's
// /userinfo endpoint with them.
type UserInfoVerifier struct {
	endpoint string
	client   *http.Client
}

// NewUserInfoVerifier returns a verifier for the provider at domain. A domain
// without a scheme is reached over https.
func NewUserInfoVerifier(domain string, client *http.Client) *UserInfoVerifier {
	base := strings.TrimRight(domain, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &UserInfoVerifier{endpoint: base + "/userinfo", client: client}
}

type userInfo struct {
	Sub      string `json:"sub"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

// Verify implements TokenVerifier.
func (v *UserInfoVerifier) Verify(ctx context.Context, token string) (models.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return models.User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return models.User{}, fmt.Errorf("userinfo: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return models.User{}, ErrUnauthenticated
	case resp.StatusCode != http.StatusOK:
		return models.User{}, fmt.Errorf("userinfo: unexpected status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return models.User{}, fmt.Errorf("userinfo: decode: %w", err)
	}
	if info.Sub == "" {
		return models.User{}, ErrUnauthenticated
	}
	return models.User{Subject: info.Sub, Name: cmp.Or(info.Name, info.Nickname, info.Email)}, nil
}
