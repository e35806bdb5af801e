// Package auth wraps the identity provider: the two-phase browser login,
// silent session restoration from a stored refresh token, logout and the
// current user. Every credential it obtains is persisted to the token store
// read by the API gateway.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// Scopes requested at login. The OIDC scopes come first so /userinfo and
// refresh work; the API scopes follow.
var Scopes = []string{
	"openid", "profile", "email", "offline_access",
	"read:current_user", "update:current_user_metadata",
}

// User is the identity reported by the provider's /userinfo endpoint.
type User struct {
	Subject   string `json:"sub"`
	Name      string `json:"name"`
	GivenName string `json:"given_name"`
	Nickname  string `json:"nickname"`
	Email     string `json:"email"`
}

// DisplayName is the friendliest non-empty name of u.
func (u *User) DisplayName() string {
	for _, s := range []string{u.GivenName, u.Name, u.Nickname, u.Email, u.Subject} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Provider is the identity provider as the session sees it.
type Provider interface {
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	UserInfo(ctx context.Context, accessToken string) (*User, error)
	LogoutURL(returnTo string) string
}

// Auth0Config configures an Auth0-compatible provider.
type Auth0Config struct {
	// Domain is the tenant domain. A value with a scheme is used as the base URL as is.
	Domain      string
	ClientID    string
	Audience    string
	RedirectURL string
	// HTTPClient is used for token and userinfo requests; nil means http.DefaultClient.
	HTTPClient *http.Client
}

// Auth0 implements Provider with the authorization code flow and PKCE.
type Auth0 struct {
	oauth    *oauth2.Config
	base     string
	audience string
	client   *http.Client
}

// NewAuth0 returns a provider for cfg.
func NewAuth0(cfg Auth0Config) *Auth0 {
	base := strings.TrimRight(cfg.Domain, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Auth0{
		oauth: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURL,
			Scopes:      Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/authorize",
				TokenURL:  base + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		base:     base,
		audience: cfg.Audience,
		client:   client,
	}
}

// AuthCodeURL returns the URL that starts a login.
func (a *Auth0) AuthCodeURL(state, verifier string) string {
	opts := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}
	if a.audience != "" {
		opts = append(opts, oauth2.SetAuthURLParam("audience", a.audience))
	}
	return a.oauth.AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code for tokens.
func (a *Auth0) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	return a.oauth.Exchange(a.ctx(ctx), code, oauth2.VerifierOption(verifier))
}

// Refresh obtains a fresh access token from refreshToken.
func (a *Auth0) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return a.oauth.TokenSource(a.ctx(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
}

// UserInfo fetches the profile of the token's owner.
func (a *Auth0) UserInfo(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+"/userinfo", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo: unexpected status %d", resp.StatusCode)
	}
	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("userinfo: decode: %w", err)
	}
	if u.Subject == "" {
		return nil, fmt.Errorf("userinfo: missing sub")
	}
	return &u, nil
}

// LogoutURL ends the provider session and returns the browser to returnTo.
func (a *Auth0) LogoutURL(returnTo string) string {
	v := url.Values{"client_id": {a.oauth.ClientID}}
	if returnTo != "" {
		v.Set("returnTo", returnTo)
	}
	return a.base + "/v2/logout?" + v.Encode()
}

func (a *Auth0) ctx(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.client)
}
