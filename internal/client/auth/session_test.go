package auth

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/atinyakov/BookKeeper/internal/client/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type mockProvider struct {
	AuthCodeURLFunc func(state, verifier string) string
	ExchangeFunc    func(ctx context.Context, code, verifier string) (*oauth2.Token, error)
	RefreshFunc     func(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	UserInfoFunc    func(ctx context.Context, accessToken string) (*User, error)
}

func (m *mockProvider) AuthCodeURL(state, verifier string) string {
	if m.AuthCodeURLFunc != nil {
		return m.AuthCodeURLFunc(state, verifier)
	}
	return "https://idp/authorize?state=" + url.QueryEscape(state)
}

func (m *mockProvider) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	return m.ExchangeFunc(ctx, code, verifier)
}

func (m *mockProvider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return m.RefreshFunc(ctx, refreshToken)
}

func (m *mockProvider) UserInfo(ctx context.Context, accessToken string) (*User, error) {
	if m.UserInfoFunc != nil {
		return m.UserInfoFunc(ctx, accessToken)
	}
	return &User{Subject: "auth0|1", GivenName: "Ada"}, nil
}

func (m *mockProvider) LogoutURL(returnTo string) string {
	return "https://idp/v2/logout?returnTo=" + url.QueryEscape(returnTo)
}

func newTestSession(t *testing.T, p Provider) (*Session, *storage.LocalStorage, *storage.TokenStore) {
	t.Helper()
	ls := storage.NewLocalStorage(filepath.Join(t.TempDir(), "storage.json"), nil)
	tokens := storage.NewTokenStore(ls)
	return NewSession(p, tokens, ls, "http://localhost:5173", nil), ls, tokens
}

func stateOf(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	return u.Query().Get("state")
}

func TestLogin_TwoPhase(t *testing.T) {
	var gotVerifier string
	p := &mockProvider{
		AuthCodeURLFunc: func(state, verifier string) string {
			gotVerifier = verifier
			return "https://idp/authorize?state=" + state
		},
		ExchangeFunc: func(_ context.Context, code, verifier string) (*oauth2.Token, error) {
			assert.Equal(t, "code-1", code)
			assert.Equal(t, gotVerifier, verifier)
			return &oauth2.Token{AccessToken: "access-1", RefreshToken: "refresh-1"}, nil
		},
	}
	s, ls, tokens := newTestSession(t, p)

	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.CurrentUser())

	authURL := s.BeginLogin()
	require.NoError(t, s.CompleteLogin(context.Background(), "code-1", stateOf(t, authURL)))

	assert.True(t, s.IsAuthenticated())
	require.NotNil(t, s.CurrentUser())
	assert.Equal(t, "Ada", s.CurrentUser().DisplayName())

	tok, err := tokens.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok)
	refresh, ok, err := ls.GetItem(ProviderSessionKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "refresh-1", refresh)
}

func TestCompleteLogin_Errors(t *testing.T) {
	p := &mockProvider{ExchangeFunc: func(context.Context, string, string) (*oauth2.Token, error) {
		return nil, errors.New("invalid_grant")
	}}
	s, _, _ := newTestSession(t, p)

	assert.ErrorIs(t, s.CompleteLogin(context.Background(), "c", "s"), ErrNoPendingLogin)

	first := stateOf(t, s.BeginLogin())
	second := stateOf(t, s.BeginLogin())
	assert.NotEqual(t, first, second)
	assert.ErrorIs(t, s.CompleteLogin(context.Background(), "c", first), ErrStateMismatch,
		"a new login supersedes the pending one")

	err := s.CompleteLogin(context.Background(), "c", second)
	assert.ErrorContains(t, err, "invalid_grant")
	assert.False(t, s.IsAuthenticated())
}

func TestInit_SilentRestore(t *testing.T) {
	p := &mockProvider{RefreshFunc: func(_ context.Context, rt string) (*oauth2.Token, error) {
		assert.Equal(t, "refresh-1", rt)
		return &oauth2.Token{AccessToken: "fresh", RefreshToken: "refresh-2"}, nil
	}}
	s, ls, tokens := newTestSession(t, p)
	require.NoError(t, ls.SetItem(ProviderSessionKey, "refresh-1"))

	s.Init(context.Background())

	assert.True(t, s.IsAuthenticated())
	tok, _ := tokens.AccessToken()
	assert.Equal(t, "fresh", tok)
	rotated, _, _ := ls.GetItem(ProviderSessionKey)
	assert.Equal(t, "refresh-2", rotated)
}

func TestInit_DegradesToUnauthenticated(t *testing.T) {
	t.Run("no stored session", func(t *testing.T) {
		p := &mockProvider{RefreshFunc: func(context.Context, string) (*oauth2.Token, error) {
			t.Fatal("refresh must not be attempted")
			return nil, nil
		}}
		s, _, tokens := newTestSession(t, p)
		require.NoError(t, tokens.SaveAccessToken("left-over"))

		s.Init(context.Background())
		assert.False(t, s.IsAuthenticated())
		tok, _ := tokens.AccessToken()
		assert.Empty(t, tok, "a credential without a provider session is dropped")
	})

	t.Run("refresh fails", func(t *testing.T) {
		p := &mockProvider{RefreshFunc: func(context.Context, string) (*oauth2.Token, error) {
			return nil, errors.New("login_required")
		}}
		s, ls, tokens := newTestSession(t, p)
		require.NoError(t, ls.SetItem(ProviderSessionKey, "stale"))
		require.NoError(t, tokens.SaveAccessToken("expired-access"))

		assert.NotPanics(t, func() { s.Init(context.Background()) })
		assert.False(t, s.IsAuthenticated())
		tok, _ := tokens.AccessToken()
		assert.Empty(t, tok)
	})

	t.Run("userinfo fails", func(t *testing.T) {
		p := &mockProvider{
			RefreshFunc: func(context.Context, string) (*oauth2.Token, error) {
				return &oauth2.Token{AccessToken: "fresh"}, nil
			},
			UserInfoFunc: func(context.Context, string) (*User, error) {
				return nil, errors.New("503")
			},
		}
		s, ls, _ := newTestSession(t, p)
		require.NoError(t, ls.SetItem(ProviderSessionKey, "r"))

		s.Init(context.Background())
		assert.True(t, s.IsAuthenticated())
		assert.Nil(t, s.CurrentUser())
	})
}

func TestLogout(t *testing.T) {
	p := &mockProvider{ExchangeFunc: func(context.Context, string, string) (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: "access-1", RefreshToken: "refresh-1"}, nil
	}}
	s, ls, tokens := newTestSession(t, p)
	require.NoError(t, s.CompleteLogin(context.Background(), "c", stateOf(t, s.BeginLogin())))

	logoutURL := s.Logout()

	assert.Contains(t, logoutURL, "/v2/logout")
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.CurrentUser())
	tok, err := tokens.AccessToken()
	require.NoError(t, err)
	assert.Empty(t, tok)
	_, ok, _ := ls.GetItem(ProviderSessionKey)
	assert.False(t, ok)
}
