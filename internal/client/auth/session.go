package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ProviderSessionKey is the local storage key of the provider refresh token.
const ProviderSessionKey = "providerSession"

var (
	// ErrNoPendingLogin is returned by CompleteLogin without a prior BeginLogin.
	ErrNoPendingLogin = errors.New("no login in progress")
	// ErrStateMismatch is returned when the callback state is not the one issued.
	ErrStateMismatch = errors.New("login state mismatch")
)

// TokenStore persists the access credential read by the API gateway.
type TokenStore interface {
	SaveAccessToken(token string) error
	ClearAccessToken() error
}

// KeyValueStore persists the provider session.
type KeyValueStore interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

type pendingLogin struct {
	state    string
	verifier string
}

// Session is the process-wide authentication state. It is explicitly
// initialised with Init and torn down with Logout.
type Session struct {
	provider Provider
	tokens   TokenStore
	store    KeyValueStore
	returnTo string
	log      *zap.Logger

	mu            sync.Mutex
	authenticated bool
	user          *User
	pending       *pendingLogin
}

// NewSession returns an unauthenticated Session. returnTo is where the
// provider sends the browser after logout. log may be nil.
func NewSession(p Provider, tokens TokenStore, store KeyValueStore, returnTo string, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{provider: p, tokens: tokens, store: store, returnTo: returnTo, log: log}
}

// Init silently restores a previous session from the stored refresh token.
// Any failure leaves the session unauthenticated and is only logged. A
// credential left over from an earlier run is dropped unless the restore
// succeeds.
func (s *Session) Init(ctx context.Context) {
	refresh, ok, err := s.store.GetItem(ProviderSessionKey)
	if err != nil {
		s.log.Warn("read provider session", zap.Error(err))
		s.dropStaleCredential()
		return
	}
	if !ok || refresh == "" {
		s.dropStaleCredential()
		return
	}

	tok, err := s.provider.Refresh(ctx, refresh)
	if err != nil {
		s.log.Warn("silent session restore failed", zap.Error(err))
		s.dropStaleCredential()
		return
	}
	s.establish(ctx, tok)
	s.log.Info("session restored")
}

func (s *Session) dropStaleCredential() {
	if err := s.tokens.ClearAccessToken(); err != nil {
		s.log.Warn("clear stale access token", zap.Error(err))
	}
}

// BeginLogin starts a login and returns the provider URL to open. A new call
// supersedes any pending login.
func (s *Session) BeginLogin() string {
	p := &pendingLogin{state: uuid.NewString(), verifier: oauth2.GenerateVerifier()}

	s.mu.Lock()
	s.pending = p
	s.mu.Unlock()

	return s.provider.AuthCodeURL(p.state, p.verifier)
}

// CompleteLogin finishes the pending login with the code and state the
// provider redirected back with.
func (s *Session) CompleteLogin(ctx context.Context, code, state string) error {
	s.mu.Lock()
	p := s.pending
	if p != nil && p.state == state {
		s.pending = nil
	}
	s.mu.Unlock()

	if p == nil {
		return ErrNoPendingLogin
	}
	if p.state != state {
		return ErrStateMismatch
	}

	tok, err := s.provider.Exchange(ctx, code, p.verifier)
	if err != nil {
		s.log.Error("code exchange failed", zap.Error(err))
		return fmt.Errorf("exchange code: %w", err)
	}
	s.establish(ctx, tok)
	s.log.Info("logged in", zap.String("user", s.CurrentUser().displayOrEmpty()))
	return nil
}

// Logout removes the credential and the provider session from local storage
// and returns the provider logout URL.
func (s *Session) Logout() string {
	if err := s.tokens.ClearAccessToken(); err != nil {
		s.log.Error("clear access token", zap.Error(err))
	}
	if err := s.store.RemoveItem(ProviderSessionKey); err != nil {
		s.log.Error("clear provider session", zap.Error(err))
	}

	s.mu.Lock()
	s.authenticated = false
	s.user = nil
	s.pending = nil
	s.mu.Unlock()

	return s.provider.LogoutURL(s.returnTo)
}

// IsAuthenticated reports whether a credential was obtained in this process.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// CurrentUser returns the logged-in user, or nil.
func (s *Session) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// establish persists tok and loads the user. Storage and userinfo failures
// are logged; the session is authenticated once a token was issued.
func (s *Session) establish(ctx context.Context, tok *oauth2.Token) {
	if err := s.tokens.SaveAccessToken(tok.AccessToken); err != nil {
		s.log.Error("persist access token", zap.Error(err))
	}
	if tok.RefreshToken != "" {
		if err := s.store.SetItem(ProviderSessionKey, tok.RefreshToken); err != nil {
			s.log.Error("persist provider session", zap.Error(err))
		}
	}

	user, err := s.provider.UserInfo(ctx, tok.AccessToken)
	if err != nil {
		s.log.Warn("load current user", zap.Error(err))
	}

	s.mu.Lock()
	s.authenticated = true
	s.user = user
	s.mu.Unlock()
}

func (u *User) displayOrEmpty() string {
	if u == nil {
		return ""
	}
	return u.DisplayName()
}
