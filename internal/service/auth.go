package service

import (
	"context"
	"sync"
	"time"

	"github.com/atinyakov/BookKeeper/internal/models"
)

// ErrUnauthenticated is returned when a bearer token does not identify a user.
var ErrUnauthenticated = models.ErrUnauthenticated

// DefaultTokenTTL bounds how long a verified token is trusted without asking
// the identity provider again.
const DefaultTokenTTL = 5 * time.Minute

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	// UserExists returns true if a user with the given subject exists.
	UserExists(ctx context.Context, sub string) (bool, error)
	// RegisterUser creates or refreshes the user record.
	RegisterUser(ctx context.Context, u models.User) error
}

// TokenVerifier resolves a bearer token to the user it was issued to.
// Rejected tokens yield ErrUnauthenticated.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (models.User, error)
}

type cachedUser struct {
	user    models.User
	expires time.Time
}

// Service implements authentication operations by delegating
// to an AuthRepository and a TokenVerifier.
type Service struct {
	repo     AuthRepository
	verifier TokenVerifier
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cachedUser
}

// NewAuthService constructs a new Service using the provided repository and verifier.
func NewAuthService(repo AuthRepository, verifier TokenVerifier) *Service {
	return &Service{
		repo:     repo,
		verifier: verifier,
		ttl:      DefaultTokenTTL,
		now:      time.Now,
		cache:    make(map[string]cachedUser),
	}
}

// UserExists checks whether a user with the specified subject exists.
func (s *Service) UserExists(ctx context.Context, sub string) (bool, error) {
	return s.repo.UserExists(ctx, sub)
}

// RegisterUser records u.
func (s *Service) RegisterUser(ctx context.Context, u models.User) error {
	return s.repo.RegisterUser(ctx, u)
}

// Authenticate verifies token and makes sure its user is registered.
// Verified tokens are remembered for the service's TTL.
func (s *Service) Authenticate(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrUnauthenticated
	}
	if u, ok := s.cached(token); ok {
		return u, nil
	}

	u, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return models.User{}, err
	}
	if u.Subject == "" {
		return models.User{}, ErrUnauthenticated
	}
	if err := s.repo.RegisterUser(ctx, u); err != nil {
		return models.User{}, err
	}

	s.remember(token, u)
	return u, nil
}

func (s *Service) cached(token string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cache[token]
	if !ok {
		return models.User{}, false
	}
	if !s.now().Before(c.expires) {
		delete(s.cache, token)
		return models.User{}, false
	}
	return c.user, true
}

func (s *Service) remember(token string, u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, c := range s.cache {
		if !now.Before(c.expires) {
			delete(s.cache, k)
		}
	}
	s.cache[token] = cachedUser{user: u, expires: now.Add(s.ttl)}
}
