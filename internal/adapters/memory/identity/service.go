package identity

import (
	"context"
	"sync"

	"github.com/wayfarer-app/account-api/internal/domain"
	identityport "github.com/wayfarer-app/account-api/internal/ports/out/identity"
)

// Service is an in-memory identity.Service used by tests and the memory
// storage backend. Recovery tokens are registered explicitly; everything
// else is rejected, which mirrors the provider treating token validity as
// its own opaque fact.
//
// Failure fields let tests script provider errors per operation. Call
// counters back the "never calls the identity service" assertions.
type Service struct {
	mu     sync.Mutex
	sess   domain.Session
	tokens map[string]domain.UserID

	EstablishErr        error
	UpdateCredentialErr error
	SignOutErr          error

	lastPassword   string
	establishCalls int
	updateCalls    int
	signOutCalls   int
}

func NewService() *Service {
	return &Service{
		tokens: make(map[string]domain.UserID),
	}
}

// RegisterRecoveryToken makes accessToken acceptable and binds it to userID.
func (s *Service) RegisterRecoveryToken(accessToken string, userID domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[accessToken] = userID
}

// Seed installs an already-established session.
func (s *Service) Seed(sess domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = sess
}

func (s *Service) EstablishSession(ctx context.Context, accessToken, refreshToken string) (domain.Session, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	s.establishCalls++
	if s.EstablishErr != nil {
		return domain.Session{}, s.EstablishErr
	}
	userID, ok := s.tokens[accessToken]
	if !ok {
		return domain.Session{}, identityport.ErrInvalidToken
	}
	// One-shot: a consumed recovery token is not accepted again.
	delete(s.tokens, accessToken)

	s.sess = domain.Session{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	return s.sess, nil
}

func (s *Service) UpdateCredential(ctx context.Context, newPassword string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updateCalls++
	if s.UpdateCredentialErr != nil {
		return s.UpdateCredentialErr
	}
	if s.sess.IsZero() {
		return identityport.ErrNoSession
	}
	s.lastPassword = newPassword
	return nil
}

func (s *Service) CurrentSession(ctx context.Context) (domain.Session, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess, nil
}

func (s *Service) SignOut(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	s.signOutCalls++
	if s.SignOutErr != nil {
		return s.SignOutErr
	}
	s.sess = domain.Session{}
	return nil
}

func (s *Service) EstablishCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.establishCalls
}

func (s *Service) UpdateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCalls
}

func (s *Service) SignOutCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signOutCalls
}

// LastPassword returns the most recent password accepted by
// UpdateCredential.
func (s *Service) LastPassword() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPassword
}
