package identity

import (
	"context"

	"github.com/wayfarer-app/account-api/internal/domain"
)

// Service is the capability interface for the external identity provider.
// Token validity is an opaque external fact; this core never inspects token
// contents.
//
// Implementations own the current session for the lifetime of the process
// serving one client (see the single-client concurrency model): a session is
// established by EstablishSession and destroyed by SignOut or expiry.
type Service interface {
	// EstablishSession re-establishes an authenticated session from a
	// one-time recovery token pair. refreshToken may be empty; whether that
	// is accepted is the provider's call.
	EstablishSession(ctx context.Context, accessToken, refreshToken string) (domain.Session, error)

	// UpdateCredential sets a new password for the current session's user.
	// Fails with ErrNoSession when no session is established.
	UpdateCredential(ctx context.Context, newPassword string) error

	// CurrentSession returns the established session, or a zero Session
	// when none exists.
	CurrentSession(ctx context.Context) (domain.Session, error)

	// SignOut terminates the current session locally and with the provider.
	SignOut(ctx context.Context) error
}
