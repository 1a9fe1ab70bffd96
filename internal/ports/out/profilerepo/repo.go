package profilerepo

import (
	"context"
	"time"

	"github.com/wayfarer-app/account-api/internal/domain"
)

// Profile is the persistence shape used by the profile repository.
type Profile struct {
	UserID domain.UserID

	HomeCountry string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides access to persisted user profiles. A user has at most
// one profile, keyed by identity-provider user ID.
type Repository interface {
	Create(ctx context.Context, p Profile) error

	GetByUser(ctx context.Context, userID domain.UserID) (Profile, error)

	// UpdateHomeCountry persists a changed home-country preference for the
	// user. Returns ErrNotFound when no profile exists.
	UpdateHomeCountry(ctx context.Context, userID domain.UserID, homeCountry string) error

	// DeleteByUser removes the profile record. Returns ErrNotFound when no
	// profile exists.
	DeleteByUser(ctx context.Context, userID domain.UserID) error
}
