package travelrepo

import (
	"context"
	"time"

	"github.com/wayfarer-app/account-api/internal/domain"
)

// TravelRecord is the persistence shape used by the travel repository.
// It is not an HTTP DTO.
type TravelRecord struct {
	ID     domain.TravelRecordID
	UserID domain.UserID

	Country string
	City    *string

	StartDate *time.Time
	EndDate   *time.Time

	Notes *string

	CreatedAt time.Time
}

// Repository provides access to persisted travel records.
//
// All methods are scoped by an equality filter on user identity; no method
// touches records owned by other users.
type Repository interface {
	Create(ctx context.Context, rec TravelRecord) error

	ListByUser(ctx context.Context, userID domain.UserID) ([]TravelRecord, error)

	// DeleteByUser removes every travel record for the user. Deleting a user
	// with no records is not an error.
	DeleteByUser(ctx context.Context, userID domain.UserID) error
}
