package domain

import "time"

// Profile is the domain representation of a user profile record.
type Profile struct {
	UserID UserID

	// HomeCountry is an ISO 3166-1 alpha-2 code (e.g. "KR", "JP").
	HomeCountry string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TravelRecord is one entry in a user's trip history.
type TravelRecord struct {
	ID     TravelRecordID
	UserID UserID

	Country string
	City    *string

	StartDate *time.Time
	EndDate   *time.Time

	Notes *string

	CreatedAt time.Time
}
