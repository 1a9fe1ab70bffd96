package domain

// UserID is the account identifier issued by the identity provider.
// We model it as an opaque identifier: its format is controlled by the IdP.
type UserID string

// TravelRecordID is an internal identifier for a travel record.
type TravelRecordID string
