package domain

// Session is the authenticated identity state held by the runtime. Both
// tokens come from a single identity-provider issuance; a Session is either
// fully absent or carries both.
type Session struct {
	UserID       UserID
	AccessToken  string
	RefreshToken string
}

// IsZero reports whether no session is established.
func (s Session) IsZero() bool {
	return s.AccessToken == ""
}
