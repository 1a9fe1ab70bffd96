package domain

import "net/url"

// RecoveryRequestType classifies an inbound URL fragment.
type RecoveryRequestType string

const (
	RecoveryTypeRecovery RecoveryRequestType = "recovery"
	RecoveryTypeOther    RecoveryRequestType = ""
)

// RecoveryRequest is the transient, single-use structure extracted from an
// inbound URL fragment of the form
//
//	#access_token=...&refresh_token=...&type=recovery
//
// It materializes once per navigation and is consumed at most once.
type RecoveryRequest struct {
	AccessToken  string
	RefreshToken string
	Type         RecoveryRequestType
}

// ParseRecoveryFragment parses a URL fragment (with or without the leading
// '#') as standard key-value query encoding. A malformed fragment yields a
// zero request rather than an error: navigations without a token are normal.
func ParseRecoveryFragment(fragment string) RecoveryRequest {
	if len(fragment) > 0 && fragment[0] == '#' {
		fragment = fragment[1:]
	}
	vals, err := url.ParseQuery(fragment)
	if err != nil {
		return RecoveryRequest{}
	}
	req := RecoveryRequest{
		AccessToken:  vals.Get("access_token"),
		RefreshToken: vals.Get("refresh_token"),
	}
	if vals.Get("type") == string(RecoveryTypeRecovery) {
		req.Type = RecoveryTypeRecovery
	}
	return req
}

// IsRecovery reports whether the request should trigger session recovery:
// the fragment must declare type=recovery and carry an access token.
func (r RecoveryRequest) IsRecovery() bool {
	return r.Type == RecoveryTypeRecovery && r.AccessToken != ""
}
