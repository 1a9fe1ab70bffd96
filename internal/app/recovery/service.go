package recovery

import (
	"context"
	"log/slog"
	"time"

	"github.com/wayfarer-app/account-api/internal/domain"
	"github.com/wayfarer-app/account-api/internal/platform/metrics"
	identityport "github.com/wayfarer-app/account-api/internal/ports/out/identity"
	tokenguardport "github.com/wayfarer-app/account-api/internal/ports/out/tokenguard"
)

// State is the outcome of a single recovery attempt.
type State string

const (
	// StateNoToken: the navigation carried no usable recovery token. This is
	// the common case and not an error.
	StateNoToken State = "NO_TOKEN"

	// StateRecovered: a session was established from the token.
	StateRecovered State = "RECOVERED"

	// StateFailed: the token was present but the identity provider rejected
	// it. One-shot tokens are never resubmitted, so there is no retry.
	StateFailed State = "FAILED"
)

// Result is what the presentation layer renders after each navigation. The
// presentation layer reads state; it never drives recovery transitions
// itself.
type Result struct {
	State State

	// ShowPasswordChange instructs the caller to open the password-change
	// surface. Set only on successful recovery.
	ShowPasswordChange bool

	// ClearFragment instructs the caller to remove the fragment from the
	// navigable location, without a full reload, so back-navigation cannot
	// resubmit the token. Set exactly once per successful recovery.
	ClearFragment bool

	// Reason is a user-displayable failure reason. Empty unless StateFailed.
	Reason string
}

// Service recovers an authentication session from a one-time recovery token
// embedded in a URL fragment. Safe to call on every navigation.
type Service struct {
	identity identityport.Service
	guard    tokenguardport.Guard
	log      *slog.Logger
	metrics  metrics.Collector

	// RequireRefreshToken rejects fragments without a refresh_token instead
	// of defaulting it to empty. Default false: the permissive default
	// matches the observed provider behavior and is a deliberate policy,
	// not a bug.
	RequireRefreshToken bool

	// GuardTTL bounds how long a consumed token stays marked. It only needs
	// to outlive the provider-side token lifetime.
	GuardTTL time.Duration
}

func NewService(identitySvc identityport.Service, guard tokenguardport.Guard, log *slog.Logger, mc metrics.Collector) *Service {
	if log == nil {
		log = slog.Default()
	}
	if mc == nil {
		mc = metrics.Nop()
	}
	return &Service{
		identity: identitySvc,
		guard:    guard,
		log:      log,
		metrics:  mc,
		GuardTTL: time.Hour,
	}
}

// Recover parses the inbound URL fragment and, when it carries a recovery
// token, establishes a session with the identity provider. It never returns
// a transport error to the caller: identity failures are reported as a
// user-facing failed state so the surface can render them.
func (s *Service) Recover(ctx context.Context, fragment string) Result {
	req := domain.ParseRecoveryFragment(fragment)
	if !req.IsRecovery() {
		return Result{State: StateNoToken}
	}
	if s.RequireRefreshToken && req.RefreshToken == "" {
		s.metrics.RecoveryFailure("missing_refresh_token")
		return Result{
			State:  StateFailed,
			Reason: "recovery link is incomplete",
		}
	}

	// Replay guard: the first consumer of a token wins. A replayed fragment
	// (copied link, back-navigation race) is dropped before the provider
	// ever sees the token a second time. Guard outages fail open; the
	// provider's own one-shot enforcement is the backstop.
	if s.guard != nil {
		fresh, err := s.guard.Consume(ctx, req.AccessToken, s.GuardTTL)
		if err != nil {
			s.log.Warn("recovery token guard unavailable", "err", err)
		} else if !fresh {
			s.metrics.RecoveryFailure("replayed")
			return Result{State: StateNoToken}
		}
	}

	sess, err := s.identity.EstablishSession(ctx, req.AccessToken, req.RefreshToken)
	if err != nil {
		s.log.Info("session recovery rejected", "err", err)
		s.metrics.RecoveryFailure("rejected")
		return Result{
			State:  StateFailed,
			Reason: "token expired or invalid",
		}
	}

	s.log.Info("session recovered", "user_id", string(sess.UserID))
	s.metrics.RecoverySuccess()
	return Result{
		State:              StateRecovered,
		ShowPasswordChange: true,
		ClearFragment:      true,
	}
}
