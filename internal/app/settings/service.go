package settings

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wayfarer-app/account-api/internal/platform/metrics"
	identityport "github.com/wayfarer-app/account-api/internal/ports/out/identity"
	"github.com/wayfarer-app/account-api/internal/ports/out/profilerepo"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// Stage names a step within the combined settings update.
const (
	StageProfile    = "profile"
	StageCredential = "credential"
)

// ApplyResult reports which steps of a settings update ran. A settings
// update is not transactional: a committed profile change is not rolled
// back when the later credential step fails.
type ApplyResult struct {
	ProfileUpdated  bool
	PasswordChanged bool
}

// ApplyInput is the input for Service.ApplySettings.
type ApplyInput struct {
	SelectedHomeCountry string
	CurrentHomeCountry  string

	// NewPassword empty means "no password change requested".
	NewPassword     string
	ConfirmPassword string
}

// Service validates and applies user settings changes: the password-change
// flow on its own, and the combined profile-preference + password flow.
type Service struct {
	identity identityport.Service
	profiles profilerepo.Repository
	log      *slog.Logger
	metrics  metrics.Collector
}

func NewService(identitySvc identityport.Service, profiles profilerepo.Repository, log *slog.Logger, mc metrics.Collector) *Service {
	if log == nil {
		log = slog.Default()
	}
	if mc == nil {
		mc = metrics.Nop()
	}
	return &Service{
		identity: identitySvc,
		profiles: profiles,
		log:      log,
		metrics:  mc,
	}
}

// UpdatePassword submits a new password for the current session.
//
// Validation is local and fail-fast: mismatch wins over length, and neither
// violation reaches the identity provider. The same session continues after
// a successful change; no new tokens are issued.
func (s *Service) UpdatePassword(ctx context.Context, newPassword, confirmPassword string) error {
	if err := validatePassword(newPassword, confirmPassword); err != nil {
		return err
	}
	return s.updateCredential(ctx, newPassword)
}

// ApplySettings runs the combined settings update in order: password
// confirmation check, profile home-country update (skipped when unchanged),
// then the credential update (skipped when no password was entered).
//
// Each step's failure aborts the remaining steps and is reported with the
// stage that failed. Partial completion is intentional: a profile change
// that committed before a credential failure stays committed.
func (s *Service) ApplySettings(ctx context.Context, in ApplyInput) (ApplyResult, error) {
	var out ApplyResult

	if in.NewPassword != "" && in.NewPassword != in.ConfirmPassword {
		return out, &Error{
			Status:  422,
			Code:    "PASSWORD_MISMATCH",
			Message: "passwords do not match",
		}
	}

	if in.SelectedHomeCountry != in.CurrentHomeCountry {
		sess, err := s.identity.CurrentSession(ctx)
		if err != nil || sess.IsZero() {
			return out, &Error{
				Status:  401,
				Code:    "NO_ACTIVE_SESSION",
				Message: "sign in to change settings",
			}
		}
		if err := s.profiles.UpdateHomeCountry(ctx, sess.UserID, in.SelectedHomeCountry); err != nil {
			s.metrics.SettingsUpdateFailure(StageProfile)
			return out, stageError(StageProfile, err)
		}
		out.ProfileUpdated = true
	}

	if in.NewPassword != "" {
		if err := s.updateCredential(ctx, in.NewPassword); err != nil {
			s.metrics.SettingsUpdateFailure(StageCredential)
			// out reports the already-committed profile change.
			return out, asStageError(StageCredential, err)
		}
		out.PasswordChanged = true
	}

	s.metrics.SettingsUpdateSuccess()
	return out, nil
}

func (s *Service) updateCredential(ctx context.Context, newPassword string) error {
	sess, err := s.identity.CurrentSession(ctx)
	if err != nil || sess.IsZero() {
		return &Error{
			Status:  401,
			Code:    "NO_ACTIVE_SESSION",
			Message: "sign in to change your password",
		}
	}
	if err := s.identity.UpdateCredential(ctx, newPassword); err != nil {
		if errors.Is(err, identityport.ErrNoSession) {
			return &Error{
				Status:  401,
				Code:    "NO_ACTIVE_SESSION",
				Message: "sign in to change your password",
			}
		}
		// Provider message passes through verbatim for user display.
		return &Error{
			Status:  502,
			Code:    "IDENTITY_SERVICE_ERROR",
			Message: err.Error(),
		}
	}
	s.log.Info("password updated", "user_id", string(sess.UserID))
	return nil
}

func validatePassword(newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return &Error{
			Status:  422,
			Code:    "PASSWORD_MISMATCH",
			Message: "passwords do not match",
		}
	}
	if len(newPassword) < MinPasswordLength {
		return &Error{
			Status:  422,
			Code:    "PASSWORD_TOO_SHORT",
			Message: "password must be at least 6 characters",
			Details: map[string]any{"minLength": MinPasswordLength},
		}
	}
	return nil
}

func stageError(stage string, cause error) *Error {
	return &Error{
		Status:  502,
		Code:    "SETTINGS_UPDATE_FAILED",
		Message: cause.Error(),
		Details: map[string]any{"stage": stage},
	}
}

// asStageError wraps err with stage metadata, but keeps validation and
// session errors (already *Error) as-is: those never reached a service.
func asStageError(stage string, err error) error {
	ae := (*Error)(nil)
	if errors.As(err, &ae) && ae.Code != "IDENTITY_SERVICE_ERROR" {
		return err
	}
	return stageError(stage, err)
}
