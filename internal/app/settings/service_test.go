package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	memidentity "github.com/wayfarer-app/account-api/internal/adapters/memory/identity"
	memprofilerepo "github.com/wayfarer-app/account-api/internal/adapters/memory/profilerepo"
	"github.com/wayfarer-app/account-api/internal/domain"
	"github.com/wayfarer-app/account-api/internal/ports/out/profilerepo"
)

func seededIdentity(userID domain.UserID) *memidentity.Service {
	idp := memidentity.NewService()
	idp.Seed(domain.Session{
		UserID:      userID,
		AccessToken: "at-1",
	})
	return idp
}

func seedProfile(t *testing.T, repo profilerepo.Repository, userID domain.UserID, homeCountry string) {
	t.Helper()
	err := repo.Create(context.Background(), profilerepo.Profile{
		UserID:      userID,
		HomeCountry: homeCountry,
		CreatedAt:   time.Unix(100, 0).UTC(),
		UpdatedAt:   time.Unix(100, 0).UTC(),
	})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

// countingProfileRepo wraps a repository and counts UpdateHomeCountry calls.
type countingProfileRepo struct {
	profilerepo.Repository
	updates   int
	updateErr error
}

func (r *countingProfileRepo) UpdateHomeCountry(ctx context.Context, userID domain.UserID, homeCountry string) error {
	r.updates++
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.Repository.UpdateHomeCountry(ctx, userID, homeCountry)
}

func TestService_UpdatePassword_Mismatch(t *testing.T) {
	t.Parallel()

	idp := seededIdentity("user-1")
	svc := NewService(idp, memprofilerepo.NewRepo(), nil, nil)

	err := svc.UpdatePassword(context.Background(), "abcdef", "abcdeg")
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Code != "PASSWORD_MISMATCH" {
		t.Fatalf("err=%v, want PASSWORD_MISMATCH", err)
	}
	if idp.UpdateCalls() != 0 {
		t.Fatalf("identity called %d times, want 0", idp.UpdateCalls())
	}
}

func TestService_UpdatePassword_TooShort(t *testing.T) {
	t.Parallel()

	idp := seededIdentity("user-1")
	svc := NewService(idp, memprofilerepo.NewRepo(), nil, nil)

	// 5 characters, matching: length check applies after the mismatch check.
	err := svc.UpdatePassword(context.Background(), "abcde", "abcde")
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Code != "PASSWORD_TOO_SHORT" {
		t.Fatalf("err=%v, want PASSWORD_TOO_SHORT", err)
	}
	if idp.UpdateCalls() != 0 {
		t.Fatalf("identity called %d times, want 0", idp.UpdateCalls())
	}
}

func TestService_UpdatePassword_MismatchWinsOverLength(t *testing.T) {
	t.Parallel()

	idp := seededIdentity("user-1")
	svc := NewService(idp, memprofilerepo.NewRepo(), nil, nil)

	err := svc.UpdatePassword(context.Background(), "abc", "abd")
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Code != "PASSWORD_MISMATCH" {
		t.Fatalf("err=%v, want PASSWORD_MISMATCH first", err)
	}
}

func TestService_UpdatePassword_NoSession(t *testing.T) {
	t.Parallel()

	idp := memidentity.NewService()
	svc := NewService(idp, memprofilerepo.NewRepo(), nil, nil)

	err := svc.UpdatePassword(context.Background(), "abcdef", "abcdef")
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Code != "NO_ACTIVE_SESSION" {
		t.Fatalf("err=%v, want NO_ACTIVE_SESSION", err)
	}
}

func TestService_UpdatePassword_Success(t *testing.T) {
	t.Parallel()

	idp := seededIdentity("user-1")
	svc := NewService(idp, memprofilerepo.NewRepo(), nil, nil)

	if err := svc.UpdatePassword(context.Background(), "abcdef", "abcdef"); err != nil {
		t.Fatalf("UpdatePassword err=%v", err)
	}
	if idp.LastPassword() != "abcdef" {
		t.Fatalf("lastPassword=%q", idp.LastPassword())
	}
	// The same session continues; no sign-out happened.
	sess, _ := idp.CurrentSession(context.Background())
	if sess.IsZero() {
		t.Fatalf("session was dropped by a password change")
	}
}

func TestService_UpdatePassword_IdentityErrorVerbatim(t *testing.T) {
	t.Parallel()

	idp := seededIdentity("user-1")
	idp.UpdateCredentialErr = errors.New("weak password")
	svc := NewService(idp, memprofilerepo.NewRepo(), nil, nil)

	err := svc.UpdatePassword(context.Background(), "abcdef", "abcdef")
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Code != "IDENTITY_SERVICE_ERROR" {
		t.Fatalf("err=%v, want IDENTITY_SERVICE_ERROR", err)
	}
	if ae.Message != "weak password" {
		t.Fatalf("message=%q, want provider message verbatim", ae.Message)
	}
	if idp.UpdateCalls() != 1 {
		t.Fatalf("identity called %d times, want exactly 1 (no retry)", idp.UpdateCalls())
	}
}

func TestService_ApplySettings_UnchangedCountrySkipsStore(t *testing.T) {
	t.Parallel()

	idp := seededIdentity("user-1")
	repo := &countingProfileRepo{Repository: memprofilerepo.NewRepo()}
	seedProfile(t, repo.Repository, "user-1", "KR")
	svc := NewService(idp, repo, nil, nil)

	out, err := svc.ApplySettings(context.Background(), ApplyInput{
		SelectedHomeCountry: "KR",
		CurrentHomeCountry:  "KR",
	})
	if err != nil {
		t.Fatalf("ApplySettings err=%v", err)
	}
	if out.ProfileUpdated || out.PasswordChanged {
		t.Fatalf("out=%+v, want nothing done", out)
	}
	if repo.updates != 0 {
		t.Fatalf("store updated %d times, want 0", repo.updates)
	}
}

func TestService_ApplySettings_CountryChangeOnly(t *testing.T) {
	t.Parallel()

	idp := seededIdentity("user-1")
	repo := memprofilerepo.NewRepo()
	seedProfile(t, repo, "user-1", "KR")
	svc := NewService(idp, repo, nil, nil)

	out, err := svc.ApplySettings(context.Background(), ApplyInput{
		SelectedHomeCountry: "JP",
		CurrentHomeCountry:  "KR",
	})
	if err != nil {
		t.Fatalf("ApplySettings err=%v", err)
	}
	if !out.ProfileUpdated || out.PasswordChanged {
		t.Fatalf("out=%+v, want profile updated and no password change", out)
	}
	p, err := repo.GetByUser(context.Background(), "user-1")
	if err != nil || p.HomeCountry != "JP" {
		t.Fatalf("profile=%+v err=%v, want homeCountry JP", p, err)
	}
	if idp.UpdateCalls() != 0 {
		t.Fatalf("credential call made for an empty password")
	}
}

func TestService_ApplySettings_PasswordMismatchBeforeStore(t *testing.T) {
	t.Parallel()

	idp := seededIdentity("user-1")
	repo := &countingProfileRepo{Repository: memprofilerepo.NewRepo()}
	seedProfile(t, repo.Repository, "user-1", "KR")
	svc := NewService(idp, repo, nil, nil)

	_, err := svc.ApplySettings(context.Background(), ApplyInput{
		SelectedHomeCountry: "JP",
		CurrentHomeCountry:  "KR",
		NewPassword:         "abcdef",
		ConfirmPassword:     "abcdeg",
	})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Code != "PASSWORD_MISMATCH" {
		t.Fatalf("err=%v, want PASSWORD_MISMATCH", err)
	}
	if repo.updates != 0 {
		t.Fatalf("store touched %d times before validation, want 0", repo.updates)
	}
}

func TestService_ApplySettings_ProfileStageFailure(t *testing.T) {
	t.Parallel()

	idp := seededIdentity("user-1")
	repo := &countingProfileRepo{
		Repository: memprofilerepo.NewRepo(),
		updateErr:  errors.New("store down"),
	}
	seedProfile(t, repo.Repository, "user-1", "KR")
	svc := NewService(idp, repo, nil, nil)

	_, err := svc.ApplySettings(context.Background(), ApplyInput{
		SelectedHomeCountry: "JP",
		CurrentHomeCountry:  "KR",
		NewPassword:         "abcdef",
		ConfirmPassword:     "abcdef",
	})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Code != "SETTINGS_UPDATE_FAILED" {
		t.Fatalf("err=%v, want SETTINGS_UPDATE_FAILED", err)
	}
	if ae.Details["stage"] != StageProfile {
		t.Fatalf("stage=%v, want profile", ae.Details["stage"])
	}
	if idp.UpdateCalls() != 0 {
		t.Fatalf("credential stage ran after profile failure")
	}
}

func TestService_ApplySettings_CredentialFailureKeepsProfileChange(t *testing.T) {
	t.Parallel()

	idp := seededIdentity("user-1")
	idp.UpdateCredentialErr = errors.New("provider down")
	repo := memprofilerepo.NewRepo()
	seedProfile(t, repo, "user-1", "KR")
	svc := NewService(idp, repo, nil, nil)

	out, err := svc.ApplySettings(context.Background(), ApplyInput{
		SelectedHomeCountry: "JP",
		CurrentHomeCountry:  "KR",
		NewPassword:         "abcdef",
		ConfirmPassword:     "abcdef",
	})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Code != "SETTINGS_UPDATE_FAILED" {
		t.Fatalf("err=%v, want SETTINGS_UPDATE_FAILED", err)
	}
	if ae.Details["stage"] != StageCredential {
		t.Fatalf("stage=%v, want credential", ae.Details["stage"])
	}
	// The committed profile change is not rolled back.
	if !out.ProfileUpdated {
		t.Fatalf("out=%+v, want ProfileUpdated=true despite credential failure", out)
	}
	p, _ := repo.GetByUser(context.Background(), "user-1")
	if p.HomeCountry != "JP" {
		t.Fatalf("homeCountry=%q, want committed JP", p.HomeCountry)
	}
}

func TestService_ApplySettings_NoSession(t *testing.T) {
	t.Parallel()

	idp := memidentity.NewService()
	repo := memprofilerepo.NewRepo()
	seedProfile(t, repo, "user-1", "KR")
	svc := NewService(idp, repo, nil, nil)

	_, err := svc.ApplySettings(context.Background(), ApplyInput{
		SelectedHomeCountry: "JP",
		CurrentHomeCountry:  "KR",
	})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Code != "NO_ACTIVE_SESSION" {
		t.Fatalf("err=%v, want NO_ACTIVE_SESSION", err)
	}
}

func TestService_ApplySettings_FullSuccess(t *testing.T) {
	t.Parallel()

	idp := seededIdentity("user-1")
	repo := memprofilerepo.NewRepo()
	seedProfile(t, repo, "user-1", "KR")
	svc := NewService(idp, repo, nil, nil)

	out, err := svc.ApplySettings(context.Background(), ApplyInput{
		SelectedHomeCountry: "JP",
		CurrentHomeCountry:  "KR",
		NewPassword:         "abcdef",
		ConfirmPassword:     "abcdef",
	})
	if err != nil {
		t.Fatalf("ApplySettings err=%v", err)
	}
	if !out.ProfileUpdated || !out.PasswordChanged {
		t.Fatalf("out=%+v, want both steps done", out)
	}
	if idp.LastPassword() != "abcdef" {
		t.Fatalf("lastPassword=%q", idp.LastPassword())
	}
}
