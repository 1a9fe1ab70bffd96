package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wayfarer-app/account-api/internal/app/deletion"
	"github.com/wayfarer-app/account-api/internal/app/recovery"
	"github.com/wayfarer-app/account-api/internal/app/settings"
	"github.com/wayfarer-app/account-api/internal/domain"
	clockport "github.com/wayfarer-app/account-api/internal/ports/out/clock"
	identityport "github.com/wayfarer-app/account-api/internal/ports/out/identity"
	"github.com/wayfarer-app/account-api/internal/ports/out/profilerepo"
	"github.com/wayfarer-app/account-api/internal/ports/out/travelrepo"
)

// Server is the HTTP adapter over the account workflow services. It decodes
// requests, delegates to the app layer, and maps app errors to responses;
// no workflow decisions live here.
type Server struct {
	Recovery *recovery.Service
	Settings *settings.Service
	Deletion *deletion.Service

	Identity identityport.Service
	Profiles profilerepo.Repository
	Travels  travelrepo.Repository
	Clock    clockport.Clock
}

func NewServer(
	recoverySvc *recovery.Service,
	settingsSvc *settings.Service,
	deletionSvc *deletion.Service,
	identitySvc identityport.Service,
	profiles profilerepo.Repository,
	travels travelrepo.Repository,
	clk clockport.Clock,
) *Server {
	return &Server{
		Recovery: recoverySvc,
		Settings: settingsSvc,
		Deletion: deletionSvc,
		Identity: identitySvc,
		Profiles: profiles,
		Travels:  travels,
		Clock:    clk,
	}
}

// requireSession resolves the established identity session and stores the
// user ID in request context. Routes behind it never see an anonymous
// request.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.Identity.CurrentSession(r.Context())
		if err != nil || sess.IsZero() {
			writeError(w, r, http.StatusUnauthorized, "NO_ACTIVE_SESSION", "sign in first", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), sess.UserID)))
	})
}

type recoverRequest struct {
	// Fragment is the URL fragment from the recovery link navigation,
	// with or without the leading "#".
	Fragment string `json:"fragment"`
}

type recoverResponse struct {
	State              string `json:"state"`
	ShowPasswordChange bool   `json:"showPasswordChange"`
	ClearFragment      bool   `json:"clearFragment"`
	Reason             string `json:"reason,omitempty"`
}

func (s *Server) handleRecoverSession(w http.ResponseWriter, r *http.Request) {
	var req recoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "malformed request body", nil)
		return
	}

	res := s.Recovery.Recover(r.Context(), req.Fragment)
	writeJSON(w, http.StatusOK, recoverResponse{
		State:              string(res.State),
		ShowPasswordChange: res.ShowPasswordChange,
		ClearFragment:      res.ClearFragment,
		Reason:             res.Reason,
	})
}

type passwordRequest struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "malformed request body", nil)
		return
	}

	if err := s.Settings.UpdatePassword(r.Context(), req.NewPassword, req.ConfirmPassword); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type settingsRequest struct {
	HomeCountry string `json:"homeCountry"`

	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type settingsResponse struct {
	ProfileUpdated  bool `json:"profileUpdated"`
	PasswordChanged bool `json:"passwordChanged"`
}

func (s *Server) handleApplySettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "malformed request body", nil)
		return
	}

	// The current preference is resolved server-side so the skip-if-unchanged
	// comparison cannot be defeated by a stale client.
	current := ""
	if sess, err := s.Identity.CurrentSession(r.Context()); err == nil && !sess.IsZero() {
		if p, err := s.Profiles.GetByUser(r.Context(), sess.UserID); err == nil {
			current = p.HomeCountry
		}
	}

	out, err := s.Settings.ApplySettings(r.Context(), settings.ApplyInput{
		SelectedHomeCountry: req.HomeCountry,
		CurrentHomeCountry:  current,
		NewPassword:         req.NewPassword,
		ConfirmPassword:     req.ConfirmPassword,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		ProfileUpdated:  out.ProfileUpdated,
		PasswordChanged: out.PasswordChanged,
	})
}

type profileResponse struct {
	UserID      string    `json:"userId"`
	HomeCountry string    `json:"homeCountry"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "NO_ACTIVE_SESSION", "sign in first", nil)
		return
	}

	p, err := s.Profiles.GetByUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "PROFILE_NOT_FOUND", "no profile exists for this account", nil)
			return
		}
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		UserID:      string(p.UserID),
		HomeCountry: p.HomeCountry,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	})
}

type travelRecordBody struct {
	ID        string     `json:"id,omitempty"`
	Country   string     `json:"country"`
	City      *string    `json:"city,omitempty"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"createdAt,omitempty"`
}

func (s *Server) handleListTravels(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "NO_ACTIVE_SESSION", "sign in first", nil)
		return
	}

	recs, err := s.Travels.ListByUser(r.Context(), userID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]travelRecordBody, 0, len(recs))
	for _, rec := range recs {
		out = append(out, travelRecordBody{
			ID:        string(rec.ID),
			Country:   rec.Country,
			City:      rec.City,
			StartDate: rec.StartDate,
			EndDate:   rec.EndDate,
			Notes:     rec.Notes,
			CreatedAt: rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"travels": out})
}

func (s *Server) handleCreateTravel(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "NO_ACTIVE_SESSION", "sign in first", nil)
		return
	}

	var req travelRecordBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "malformed request body", nil)
		return
	}
	if req.Country == "" {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "country is required", nil)
		return
	}

	rec := travelrepo.TravelRecord{
		ID:        domain.TravelRecordID(uuid.NewString()),
		UserID:    userID,
		Country:   req.Country,
		City:      req.City,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Notes:     req.Notes,
		CreatedAt: s.Clock.Now(),
	}
	if err := s.Travels.Create(r.Context(), rec); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, travelRecordBody{
		ID:        string(rec.ID),
		Country:   rec.Country,
		City:      rec.City,
		StartDate: rec.StartDate,
		EndDate:   rec.EndDate,
		Notes:     rec.Notes,
		CreatedAt: rec.CreatedAt,
	})
}

type deleteAccountRequest struct {
	// Confirmed asserts that the caller collected both explicit user
	// confirmations before submitting.
	Confirmed bool `json:"confirmed"`
}

type deletionResponse struct {
	State     string   `json:"state"`
	Completed []string `json:"completed,omitempty"`
	Stage     string   `json:"stage,omitempty"`
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "NO_ACTIVE_SESSION", "sign in first", nil)
		return
	}

	var req deleteAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "malformed request body", nil)
		return
	}

	res, err := s.Deletion.DeleteAccount(r.Context(), userID, req.Confirmed)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deletionResponse{
		State:     string(res.State),
		Completed: stageNames(res.Completed),
	})
}

func (s *Server) handleDeletionProgress(w http.ResponseWriter, r *http.Request) {
	state, stage := s.Deletion.Progress()
	writeJSON(w, http.StatusOK, deletionResponse{
		State: string(state),
		Stage: string(stage),
	})
}

func stageNames(stages []deletion.Stage) []string {
	if len(stages) == 0 {
		return nil
	}
	out := make([]string, 0, len(stages))
	for _, st := range stages {
		out = append(out, string(st))
	}
	return out
}
