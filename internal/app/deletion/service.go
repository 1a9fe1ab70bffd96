package deletion

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/wayfarer-app/account-api/internal/domain"
	"github.com/wayfarer-app/account-api/internal/platform/metrics"
	funcinvokeport "github.com/wayfarer-app/account-api/internal/ports/out/funcinvoke"
	identityport "github.com/wayfarer-app/account-api/internal/ports/out/identity"
	"github.com/wayfarer-app/account-api/internal/ports/out/profilerepo"
	"github.com/wayfarer-app/account-api/internal/ports/out/travelrepo"
)

// Stage names one step of the deletion sequence.
type Stage string

const (
	StageTravelRecords Stage = "records"
	StageProfile       Stage = "profile"
	StageAccountErase  Stage = "account"
	StageSignOut       Stage = "signout"
)

// State is the orchestrator's workflow state. Completed and Aborted are
// terminal: another attempt starts over from Idle, there is no retry
// transition.
type State string

const (
	StateIdle      State = "IDLE"
	StateDeleting  State = "DELETING"
	StateCompleted State = "COMPLETED"
	StateAborted   State = "ABORTED"
)

// DeleteUserFunction is the remote procedure that erases the account from
// the identity provider's backing store.
const DeleteUserFunction = "delete-user"

// Result describes how far the deletion sequence got. Stages listed in
// Completed are irreversible regardless of the final state: there is no
// compensating transaction, so a failure after the first stage leaves the
// account degraded (history gone, profile intact or vice versa). That is a
// documented outcome, not something this orchestrator masks.
type Result struct {
	State       State
	Completed   []Stage
	FailedStage Stage
}

// Service runs the irreversible, ordered account-deletion sequence:
//
//  1. delete all travel records for the user
//  2. delete the user profile record
//  3. erase the account via the delete-user remote function, authorized by
//     the current session's access token
//  4. sign the session out
//
// Each stage requires the previous one to have succeeded; the first failure
// aborts the rest. The orchestrator is UI-agnostic: it never prompts, it
// accepts a confirmed flag meaning the caller already collected both human
// confirmations.
type Service struct {
	travels   travelrepo.Repository
	profiles  profilerepo.Repository
	identity  identityport.Service
	functions funcinvokeport.Invoker
	log       *slog.Logger
	metrics   metrics.Collector

	// RequireSession makes stage 3 fail instead of no-op when no session
	// token is available. Default false preserves the observed best-effort
	// policy: account erasure is tied to token availability.
	RequireSession bool

	mu    sync.Mutex
	busy  bool
	stage Stage
}

func NewService(
	travels travelrepo.Repository,
	profiles profilerepo.Repository,
	identitySvc identityport.Service,
	functions funcinvokeport.Invoker,
	log *slog.Logger,
	mc metrics.Collector,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	if mc == nil {
		mc = metrics.Nop()
	}
	return &Service{
		travels:   travels,
		profiles:  profiles,
		identity:  identitySvc,
		functions: functions,
		log:       log,
		metrics:   mc,
	}
}

// InProgress reports whether a deletion sequence is currently running.
// Calling surfaces must honor it to prevent double-submission.
func (s *Service) InProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Progress returns the workflow state and, while deleting, the stage that
// is currently executing.
func (s *Service) Progress() (State, Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return StateDeleting, s.stage
	}
	return StateIdle, ""
}

// DeleteAccount runs the deletion sequence for userID.
//
// confirmed must be true and means the caller collected two independent
// affirmative confirmations; an unconfirmed call is rejected before any
// side effect. Once the first stage starts the sequence runs to completion
// or to first failure; cancellation is not honored mid-sequence.
//
// On failure the returned Result still lists the stages that committed:
// the caller must surface the failure and must NOT sign out or clear state,
// because the user may still hold a valid, partially-intact account.
func (s *Service) DeleteAccount(ctx context.Context, userID domain.UserID, confirmed bool) (Result, error) {
	if userID == "" {
		return Result{State: StateIdle}, &Error{
			Status:  401,
			Code:    "NO_ACTIVE_SESSION",
			Message: "sign in to delete your account",
		}
	}
	if !confirmed {
		return Result{State: StateIdle}, &Error{
			Status:  412,
			Code:    "DELETION_NOT_CONFIRMED",
			Message: "account deletion requires two explicit confirmations",
		}
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return Result{State: StateDeleting}, &Error{
			Status:  409,
			Code:    "DELETION_IN_PROGRESS",
			Message: "an account deletion is already running",
		}
	}
	s.busy = true
	s.mu.Unlock()

	// The in-progress flag is never left set, whatever path exits.
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.stage = ""
		s.mu.Unlock()
	}()

	res := Result{State: StateDeleting}

	run := func(stage Stage, op func() error) error {
		s.setStage(stage)
		if err := op(); err != nil {
			s.metrics.DeletionStageFailed(string(stage))
			s.log.Error("account deletion aborted",
				"user_id", string(userID), "stage", string(stage), "err", err)
			res.State = StateAborted
			res.FailedStage = stage
			return &Error{
				Status:  502,
				Code:    "DELETION_FAILED",
				Message: err.Error(),
				Details: map[string]any{"stage": string(stage)},
			}
		}
		s.metrics.DeletionStageOK(string(stage))
		res.Completed = append(res.Completed, stage)
		return nil
	}

	if err := run(StageTravelRecords, func() error {
		return s.travels.DeleteByUser(ctx, userID)
	}); err != nil {
		return res, err
	}

	if err := run(StageProfile, func() error {
		err := s.profiles.DeleteByUser(ctx, userID)
		if errors.Is(err, profilerepo.ErrNotFound) {
			// Nothing to delete; the sequence still proceeds.
			return nil
		}
		return err
	}); err != nil {
		return res, err
	}

	if err := run(StageAccountErase, func() error {
		return s.eraseAccount(ctx)
	}); err != nil {
		return res, err
	}

	if err := run(StageSignOut, func() error {
		return s.identity.SignOut(ctx)
	}); err != nil {
		return res, err
	}

	s.metrics.DeletionCompleted()
	s.log.Info("account deleted", "user_id", string(userID))
	res.State = StateCompleted
	return res, nil
}

// eraseAccount invokes the delete-user remote function with the current
// session's access token as bearer credential. Without a token the stage is
// a no-op success unless RequireSession is set: best-effort erasure is the
// observed policy, kept configurable rather than silently hardened.
func (s *Service) eraseAccount(ctx context.Context) error {
	sess, err := s.identity.CurrentSession(ctx)
	if err != nil || sess.IsZero() {
		if s.RequireSession {
			return identityport.ErrNoSession
		}
		s.log.Warn("no session token; skipping account erase")
		return nil
	}
	return s.functions.Invoke(ctx, DeleteUserFunction, sess.AccessToken)
}

func (s *Service) setStage(stage Stage) {
	s.mu.Lock()
	s.stage = stage
	s.mu.Unlock()
}
