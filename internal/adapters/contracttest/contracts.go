// Package contracttest holds behavioral contracts shared by every
// implementation of the storage ports. Memory adapters run them always;
// the Postgres adapters run them against a real database when one is
// configured.
package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wayfarer-app/account-api/internal/domain"
	profilerepoport "github.com/wayfarer-app/account-api/internal/ports/out/profilerepo"
	travelrepoport "github.com/wayfarer-app/account-api/internal/ports/out/travelrepo"
)

type CleanupFunc = func()

type TravelRepoFactory func(t *testing.T) (travelrepoport.Repository, CleanupFunc)
type ProfileRepoFactory func(t *testing.T) (profilerepoport.Repository, CleanupFunc)

func RunTravelRepo(t *testing.T, newRepo TravelRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	alice := domain.UserID(uuid.NewString())
	bob := domain.UserID(uuid.NewString())

	mk := func(user domain.UserID, country string, at int64) travelrepoport.TravelRecord {
		return travelrepoport.TravelRecord{
			ID:        domain.TravelRecordID(uuid.NewString()),
			UserID:    user,
			Country:   country,
			CreatedAt: time.Unix(at, 0).UTC(),
		}
	}

	first := mk(alice, "JP", 100)
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, mk(alice, "FR", 200)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, mk(bob, "US", 150)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Duplicate IDs are rejected.
	if err := repo.Create(ctx, first); !errors.Is(err, travelrepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate Create err=%v, want ErrAlreadyExists", err)
	}

	// ListByUser is scoped and ordered by creation time.
	recs, err := repo.ListByUser(ctx, alice)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len=%d, want 2", len(recs))
	}
	if recs[0].Country != "JP" || recs[1].Country != "FR" {
		t.Fatalf("order=%q,%q, want JP,FR", recs[0].Country, recs[1].Country)
	}

	// DeleteByUser removes only the given user's records.
	if err := repo.DeleteByUser(ctx, alice); err != nil {
		t.Fatalf("DeleteByUser: %v", err)
	}
	recs, err = repo.ListByUser(ctx, alice)
	if err != nil || len(recs) != 0 {
		t.Fatalf("after delete: recs=%v err=%v", recs, err)
	}
	recs, err = repo.ListByUser(ctx, bob)
	if err != nil || len(recs) != 1 {
		t.Fatalf("other user affected: recs=%v err=%v", recs, err)
	}

	// Deleting a user with no records is not an error.
	if err := repo.DeleteByUser(ctx, alice); err != nil {
		t.Fatalf("empty DeleteByUser: %v", err)
	}
}

func RunProfileRepo(t *testing.T, newRepo ProfileRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	alice := domain.UserID(uuid.NewString())
	now := time.Unix(100, 0).UTC()

	if _, err := repo.GetByUser(ctx, alice); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("GetByUser on empty repo err=%v, want ErrNotFound", err)
	}

	p := profilerepoport.Profile{
		UserID:      alice,
		HomeCountry: "KR",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, p); !errors.Is(err, profilerepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate Create err=%v, want ErrAlreadyExists", err)
	}

	got, err := repo.GetByUser(ctx, alice)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if got.UserID != alice || got.HomeCountry != "KR" {
		t.Fatalf("got=%+v", got)
	}

	if err := repo.UpdateHomeCountry(ctx, alice, "JP"); err != nil {
		t.Fatalf("UpdateHomeCountry: %v", err)
	}
	got, _ = repo.GetByUser(ctx, alice)
	if got.HomeCountry != "JP" {
		t.Fatalf("homeCountry=%q, want JP", got.HomeCountry)
	}

	other := domain.UserID(uuid.NewString())
	if err := repo.UpdateHomeCountry(ctx, other, "JP"); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("UpdateHomeCountry for missing user err=%v, want ErrNotFound", err)
	}

	if err := repo.DeleteByUser(ctx, alice); err != nil {
		t.Fatalf("DeleteByUser: %v", err)
	}
	if _, err := repo.GetByUser(ctx, alice); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("profile survives delete, err=%v", err)
	}
	if err := repo.DeleteByUser(ctx, alice); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("double delete err=%v, want ErrNotFound", err)
	}
}
