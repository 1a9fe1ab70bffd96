package travelrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/wayfarer-app/account-api/internal/domain"
	"github.com/wayfarer-app/account-api/internal/ports/out/travelrepo"
)

// Repo is an in-memory implementation of travelrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.TravelRecordID]travelrepo.TravelRecord
}

func NewRepo() *Repo {
	return &Repo{
		byID: make(map[domain.TravelRecordID]travelrepo.TravelRecord),
	}
}

func (r *Repo) Create(ctx context.Context, rec travelrepo.TravelRecord) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[rec.ID]; ok {
		return travelrepo.ErrAlreadyExists
	}
	r.byID[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *Repo) ListByUser(ctx context.Context, userID domain.UserID) ([]travelrepo.TravelRecord, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]travelrepo.TravelRecord, 0)
	for _, rec := range r.byID {
		if rec.UserID == userID {
			out = append(out, cloneRecord(rec))
		}
	}
	sortRecordsByCreatedAt(out)
	return out, nil
}

func (r *Repo) DeleteByUser(ctx context.Context, userID domain.UserID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rec := range r.byID {
		if rec.UserID == userID {
			delete(r.byID, id)
		}
	}
	return nil
}

func cloneRecord(rec travelrepo.TravelRecord) travelrepo.TravelRecord {
	out := rec
	out.City = cloneStringPtr(rec.City)
	out.Notes = cloneStringPtr(rec.Notes)
	if rec.StartDate != nil {
		v := *rec.StartDate
		out.StartDate = &v
	}
	if rec.EndDate != nil {
		v := *rec.EndDate
		out.EndDate = &v
	}
	return out
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func sortRecordsByCreatedAt(recs []travelrepo.TravelRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
}
