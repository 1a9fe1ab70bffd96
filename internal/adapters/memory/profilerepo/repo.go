package profilerepo

import (
	"context"
	"sync"

	"github.com/wayfarer-app/account-api/internal/domain"
	"github.com/wayfarer-app/account-api/internal/ports/out/profilerepo"
)

// Repo is an in-memory implementation of profilerepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu     sync.RWMutex
	byUser map[domain.UserID]profilerepo.Profile
}

func NewRepo() *Repo {
	return &Repo{
		byUser: make(map[domain.UserID]profilerepo.Profile),
	}
}

func (r *Repo) Create(ctx context.Context, p profilerepo.Profile) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUser[p.UserID]; ok {
		return profilerepo.ErrAlreadyExists
	}
	r.byUser[p.UserID] = p
	return nil
}

func (r *Repo) GetByUser(ctx context.Context, userID domain.UserID) (profilerepo.Profile, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byUser[userID]
	if !ok {
		return profilerepo.Profile{}, profilerepo.ErrNotFound
	}
	return p, nil
}

func (r *Repo) UpdateHomeCountry(ctx context.Context, userID domain.UserID, homeCountry string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byUser[userID]
	if !ok {
		return profilerepo.ErrNotFound
	}
	p.HomeCountry = homeCountry
	r.byUser[userID] = p
	return nil
}

func (r *Repo) DeleteByUser(ctx context.Context, userID domain.UserID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUser[userID]; !ok {
		return profilerepo.ErrNotFound
	}
	delete(r.byUser, userID)
	return nil
}
