package profilerepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/wayfarer-app/account-api/internal/adapters/postgres"
	"github.com/wayfarer-app/account-api/internal/domain"
	"github.com/wayfarer-app/account-api/internal/ports/out/profilerepo"
)

// Repo is a Postgres implementation of profilerepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, p profilerepo.Profile) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	userUUID, err := uuid.Parse(string(p.UserID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO user_profiles (id, home_country, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`,
		userUUID,
		p.HomeCountry,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return profilerepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) GetByUser(ctx context.Context, userID domain.UserID) (profilerepo.Profile, error) {
	if r.pool == nil {
		return profilerepo.Profile{}, errors.New("nil postgres pool")
	}
	userUUID, err := uuid.Parse(string(userID))
	if err != nil {
		return profilerepo.Profile{}, fmt.Errorf("invalid user id: %w", err)
	}

	var p profilerepo.Profile
	var id uuid.UUID
	err = r.pool.QueryRow(ctx, `
		SELECT id, home_country, created_at, updated_at
		FROM user_profiles
		WHERE id = $1
	`, userUUID).Scan(&id, &p.HomeCountry, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profilerepo.Profile{}, profilerepo.ErrNotFound
		}
		return profilerepo.Profile{}, err
	}
	p.UserID = domain.UserID(id.String())
	return p, nil
}

func (r *Repo) UpdateHomeCountry(ctx context.Context, userID domain.UserID, homeCountry string) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	userUUID, err := uuid.Parse(string(userID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE user_profiles
		SET home_country = $2, updated_at = now()
		WHERE id = $1
	`, userUUID, homeCountry)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return profilerepo.ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteByUser(ctx context.Context, userID domain.UserID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	userUUID, err := uuid.Parse(string(userID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM user_profiles WHERE id = $1`, userUUID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return profilerepo.ErrNotFound
	}
	return nil
}
