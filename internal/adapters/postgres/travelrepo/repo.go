package travelrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/wayfarer-app/account-api/internal/adapters/postgres"
	"github.com/wayfarer-app/account-api/internal/domain"
	"github.com/wayfarer-app/account-api/internal/ports/out/travelrepo"
)

// Repo is a Postgres implementation of travelrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, rec travelrepo.TravelRecord) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	recUUID, err := uuid.Parse(string(rec.ID))
	if err != nil {
		return fmt.Errorf("invalid travel record id: %w", err)
	}
	userUUID, err := uuid.Parse(string(rec.UserID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO user_travels (
			id,
			user_id,
			country,
			city,
			start_date,
			end_date,
			notes,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		recUUID,
		userUUID,
		rec.Country,
		rec.City,
		rec.StartDate,
		rec.EndDate,
		rec.Notes,
		rec.CreatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return travelrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) ListByUser(ctx context.Context, userID domain.UserID) ([]travelrepo.TravelRecord, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	userUUID, err := uuid.Parse(string(userID))
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, country, city, start_date, end_date, notes, created_at
		FROM user_travels
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]travelrepo.TravelRecord, 0)
	for rows.Next() {
		var (
			rec               travelrepo.TravelRecord
			recUUID, userUUID uuid.UUID
		)
		if err := rows.Scan(
			&recUUID,
			&userUUID,
			&rec.Country,
			&rec.City,
			&rec.StartDate,
			&rec.EndDate,
			&rec.Notes,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.ID = domain.TravelRecordID(recUUID.String())
		rec.UserID = domain.UserID(userUUID.String())
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) DeleteByUser(ctx context.Context, userID domain.UserID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	userUUID, err := uuid.Parse(string(userID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	// Deleting a user with no records is not an error; the filter alone
	// scopes the statement.
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM user_travels WHERE user_id = $1`, userUUID)
		return err
	})
}
