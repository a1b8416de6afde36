package repository

import (
	"context"
	"errors"
	"time"

	"go-gin-happenings/internal/model"
	apperrors "go-gin-happenings/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FactRepository interface {
	FindByID(ctx context.Context, id int) (*model.Fact, error)

	// Transaction methods
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Fact, error)
	AddHappeningsCount(ctx context.Context, tx pgx.Tx, id int, delta int) error
}

type FactRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewFactRepository(pool *pgxpool.Pool) FactRepository {
	return &FactRepositoryImpl{
		pool: pool,
	}
}

func (r *FactRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Fact, error) {
	query := `
		SELECT id, name, happenings_count, created_at, updated_at
		FROM facts
		WHERE id = $1
	`

	var fact model.Fact
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&fact.ID,
		&fact.Name,
		&fact.HappeningsCount,
		&fact.CreatedAt,
		&fact.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrFactNotFound
		}
		return nil, err
	}

	return &fact, nil
}

func (r *FactRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Fact, error) {
	query := `
		SELECT id, name, happenings_count, created_at, updated_at
		FROM facts
		WHERE id = $1
		FOR UPDATE
	`

	var fact model.Fact
	err := tx.QueryRow(ctx, query, id).Scan(
		&fact.ID,
		&fact.Name,
		&fact.HappeningsCount,
		&fact.CreatedAt,
		&fact.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrFactNotFound
		}
		return nil, err
	}

	return &fact, nil
}

// AddHappeningsCount 調整 counter cache；delta 可為負數
func (r *FactRepositoryImpl) AddHappeningsCount(ctx context.Context, tx pgx.Tx, id int, delta int) error {
	query := `
		UPDATE facts
		SET happenings_count = GREATEST(happenings_count + $1, 0), updated_at = $2
		WHERE id = $3
	`

	result, err := tx.Exec(ctx, query, delta, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrFactNotFound
	}

	return nil
}
