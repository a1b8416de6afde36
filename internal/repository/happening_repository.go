package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-gin-happenings/internal/model"
	apperrors "go-gin-happenings/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const happeningColumns = `id, fact_id, title, detail, start_at, start_sale_at, stop_sale_at,
		max_seats, max_seats_for_ticket, tickets_count, seats_count, created_at, updated_at`

type HappeningRepository interface {
	FindByID(ctx context.Context, id int) (*model.Happening, error)
	ListFuture(ctx context.Context, from time.Time) ([]*model.Happening, error)
	ListHistory(ctx context.Context, from time.Time) ([]*model.Happening, error)
	ListByFactID(ctx context.Context, factID int) ([]*model.Happening, error)
	Update(ctx context.Context, id int, params model.UpdateHappeningParams) (*model.Happening, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, happening *model.Happening) (*model.Happening, error)
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Happening, error)
	UpdateCounters(ctx context.Context, tx pgx.Tx, id int, totals model.TicketTotals) error
	Delete(ctx context.Context, tx pgx.Tx, id int) (*model.Happening, error)
}

type HappeningRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewHappeningRepository(pool *pgxpool.Pool) HappeningRepository {
	return &HappeningRepositoryImpl{
		pool: pool,
	}
}

func scanHappening(row pgx.Row) (*model.Happening, error) {
	var h model.Happening
	err := row.Scan(
		&h.ID,
		&h.FactID,
		&h.Title,
		&h.Detail,
		&h.StartAt,
		&h.StartSaleAt,
		&h.StopSaleAt,
		&h.MaxSeats,
		&h.MaxSeatsForTicket,
		&h.TicketsCount,
		&h.SeatsCount,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrHappeningNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (r *HappeningRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]*model.Happening, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	happenings := make([]*model.Happening, 0)
	for rows.Next() {
		h, err := scanHappening(rows)
		if err != nil {
			return nil, err
		}
		happenings = append(happenings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return happenings, nil
}

func (r *HappeningRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, happening *model.Happening) (*model.Happening, error) {
	query := `
		INSERT INTO happenings (
			fact_id, title, detail, start_at, start_sale_at, stop_sale_at,
			max_seats, max_seats_for_ticket)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + happeningColumns

	created, err := scanHappening(tx.QueryRow(ctx, query,
		happening.FactID, happening.Title, happening.Detail,
		happening.StartAt, happening.StartSaleAt, happening.StopSaleAt,
		happening.MaxSeats, happening.MaxSeatsForTicket,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create happening: %w", err)
	}

	return created, nil
}

func (r *HappeningRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Happening, error) {
	query := `SELECT ` + happeningColumns + `
		FROM happenings
		WHERE id = $1
	`

	return scanHappening(r.pool.QueryRow(ctx, query, id))
}

// FindByIDWithLock 鎖住該列，同一場次的重算會排隊執行
func (r *HappeningRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Happening, error) {
	query := `SELECT ` + happeningColumns + `
		FROM happenings
		WHERE id = $1
		FOR UPDATE
	`

	return scanHappening(tx.QueryRow(ctx, query, id))
}

func (r *HappeningRepositoryImpl) ListFuture(ctx context.Context, from time.Time) ([]*model.Happening, error) {
	query := `SELECT ` + happeningColumns + `
		FROM happenings
		WHERE start_at >= $1
		ORDER BY start_at ASC, id ASC
	`

	return r.list(ctx, query, from)
}

func (r *HappeningRepositoryImpl) ListHistory(ctx context.Context, from time.Time) ([]*model.Happening, error) {
	query := `SELECT ` + happeningColumns + `
		FROM happenings
		WHERE start_at < $1
		ORDER BY start_at DESC, id DESC
	`

	return r.list(ctx, query, from)
}

func (r *HappeningRepositoryImpl) ListByFactID(ctx context.Context, factID int) ([]*model.Happening, error) {
	query := `SELECT ` + happeningColumns + `
		FROM happenings
		WHERE fact_id = $1
		ORDER BY start_at ASC, id ASC
	`

	return r.list(ctx, query, factID)
}

func (r *HappeningRepositoryImpl) Update(ctx context.Context, id int, params model.UpdateHappeningParams) (*model.Happening, error) {
	sets := []string{}
	args := []interface{}{}
	argPos := 1

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if params.Title != nil {
		add("title", *params.Title)
	}
	if params.Detail != nil {
		add("detail", *params.Detail)
	}
	if params.StartAt != nil {
		add("start_at", *params.StartAt)
	}
	if params.StartSaleAt != nil {
		add("start_sale_at", *params.StartSaleAt)
	}
	if params.StopSaleAt != nil {
		add("stop_sale_at", *params.StopSaleAt)
	}
	if params.MaxSeats != nil {
		add("max_seats", *params.MaxSeats)
	}
	if params.MaxSeatsForTicket != nil {
		add("max_seats_for_ticket", *params.MaxSeatsForTicket)
	}

	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	// add updated_at
	add("updated_at", time.Now().UTC())

	// add id
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE happenings
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), argPos, happeningColumns)

	return scanHappening(r.pool.QueryRow(ctx, query, args...))
}

// UpdateCounters 寫入票券彙總，不更新 updated_at
func (r *HappeningRepositoryImpl) UpdateCounters(ctx context.Context, tx pgx.Tx, id int, totals model.TicketTotals) error {
	query := `
		UPDATE happenings
		SET tickets_count = $1, seats_count = $2
		WHERE id = $3
	`

	result, err := tx.Exec(ctx, query, totals.Tickets, totals.Seats, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrHappeningNotFound
	}

	return nil
}

// Delete 刪除場次，票券由 FK ON DELETE CASCADE 一併刪除
func (r *HappeningRepositoryImpl) Delete(ctx context.Context, tx pgx.Tx, id int) (*model.Happening, error) {
	query := `
		DELETE FROM happenings
		WHERE id = $1
		RETURNING ` + happeningColumns

	return scanHappening(tx.QueryRow(ctx, query, id))
}
