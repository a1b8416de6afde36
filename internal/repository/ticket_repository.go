package repository

import (
	"context"

	"go-gin-happenings/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TicketRepository 票券由售票流程寫入，這裡只提供查詢與彙總
type TicketRepository interface {
	// Transaction methods
	TotalsByHappeningID(ctx context.Context, tx pgx.Tx, happeningID int) (model.TicketTotals, error)
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{
		pool: pool,
	}
}

// TotalsByHappeningID 票券張數與座位總和，沒有票券時皆為 0
func (r *TicketRepositoryImpl) TotalsByHappeningID(ctx context.Context, tx pgx.Tx, happeningID int) (model.TicketTotals, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(seats), 0)
		FROM tickets
		WHERE happening_id = $1
	`

	var totals model.TicketTotals
	err := tx.QueryRow(ctx, query, happeningID).Scan(&totals.Tickets, &totals.Seats)
	if err != nil {
		return model.TicketTotals{}, err
	}

	return totals, nil
}
