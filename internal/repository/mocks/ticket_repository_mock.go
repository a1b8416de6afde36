package mocks

import (
	"context"

	"go-gin-happenings/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type MockTicketRepository struct {
	mock.Mock
}

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{}
}

func (m *MockTicketRepository) TotalsByHappeningID(ctx context.Context, tx pgx.Tx, happeningID int) (model.TicketTotals, error) {
	args := m.Called(ctx, tx, happeningID)
	return args.Get(0).(model.TicketTotals), args.Error(1)
}
