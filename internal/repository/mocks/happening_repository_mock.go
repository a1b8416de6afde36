package mocks

import (
	"context"
	"time"

	"go-gin-happenings/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type MockHappeningRepository struct {
	mock.Mock
}

func NewMockHappeningRepository() *MockHappeningRepository {
	return &MockHappeningRepository{}
}

func (m *MockHappeningRepository) happening(args mock.Arguments) (*model.Happening, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Happening), args.Error(1)
}

func (m *MockHappeningRepository) happenings(args mock.Arguments) ([]*model.Happening, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Happening), args.Error(1)
}

func (m *MockHappeningRepository) FindByID(ctx context.Context, id int) (*model.Happening, error) {
	return m.happening(m.Called(ctx, id))
}

func (m *MockHappeningRepository) ListFuture(ctx context.Context, from time.Time) ([]*model.Happening, error) {
	return m.happenings(m.Called(ctx, from))
}

func (m *MockHappeningRepository) ListHistory(ctx context.Context, from time.Time) ([]*model.Happening, error) {
	return m.happenings(m.Called(ctx, from))
}

func (m *MockHappeningRepository) ListByFactID(ctx context.Context, factID int) ([]*model.Happening, error) {
	return m.happenings(m.Called(ctx, factID))
}

func (m *MockHappeningRepository) Update(ctx context.Context, id int, params model.UpdateHappeningParams) (*model.Happening, error) {
	return m.happening(m.Called(ctx, id, params))
}

func (m *MockHappeningRepository) Create(ctx context.Context, tx pgx.Tx, happening *model.Happening) (*model.Happening, error) {
	return m.happening(m.Called(ctx, tx, happening))
}

func (m *MockHappeningRepository) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Happening, error) {
	return m.happening(m.Called(ctx, tx, id))
}

func (m *MockHappeningRepository) UpdateCounters(ctx context.Context, tx pgx.Tx, id int, totals model.TicketTotals) error {
	args := m.Called(ctx, tx, id, totals)
	return args.Error(0)
}

func (m *MockHappeningRepository) Delete(ctx context.Context, tx pgx.Tx, id int) (*model.Happening, error) {
	return m.happening(m.Called(ctx, tx, id))
}
