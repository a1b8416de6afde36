package mocks

import (
	"context"

	"go-gin-happenings/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type MockFactRepository struct {
	mock.Mock
}

func NewMockFactRepository() *MockFactRepository {
	return &MockFactRepository{}
}

func (m *MockFactRepository) FindByID(ctx context.Context, id int) (*model.Fact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Fact), args.Error(1)
}

func (m *MockFactRepository) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Fact, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Fact), args.Error(1)
}

func (m *MockFactRepository) AddHappeningsCount(ctx context.Context, tx pgx.Tx, id int, delta int) error {
	args := m.Called(ctx, tx, id, delta)
	return args.Error(0)
}
