package mocks

import (
	"context"

	"go-gin-happenings/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockSeatCounterCache struct {
	mock.Mock
}

func NewMockSeatCounterCache() *MockSeatCounterCache {
	return &MockSeatCounterCache{}
}

func (m *MockSeatCounterCache) Store(ctx context.Context, happening *model.Happening) error {
	args := m.Called(ctx, happening)
	return args.Error(0)
}

func (m *MockSeatCounterCache) Get(ctx context.Context, happeningID int) (model.SeatAvailability, error) {
	args := m.Called(ctx, happeningID)
	return args.Get(0).(model.SeatAvailability), args.Error(1)
}

func (m *MockSeatCounterCache) Invalidate(ctx context.Context, happeningID int) error {
	args := m.Called(ctx, happeningID)
	return args.Error(0)
}
