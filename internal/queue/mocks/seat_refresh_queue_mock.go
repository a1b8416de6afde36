package mocks

import (
	"context"

	"go-gin-happenings/internal/queue"

	"github.com/stretchr/testify/mock"
)

type MockSeatRefreshQueue struct {
	mock.Mock
}

func NewMockSeatRefreshQueue() *MockSeatRefreshQueue {
	return &MockSeatRefreshQueue{}
}

func (m *MockSeatRefreshQueue) PublishRefresh(ctx context.Context, req *queue.SeatRefreshRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockSeatRefreshQueue) SubscribeRefreshes(ctx context.Context) (<-chan queue.Delivery, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan queue.Delivery), args.Error(1)
}
