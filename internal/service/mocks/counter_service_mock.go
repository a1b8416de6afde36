package mocks

import (
	"context"

	"go-gin-happenings/internal/model"

	"github.com/stretchr/testify/mock"
)

type CounterServiceMock struct {
	mock.Mock
}

func NewCounterServiceMock() *CounterServiceMock {
	return &CounterServiceMock{}
}

func (m *CounterServiceMock) RefreshSeatsCount(ctx context.Context, happening *model.Happening) (*model.Happening, error) {
	args := m.Called(ctx, happening)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Happening), args.Error(1)
}
