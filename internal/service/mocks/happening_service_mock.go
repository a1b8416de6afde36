package mocks

import (
	"context"

	"go-gin-happenings/internal/model"

	"github.com/stretchr/testify/mock"
)

type HappeningServiceMock struct {
	mock.Mock
}

func NewHappeningServiceMock() *HappeningServiceMock {
	return &HappeningServiceMock{}
}

func (m *HappeningServiceMock) happening(args mock.Arguments) (*model.Happening, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Happening), args.Error(1)
}

func (m *HappeningServiceMock) happenings(args mock.Arguments) ([]*model.Happening, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Happening), args.Error(1)
}

func (m *HappeningServiceMock) Create(ctx context.Context, req model.CreateHappeningRequest) (*model.Happening, error) {
	return m.happening(m.Called(ctx, req))
}

func (m *HappeningServiceMock) Future(ctx context.Context) ([]*model.Happening, error) {
	return m.happenings(m.Called(ctx))
}

func (m *HappeningServiceMock) History(ctx context.Context) ([]*model.Happening, error) {
	return m.happenings(m.Called(ctx))
}

func (m *HappeningServiceMock) ListByFact(ctx context.Context, factID int) ([]*model.Happening, error) {
	return m.happenings(m.Called(ctx, factID))
}

func (m *HappeningServiceMock) Get(ctx context.Context, id int) (*model.Happening, error) {
	return m.happening(m.Called(ctx, id))
}

func (m *HappeningServiceMock) Update(ctx context.Context, id int, params model.UpdateHappeningParams) (*model.Happening, error) {
	return m.happening(m.Called(ctx, id, params))
}

func (m *HappeningServiceMock) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *HappeningServiceMock) Availability(ctx context.Context, id int) (model.SeatAvailability, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.SeatAvailability), args.Error(1)
}
