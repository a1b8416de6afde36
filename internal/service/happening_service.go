package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-gin-happenings/internal/cache"
	"go-gin-happenings/internal/database"
	"go-gin-happenings/internal/model"
	"go-gin-happenings/internal/repository"
	apperrors "go-gin-happenings/pkg/app_errors"
	"go-gin-happenings/pkg/logger"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type HappeningService interface {
	// Create 建立場次，並在同一個 transaction 內依 repeat_for / repeat_in 產生重複場次
	Create(ctx context.Context, req model.CreateHappeningRequest) (*model.Happening, error)
	Future(ctx context.Context) ([]*model.Happening, error)
	History(ctx context.Context) ([]*model.Happening, error)
	ListByFact(ctx context.Context, factID int) ([]*model.Happening, error)
	Get(ctx context.Context, id int) (*model.Happening, error)
	Update(ctx context.Context, id int, params model.UpdateHappeningParams) (*model.Happening, error)
	Delete(ctx context.Context, id int) error
	// Availability 座位彙總：先讀快取，沒有時回資料庫並回填
	Availability(ctx context.Context, id int) (model.SeatAvailability, error)
}

type HappeningServiceImpl struct {
	transactor  database.Transactor
	repository  repository.HappeningRepository
	factRepo    repository.FactRepository
	seatCounter cache.SeatCounterCache
	location    *time.Location
	now         func() time.Time
}

func NewHappeningService(
	transactor database.Transactor,
	happeningRepository repository.HappeningRepository,
	factRepository repository.FactRepository,
	seatCounter cache.SeatCounterCache,
	location *time.Location,
) HappeningService {
	if location == nil {
		location = time.UTC
	}
	return &HappeningServiceImpl{
		transactor:  transactor,
		repository:  happeningRepository,
		factRepo:    factRepository,
		seatCounter: seatCounter,
		location:    location,
		now:         time.Now,
	}
}

func (s *HappeningServiceImpl) Create(ctx context.Context, req model.CreateHappeningRequest) (*model.Happening, error) {
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created *model.Happening
	err := s.transactor.WithTx(ctx, func(tx pgx.Tx) error {
		// 鎖住 fact，同一個 fact 的 happenings_count 依序累加
		if _, err := s.factRepo.FindByIDWithLock(ctx, tx, req.FactID); err != nil {
			if errors.Is(err, apperrors.ErrFactNotFound) {
				ve := apperrors.NewValidationError()
				ve.Add("fact", "must exist")
				return ve
			}
			return err
		}

		parent, err := s.insert(ctx, tx, req.Happening())
		if err != nil {
			return err
		}

		children := PlanRepetitions(parent, req.RepeatDays(), req.RepeatIn, s.location)
		for i, child := range children {
			if err := child.Validate(); err != nil {
				var ve *apperrors.ValidationError
				if errors.As(err, &ve) {
					wrapped := apperrors.NewValidationError()
					wrapped.Merge(fmt.Sprintf("repetitions[%d].", i), ve)
					return wrapped
				}
				return err
			}
			if _, err := s.insert(ctx, tx, child); err != nil {
				return err
			}
		}

		created = parent
		logger.WithComponent("service").Info("happening created",
			zap.Int("happening_id", parent.ID),
			zap.Int("fact_id", parent.FactID),
			zap.Int("repetitions", len(children)),
		)
		return nil
	})
	if err != nil {
		return nil, apperrors.Persistence("create happening", err)
	}

	return created, nil
}

// insert 寫入單一場次並累加 fact 的 happenings_count
func (s *HappeningServiceImpl) insert(ctx context.Context, tx pgx.Tx, happening *model.Happening) (*model.Happening, error) {
	created, err := s.repository.Create(ctx, tx, happening)
	if err != nil {
		return nil, err
	}
	if err := s.factRepo.AddHappeningsCount(ctx, tx, created.FactID, 1); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *HappeningServiceImpl) Future(ctx context.Context) ([]*model.Happening, error) {
	happenings, err := s.repository.ListFuture(ctx, s.now())
	return happenings, apperrors.Persistence("list future happenings", err)
}

func (s *HappeningServiceImpl) History(ctx context.Context) ([]*model.Happening, error) {
	happenings, err := s.repository.ListHistory(ctx, s.now())
	return happenings, apperrors.Persistence("list history happenings", err)
}

func (s *HappeningServiceImpl) ListByFact(ctx context.Context, factID int) ([]*model.Happening, error) {
	if _, err := s.factRepo.FindByID(ctx, factID); err != nil {
		return nil, apperrors.Persistence("find fact", err)
	}
	happenings, err := s.repository.ListByFactID(ctx, factID)
	return happenings, apperrors.Persistence("list fact happenings", err)
}

func (s *HappeningServiceImpl) Get(ctx context.Context, id int) (*model.Happening, error) {
	happening, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Persistence("find happening", err)
	}
	return happening, nil
}

func (s *HappeningServiceImpl) Update(ctx context.Context, id int, params model.UpdateHappeningParams) (*model.Happening, error) {
	if params.IsEmpty() {
		return nil, apperrors.ErrInvalidInput
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.repository.Update(ctx, id, params)
	if err != nil {
		return nil, apperrors.Persistence("update happening", err)
	}

	// max_seats 變更後快取的剩餘座位已過期
	if params.MaxSeats != nil {
		s.invalidate(ctx, id)
	}

	return updated, nil
}

func (s *HappeningServiceImpl) Delete(ctx context.Context, id int) error {
	err := s.transactor.WithTx(ctx, func(tx pgx.Tx) error {
		deleted, err := s.repository.Delete(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.factRepo.AddHappeningsCount(ctx, tx, deleted.FactID, -1)
	})
	if err != nil {
		return apperrors.Persistence("delete happening", err)
	}

	s.invalidate(ctx, id)
	return nil
}

func (s *HappeningServiceImpl) Availability(ctx context.Context, id int) (model.SeatAvailability, error) {
	log := logger.WithComponent("service").With(zap.Int("happening_id", id))

	availability, err := s.seatCounter.Get(ctx, id)
	if err == nil {
		return availability, nil
	}
	if !errors.Is(err, apperrors.ErrHappeningNotFound) {
		log.Warn("seat counter cache read failed, falling back to database", zap.Error(err))
	}

	happening, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return model.SeatAvailability{}, apperrors.Persistence("find happening", err)
	}

	if err := s.seatCounter.Store(ctx, happening); err != nil {
		log.Warn("seat counter cache warm up failed", zap.Error(err))
	}

	return model.NewSeatAvailability(happening), nil
}

func (s *HappeningServiceImpl) invalidate(ctx context.Context, id int) {
	if err := s.seatCounter.Invalidate(ctx, id); err != nil {
		logger.WithComponent("service").Warn("seat counter cache invalidate failed",
			zap.Int("happening_id", id), zap.Error(err))
	}
}
