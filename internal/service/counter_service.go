package service

import (
	"context"

	"go-gin-happenings/internal/cache"
	"go-gin-happenings/internal/database"
	"go-gin-happenings/internal/model"
	"go-gin-happenings/internal/notify"
	"go-gin-happenings/internal/repository"
	apperrors "go-gin-happenings/pkg/app_errors"
	"go-gin-happenings/pkg/logger"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type CounterService interface {
	// RefreshSeatsCount 依票券重算 seats_count / tickets_count，提交後更新快取並推送畫面更新。
	// 尚未寫入資料庫的場次直接回傳，不做任何事。
	RefreshSeatsCount(ctx context.Context, happening *model.Happening) (*model.Happening, error)
}

type CounterServiceImpl struct {
	transactor  database.Transactor
	repository  repository.HappeningRepository
	factRepo    repository.FactRepository
	ticketRepo  repository.TicketRepository
	seatCounter cache.SeatCounterCache
	notifier    notify.Notifier
}

func NewCounterService(
	transactor database.Transactor,
	happeningRepository repository.HappeningRepository,
	factRepository repository.FactRepository,
	ticketRepository repository.TicketRepository,
	seatCounter cache.SeatCounterCache,
	notifier notify.Notifier,
) CounterService {
	return &CounterServiceImpl{
		transactor:  transactor,
		repository:  happeningRepository,
		factRepo:    factRepository,
		ticketRepo:  ticketRepository,
		seatCounter: seatCounter,
		notifier:    notifier,
	}
}

func (s *CounterServiceImpl) RefreshSeatsCount(ctx context.Context, happening *model.Happening) (*model.Happening, error) {
	if happening == nil || !happening.IsPersisted() {
		return happening, nil
	}

	var refreshed *model.Happening
	err := s.transactor.WithTx(ctx, func(tx pgx.Tx) error {
		// 1. 鎖住場次，同一場次的重算依序執行
		locked, err := s.repository.FindByIDWithLock(ctx, tx, happening.ID)
		if err != nil {
			return err
		}

		// 2. 彙總票券
		totals, err := s.ticketRepo.TotalsByHappeningID(ctx, tx, locked.ID)
		if err != nil {
			return err
		}

		// 3. 寫回計數
		if err := s.repository.UpdateCounters(ctx, tx, locked.ID, totals); err != nil {
			return err
		}

		locked.TicketsCount = totals.Tickets
		locked.SeatsCount = totals.Seats
		refreshed = locked
		return nil
	})
	if err != nil {
		return nil, apperrors.Persistence("refresh seats count", err)
	}

	log := logger.WithComponent("service").With(zap.Int("happening_id", refreshed.ID))
	log.Debug("seats count refreshed",
		zap.Int("seats_count", refreshed.SeatsCount),
		zap.Int("tickets_count", refreshed.TicketsCount),
	)

	// 快取與通知都在提交之後，失敗只記錄
	if err := s.seatCounter.Store(ctx, refreshed); err != nil {
		log.Warn("seat counter cache store failed", zap.Error(err))
	}

	s.publish(ctx, refreshed.CounterTarget(), refreshed)

	fact, err := s.factRepo.FindByID(ctx, refreshed.FactID)
	if err != nil {
		log.Error("load fact for nav update failed", zap.Int("fact_id", refreshed.FactID), zap.Error(err))
		return refreshed, nil
	}
	s.publish(ctx, refreshed.NavTarget(), fact)

	return refreshed, nil
}

func (s *CounterServiceImpl) publish(ctx context.Context, target string, payload interface{}) {
	log := logger.WithComponent("notify").With(zap.String("target", target))

	msg, err := notify.NewReplaceMessage(notify.ChannelFacts, target, payload)
	if err != nil {
		log.Error("encode message failed", zap.Error(err))
		return
	}
	if err := s.notifier.Publish(ctx, msg); err != nil {
		log.Error("publish message failed", zap.Error(err))
	}
}
