package worker

import (
	"context"
	"errors"

	"go-gin-happenings/internal/queue"
	"go-gin-happenings/internal/service"
	apperrors "go-gin-happenings/pkg/app_errors"
	"go-gin-happenings/pkg/logger"

	"go.uber.org/zap"
)

type SeatRefreshWorker interface {
	// 訂閱座位重算隊列
	Start(ctx context.Context) error
}

type SeatRefreshWorkerImpl struct {
	happenings service.HappeningService
	counter    service.CounterService
	queue      queue.SeatRefreshQueue
}

func NewSeatRefreshWorker(happenings service.HappeningService, counter service.CounterService, queue queue.SeatRefreshQueue) SeatRefreshWorker {
	return &SeatRefreshWorkerImpl{
		happenings: happenings,
		counter:    counter,
		queue:      queue,
	}
}

func (w *SeatRefreshWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribeRefreshes(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			w.handle(ctx, msg)
		}
	}()
	return nil
}

func (w *SeatRefreshWorkerImpl) handle(ctx context.Context, msg queue.Delivery) {
	log := logger.WithComponent("worker").With(
		zap.String("request_id", msg.Data.RequestID),
		zap.Int("happening_id", msg.Data.HappeningID),
	)

	happening, err := w.happenings.Get(ctx, msg.Data.HappeningID)
	if err != nil {
		// 場次已刪除，重試也沒有意義
		if errors.Is(err, apperrors.ErrHappeningNotFound) {
			log.Info("happening gone, dropping refresh")
			msg.Ack()
			return
		}
		log.Warn("load happening failed, requeue", zap.Error(err))
		msg.Nack(true)
		return
	}

	if _, err := w.counter.RefreshSeatsCount(ctx, happening); err != nil {
		if errors.Is(err, apperrors.ErrHappeningNotFound) {
			log.Info("happening gone, dropping refresh")
			msg.Ack()
			return
		}
		// 資料庫暫時失敗，交給隊列重試
		log.Warn("refresh seats count failed, requeue", zap.Error(err))
		msg.Nack(true)
		return
	}

	msg.Ack()
}
