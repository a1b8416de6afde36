package queue

import (
	"context"
	"time"

	"go-gin-happenings/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SeatRefreshRequest 售票流程通知某場次的票券已異動
type SeatRefreshRequest struct {
	RequestID   string    `json:"request_id"`
	HappeningID int       `json:"happening_id"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewSeatRefreshRequest(happeningID int) *SeatRefreshRequest {
	return &SeatRefreshRequest{
		RequestID:   uuid.New().String(),
		HappeningID: happeningID,
		RequestedAt: time.Now().UTC(),
	}
}

type Delivery struct {
	Data *SeatRefreshRequest
	Ack  func()
	Nack func(requeue bool)
}

type SeatRefreshQueue interface {
	// 發送重算請求到隊列
	PublishRefresh(ctx context.Context, req *SeatRefreshRequest) error
	// 訂閱重算請求
	SubscribeRefreshes(ctx context.Context) (<-chan Delivery, error)
}

// DefaultMaxRetryCount Nack(true) 後最多重送的次數
const DefaultMaxRetryCount = 5

type queuedRefresh struct {
	req      *SeatRefreshRequest
	attempts int
}

type MemorySeatRefreshQueue struct {
	// 使用 Go channel 來模擬 MQ 隊列
	ch         chan queuedRefresh
	maxRetries int
	retryDelay time.Duration // 第 n 次重送前等待 n * retryDelay
}

func NewMemorySeatRefreshQueue(bufferSize int) SeatRefreshQueue {
	return &MemorySeatRefreshQueue{
		ch:         make(chan queuedRefresh, bufferSize),
		maxRetries: DefaultMaxRetryCount,
		retryDelay: 200 * time.Millisecond,
	}
}

func (q *MemorySeatRefreshQueue) PublishRefresh(ctx context.Context, req *SeatRefreshRequest) error {
	select {
	case q.ch <- queuedRefresh{req: req}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemorySeatRefreshQueue) SubscribeRefreshes(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-q.ch:
				if !ok {
					return
				}
				select {
				case out <- q.delivery(ctx, item):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (q *MemorySeatRefreshQueue) delivery(ctx context.Context, item queuedRefresh) Delivery {
	return Delivery{
		Data: item.req,
		Ack:  func() {},
		Nack: func(requeue bool) {
			if !requeue {
				return
			}
			if item.attempts >= q.maxRetries {
				logger.WithComponent("mq").Warn("drop seat refresh request after max retries",
					zap.String("request_id", item.req.RequestID),
					zap.Int("happening_id", item.req.HappeningID),
					zap.Int("retries", item.attempts))
				return
			}
			next := queuedRefresh{req: item.req, attempts: item.attempts + 1}
			// 延遲後重新排入，不阻塞 consumer
			go func() {
				select {
				case <-time.After(time.Duration(next.attempts) * q.retryDelay):
				case <-ctx.Done():
					return
				}
				select {
				case q.ch <- next:
				case <-ctx.Done():
				}
			}()
		},
	}
}
