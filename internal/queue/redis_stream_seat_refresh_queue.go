package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go-gin-happenings/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	StreamKey          = "happenings:seats:stream"
	ConsumerGroupName  = "seat-refresh-workers"
	ConsumerNamePrefix = "worker"
)

// RedisStreamSeatRefreshQueueConfig 可注入的逾時與重試設定；零值時使用預設。
type RedisStreamSeatRefreshQueueConfig struct {
	StreamKey          string
	GroupName          string
	ClaimMinIdleTime   time.Duration // PEL 中超過此時間才被 XAUTOCLAIM 領取
	MaxRetryCount      int           // 投遞達此次數即丟棄
	ReadGroupBlockTime time.Duration // XReadGroup 阻塞時間
}

func defaultRedisStreamConfig() RedisStreamSeatRefreshQueueConfig {
	return RedisStreamSeatRefreshQueueConfig{
		StreamKey:          StreamKey,
		GroupName:          ConsumerGroupName,
		ClaimMinIdleTime:   5 * time.Second,
		MaxRetryCount:      5,
		ReadGroupBlockTime: 2 * time.Second,
	}
}

type RedisStreamSeatRefreshQueue struct {
	client       *redis.Client
	consumerName string
	cfg          RedisStreamSeatRefreshQueueConfig
}

// NewRedisStreamSeatRefreshQueue config 可為 nil
func NewRedisStreamSeatRefreshQueue(client *redis.Client, consumerID string, config *RedisStreamSeatRefreshQueueConfig) (SeatRefreshQueue, error) {
	if consumerID == "" {
		consumerID = uuid.New().String()
	}
	cfg := defaultRedisStreamConfig()
	if config != nil {
		if config.StreamKey != "" {
			cfg.StreamKey = config.StreamKey
		}
		if config.GroupName != "" {
			cfg.GroupName = config.GroupName
		}
		if config.ClaimMinIdleTime > 0 {
			cfg.ClaimMinIdleTime = config.ClaimMinIdleTime
		}
		if config.MaxRetryCount > 0 {
			cfg.MaxRetryCount = config.MaxRetryCount
		}
		if config.ReadGroupBlockTime > 0 {
			cfg.ReadGroupBlockTime = config.ReadGroupBlockTime
		}
	}
	q := &RedisStreamSeatRefreshQueue{
		client:       client,
		consumerName: fmt.Sprintf("%s:%s", ConsumerNamePrefix, consumerID),
		cfg:          cfg,
	}
	if err := q.ensureConsumerGroup(context.Background()); err != nil {
		return nil, fmt.Errorf("ensure consumer group: %w", err)
	}
	return q, nil
}

func (q *RedisStreamSeatRefreshQueue) ensureConsumerGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.cfg.StreamKey, q.cfg.GroupName, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (q *RedisStreamSeatRefreshQueue) PublishRefresh(ctx context.Context, req *SeatRefreshRequest) error {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal refresh request: %w", err)
	}
	_, err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.cfg.StreamKey,
		ID:     "*",
		Values: map[string]interface{}{"refresh": string(reqJSON)},
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd: %w", err)
	}
	return nil
}

func (q *RedisStreamSeatRefreshQueue) SubscribeRefreshes(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)
	go func() {
		defer close(out)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.reclaimIdle(ctx, out)
		}()
		q.consumeNew(ctx, out)
		wg.Wait()
	}()
	return out, nil
}

// consumeNew 只讀從未投遞過的請求；Nack(true) 的請求留在 PEL，交給 reclaimIdle
func (q *RedisStreamSeatRefreshQueue) consumeNew(ctx context.Context, out chan<- Delivery) {
	for ctx.Err() == nil {
		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.cfg.GroupName,
			Consumer: q.consumerName,
			Streams:  []string{q.cfg.StreamKey, ">"},
			Count:    10,
			Block:    q.cfg.ReadGroupBlockTime,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.WithComponent("mq").Error("read seat refresh stream failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		for _, stream := range streams {
			if stream.Stream == q.cfg.StreamKey && !q.forward(ctx, out, stream.Messages) {
				return
			}
		}
	}
}

// reclaimIdle 每隔 ClaimMinIdleTime 把閒置過久的請求領回重送
func (q *RedisStreamSeatRefreshQueue) reclaimIdle(ctx context.Context, out chan<- Delivery) {
	ticker := time.NewTicker(q.cfg.ClaimMinIdleTime)
	defer ticker.Stop()
	cursor := "0-0"

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		claimed, next, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   q.cfg.StreamKey,
			Group:    q.cfg.GroupName,
			Consumer: q.consumerName,
			MinIdle:  q.cfg.ClaimMinIdleTime,
			Count:    10,
			Start:    cursor,
		}).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return
			}
			logger.WithComponent("mq").Error("reclaim idle refresh requests failed", zap.Error(err))
			continue
		}
		if next == "" {
			next = "0-0"
		}
		cursor = next

		retry := claimed[:0]
		for _, msg := range claimed {
			if !q.exhausted(ctx, msg.ID) {
				retry = append(retry, msg)
			}
		}
		if !q.forward(ctx, out, retry) {
			return
		}
	}
}

// forward 解析後送出；ctx 結束時回傳 false
func (q *RedisStreamSeatRefreshQueue) forward(ctx context.Context, out chan<- Delivery, msgs []redis.XMessage) bool {
	for _, msg := range msgs {
		d, ok := q.toDelivery(ctx, msg)
		if !ok {
			continue
		}
		select {
		case out <- d:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// exhausted 投遞次數達 MaxRetryCount 的請求直接 ack 丟棄；查詢失敗時照常重送
func (q *RedisStreamSeatRefreshQueue) exhausted(ctx context.Context, messageID string) bool {
	log := logger.WithComponent("mq").With(zap.String("message_id", messageID))
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: q.cfg.StreamKey,
		Group:  q.cfg.GroupName,
		Start:  messageID,
		End:    messageID,
		Count:  1,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Warn("lookup delivery count failed", zap.Error(err))
		return false
	}
	if len(pending) == 0 || int(pending[0].RetryCount) < q.cfg.MaxRetryCount {
		return false
	}
	log.Warn("drop seat refresh request after max retries", zap.Int64("deliveries", pending[0].RetryCount))
	q.ack(ctx, messageID)
	return true
}

func (q *RedisStreamSeatRefreshQueue) ack(ctx context.Context, messageID string) {
	if err := q.client.XAck(ctx, q.cfg.StreamKey, q.cfg.GroupName, messageID).Err(); err != nil {
		logger.WithComponent("mq").Error("ack seat refresh request failed", zap.String("message_id", messageID), zap.Error(err))
	}
}

// toDelivery 無法解析的請求直接 ack，不會重送
func (q *RedisStreamSeatRefreshQueue) toDelivery(ctx context.Context, msg redis.XMessage) (Delivery, bool) {
	raw, _ := msg.Values["refresh"].(string)
	var req SeatRefreshRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		logger.WithComponent("mq").Warn("malformed seat refresh request", zap.String("message_id", msg.ID), zap.Error(err))
		q.ack(ctx, msg.ID)
		return Delivery{}, false
	}
	id := msg.ID
	return Delivery{
		Data: &req,
		Ack:  func() { q.ack(ctx, id) },
		Nack: func(requeue bool) {
			// requeue 時不 ack，留在 PEL 等 reclaimIdle 領回
			if !requeue {
				q.ack(ctx, id)
			}
		},
	}, true
}
