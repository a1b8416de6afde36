package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"go-gin-happenings/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisNotifier 透過 Redis Pub/Sub 發送，讓每個實例的 SSE 連線都收得到
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Publish(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := n.client.Publish(ctx, msg.Channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Channel, err)
	}
	return nil
}

// Relay 訂閱 Redis 頻道並轉送到本機 Hub，直到 ctx 結束
func (n *RedisNotifier) Relay(ctx context.Context, hub *Hub, channels ...string) error {
	pubsub := n.client.Subscribe(ctx, channels...)
	defer pubsub.Close()

	// 等待訂閱確認，確保之後發送的訊息不會漏接
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	log := logger.WithComponent("notify")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-ch:
			if !ok {
				return nil
			}
			var msg Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				log.Warn("invalid message", zap.String("channel", raw.Channel), zap.Error(err))
				continue
			}
			hub.Emit(msg)
		}
	}
}
