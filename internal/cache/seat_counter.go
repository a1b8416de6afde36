package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go-gin-happenings/internal/model"
	apperrors "go-gin-happenings/pkg/app_errors"

	"github.com/redis/go-redis/v9"
)

const seatCounterTTL = 24 * time.Hour

type SeatCounterCache interface {
	// 寫入：重算完成後寫入場次座位彙總
	Store(ctx context.Context, happening *model.Happening) error
	// 讀取：快取不存在時回傳 ErrHappeningNotFound
	Get(ctx context.Context, happeningID int) (model.SeatAvailability, error)
	// 移除：場次刪除或修改座位上限時清掉快取
	Invalidate(ctx context.Context, happeningID int) error
}

type RedisSeatCounterCache struct {
	client *redis.Client
}

func NewRedisSeatCounterCache(client *redis.Client) SeatCounterCache {
	return &RedisSeatCounterCache{
		client: client,
	}
}

// 座位彙總 key
func (c *RedisSeatCounterCache) getSeatsKey(happeningID int) string {
	return fmt.Sprintf("happening:%d:seats", happeningID)
}

func (c *RedisSeatCounterCache) Store(ctx context.Context, happening *model.Happening) error {
	key := c.getSeatsKey(happening.ID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"seats":     happening.SeatsCount,
		"tickets":   happening.TicketsCount,
		"max_seats": happening.MaxSeats,
	})
	pipe.Expire(ctx, key, seatCounterTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisSeatCounterCache) Get(ctx context.Context, happeningID int) (model.SeatAvailability, error) {
	key := c.getSeatsKey(happeningID)
	result, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return model.SeatAvailability{}, err
	}

	// 檢查 key 是否存在
	if len(result) == 0 {
		return model.SeatAvailability{}, apperrors.ErrHappeningNotFound
	}

	seats, err := strconv.Atoi(result["seats"])
	if err != nil {
		return model.SeatAvailability{}, fmt.Errorf("invalid seats: %v", err)
	}

	tickets, err := strconv.Atoi(result["tickets"])
	if err != nil {
		return model.SeatAvailability{}, fmt.Errorf("invalid tickets: %v", err)
	}

	maxSeats, err := strconv.Atoi(result["max_seats"])
	if err != nil {
		return model.SeatAvailability{}, fmt.Errorf("invalid max_seats: %v", err)
	}

	return model.NewSeatAvailability(&model.Happening{
		ID:           happeningID,
		MaxSeats:     maxSeats,
		SeatsCount:   seats,
		TicketsCount: tickets,
	}), nil
}

func (c *RedisSeatCounterCache) Invalidate(ctx context.Context, happeningID int) error {
	return c.client.Del(ctx, c.getSeatsKey(happeningID)).Err()
}
