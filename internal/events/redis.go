package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel: канал Redis pub/sub для live-обновлений токена.
func Channel(ev Event) string {
	return "market_events:" + strconv.FormatInt(ev.TokenID, 10)
}

// RedisPublisher рассылает события через Redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher подключается к Redis и проверяет соединение.
func NewRedisPublisher(addr, password string) (*RedisPublisher, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisPublisher{client: rdb}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.client.Publish(ctx, Channel(ev), data).Err()
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
