package notify

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisRelay publishes public events on a pub/sub channel and pushes direct
// messages onto a per-recipient list the delivery edge drains.
type RedisRelay struct {
	client  *redis.Client
	channel string
}

// NewRedisRelay creates a relay over the given Redis address.
func NewRedisRelay(addr, password string, db int, channel string) *RedisRelay {
	return &RedisRelay{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		channel: channel,
	}
}

func (r *RedisRelay) SendDirect(ctx context.Context, recipient, message string) error {
	return r.client.LPush(ctx, "notify:"+recipient, message).Err()
}

func (r *RedisRelay) PublishPublic(ctx context.Context, message string) error {
	return r.client.Publish(ctx, r.channel, message).Err()
}

// Close releases the underlying connection pool.
func (r *RedisRelay) Close() error {
	return r.client.Close()
}
