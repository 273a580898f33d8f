package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter implements Counter on Redis, giving accurate counts
// across multiple nodes.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter creates a Redis-backed counter and verifies
// connectivity.
func NewRedisCounter(addr, password string, db int) (*RedisCounter, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCounter{client: client}, nil
}

// incrScript increments and sets the window TTL atomically.
var incrScript = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	return current
`)

// Increment atomically increments the counter for key using INCR
// with a PEXPIRE bound to the first increment of the window.
func (c *RedisCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	fullKey := "eligibility:counter:" + key

	result, err := incrScript.Run(ctx, c.client, []string{fullKey}, window.Milliseconds()).Int64()
	if err != nil {
		return 0, err
	}
	return result, nil
}

// Ping checks Redis connectivity.
func (c *RedisCounter) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCounter) Close() error {
	return c.client.Close()
}
