package queue

import (
	"context"
	"fmt"
	"time"

	"fichebox/pkg/types"

	"github.com/redis/go-redis/v9"
)

// Client wraps the redis list used to hand upload identifiers to the
// worker. The enqueuing side pushes with RPUSH; consumers block on BLPOP,
// so each identifier is delivered to exactly one consumer.
type Client struct {
	rdb *redis.Client
	key string
}

func Connect(ctx context.Context, config *types.Config) (*Client, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{rdb: rdb, key: config.QueueKey}, nil
}

// Pop blocks until an upload identifier is available or ctx is cancelled.
func (c *Client) Pop(ctx context.Context) (string, error) {
	result, err := c.rdb.BLPop(ctx, 0, c.key).Result()
	if err != nil {
		return "", fmt.Errorf("blpop %s: %w", c.key, err)
	}
	if len(result) != 2 {
		return "", fmt.Errorf("blpop %s: unexpected reply length %d", c.key, len(result))
	}

	return result[1], nil
}

// Push appends an upload identifier to the tail of the queue.
func (c *Client) Push(ctx context.Context, uploadID string) error {
	if err := c.rdb.RPush(ctx, c.key, uploadID).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", c.key, err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
