package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

// Ping checks redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

// Publish sends payload to a pub/sub channel and returns the receiver count.
func (c *Client) Publish(ctx context.Context, channel string, payload []byte) (int64, error) {
	return c.redisdb.Publish(ctx, channel, payload).Result()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}

// Raw exposes the underlying client, mostly for subscribers in tests.
func (c *Client) Raw() *redis.Client {
	return c.redisdb
}
