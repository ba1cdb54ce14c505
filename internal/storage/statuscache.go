package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Divas-Gupta30/interview-agent/internal/interview"
)

// DefaultStatusTTL keeps a finished session visible for a day.
const DefaultStatusTTL = 24 * time.Hour

// StatusCache mirrors session status into Redis so other instances can
// answer status queries.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

func NewStatusCache(opts RedisOptions, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}
	return &StatusCache{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		ttl: ttl,
	}
}

func (c *StatusCache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

func (c *StatusCache) Publish(ctx context.Context, st interview.Status) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statusKey(st.SessionID), data, c.ttl).Err()
}

func (c *StatusCache) Lookup(ctx context.Context, id string) (interview.Status, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := c.client.Get(ctx, statusKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return interview.Status{}, false, nil
	}
	if err != nil {
		return interview.Status{}, false, err
	}
	var st interview.Status
	if err := json.Unmarshal(data, &st); err != nil {
		return interview.Status{}, false, fmt.Errorf("decoding cached status: %w", err)
	}
	return st, true, nil
}

func (c *StatusCache) Close() error {
	return c.client.Close()
}

func statusKey(id string) string {
	return fmt.Sprintf("interview:status:%s", id)
}
