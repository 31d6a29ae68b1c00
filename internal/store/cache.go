package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const assignmentKeyPrefix = "vg:assignment:"

// CachedStore serves assignment reads from Redis in front of another Store.
// Assignments are immutable once written, so a cached entry never goes stale
// while its test exists. The wrapped store stays the source of truth for the
// insert-if-absent decision.
type CachedStore struct {
	Store
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedStore(inner Store, client *redis.Client, ttl time.Duration, logger zerolog.Logger) *CachedStore {
	return &CachedStore{
		Store:  inner,
		redis:  client,
		ttl:    ttl,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

// ConnectRedis opens a client and checks the server answers.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func assignmentKey(testID, visitorID string) string {
	return assignmentKeyPrefix + testID + ":" + visitorID
}

func (c *CachedStore) GetAssignment(ctx context.Context, testID, visitorID string) (*Assignment, error) {
	raw, err := c.redis.Get(ctx, assignmentKey(testID, visitorID)).Bytes()
	if err == nil {
		var a Assignment
		if json.Unmarshal(raw, &a) == nil {
			return &a, nil
		}
	}

	// Cache miss or Redis trouble: the wrapped store answers.
	a, err := c.Store.GetAssignment(ctx, testID, visitorID)
	if err != nil {
		return nil, err
	}
	c.remember(ctx, a)
	return a, nil
}

func (c *CachedStore) InsertAssignment(ctx context.Context, a *Assignment) (*Assignment, bool, error) {
	stored, created, err := c.Store.InsertAssignment(ctx, a)
	if err != nil {
		return nil, false, err
	}
	c.remember(ctx, stored)
	return stored, created, nil
}

// DeleteTest removes the test from the wrapped store, then evicts its cached
// assignments. Eviction failures are logged only: the keys carry the test id
// and nothing reads them once the test is gone.
func (c *CachedStore) DeleteTest(ctx context.Context, id string) error {
	if err := c.Store.DeleteTest(ctx, id); err != nil {
		return err
	}

	iter := c.redis.Scan(ctx, 0, assignmentKeyPrefix+id+":*", 500).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn().Err(err).Str("test_id", id).Msg("failed to scan cached assignments")
		return nil
	}
	if len(keys) > 0 {
		if err := c.redis.Del(ctx, keys...).Err(); err != nil {
			c.logger.Warn().Err(err).Str("test_id", id).Int("keys", len(keys)).Msg("failed to evict cached assignments")
		}
	}
	return nil
}

func (c *CachedStore) Ping(ctx context.Context) error {
	if err := c.Store.Ping(ctx); err != nil {
		return err
	}
	return c.redis.Ping(ctx).Err()
}

func (c *CachedStore) Close() error {
	return errors.Join(c.redis.Close(), c.Store.Close())
}

// remember writes a through to Redis. Failures only cost a later cache miss.
func (c *CachedStore) remember(ctx context.Context, a *Assignment) {
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, assignmentKey(a.TestID, a.VisitorID), raw, c.ttl).Err()
}
