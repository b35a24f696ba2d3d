package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmaazkhanhere/learnpath/internal/repository"
)

const (
	skillKeyPrefix  = "learnpath:skills:"
	skillVersionKey = skillKeyPrefix + "version"
)

// SkillCache implements repository.SkillCache using Redis. Pages are keyed by
// a generation number; Invalidate bumps the generation so stale pages are
// never read again and expire on their own.
type SkillCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSkillCache creates a new Redis-backed skill listing cache.
func NewSkillCache(client *redis.Client, ttl time.Duration) *SkillCache {
	return &SkillCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached page, or nil when there is none, and the generation
// it was looked up in.
func (c *SkillCache) Get(ctx context.Context, offset, limit int) (*repository.SkillPage, int64, error) {
	generation, err := c.client.Get(ctx, skillVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, fmt.Errorf("redis get skills version: %w", err)
	}

	data, err := c.client.Get(ctx, pageKey(generation, offset, limit)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, generation, nil
		}
		return nil, generation, fmt.Errorf("redis get skills page: %w", err)
	}

	var page repository.SkillPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, generation, fmt.Errorf("unmarshal skills page: %w", err)
	}
	return &page, generation, nil
}

// Set stores a page under generation with the configured TTL.
func (c *SkillCache) Set(ctx context.Context, generation int64, offset, limit int, page *repository.SkillPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal skills page: %w", err)
	}

	if err := c.client.Set(ctx, pageKey(generation, offset, limit), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set skills page: %w", err)
	}
	return nil
}

// Invalidate drops every cached page.
func (c *SkillCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, skillVersionKey).Err(); err != nil {
		return fmt.Errorf("redis bump skills version: %w", err)
	}
	return nil
}

func pageKey(generation int64, offset, limit int) string {
	return fmt.Sprintf("%sv%d:%d:%d", skillKeyPrefix, generation, offset, limit)
}
