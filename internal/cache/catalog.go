package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"brainquest/internal/logger"
	"brainquest/models"

	"github.com/redis/go-redis/v9"
)

const (
	badgesKey          = "catalog:badges"
	dailyChallengesKey = "catalog:challenges:daily"
)

type BadgeSource interface {
	ListBadges(ctx context.Context) ([]models.Badge, error)
}

type ChallengeSource interface {
	ListDaily(ctx context.Context) ([]models.Challenge, error)
}

// Catalog serves badge and daily challenge definitions from Redis, loading
// them from MongoDB on a miss. Redis errors are logged and fall through to
// the source.
type Catalog struct {
	rdb        *redis.Client
	badges     BadgeSource
	challenges ChallengeSource
	ttl        time.Duration
	log        *logger.Logger
}

func NewCatalog(rdb *redis.Client, badges BadgeSource, challenges ChallengeSource, ttl time.Duration, log *logger.Logger) *Catalog {
	return &Catalog{rdb: rdb, badges: badges, challenges: challenges, ttl: ttl, log: log.With("component", "catalog")}
}

func (c *Catalog) Badges(ctx context.Context) ([]models.Badge, error) {
	return cached(ctx, c, badgesKey, c.badges.ListBadges)
}

// DailyChallenges returns the active challenge definitions. Per-user
// progress in the cached copy may be stale; only definitions are read from it.
func (c *Catalog) DailyChallenges(ctx context.Context) ([]models.Challenge, error) {
	return cached(ctx, c, dailyChallengesKey, c.challenges.ListDaily)
}

func (c *Catalog) InvalidateChallenges(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, dailyChallengesKey).Err(); err != nil {
		c.log.Warn("invalidate challenge catalog failed", "error", err)
	}
}

func cached[T any](ctx context.Context, c *Catalog, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var items []T
			if jerr := json.Unmarshal(raw, &items); jerr == nil {
				return items, nil
			}
			c.log.Warn("discarding unreadable catalog entry", "key", key)
		case !errors.Is(err, redis.Nil):
			c.log.Warn("catalog cache read failed", "key", key, "error", err)
		}
	}

	items, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if c.rdb != nil {
		if raw, err := json.Marshal(items); err == nil {
			if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				c.log.Warn("catalog cache write failed", "key", key, "error", err)
			}
		}
	}
	return items, nil
}
