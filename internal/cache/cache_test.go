package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"brainquest/internal/logger"
	"brainquest/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	badges     []models.Badge
	challenges []models.Challenge
	err        error
	calls      int
}

func (s *stubSource) ListBadges(context.Context) ([]models.Badge, error) {
	s.calls++
	return s.badges, s.err
}

func (s *stubSource) ListDaily(context.Context) ([]models.Challenge, error) {
	s.calls++
	return s.challenges, s.err
}

func TestCatalogWithoutRedisReadsSource(t *testing.T) {
	src := &stubSource{
		badges:     []models.Badge{{Title: "Brain Spark", Condition: "brain_spark"}},
		challenges: []models.Challenge{{Title: "Power Session", Condition: "power_session"}},
	}
	c := NewCatalog(nil, src, src, time.Minute, logger.Nop())

	badges, err := c.Badges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, src.badges, badges)

	challenges, err := c.DailyChallenges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, src.challenges, challenges)
	assert.Equal(t, 2, src.calls)

	c.InvalidateChallenges(context.Background())
}

func TestCatalogPropagatesSourceErrors(t *testing.T) {
	src := &stubSource{err: errors.New("mongo down")}
	c := NewCatalog(nil, src, src, time.Minute, logger.Nop())

	_, err := c.Badges(context.Background())
	assert.EqualError(t, err, "mongo down")
}

func TestCatalogFallsBackWhenRedisIsUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	src := &stubSource{badges: []models.Badge{{Title: "Master", Condition: "master"}}}
	c := NewCatalog(rdb, src, src, time.Minute, logger.Nop())

	badges, err := c.Badges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, src.badges, badges)
}

func TestRateLimiterWithoutRedisAllows(t *testing.T) {
	rl := NewRateLimiter(nil, 1, time.Minute)
	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(context.Background(), "check-answer", "user_1")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	var nilLimiter *RateLimiter
	ok, err := nilLimiter.Allow(context.Background(), "check-answer", "user_1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewRedisClientDisabled(t *testing.T) {
	rdb, err := NewRedisClient(context.Background(), "", "", 0)
	require.NoError(t, err)
	assert.Nil(t, rdb)
}

func TestRateLimiterWindowExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	rl := NewRateLimiter(rdb, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "check-answer", "user_1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := rl.Allow(ctx, "check-answer", "user_1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("rate:check-answer:user_1"))

	other, err := rl.Allow(ctx, "check-answer", "user_2")
	require.NoError(t, err)
	assert.True(t, other)

	mr.FastForward(time.Minute)
	ok, err = rl.Allow(ctx, "check-answer", "user_1")
	require.NoError(t, err)
	assert.True(t, ok)
}
