package services

import (
	"context"
	"testing"
	"time"

	"brainquest/internal/logger"
	"brainquest/internal/stats"
	"brainquest/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectNewDailySet(t *testing.T) {
	puzzles := newFakePuzzleStore()
	challenges := newFakeChallengeStore()
	catalog := &fakeCatalog{}
	svc := NewRotationService(puzzles, challenges, newFakeUserStore(t), catalog, 1, 2, logger.Nop())

	require.NoError(t, svc.SelectNewDailySet(context.Background(), wednesday))

	assert.Equal(t, 1, puzzles.cleared)
	assert.Equal(t, 1, challenges.cleared)
	assert.Equal(t, 1, puzzles.sampled)
	assert.Equal(t, 2, challenges.sampled)
	assert.Equal(t, 1, catalog.invalidated)
}

func TestRolloverDayBoundaryIsIdempotent(t *testing.T) {
	// 00:30 in New York on June 12 is 04:30 UTC
	now := time.Date(2025, 6, 12, 4, 30, 0, 0, time.UTC)
	ny := stats.NewUser("ny", "N", "America/New_York", now.Add(-3*time.Hour))
	ny.TodayStats.Points = 120
	utc := stats.NewUser("utc", "U", "UTC", now.Add(-3*time.Hour))
	utc.TodayStats.Points = 80
	users := newFakeUserStore(t, ny, utc)
	challenges := newFakeChallengeStore()
	ch := objectID(3)
	_, err := challenges.RecordProgress(context.Background(), ch, models.UserProgress{
		User: "ny", Progress: 3, IsCompleted: true, Timezone: "America/New_York", UpdatedAt: now.Add(-3 * time.Hour),
	})
	require.NoError(t, err)
	svc := NewRotationService(newFakePuzzleStore(), challenges, users, &fakeCatalog{}, 1, 2, logger.Nop())

	n, err := svc.RolloverDayBoundary(context.Background(), "America/New_York", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 0, users.get("ny").TodayStats.Points)
	assert.Equal(t, 80, users.get("utc").TodayStats.Points)
	entry, _ := challenges.entry(ch, "ny")
	assert.False(t, entry.IsCompleted)
	assert.Zero(t, entry.Progress)

	n, err = svc.RolloverDayBoundary(context.Background(), "America/New_York", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRolloverAllVisitsEveryTimezone(t *testing.T) {
	now := time.Date(2025, 6, 12, 4, 30, 0, 0, time.UTC)
	users := newFakeUserStore(t,
		stats.NewUser("a", "A", "UTC", now.Add(-15*time.Hour)),
		stats.NewUser("b", "B", "Asia/Tokyo", now.Add(-15*time.Hour)),
	)
	challenges := newFakeChallengeStore()
	svc := NewRotationService(newFakePuzzleStore(), challenges, users, &fakeCatalog{}, 1, 2, logger.Nop())

	require.NoError(t, svc.RolloverAll(context.Background(), now))
	assert.ElementsMatch(t, []string{"UTC", "Asia/Tokyo"}, challenges.resets)
	// both users crossed a local midnight since their last reset
	assert.True(t, users.get("a").CheckNewDay.LastChecked.Equal(now))
	assert.True(t, users.get("b").CheckNewDay.LastChecked.Equal(now))
}
