package services

import (
	"context"
	"testing"
	"time"

	"brainquest/internal/logger"
	"brainquest/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStreak(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		streak     int
		lastLogged time.Time
		resetTo    int
		want       int
	}{
		{"gap over a day resets", 5, now.Add(-25 * time.Hour), 0, 0},
		{"reset policy of one", 5, now.Add(-25 * time.Hour), 1, 1},
		{"next calendar day extends", 5, now.Add(-20 * time.Hour), 0, 6},
		{"same day leaves unchanged", 5, now.Add(-2 * time.Hour), 0, 5},
		{"exactly a day later extends", 2, now.Add(-24 * time.Hour), 0, 3},
		{"next calendar day past the window resets", 4, now.Add(-34 * time.Hour), 0, 0},
		{"first answer of a new user", 0, now.Add(-24*time.Hour - time.Minute), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextStreak(tt.streak, tt.lastLogged, now, time.UTC, tt.resetTo))
		})
	}
}

func TestStreakResetsAfterLongGap(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	u := stats.NewUser("user_1", "Ann", "UTC", now.Add(-72*time.Hour))
	u.Streak = 5
	u.LastLogged = now.Add(-25 * time.Hour)
	users := newFakeUserStore(t, u)
	svc := NewStreakService(users, 0, logger.Nop())

	require.NoError(t, svc.Evaluate(context.Background(), "user_1", now))

	got := users.get("user_1")
	assert.Equal(t, 0, got.Streak)
	assert.True(t, got.LastLogged.Equal(now))
}

func TestCheckResetStreakKeepsLastLogged(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	last := now.Add(-30 * time.Hour)
	u := stats.NewUser("user_1", "Ann", "UTC", now.Add(-48*time.Hour))
	u.Streak = 4
	u.LastLogged = last
	u.TodayStats.Points = 90
	users := newFakeUserStore(t, u)
	svc := NewStreakService(users, 0, logger.Nop())
	svc.now = fixedClock(now)

	got, err := svc.CheckResetStreak(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Streak)

	stored := users.get("user_1")
	assert.Equal(t, 0, stored.Streak)
	assert.True(t, stored.LastLogged.Equal(last))
	assert.Equal(t, 0, stored.TodayStats.Points, "day rolled")
	assert.True(t, stored.CheckNewDay.LastChecked.Equal(now))
}

func TestCheckResetStreakLeavesActiveStreak(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	u := stats.NewUser("user_1", "Ann", "UTC", now.Add(-time.Hour))
	u.Streak = 4
	u.LastLogged = now.Add(-3 * time.Hour)
	users := newFakeUserStore(t, u)
	svc := NewStreakService(users, 0, logger.Nop())
	svc.now = fixedClock(now)

	got, err := svc.CheckResetStreak(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Streak)
	assert.Equal(t, 0, users.saves)
}
