package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brainquest/internal/logger"
	"brainquest/internal/stats"
	"brainquest/models"
)

const streakWindow = 24 * time.Hour

// NextStreak is the streak after activity at now. More than 24h since the
// last activity resets it to resetTo; activity on the next local calendar
// day extends it; anything else leaves it unchanged.
func NextStreak(streak int, lastLogged, now time.Time, loc *time.Location, resetTo int) int {
	if StreakExpired(lastLogged, now) {
		return resetTo
	}
	if stats.DaysBetween(lastLogged, now, loc) == 1 {
		return streak + 1
	}
	return streak
}

// StreakExpired reports whether the activity gap broke the streak.
func StreakExpired(lastLogged, now time.Time) bool {
	return now.Sub(lastLogged) > streakWindow
}

// StreakService maintains the consecutive-day activity counter.
type StreakService struct {
	users   UserStore
	resetTo int
	log     *logger.Logger
	now     func() time.Time
}

func NewStreakService(users UserStore, resetTo int, log *logger.Logger) *StreakService {
	if resetTo < 0 {
		resetTo = 0
	}
	return &StreakService{users: users, resetTo: resetTo, log: log.With("service", "StreakService"), now: time.Now}
}

func (s *StreakService) Name() string { return "streak" }

// Evaluate records activity at now.
func (s *StreakService) Evaluate(ctx context.Context, userID string, now time.Time) error {
	u, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", userID, err)
	}
	next := NextStreak(u.Streak, u.LastLogged, now, stats.Location(u.CheckNewDay.Timezone), s.resetTo)
	if err := s.users.SetStreak(ctx, userID, next, now); err != nil {
		return fmt.Errorf("set streak for %s: %w", userID, err)
	}
	return nil
}

// CheckResetStreak is the on-demand check run when a client opens. It rolls
// the user's day if local midnight has passed and resets an expired streak
// without counting the check itself as activity.
func (s *StreakService) CheckResetStreak(ctx context.Context, userID string) (*models.User, error) {
	now := s.now()
	var u *models.User
	for attempt := 1; ; attempt++ {
		var err error
		u, err = s.users.FindUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load user %s: %w", userID, err)
		}
		if !stats.RollDay(u, now) {
			break
		}
		err = s.users.SaveStats(ctx, u)
		if err == nil {
			break
		}
		if !errors.Is(err, models.ErrVersionConflict) || attempt == maxSaveAttempts {
			return nil, fmt.Errorf("roll day for %s: %w", userID, err)
		}
	}

	if StreakExpired(u.LastLogged, now) && u.Streak != s.resetTo {
		if err := s.users.SetStreak(ctx, userID, s.resetTo, u.LastLogged); err != nil {
			return nil, fmt.Errorf("reset streak for %s: %w", userID, err)
		}
		s.log.Debug("streak reset", "user_id", userID, "was", u.Streak)
		u.Streak = s.resetTo
	}
	return u, nil
}
