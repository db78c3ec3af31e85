package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brainquest/internal/logger"
	"brainquest/internal/stats"
)

// RotationService owns the two scheduled maintenance operations: choosing
// the daily set and rolling per-timezone day boundaries. Both are plain
// operations that the cron scheduler and the admin routes call.
type RotationService struct {
	puzzles         PuzzleStore
	challenges      ChallengeStore
	users           UserStore
	catalog         Catalog
	dailyPuzzles    int
	dailyChallenges int
	log             *logger.Logger
}

func NewRotationService(puzzles PuzzleStore, challenges ChallengeStore, users UserStore, catalog Catalog, dailyPuzzles, dailyChallenges int, log *logger.Logger) *RotationService {
	return &RotationService{
		puzzles:         puzzles,
		challenges:      challenges,
		users:           users,
		catalog:         catalog,
		dailyPuzzles:    dailyPuzzles,
		dailyChallenges: dailyChallenges,
		log:             log.With("service", "RotationService"),
	}
}

// SelectNewDailySet clears the previous daily flags and per-day tracking,
// then samples a new daily set of puzzles and challenges.
func (s *RotationService) SelectNewDailySet(ctx context.Context, now time.Time) error {
	if err := s.puzzles.ClearDaily(ctx); err != nil {
		return fmt.Errorf("clear daily puzzles: %w", err)
	}
	if err := s.challenges.ClearDaily(ctx); err != nil {
		return fmt.Errorf("clear daily challenges: %w", err)
	}
	np, err := s.puzzles.SampleDaily(ctx, s.dailyPuzzles)
	if err != nil {
		return fmt.Errorf("sample daily puzzles: %w", err)
	}
	nc, err := s.challenges.SampleDaily(ctx, s.dailyChallenges)
	if err != nil {
		return fmt.Errorf("sample daily challenges: %w", err)
	}
	s.catalog.InvalidateChallenges(ctx)
	s.log.Info("daily set rotated", "puzzles", np, "challenges", nc, "at", now)
	return nil
}

// RolloverDayBoundary resets today's statistics and daily challenge progress
// for users in timezone whose last reset precedes the local midnight. Users
// already reset are untouched, so repeated calls are harmless.
func (s *RotationService) RolloverDayBoundary(ctx context.Context, timezone string, now time.Time) (int64, error) {
	boundary := stats.LocalMidnight(now, stats.Location(timezone))
	n, err := s.users.ResetTodayStats(ctx, timezone, boundary, now)
	if err != nil {
		return 0, fmt.Errorf("reset today stats for %q: %w", timezone, err)
	}
	if err := s.challenges.ResetProgressForTimezone(ctx, timezone, boundary); err != nil {
		return n, fmt.Errorf("reset challenge progress for %q: %w", timezone, err)
	}
	if n > 0 {
		s.log.Info("day rolled over", "timezone", timezone, "users", n)
	}
	return n, nil
}

// RolloverAll runs RolloverDayBoundary for every timezone in use. One
// failing timezone does not stop the others.
func (s *RotationService) RolloverAll(ctx context.Context, now time.Time) error {
	zones, err := s.users.DistinctTimezones(ctx)
	if err != nil {
		return fmt.Errorf("list timezones: %w", err)
	}
	var errs []error
	for _, tz := range zones {
		if _, err := s.RolloverDayBoundary(ctx, tz, now); err != nil {
			s.log.Warn("rollover failed", "timezone", tz, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
