package services

import (
	"context"
	"fmt"
	"time"

	"brainquest/internal/logger"
	"brainquest/internal/stats"
	"brainquest/models"
)

// LevelService keeps the denormalized level in step with points and solved
// puzzles.
type LevelService struct {
	users  UserStore
	events EventPublisher
	log    *logger.Logger
}

func NewLevelService(users UserStore, events EventPublisher, log *logger.Logger) *LevelService {
	if events == nil {
		events = nopPublisher{}
	}
	return &LevelService{users: users, events: events, log: log.With("service", "LevelService")}
}

func (s *LevelService) Name() string { return "level" }

func (s *LevelService) Evaluate(ctx context.Context, userID string, now time.Time) error {
	u, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", userID, err)
	}
	level := stats.LevelFor(u.Points, u.Puzzles.Correct)
	if level == u.Level {
		return nil
	}
	if err := s.users.SetLevel(ctx, userID, level); err != nil {
		return fmt.Errorf("set level for %s: %w", userID, err)
	}
	if level.Level > u.Level.Level {
		s.log.Info("level up", "user_id", userID, "level", level.Level)
		s.events.Publish(models.GamificationEvent{
			Type:      "level_up",
			UserID:    userID,
			Level:     level.Level,
			NewScore:  u.Points,
			Timestamp: now,
		})
	}
	return nil
}
