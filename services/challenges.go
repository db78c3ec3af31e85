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

// ChallengeCondition is the parsed form of a challenge's condition key.
type ChallengeCondition int

const (
	ChallengeUnknown ChallengeCondition = iota
	ChallengeThinkOutsideTheBox
	ChallengePowerSession
)

func ParseChallengeCondition(key string) (ChallengeCondition, bool) {
	switch key {
	case "think_outside_the_box":
		return ChallengeThinkOutsideTheBox, true
	case "power_session":
		return ChallengePowerSession, true
	}
	return ChallengeUnknown, false
}

// DefaultTarget is used when a challenge document carries no final value.
func (c ChallengeCondition) DefaultTarget() int {
	switch c {
	case ChallengeThinkOutsideTheBox:
		return 3
	case ChallengePowerSession:
		return 1000
	}
	return 0
}

// ChallengeService tracks per-user progress on the active daily challenges.
type ChallengeService struct {
	challenges ChallengeStore
	users      UserStore
	sessions   SessionStore
	catalog    Catalog
	points     PointsAwarder
	events     EventPublisher
	log        *logger.Logger
}

func NewChallengeService(challenges ChallengeStore, users UserStore, sessions SessionStore, catalog Catalog, points PointsAwarder, events EventPublisher, log *logger.Logger) *ChallengeService {
	if events == nil {
		events = nopPublisher{}
	}
	return &ChallengeService{
		challenges: challenges,
		users:      users,
		sessions:   sessions,
		catalog:    catalog,
		points:     points,
		events:     events,
		log:        log.With("service", "ChallengeService"),
	}
}

func (s *ChallengeService) Name() string { return "challenges" }

// Evaluate recomputes the user's progress on every daily challenge and
// awards the reward on the single transition to completed.
func (s *ChallengeService) Evaluate(ctx context.Context, userID string, now time.Time) error {
	daily, err := s.catalog.DailyChallenges(ctx)
	if err != nil {
		return fmt.Errorf("load daily challenges: %w", err)
	}
	if len(daily) == 0 {
		return nil
	}
	u, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", userID, err)
	}

	var errs []error
	for _, ch := range daily {
		cond, ok := ParseChallengeCondition(ch.Condition)
		if !ok {
			continue
		}
		if err := s.evaluateOne(ctx, ch, cond, u, now); err != nil {
			errs = append(errs, fmt.Errorf("challenge %s: %w", ch.ID.Hex(), err))
		}
	}
	return errors.Join(errs...)
}

func (s *ChallengeService) evaluateOne(ctx context.Context, ch models.Challenge, cond ChallengeCondition, u *models.User, now time.Time) error {
	progress, err := s.measure(ctx, cond, u, now)
	if err != nil {
		return err
	}
	target := ch.Final
	if target <= 0 {
		target = cond.DefaultTarget()
	}
	completed := progress >= target
	if progress > target {
		progress = target
	}
	if progress <= 0 && !completed {
		return nil
	}

	transitioned, err := s.challenges.RecordProgress(ctx, ch.ID, models.UserProgress{
		User:        u.UserID,
		Progress:    progress,
		IsCompleted: completed,
		Timezone:    u.CheckNewDay.Timezone,
		UpdatedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("record progress: %w", err)
	}
	if !transitioned {
		return nil
	}

	s.log.Info("challenge completed", "user_id", u.UserID, "challenge", ch.Title, "reward", ch.Reward)
	if ch.Reward > 0 {
		if err := s.points.AddPoints(ctx, u.UserID, ch.Reward); err != nil {
			return fmt.Errorf("award reward: %w", err)
		}
	}
	s.events.Publish(models.GamificationEvent{
		Type:      "challenge_completed",
		UserID:    u.UserID,
		Challenge: ch.Title,
		Points:    ch.Reward,
		Timestamp: now,
	})
	return nil
}

func (s *ChallengeService) measure(ctx context.Context, cond ChallengeCondition, u *models.User, now time.Time) (int, error) {
	loc := stats.Location(u.CheckNewDay.Timezone)
	switch cond {
	case ChallengeThinkOutsideTheBox:
		if stats.NeedsDayReset(u.CheckNewDay.LastChecked, now, loc) {
			return 0, nil
		}
		return u.TodayStats.Categories[models.CategoryLateral].Correct, nil
	case ChallengePowerSession:
		best, ok, err := s.sessions.BestPointsSince(ctx, u.UserID, stats.LocalMidnight(now, loc))
		if err != nil {
			return 0, fmt.Errorf("best session: %w", err)
		}
		if !ok {
			return 0, nil
		}
		return best, nil
	}
	return 0, nil
}
