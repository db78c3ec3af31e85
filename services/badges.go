package services

import (
	"context"
	"fmt"
	"time"

	"brainquest/internal/logger"
	"brainquest/internal/stats"
	"brainquest/models"
)

// BadgeCondition is the parsed form of a badge's condition key.
type BadgeCondition int

const (
	BadgeUnknown BadgeCondition = iota
	BadgeBrainSpark
	BadgeLogicMaster
	BadgeEarlyBird
	BadgeNightOwl
	BadgeHotStreak
	BadgeBraniac
	BadgeMaster
)

const (
	logicMasterSolved  = 20
	earlyBirdBefore    = 9
	nightOwlFrom       = 23
	hotStreakDays      = 7
	braniacDailyPoints = 5000
	masterPoints       = 100000
)

// ParseBadgeCondition maps a catalog condition key to its predicate.
// Unknown keys return false and are never awarded.
func ParseBadgeCondition(key string) (BadgeCondition, bool) {
	switch key {
	case "brain_spark":
		return BadgeBrainSpark, true
	case "logic_master":
		return BadgeLogicMaster, true
	case "early_bird":
		return BadgeEarlyBird, true
	case "night_owl":
		return BadgeNightOwl, true
	case "hot_streak":
		return BadgeHotStreak, true
	case "braniac":
		return BadgeBraniac, true
	case "master":
		return BadgeMaster, true
	}
	return BadgeUnknown, false
}

// Met evaluates the predicate against the user's statistics. localNow is the
// evaluation time in the user's timezone.
func (c BadgeCondition) Met(u *models.User, localNow time.Time) bool {
	switch c {
	case BadgeBrainSpark:
		return u.Puzzles.Correct >= 1
	case BadgeLogicMaster:
		label := models.CategoryLogic.Label()
		for _, e := range u.PuzzleCategoryData {
			if e.Label == label {
				return e.Value >= logicMasterSolved
			}
		}
		return false
	case BadgeEarlyBird:
		return localNow.Hour() < earlyBirdBefore
	case BadgeNightOwl:
		return localNow.Hour() >= nightOwlFrom
	case BadgeHotStreak:
		return u.Streak >= hotStreakDays
	case BadgeBraniac:
		return u.TodayStats.Points >= braniacDailyPoints
	case BadgeMaster:
		return u.Points >= masterPoints
	}
	return false
}

// BadgeService awards catalog badges whose condition holds.
type BadgeService struct {
	users   UserStore
	catalog Catalog
	events  EventPublisher
	log     *logger.Logger
}

func NewBadgeService(users UserStore, catalog Catalog, events EventPublisher, log *logger.Logger) *BadgeService {
	if events == nil {
		events = nopPublisher{}
	}
	return &BadgeService{users: users, catalog: catalog, events: events, log: log.With("service", "BadgeService")}
}

func (s *BadgeService) Name() string { return "badges" }

// Evaluate awards every not-yet-earned badge whose condition holds. The
// write is a set-union so concurrent evaluations never duplicate a badge.
func (s *BadgeService) Evaluate(ctx context.Context, userID string, now time.Time) error {
	badges, err := s.catalog.Badges(ctx)
	if err != nil {
		return fmt.Errorf("load badge catalog: %w", err)
	}
	u, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", userID, err)
	}
	localNow := now.In(stats.Location(u.CheckNewDay.Timezone))

	var earned []string
	for _, b := range badges {
		cond, ok := ParseBadgeCondition(b.Condition)
		if !ok {
			continue
		}
		id := b.ID.Hex()
		if u.HasBadge(id) || !cond.Met(u, localNow) {
			continue
		}
		earned = append(earned, id)
	}
	if len(earned) == 0 {
		return nil
	}
	if err := s.users.AddBadges(ctx, userID, earned); err != nil {
		return fmt.Errorf("award badges to %s: %w", userID, err)
	}
	s.log.Info("badges awarded", "user_id", userID, "badges", earned)
	s.events.Publish(models.GamificationEvent{
		Type:      "badge_awarded",
		UserID:    userID,
		BadgeIDs:  earned,
		Timestamp: now,
	})
	return nil
}
