package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brainquest/internal/logger"
	"brainquest/internal/stats"
	"brainquest/models"

	"golang.org/x/sync/errgroup"
)

const (
	maxSaveAttempts = 5
	followupTimeout = 10 * time.Second
)

// Followup is a recalculation triggered after every successful progress
// update. Followups run concurrently and a failing one never affects the
// others or the already saved statistics.
type Followup interface {
	Name() string
	Evaluate(ctx context.Context, userID string, now time.Time) error
}

// ProgressService applies answer outcomes to a user's denormalized
// statistics.
type ProgressService struct {
	users     UserStore
	events    EventPublisher
	log       *logger.Logger
	followups []Followup
	now       func() time.Time
}

func NewProgressService(users UserStore, events EventPublisher, log *logger.Logger) *ProgressService {
	if events == nil {
		events = nopPublisher{}
	}
	return &ProgressService{
		users:  users,
		events: events,
		log:    log.With("service", "ProgressService"),
		now:    time.Now,
	}
}

// RegisterFollowups adds recalculations run after each update.
func (s *ProgressService) RegisterFollowups(f ...Followup) {
	s.followups = append(s.followups, f...)
}

// ApplyProgress adds d to the user's cumulative, today, weekly and category
// statistics in one version-checked document write, retrying on concurrent
// modification, then runs the registered followups.
func (s *ProgressService) ApplyProgress(ctx context.Context, userID string, d stats.Delta) (*models.User, error) {
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		u, err := s.users.FindUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load user %s: %w", userID, err)
		}
		now := s.now()
		stats.Apply(u, d, now)

		err = s.users.SaveStats(ctx, u)
		if errors.Is(err, models.ErrVersionConflict) {
			s.log.Debug("progress save conflict, retrying", "user_id", userID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("save progress for %s: %w", userID, err)
		}

		s.events.Publish(models.GamificationEvent{
			Type:      "progress_updated",
			UserID:    userID,
			Points:    d.Points,
			NewScore:  u.Points,
			Timestamp: now,
		})
		s.runFollowups(ctx, userID, now)
		return u, nil
	}
	return nil, fmt.Errorf("save progress for %s after %d attempts: %w", userID, maxSaveAttempts, models.ErrVersionConflict)
}

// AddPoints credits bonus points through the same path as answers.
func (s *ProgressService) AddPoints(ctx context.Context, userID string, points int) error {
	_, err := s.ApplyProgress(ctx, userID, stats.Delta{Points: points})
	return err
}

func (s *ProgressService) runFollowups(ctx context.Context, userID string, now time.Time) {
	if len(s.followups) == 0 {
		return
	}
	// followups outlive a cancelled request; the statistics are already saved
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), followupTimeout)
	defer cancel()

	var g errgroup.Group
	for _, f := range s.followups {
		f := f
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%s panicked: %v", f.Name(), r)
				}
				if err != nil {
					s.log.Warn("progress followup failed", "followup", f.Name(), "user_id", userID, "error", err)
				}
			}()
			return f.Evaluate(fctx, userID, now)
		})
	}
	_ = g.Wait()
}
