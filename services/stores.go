package services

import (
	"context"
	"time"

	"brainquest/internal/stats"
	"brainquest/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore is the slice of the users collection the progress pipeline needs.
type UserStore interface {
	FindUser(ctx context.Context, userID string) (*models.User, error)
	// SaveStats writes the statistics fields of u when u.Version still
	// matches the stored document, and bumps the version. A mismatch returns
	// models.ErrVersionConflict.
	SaveStats(ctx context.Context, u *models.User) error
	SetLevel(ctx context.Context, userID string, level models.Level) error
	AddBadges(ctx context.Context, userID string, badgeIDs []string) error
	SetStreak(ctx context.Context, userID string, streak int, lastLogged time.Time) error
	ResetTodayStats(ctx context.Context, timezone string, boundary, now time.Time) (int64, error)
	DistinctTimezones(ctx context.Context) ([]string, error)
}

type PuzzleStore interface {
	FindPuzzle(ctx context.Context, id primitive.ObjectID) (*models.Puzzle, error)
	// RecordAttempt adds the user to the puzzle's attempt set unless already
	// present. It reports whether this call made the claim.
	RecordAttempt(ctx context.Context, id primitive.ObjectID, userID string, daily, correct bool) (bool, error)
	ClearDaily(ctx context.Context) error
	SampleDaily(ctx context.Context, n int) (int, error)
}

type ChallengeStore interface {
	// RecordProgress upserts the user's entry on a challenge. It reports true
	// only when this call moved the entry from not completed to completed.
	RecordProgress(ctx context.Context, challengeID primitive.ObjectID, entry models.UserProgress) (bool, error)
	ResetProgressForTimezone(ctx context.Context, timezone string, boundary time.Time) error
	ClearDaily(ctx context.Context) error
	SampleDaily(ctx context.Context, n int) (int, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, s *models.TrainingSession) error
	// BestPointsSince returns the highest pointsEarned among the user's
	// sessions created at or after since; ok is false when there are none.
	BestPointsSince(ctx context.Context, userID string, since time.Time) (best int, ok bool, err error)
}

// Catalog serves the read-mostly badge and daily challenge definitions.
type Catalog interface {
	Badges(ctx context.Context) ([]models.Badge, error)
	DailyChallenges(ctx context.Context) ([]models.Challenge, error)
	InvalidateChallenges(ctx context.Context)
}

// EventPublisher pushes gamification events to connected clients.
type EventPublisher interface {
	Publish(event models.GamificationEvent)
}

// ProgressApplier is the entry point of the progress pipeline.
type ProgressApplier interface {
	ApplyProgress(ctx context.Context, userID string, d stats.Delta) (*models.User, error)
}

// PointsAwarder grants bonus points through the progress pipeline.
type PointsAwarder interface {
	AddPoints(ctx context.Context, userID string, points int) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(models.GamificationEvent) {}
