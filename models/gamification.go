package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Badge is a static catalog entry; Condition names the predicate that grants it
type Badge struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Icon        string             `bson:"icon" json:"icon"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Condition   string             `bson:"condition" json:"condition"`
}

// UserProgress is one user's progress on a challenge
type UserProgress struct {
	User        string    `bson:"user" json:"user"`
	Progress    int       `bson:"progress" json:"progress"`
	IsCompleted bool      `bson:"isCompleted" json:"isCompleted"`
	Timezone    string    `bson:"timezone,omitempty" json:"timezone,omitempty"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Challenge is a daily task with a point reward
type Challenge struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title         string             `bson:"title" json:"title"`
	Task          string             `bson:"task" json:"task"`
	Reward        int                `bson:"reward" json:"reward"`
	Final         int                `bson:"final" json:"final"`
	IsDaily       bool               `bson:"isDaily" json:"isDaily"`
	Condition     string             `bson:"condition" json:"condition"`
	UsersComplete []UserProgress     `bson:"usersComplete" json:"usersComplete"`
}

// ProgressFor returns the user's entry, if any
func (c *Challenge) ProgressFor(userID string) (UserProgress, bool) {
	for _, p := range c.UsersComplete {
		if p.User == userID {
			return p, true
		}
	}
	return UserProgress{}, false
}

// TrainingSession is an immutable record of one completed training run
type TrainingSession struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	User             string             `bson:"user" json:"user"`
	PointsEarned     int                `bson:"pointsEarned" json:"pointsEarned"`
	PuzzlesAttempted int                `bson:"puzzlesAttempted" json:"puzzlesAttempted"`
	PuzzlesSolved    int                `bson:"puzzlesSolved" json:"puzzlesSolved"`
	TimeLimit        string             `bson:"timeLimit" json:"timeLimit"`
	TimeTaken        string             `bson:"timeTaken" json:"timeTaken"`
	TimeTakenNumber  float64            `bson:"timeTakenNumber" json:"timeTakenNumber"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
}

// GamificationEvent is pushed to connected clients over the websocket hub
type GamificationEvent struct {
	Type      string    `json:"type"` // "progress_updated", "badge_awarded", "level_up", "challenge_completed"
	UserID    string    `json:"userId"`
	BadgeIDs  []string  `json:"badgeIds,omitempty"`
	Points    int       `json:"points,omitempty"`
	NewScore  int       `json:"newScore,omitempty"`
	Level     int       `json:"level,omitempty"`
	Challenge string    `json:"challenge,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
