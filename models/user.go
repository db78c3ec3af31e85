package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PuzzleCount pairs correct and incorrect answers
type PuzzleCount struct {
	Correct   int `bson:"correct" json:"correct"`
	Incorrect int `bson:"incorrect" json:"incorrect"`
}

// TodayStats is the "today" snapshot, reset at the user's local midnight
type TodayStats struct {
	Puzzles    PuzzleCount              `bson:"puzzles" json:"puzzles"`
	Points     int                      `bson:"points" json:"points"`
	TimeSpent  float64                  `bson:"timeSpent" json:"timeSpent"`
	Categories map[Category]PuzzleCount `bson:"categories" json:"categories"`
}

// Level is a denormalized copy of a level tier
type Level struct {
	Level         int    `bson:"level" json:"level"`
	Title         string `bson:"title" json:"title"`
	PointsNeeded  int    `bson:"pointsNeeded" json:"pointsNeeded"`
	PuzzlesNeeded int    `bson:"puzzlesNeeded" json:"puzzlesNeeded"`
	Icon          string `bson:"icon" json:"icon"`
	Color         string `bson:"color" json:"color"`
}

// ChartEntry is one day-entry of a weekly bucket. Puzzle buckets carry two
// entries per weekday, distinguished by Kind.
type ChartEntry struct {
	Value float64 `bson:"value" json:"value"`
	Label string  `bson:"label" json:"label"`
	Kind  string  `bson:"kind,omitempty" json:"kind,omitempty"`
}

const (
	EntryCorrect   = "correct"
	EntryIncorrect = "incorrect"
)

// WeekBucket holds one running total per day for the window [From, To]
type WeekBucket struct {
	From time.Time    `bson:"from" json:"from"`
	To   time.Time    `bson:"to" json:"to"`
	Data []ChartEntry `bson:"data" json:"data"`
}

// Covers reports whether t falls inside the bucket window
func (b WeekBucket) Covers(t time.Time) bool {
	return !t.Before(b.From) && !t.After(b.To)
}

// CategoryData is the lifetime breakdown for one puzzle category
type CategoryData struct {
	Label     string  `bson:"label" json:"label"`
	Value     int     `bson:"value" json:"value"`
	Correct   int     `bson:"correct" json:"correct"`
	TimeSpent float64 `bson:"timeSpent" json:"timeSpent"`
	Text      string  `bson:"text" json:"text"`
	Color     string  `bson:"color" json:"color"`
	Focused   bool    `bson:"focused" json:"focused"`
}

// DayCheck carries the user's locale for day-boundary computation
type DayCheck struct {
	Timezone    string    `bson:"timezone" json:"timezone"`
	LastChecked time.Time `bson:"lastChecked" json:"lastChecked"`
}

// User is the denormalized per-user statistics document
type User struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID              string             `bson:"userId" json:"userId"`
	Name                string             `bson:"name" json:"name"`
	EnableNotifications bool               `bson:"enableNotifications" json:"enableNotifications"`
	EnableLeaderboard   bool               `bson:"enableLeaderboard" json:"enableLeaderboard"`
	PuzzleGoal          int                `bson:"puzzleGoal" json:"puzzleGoal"`
	PointsGoal          int                `bson:"pointsGoal" json:"pointsGoal"`

	Puzzles            PuzzleCount    `bson:"puzzles" json:"puzzles"`
	Points             int            `bson:"points" json:"points"`
	TimeSpent          float64        `bson:"timeSpent" json:"timeSpent"`
	TodayStats         TodayStats     `bson:"todayStats" json:"todayStats"`
	Level              Level          `bson:"level" json:"level"`
	Streak             int            `bson:"streak" json:"streak"`
	LastLogged         time.Time      `bson:"lastLogged" json:"lastLogged"`
	WeekPuzzles        []WeekBucket   `bson:"weekPuzzles" json:"weekPuzzles"`
	WeekPoints         []WeekBucket   `bson:"weekPoints" json:"weekPoints"`
	WeekTimeSpent      []WeekBucket   `bson:"weekTimeSpent" json:"weekTimeSpent"`
	PuzzleCategoryData []CategoryData `bson:"puzzleCategoryData" json:"puzzleCategoryData"`
	BadgesEarned       []string       `bson:"badgesEarned" json:"badgesEarned"`
	CheckNewDay        DayCheck       `bson:"checkNewDay" json:"checkNewDay"`

	// Version guards the statistics fields against lost updates
	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// HasBadge reports whether the badge id is already in the earned set
func (u *User) HasBadge(id string) bool {
	for _, b := range u.BadgesEarned {
		if b == id {
			return true
		}
	}
	return false
}

// LeaderboardEntry is the public projection of a user on the leaderboard
type LeaderboardEntry struct {
	UserID  string      `bson:"userId" json:"userId"`
	Name    string      `bson:"name" json:"name"`
	Points  int         `bson:"points" json:"points"`
	Puzzles PuzzleCount `bson:"puzzles" json:"puzzles"`
	Level   Level       `bson:"level" json:"level"`
}
