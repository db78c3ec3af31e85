package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is one of the fixed puzzle categories
type Category string

const (
	CategoryLogic    Category = "logic"
	CategoryMath     Category = "math"
	CategoryWordplay Category = "wordplay"
	CategoryLateral  Category = "lateral"
	CategoryPatterns Category = "patterns"
	CategoryClassic  Category = "classic"
	CategoryTrivia   Category = "trivia"
)

// Categories lists every category in display order
func Categories() []Category {
	return []Category{
		CategoryLogic,
		CategoryMath,
		CategoryWordplay,
		CategoryLateral,
		CategoryPatterns,
		CategoryClassic,
		CategoryTrivia,
	}
}

// ParseCategory accepts either the key ("logic") or the label ("Logic")
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories() {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Label is the display label stored in puzzleCategoryData
func (c Category) Label() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// Difficulty of a puzzle
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// PointsReference is the per-difficulty point multiplier
var PointsReference = map[Difficulty]int{
	DifficultyEasy:   1,
	DifficultyMedium: 2,
	DifficultyHard:   3,
}

// ParseDifficulty normalizes a difficulty string
func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	_, ok := PointsReference[d]
	return d, ok
}

// Creator identifies who posted a puzzle or comment
type Creator struct {
	ID           string `bson:"id" json:"id"`
	Name         string `bson:"name" json:"name"`
	ProfileImage string `bson:"profileImage" json:"profileImage"`
}

// PuzzleComment is an append-only comment on a puzzle
type PuzzleComment struct {
	Creator   Creator   `bson:"creator" json:"creator"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Image references an object in the media store
type Image struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"publicId" json:"publicId"`
}

// Puzzle is a user-created riddle
type Puzzle struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Question       string             `bson:"question" json:"question"`
	Answer         string             `bson:"answer" json:"answer"`
	Hint           string             `bson:"hint" json:"hint"`
	Category       Category           `bson:"category" json:"category"`
	Difficulty     Difficulty         `bson:"difficulty" json:"difficulty"`
	Creator        Creator            `bson:"creator" json:"creator"`
	Likes          []string           `bson:"likes" json:"likes"`
	Dislikes       []string           `bson:"dislikes" json:"dislikes"`
	Comments       []PuzzleComment    `bson:"comments" json:"comments"`
	Attempts       []string           `bson:"attempts" json:"attempts"`
	Successes      []string           `bson:"successes" json:"successes"`
	DailyAttempts  []string           `bson:"dailyAttempts" json:"dailyAttempts"`
	DailySuccesses []string           `bson:"dailySuccesses" json:"dailySuccesses"`
	Image          Image              `bson:"image" json:"image"`
	IsDaily        bool               `bson:"isDaily" json:"isDaily"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasAttempted reports whether the user already attempted the puzzle in the
// given mode (daily attempts are tracked apart from regular ones)
func (p *Puzzle) HasAttempted(userID string, daily bool) bool {
	set := p.Attempts
	if daily {
		set = p.DailyAttempts
	}
	for _, id := range set {
		if id == userID {
			return true
		}
	}
	return false
}

// PuzzleFilter narrows puzzle listings
type PuzzleFilter struct {
	CreatorID        string
	ExcludeCreatorID string
	Categories       []Category
	Difficulties     []Difficulty
	Search           string
}
