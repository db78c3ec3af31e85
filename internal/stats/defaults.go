// Package stats holds the zero-state factories, level table and the pure
// bookkeeping behind a user's denormalized statistics: day and week buckets,
// category breakdown and progress deltas.
package stats

import (
	"time"

	"brainquest/models"
)

const (
	DefaultPuzzleGoal = 50
	DefaultPointsGoal = 500
	DefaultTimezone   = "UTC"
)

var weekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

var categoryColors = map[models.Category]string{
	models.CategoryLogic:    "#4F46E5",
	models.CategoryMath:     "#10B981",
	models.CategoryWordplay: "#F59E0B",
	models.CategoryLateral:  "#EF4444",
	models.CategoryPatterns: "#3B82F6",
	models.CategoryClassic:  "#8B5CF6",
	models.CategoryTrivia:   "#06B6D4",
}

// NewTodayStats returns a zeroed today snapshot with every category present.
func NewTodayStats() models.TodayStats {
	categories := make(map[models.Category]models.PuzzleCount, 7)
	for _, c := range models.Categories() {
		categories[c] = models.PuzzleCount{}
	}
	return models.TodayStats{Categories: categories}
}

// NewCategoryData returns the 7 zeroed category entries in display order.
func NewCategoryData() []models.CategoryData {
	out := make([]models.CategoryData, 0, 7)
	for i, c := range models.Categories() {
		out = append(out, models.CategoryData{
			Label:   c.Label(),
			Text:    "0%",
			Color:   categoryColors[c],
			Focused: i == 0,
		})
	}
	return out
}

// NewWeekData returns one zeroed entry per weekday, Monday first.
func NewWeekData() []models.ChartEntry {
	out := make([]models.ChartEntry, 0, 7)
	for _, l := range weekdayLabels {
		out = append(out, models.ChartEntry{Label: l})
	}
	return out
}

// NewPuzzleWeekData returns two zeroed entries per weekday: correct at
// PuzzleEntryIndex(i, true), incorrect right after it.
func NewPuzzleWeekData() []models.ChartEntry {
	out := make([]models.ChartEntry, 0, 14)
	for _, l := range weekdayLabels {
		out = append(out,
			models.ChartEntry{Label: l, Kind: models.EntryCorrect},
			models.ChartEntry{Label: l, Kind: models.EntryIncorrect},
		)
	}
	return out
}

// NewWeekBucket builds a bucket for [from, to] with its own copy of data.
func NewWeekBucket(from, to time.Time, data []models.ChartEntry) models.WeekBucket {
	cp := make([]models.ChartEntry, len(data))
	copy(cp, data)
	return models.WeekBucket{From: from, To: to, Data: cp}
}

// NewUser builds the document stored for a first-time user.
func NewUser(userID, name, timezone string, now time.Time) *models.User {
	if _, err := time.LoadLocation(timezone); err != nil || timezone == "" {
		timezone = DefaultTimezone
	}
	loc := Location(timezone)
	end := EndOfWeek(now, loc)
	return &models.User{
		UserID:             userID,
		Name:               name,
		EnableLeaderboard:  true,
		PuzzleGoal:         DefaultPuzzleGoal,
		PointsGoal:         DefaultPointsGoal,
		TodayStats:         NewTodayStats(),
		Level:              Levels()[0],
		LastLogged:         now.Add(-24 * time.Hour),
		WeekPuzzles:        []models.WeekBucket{NewWeekBucket(now, end, NewPuzzleWeekData())},
		WeekPoints:         []models.WeekBucket{NewWeekBucket(now, end, NewWeekData())},
		WeekTimeSpent:      []models.WeekBucket{NewWeekBucket(now, end, NewWeekData())},
		PuzzleCategoryData: NewCategoryData(),
		BadgesEarned:       []string{},
		CheckNewDay:        models.DayCheck{Timezone: timezone, LastChecked: now},
		CreatedAt:          now,
	}
}
