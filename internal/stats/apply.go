package stats

import (
	"fmt"
	"math"
	"time"

	"brainquest/models"
)

// CategoryOutcome is the result of one answered puzzle.
type CategoryOutcome struct {
	Category  models.Category `json:"category"`
	IsCorrect bool            `json:"isCorrect"`
	TimeSpent float64         `json:"timeTaken"`
}

// Delta is the set of increments produced by one answer or one training
// session.
type Delta struct {
	Correct    int
	Incorrect  int
	Points     int
	TimeSpent  float64
	Categories []CategoryOutcome
}

// Empty reports whether the delta changes nothing.
func (d Delta) Empty() bool {
	return d.Correct == 0 && d.Incorrect == 0 && d.Points == 0 && d.TimeSpent == 0 && len(d.Categories) == 0
}

// Apply adds d to every denormalized location of u: cumulative counters, the
// today snapshot, today's entry of the current weekly buckets and the
// category breakdown. The day is rolled and expired week buckets are
// replaced first so the increments land in the window that covers now.
func Apply(u *models.User, d Delta, now time.Time) {
	RollDay(u, now)
	EnsureCurrentWeek(u, now)

	u.Puzzles.Correct += d.Correct
	u.Puzzles.Incorrect += d.Incorrect
	u.Points += d.Points
	u.TimeSpent += d.TimeSpent

	if u.TodayStats.Categories == nil {
		u.TodayStats = NewTodayStats()
	}
	u.TodayStats.Puzzles.Correct += d.Correct
	u.TodayStats.Puzzles.Incorrect += d.Incorrect
	u.TodayStats.Points += d.Points
	u.TodayStats.TimeSpent += d.TimeSpent

	day := WeekdayIndex(now.In(Location(u.CheckNewDay.Timezone)).Weekday())
	addEntry(u.WeekPuzzles, PuzzleEntryIndex(day, true), float64(d.Correct))
	addEntry(u.WeekPuzzles, PuzzleEntryIndex(day, false), float64(d.Incorrect))
	addEntry(u.WeekPoints, day, float64(d.Points))
	addEntry(u.WeekTimeSpent, day, d.TimeSpent)

	if len(d.Categories) == 0 {
		return
	}
	if len(u.PuzzleCategoryData) == 0 {
		u.PuzzleCategoryData = NewCategoryData()
	}
	for _, o := range d.Categories {
		category, ok := models.ParseCategory(string(o.Category))
		if !ok {
			continue
		}
		tally := u.TodayStats.Categories[category]
		if o.IsCorrect {
			tally.Correct++
		} else {
			tally.Incorrect++
		}
		u.TodayStats.Categories[category] = tally

		label := category.Label()
		for i := range u.PuzzleCategoryData {
			entry := &u.PuzzleCategoryData[i]
			if entry.Label != label {
				continue
			}
			entry.Value++
			if o.IsCorrect {
				entry.Correct++
			}
			entry.TimeSpent += o.TimeSpent
			break
		}
	}
	RecomputePercentages(u.PuzzleCategoryData)
}

func addEntry(list []models.WeekBucket, idx int, v float64) {
	if v == 0 || len(list) == 0 {
		return
	}
	data := list[len(list)-1].Data
	if idx < 0 || idx >= len(data) {
		return
	}
	data[idx].Value += v
}

// RecomputePercentages rewrites each entry's text as its rounded share of
// the total value. A non-positive total is treated as 1.
func RecomputePercentages(data []models.CategoryData) {
	total := 0
	for _, e := range data {
		total += e.Value
	}
	if total <= 0 {
		total = 1
	}
	for i := range data {
		pct := math.Round(100 * float64(data[i].Value) / float64(total))
		data[i].Text = fmt.Sprintf("%d%%", int(pct))
	}
}
