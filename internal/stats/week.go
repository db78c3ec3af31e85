package stats

import (
	"time"

	"brainquest/models"
)

// WeekdayIndex maps a weekday to its bucket position: Monday is 0, Sunday 6.
// Every bucket read and write goes through this mapping.
func WeekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// PuzzleEntryIndex is the position of the correct (or incorrect) entry for
// weekday index i inside a puzzle bucket.
func PuzzleEntryIndex(i int, correct bool) int {
	if correct {
		return 2 * i
	}
	return 2*i + 1
}

// EndOfWeek returns 23:59:59.999 local time of the upcoming Sunday, or of
// today when now is already Sunday.
func EndOfWeek(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	daysTill := (7 - int(local.Weekday())) % 7
	y, m, d := local.AddDate(0, 0, daysTill).Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
}

// currentBucket returns the latest bucket when it still covers now.
func currentBucket(list []models.WeekBucket, now time.Time) (*models.WeekBucket, bool) {
	if len(list) == 0 {
		return nil, false
	}
	last := &list[len(list)-1]
	if now.After(last.To) {
		return nil, false
	}
	return last, true
}

// EnsureCurrentWeek appends a fresh zeroed bucket to each weekly list whose
// latest bucket has expired. Older buckets are left untouched. It reports
// whether anything was appended.
func EnsureCurrentWeek(u *models.User, now time.Time) bool {
	loc := Location(u.CheckNewDay.Timezone)
	end := EndOfWeek(now, loc)
	rolled := false
	if _, ok := currentBucket(u.WeekPuzzles, now); !ok {
		u.WeekPuzzles = append(u.WeekPuzzles, NewWeekBucket(now, end, NewPuzzleWeekData()))
		rolled = true
	}
	if _, ok := currentBucket(u.WeekPoints, now); !ok {
		u.WeekPoints = append(u.WeekPoints, NewWeekBucket(now, end, NewWeekData()))
		rolled = true
	}
	if _, ok := currentBucket(u.WeekTimeSpent, now); !ok {
		u.WeekTimeSpent = append(u.WeekTimeSpent, NewWeekBucket(now, end, NewWeekData()))
		rolled = true
	}
	return rolled
}

// BucketTotal sums every entry of a bucket.
func BucketTotal(b models.WeekBucket) float64 {
	var total float64
	for _, e := range b.Data {
		total += e.Value
	}
	return total
}
