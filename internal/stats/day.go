package stats

import (
	"sync"
	"time"

	"brainquest/models"
)

var (
	locMu    sync.RWMutex
	locCache = map[string]*time.Location{}
)

// Location resolves an IANA timezone name, falling back to UTC for empty or
// unknown names.
func Location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	locMu.RLock()
	loc, ok := locCache[name]
	locMu.RUnlock()
	if ok {
		return loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}
	locMu.Lock()
	locCache[name] = loc
	locMu.Unlock()
	return loc
}

// ValidTimezone reports whether name is a loadable IANA timezone.
func ValidTimezone(name string) bool {
	if name == "" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// LocalMidnight returns the start of now's calendar day in loc.
func LocalMidnight(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// NeedsDayReset reports whether lastChecked precedes the most recent local
// midnight.
func NeedsDayReset(lastChecked, now time.Time, loc *time.Location) bool {
	return lastChecked.Before(LocalMidnight(now, loc))
}

// RollDay resets todayStats once per local day. Calling it again on the same
// day is a no-op.
func RollDay(u *models.User, now time.Time) bool {
	loc := Location(u.CheckNewDay.Timezone)
	if !NeedsDayReset(u.CheckNewDay.LastChecked, now, loc) {
		return false
	}
	u.TodayStats = NewTodayStats()
	u.CheckNewDay.LastChecked = now
	return true
}

// DaysBetween counts local calendar days from a to b.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	ma := LocalMidnight(a, loc)
	mb := LocalMidnight(b, loc)
	ya, mo, da := ma.Date()
	yb, mob, db := mb.Date()
	// compare as UTC dates to stay clear of DST-length days
	ua := time.Date(ya, mo, da, 0, 0, 0, 0, time.UTC)
	ub := time.Date(yb, mob, db, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
