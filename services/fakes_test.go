package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"brainquest/internal/stats"
	"brainquest/models"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// cloneUser round-trips through BSON so callers never share state with the
// stored copy, the same way a real document store behaves.
func cloneUser(t testing.TB, u *models.User) *models.User {
	raw, err := bson.Marshal(u)
	require.NoError(t, err)
	var out models.User
	require.NoError(t, bson.Unmarshal(raw, &out))
	return &out
}

type fakeUserStore struct {
	t  testing.TB
	mu sync.Mutex

	users map[string]*models.User
	// conflicts makes the next N SaveStats calls fail with a version conflict
	conflicts int
	saves     int
}

func newFakeUserStore(t testing.TB, users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{t: t, users: map[string]*models.User{}}
	for _, u := range users {
		s.users[u.UserID] = cloneUser(t, u)
	}
	return s
}

func (s *fakeUserStore) get(userID string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUser(s.t, s.users[userID])
}

func (s *fakeUserStore) FindUser(_ context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneUser(s.t, u), nil
}

func (s *fakeUserStore) SaveStats(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflicts > 0 {
		s.conflicts--
		return models.ErrVersionConflict
	}
	stored, ok := s.users[u.UserID]
	if !ok {
		return models.ErrNotFound
	}
	if stored.Version != u.Version {
		return models.ErrVersionConflict
	}
	next := cloneUser(s.t, u)
	next.Version++
	// only the statistics fields are written
	next.Level = stored.Level
	next.BadgesEarned = stored.BadgesEarned
	next.Streak = stored.Streak
	next.LastLogged = stored.LastLogged
	s.users[u.UserID] = next
	s.saves++
	return nil
}

func (s *fakeUserStore) SetLevel(_ context.Context, userID string, level models.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.ErrNotFound
	}
	u.Level = level
	return nil
}

func (s *fakeUserStore) AddBadges(_ context.Context, userID string, badgeIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.ErrNotFound
	}
	for _, id := range badgeIDs {
		if !u.HasBadge(id) {
			u.BadgesEarned = append(u.BadgesEarned, id)
		}
	}
	return nil
}

func (s *fakeUserStore) SetStreak(_ context.Context, userID string, streak int, lastLogged time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.ErrNotFound
	}
	u.Streak = streak
	u.LastLogged = lastLogged
	return nil
}

func (s *fakeUserStore) ResetTodayStats(_ context.Context, timezone string, boundary, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		if u.CheckNewDay.Timezone != timezone || !u.CheckNewDay.LastChecked.Before(boundary) {
			continue
		}
		u.TodayStats = stats.NewTodayStats()
		u.CheckNewDay.LastChecked = now
		u.Version++
		n++
	}
	return n, nil
}

func (s *fakeUserStore) DistinctTimezones(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, u := range s.users {
		if !seen[u.CheckNewDay.Timezone] {
			seen[u.CheckNewDay.Timezone] = true
			out = append(out, u.CheckNewDay.Timezone)
		}
	}
	return out, nil
}

type fakeCatalog struct {
	badges      []models.Badge
	challenges  []models.Challenge
	invalidated int
}

func (c *fakeCatalog) Badges(context.Context) ([]models.Badge, error) { return c.badges, nil }
func (c *fakeCatalog) DailyChallenges(context.Context) ([]models.Challenge, error) {
	return c.challenges, nil
}
func (c *fakeCatalog) InvalidateChallenges(context.Context) { c.invalidated++ }

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.GamificationEvent
}

func (p *recordingPublisher) Publish(e models.GamificationEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) ofType(kind string) []models.GamificationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.GamificationEvent
	for _, e := range p.events {
		if e.Type == kind {
			out = append(out, e)
		}
	}
	return out
}

type attempt struct {
	userID  string
	daily   bool
	correct bool
}

type fakePuzzleStore struct {
	mu       sync.Mutex
	puzzles  map[primitive.ObjectID]*models.Puzzle
	attempts []attempt
	cleared  int
	sampled  int
}

func newFakePuzzleStore(puzzles ...*models.Puzzle) *fakePuzzleStore {
	s := &fakePuzzleStore{puzzles: map[primitive.ObjectID]*models.Puzzle{}}
	for _, p := range puzzles {
		s.puzzles[p.ID] = p
	}
	return s
}

func (s *fakePuzzleStore) FindPuzzle(_ context.Context, id primitive.ObjectID) (*models.Puzzle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.puzzles[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// RecordAttempt mirrors the store's conditional claim: a user already in
// the attempt set is not added again and the claim reports false.
func (s *fakePuzzleStore) RecordAttempt(_ context.Context, id primitive.ObjectID, userID string, daily, correct bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.puzzles[id]
	if !ok {
		return false, nil
	}
	if p.HasAttempted(userID, daily) {
		return false, nil
	}
	if daily {
		p.DailyAttempts = append(p.DailyAttempts, userID)
	} else {
		p.Attempts = append(p.Attempts, userID)
	}
	s.attempts = append(s.attempts, attempt{userID: userID, daily: daily, correct: correct})
	return true, nil
}

func (s *fakePuzzleStore) ClearDaily(context.Context) error { s.cleared++; return nil }
func (s *fakePuzzleStore) SampleDaily(_ context.Context, n int) (int, error) {
	s.sampled = n
	return n, nil
}

type fakeChallengeStore struct {
	mu      sync.Mutex
	entries map[primitive.ObjectID]map[string]models.UserProgress
	cleared int
	sampled int
	resets  []string
}

func newFakeChallengeStore() *fakeChallengeStore {
	return &fakeChallengeStore{entries: map[primitive.ObjectID]map[string]models.UserProgress{}}
}

func (s *fakeChallengeStore) RecordProgress(_ context.Context, id primitive.ObjectID, entry models.UserProgress) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, ok := s.entries[id]
	if !ok {
		users = map[string]models.UserProgress{}
		s.entries[id] = users
	}
	prev, existed := users[entry.User]
	if existed && prev.IsCompleted {
		return false, nil
	}
	users[entry.User] = entry
	return entry.IsCompleted, nil
}

func (s *fakeChallengeStore) entry(id primitive.ObjectID, userID string) (models.UserProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id][userID]
	return e, ok
}

func (s *fakeChallengeStore) ResetProgressForTimezone(_ context.Context, timezone string, boundary time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets = append(s.resets, timezone)
	for _, users := range s.entries {
		for id, e := range users {
			if e.Timezone == timezone && e.UpdatedAt.Before(boundary) {
				e.Progress = 0
				e.IsCompleted = false
				users[id] = e
			}
		}
	}
	return nil
}

func (s *fakeChallengeStore) ClearDaily(context.Context) error { s.cleared++; return nil }
func (s *fakeChallengeStore) SampleDaily(_ context.Context, n int) (int, error) {
	s.sampled = n
	return n, nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions []models.TrainingSession
}

func (s *fakeSessionStore) CreateSession(_ context.Context, ts *models.TrainingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts.ID = primitive.NewObjectID()
	s.sessions = append(s.sessions, *ts)
	return nil
}

func (s *fakeSessionStore) BestPointsSince(_ context.Context, userID string, since time.Time) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	best, ok := 0, false
	for _, ts := range s.sessions {
		if ts.User != userID || ts.CreatedAt.Before(since) {
			continue
		}
		if !ok || ts.PointsEarned > best {
			best, ok = ts.PointsEarned, true
		}
	}
	return best, ok, nil
}

type fakeAwarder struct {
	mu     sync.Mutex
	awards map[string]int
}

func (a *fakeAwarder) AddPoints(_ context.Context, userID string, points int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.awards == nil {
		a.awards = map[string]int{}
	}
	a.awards[userID] += points
	return nil
}

type fakeProgress struct {
	mu     sync.Mutex
	deltas []stats.Delta
}

func (p *fakeProgress) ApplyProgress(_ context.Context, userID string, d stats.Delta) (*models.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deltas = append(p.deltas, d)
	return &models.User{UserID: userID}, nil
}

type fakeVerifier struct {
	correct bool
	err     error
	calls   int
}

func (v *fakeVerifier) Verify(ctx context.Context, _ PuzzleContext, _, _ string) (bool, error) {
	v.calls++
	if v.err != nil {
		return false, v.err
	}
	return v.correct, ctx.Err()
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
