package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"brainquest/internal/logger"
	"brainquest/internal/stats"
	"brainquest/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

type trainingFixture struct {
	svc      *TrainingService
	puzzles  *fakePuzzleStore
	sessions *fakeSessionStore
	verifier *fakeVerifier
	progress *fakeProgress
	puzzle   *models.Puzzle
}

func newTrainingFixture(verifier *fakeVerifier) *trainingFixture {
	puzzle := &models.Puzzle{
		ID:         objectID(42),
		Question:   "What has keys but can't open locks?",
		Answer:     "a piano",
		Category:   models.CategoryLateral,
		Difficulty: models.DifficultyMedium,
		Attempts:   []string{"veteran"},
	}
	f := &trainingFixture{
		puzzles:  newFakePuzzleStore(puzzle),
		sessions: &fakeSessionStore{},
		verifier: verifier,
		progress: &fakeProgress{},
		puzzle:   puzzle,
	}
	f.svc = NewTrainingService(f.puzzles, f.sessions, f.verifier, f.progress, logger.Nop())
	f.svc.now = fixedClock(wednesday)
	return f
}

func (f *trainingFixture) input() CheckAnswerInput {
	return CheckAnswerInput{
		Puzzle:     f.puzzle.Question,
		Response:   "piano",
		Answer:     f.puzzle.Answer,
		Difficulty: "medium",
		Category:   "lateral",
		PuzzleID:   f.puzzle.ID.Hex(),
		TimeTaken:  ptr(14),
	}
}

func TestPointsFor(t *testing.T) {
	assert.Equal(t, 15, PointsFor(models.DifficultyEasy, false))
	assert.Equal(t, 7, PointsFor(models.DifficultyEasy, true))
	assert.Equal(t, 30, PointsFor(models.DifficultyMedium, false))
	assert.Equal(t, 22, PointsFor(models.DifficultyHard, true))
	assert.Equal(t, 0, PointsFor("", false))
}

func TestCheckAnswerCorrectRecordsAttemptAndProgress(t *testing.T) {
	f := newTrainingFixture(&fakeVerifier{correct: true})

	res, err := f.svc.CheckAnswer(context.Background(), "user_1", f.input())
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, 30, res.PointsEarned)

	require.Len(t, f.puzzles.attempts, 1)
	assert.Equal(t, attempt{userID: "user_1", correct: true}, f.puzzles.attempts[0])
	require.Len(t, f.progress.deltas, 1)
	d := f.progress.deltas[0]
	assert.Equal(t, 1, d.Correct)
	assert.Equal(t, 30, d.Points)
	assert.Equal(t, float64(14), d.TimeSpent)
	assert.Equal(t, []stats.CategoryOutcome{{Category: models.CategoryLateral, IsCorrect: true, TimeSpent: 14}}, d.Categories)
}

func TestCheckAnswerIncorrectAwardsNothing(t *testing.T) {
	f := newTrainingFixture(&fakeVerifier{correct: false})
	in := f.input()
	in.IsDaily = true

	res, err := f.svc.CheckAnswer(context.Background(), "user_1", in)
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Zero(t, res.PointsEarned)
	assert.Equal(t, attempt{userID: "user_1", daily: true}, f.puzzles.attempts[0])
	assert.Equal(t, 1, f.progress.deltas[0].Incorrect)
}

func TestCheckAnswerVerifierFailureMutatesNothing(t *testing.T) {
	f := newTrainingFixture(&fakeVerifier{err: context.DeadlineExceeded})

	_, err := f.svc.CheckAnswer(context.Background(), "user_1", f.input())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnverifiable))
	assert.Empty(t, f.puzzles.attempts)
	assert.Empty(t, f.progress.deltas)
}

func TestCheckAnswerAlreadyAttemptedSkipsVerifier(t *testing.T) {
	f := newTrainingFixture(&fakeVerifier{correct: true})

	_, err := f.svc.CheckAnswer(context.Background(), "veteran", f.input())
	assert.True(t, errors.Is(err, ErrAlreadyAttempted))
	assert.Zero(t, f.verifier.calls)
	assert.Empty(t, f.puzzles.attempts)
}

// pairedVerifier holds every caller until n calls are in flight, so their
// checks of the puzzle snapshot all happen before any attempt is recorded.
type pairedVerifier struct {
	arrived sync.WaitGroup
}

func newPairedVerifier(n int) *pairedVerifier {
	v := &pairedVerifier{}
	v.arrived.Add(n)
	return v
}

func (v *pairedVerifier) Verify(context.Context, PuzzleContext, string, string) (bool, error) {
	v.arrived.Done()
	v.arrived.Wait()
	return true, nil
}

func TestConcurrentAttemptsEarnOnce(t *testing.T) {
	f := newTrainingFixture(&fakeVerifier{})
	f.svc = NewTrainingService(f.puzzles, f.sessions, newPairedVerifier(2), f.progress, logger.Nop())

	var wg sync.WaitGroup
	results := make([]CheckAnswerResult, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.CheckAnswer(context.Background(), "user_1", f.input())
		}(i)
	}
	wg.Wait()

	var earned, refused int
	for i := range errs {
		switch {
		case errs[i] == nil:
			earned++
			assert.Equal(t, 30, results[i].PointsEarned)
		case errors.Is(errs[i], ErrAlreadyAttempted):
			refused++
			assert.Zero(t, results[i].PointsEarned)
		default:
			t.Fatalf("unexpected error: %v", errs[i])
		}
	}
	assert.Equal(t, 1, earned)
	assert.Equal(t, 1, refused)
	assert.Len(t, f.puzzles.attempts, 1)
	require.Len(t, f.progress.deltas, 1)
	assert.Equal(t, 30, f.progress.deltas[0].Points)
}

func TestDailyAttemptsAreTrackedApart(t *testing.T) {
	f := newTrainingFixture(&fakeVerifier{correct: true})
	in := f.input()
	in.IsDaily = true

	_, err := f.svc.CheckAnswer(context.Background(), "veteran", in)
	require.NoError(t, err)
	assert.Equal(t, 1, f.verifier.calls)
}

func TestCheckAnswerWithoutPuzzleIDOnlyVerifies(t *testing.T) {
	f := newTrainingFixture(&fakeVerifier{correct: true})
	in := f.input()
	in.PuzzleID = ""

	res, err := f.svc.CheckAnswer(context.Background(), "user_1", in)
	require.NoError(t, err)
	assert.Equal(t, 30, res.PointsEarned)
	assert.Empty(t, f.puzzles.attempts)
	assert.Empty(t, f.progress.deltas)
}

func TestCheckAnswerNeedsFiniteTimeForProgress(t *testing.T) {
	for _, tt := range []*float64{nil, ptr(math.NaN()), ptr(math.Inf(1))} {
		f := newTrainingFixture(&fakeVerifier{correct: true})
		in := f.input()
		in.TimeTaken = tt

		_, err := f.svc.CheckAnswer(context.Background(), "user_1", in)
		require.NoError(t, err)
		assert.Len(t, f.puzzles.attempts, 1)
		assert.Empty(t, f.progress.deltas)
	}
}

func TestCheckAnswerValidation(t *testing.T) {
	f := newTrainingFixture(&fakeVerifier{correct: true})

	in := f.input()
	in.Response = "  "
	_, err := f.svc.CheckAnswer(context.Background(), "user_1", in)
	assert.ErrorIs(t, err, ErrMissingFields)

	in = f.input()
	in.PuzzleID = objectID(99).Hex()
	_, err = f.svc.CheckAnswer(context.Background(), "user_1", in)
	assert.ErrorIs(t, err, models.ErrNotFound)

	in = f.input()
	in.Difficulty = "legendary"
	_, err = f.svc.CheckAnswer(context.Background(), "user_1", in)
	assert.ErrorIs(t, err, ErrInvalidAnswer)

	in = f.input()
	in.Difficulty = ""
	_, err = f.svc.CheckAnswer(context.Background(), "user_1", in)
	assert.ErrorIs(t, err, ErrInvalidAnswer)

	in = f.input()
	in.TimeTaken = ptr(-5)
	_, err = f.svc.CheckAnswer(context.Background(), "user_1", in)
	assert.ErrorIs(t, err, ErrInvalidAnswer)
	assert.Empty(t, f.puzzles.attempts)
	assert.Empty(t, f.progress.deltas)

	in = f.input()
	in.PuzzleID = "not-an-id"
	_, err = f.svc.CheckAnswer(context.Background(), "user_1", in)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Zero(t, f.verifier.calls)
}

func TestSaveSessionAppliesAggregate(t *testing.T) {
	f := newTrainingFixture(&fakeVerifier{})

	session, err := f.svc.SaveSession(context.Background(), "user_1", SessionInput{
		PointsEarned:     75,
		PuzzlesAttempted: 4,
		PuzzlesSolved:    3,
		TimeLimit:        "5:00",
		TimeTaken:        "3:20",
		TimeTakenNumber:  200,
		Answers: []stats.CategoryOutcome{
			{Category: models.CategoryLogic, IsCorrect: true, TimeSpent: 40},
			{Category: models.CategoryMath, IsCorrect: false, TimeSpent: 60},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "user_1", session.User)
	assert.True(t, session.CreatedAt.Equal(wednesday))
	require.Len(t, f.sessions.sessions, 1)

	require.Len(t, f.progress.deltas, 1)
	d := f.progress.deltas[0]
	assert.Equal(t, 3, d.Correct)
	assert.Equal(t, 1, d.Incorrect)
	assert.Equal(t, 75, d.Points)
	assert.Equal(t, float64(200), d.TimeSpent)
	assert.Len(t, d.Categories, 2)
}

func TestSaveSessionRejectsInconsistentCounts(t *testing.T) {
	f := newTrainingFixture(&fakeVerifier{})
	_, err := f.svc.SaveSession(context.Background(), "user_1", SessionInput{PuzzlesAttempted: 2, PuzzlesSolved: 3})
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.Empty(t, f.sessions.sessions)
	assert.Empty(t, f.progress.deltas)
}
