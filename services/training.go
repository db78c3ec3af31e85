package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"brainquest/internal/logger"
	"brainquest/internal/stats"
	"brainquest/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const basePointsPerAnswer = 15

var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrAlreadyAttempted = errors.New("puzzle already attempted")
	ErrInvalidAnswer    = errors.New("invalid answer input")
	ErrInvalidSession   = errors.New("invalid training session")
)

// CheckAnswerInput is one answer submitted during training or on a puzzle
// page. PuzzleID and TimeTaken are optional.
type CheckAnswerInput struct {
	Puzzle     string
	Response   string
	Answer     string
	Difficulty string
	Category   string
	HintUsed   bool
	PuzzleID   string
	TimeTaken  *float64
	IsDaily    bool
}

type CheckAnswerResult struct {
	Correct      bool
	PointsEarned int
}

// PointsFor is the award for a correct answer at the given difficulty.
func PointsFor(difficulty models.Difficulty, hintUsed bool) int {
	points := models.PointsReference[difficulty] * basePointsPerAnswer
	if hintUsed {
		points /= 2
	}
	return points
}

// TrainingService orchestrates answer checking and training sessions.
type TrainingService struct {
	puzzles  PuzzleStore
	sessions SessionStore
	verifier AnswerVerifier
	progress ProgressApplier
	log      *logger.Logger
	now      func() time.Time
}

func NewTrainingService(puzzles PuzzleStore, sessions SessionStore, verifier AnswerVerifier, progress ProgressApplier, log *logger.Logger) *TrainingService {
	return &TrainingService{
		puzzles:  puzzles,
		sessions: sessions,
		verifier: verifier,
		progress: progress,
		log:      log.With("service", "TrainingService"),
		now:      time.Now,
	}
}

// CheckAnswer verifies a response and, for a stored puzzle, records the
// attempt and applies progress. Nothing is written unless verification
// succeeds. A repeated attempt returns ErrAlreadyAttempted without calling
// the verifier; of two concurrent attempts only the one that claims the
// attempt in the store earns progress.
func (s *TrainingService) CheckAnswer(ctx context.Context, userID string, in CheckAnswerInput) (CheckAnswerResult, error) {
	if strings.TrimSpace(in.Response) == "" || strings.TrimSpace(in.Answer) == "" {
		return CheckAnswerResult{}, ErrMissingFields
	}
	difficulty, ok := models.ParseDifficulty(in.Difficulty)
	if !ok {
		return CheckAnswerResult{}, fmt.Errorf("%w: difficulty %q", ErrInvalidAnswer, in.Difficulty)
	}
	if in.TimeTaken != nil && *in.TimeTaken < 0 {
		return CheckAnswerResult{}, fmt.Errorf("%w: negative time taken", ErrInvalidAnswer)
	}

	var (
		puzzle   *models.Puzzle
		puzzleID primitive.ObjectID
	)
	if in.PuzzleID != "" {
		id, err := primitive.ObjectIDFromHex(in.PuzzleID)
		if err != nil {
			return CheckAnswerResult{}, models.ErrNotFound
		}
		puzzleID = id
		puzzle, err = s.puzzles.FindPuzzle(ctx, puzzleID)
		if err != nil {
			return CheckAnswerResult{}, err
		}
		if puzzle.HasAttempted(userID, in.IsDaily) {
			return CheckAnswerResult{}, ErrAlreadyAttempted
		}
	}

	pc := PuzzleContext{Question: in.Puzzle, Category: in.Category, Difficulty: in.Difficulty}
	if puzzle != nil && pc.Question == "" {
		pc.Question = puzzle.Question
	}
	correct, err := s.verifier.Verify(ctx, pc, in.Response, in.Answer)
	if err != nil {
		s.log.Warn("answer verification failed", "user_id", userID, "puzzle_id", in.PuzzleID, "error", err)
		return CheckAnswerResult{}, fmt.Errorf("%w: %v", ErrUnverifiable, err)
	}

	result := CheckAnswerResult{Correct: correct}
	if correct {
		result.PointsEarned = PointsFor(difficulty, in.HintUsed)
	}

	if puzzle == nil {
		return result, nil
	}
	claimed, err := s.puzzles.RecordAttempt(ctx, puzzleID, userID, in.IsDaily, correct)
	if err != nil {
		return CheckAnswerResult{}, fmt.Errorf("record attempt: %w", err)
	}
	if !claimed {
		// a concurrent submission of the same puzzle got there first
		return CheckAnswerResult{}, ErrAlreadyAttempted
	}

	if in.TimeTaken == nil || math.IsNaN(*in.TimeTaken) || math.IsInf(*in.TimeTaken, 0) {
		return result, nil
	}
	d := stats.Delta{
		Points:    result.PointsEarned,
		TimeSpent: *in.TimeTaken,
		Categories: []stats.CategoryOutcome{{
			Category:  models.Category(in.Category),
			IsCorrect: correct,
			TimeSpent: *in.TimeTaken,
		}},
	}
	if correct {
		d.Correct = 1
	} else {
		d.Incorrect = 1
	}
	if _, err := s.progress.ApplyProgress(ctx, userID, d); err != nil {
		// the attempt is recorded; a later answer retries the statistics
		s.log.Error("apply progress failed", "user_id", userID, "puzzle_id", in.PuzzleID, "error", err)
	}
	return result, nil
}

// SessionInput is a completed training run.
type SessionInput struct {
	PointsEarned     int
	PuzzlesAttempted int
	PuzzlesSolved    int
	TimeLimit        string
	TimeTaken        string
	TimeTakenNumber  float64
	Answers          []stats.CategoryOutcome
}

// SaveSession stores the session and applies its aggregate to the user's
// statistics.
func (s *TrainingService) SaveSession(ctx context.Context, userID string, in SessionInput) (*models.TrainingSession, error) {
	if in.PuzzlesAttempted < 0 || in.PuzzlesSolved < 0 || in.PuzzlesSolved > in.PuzzlesAttempted || in.PointsEarned < 0 {
		return nil, ErrInvalidSession
	}
	if math.IsNaN(in.TimeTakenNumber) || math.IsInf(in.TimeTakenNumber, 0) || in.TimeTakenNumber < 0 {
		return nil, ErrInvalidSession
	}

	session := &models.TrainingSession{
		User:             userID,
		PointsEarned:     in.PointsEarned,
		PuzzlesAttempted: in.PuzzlesAttempted,
		PuzzlesSolved:    in.PuzzlesSolved,
		TimeLimit:        in.TimeLimit,
		TimeTaken:        in.TimeTaken,
		TimeTakenNumber:  in.TimeTakenNumber,
		CreatedAt:        s.now(),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	d := stats.Delta{
		Correct:    in.PuzzlesSolved,
		Incorrect:  in.PuzzlesAttempted - in.PuzzlesSolved,
		Points:     in.PointsEarned,
		TimeSpent:  in.TimeTakenNumber,
		Categories: in.Answers,
	}
	if _, err := s.progress.ApplyProgress(ctx, userID, d); err != nil {
		s.log.Error("apply session progress failed", "user_id", userID, "session_id", session.ID.Hex(), "error", err)
	}
	return session, nil
}
