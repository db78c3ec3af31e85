package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"brainquest/internal/logger"
	"brainquest/internal/stats"
	"brainquest/middlewares"
	"brainquest/models"
	"brainquest/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const verifierFailureMessage = "Something went wrong while your answer was being checked. Please try again later."

// AnswerChecker is the part of the training service used by the handlers
type AnswerChecker interface {
	CheckAnswer(ctx context.Context, userID string, in services.CheckAnswerInput) (services.CheckAnswerResult, error)
	SaveSession(ctx context.Context, userID string, in services.SessionInput) (*models.TrainingSession, error)
}

// SessionHistory lists and removes stored training sessions
type SessionHistory interface {
	ListSessions(ctx context.Context, userID string) ([]models.TrainingSession, error)
	DeleteSession(ctx context.Context, id primitive.ObjectID, userID string) error
	ClearSessions(ctx context.Context, userID string) (int64, error)
}

// Limiter throttles a subject within a scope
type Limiter interface {
	Allow(ctx context.Context, scope, subject string) (bool, error)
}

type TrainingController struct {
	training AnswerChecker
	sessions SessionHistory
	limiter  Limiter
	log      *logger.Logger
}

func NewTrainingController(training AnswerChecker, sessions SessionHistory, limiter Limiter, log *logger.Logger) *TrainingController {
	return &TrainingController{training: training, sessions: sessions, limiter: limiter, log: log}
}

type CheckAnswerRequest struct {
	Puzzle     string   `json:"puzzle"`
	Response   string   `json:"response"`
	Answer     string   `json:"answer"`
	Difficulty string   `json:"difficulty"`
	Category   string   `json:"category"`
	HintUsed   bool     `json:"hintUsed"`
	ID         string   `json:"id"`
	TimeTaken  *float64 `json:"timeTaken"`
	IsDaily    bool     `json:"isDaily"`
}

func (tc *TrainingController) CheckAnswer(c *gin.Context) {
	var req CheckAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	userID := middlewares.UserID(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	if tc.limiter != nil {
		allowed, err := tc.limiter.Allow(ctx, "check-answer", userID)
		if err != nil {
			tc.log.Warn("rate limiter unavailable", "user_id", userID, "error", err)
		}
		if !allowed {
			fail(c, http.StatusTooManyRequests, "Too many answers, slow down and try again in a minute.")
			return
		}
	}

	result, err := tc.training.CheckAnswer(ctx, userID, services.CheckAnswerInput{
		Puzzle:     req.Puzzle,
		Response:   req.Response,
		Answer:     req.Answer,
		Difficulty: req.Difficulty,
		Category:   req.Category,
		HintUsed:   req.HintUsed,
		PuzzleID:   req.ID,
		TimeTaken:  req.TimeTaken,
		IsDaily:    req.IsDaily,
	})
	switch {
	case err == nil:
	case errors.Is(err, services.ErrMissingFields):
		fail(c, http.StatusBadRequest, "Missing fields, response and answer are required.")
		return
	case errors.Is(err, services.ErrInvalidAnswer):
		fail(c, http.StatusBadRequest, "Invalid difficulty or time taken.")
		return
	case errors.Is(err, models.ErrNotFound):
		fail(c, http.StatusNotFound, "Puzzle not found.")
		return
	case errors.Is(err, services.ErrAlreadyAttempted):
		succeed(c, "You have already attempted this puzzle.", gin.H{"correct": false})
		return
	case errors.Is(err, services.ErrUnverifiable):
		fail(c, http.StatusBadGateway, verifierFailureMessage)
		return
	default:
		tc.log.Error("check answer failed", "user_id", userID, "puzzle_id", req.ID, "error", err)
		fail(c, http.StatusInternalServerError, "An error occurred while checking your answer.")
		return
	}

	message := fmt.Sprintf("Sorry, incorrect... The answer is %s", req.Answer)
	if result.Correct {
		message = fmt.Sprintf("Correct! The answer is %s", req.Answer)
	}
	succeed(c, message, gin.H{"correct": result.Correct, "pointsEarned": result.PointsEarned})
}

type SaveSessionRequest struct {
	PointsEarned       int                     `json:"pointsEarned"`
	PuzzlesAttempted   int                     `json:"puzzlesAttempted"`
	PuzzlesSolved      int                     `json:"puzzlesSolved"`
	TimeLimit          string                  `json:"timeLimit"`
	TimeTaken          string                  `json:"timeTaken"`
	TimeTakenNumber    float64                 `json:"timeTakenNumber"`
	AllPuzzlesAnswered []stats.CategoryOutcome `json:"allPuzzlesAnswered"`
}

func (tc *TrainingController) SaveSession(c *gin.Context) {
	var req SaveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	userID := middlewares.UserID(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	session, err := tc.training.SaveSession(ctx, userID, services.SessionInput{
		PointsEarned:     req.PointsEarned,
		PuzzlesAttempted: req.PuzzlesAttempted,
		PuzzlesSolved:    req.PuzzlesSolved,
		TimeLimit:        req.TimeLimit,
		TimeTaken:        req.TimeTaken,
		TimeTakenNumber:  req.TimeTakenNumber,
		Answers:          req.AllPuzzlesAnswered,
	})
	if errors.Is(err, services.ErrInvalidSession) {
		fail(c, http.StatusBadRequest, "Invalid training session.")
		return
	}
	if err != nil {
		tc.log.Error("save session failed", "user_id", userID, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to save training session.")
		return
	}
	succeed(c, "Training session saved successfully!", gin.H{"session": session})
}

func (tc *TrainingController) GetSessions(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	sessions, err := tc.sessions.ListSessions(ctx, middlewares.UserID(c))
	if err != nil {
		tc.log.Error("list sessions failed", "error", err)
		fail(c, http.StatusInternalServerError, "Failed to fetch training sessions.")
		return
	}
	succeed(c, "Training sessions fetched successfully!", gin.H{"sessions": sessions})
}

func (tc *TrainingController) DeleteSession(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid session id.")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	err = tc.sessions.DeleteSession(ctx, id, middlewares.UserID(c))
	if errors.Is(err, models.ErrNotFound) {
		fail(c, http.StatusNotFound, "Session not found.")
		return
	}
	if err != nil {
		tc.log.Error("delete session failed", "session_id", id.Hex(), "error", err)
		fail(c, http.StatusInternalServerError, "Failed to delete training session.")
		return
	}
	succeed(c, "Training session deleted successfully!", nil)
}

func (tc *TrainingController) ClearSessionHistory(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	n, err := tc.sessions.ClearSessions(ctx, middlewares.UserID(c))
	if err != nil {
		tc.log.Error("clear sessions failed", "error", err)
		fail(c, http.StatusInternalServerError, "Failed to clear training history.")
		return
	}
	succeed(c, "Training history cleared successfully!", gin.H{"deleted": n})
}
