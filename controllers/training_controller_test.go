package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"brainquest/internal/logger"
	"brainquest/models"
	"brainquest/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubChecker struct {
	result   services.CheckAnswerResult
	err      error
	lastUser string
	lastIn   services.CheckAnswerInput
	session  services.SessionInput
}

func (s *stubChecker) CheckAnswer(_ context.Context, userID string, in services.CheckAnswerInput) (services.CheckAnswerResult, error) {
	s.lastUser, s.lastIn = userID, in
	return s.result, s.err
}

func (s *stubChecker) SaveSession(_ context.Context, _ string, in services.SessionInput) (*models.TrainingSession, error) {
	s.session = in
	if s.err != nil {
		return nil, s.err
	}
	return &models.TrainingSession{PointsEarned: in.PointsEarned}, nil
}

type stubSessions struct{}

func (stubSessions) ListSessions(context.Context, string) ([]models.TrainingSession, error) {
	return []models.TrainingSession{}, nil
}
func (stubSessions) DeleteSession(context.Context, primitive.ObjectID, string) error {
	return models.ErrNotFound
}
func (stubSessions) ClearSessions(context.Context, string) (int64, error) { return 2, nil }

type denyAll struct{}

func (denyAll) Allow(context.Context, string, string) (bool, error) { return false, nil }

func newTrainingRouter(checker *stubChecker, limiter Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tc := NewTrainingController(checker, stubSessions{}, limiter, logger.Nop())
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userID", "user-1") })
	r.POST("/train/check-answer", tc.CheckAnswer)
	r.POST("/train/save-session", tc.SaveSession)
	r.DELETE("/train/delete-session/:id", tc.DeleteSession)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w.Code, out
}

func TestCheckAnswerCorrect(t *testing.T) {
	checker := &stubChecker{result: services.CheckAnswerResult{Correct: true, PointsEarned: 30}}
	r := newTrainingRouter(checker, nil)

	code, body := postJSON(t, r, "/train/check-answer", gin.H{
		"puzzle": "What has keys but no locks?", "response": "a piano", "answer": "piano",
		"difficulty": "medium", "category": "wordplay", "id": "abc", "timeTaken": 12.5,
	})

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["correct"])
	assert.Equal(t, float64(30), body["pointsEarned"])
	assert.Equal(t, "Correct! The answer is piano", body["message"])
	assert.Equal(t, "user-1", checker.lastUser)
	require.NotNil(t, checker.lastIn.TimeTaken)
	assert.Equal(t, 12.5, *checker.lastIn.TimeTaken)
}

func TestCheckAnswerErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		success bool
		message string
	}{
		{"missing", services.ErrMissingFields, false, "Missing fields, response and answer are required."},
		{"bad difficulty", fmt.Errorf("%w: difficulty %q", services.ErrInvalidAnswer, "legendary"), false, "Invalid difficulty or time taken."},
		{"not found", models.ErrNotFound, false, "Puzzle not found."},
		{"already attempted", services.ErrAlreadyAttempted, true, "You have already attempted this puzzle."},
		{"verifier", errors.Join(services.ErrUnverifiable, errors.New("timeout")), false, verifierFailureMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTrainingRouter(&stubChecker{err: tc.err}, nil)
			_, body := postJSON(t, r, "/train/check-answer", gin.H{"response": "x", "answer": "y"})
			assert.Equal(t, tc.success, body["success"])
			assert.Equal(t, tc.message, body["message"])
			if tc.success {
				assert.Equal(t, false, body["correct"])
			}
		})
	}
}

func TestCheckAnswerRateLimited(t *testing.T) {
	checker := &stubChecker{}
	r := newTrainingRouter(checker, denyAll{})

	code, body := postJSON(t, r, "/train/check-answer", gin.H{"response": "x", "answer": "y"})
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, false, body["success"])
	assert.Empty(t, checker.lastUser)
}

func TestSaveSessionBindsAnswers(t *testing.T) {
	checker := &stubChecker{}
	r := newTrainingRouter(checker, nil)

	_, body := postJSON(t, r, "/train/save-session", gin.H{
		"pointsEarned": 45, "puzzlesAttempted": 3, "puzzlesSolved": 2,
		"timeLimit": "5:00", "timeTaken": "3:10", "timeTakenNumber": 190,
		"allPuzzlesAnswered": []gin.H{
			{"category": "logic", "isCorrect": true, "timeTaken": 60},
			{"category": "math", "isCorrect": false, "timeTaken": 70},
		},
	})
	assert.Equal(t, true, body["success"])
	require.Len(t, checker.session.Answers, 2)
	assert.Equal(t, models.CategoryLogic, checker.session.Answers[0].Category)
	assert.Equal(t, float64(70), checker.session.Answers[1].TimeSpent)
}

func TestDeleteSessionNotFound(t *testing.T) {
	r := newTrainingRouter(&stubChecker{}, nil)
	req := httptest.NewRequest(http.MethodDelete, "/train/delete-session/"+primitive.NewObjectID().Hex(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
