package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"brainquest/internal/logger"
	"brainquest/internal/stats"
	"brainquest/middlewares"
	"brainquest/models"

	"github.com/gin-gonic/gin"
)

// UserDirectory is the user persistence used by the settings handlers
type UserDirectory interface {
	FindUser(ctx context.Context, userID string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	Toggle(ctx context.Context, userID, field string) error
	SetPuzzleGoal(ctx context.Context, userID string, goal int) error
	SetPointsGoal(ctx context.Context, userID string, goal int) error
	SetTimezone(ctx context.Context, userID, timezone string) error
	Leaderboard(ctx context.Context, limit int64) ([]models.LeaderboardEntry, error)
}

// StreakChecker rolls a user's day and resets an expired streak
type StreakChecker interface {
	CheckResetStreak(ctx context.Context, userID string) (*models.User, error)
}

type UserController struct {
	users  UserDirectory
	streak StreakChecker
	log    *logger.Logger
	now    func() time.Time
}

func NewUserController(users UserDirectory, streak StreakChecker, log *logger.Logger) *UserController {
	return &UserController{users: users, streak: streak, log: log, now: time.Now}
}

type AddUserRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

func (uc *UserController) AddUser(c *gin.Context) {
	var req AddUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u := stats.NewUser(middlewares.UserID(c), req.Name, req.Timezone, uc.now())
	err := uc.users.CreateUser(ctx, u)
	if errors.Is(err, models.ErrAlreadyExists) {
		succeedFalse(c, "User already exists.")
		return
	}
	if err != nil {
		uc.log.Error("create user failed", "user_id", u.UserID, "error", err)
		fail(c, http.StatusInternalServerError, "An error occurred while adding user.")
		return
	}
	succeed(c, "New user added successfully!", nil)
}

func (uc *UserController) toggle(c *gin.Context, field, label string) {
	ctx, cancel := requestContext(c)
	defer cancel()

	err := uc.users.Toggle(ctx, middlewares.UserID(c), field)
	if errors.Is(err, models.ErrNotFound) {
		fail(c, http.StatusNotFound, "User not found.")
		return
	}
	if err != nil {
		uc.log.Error("toggle setting failed", "field", field, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to change "+label+" status.")
		return
	}
	succeed(c, label+" status updated successfully!", nil)
}

func (uc *UserController) EnableNotifications(c *gin.Context) {
	uc.toggle(c, "enableNotifications", "Notification")
}

func (uc *UserController) EnableLeaderboard(c *gin.Context) {
	uc.toggle(c, "enableLeaderboard", "Leaderboard")
}

type GoalRequest struct {
	NewValue *int `json:"newValue"`
}

func (uc *UserController) updateGoal(c *gin.Context, label string, set func(context.Context, string, int) error) {
	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.NewValue == nil || *req.NewValue <= 0 {
		fail(c, http.StatusBadRequest, "A positive newValue is required.")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := set(ctx, middlewares.UserID(c), *req.NewValue); err != nil {
		uc.log.Error("update goal failed", "goal", label, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to update "+label+" goal.")
		return
	}
	succeed(c, label+" goal updated successfully!", nil)
}

func (uc *UserController) UpdatePuzzleGoal(c *gin.Context) {
	uc.updateGoal(c, "Puzzle", uc.users.SetPuzzleGoal)
}

func (uc *UserController) UpdatePointsGoal(c *gin.Context) {
	uc.updateGoal(c, "Points", uc.users.SetPointsGoal)
}

type TimezoneRequest struct {
	Timezone string `json:"timezone"`
}

func (uc *UserController) UpdateTimezone(c *gin.Context) {
	var req TimezoneRequest
	if err := c.ShouldBindJSON(&req); err != nil || !stats.ValidTimezone(req.Timezone) {
		fail(c, http.StatusBadRequest, "A valid IANA timezone is required.")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := uc.users.SetTimezone(ctx, middlewares.UserID(c), req.Timezone); err != nil {
		uc.log.Error("update timezone failed", "error", err)
		fail(c, http.StatusInternalServerError, "Failed to update timezone.")
		return
	}
	succeed(c, "Timezone updated successfully!", nil)
}

func (uc *UserController) FetchUserSettings(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := uc.users.FindUser(ctx, middlewares.UserID(c))
	if errors.Is(err, models.ErrNotFound) {
		fail(c, http.StatusNotFound, "User not found.")
		return
	}
	if err != nil {
		uc.log.Error("fetch user settings failed", "error", err)
		fail(c, http.StatusInternalServerError, "Failed to retrieve user settings.")
		return
	}
	succeed(c, "User settings fetched successfully!", gin.H{"user": u})
}

func (uc *UserController) FetchUsers(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := uc.users.Leaderboard(ctx, 0)
	if err != nil {
		uc.log.Error("fetch users failed", "error", err)
		fail(c, http.StatusInternalServerError, "Failed to fetch users.")
		return
	}
	succeed(c, "Users fetched successfully!", gin.H{"users": users})
}

func (uc *UserController) CheckResetStreak(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := uc.streak.CheckResetStreak(ctx, middlewares.UserID(c))
	if errors.Is(err, models.ErrNotFound) {
		fail(c, http.StatusNotFound, "User not found.")
		return
	}
	if err != nil {
		uc.log.Error("check reset streak failed", "error", err)
		fail(c, http.StatusInternalServerError, "Failed to check streak.")
		return
	}
	succeed(c, "Streak checked successfully!", gin.H{"streak": u.Streak, "user": u})
}
