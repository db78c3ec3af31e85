package controllers

import (
	"context"
	"net/http"
	"time"

	"brainquest/internal/logger"
	"brainquest/models"

	"github.com/gin-gonic/gin"
)

// CatalogReader serves the cached badge and challenge catalogs
type CatalogReader interface {
	Badges(ctx context.Context) ([]models.Badge, error)
	DailyChallenges(ctx context.Context) ([]models.Challenge, error)
}

// DailyRotator runs the scheduled jobs on demand
type DailyRotator interface {
	SelectNewDailySet(ctx context.Context, now time.Time) error
	RolloverAll(ctx context.Context, now time.Time) error
}

type GamificationController struct {
	catalog CatalogReader
	rotator DailyRotator
	log     *logger.Logger
}

func NewGamificationController(catalog CatalogReader, rotator DailyRotator, log *logger.Logger) *GamificationController {
	return &GamificationController{catalog: catalog, rotator: rotator, log: log}
}

func (gc *GamificationController) GetDailyChallenges(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	challenges, err := gc.catalog.DailyChallenges(ctx)
	if err != nil {
		gc.log.Error("fetch daily challenges failed", "error", err)
		fail(c, http.StatusInternalServerError, "Failed to fetch daily challenges.")
		return
	}
	succeed(c, "Challenges fetched successfully!", gin.H{"challenges": challenges})
}

func (gc *GamificationController) FetchBadges(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	badges, err := gc.catalog.Badges(ctx)
	if err != nil {
		gc.log.Error("fetch badges failed", "error", err)
		fail(c, http.StatusInternalServerError, "Error fetching badges.")
		return
	}
	succeed(c, "Badges fetched successfully!", gin.H{"badges": badges})
}

// RotateDaily picks a new daily set immediately.
func (gc *GamificationController) RotateDaily(c *gin.Context) {
	if err := gc.rotator.SelectNewDailySet(c.Request.Context(), time.Now()); err != nil {
		gc.log.Error("manual daily rotation failed", "admin_role", c.GetString("adminRole"), "error", err)
		fail(c, http.StatusInternalServerError, "Failed to rotate the daily set.")
		return
	}
	gc.log.Info("daily set rotated manually", "admin_role", c.GetString("adminRole"))
	succeed(c, "Daily set rotated successfully!", nil)
}

// Rollover resets every timezone whose local day has ended.
func (gc *GamificationController) Rollover(c *gin.Context) {
	if err := gc.rotator.RolloverAll(c.Request.Context(), time.Now()); err != nil {
		gc.log.Error("manual rollover failed", "error", err)
		fail(c, http.StatusInternalServerError, "Rollover finished with errors.")
		return
	}
	succeed(c, "Rollover completed successfully!", nil)
}
