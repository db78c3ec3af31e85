package routes

import (
	"brainquest/controllers"
	"brainquest/middlewares"

	"github.com/gin-gonic/gin"
)

func SetupGamificationRoutes(router *gin.RouterGroup, gc *controllers.GamificationController) {
	router.GET("/challenges/get-daily-challenges", gc.GetDailyChallenges)
	router.GET("/badges/fetch-badges", gc.FetchBadges)
}

// SetupAdminRoutes guards the manual rotation jobs with the admin role check
// and the casbin policies.
func SetupAdminRoutes(router *gin.RouterGroup, gc *controllers.GamificationController, rbac *middlewares.RBAC) {
	admin := router.Group("/admin", rbac.AdminMiddleware())
	{
		admin.POST("/rotate-daily", rbac.RBACMiddleware("daily", "rotate"), gc.RotateDaily)
		admin.POST("/rollover", rbac.RBACMiddleware("day", "rollover"), gc.Rollover)
	}
}
