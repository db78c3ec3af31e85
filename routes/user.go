package routes

import (
	"brainquest/controllers"

	"github.com/gin-gonic/gin"
)

func SetupUserRoutes(router *gin.RouterGroup, uc *controllers.UserController) {
	users := router.Group("/users")
	{
		users.POST("/add-user-db", uc.AddUser)
		users.PUT("/enable-notifications", uc.EnableNotifications)
		users.PUT("/enable-leaderboard", uc.EnableLeaderboard)
		users.PUT("/update-puzzle-goal", uc.UpdatePuzzleGoal)
		users.PUT("/update-points-goal", uc.UpdatePointsGoal)
		users.PUT("/update-timezone", uc.UpdateTimezone)
		users.GET("/fetch-user-settings", uc.FetchUserSettings)
		users.GET("/fetch-users", uc.FetchUsers)
		users.GET("/check-reset-streak", uc.CheckResetStreak)
	}
}
