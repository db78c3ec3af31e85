package routes

import (
	"brainquest/controllers"

	"github.com/gin-gonic/gin"
)

func SetupTrainRoutes(router *gin.RouterGroup, tc *controllers.TrainingController) {
	train := router.Group("/train")
	{
		train.POST("/check-answer", tc.CheckAnswer)
		train.POST("/save-session", tc.SaveSession)
		train.GET("/get-sessions", tc.GetSessions)
		train.DELETE("/delete-session/:id", tc.DeleteSession)
		train.DELETE("/clear-session-history", tc.ClearSessionHistory)
	}
}
