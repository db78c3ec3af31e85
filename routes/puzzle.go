package routes

import (
	"brainquest/controllers"

	"github.com/gin-gonic/gin"
)

func SetupPuzzleRoutes(router *gin.RouterGroup, pc *controllers.PuzzleController) {
	puzzles := router.Group("/puzzles")
	{
		puzzles.GET("/get-user-puzzles", pc.GetUserPuzzles)
		puzzles.POST("/create-puzzle", pc.CreatePuzzle)
		puzzles.POST("/get-puzzles", pc.GetPuzzles)
		puzzles.DELETE("/delete-puzzle/:id", pc.DeletePuzzle)
		puzzles.GET("/get-popular-puzzles", pc.GetPopularPuzzles)
		puzzles.GET("/get-discover-category-puzzles", pc.GetDiscoverCategoryPuzzles)
		puzzles.POST("/get-scroll-puzzles", pc.GetScrollPuzzles)
		puzzles.GET("/get-daily-puzzle", pc.GetDailyPuzzle)
		puzzles.POST("/post-comment", pc.PostComment)
		puzzles.GET("/get-comments/:id", pc.GetComments)
		puzzles.PUT("/like-puzzle", pc.Like)
		puzzles.PUT("/dislike-puzzle", pc.Dislike)
	}
}
