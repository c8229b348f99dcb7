package routes

import (
	"github.com/gin-gonic/gin"

	"fittrack/internal/handlers"
)

// SetupSegmentRoutes wires segment CRUD and leaderboard endpoints.
func SetupSegmentRoutes(r *gin.RouterGroup, segmentHandler *handlers.SegmentHandler, auth gin.HandlerFunc) {
	segments := r.Group("/segments")
	segments.Use(auth)
	{
		segments.POST("/", segmentHandler.Create)
		segments.GET("/", segmentHandler.List)
		segments.GET("/records", segmentHandler.MyRecords)
		segments.GET("/koms", segmentHandler.MyKoms)
		segments.GET("/:id", segmentHandler.Get)
		segments.PUT("/:id", segmentHandler.Update)
		segments.DELETE("/:id", segmentHandler.Delete)

		segments.GET("/:id/leaderboard", segmentHandler.Leaderboard)
		segments.GET("/:id/efforts", segmentHandler.MyEfforts)
	}
}
