package routes

import (
	"github.com/gin-gonic/gin"

	"fittrack/internal/handlers"
)

// SetupActivityRoutes wires activity CRUD and statistics endpoints.
func SetupActivityRoutes(r *gin.RouterGroup, activityHandler *handlers.ActivityHandler, auth gin.HandlerFunc) {
	activities := r.Group("/activities")
	activities.Use(auth)
	{
		activities.POST("/", activityHandler.Create)
		activities.GET("/", activityHandler.ListMine)
		activities.GET("/feed", activityHandler.Feed)
		activities.GET("/:id", activityHandler.Get)
		activities.PUT("/:id", activityHandler.Update)
		activities.DELETE("/:id", activityHandler.Delete)

		// Derived statistics
		activities.GET("/:id/splits", activityHandler.Splits)
		activities.GET("/:id/pace-zones", activityHandler.PaceZones)
	}
}
