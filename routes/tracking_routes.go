package routes

import (
	"github.com/gin-gonic/gin"

	"fittrack/internal/handlers"
	"fittrack/pkg/websocket"
)

// SetupTrackingRoutes wires the live tracking session endpoints.
func SetupTrackingRoutes(r *gin.RouterGroup, trackingHandler *handlers.TrackingHandler, wsHandler *websocket.Handler, auth gin.HandlerFunc) {
	tracking := r.Group("/tracking")
	tracking.Use(auth)
	{
		tracking.POST("/start", trackingHandler.Start)
		tracking.POST("/:id/points", trackingHandler.Track)
		tracking.PUT("/:id/pause", trackingHandler.Pause)
		tracking.PUT("/:id/resume", trackingHandler.Resume)
		tracking.POST("/:id/finish", trackingHandler.Finish)
		tracking.GET("/:id", trackingHandler.Status)

		// Live websocket feed for session watchers
		tracking.GET("/:id/live", wsHandler.HandleWebSocket)
	}
}
