package routes

import (
	"github.com/gin-gonic/gin"

	"fittrack/internal/handlers"
)

// SetupGeoRoutes wires the spatial discovery endpoints.
func SetupGeoRoutes(r *gin.RouterGroup, geoHandler *handlers.GeoHandler, auth gin.HandlerFunc) {
	geo := r.Group("/geo")
	geo.Use(auth)
	{
		geo.GET("/segments/nearby", geoHandler.SegmentsNearby)
		geo.GET("/segments/box", geoHandler.SegmentsInBox)
		geo.GET("/activities/nearby", geoHandler.ActivitiesNearby)
		geo.GET("/activities/:id/segments", geoHandler.IntersectingSegments)
		geo.GET("/activities/:id/similar", geoHandler.SimilarActivities)
		geo.GET("/activities/:id/distance/:other_id", geoHandler.RouteDistance)
	}
}
