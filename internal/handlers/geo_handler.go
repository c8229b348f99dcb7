package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"fittrack/internal/repositories/interfaces"
	"fittrack/internal/services"
	"fittrack/internal/utils"
)

type GeoHandler struct {
	geoService services.GeoQueryService
}

func NewGeoHandler(geoService services.GeoQueryService) *GeoHandler {
	return &GeoHandler{
		geoService: geoService,
	}
}

// SegmentsNearby finds segments around a coordinate.
func (h *GeoHandler) SegmentsNearby(c *gin.Context) {
	lat, lng, ok := queryLatLng(c)
	if !ok {
		return
	}

	segments, err := h.geoService.FindSegmentsNearPoint(c.Request.Context(), lat, lng, queryFloat(c, "radius"), queryInt(c, "limit"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Segments retrieved", segments)
}

// SegmentsInBox finds segments inside a lat/lng bounding box.
func (h *GeoHandler) SegmentsInBox(c *gin.Context) {
	minLat, minLng, ok := queryCorner(c, "min_lat", "min_lng")
	if !ok {
		return
	}
	maxLat, maxLng, ok := queryCorner(c, "max_lat", "max_lng")
	if !ok {
		return
	}

	segments, err := h.geoService.FindSegmentsWithinBox(c.Request.Context(), minLat, minLng, maxLat, maxLng, queryInt(c, "limit"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Segments retrieved", segments)
}

// ActivitiesNearby finds activities whose route, start or end point lies
// near a coordinate. The searched field defaults to the route.
func (h *GeoHandler) ActivitiesNearby(c *gin.Context) {
	lat, lng, ok := queryLatLng(c)
	if !ok {
		return
	}

	field := interfaces.GeometryFieldRoute
	if raw := c.Query("field"); raw != "" {
		field = interfaces.GeometryField(raw)
	}

	activities, err := h.geoService.FindActivitiesNearPoint(c.Request.Context(), field, lat, lng, queryFloat(c, "radius"), queryInt(c, "limit"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Activities retrieved", activities)
}

// IntersectingSegments measures route overlap with every segment the
// activity touches.
func (h *GeoHandler) IntersectingSegments(c *gin.Context) {
	activityID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	matches, err := h.geoService.FindIntersectingSegments(c.Request.Context(), activityID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Intersecting segments retrieved", matches)
}

// SimilarActivities finds activities with mutually covering routes.
func (h *GeoHandler) SimilarActivities(c *gin.Context) {
	activityID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	activities, err := h.geoService.FindSimilarRouteActivities(c.Request.Context(), activityID, queryInt(c, "limit"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Similar activities retrieved", activities)
}

// RouteDistance measures the minimum distance between two activity routes.
func (h *GeoHandler) RouteDistance(c *gin.Context) {
	firstID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	secondID, ok := pathObjectID(c, "other_id")
	if !ok {
		return
	}

	distance, err := h.geoService.DistanceBetweenActivities(c.Request.Context(), firstID, secondID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Distance calculated", map[string]interface{}{
		"distance_meters": distance,
	})
}

func queryLatLng(c *gin.Context) (float64, float64, bool) {
	return queryCorner(c, "lat", "lng")
}

func queryCorner(c *gin.Context, latParam, lngParam string) (float64, float64, bool) {
	lat, err := strconv.ParseFloat(c.Query(latParam), 64)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+latParam)
		return 0, 0, false
	}

	lng, err := strconv.ParseFloat(c.Query(lngParam), 64)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+lngParam)
		return 0, 0, false
	}

	return lat, lng, true
}

func queryFloat(c *gin.Context, param string) float64 {
	value, err := strconv.ParseFloat(c.Query(param), 64)
	if err != nil {
		return 0
	}
	return value
}

func queryInt(c *gin.Context, param string) int {
	value, err := strconv.Atoi(c.Query(param))
	if err != nil {
		return 0
	}
	return value
}
