package handlers

import (
	"github.com/gin-gonic/gin"

	"fittrack/internal/models"
	"fittrack/internal/services"
	"fittrack/internal/utils"
	"fittrack/internal/validators"
)

type TrackingHandler struct {
	trackingService services.TrackingService
}

func NewTrackingHandler(trackingService services.TrackingService) *TrackingHandler {
	return &TrackingHandler{
		trackingService: trackingService,
	}
}

// Start opens a new live tracking session for the authenticated user.
func (h *TrackingHandler) Start(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request validators.TrackingStartRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if !validateRequest(c, &request) {
		return
	}

	session, err := h.trackingService.Start(c.Request.Context(), userID, models.ActivityType(request.Type), request.Title)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Tracking session started", session)
}

// Track appends a GPS point to an active session.
func (h *TrackingHandler) Track(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	sessionID := c.Param("id")

	var request validators.TrackPointRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if !validateRequest(c, &request) {
		return
	}

	point := models.TrackPoint{
		Lat:       request.Lat,
		Lng:       request.Lng,
		Alt:       request.Alt,
		HeartRate: request.HeartRate,
		Timestamp: request.Timestamp,
	}

	accepted, err := h.trackingService.Track(c.Request.Context(), sessionID, point)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	if !accepted {
		utils.ConflictResponse(c, "Session is not active")
		return
	}

	utils.SuccessResponse(c, "Point recorded", nil)
}

func (h *TrackingHandler) Pause(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	paused, err := h.trackingService.Pause(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	if !paused {
		utils.ConflictResponse(c, "Session is not active")
		return
	}

	utils.SuccessResponse(c, "Session paused", nil)
}

func (h *TrackingHandler) Resume(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	resumed, err := h.trackingService.Resume(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	if !resumed {
		utils.ConflictResponse(c, "Session is not paused")
		return
	}

	utils.SuccessResponse(c, "Session resumed", nil)
}

// Finish closes the session. The request body is optional; it may carry a
// description and visibility for the saved activity. Sessions with too few
// points stay open and produce no activity.
func (h *TrackingHandler) Finish(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	var request validators.TrackingFinishRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			utils.BadRequestResponse(c, "Invalid request: "+err.Error())
			return
		}
		if !validateRequest(c, &request) {
			return
		}
	}

	activity, err := h.trackingService.Finish(c.Request.Context(), c.Param("id"), request.Description, models.ActivityVisibility(request.Visibility))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	if activity == nil {
		utils.SuccessResponse(c, "Not enough points recorded, session still active", nil)
		return
	}

	utils.SuccessResponse(c, "Activity saved", activity)
}

func (h *TrackingHandler) Status(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	session, err := h.trackingService.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Session retrieved", session)
}
