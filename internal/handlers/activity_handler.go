package handlers

import (
	"github.com/gin-gonic/gin"

	"fittrack/internal/services"
	"fittrack/internal/utils"
	"fittrack/internal/validators"
)

type ActivityHandler struct {
	activityService services.ActivityService
	statsService    services.StatisticsService
}

func NewActivityHandler(activityService services.ActivityService, statsService services.StatisticsService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		statsService:    statsService,
	}
}

// Create records a manually entered activity.
func (h *ActivityHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request validators.ActivityCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if !validateRequest(c, &request) {
		return
	}

	activity, err := h.activityService.Create(c.Request.Context(), userID, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Activity created", activity)
}

func (h *ActivityHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	activityID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	activity, err := h.activityService.GetByID(c.Request.Context(), activityID, userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Activity retrieved", activity)
}

func (h *ActivityHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	activities, total, err := h.activityService.ListByUser(c.Request.Context(), userID, params)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Activities retrieved", activities, meta)
}

// Feed lists public completed activities, newest first.
func (h *ActivityHandler) Feed(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	activities, total, err := h.activityService.ListPublic(c.Request.Context(), params)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Feed retrieved", activities, meta)
}

func (h *ActivityHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	activityID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var request validators.ActivityUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if !validateRequest(c, &request) {
		return
	}

	activity, err := h.activityService.Update(c.Request.Context(), activityID, userID, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Activity updated", activity)
}

func (h *ActivityHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	activityID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.activityService.Delete(c.Request.Context(), activityID, userID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Activity deleted", nil)
}

// Splits returns per-kilometer splits derived from the raw points.
func (h *ActivityHandler) Splits(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	activityID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	// Visibility check runs through the activity service.
	if _, err := h.activityService.GetByID(c.Request.Context(), activityID, userID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	splits, err := h.statsService.CalculateSplits(c.Request.Context(), activityID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Splits calculated", splits)
}

// PaceZones returns the training zone table for the activity.
func (h *ActivityHandler) PaceZones(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	activityID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if _, err := h.activityService.GetByID(c.Request.Context(), activityID, userID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	zones, err := h.statsService.CalculatePaceZones(c.Request.Context(), activityID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Pace zones calculated", zones)
}
