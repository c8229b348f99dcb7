package handlers

import (
	"github.com/gin-gonic/gin"

	"fittrack/internal/models"
	"fittrack/internal/services"
	"fittrack/internal/utils"
	"fittrack/internal/validators"
)

type SegmentHandler struct {
	segmentService services.SegmentService
}

func NewSegmentHandler(segmentService services.SegmentService) *SegmentHandler {
	return &SegmentHandler{
		segmentService: segmentService,
	}
}

// Create builds a new segment from a GPS route.
func (h *SegmentHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request validators.SegmentCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if !validateRequest(c, &request) {
		return
	}

	segment, err := h.segmentService.Create(c.Request.Context(), userID, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Segment created", segment)
}

func (h *SegmentHandler) Get(c *gin.Context) {
	segmentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	segment, err := h.segmentService.GetByID(c.Request.Context(), segmentID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Segment retrieved", segment)
}

func (h *SegmentHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var segmentType *models.SegmentType
	if raw := c.Query("type"); raw != "" {
		t := models.SegmentType(raw)
		segmentType = &t
	}

	segments, total, err := h.segmentService.List(c.Request.Context(), segmentType, params)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Segments retrieved", segments, meta)
}

func (h *SegmentHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	segmentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var request validators.SegmentUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if !validateRequest(c, &request) {
		return
	}

	segment, err := h.segmentService.Update(c.Request.Context(), segmentID, userID, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Segment updated", segment)
}

func (h *SegmentHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	segmentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.segmentService.Delete(c.Request.Context(), segmentID, userID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Segment deleted", nil)
}

// Leaderboard returns ranked efforts with athlete display data.
func (h *SegmentHandler) Leaderboard(c *gin.Context) {
	segmentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	entries, total, err := h.segmentService.GetLeaderboard(c.Request.Context(), segmentID, params)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	meta := &utils.Meta{Pagination: utils.CreatePaginationMeta(params, total)}
	utils.SuccessResponseWithMeta(c, "Leaderboard retrieved", entries, meta)
}

// MyRecords returns the authenticated user's personal records across all
// segments, newest first.
func (h *SegmentHandler) MyRecords(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	records, err := h.segmentService.GetUserRecords(c.Request.Context(), userID, queryInt(c, "limit"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Personal records retrieved", records)
}

// MyKoms returns the segment crowns the authenticated user currently
// holds.
func (h *SegmentHandler) MyKoms(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	koms, err := h.segmentService.GetUserKoms(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "KOMs retrieved", koms)
}

// MyEfforts returns the authenticated user's efforts on the segment.
func (h *SegmentHandler) MyEfforts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	segmentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	efforts, err := h.segmentService.GetUserEfforts(c.Request.Context(), segmentID, userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Efforts retrieved", efforts)
}
