package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/services"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
)

type ModerationHandler struct {
	moderationService *services.ModerationService
}

func NewModerationHandler(moderationService *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

// FileReport is open to every signed-in user.
func (h *ModerationHandler) FileReport(c *gin.Context) {
	var req models.CreateReportRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.moderationService.FileReport(c.Request.Context(), c.GetUint("user_id"), req)
	if err != nil {
		respondError(c, "Failed to file report", err)
		return
	}

	utils.SendCreated(c, "Report submitted successfully", report)
}

func (h *ModerationHandler) ListReports(c *gin.Context) {
	var filter services.ReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.SendValidationError(c, "Invalid query parameters")
		return
	}

	reports, err := h.moderationService.ListReports(c.Request.Context(), c.GetUint("user_id"), filter)
	if err != nil {
		respondError(c, "Failed to fetch reports", err)
		return
	}

	utils.SendSuccess(c, "Reports retrieved successfully", reports)
}

func (h *ModerationHandler) ResolveReport(c *gin.Context) {
	reportID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.ResolveReportRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.moderationService.ResolveReport(c.Request.Context(), reportID, c.GetUint("user_id"), req)
	if err != nil {
		respondError(c, "Failed to resolve report", err)
		return
	}

	utils.SendSuccess(c, "Report resolved successfully", report)
}

func (h *ModerationHandler) HideContent(c *gin.Context) {
	h.act(c, "Content hidden successfully", h.moderationService.HideContent)
}

func (h *ModerationHandler) RestoreContent(c *gin.Context) {
	h.act(c, "Content restored successfully", h.moderationService.RestoreContent)
}

func (h *ModerationHandler) DeleteContent(c *gin.Context) {
	h.act(c, "Content deleted successfully", h.moderationService.DeleteContent)
}

func (h *ModerationHandler) act(c *gin.Context, message string, do func(ctx context.Context, in services.ModerationInput) error) {
	var req models.ModerationActionRequest
	if !bindJSON(c, &req) {
		return
	}

	err := do(c.Request.Context(), services.ModerationInput{
		ModeratorID: c.GetUint("user_id"),
		TargetType:  req.TargetType,
		TargetID:    req.TargetID,
		Reason:      req.Reason,
		RequesterIP: c.ClientIP(),
	})
	if err != nil {
		respondError(c, "Moderation action failed", err)
		return
	}

	utils.SendSuccess(c, message, nil)
}

func (h *ModerationHandler) ListLogs(c *gin.Context) {
	var filter services.LogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.SendValidationError(c, "Invalid query parameters")
		return
	}

	logs, err := h.moderationService.ListModerationLogs(c.Request.Context(), c.GetUint("user_id"), filter)
	if err != nil {
		respondError(c, "Failed to fetch moderation logs", err)
		return
	}

	utils.SendSuccess(c, "Moderation logs retrieved successfully", logs)
}
