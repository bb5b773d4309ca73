package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/services"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
)

type PasswordHandler struct {
	authService *services.AuthService
}

func NewPasswordHandler(authService *services.AuthService) *PasswordHandler {
	return &PasswordHandler{
		authService: authService,
	}
}

func (h *PasswordHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req); err != nil {
		respondError(c, "Failed to process forgot password request", err)
		return
	}

	utils.SendSuccess(c, "If your email exists in our system, you will receive a password reset link shortly", nil)
}

func (h *PasswordHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req); err != nil {
		respondError(c, "Failed to reset password", err)
		return
	}

	utils.SendSuccess(c, "Password reset successfully. Please login with your new password", nil)
}

func (h *PasswordHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), c.GetUint("user_id"), req); err != nil {
		respondError(c, "Failed to change password", err)
		return
	}

	utils.SendSuccess(c, "Password changed successfully", nil)
}
