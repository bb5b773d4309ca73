package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/services"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := h.authService.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Signup failed", err)
		return
	}

	utils.SendCreated(c, "User created successfully", response)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Login failed", err)
		return
	}

	utils.SendSuccess(c, "Login successful", response)
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID := c.GetUint("user_id")

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "User not found", err)
		return
	}

	utils.SendSuccess(c, "Profile retrieved successfully", user)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req models.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := h.authService.RefreshToken(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Token refresh failed", err)
		return
	}

	utils.SendSuccess(c, "Token refreshed successfully", response)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, "Logout failed", err)
		return
	}

	utils.SendSuccess(c, "Logged out successfully", nil)
}

func (h *AuthHandler) LogoutAll(c *gin.Context) {
	if err := h.authService.LogoutAll(c.Request.Context(), c.GetUint("user_id")); err != nil {
		respondError(c, "Logout failed", err)
		return
	}

	utils.SendSuccess(c, "Logged out of all sessions", nil)
}

// SetRole promotes or demotes a user. Admin only.
func (h *AuthHandler) SetRole(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.SetRole(c.Request.Context(), c.GetUint("user_id"), userID, req.Role)
	if err != nil {
		respondError(c, "Failed to update role", err)
		return
	}

	utils.SendSuccess(c, "Role updated successfully", user)
}
