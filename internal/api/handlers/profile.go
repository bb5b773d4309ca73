package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/services"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
)

type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) UpdateMyProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), c.GetUint("user_id"), req)
	if err != nil {
		respondError(c, "Failed to update profile", err)
		return
	}

	utils.SendSuccess(c, "Profile updated successfully", profile)
}

func (h *ProfileHandler) GetPublicProfile(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	profile, err := h.profileService.GetPublicProfile(c.Request.Context(), c.GetUint("user_id"), userID)
	if err != nil {
		respondError(c, "Failed to fetch profile", err)
		return
	}

	utils.SendSuccess(c, "Profile retrieved successfully", profile)
}

func (h *ProfileHandler) Follow(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.profileService.Follow(c.Request.Context(), c.GetUint("user_id"), userID); err != nil {
		respondError(c, "Failed to follow user", err)
		return
	}

	utils.SendSuccess(c, "User followed", nil)
}

func (h *ProfileHandler) Unfollow(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.profileService.Unfollow(c.Request.Context(), c.GetUint("user_id"), userID); err != nil {
		respondError(c, "Failed to unfollow user", err)
		return
	}

	utils.SendSuccess(c, "User unfollowed", nil)
}

func (h *ProfileHandler) Followers(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	page, err := h.profileService.Followers(c.Request.Context(), c.GetUint("user_id"), userID, bindPage(c))
	if err != nil {
		respondError(c, "Failed to fetch followers", err)
		return
	}

	utils.SendSuccess(c, "Followers retrieved successfully", page)
}

func (h *ProfileHandler) Following(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	page, err := h.profileService.Following(c.Request.Context(), c.GetUint("user_id"), userID, bindPage(c))
	if err != nil {
		respondError(c, "Failed to fetch following", err)
		return
	}

	utils.SendSuccess(c, "Following retrieved successfully", page)
}
