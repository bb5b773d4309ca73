package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/services"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req models.CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, "Failed to create review", err)
		return
	}

	utils.SendCreated(c, "Review created successfully", review)
}

func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	reviewID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), c.GetUint("user_id"), reviewID, req)
	if err != nil {
		respondError(c, "Failed to update review", err)
		return
	}

	utils.SendSuccess(c, "Review updated successfully", review)
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	reviewID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), c.GetUint("user_id"), reviewID); err != nil {
		respondError(c, "Failed to delete review", err)
		return
	}

	utils.SendSuccess(c, "Review deleted successfully", nil)
}

func (h *ReviewHandler) GetReview(c *gin.Context) {
	reviewID, ok := paramID(c, "id")
	if !ok {
		return
	}

	review, err := h.reviewService.GetReview(c.Request.Context(), reviewID, visibilityFor(c))
	if err != nil {
		respondError(c, "Failed to fetch review", err)
		return
	}

	utils.SendSuccess(c, "Review retrieved successfully", review)
}

// MyReviews lists the caller's reviews, hidden ones included.
func (h *ReviewHandler) MyReviews(c *gin.Context) {
	reviews, err := h.reviewService.ListUserReviews(c.Request.Context(), c.GetUint("user_id"), bindPage(c))
	if err != nil {
		respondError(c, "Failed to fetch reviews", err)
		return
	}

	utils.SendSuccess(c, "Reviews retrieved successfully", reviews)
}

func (h *ReviewHandler) Feed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.RecentFeedLimit)))

	reviews, err := h.reviewService.RecentReviews(c.Request.Context(), limit)
	if err != nil {
		respondError(c, "Failed to fetch feed", err)
		return
	}

	utils.SendSuccess(c, "Feed retrieved successfully", reviews)
}

func (h *ReviewHandler) UploadPhotos(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.SendValidationError(c, "Multipart form with images is required")
		return
	}

	urls, err := h.reviewService.UploadPhotos(c.Request.Context(), c.GetUint("user_id"), form.File["images"])
	if err != nil {
		respondError(c, "Failed to upload photos", err)
		return
	}

	utils.SendCreated(c, "Photos uploaded successfully", gin.H{"images": urls})
}
