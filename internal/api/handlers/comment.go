package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/services"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
)

// CommentHandler serves comment threads and reactions. Routes bind a target
// type, so the same handler answers for reviews and comments.
type CommentHandler struct {
	commentService  *services.CommentService
	reactionService *services.ReactionService
}

func NewCommentHandler(commentService *services.CommentService, reactionService *services.ReactionService) *CommentHandler {
	return &CommentHandler{
		commentService:  commentService,
		reactionService: reactionService,
	}
}

func (h *CommentHandler) AddComment(target models.TargetType) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req models.CreateCommentRequest
		if !bindJSON(c, &req) {
			return
		}

		comment, err := h.commentService.AddComment(c.Request.Context(), c.GetUint("user_id"), target, targetID, req)
		if err != nil {
			respondError(c, "Failed to add comment", err)
			return
		}

		utils.SendCreated(c, "Comment added successfully", comment)
	}
}

func (h *CommentHandler) ListComments(target models.TargetType) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID, ok := paramID(c, "id")
		if !ok {
			return
		}

		comments, err := h.commentService.ListComments(c.Request.Context(), target, targetID, visibilityFor(c))
		if err != nil {
			respondError(c, "Failed to fetch comments", err)
			return
		}

		utils.SendSuccess(c, "Comments retrieved successfully", comments)
	}
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(c.Request.Context(), c.GetUint("user_id"), commentID); err != nil {
		respondError(c, "Failed to delete comment", err)
		return
	}

	utils.SendSuccess(c, "Comment deleted successfully", nil)
}

func (h *CommentHandler) React(target models.TargetType) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req models.ReactRequest
		if !bindJSON(c, &req) {
			return
		}

		reaction, err := h.reactionService.React(c.Request.Context(), c.GetUint("user_id"), target, targetID, req)
		if err != nil {
			respondError(c, "Failed to react", err)
			return
		}

		utils.SendSuccess(c, "Reaction saved", reaction)
	}
}

func (h *CommentHandler) RemoveReaction(target models.TargetType) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID, ok := paramID(c, "id")
		if !ok {
			return
		}

		if err := h.reactionService.RemoveReaction(c.Request.Context(), c.GetUint("user_id"), target, targetID); err != nil {
			respondError(c, "Failed to remove reaction", err)
			return
		}

		utils.SendSuccess(c, "Reaction removed", nil)
	}
}

func (h *CommentHandler) ReactionSummary(target models.TargetType) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID, ok := paramID(c, "id")
		if !ok {
			return
		}

		summary, err := h.reactionService.ReactionSummary(c.Request.Context(), target, targetID)
		if err != nil {
			respondError(c, "Failed to fetch reactions", err)
			return
		}

		utils.SendSuccess(c, "Reactions retrieved successfully", summary)
	}
}
