package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
	"gorm.io/gorm"
)

// replies nested deeper than this are not loaded with a thread
const maxThreadDepth = 8

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// commentTargets maps each commentable type to its table.
var commentTargets = map[models.TargetType]string{
	models.TargetReview:  "reviews",
	models.TargetComment: "comments",
}

func commentTable(target models.TargetType) (string, error) {
	table, ok := commentTargets[target]
	if !ok {
		return "", fieldError("target_type", fmt.Sprintf("cannot comment on %s", target))
	}
	return table, nil
}

// AddComment posts on a visible review, or replies to a visible comment.
func (s *CommentService) AddComment(ctx context.Context, userID uint, target models.TargetType, targetID uint, req models.CreateCommentRequest) (*models.Comment, error) {
	req.Content = utils.SanitizeString(req.Content)
	if err := validate(req); err != nil {
		return nil, err
	}
	table, err := commentTable(target)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		UserID:          userID,
		CommentableType: target,
		CommentableID:   targetID,
		Content:         req.Content,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := OnlyVisible.apply(tx.Table(table), table).Where("id = ?", targetID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return notFound(string(target), targetID)
		}
		if err := tx.Create(&comment).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		if target == models.TargetReview {
			return recountReviewComments(tx, targetID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListComments returns the thread below a review or comment. A hidden comment
// is left out together with the replies beneath it.
func (s *CommentService) ListComments(ctx context.Context, target models.TargetType, targetID uint, vis Visibility) ([]models.Comment, error) {
	table, err := commentTable(target)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var n int64
	if err := vis.apply(db.Table(table), table).Where("id = ?", targetID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, notFound(string(target), targetID)
	}
	return loadThread(db, target, targetID, vis)
}

// DeleteComment removes the author's comment and its replies.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := lockForUpdate(tx).First(&comment, commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("comment", commentID)
			}
			return err
		}
		if comment.UserID != userID {
			return fmt.Errorf("%w: comment %d belongs to another user", ErrForbidden, commentID)
		}
		return deleteCommentTx(tx, &comment)
	})
}

func deleteCommentTx(tx *gorm.DB, comment *models.Comment) error {
	if err := removeCommentThread(tx, models.TargetComment, comment.ID); err != nil {
		return err
	}
	if err := tx.Where("reactable_type = ? AND reactable_id = ?", models.TargetComment, comment.ID).
		Delete(&models.Reaction{}).Error; err != nil {
		return err
	}
	if err := tx.Delete(&models.Comment{}, comment.ID).Error; err != nil {
		return err
	}
	if comment.CommentableType == models.TargetReview {
		return recountReviewComments(tx, comment.CommentableID)
	}
	return nil
}

func loadThread(db *gorm.DB, target models.TargetType, targetID uint, vis Visibility) ([]models.Comment, error) {
	roots := []models.Comment{}
	err := vis.apply(db, "comments").Preload("User").
		Where("commentable_type = ? AND commentable_id = ?", target, targetID).
		Order("created_at ASC").Order("id ASC").
		Find(&roots).Error
	if err != nil {
		return nil, fmt.Errorf("load comments of %s %d: %w", target, targetID, err)
	}
	if err := attachReplies(db, roots, vis, maxThreadDepth); err != nil {
		return nil, err
	}
	return roots, nil
}

// attachReplies fills Replies of each parent, one query per level.
func attachReplies(db *gorm.DB, parents []models.Comment, vis Visibility, depth int) error {
	if len(parents) == 0 || depth == 0 {
		return nil
	}
	ids := make([]uint, len(parents))
	for i := range parents {
		ids[i] = parents[i].ID
	}

	var replies []models.Comment
	err := vis.apply(db, "comments").Preload("User").
		Where("commentable_type = ? AND commentable_id IN ?", models.TargetComment, ids).
		Order("created_at ASC").Order("id ASC").
		Find(&replies).Error
	if err != nil {
		return fmt.Errorf("load replies: %w", err)
	}
	if err := attachReplies(db, replies, vis, depth-1); err != nil {
		return err
	}

	byParent := make(map[uint][]models.Comment, len(parents))
	for _, r := range replies {
		byParent[r.CommentableID] = append(byParent[r.CommentableID], r)
	}
	for i := range parents {
		parents[i].Replies = byParent[parents[i].ID]
	}
	return nil
}
