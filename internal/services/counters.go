package services

import (
	"fmt"

	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"gorm.io/gorm"
)

// Each denormalised counter below has exactly one writer. Callers invoke it in
// the transaction that changed the underlying rows; nothing increments or
// decrements a counter in place.

// recountReviewComments sets comments_count to the number of visible comments
// posted directly on the review.
func recountReviewComments(tx *gorm.DB, reviewID uint) error {
	var n int64
	err := tx.Model(&models.Comment{}).
		Where("commentable_type = ? AND commentable_id = ? AND is_hidden = ?", models.TargetReview, reviewID, false).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("count comments of review %d: %w", reviewID, err)
	}
	return tx.Model(&models.Review{}).Where("id = ?", reviewID).UpdateColumn("comments_count", n).Error
}

// recountLikes sets likes_count on a review or comment to the number of
// reactions it carries.
func recountLikes(tx *gorm.DB, target models.TargetType, id uint) error {
	var model interface{}
	switch target {
	case models.TargetReview:
		model = &models.Review{}
	case models.TargetComment:
		model = &models.Comment{}
	default:
		return fmt.Errorf("%w: %s does not carry reactions", ErrValidationFailed, target)
	}

	var n int64
	err := tx.Model(&models.Reaction{}).
		Where("reactable_type = ? AND reactable_id = ?", target, id).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("count reactions of %s %d: %w", target, id, err)
	}
	return tx.Model(model).Where("id = ?", id).UpdateColumn("likes_count", n).Error
}

// recountListItems sets items_count to the number of products on the list.
func recountListItems(tx *gorm.DB, listID uint) error {
	var n int64
	if err := tx.Model(&models.FoodListItem{}).Where("food_list_id = ?", listID).Count(&n).Error; err != nil {
		return fmt.Errorf("count items of list %d: %w", listID, err)
	}
	return tx.Model(&models.FoodList{}).Where("id = ?", listID).UpdateColumn("items_count", n).Error
}

// commentThread returns the ids of every comment below a target, replies
// included, walking one level at a time.
func commentThread(tx *gorm.DB, target models.TargetType, id uint) ([]uint, error) {
	var all []uint
	var level []uint
	err := tx.Model(&models.Comment{}).
		Where("commentable_type = ? AND commentable_id = ?", target, id).
		Pluck("id", &level).Error
	if err != nil {
		return nil, err
	}
	for len(level) > 0 {
		all = append(all, level...)
		var next []uint
		err := tx.Model(&models.Comment{}).
			Where("commentable_type = ? AND commentable_id IN ?", models.TargetComment, level).
			Pluck("id", &next).Error
		if err != nil {
			return nil, err
		}
		level = next
	}
	return all, nil
}

// removeCommentThread deletes the comments below a target together with their
// reactions. Reports against them are kept for the audit trail.
func removeCommentThread(tx *gorm.DB, target models.TargetType, id uint) error {
	ids, err := commentThread(tx, target, id)
	if err != nil {
		return fmt.Errorf("collect comments of %s %d: %w", target, id, err)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("reactable_type = ? AND reactable_id IN ?", models.TargetComment, ids).
		Delete(&models.Reaction{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
}
