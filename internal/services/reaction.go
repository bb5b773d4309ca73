package services

import (
	"context"
	"fmt"

	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReactionService struct {
	db *gorm.DB
}

func NewReactionService(db *gorm.DB) *ReactionService {
	return &ReactionService{db: db}
}

// reactionTargets maps each reactable type to its table.
var reactionTargets = map[models.TargetType]string{
	models.TargetReview:  "reviews",
	models.TargetComment: "comments",
}

// React records the user's reaction to a visible review or comment. A second
// reaction to the same target replaces the type of the first.
func (s *ReactionService) React(ctx context.Context, userID uint, target models.TargetType, targetID uint, req models.ReactRequest) (*models.Reaction, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	table, ok := reactionTargets[target]
	if !ok {
		return nil, fieldError("target_type", fmt.Sprintf("cannot react to %s", target))
	}

	reaction := models.Reaction{
		UserID:        userID,
		ReactableType: target,
		ReactableID:   targetID,
		Type:          req.Type,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := OnlyVisible.apply(tx.Table(table), table).Where("id = ?", targetID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return notFound(string(target), targetID)
		}

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "reactable_type"}, {Name: "reactable_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "updated_at"}),
		}).Create(&reaction).Error
		if err != nil {
			return fmt.Errorf("save reaction: %w", err)
		}
		// the upsert may not report the id of an updated row
		var stored models.Reaction
		if err := tx.Where("user_id = ? AND reactable_type = ? AND reactable_id = ?", userID, target, targetID).
			First(&stored).Error; err != nil {
			return err
		}
		reaction = stored
		return recountLikes(tx, target, targetID)
	})
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

// RemoveReaction withdraws the user's reaction; removing a missing one is a no-op.
func (s *ReactionService) RemoveReaction(ctx context.Context, userID uint, target models.TargetType, targetID uint) error {
	if _, ok := reactionTargets[target]; !ok {
		return fieldError("target_type", fmt.Sprintf("cannot react to %s", target))
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND reactable_type = ? AND reactable_id = ?", userID, target, targetID).
			Delete(&models.Reaction{}).Error
		if err != nil {
			return err
		}
		return recountLikes(tx, target, targetID)
	})
}

// ReactionSummary counts the reactions on a target by type.
func (s *ReactionService) ReactionSummary(ctx context.Context, target models.TargetType, targetID uint) (map[string]int64, error) {
	var rows []struct {
		Type  string
		Count int64
	}
	err := s.db.WithContext(ctx).Model(&models.Reaction{}).
		Select("type, COUNT(*) AS count").
		Where("reactable_type = ? AND reactable_id = ?", target, targetID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Type] = r.Count
	}
	return out, nil
}
