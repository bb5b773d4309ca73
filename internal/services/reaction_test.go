package services

import (
	"context"
	"testing"

	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactReplacesType(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := seedUser(t, db, "author", models.RoleMember)
	fan := seedUser(t, db, "fan", models.RoleMember)
	other := seedUser(t, db, "other", models.RoleMember)
	review := seedReview(t, db, author, seedProduct(t, db, "Sourdough"), 5)
	reactions := NewReactionService(db)

	first, err := reactions.React(ctx, fan.ID, models.TargetReview, review.ID, models.ReactRequest{Type: models.ReactionLike})
	require.NoError(t, err)
	second, err := reactions.React(ctx, fan.ID, models.TargetReview, review.ID, models.ReactRequest{Type: models.ReactionLove})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.ReactionLove, second.Type)
	assert.Equal(t, 1, reload[models.Review](t, db, review.ID).LikesCount)

	_, err = reactions.React(ctx, other.ID, models.TargetReview, review.ID, models.ReactRequest{Type: models.ReactionLove})
	require.NoError(t, err)
	assert.Equal(t, 2, reload[models.Review](t, db, review.ID).LikesCount)

	summary, err := reactions.ReactionSummary(ctx, models.TargetReview, review.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{models.ReactionLove: 2}, summary)

	require.NoError(t, reactions.RemoveReaction(ctx, fan.ID, models.TargetReview, review.ID))
	require.NoError(t, reactions.RemoveReaction(ctx, fan.ID, models.TargetReview, review.ID))
	assert.Equal(t, 1, reload[models.Review](t, db, review.ID).LikesCount)
}

func TestReactRejects(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	mod := seedUser(t, db, "mod", models.RoleModerator)
	author := seedUser(t, db, "author", models.RoleMember)
	review := seedReview(t, db, author, seedProduct(t, db, "Ghee"), 2)
	reactions := NewReactionService(db)

	_, err := reactions.React(ctx, author.ID, models.TargetReview, review.ID, models.ReactRequest{Type: "angry"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = reactions.React(ctx, author.ID, models.TargetFoodList, 1, models.ReactRequest{Type: models.ReactionLike})
	assert.ErrorIs(t, err, ErrValidationFailed)

	require.NoError(t, newModeration(db, nil).HideContent(ctx, ModerationInput{
		ModeratorID: mod.ID, TargetType: models.TargetReview, TargetID: review.ID,
	}))
	_, err = reactions.React(ctx, author.ID, models.TargetReview, review.ID, models.ReactRequest{Type: models.ReactionLike})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReactionSummaryEmpty(t *testing.T) {
	db := newTestDB(t)
	summary, err := NewReactionService(db).ReactionSummary(context.Background(), models.TargetComment, 42)
	require.NoError(t, err)
	assert.Empty(t, summary)
}
