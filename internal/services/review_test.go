package services

import (
	"context"
	"testing"

	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReview(t *testing.T) {
	ctx := context.Background()

	t.Run("one review per user and product", func(t *testing.T) {
		db := newTestDB(t)
		author := seedUser(t, db, "author", models.RoleMember)
		product := seedProduct(t, db, "Kombucha")
		seedReview(t, db, author, product, 4)

		_, err := NewReviewService(db, nil).CreateReview(ctx, author.ID, models.CreateReviewRequest{
			FoodProductID: product.ID,
			Rating:        2,
			Content:       "Changed my mind about this one.",
		})
		assert.ErrorIs(t, err, ErrDuplicate)
		assertRating(t, db, product.ID, "4.00", 1)
	})

	t.Run("hidden product is not reviewable", func(t *testing.T) {
		db := newTestDB(t)
		author := seedUser(t, db, "author", models.RoleMember)
		product := seedProduct(t, db, "Seitan")
		require.NoError(t, db.Model(&models.FoodProduct{}).Where("id = ?", product.ID).Update("is_hidden", true).Error)

		_, err := NewReviewService(db, nil).CreateReview(ctx, author.ID, models.CreateReviewRequest{
			FoodProductID: product.ID,
			Rating:        3,
			Content:       "Could not find it on the shelf.",
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rejects out of range rating", func(t *testing.T) {
		db := newTestDB(t)
		author := seedUser(t, db, "author", models.RoleMember)
		product := seedProduct(t, db, "Tofu")

		_, err := NewReviewService(db, nil).CreateReview(ctx, author.ID, models.CreateReviewRequest{
			FoodProductID: product.ID,
			Rating:        6,
			Content:       "Better than anything else.",
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.ErrorIs(t, err, ErrValidationFailed)
		assertRating(t, db, product.ID, "0.00", 0)
	})
}

func TestReviewOwnership(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := seedUser(t, db, "author", models.RoleMember)
	stranger := seedUser(t, db, "stranger", models.RoleMember)
	product := seedProduct(t, db, "Miso")
	review := seedReview(t, db, author, product, 5)
	reviews := NewReviewService(db, nil)

	rating := 1
	_, err := reviews.UpdateReview(ctx, stranger.ID, review.ID, models.UpdateReviewRequest{Rating: &rating})
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, reviews.DeleteReview(ctx, stranger.ID, review.ID), ErrForbidden)
	assert.ErrorIs(t, reviews.DeleteReview(ctx, author.ID, review.ID+100), ErrNotFound)
	assertRating(t, db, product.ID, "5.00", 1)
}

func TestDeleteReviewKeepsReportsAndRemovesThread(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := seedUser(t, db, "author", models.RoleMember)
	reader := seedUser(t, db, "reader", models.RoleMember)
	product := seedProduct(t, db, "Tempeh")
	review := seedReview(t, db, author, product, 3)

	comments := NewCommentService(db)
	parent, err := comments.AddComment(ctx, reader.ID, models.TargetReview, review.ID, models.CreateCommentRequest{Content: "Where did you buy it?"})
	require.NoError(t, err)
	_, err = comments.AddComment(ctx, author.ID, models.TargetComment, parent.ID, models.CreateCommentRequest{Content: "Corner shop."})
	require.NoError(t, err)
	_, err = NewReactionService(db).React(ctx, reader.ID, models.TargetReview, review.ID, models.ReactRequest{Type: models.ReactionHelpful})
	require.NoError(t, err)
	_, err = newModeration(db, nil).FileReport(ctx, reader.ID, models.CreateReportRequest{
		ReportableType: models.TargetReview,
		ReportableID:   review.ID,
		Category:       models.CategorySpam,
	})
	require.NoError(t, err)

	require.NoError(t, NewReviewService(db, nil).DeleteReview(ctx, author.ID, review.ID))

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.Reaction{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.Report{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assertRating(t, db, product.ID, "0.00", 0)
}

func TestGetReviewVisibility(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	mod := seedUser(t, db, "mod", models.RoleModerator)
	author := seedUser(t, db, "author", models.RoleMember)
	product := seedProduct(t, db, "Kefir")
	review := seedReview(t, db, author, product, 4)
	reviews := NewReviewService(db, nil)

	got, err := reviews.GetReview(ctx, review.ID, OnlyVisible)
	require.NoError(t, err)
	assert.Equal(t, review.ID, got.ID)
	assert.NotNil(t, got.User)

	require.NoError(t, newModeration(db, nil).HideContent(ctx, ModerationInput{
		ModeratorID: mod.ID, TargetType: models.TargetReview, TargetID: review.ID, Reason: "off topic",
	}))

	_, err = reviews.GetReview(ctx, review.ID, OnlyVisible)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = reviews.GetReview(ctx, review.ID, IncludeHidden)
	require.NoError(t, err)
	assert.True(t, got.IsHidden)

	page, err := reviews.ListProductReviews(ctx, product.ID, Page{}, OnlyVisible)
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)

	page, err = reviews.ListProductReviews(ctx, product.ID, Page{}, IncludeHidden)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}
