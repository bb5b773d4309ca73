package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	calls []models.Report
	err   error
}

func (n *recordingNotifier) ReportResolved(_ context.Context, _ models.User, report models.Report) error {
	n.calls = append(n.calls, report)
	return n.err
}

type moderationFixture struct {
	db       *gorm.DB
	svc      *ModerationService
	mod      models.User
	member   models.User
	product  models.FoodProduct
	review   models.Review
	notifier *recordingNotifier
}

func newModerationFixture(t *testing.T) *moderationFixture {
	t.Helper()
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	author := seedUser(t, db, "author", models.RoleMember)
	product := seedProduct(t, db, "Cold Brew")
	return &moderationFixture{
		db:       db,
		svc:      newModeration(db, notifier),
		mod:      seedUser(t, db, "mod", models.RoleModerator),
		member:   seedUser(t, db, "member", models.RoleMember),
		product:  product,
		review:   seedReview(t, db, author, product, 4),
		notifier: notifier,
	}
}

func (f *moderationFixture) fileReport(t *testing.T) *models.Report {
	t.Helper()
	report, err := f.svc.FileReport(context.Background(), f.member.ID, models.CreateReportRequest{
		ReportableType: models.TargetReview,
		ReportableID:   f.review.ID,
		Category:       models.CategorySpam,
		Reason:         "link farm",
	})
	require.NoError(t, err)
	return report
}

func (f *moderationFixture) logs(t *testing.T) []models.ModerationLog {
	t.Helper()
	var logs []models.ModerationLog
	require.NoError(t, f.db.Order("id ASC").Find(&logs).Error)
	return logs
}

func TestReportStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to models.ReportStatus
		ok       bool
	}{
		{models.ReportPending, models.ReportReviewed, true},
		{models.ReportPending, models.ReportActionTaken, true},
		{models.ReportPending, models.ReportDismissed, true},
		{models.ReportReviewed, models.ReportActionTaken, true},
		{models.ReportReviewed, models.ReportDismissed, true},
		{models.ReportReviewed, models.ReportReviewed, true},
		{models.ReportPending, models.ReportPending, false},
		{models.ReportActionTaken, models.ReportReviewed, false},
		{models.ReportActionTaken, models.ReportDismissed, false},
		{models.ReportDismissed, models.ReportActionTaken, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
}

func TestFileReport(t *testing.T) {
	ctx := context.Background()

	t.Run("does not deduplicate or hide", func(t *testing.T) {
		f := newModerationFixture(t)
		first := f.fileReport(t)
		second := f.fileReport(t)
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, models.ReportPending, second.Status)

		review := reload[models.Review](t, f.db, f.review.ID)
		assert.False(t, review.IsHidden)
		assert.Empty(t, f.logs(t))
	})

	t.Run("unknown target", func(t *testing.T) {
		f := newModerationFixture(t)
		_, err := f.svc.FileReport(ctx, f.member.ID, models.CreateReportRequest{
			ReportableType: models.TargetComment,
			ReportableID:   999,
			Category:       models.CategoryHarassment,
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("users and lists are reportable", func(t *testing.T) {
		f := newModerationFixture(t)
		report, err := f.svc.FileReport(ctx, f.member.ID, models.CreateReportRequest{
			ReportableType: models.TargetUser,
			ReportableID:   f.mod.ID,
			Category:       models.CategoryMisinformation,
		})
		require.NoError(t, err)
		assert.Equal(t, models.TargetUser, report.ReportableType)
	})

	t.Run("unknown category", func(t *testing.T) {
		f := newModerationFixture(t)
		_, err := f.svc.FileReport(ctx, f.member.ID, models.CreateReportRequest{
			ReportableType: models.TargetReview,
			ReportableID:   f.review.ID,
			Category:       "boring",
		})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})
}

func TestResolveReport(t *testing.T) {
	ctx := context.Background()

	t.Run("pending to reviewed to action taken", func(t *testing.T) {
		f := newModerationFixture(t)
		report := f.fileReport(t)

		got, err := f.svc.ResolveReport(ctx, report.ID, f.mod.ID, models.ResolveReportRequest{Status: models.ReportReviewed})
		require.NoError(t, err)
		assert.Equal(t, models.ReportReviewed, got.Status)
		require.NotNil(t, got.ReviewedBy)
		assert.Equal(t, f.mod.ID, *got.ReviewedBy)
		assert.NotNil(t, got.ReviewedAt)

		got, err = f.svc.ResolveReport(ctx, report.ID, f.mod.ID, models.ResolveReportRequest{Status: models.ReportActionTaken, Notes: "removed"})
		require.NoError(t, err)
		assert.Equal(t, models.ReportActionTaken, got.Status)

		stored := reload[models.Report](t, f.db, report.ID)
		assert.Equal(t, models.ReportActionTaken, stored.Status)
		assert.Equal(t, "removed", stored.ModeratorNotes)
		assert.Len(t, f.notifier.calls, 2)
	})

	t.Run("terminal reports are frozen", func(t *testing.T) {
		f := newModerationFixture(t)
		report := f.fileReport(t)
		_, err := f.svc.ResolveReport(ctx, report.ID, f.mod.ID, models.ResolveReportRequest{Status: models.ReportActionTaken})
		require.NoError(t, err)

		_, err = f.svc.ResolveReport(ctx, report.ID, f.mod.ID, models.ResolveReportRequest{Status: models.ReportDismissed})
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, models.ReportActionTaken, reload[models.Report](t, f.db, report.ID).Status)
	})

	t.Run("pending is not a resolution", func(t *testing.T) {
		f := newModerationFixture(t)
		report := f.fileReport(t)
		_, err := f.svc.ResolveReport(ctx, report.ID, f.mod.ID, models.ResolveReportRequest{Status: models.ReportPending})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("members cannot resolve", func(t *testing.T) {
		f := newModerationFixture(t)
		report := f.fileReport(t)
		_, err := f.svc.ResolveReport(ctx, report.ID, f.member.ID, models.ResolveReportRequest{Status: models.ReportDismissed})
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, models.ReportPending, reload[models.Report](t, f.db, report.ID).Status)
	})

	t.Run("unknown report", func(t *testing.T) {
		f := newModerationFixture(t)
		_, err := f.svc.ResolveReport(ctx, 404, f.mod.ID, models.ResolveReportRequest{Status: models.ReportDismissed})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("dismissal is logged", func(t *testing.T) {
		f := newModerationFixture(t)
		report := f.fileReport(t)
		_, err := f.svc.ResolveReport(ctx, report.ID, f.mod.ID, models.ResolveReportRequest{Status: models.ReportDismissed, Notes: "fine"})
		require.NoError(t, err)

		logs := f.logs(t)
		require.Len(t, logs, 1)
		assert.Equal(t, models.ActionDismissReport, logs[0].Action)
		assert.Equal(t, models.TargetReview, logs[0].ModeratableType)
		assert.Equal(t, f.review.ID, logs[0].ModeratableID)
		// JSONMap decodes numbers as json.Number
		assert.Equal(t, json.Number(strconv.FormatUint(uint64(report.ID), 10)), logs[0].Metadata["report_id"])
	})

	t.Run("notifier failure does not fail resolution", func(t *testing.T) {
		f := newModerationFixture(t)
		f.notifier.err = errors.New("smtp down")
		report := f.fileReport(t)

		got, err := f.svc.ResolveReport(ctx, report.ID, f.mod.ID, models.ResolveReportRequest{Status: models.ReportDismissed})
		require.NoError(t, err)
		assert.Equal(t, models.ReportDismissed, got.Status)
		require.Len(t, f.notifier.calls, 1)
		assert.Equal(t, report.ID, f.notifier.calls[0].ID)
	})
}

func TestHideAndRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("every action is logged", func(t *testing.T) {
		f := newModerationFixture(t)
		in := ModerationInput{
			ModeratorID: f.mod.ID,
			TargetType:  models.TargetReview,
			TargetID:    f.review.ID,
			Reason:      "spam",
			RequesterIP: "203.0.113.7",
		}
		require.NoError(t, f.svc.HideContent(ctx, in))
		require.NoError(t, f.svc.HideContent(ctx, in))

		review := reload[models.Review](t, f.db, f.review.ID)
		assert.True(t, review.IsHidden)
		require.NotNil(t, review.HiddenBy)
		assert.Equal(t, f.mod.ID, *review.HiddenBy)
		assert.Equal(t, "spam", review.HiddenReason)

		require.NoError(t, f.svc.RestoreContent(ctx, in))
		review = reload[models.Review](t, f.db, f.review.ID)
		assert.False(t, review.IsHidden)
		assert.Nil(t, review.HiddenBy)
		assert.Nil(t, review.HiddenAt)

		logs := f.logs(t)
		require.Len(t, logs, 3)
		assert.Equal(t, models.ActionHide, logs[0].Action)
		assert.Equal(t, models.ActionHide, logs[1].Action)
		assert.Equal(t, models.ActionRestore, logs[2].Action)
		assert.Equal(t, "203.0.113.7", logs[0].Metadata["ip"])
	})

	t.Run("products can be hidden", func(t *testing.T) {
		f := newModerationFixture(t)
		require.NoError(t, f.svc.HideContent(ctx, ModerationInput{
			ModeratorID: f.mod.ID, TargetType: models.TargetFoodProduct, TargetID: f.product.ID,
		}))
		assert.True(t, reload[models.FoodProduct](t, f.db, f.product.ID).IsHidden)

		_, err := NewProductService(f.db).GetProduct(ctx, f.product.ID, OnlyVisible)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("users cannot be hidden", func(t *testing.T) {
		f := newModerationFixture(t)
		err := f.svc.HideContent(ctx, ModerationInput{
			ModeratorID: f.mod.ID, TargetType: models.TargetUser, TargetID: f.member.ID,
		})
		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.Empty(t, f.logs(t))
	})

	t.Run("members are forbidden", func(t *testing.T) {
		f := newModerationFixture(t)
		err := f.svc.HideContent(ctx, ModerationInput{
			ModeratorID: f.member.ID, TargetType: models.TargetReview, TargetID: f.review.ID,
		})
		assert.ErrorIs(t, err, ErrForbidden)
		assert.False(t, reload[models.Review](t, f.db, f.review.ID).IsHidden)
	})

	t.Run("inactive moderators are forbidden", func(t *testing.T) {
		f := newModerationFixture(t)
		require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", f.mod.ID).Update("is_active", false).Error)
		err := f.svc.HideContent(ctx, ModerationInput{
			ModeratorID: f.mod.ID, TargetType: models.TargetReview, TargetID: f.review.ID,
		})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown target", func(t *testing.T) {
		f := newModerationFixture(t)
		err := f.svc.HideContent(ctx, ModerationInput{
			ModeratorID: f.mod.ID, TargetType: models.TargetComment, TargetID: 999,
		})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Empty(t, f.logs(t))
	})

	t.Run("hidden comment leaves the review count", func(t *testing.T) {
		f := newModerationFixture(t)
		comment, err := NewCommentService(f.db).AddComment(ctx, f.member.ID, models.TargetReview, f.review.ID, models.CreateCommentRequest{Content: "agreed"})
		require.NoError(t, err)
		assert.Equal(t, 1, reload[models.Review](t, f.db, f.review.ID).CommentsCount)

		require.NoError(t, f.svc.HideContent(ctx, ModerationInput{
			ModeratorID: f.mod.ID, TargetType: models.TargetComment, TargetID: comment.ID,
		}))
		assert.Equal(t, 0, reload[models.Review](t, f.db, f.review.ID).CommentsCount)
	})
}

func TestDeleteContent(t *testing.T) {
	ctx := context.Background()

	t.Run("review deletion refreshes rating", func(t *testing.T) {
		f := newModerationFixture(t)
		seedReview(t, f.db, f.member, f.product, 2)
		assertRating(t, f.db, f.product.ID, "3.00", 2)

		require.NoError(t, f.svc.DeleteContent(ctx, ModerationInput{
			ModeratorID: f.mod.ID, TargetType: models.TargetReview, TargetID: f.review.ID, Reason: "abuse",
		}))
		assertRating(t, f.db, f.product.ID, "2.00", 1)

		var count int64
		require.NoError(t, f.db.Model(&models.Review{}).Where("id = ?", f.review.ID).Count(&count).Error)
		assert.Zero(t, count)

		logs := f.logs(t)
		require.Len(t, logs, 1)
		assert.Equal(t, models.ActionDelete, logs[0].Action)
		assert.Equal(t, "abuse", logs[0].Reason)
	})

	t.Run("products are not deletable by moderators", func(t *testing.T) {
		f := newModerationFixture(t)
		err := f.svc.DeleteContent(ctx, ModerationInput{
			ModeratorID: f.mod.ID, TargetType: models.TargetFoodProduct, TargetID: f.product.ID,
		})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})
}

func TestModerationLogIsAppendOnly(t *testing.T) {
	f := newModerationFixture(t)
	require.NoError(t, f.svc.HideContent(context.Background(), ModerationInput{
		ModeratorID: f.mod.ID, TargetType: models.TargetReview, TargetID: f.review.ID, Reason: "spam",
	}))
	entry := f.logs(t)[0]

	err := f.db.Model(&entry).Update("reason", "nothing happened").Error
	assert.ErrorIs(t, err, models.ErrModerationLogImmutable)

	err = f.db.Delete(&entry).Error
	assert.ErrorIs(t, err, models.ErrModerationLogImmutable)

	assert.Equal(t, "spam", f.logs(t)[0].Reason)
}

func TestListReportsAndLogs(t *testing.T) {
	ctx := context.Background()
	f := newModerationFixture(t)
	first := f.fileReport(t)
	f.fileReport(t)
	_, err := f.svc.ResolveReport(ctx, first.ID, f.mod.ID, models.ResolveReportRequest{Status: models.ReportDismissed})
	require.NoError(t, err)

	page, err := f.svc.ListReports(ctx, f.mod.ID, ReportFilter{Status: models.ReportPending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	page, err = f.svc.ListReports(ctx, f.mod.ID, ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	reports := page.Items.([]models.Report)
	assert.Equal(t, first.ID, reports[0].ID)

	_, err = f.svc.ListReports(ctx, f.member.ID, ReportFilter{})
	assert.ErrorIs(t, err, ErrForbidden)

	logs, err := f.svc.ListModerationLogs(ctx, f.mod.ID, LogFilter{TargetType: models.TargetReview, TargetID: f.review.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), logs.Total)
}
