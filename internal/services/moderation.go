package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
	"github.com/princeprakhar/foodnetwork-backend/pkg/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Authorizer answers whether a user holds the moderator privilege.
type Authorizer interface {
	IsModerator(ctx context.Context, userID uint) (bool, error)
}

// ReportNotifier tells a reporter that a moderator resolved their report.
type ReportNotifier interface {
	ReportResolved(ctx context.Context, reporter models.User, report models.Report) error
}

// contentKind is one row of the dispatch table that resolves a polymorphic
// (type, id) reference to its table and to the follow-up work a change needs.
type contentKind struct {
	model    func() interface{}
	hideable bool

	// visibilityChanged refreshes whatever caches the target's visibility feeds.
	visibilityChanged func(tx *gorm.DB, id uint) error

	// remove deletes the target and its dependents; nil when moderators cannot delete it.
	remove func(tx *gorm.DB, id uint) error
}

func contentKinds() map[models.TargetType]contentKind {
	return map[models.TargetType]contentKind{
		models.TargetReview: {
			model:             func() interface{} { return &models.Review{} },
			hideable:          true,
			visibilityChanged: reviewVisibilityChanged,
			remove:            removeReview,
		},
		models.TargetComment: {
			model:             func() interface{} { return &models.Comment{} },
			hideable:          true,
			visibilityChanged: commentVisibilityChanged,
			remove:            removeComment,
		},
		models.TargetFoodProduct: {
			model:             func() interface{} { return &models.FoodProduct{} },
			hideable:          true,
			visibilityChanged: func(*gorm.DB, uint) error { return nil },
		},
		models.TargetUser: {
			model: func() interface{} { return &models.User{} },
		},
		models.TargetFoodList: {
			model: func() interface{} { return &models.FoodList{} },
		},
	}
}

func reviewVisibilityChanged(tx *gorm.DB, id uint) error {
	var review models.Review
	if err := tx.Select("id", "food_product_id").First(&review, id).Error; err != nil {
		return err
	}
	return recomputeRating(tx, review.FoodProductID)
}

func commentVisibilityChanged(tx *gorm.DB, id uint) error {
	var comment models.Comment
	if err := tx.Select("id", "commentable_type", "commentable_id").First(&comment, id).Error; err != nil {
		return err
	}
	if comment.CommentableType != models.TargetReview {
		return nil
	}
	return recountReviewComments(tx, comment.CommentableID)
}

func removeReview(tx *gorm.DB, id uint) error {
	var review models.Review
	if err := tx.First(&review, id).Error; err != nil {
		return err
	}
	return deleteReviewTx(tx, &review)
}

func removeComment(tx *gorm.DB, id uint) error {
	var comment models.Comment
	if err := tx.First(&comment, id).Error; err != nil {
		return err
	}
	return deleteCommentTx(tx, &comment)
}

// ModerationInput names a moderator acting on one target.
type ModerationInput struct {
	ModeratorID uint
	TargetType  models.TargetType
	TargetID    uint
	Reason      string
	// RequesterIP is recorded in the log metadata when the caller knows it.
	RequesterIP string
}

type ModerationService struct {
	db       *gorm.DB
	auth     Authorizer
	notifier ReportNotifier
	kinds    map[models.TargetType]contentKind
}

// NewModerationService wires the engine. notifier may be nil.
func NewModerationService(db *gorm.DB, auth Authorizer, notifier ReportNotifier) *ModerationService {
	return &ModerationService{
		db:       db,
		auth:     auth,
		notifier: notifier,
		kinds:    contentKinds(),
	}
}

func (s *ModerationService) requireModerator(ctx context.Context, userID uint) error {
	ok, err := s.auth.IsModerator(ctx, userID)
	if err != nil {
		return fmt.Errorf("check moderator privilege: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: user %d is not a moderator", ErrForbidden, userID)
	}
	return nil
}

func (s *ModerationService) kind(t models.TargetType) (contentKind, error) {
	k, ok := s.kinds[t]
	if !ok {
		return contentKind{}, fieldError("target_type", fmt.Sprintf("unsupported target type %q", t))
	}
	return k, nil
}

// exists reports whether the target row is present, locking it when asked.
func (k contentKind) exists(tx *gorm.DB, id uint, lock bool) (bool, error) {
	q := tx
	if lock {
		q = lockForUpdate(tx)
	}
	err := q.Select("id").Take(k.model(), id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// FileReport records a pending report against any reportable target. It never
// touches the target's visibility and does not deduplicate.
func (s *ModerationService) FileReport(ctx context.Context, reporterID uint, req models.CreateReportRequest) (*models.Report, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	k, err := s.kind(req.ReportableType)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	found, err := k.exists(db, req.ReportableID, false)
	if err != nil {
		return nil, fmt.Errorf("look up %s %d: %w", req.ReportableType, req.ReportableID, err)
	}
	if !found {
		return nil, notFound(string(req.ReportableType), req.ReportableID)
	}

	report := models.Report{
		UserID:         reporterID,
		ReportableType: req.ReportableType,
		ReportableID:   req.ReportableID,
		Category:       req.Category,
		Reason:         req.Reason,
		Status:         models.ReportPending,
	}
	if err := db.Create(&report).Error; err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"report_id":   report.ID,
		"reporter_id": reporterID,
		"target_type": report.ReportableType,
		"target_id":   report.ReportableID,
		"category":    report.Category,
	}).Info("report filed")
	return &report, nil
}

// ResolveReport moves a report out of pending or reviewed and stamps the
// moderator. Terminal reports are immutable. Dismissing a report also appends a
// dismiss_report entry to the moderation log.
func (s *ModerationService) ResolveReport(ctx context.Context, reportID, moderatorID uint, req models.ResolveReportRequest) (*models.Report, error) {
	if err := s.requireModerator(ctx, moderatorID); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	var report models.Report
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Preload("Reporter").First(&report, reportID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("report", reportID)
			}
			return err
		}
		if !report.Status.CanTransition(req.Status) {
			return fmt.Errorf("%w: report %d is %s, cannot become %s", ErrInvalidTransition, report.ID, report.Status, req.Status)
		}

		now := time.Now()
		err := tx.Model(&report).Updates(map[string]interface{}{
			"status":          req.Status,
			"reviewed_by":     moderatorID,
			"reviewed_at":     now,
			"moderator_notes": req.Notes,
		}).Error
		if err != nil {
			return fmt.Errorf("update report: %w", err)
		}
		report.Status = req.Status
		report.ReviewedBy = &moderatorID
		report.ReviewedAt = &now
		report.ModeratorNotes = req.Notes

		if req.Status == models.ReportDismissed {
			return appendLog(tx, models.ModerationLog{
				ModeratorID:     moderatorID,
				Action:          models.ActionDismissReport,
				ModeratableType: report.ReportableType,
				ModeratableID:   report.ReportableID,
				Reason:          req.Notes,
				Metadata:        datatypes.JSONMap{"report_id": report.ID},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"report_id":    report.ID,
		"moderator_id": moderatorID,
		"status":       report.Status,
	}).Info("report resolved")

	if s.notifier != nil && report.Reporter != nil {
		if err := s.notifier.ReportResolved(ctx, *report.Reporter, report); err != nil {
			logger.WithFields(logrus.Fields{"report_id": report.ID}).Warnf("notify reporter: %v", err)
		}
	}
	return &report, nil
}

// HideContent marks the target hidden and logs a hide action. Hiding an
// already hidden target refreshes the audit fields and still logs.
func (s *ModerationService) HideContent(ctx context.Context, in ModerationInput) error {
	now := time.Now()
	return s.setVisibility(ctx, in, models.ActionHide, map[string]interface{}{
		"is_hidden":     true,
		"hidden_at":     now,
		"hidden_by":     in.ModeratorID,
		"hidden_reason": in.Reason,
	})
}

// RestoreContent clears the hidden state and logs a restore action.
func (s *ModerationService) RestoreContent(ctx context.Context, in ModerationInput) error {
	return s.setVisibility(ctx, in, models.ActionRestore, map[string]interface{}{
		"is_hidden":     false,
		"hidden_at":     nil,
		"hidden_by":     nil,
		"hidden_reason": "",
	})
}

func (s *ModerationService) setVisibility(ctx context.Context, in ModerationInput, action models.ModerationAction, fields map[string]interface{}) error {
	if err := s.requireModerator(ctx, in.ModeratorID); err != nil {
		return err
	}
	k, err := s.kind(in.TargetType)
	if err != nil {
		return err
	}
	if !k.hideable {
		return fieldError("target_type", fmt.Sprintf("%s cannot be hidden", in.TargetType))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := k.exists(tx, in.TargetID, true)
		if err != nil {
			return err
		}
		if !found {
			return notFound(string(in.TargetType), in.TargetID)
		}
		if err := tx.Model(k.model()).Where("id = ?", in.TargetID).Updates(fields).Error; err != nil {
			return fmt.Errorf("update %s %d: %w", in.TargetType, in.TargetID, err)
		}
		if err := k.visibilityChanged(tx, in.TargetID); err != nil {
			return err
		}
		return appendLog(tx, newLog(in, action))
	})
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"moderator_id": in.ModeratorID,
		"action":       action,
		"target_type":  in.TargetType,
		"target_id":    in.TargetID,
	}).Info("content moderated")
	return nil
}

// DeleteContent removes a review or comment for good and logs a delete action.
func (s *ModerationService) DeleteContent(ctx context.Context, in ModerationInput) error {
	if err := s.requireModerator(ctx, in.ModeratorID); err != nil {
		return err
	}
	k, err := s.kind(in.TargetType)
	if err != nil {
		return err
	}
	if k.remove == nil {
		return fieldError("target_type", fmt.Sprintf("%s cannot be deleted by a moderator", in.TargetType))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := k.exists(tx, in.TargetID, true)
		if err != nil {
			return err
		}
		if !found {
			return notFound(string(in.TargetType), in.TargetID)
		}
		if err := k.remove(tx, in.TargetID); err != nil {
			return fmt.Errorf("delete %s %d: %w", in.TargetType, in.TargetID, err)
		}
		return appendLog(tx, newLog(in, models.ActionDelete))
	})
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"moderator_id": in.ModeratorID,
		"target_type":  in.TargetType,
		"target_id":    in.TargetID,
	}).Info("content deleted")
	return nil
}

type ReportFilter struct {
	Status models.ReportStatus `form:"status"`
	Page
}

// ListReports is the moderator queue, oldest first within the requested status.
func (s *ModerationService) ListReports(ctx context.Context, moderatorID uint, filter ReportFilter) (*utils.PaginatedData, error) {
	if err := s.requireModerator(ctx, moderatorID); err != nil {
		return nil, err
	}
	page := filter.Page.normalize(DefaultPageSize)

	q := s.db.WithContext(ctx).Model(&models.Report{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}

	reports := []models.Report{}
	err := q.Preload("Reporter").
		Order("created_at ASC").Order("id ASC").
		Limit(page.PageSize).Offset(page.offset()).
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return paginated(reports, total, page), nil
}

type LogFilter struct {
	ModeratorID uint              `form:"moderator_id"`
	TargetType  models.TargetType `form:"target_type"`
	TargetID    uint              `form:"target_id"`
	Page
}

// ListModerationLogs returns audit entries, newest first.
func (s *ModerationService) ListModerationLogs(ctx context.Context, moderatorID uint, filter LogFilter) (*utils.PaginatedData, error) {
	if err := s.requireModerator(ctx, moderatorID); err != nil {
		return nil, err
	}
	page := filter.Page.normalize(DefaultPageSize)

	q := s.db.WithContext(ctx).Model(&models.ModerationLog{})
	if filter.ModeratorID != 0 {
		q = q.Where("moderator_id = ?", filter.ModeratorID)
	}
	if filter.TargetType != "" {
		q = q.Where("moderatable_type = ?", filter.TargetType)
	}
	if filter.TargetID != 0 {
		q = q.Where("moderatable_id = ?", filter.TargetID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count moderation logs: %w", err)
	}

	logs := []models.ModerationLog{}
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(page.PageSize).Offset(page.offset()).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list moderation logs: %w", err)
	}
	return paginated(logs, total, page), nil
}

func newLog(in ModerationInput, action models.ModerationAction) models.ModerationLog {
	meta := datatypes.JSONMap{}
	if in.RequesterIP != "" {
		meta["ip"] = in.RequesterIP
	}
	return models.ModerationLog{
		ModeratorID:     in.ModeratorID,
		Action:          action,
		ModeratableType: in.TargetType,
		ModeratableID:   in.TargetID,
		Reason:          in.Reason,
		Metadata:        meta,
	}
}

// appendLog is the only way rows reach the moderation log.
func appendLog(tx *gorm.DB, entry models.ModerationLog) error {
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("append moderation log: %w", err)
	}
	return nil
}
