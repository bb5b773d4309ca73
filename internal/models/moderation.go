package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TargetType tags the entity a polymorphic (type, id) reference points at.
type TargetType string

const (
	TargetReview      TargetType = "review"
	TargetComment     TargetType = "comment"
	TargetFoodProduct TargetType = "food_product"
	TargetUser        TargetType = "user"
	TargetFoodList    TargetType = "food_list"
)

type ReportStatus string

const (
	ReportPending     ReportStatus = "pending"
	ReportReviewed    ReportStatus = "reviewed"
	ReportActionTaken ReportStatus = "action_taken"
	ReportDismissed   ReportStatus = "dismissed"
)

// IsTerminal reports whether no further transition is allowed out of s.
func (s ReportStatus) IsTerminal() bool {
	return s == ReportActionTaken || s == ReportDismissed
}

// CanTransition reports whether a report in state s may move to next.
func (s ReportStatus) CanTransition(next ReportStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch next {
	case ReportReviewed, ReportActionTaken, ReportDismissed:
		return s == ReportPending || s == ReportReviewed
	}
	return false
}

const (
	CategorySpam           = "spam"
	CategoryInappropriate  = "inappropriate"
	CategoryHarassment     = "harassment"
	CategoryMisinformation = "misinformation"
)

type Report struct {
	ID             uint         `json:"id" gorm:"primaryKey"`
	UserID         uint         `json:"user_id" gorm:"not null;index"`
	ReportableType TargetType   `json:"reportable_type" gorm:"size:20;not null;index:idx_report_target"`
	ReportableID   uint         `json:"reportable_id" gorm:"not null;index:idx_report_target"`
	Category       string       `json:"category" gorm:"size:30;not null"`
	Reason         string       `json:"reason" gorm:"type:text"`
	Status         ReportStatus `json:"status" gorm:"size:20;not null;default:pending;index"`
	ReviewedBy     *uint        `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time   `json:"reviewed_at,omitempty"`
	ModeratorNotes string       `json:"moderator_notes,omitempty" gorm:"type:text"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`

	Reporter *User `json:"reporter,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

type ModerationAction string

const (
	ActionHide          ModerationAction = "hide"
	ActionDelete        ModerationAction = "delete"
	ActionRestore       ModerationAction = "restore"
	ActionDismissReport ModerationAction = "dismiss_report"
)

var ErrModerationLogImmutable = errors.New("moderation log entries cannot be modified")

// ModerationLog is an append-only audit trail of moderator actions.
type ModerationLog struct {
	ID              uint              `json:"id" gorm:"primaryKey"`
	ModeratorID     uint              `json:"moderator_id" gorm:"not null;index"`
	Action          ModerationAction  `json:"action" gorm:"size:20;not null"`
	ModeratableType TargetType        `json:"moderatable_type" gorm:"size:20;not null;index:idx_modlog_target"`
	ModeratableID   uint              `json:"moderatable_id" gorm:"not null;index:idx_modlog_target"`
	Reason          string            `json:"reason" gorm:"type:text"`
	Metadata        datatypes.JSONMap `json:"metadata"`
	CreatedAt       time.Time         `json:"created_at"`
}

func (l *ModerationLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrModerationLogImmutable
}

func (l *ModerationLog) BeforeDelete(tx *gorm.DB) error {
	return ErrModerationLogImmutable
}

// Request DTOs
type CreateReportRequest struct {
	ReportableType TargetType `json:"reportable_type" validate:"required,oneof=review comment food_product user food_list"`
	ReportableID   uint       `json:"reportable_id" validate:"required"`
	Category       string     `json:"category" validate:"required,oneof=spam inappropriate harassment misinformation"`
	Reason         string     `json:"reason" validate:"max=1000"`
}

type ResolveReportRequest struct {
	Status ReportStatus `json:"status" validate:"required,oneof=reviewed action_taken dismissed"`
	Notes  string       `json:"notes" validate:"max=1000"`
}

type ModerationActionRequest struct {
	TargetType TargetType `json:"target_type" validate:"required,oneof=review comment food_product"`
	TargetID   uint       `json:"target_id" validate:"required"`
	Reason     string     `json:"reason" validate:"max=1000"`
}
