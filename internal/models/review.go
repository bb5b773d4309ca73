package models

import (
	"time"

	"gorm.io/datatypes"
)

type Review struct {
	ID            uint                        `json:"id" gorm:"primaryKey"`
	UserID        uint                        `json:"user_id" gorm:"not null;uniqueIndex:idx_review_user_product"`
	FoodProductID uint                        `json:"food_product_id" gorm:"not null;uniqueIndex:idx_review_user_product;index"`
	Rating        int                         `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Content       string                      `json:"content" gorm:"type:text;not null"`
	Images        datatypes.JSONSlice[string] `json:"images"`
	LikesCount    int                         `json:"likes_count" gorm:"not null;default:0"`
	CommentsCount int                         `json:"comments_count" gorm:"not null;default:0"`

	Visibility

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User        *User        `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	FoodProduct *FoodProduct `json:"food_product,omitempty" gorm:"foreignKey:FoodProductID;constraint:OnDelete:CASCADE"`
	Comments    []Comment    `json:"comments,omitempty" gorm:"-"`
}

// Comment hangs off a review or, for replies, another comment.
type Comment struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	UserID          uint       `json:"user_id" gorm:"not null;index"`
	CommentableType TargetType `json:"commentable_type" gorm:"size:20;not null;index:idx_comment_target"`
	CommentableID   uint       `json:"commentable_id" gorm:"not null;index:idx_comment_target"`
	Content         string     `json:"content" gorm:"type:text;not null"`
	LikesCount      int        `json:"likes_count" gorm:"not null;default:0"`

	Visibility

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User    *User     `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Replies []Comment `json:"replies,omitempty" gorm:"-"`
}

const (
	ReactionLike    = "like"
	ReactionLove    = "love"
	ReactionHelpful = "helpful"
	ReactionLaugh   = "laugh"
)

type Reaction struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	UserID        uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_reaction_user_target"`
	ReactableType TargetType `json:"reactable_type" gorm:"size:20;not null;uniqueIndex:idx_reaction_user_target;index:idx_reaction_target"`
	ReactableID   uint       `json:"reactable_id" gorm:"not null;uniqueIndex:idx_reaction_user_target;index:idx_reaction_target"`
	Type          string     `json:"type" gorm:"size:20;not null"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Request DTOs
type CreateReviewRequest struct {
	FoodProductID uint     `json:"food_product_id" validate:"required"`
	Rating        int      `json:"rating" validate:"required,min=1,max=5"`
	Content       string   `json:"content" validate:"required,min=10"`
	Images        []string `json:"images" validate:"max=5,dive,url"`
}

type UpdateReviewRequest struct {
	Rating  *int      `json:"rating" validate:"omitempty,min=1,max=5"`
	Content *string   `json:"content" validate:"omitempty,min=10"`
	Images  *[]string `json:"images" validate:"omitempty,max=5,dive,url"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

type ReactRequest struct {
	Type string `json:"type" validate:"required,oneof=like love helpful laugh"`
}
