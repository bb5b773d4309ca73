package models

import "time"

type FoodList struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text"`
	IsPublic    bool      `json:"is_public" gorm:"not null;default:false"`
	ItemsCount  int       `json:"items_count" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	User  *User          `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Items []FoodListItem `json:"items,omitempty" gorm:"foreignKey:FoodListID"`
}

// FoodListItem is ordered by Position, never by insertion.
type FoodListItem struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	FoodListID    uint      `json:"food_list_id" gorm:"not null;uniqueIndex:idx_list_product"`
	FoodProductID uint      `json:"food_product_id" gorm:"not null;uniqueIndex:idx_list_product"`
	Notes         string    `json:"notes" gorm:"type:text"`
	Position      int       `json:"position" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	FoodList    *FoodList    `json:"-" gorm:"foreignKey:FoodListID;constraint:OnDelete:CASCADE"`
	FoodProduct *FoodProduct `json:"food_product,omitempty" gorm:"foreignKey:FoodProductID;constraint:OnDelete:CASCADE"`
}

// Request DTOs
type FoodListRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	IsPublic    *bool  `json:"is_public"`
}

type AddListItemRequest struct {
	FoodProductID uint   `json:"food_product_id" validate:"required"`
	Notes         string `json:"notes" validate:"max=1000"`
	Position      *int   `json:"position" validate:"omitempty,min=0"`
}

type UpdateListItemRequest struct {
	Notes    *string `json:"notes" validate:"omitempty,max=1000"`
	Position *int    `json:"position" validate:"omitempty,min=0"`
}

type ReorderListRequest struct {
	ItemIDs []uint `json:"item_ids" validate:"required,min=1"`
}
