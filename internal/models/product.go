package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Visibility is the moderation state shared by every hideable entity.
// A row is visible when IsHidden is false; nothing cascades between rows.
type Visibility struct {
	IsHidden     bool       `json:"is_hidden" gorm:"not null;default:false;index"`
	HiddenAt     *time.Time `json:"hidden_at,omitempty"`
	HiddenBy     *uint      `json:"hidden_by,omitempty"`
	HiddenReason string     `json:"hidden_reason,omitempty" gorm:"type:text"`
}

type Company struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Description string    `json:"description" gorm:"type:text"`
	Website     string    `json:"website"`
	Country     string    `json:"country" gorm:"size:255"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Brands []Brand `json:"brands,omitempty" gorm:"foreignKey:CompanyID"`
}

type Brand struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CompanyID   uint      `json:"company_id" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text"`
	LogoURL     string    `json:"logo_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
}

type FoodProduct struct {
	ID                    uint                        `json:"id" gorm:"primaryKey"`
	BrandID               uint                        `json:"brand_id" gorm:"not null;index"`
	Name                  string                      `json:"name" gorm:"size:255;not null"`
	Description           string                      `json:"description" gorm:"type:text"`
	Ingredients           string                      `json:"ingredients" gorm:"type:text"`
	NutritionFacts        datatypes.JSONMap           `json:"nutrition_facts"`
	Allergens             datatypes.JSONSlice[string] `json:"allergens"`
	Certifications        datatypes.JSONSlice[string] `json:"certifications"`
	CountryOfOrigin       string                      `json:"country_of_origin" gorm:"size:255"`
	ManufacturingLocation string                      `json:"manufacturing_location" gorm:"size:255"`
	Barcodes              datatypes.JSONSlice[string] `json:"barcodes"`
	ImageURL              string                      `json:"image_url"`

	// Cached projection of visible reviews, written only by the rating aggregator.
	AverageRating decimal.Decimal `json:"average_rating" gorm:"type:decimal(3,2);not null;default:0"`
	ReviewCount   int             `json:"review_count" gorm:"not null;default:0"`

	Visibility

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Brand   *Brand              `json:"brand,omitempty" gorm:"foreignKey:BrandID;constraint:OnDelete:CASCADE"`
	Reviews []Review            `json:"reviews,omitempty" gorm:"foreignKey:FoodProductID"`
	Sources []FoodProductSource `json:"sources,omitempty" gorm:"foreignKey:FoodProductID"`
}

const (
	SourceWebsite      = "website"
	SourcePDF          = "pdf"
	SourceProductLabel = "product_label"
	SourceDocument     = "document"
)

type Source struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	Type       string     `json:"type" gorm:"size:20;not null"`
	Title      string     `json:"title" gorm:"size:255;not null"`
	URL        string     `json:"url"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

const (
	FieldIngredients    = "ingredients"
	FieldNutrition      = "nutrition"
	FieldAllergens      = "allergens"
	FieldCertifications = "certifications"
)

// FoodProductSource links a source to the product field it substantiates.
type FoodProductSource struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	FoodProductID uint      `json:"food_product_id" gorm:"not null;uniqueIndex:idx_product_source_field"`
	SourceID      uint      `json:"source_id" gorm:"not null;uniqueIndex:idx_product_source_field"`
	FieldType     string    `json:"field_type" gorm:"size:20;not null;uniqueIndex:idx_product_source_field"`
	CreatedAt     time.Time `json:"created_at"`

	Source *Source `json:"source,omitempty" gorm:"foreignKey:SourceID;constraint:OnDelete:CASCADE"`
}

// Allergens and certifications offered as filter options.
var (
	KnownAllergens      = []string{"gluten", "dairy", "nuts", "soy", "eggs", "shellfish", "sesame"}
	KnownCertifications = []string{"organic", "non-gmo", "fair-trade", "kosher", "halal", "vegan", "vegetarian"}
)

// Request/Response DTOs
type CompanyRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	Website     string `json:"website" validate:"omitempty,url"`
	Country     string `json:"country" validate:"max=255"`
}

type BrandRequest struct {
	CompanyID   uint   `json:"company_id" validate:"required"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	LogoURL     string `json:"logo_url" validate:"omitempty,url"`
}

type FoodProductRequest struct {
	BrandID               uint                   `json:"brand_id" validate:"required"`
	Name                  string                 `json:"name" validate:"required,max=255"`
	Description           string                 `json:"description"`
	Ingredients           string                 `json:"ingredients"`
	NutritionFacts        map[string]interface{} `json:"nutrition_facts"`
	Allergens             []string               `json:"allergens" validate:"dive,max=50"`
	Certifications        []string               `json:"certifications" validate:"dive,max=50"`
	CountryOfOrigin       string                 `json:"country_of_origin" validate:"max=255"`
	ManufacturingLocation string                 `json:"manufacturing_location" validate:"max=255"`
	Barcodes              []string               `json:"barcodes" validate:"dive,max=64"`
	ImageURL              string                 `json:"image_url" validate:"omitempty,url"`
}

type SourceRequest struct {
	Type       string     `json:"type" validate:"required,oneof=website pdf product_label document"`
	Title      string     `json:"title" validate:"required,max=255"`
	URL        string     `json:"url" validate:"omitempty,url"`
	VerifiedAt *time.Time `json:"verified_at"`
}

type AttachSourceRequest struct {
	SourceID  uint   `json:"source_id" validate:"required"`
	FieldType string `json:"field_type" validate:"required,oneof=ingredients nutrition allergens certifications"`
}

type FilterOptions struct {
	Brands         []string `json:"brands"`
	Companies      []string `json:"companies"`
	Countries      []string `json:"countries"`
	Allergens      []string `json:"allergens"`
	Certifications []string `json:"certifications"`
}
