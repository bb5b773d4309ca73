package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
	"gorm.io/gorm"
)

const (
	ProductPageSize = 12
	QueryTimeout    = 30 * time.Second
)

// reviews embedded in a product detail
const productDetailReviews = 20

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	if db == nil {
		panic("database connection cannot be nil")
	}
	return &ProductService{
		db: db,
	}
}

type ProductFilter struct {
	Search         string   `form:"search"`
	Brand          string   `form:"brand"`
	Company        string   `form:"company"`
	Country        string   `form:"country"`
	Allergens      []string `form:"allergens"`
	Certifications []string `form:"certifications"`
	MinRating      float64  `form:"min_rating"`
	MaxRating      float64  `form:"max_rating"`
	Page
}

// ValidateAndNormalize trims the filter and rejects impossible ranges.
func (f *ProductFilter) ValidateAndNormalize() error {
	f.Page = f.Page.normalize(ProductPageSize)

	f.Search = strings.TrimSpace(f.Search)
	f.Brand = strings.TrimSpace(f.Brand)
	f.Company = strings.TrimSpace(f.Company)
	f.Country = strings.TrimSpace(f.Country)
	f.Allergens = normalizeTags(f.Allergens)
	f.Certifications = normalizeTags(f.Certifications)

	if len(f.Search) > 255 {
		return fieldError("search", "search must be at most 255 characters long")
	}
	if f.MinRating < 0 || f.MinRating > 5 {
		return fieldError("min_rating", "min_rating must be between 0 and 5")
	}
	if f.MaxRating < 0 || f.MaxRating > 5 {
		return fieldError("max_rating", "max_rating must be between 0 and 5")
	}
	if f.MaxRating > 0 && f.MinRating > f.MaxRating {
		return fieldError("min_rating", "min_rating cannot be greater than max_rating")
	}
	return nil
}

// normalizeTags lower-cases, trims and splits comma separated tag values.
func normalizeTags(in []string) []string {
	var out []string
	for _, raw := range in {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

// ListProducts pages through visible products, newest first.
func (s *ProductService) ListProducts(ctx context.Context, filter ProductFilter) (*utils.PaginatedData, error) {
	if err := filter.ValidateAndNormalize(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	db := s.db.WithContext(ctx)
	query := OnlyVisible.apply(db.Model(&models.FoodProduct{}), "food_products")
	query = s.applyFilters(db, query, filter).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	products := []models.FoodProduct{}
	if total == 0 {
		return paginated(products, 0, filter.Page), nil
	}

	err := query.Preload("Brand.Company").
		Order("created_at DESC").Order("id DESC").
		Offset(filter.offset()).Limit(filter.PageSize).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return paginated(products, total, filter.Page), nil
}

// applyFilters narrows query by every set field of filter. Allergen and
// certification filters require all requested tags to be present.
func (s *ProductService) applyFilters(db, query *gorm.DB, filter ProductFilter) *gorm.DB {
	if filter.Search != "" {
		term := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(food_products.name) LIKE ? OR LOWER(food_products.description) LIKE ? OR LOWER(food_products.ingredients) LIKE ?",
			term, term, term,
		)
	}
	if filter.Brand != "" {
		query = query.Where("food_products.brand_id IN (?)",
			db.Model(&models.Brand{}).Select("id").Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Brand)+"%"))
	}
	if filter.Company != "" {
		companies := db.Model(&models.Company{}).Select("id").Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Company)+"%")
		query = query.Where("food_products.brand_id IN (?)",
			db.Model(&models.Brand{}).Select("id").Where("company_id IN (?)", companies))
	}
	if filter.Country != "" {
		query = query.Where("LOWER(food_products.country_of_origin) LIKE ?", "%"+strings.ToLower(filter.Country)+"%")
	}
	for _, tag := range filter.Allergens {
		query = jsonArrayContains(query, "food_products.allergens", tag)
	}
	for _, tag := range filter.Certifications {
		query = jsonArrayContains(query, "food_products.certifications", tag)
	}
	if filter.MinRating > 0 {
		query = query.Where("food_products.average_rating >= ?", filter.MinRating)
	}
	if filter.MaxRating > 0 {
		query = query.Where("food_products.average_rating <= ?", filter.MaxRating)
	}
	return query
}

// jsonArrayContains matches rows whose JSON array column holds value.
func jsonArrayContains(query *gorm.DB, column, value string) *gorm.DB {
	if query.Dialector.Name() == "postgres" {
		encoded, _ := json.Marshal([]string{value})
		return query.Where(column+"::jsonb @> ?::jsonb", string(encoded))
	}
	return query.Where("EXISTS (SELECT 1 FROM json_each(CAST("+column+" AS TEXT)) WHERE json_each.value = ?)", value)
}

// GetProduct returns a product with its brand, sources and newest reviews,
// each filtered by vis.
func (s *ProductService) GetProduct(ctx context.Context, id uint, vis Visibility) (*models.FoodProduct, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	db := s.db.WithContext(ctx)
	var product models.FoodProduct
	err := vis.apply(db, "food_products").
		Preload("Brand.Company").
		Preload("Sources.Source").
		Preload("Reviews", func(q *gorm.DB) *gorm.DB {
			return vis.apply(q, "reviews").Order("created_at DESC").Order("id DESC").Limit(productDetailReviews)
		}).
		Preload("Reviews.User").
		First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("product", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &product, nil
}

// FilterOptions lists the values the catalog can be filtered by.
func (s *ProductService) FilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	db := s.db.WithContext(ctx)
	opts := &models.FilterOptions{
		Brands:         []string{},
		Companies:      []string{},
		Countries:      []string{},
		Allergens:      models.KnownAllergens,
		Certifications: models.KnownCertifications,
	}
	if err := db.Model(&models.Brand{}).Distinct().Order("name").Pluck("name", &opts.Brands).Error; err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	if err := db.Model(&models.Company{}).Order("name").Pluck("name", &opts.Companies).Error; err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	err := OnlyVisible.apply(db.Model(&models.FoodProduct{}), "food_products").
		Where("country_of_origin IS NOT NULL AND country_of_origin != ''").
		Distinct().Order("country_of_origin").
		Pluck("country_of_origin", &opts.Countries).Error
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	return opts, nil
}
