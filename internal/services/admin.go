package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
	"github.com/princeprakhar/foodnetwork-backend/pkg/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// csvColumns is the header a product import file must start with.
var csvColumns = []string{
	"name", "description", "ingredients", "brand", "country_of_origin",
	"manufacturing_location", "allergens", "certifications", "barcodes",
}

type AdminService struct {
	db     *gorm.DB
	images ImageStore
}

// NewAdminService builds the catalog service. images may be nil when uploads are disabled.
func NewAdminService(db *gorm.DB, images ImageStore) *AdminService {
	return &AdminService{db: db, images: images}
}

func (s *AdminService) CreateCompany(ctx context.Context, req models.CompanyRequest) (*models.Company, error) {
	req.Name = utils.SanitizeString(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}
	company := models.Company{
		Name:        req.Name,
		Description: req.Description,
		Website:     req.Website,
		Country:     req.Country,
	}
	if err := s.db.WithContext(ctx).Create(&company).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: company %q", ErrDuplicate, req.Name)
		}
		return nil, fmt.Errorf("create company: %w", err)
	}
	return &company, nil
}

func (s *AdminService) UpdateCompany(ctx context.Context, id uint, req models.CompanyRequest) (*models.Company, error) {
	req.Name = utils.SanitizeString(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var company models.Company
	if err := db.First(&company, id).Error; err != nil {
		return nil, lookupError(err, "company", id)
	}
	company.Name, company.Description, company.Website, company.Country = req.Name, req.Description, req.Website, req.Country
	if err := db.Save(&company).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: company %q", ErrDuplicate, req.Name)
		}
		return nil, fmt.Errorf("update company: %w", err)
	}
	return &company, nil
}

// DeleteCompany refuses while brands still belong to the company.
func (s *AdminService) DeleteCompany(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var company models.Company
		if err := tx.First(&company, id).Error; err != nil {
			return lookupError(err, "company", id)
		}
		var brands int64
		if err := tx.Model(&models.Brand{}).Where("company_id = ?", id).Count(&brands).Error; err != nil {
			return err
		}
		if brands > 0 {
			return fieldError("company_id", fmt.Sprintf("company still owns %d brands", brands))
		}
		return tx.Delete(&company).Error
	})
}

func (s *AdminService) ListCompanies(ctx context.Context) ([]models.Company, error) {
	companies := []models.Company{}
	err := s.db.WithContext(ctx).Preload("Brands").Order("name").Find(&companies).Error
	return companies, err
}

func (s *AdminService) CreateBrand(ctx context.Context, req models.BrandRequest) (*models.Brand, error) {
	req.Name = utils.SanitizeString(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := db.Select("id").First(&models.Company{}, req.CompanyID).Error; err != nil {
		return nil, lookupError(err, "company", req.CompanyID)
	}
	brand := models.Brand{
		CompanyID:   req.CompanyID,
		Name:        req.Name,
		Description: req.Description,
		LogoURL:     req.LogoURL,
	}
	if err := db.Create(&brand).Error; err != nil {
		return nil, fmt.Errorf("create brand: %w", err)
	}
	return &brand, nil
}

func (s *AdminService) UpdateBrand(ctx context.Context, id uint, req models.BrandRequest) (*models.Brand, error) {
	req.Name = utils.SanitizeString(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var brand models.Brand
	if err := db.First(&brand, id).Error; err != nil {
		return nil, lookupError(err, "brand", id)
	}
	if err := db.Select("id").First(&models.Company{}, req.CompanyID).Error; err != nil {
		return nil, lookupError(err, "company", req.CompanyID)
	}
	brand.CompanyID, brand.Name, brand.Description, brand.LogoURL = req.CompanyID, req.Name, req.Description, req.LogoURL
	if err := db.Save(&brand).Error; err != nil {
		return nil, fmt.Errorf("update brand: %w", err)
	}
	return &brand, nil
}

// DeleteBrand refuses while products still carry the brand.
func (s *AdminService) DeleteBrand(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var brand models.Brand
		if err := tx.First(&brand, id).Error; err != nil {
			return lookupError(err, "brand", id)
		}
		var products int64
		if err := tx.Model(&models.FoodProduct{}).Where("brand_id = ?", id).Count(&products).Error; err != nil {
			return err
		}
		if products > 0 {
			return fieldError("brand_id", fmt.Sprintf("brand still has %d products", products))
		}
		return tx.Delete(&brand).Error
	})
}

func (s *AdminService) CreateProduct(ctx context.Context, req models.FoodProductRequest) (*models.FoodProduct, error) {
	req.Name = utils.SanitizeString(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := db.Select("id").First(&models.Brand{}, req.BrandID).Error; err != nil {
		return nil, lookupError(err, "brand", req.BrandID)
	}
	product := productFromRequest(req)
	if err := db.Create(&product).Error; err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &product, nil
}

// UpdateProduct replaces the descriptive fields. Rating and visibility are
// never written here.
func (s *AdminService) UpdateProduct(ctx context.Context, id uint, req models.FoodProductRequest) (*models.FoodProduct, error) {
	req.Name = utils.SanitizeString(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}
	var product models.FoodProduct
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&product, id).Error; err != nil {
			return lookupError(err, "product", id)
		}
		if err := tx.Select("id").First(&models.Brand{}, req.BrandID).Error; err != nil {
			return lookupError(err, "brand", req.BrandID)
		}
		next := productFromRequest(req)
		err := tx.Model(&product).Updates(map[string]interface{}{
			"brand_id":               next.BrandID,
			"name":                   next.Name,
			"description":            next.Description,
			"ingredients":            next.Ingredients,
			"nutrition_facts":        next.NutritionFacts,
			"allergens":              next.Allergens,
			"certifications":         next.Certifications,
			"country_of_origin":      next.CountryOfOrigin,
			"manufacturing_location": next.ManufacturingLocation,
			"barcodes":               next.Barcodes,
			"image_url":              next.ImageURL,
		}).Error
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		return tx.First(&product, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct removes a product together with its reviews, their threads,
// list entries and source links.
func (s *AdminService) DeleteProduct(ctx context.Context, id uint) error {
	var imageURL string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.FoodProduct
		if err := lockForUpdate(tx).First(&product, id).Error; err != nil {
			return lookupError(err, "product", id)
		}
		imageURL = product.ImageURL

		var reviews []models.Review
		if err := tx.Where("food_product_id = ?", id).Find(&reviews).Error; err != nil {
			return err
		}
		for i := range reviews {
			if err := removeCommentThread(tx, models.TargetReview, reviews[i].ID); err != nil {
				return err
			}
			if err := tx.Where("reactable_type = ? AND reactable_id = ?", models.TargetReview, reviews[i].ID).
				Delete(&models.Reaction{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("food_product_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}

		var lists []uint
		if err := tx.Model(&models.FoodListItem{}).Where("food_product_id = ?", id).Distinct().Pluck("food_list_id", &lists).Error; err != nil {
			return err
		}
		if err := tx.Where("food_product_id = ?", id).Delete(&models.FoodListItem{}).Error; err != nil {
			return err
		}
		for _, listID := range lists {
			if err := recountListItems(tx, listID); err != nil {
				return err
			}
		}

		if err := tx.Where("food_product_id = ?", id).Delete(&models.FoodProductSource{}).Error; err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{"product_id": id, "image_url": imageURL}).Info("product deleted")
	return nil
}

// UploadProductImage stores a picture and points the product at it.
func (s *AdminService) UploadProductImage(ctx context.Context, id uint, file *multipart.FileHeader) (*models.FoodProduct, error) {
	db := s.db.WithContext(ctx)
	var product models.FoodProduct
	if err := db.First(&product, id).Error; err != nil {
		return nil, lookupError(err, "product", id)
	}
	results, err := uploadImages(ctx, s.images, fmt.Sprintf("products/%d", id), []*multipart.FileHeader{file})
	if err != nil {
		return nil, err
	}
	if err := db.Model(&product).Update("image_url", results[0].URL).Error; err != nil {
		_ = s.images.DeleteImage(ctx, results[0].Key)
		return nil, fmt.Errorf("store image url: %w", err)
	}
	product.ImageURL = results[0].URL
	return &product, nil
}

func (s *AdminService) CreateSource(ctx context.Context, req models.SourceRequest) (*models.Source, error) {
	req.Title = utils.SanitizeString(req.Title)
	if err := validate(req); err != nil {
		return nil, err
	}
	source := models.Source{
		Type:       req.Type,
		Title:      req.Title,
		URL:        req.URL,
		VerifiedAt: req.VerifiedAt,
	}
	if err := s.db.WithContext(ctx).Create(&source).Error; err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}
	return &source, nil
}

// AttachSource cites a source for one field of a product. Each
// (product, source, field) triple exists at most once.
func (s *AdminService) AttachSource(ctx context.Context, productID uint, req models.AttachSourceRequest) (*models.FoodProductSource, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := db.Select("id").First(&models.FoodProduct{}, productID).Error; err != nil {
		return nil, lookupError(err, "product", productID)
	}
	if err := db.Select("id").First(&models.Source{}, req.SourceID).Error; err != nil {
		return nil, lookupError(err, "source", req.SourceID)
	}
	link := models.FoodProductSource{
		FoodProductID: productID,
		SourceID:      req.SourceID,
		FieldType:     req.FieldType,
	}
	if err := db.Create(&link).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: source %d already backs %s of product %d", ErrDuplicate, req.SourceID, req.FieldType, productID)
		}
		return nil, fmt.Errorf("attach source: %w", err)
	}
	return &link, nil
}

func (s *AdminService) DetachSource(ctx context.Context, productID, sourceID uint, fieldType string) error {
	res := s.db.WithContext(ctx).
		Where("food_product_id = ? AND source_id = ? AND field_type = ?", productID, sourceID, fieldType).
		Delete(&models.FoodProductSource{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: source %d is not attached to %s of product %d", ErrNotFound, sourceID, fieldType, productID)
	}
	return nil
}

type ImportSummary struct {
	Processed  int      `json:"processed"`
	FailedRows []string `json:"failed_rows"`
}

// ImportProducts reads a CSV of products. List columns hold '|' separated
// values. A bad row is reported and skipped, it does not abort the import.
func (s *AdminService) ImportProducts(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fieldError("file", "CSV file must have a header and at least one data row")
	}
	if err != nil {
		return nil, fieldError("file", fmt.Sprintf("failed to parse CSV file: %v", err))
	}
	if len(header) < len(csvColumns) {
		return nil, fieldError("file", "expected columns: "+strings.Join(csvColumns, ","))
	}
	for i, col := range csvColumns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), col) {
			return nil, fieldError("file", "expected columns: "+strings.Join(csvColumns, ","))
		}
	}

	db := s.db.WithContext(ctx)
	brands := map[string]uint{}
	summary := &ImportSummary{FailedRows: []string{}}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			summary.FailedRows = append(summary.FailedRows, fmt.Sprintf("Row %d: %v", line, err))
			continue
		}
		if err := s.importRow(db, brands, record); err != nil {
			summary.FailedRows = append(summary.FailedRows, fmt.Sprintf("Row %d: %v", line, err))
			continue
		}
		summary.Processed++
	}

	logger.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"failed":    len(summary.FailedRows),
	}).Info("product import finished")
	return summary, nil
}

func (s *AdminService) importRow(db *gorm.DB, brands map[string]uint, record []string) error {
	brandName := strings.TrimSpace(record[3])
	key := strings.ToLower(brandName)
	brandID, ok := brands[key]
	if !ok {
		var brand models.Brand
		if err := db.Where("LOWER(name) = ?", key).First(&brand).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("unknown brand %q", brandName)
			}
			return err
		}
		brandID = brand.ID
		brands[key] = brandID
	}

	req := models.FoodProductRequest{
		BrandID:               brandID,
		Name:                  strings.TrimSpace(record[0]),
		Description:           strings.TrimSpace(record[1]),
		Ingredients:           strings.TrimSpace(record[2]),
		CountryOfOrigin:       strings.TrimSpace(record[4]),
		ManufacturingLocation: strings.TrimSpace(record[5]),
		Allergens:             splitList(record[6]),
		Certifications:        splitList(record[7]),
		Barcodes:              splitList(record[8]),
	}
	if err := validate(req); err != nil {
		return err
	}
	product := productFromRequest(req)
	return db.Create(&product).Error
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func productFromRequest(req models.FoodProductRequest) models.FoodProduct {
	nutrition := datatypes.JSONMap{}
	for k, v := range req.NutritionFacts {
		nutrition[k] = v
	}
	return models.FoodProduct{
		BrandID:               req.BrandID,
		Name:                  req.Name,
		Description:           req.Description,
		Ingredients:           req.Ingredients,
		NutritionFacts:        nutrition,
		Allergens:             datatypes.JSONSlice[string](nonNil(normalizeTags(req.Allergens))),
		Certifications:        datatypes.JSONSlice[string](nonNil(normalizeTags(req.Certifications))),
		CountryOfOrigin:       req.CountryOfOrigin,
		ManufacturingLocation: req.ManufacturingLocation,
		Barcodes:              datatypes.JSONSlice[string](nonNil(req.Barcodes)),
		ImageURL:              req.ImageURL,
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

type DashboardStats struct {
	Products       int64 `json:"products"`
	HiddenProducts int64 `json:"hidden_products"`
	Users          int64 `json:"users"`
	Reviews        int64 `json:"reviews"`
	HiddenReviews  int64 `json:"hidden_reviews"`
	PendingReports int64 `json:"pending_reports"`
}

func (s *AdminService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	var stats DashboardStats
	counts := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{OnlyVisible.apply(db.Model(&models.FoodProduct{}), "food_products"), &stats.Products},
		{db.Model(&models.FoodProduct{}).Where("is_hidden = ?", true), &stats.HiddenProducts},
		{db.Model(&models.User{}).Where("is_active = ?", true), &stats.Users},
		{OnlyVisible.apply(db.Model(&models.Review{}), "reviews"), &stats.Reviews},
		{db.Model(&models.Review{}).Where("is_hidden = ?", true), &stats.HiddenReviews},
		{db.Model(&models.Report{}).Where("status = ?", models.ReportPending), &stats.PendingReports},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("dashboard stats: %w", err)
		}
	}
	return &stats, nil
}

func lookupError(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what, id)
	}
	return err
}
