package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/princeprakhar/foodnetwork-backend/internal/database"
	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testTokens = utils.TokenSettings{
	Secret:     "test-secret",
	AccessTTL:  15 * time.Minute,
	RefreshTTL: time.Hour,
}

const testPassword = "password123"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name, role string) models.User {
	t.Helper()
	user := models.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: testPassword,
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

var seedCounter int

func seedProduct(t *testing.T, db *gorm.DB, name string) models.FoodProduct {
	t.Helper()
	seedCounter++
	company := models.Company{Name: fmt.Sprintf("Company %d", seedCounter)}
	require.NoError(t, db.Create(&company).Error)
	brand := models.Brand{CompanyID: company.ID, Name: fmt.Sprintf("Brand %d", seedCounter)}
	require.NoError(t, db.Create(&brand).Error)
	product := models.FoodProduct{
		BrandID:        brand.ID,
		Name:           name,
		Allergens:      []string{},
		Certifications: []string{},
		Barcodes:       []string{},
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func seedReview(t *testing.T, db *gorm.DB, author models.User, product models.FoodProduct, rating int) models.Review {
	t.Helper()
	review, err := NewReviewService(db, nil).CreateReview(context.Background(), author.ID, models.CreateReviewRequest{
		FoodProductID: product.ID,
		Rating:        rating,
		Content:       "Tastes exactly like the label promises.",
	})
	require.NoError(t, err)
	return *review
}

// newModeration returns a moderation engine backed by stored roles.
func newModeration(db *gorm.DB, notifier ReportNotifier) *ModerationService {
	return NewModerationService(db, NewAuthService(db, testTokens, nil), notifier)
}

func reload[T any](t *testing.T, db *gorm.DB, id uint) T {
	t.Helper()
	var out T
	require.NoError(t, db.First(&out, id).Error)
	return out
}
