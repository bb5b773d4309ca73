package services

import (
	"context"
	"testing"

	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func productNames(t *testing.T, svc *ProductService, filter ProductFilter) []string {
	t.Helper()
	page, err := svc.ListProducts(context.Background(), filter)
	require.NoError(t, err)
	products := page.Items.([]models.FoodProduct)
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	return names
}

func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	ctx := context.Background()
	admin := NewAdminService(db, nil)
	nordic, err := admin.CreateCompany(ctx, models.CompanyRequest{Name: "Nordic Pantry"})
	require.NoError(t, err)
	sunny, err := admin.CreateCompany(ctx, models.CompanyRequest{Name: "Sunny Farms"})
	require.NoError(t, err)
	fjord, err := admin.CreateBrand(ctx, models.BrandRequest{CompanyID: nordic.ID, Name: "Fjord"})
	require.NoError(t, err)
	meadow, err := admin.CreateBrand(ctx, models.BrandRequest{CompanyID: sunny.ID, Name: "Meadow"})
	require.NoError(t, err)

	for _, p := range []models.FoodProductRequest{
		{BrandID: fjord.ID, Name: "Smoked Salmon", Ingredients: "salmon, salt", CountryOfOrigin: "Norway"},
		{BrandID: fjord.ID, Name: "Crispbread", Description: "Whole grain rye", CountryOfOrigin: "Sweden"},
		{BrandID: meadow.ID, Name: "Rye Sourdough", Ingredients: "rye flour, water", CountryOfOrigin: "Denmark"},
		{BrandID: meadow.ID, Name: "Honey", CountryOfOrigin: "Norway"},
	} {
		_, err := admin.CreateProduct(ctx, p)
		require.NoError(t, err)
	}
}

func TestListProductsFilters(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := NewProductService(db)

	assert.Len(t, productNames(t, svc, ProductFilter{}), 4)
	assert.ElementsMatch(t, []string{"Crispbread", "Rye Sourdough"}, productNames(t, svc, ProductFilter{Search: " RYE "}))
	assert.ElementsMatch(t, []string{"Smoked Salmon", "Crispbread"}, productNames(t, svc, ProductFilter{Brand: "fjord"}))
	assert.ElementsMatch(t, []string{"Rye Sourdough", "Honey"}, productNames(t, svc, ProductFilter{Company: "sunny"}))
	assert.ElementsMatch(t, []string{"Smoked Salmon", "Honey"}, productNames(t, svc, ProductFilter{Country: "norway"}))
	assert.Equal(t, []string{"Honey"}, productNames(t, svc, ProductFilter{Country: "Norway", Company: "Sunny"}))
}

func TestListProductsPaging(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := NewProductService(db)

	page, err := svc.ListProducts(context.Background(), ProductFilter{Page: Page{Page: 2, PageSize: 3}})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 1)

	empty, err := svc.ListProducts(context.Background(), ProductFilter{Search: "caviar"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Total)
	assert.NotNil(t, empty.Items)
}

func TestListProductsRejectsBadRange(t *testing.T) {
	svc := NewProductService(newTestDB(t))
	_, err := svc.ListProducts(context.Background(), ProductFilter{MinRating: 4, MaxRating: 2})
	assert.ErrorIs(t, err, ErrValidationFailed)
	_, err = svc.ListProducts(context.Background(), ProductFilter{MinRating: 7})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestHiddenProductsLeaveTheCatalog(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := NewProductService(db)
	require.NoError(t, db.Model(&models.FoodProduct{}).Where("name = ?", "Honey").Update("is_hidden", true).Error)

	assert.NotContains(t, productNames(t, svc, ProductFilter{}), "Honey")

	opts, err := svc.FilterOptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Fjord", "Meadow"}, opts.Brands)
	assert.Equal(t, []string{"Nordic Pantry", "Sunny Farms"}, opts.Companies)
	assert.Equal(t, []string{"Denmark", "Norway", "Sweden"}, opts.Countries)
	assert.Equal(t, models.KnownAllergens, opts.Allergens)
}

func TestGetProductEmbedsVisibleReviews(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, "Pickles")
	mod := seedUser(t, db, "mod", models.RoleModerator)
	visible := seedReview(t, db, seedUser(t, db, "a", models.RoleMember), product, 5)
	hidden := seedReview(t, db, seedUser(t, db, "b", models.RoleMember), product, 1)
	require.NoError(t, newModeration(db, nil).HideContent(ctx, ModerationInput{
		ModeratorID: mod.ID, TargetType: models.TargetReview, TargetID: hidden.ID,
	}))

	got, err := NewProductService(db).GetProduct(ctx, product.ID, OnlyVisible)
	require.NoError(t, err)
	require.Len(t, got.Reviews, 1)
	assert.Equal(t, visible.ID, got.Reviews[0].ID)
	require.NotNil(t, got.Brand)
	assert.NotNil(t, got.Brand.Company)

	got, err = NewProductService(db).GetProduct(ctx, product.ID, IncludeHidden)
	require.NoError(t, err)
	assert.Len(t, got.Reviews, 2)

	_, err = NewProductService(db).GetProduct(ctx, 999, IncludeHidden)
	assert.ErrorIs(t, err, ErrNotFound)
}
