package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodnetwork-backend/internal/config"
	"github.com/princeprakhar/foodnetwork-backend/internal/database"
	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.SetOutput(io.Discard)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		JWTSecret:       "routes-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		RateLimitRPS:    1000,
		CORSOrigins:     []string{"*"},
	}
	router := gin.New()
	require.NoError(t, SetupRoutes(router, db, cfg, memory.NewStore()))
	return &testServer{t: t, db: db, router: router}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

// signup registers a member, promotes it to role and logs in again so the
// access token carries the role.
func (s *testServer) signup(name, role string) (uint, string) {
	s.t.Helper()
	creds := map[string]string{"name": name, "email": name + "@example.com", "password": "password123"}
	code, env := s.do(http.MethodPost, "/api/v1/auth/signup", "", creds)
	require.Equal(s.t, http.StatusCreated, code, env.Message)

	if role != models.RoleMember {
		require.NoError(s.t, s.db.Model(&models.User{}).Where("email = ?", creds["email"]).Update("role", role).Error)
	}
	code, env = s.do(http.MethodPost, "/api/v1/auth/login", "", creds)
	require.Equal(s.t, http.StatusOK, code, env.Message)

	var auth struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
		User models.User `json:"user"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &auth))
	return auth.User.ID, auth.Tokens.AccessToken
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReviewModerationFlow(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.signup("admin", models.RoleAdmin)
	_, modToken := s.signup("mod", models.RoleModerator)
	_, authorToken := s.signup("author", models.RoleMember)
	_, readerToken := s.signup("reader", models.RoleMember)

	code, env := s.do(http.MethodPost, "/api/v1/admin/companies", authorToken, map[string]interface{}{"name": "Acme"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodPost, "/api/v1/admin/companies", adminToken, map[string]interface{}{"name": "Acme"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	company := decode[models.Company](t, env.Data)
	code, env = s.do(http.MethodPost, "/api/v1/admin/brands", adminToken, map[string]interface{}{"company_id": company.ID, "name": "Acme Kitchen"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	brand := decode[models.Brand](t, env.Data)
	code, env = s.do(http.MethodPost, "/api/v1/admin/products", adminToken, map[string]interface{}{"brand_id": brand.ID, "name": "Chili Crisp"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	product := decode[models.FoodProduct](t, env.Data)

	code, _ = s.do(http.MethodPost, "/api/v1/reviews", "", map[string]interface{}{"food_product_id": product.ID, "rating": 5, "content": "Addictive on eggs."})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(http.MethodPost, "/api/v1/reviews", authorToken, map[string]interface{}{"food_product_id": product.ID, "rating": 2, "content": "short"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, env = s.do(http.MethodPost, "/api/v1/reviews", authorToken, map[string]interface{}{"food_product_id": product.ID, "rating": 5, "content": "Addictive on eggs."})
	require.Equal(t, http.StatusCreated, code, env.Message)
	review := decode[models.Review](t, env.Data)

	code, _ = s.do(http.MethodPost, "/api/v1/reviews", authorToken, map[string]interface{}{"food_product_id": product.ID, "rating": 4, "content": "Still addictive on eggs."})
	assert.Equal(t, http.StatusConflict, code)

	code, env = s.do(http.MethodPost, "/api/v1/reports", readerToken, map[string]interface{}{
		"reportable_type": "review", "reportable_id": review.ID, "category": "misinformation",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	report := decode[models.Report](t, env.Data)

	code, _ = s.do(http.MethodPost, "/api/v1/moderation/hide", readerToken, map[string]interface{}{"target_type": "review", "target_id": review.ID})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodPost, "/api/v1/moderation/hide", modToken, map[string]interface{}{"target_type": "review", "target_id": review.ID, "reason": "misleading"})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/reviews/%d", review.ID), readerToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/reviews/%d?include_hidden=true", review.ID), readerToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/reviews/%d?include_hidden=true", review.ID), modToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/products/%d", product.ID), "", nil)
	require.Equal(t, http.StatusOK, code)
	got := decode[models.FoodProduct](t, env.Data)
	assert.Equal(t, 0, got.ReviewCount)
	assert.Equal(t, "0.00", got.AverageRating.StringFixed(2))

	code, env = s.do(http.MethodPut, fmt.Sprintf("/api/v1/moderation/reports/%d", report.ID), modToken, map[string]interface{}{"status": "action_taken"})
	require.Equal(t, http.StatusOK, code, env.Message)
	code, _ = s.do(http.MethodPut, fmt.Sprintf("/api/v1/moderation/reports/%d", report.ID), modToken, map[string]interface{}{"status": "dismissed"})
	assert.Equal(t, http.StatusConflict, code)

	code, env = s.do(http.MethodGet, "/api/v1/moderation/logs", modToken, nil)
	require.Equal(t, http.StatusOK, code)
	logs := decode[struct {
		Items []models.ModerationLog `json:"items"`
		Total int64                  `json:"total"`
	}](t, env.Data)
	assert.Equal(t, int64(1), logs.Total)
	require.Len(t, logs.Items, 1)
	assert.Equal(t, models.ActionHide, logs.Items[0].Action)
}

func TestSetRoleRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.signup("admin", models.RoleAdmin)
	_, modToken := s.signup("mod", models.RoleModerator)
	memberID, _ := s.signup("member", models.RoleMember)

	path := fmt.Sprintf("/api/v1/admin/users/%d/role", memberID)
	code, _ := s.do(http.MethodPut, path, modToken, map[string]string{"role": "moderator"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(http.MethodPut, path, adminToken, map[string]string{"role": "moderator"})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, models.RoleModerator, decode[models.User](t, env.Data).Role)
}

func TestListsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, ownerToken := s.signup("owner", models.RoleMember)
	_, otherToken := s.signup("other", models.RoleMember)

	code, env := s.do(http.MethodPost, "/api/v1/lists", ownerToken, map[string]interface{}{"name": "Secret snacks", "is_public": false})
	require.Equal(t, http.StatusCreated, code, env.Message)
	list := decode[models.FoodList](t, env.Data)

	path := fmt.Sprintf("/api/v1/lists/%d", list.ID)
	code, _ = s.do(http.MethodGet, path, ownerToken, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodGet, path, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(http.MethodDelete, path, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodGet, "/api/v1/lists/abc", ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRecomputeRatingRepairsDrift(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.signup("admin", models.RoleAdmin)
	authorID, _ := s.signup("author", models.RoleMember)

	company := models.Company{Name: "Harbor Foods"}
	require.NoError(t, s.db.Create(&company).Error)
	brand := models.Brand{CompanyID: company.ID, Name: "Harbor"}
	require.NoError(t, s.db.Create(&brand).Error)
	product := models.FoodProduct{BrandID: brand.ID, Name: "Smoked Mackerel"}
	require.NoError(t, s.db.Create(&product).Error)
	require.NoError(t, s.db.Create(&models.Review{UserID: authorID, FoodProductID: product.ID, Rating: 3, Content: "Decent on toast."}).Error)

	path := fmt.Sprintf("/api/v1/admin/products/%d/recompute-rating", product.ID)
	code, env := s.do(http.MethodPost, path, adminToken, nil)
	require.Equal(t, http.StatusOK, code, env.Message)

	var got models.FoodProduct
	require.NoError(t, s.db.First(&got, product.ID).Error)
	assert.Equal(t, 1, got.ReviewCount)
	assert.Equal(t, "3.00", got.AverageRating.StringFixed(2))

	code, _ = s.do(http.MethodPost, "/api/v1/admin/products/9999/recompute-rating", adminToken, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestDemotedModeratorLosesHiddenAccess(t *testing.T) {
	s := newTestServer(t)
	modID, modToken := s.signup("mod", models.RoleModerator)
	authorID, _ := s.signup("author", models.RoleMember)

	company := models.Company{Name: "Tidewater"}
	require.NoError(t, s.db.Create(&company).Error)
	brand := models.Brand{CompanyID: company.ID, Name: "Tide"}
	require.NoError(t, s.db.Create(&brand).Error)
	product := models.FoodProduct{BrandID: brand.ID, Name: "Kelp Chips"}
	require.NoError(t, s.db.Create(&product).Error)
	review := models.Review{UserID: authorID, FoodProductID: product.ID, Rating: 2, Content: "Too salty for me."}
	require.NoError(t, s.db.Create(&review).Error)
	require.NoError(t, s.db.Model(&review).Update("is_hidden", true).Error)

	path := fmt.Sprintf("/api/v1/reviews/%d?include_hidden=true", review.ID)
	code, _ := s.do(http.MethodGet, path, modToken, nil)
	require.Equal(t, http.StatusOK, code)

	require.NoError(t, s.db.Model(&models.User{}).Where("id = ?", modID).Update("role", models.RoleMember).Error)
	code, _ = s.do(http.MethodGet, path, modToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}
