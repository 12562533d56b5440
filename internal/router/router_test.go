package router

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storefront/catalog-api/internal/config"
	"github.com/storefront/catalog-api/internal/database"
	"github.com/storefront/catalog-api/internal/i18n"
	"github.com/storefront/catalog-api/internal/models"
	"github.com/storefront/catalog-api/internal/utils"
)

type APITestSuite struct {
	suite.Suite
	db       *gorm.DB
	cfg      *config.Config
	router   *gin.Engine
	stop     func()
	verifier *utils.TokenVerifier
}

func (s *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.Require().NoError(i18n.Initialize())
}

func (s *APITestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open("file::memory:"), database.GormConfig("silent"))
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.T().Cleanup(func() { sqlDB.Close() })
	s.Require().NoError(database.RunMigrations(db))

	s.db = db
	s.cfg = &config.Config{
		Environment: "test",
		Auth: config.AuthConfig{
			IdentitySecret: "identity-secret",
			SessionSecret:  "session-secret",
			SessionCookie:  "storefront_session",
			SessionMaxAge:  3600,
			AdminSubjects:  []string{"auth0|admin"},
		},
		Catalog: config.CatalogConfig{
			PlaceholderImage: "/images/placeholder.png",
			DefaultPageSize:  10,
			MaxPageSize:      100,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	s.rebuild()
}

func (s *APITestSuite) TearDownTest() {
	s.stop()
	s.stop = nil
}

func (s *APITestSuite) rebuild() {
	if s.stop != nil {
		s.stop()
	}
	s.router, s.stop = Initialize(s.db, s.cfg)
	s.verifier = utils.NewTokenVerifier(s.cfg.Auth.IdentitySecret, s.cfg.Auth.Issuer, s.cfg.Auth.Audience)
}

func (s *APITestSuite) token(subject string) string {
	token, err := s.verifier.Issue(utils.Identity{Subject: subject, Name: "Grace", Email: "grace@example.com"}, time.Hour)
	s.Require().NoError(err)
	return token
}

func (s *APITestSuite) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *APITestSuite) decode(w *httptest.ResponseRecorder, v interface{}) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type productBody struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Price     float64    `json:"price"`
	Image     string     `json:"image"`
	InStock   bool       `json:"inStock"`
	IsDeleted bool       `json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt"`
}

type pageBody struct {
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	TotalItems int64         `json:"totalItems"`
	Items      []productBody `json:"items"`
}

type errorBody struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func (s *APITestSuite) createProduct(title string, price float64) productBody {
	w := s.do(http.MethodPost, "/products", map[string]interface{}{"title": title, "price": price}, "")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var p productBody
	s.decode(w, &p)
	return p
}

func (s *APITestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"status":"healthy"`)
}

func (s *APITestSuite) TestEmptyCatalog() {
	w := s.do(http.MethodGet, "/products", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"page":1,"totalPages":0,"totalItems":0,"items":[]}`, w.Body.String())
	s.Equal("0", w.Header().Get("X-Total-Count"))
}

func (s *APITestSuite) TestCatalogLifecycle() {
	created := s.createProduct("Cap", 19.99)
	s.Equal("/images/placeholder.png", created.Image)
	s.True(created.InStock)
	s.False(created.IsDeleted)

	var page pageBody
	w := s.do(http.MethodGet, "/products?page=1&limit=10", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &page)
	s.Require().Len(page.Items, 1)
	s.Equal(created.ID, page.Items[0].ID)

	w = s.do(http.MethodDelete, "/products/"+created.ID, nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"message":"Product soft-deleted successfully"}`, w.Body.String())

	w = s.do(http.MethodDelete, "/products/"+created.ID, nil, "")
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/products", nil, "")
	s.decode(w, &page)
	s.Empty(page.Items)

	var trash []productBody
	w = s.do(http.MethodGet, "/products/trash", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &trash)
	s.Require().Len(trash, 1)
	s.True(trash[0].IsDeleted)
	s.NotNil(trash[0].DeletedAt)

	var restored struct {
		Message string      `json:"message"`
		Product productBody `json:"product"`
	}
	w = s.do(http.MethodPatch, "/products/"+created.ID+"/restore", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &restored)
	s.Equal("Product restored successfully", restored.Message)
	s.False(restored.Product.IsDeleted)
	s.Nil(restored.Product.DeletedAt)
	s.Equal("Cap", restored.Product.Title)
	s.Equal(19.99, restored.Product.Price)

	w = s.do(http.MethodPatch, "/products/"+created.ID+"/restore", nil, "")
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/products", nil, "")
	s.decode(w, &page)
	s.Require().Len(page.Items, 1)
	s.Equal("Cap", page.Items[0].Title)

	var history []models.AuditLog
	w = s.do(http.MethodGet, "/products/"+created.ID+"/history", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &history)
	s.Require().Len(history, 3)
	s.Equal("PATCH /products/:id/restore", history[0].Action)
	s.Equal("DELETE /products/:id", history[1].Action)
	s.Equal("POST /products", history[2].Action)
	s.Equal("Cap", history[2].Changes["title"])
}

func (s *APITestSuite) TestProductErrors() {
	var body errorBody

	w := s.do(http.MethodGet, "/products/not-an-id", nil, "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.decode(w, &body)
	s.False(body.Success)
	s.Equal("VALIDATION_ERROR", body.Error.Code)

	w = s.do(http.MethodGet, "/products/"+uuid.NewString(), nil, "")
	s.Equal(http.StatusNotFound, w.Code)
	s.decode(w, &body)
	s.Equal("Product not found", body.Error.Message)

	w = s.do(http.MethodPost, "/products", map[string]interface{}{"price": 1}, "")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/products", `{"title":`, "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.decode(w, &body)
	s.Equal("BAD_REQUEST", body.Error.Code)

	created := s.createProduct("Cap", 5)
	w = s.do(http.MethodPut, "/products/"+created.ID, map[string]interface{}{"isDeleted": true}, "")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/products/"+created.ID, map[string]interface{}{"price": 7.5, "inStock": false}, "")
	s.Require().Equal(http.StatusOK, w.Code)
	var updated productBody
	s.decode(w, &updated)
	s.Equal(7.5, updated.Price)
	s.False(updated.InStock)
	s.False(updated.IsDeleted)
}

func (s *APITestSuite) TestListingQueryParameters() {
	s.createProduct("Running Shoe", 90)
	s.createProduct("Cap", 10)
	for i := 0; i < 3; i++ {
		s.createProduct("Sock", 2)
	}

	var page pageBody
	w := s.do(http.MethodGet, "/products?search=SHOE", nil, "")
	s.decode(w, &page)
	s.Equal(int64(1), page.TotalItems)

	w = s.do(http.MethodGet, "/products?page=2&limit=2", nil, "")
	s.decode(w, &page)
	s.Equal(2, page.Page)
	s.Equal(3, page.TotalPages)
	s.Len(page.Items, 2)
	s.Equal("5", w.Header().Get("X-Total-Count"))

	w = s.do(http.MethodGet, "/products?page=abc&limit=-4", nil, "")
	s.decode(w, &page)
	s.Equal(1, page.Page)
	s.Len(page.Items, 5)

	var beyond pageBody
	w = s.do(http.MethodGet, "/products?page=9223372036854775807&limit=10", nil, "")
	s.decode(w, &beyond)
	s.Equal(math.MaxInt, beyond.Page)
	s.Equal(1, beyond.TotalPages)
	s.Empty(beyond.Items)
}

func (s *APITestSuite) TestOrdersRequireSession() {
	w := s.do(http.MethodPost, "/orders", map[string]interface{}{"items": []interface{}{}, "totalAmount": 0}, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/orders", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestOrderFlow() {
	p := s.createProduct("Cap", 10)
	token := s.token("auth0|grace")

	w := s.do(http.MethodPost, "/orders", map[string]interface{}{
		"items":       []interface{}{},
		"totalAmount": 0,
	}, token)
	s.Equal(http.StatusBadRequest, w.Code)

	var count int64
	s.Require().NoError(s.db.Model(&models.Order{}).Count(&count).Error)
	s.Zero(count)

	w = s.do(http.MethodPost, "/orders", map[string]interface{}{
		"items":       []map[string]interface{}{{"productId": p.ID, "quantity": 2}, {"productId": p.ID, "quantity": 1}},
		"totalAmount": 30,
	}, token)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID     string `json:"id"`
		UserID string `json:"userId"`
		Status string `json:"status"`
		Items  []struct {
			ProductID string `json:"productId"`
			Quantity  int    `json:"quantity"`
		} `json:"items"`
	}
	s.decode(w, &created)
	s.Equal("auth0|grace", created.UserID)
	s.Equal("pending", created.Status)
	s.Len(created.Items, 2)

	var items int64
	s.Require().NoError(s.db.Model(&models.OrderItem{}).Count(&items).Error)
	s.Equal(int64(2), items)

	w = s.do(http.MethodGet, "/orders", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	var history []struct {
		ID    string `json:"id"`
		User  struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
		Items []struct {
			Product struct {
				Title string  `json:"title"`
				Price float64 `json:"price"`
			} `json:"product"`
		} `json:"items"`
	}
	s.decode(w, &history)
	s.Require().Len(history, 1)
	s.Equal(created.ID, history[0].ID)
	s.Equal("Grace", history[0].User.Name)
	s.Equal("grace@example.com", history[0].User.Email)
	s.Require().Len(history[0].Items, 2)
	s.Equal("Cap", history[0].Items[0].Product.Title)

	w = s.do(http.MethodGet, "/orders/user/auth0|grace", nil, token)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/orders/user/auth0|grace", nil, s.token("auth0|mallory"))
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/orders/user/auth0|grace", nil, s.token("auth0|admin"))
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/orders/"+created.ID, nil, token)
	s.Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/orders/"+created.ID, nil, s.token("auth0|mallory"))
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestSessionLogin() {
	req := httptest.NewRequest(http.MethodPost, "/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+s.token("auth0|grace"))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	s.Require().NotEmpty(cookies)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"id":"auth0|grace"`)

	var user models.User
	s.Require().NoError(s.db.Where("subject = ?", "auth0|grace").First(&user).Error)
	s.Equal("Grace", user.Name)

	w = s.do(http.MethodPost, "/auth/session", nil, "garbage")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestAdminGuard() {
	s.cfg.Auth.ProtectAdmin = true
	s.rebuild()

	w := s.do(http.MethodPost, "/products", map[string]interface{}{"title": "Cap", "price": 1}, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/products", map[string]interface{}{"title": "Cap", "price": 1}, s.token("auth0|someone"))
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/products", map[string]interface{}{"title": "Cap", "price": 1}, s.token("auth0|admin"))
	s.Equal(http.StatusCreated, w.Code)

	w = s.do(http.MethodGet, "/products", nil, "")
	s.Equal(http.StatusOK, w.Code)
}

func (s *APITestSuite) TestUnknownRoute() {
	w := s.do(http.MethodGet, "/nope", nil, "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(w.Body.String(), "Route not found")
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func TestHealthReportsUnavailableStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	require.NoError(t, i18n.Initialize())

	db, err := gorm.Open(sqlite.Open("file::memory:"), database.GormConfig("silent"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	r, stop := Initialize(db, &config.Config{
		Auth:    config.AuthConfig{IdentitySecret: "x", SessionSecret: "y", SessionCookie: "s"},
		Catalog: config.CatalogConfig{DefaultPageSize: 10, MaxPageSize: 100},
	})
	defer stop()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"SERVICE_UNAVAILABLE"`)
}

func TestRateLimitedRouterStops(t *testing.T) {
	gin.SetMode(gin.TestMode)
	require.NoError(t, i18n.Initialize())

	db, err := gorm.Open(sqlite.Open("file::memory:"), database.GormConfig("silent"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	r, stop := Initialize(db, &config.Config{
		Auth:      config.AuthConfig{IdentitySecret: "x", SessionSecret: "y", SessionCookie: "s"},
		Catalog:   config.CatalogConfig{DefaultPageSize: 10, MaxPageSize: 100},
		RateLimit: config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 1},
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	stop()
	stop()
}
