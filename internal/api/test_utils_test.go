package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

const onePixelPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	auth   *service.AuthService
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.NewTestDB(t)
	images := service.NewLocalImageStore(t.TempDir(), "/media/")
	aggregator := service.NewRelationAggregator(db)
	auth := service.NewAuthService(db, "test-secret", time.Hour, service.NewMemoryTokenRevoker()).
		WithBcryptCost(bcrypt.MinCost)
	recipes := service.NewRecipeService(db, aggregator, service.NewIngredientComposer(1), images)

	router := gin.New()
	router.Use(middleware.Recovery())
	RegisterRoutes(router, &Services{
		Auth:         auth,
		Users:        service.NewUserService(db, auth, aggregator, recipes),
		Recipes:      recipes,
		Relations:    service.NewRelationService(db, recipes),
		ShoppingList: service.NewShoppingListService(db),
		Catalog:      service.NewCatalogService(db),
	}, Paginator{DefaultSize: 6, MaxSize: 100}, nil)

	return &testServer{router: router, db: db, auth: auth}
}

// tokenFor issues a token for user.
func (s *testServer) tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := s.auth.GenerateToken(user)
	require.NoError(t, err)
	return token
}

// PerformRequestWithToken sends body as JSON and authenticates with token
// when it is not empty.
func (s *testServer) PerformRequestWithToken(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) PerformRequestWithHeader(method, path, token, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Token "+token)
	req.Header.Set(header, value)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) PerformRequest(method, path string, body any) *httptest.ResponseRecorder {
	return s.PerformRequestWithToken(method, path, body, "")
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}
