package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// onePixelPNG is a valid 1x1 PNG as a data URI.
const onePixelPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

type memoryImages struct {
	mu      sync.Mutex
	objects map[string][]byte
	seq     int
}

func newMemoryImages() *memoryImages {
	return &memoryImages{objects: map[string][]byte{}}
}

func (m *memoryImages) Save(_ context.Context, data []byte, _, ext string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	key := fmt.Sprintf("recipes/images/%d%s", m.seq, ext)
	m.objects[key] = data
	return key, nil
}

func (m *memoryImages) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryImages) URL(key string) string {
	if key == "" {
		return ""
	}
	return "http://testserver/media/" + key
}

func (m *memoryImages) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type testEnv struct {
	db         *gorm.DB
	images     *memoryImages
	aggregator *service.RelationAggregator
	auth       *service.AuthService
	recipes    *service.RecipeService
	relations  *service.RelationService
	users      *service.UserService
	shopping   *service.ShoppingListService
	catalog    *service.CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testhelpers.NewTestDB(t)
	return newTestEnvWithDB(db)
}

func newTestEnvWithDB(db *gorm.DB) *testEnv {
	images := newMemoryImages()
	aggregator := service.NewRelationAggregator(db)
	auth := service.NewAuthService(db, "test-secret", time.Hour, service.NewMemoryTokenRevoker()).
		WithBcryptCost(bcrypt.MinCost)
	recipes := service.NewRecipeService(db, aggregator, service.NewIngredientComposer(1), images)
	return &testEnv{
		db:         db,
		images:     images,
		aggregator: aggregator,
		auth:       auth,
		recipes:    recipes,
		relations:  service.NewRelationService(db, recipes),
		users:      service.NewUserService(db, auth, aggregator, recipes),
		shopping:   service.NewShoppingListService(db),
		catalog:    service.NewCatalogService(db),
	}
}

func ptr[T any](v T) *T {
	return &v
}

func amount(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func line(id uint, amt any) types.IngredientAmountInput {
	return types.IngredientAmountInput{ID: id, Amount: amount(amt)}
}

// recipeRequest builds a complete create request.
func recipeRequest(name string, tags []uint, lines ...types.IngredientAmountInput) *types.RecipeWriteRequest {
	return &types.RecipeWriteRequest{
		Ingredients: &lines,
		Tags:        &tags,
		Image:       ptr(onePixelPNG),
		Name:        ptr(name),
		Text:        ptr("Mix and serve."),
		CookingTime: ptr(15),
	}
}
