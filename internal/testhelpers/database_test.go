package testhelpers

import (
	"testing"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestDB_IsolatedAndMigrated(t *testing.T) {
	a := NewTestDB(t)
	b := NewTestDB(t)

	CreateUser(t, a, "alice")

	var count int64
	require.NoError(t, a.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, b.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestFixtures_UniqueConstraints(t *testing.T) {
	db := NewTestDB(t)
	user := CreateUser(t, db, "alice")
	author := CreateUser(t, db, "bob")
	salt := CreateIngredient(t, db, "Salt", "g")
	recipe := CreateRecipe(t, db, author.ID, "Soup", nil, Line{Ingredient: salt, Amount: 5})

	AddFavorite(t, db, user.ID, recipe.ID)
	err := db.Omit("User", "Recipe").Create(&models.Favorite{UserID: user.ID, RecipeID: recipe.ID}).Error
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
}

func TestSetupPostgres_AppliesMigrations(t *testing.T) {
	db := SetupPostgres(t)

	for _, table := range []string{"users", "recipes", "recipe_ingredients", "favorites", "shopping_cart_entries", "subscriptions"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}

	user := CreateUser(t, db, "alice")
	author := CreateUser(t, db, "bob")
	recipe := CreateRecipe(t, db, author.ID, "Soup", nil)
	AddToCart(t, db, user.ID, recipe.ID)
	err := db.Omit("User", "Recipe").Create(&models.ShoppingCartEntry{UserID: user.ID, RecipeID: recipe.ID}).Error
	assert.True(t, database.IsUniqueViolation(err))
}
