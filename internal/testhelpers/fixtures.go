package testhelpers

import (
	"fmt"
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the password of every user made by CreateUser.
const TestPassword = "s3cret-passw0rd"

// Line is one ingredient line used when building fixture recipes.
type Line struct {
	Ingredient models.Ingredient
	Amount     int
}

func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func CreateTag(t *testing.T, db *gorm.DB, slug, color string) *models.Tag {
	t.Helper()

	tag := &models.Tag{Name: slug, Slug: slug, Color: color}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create tag %s: %v", slug, err)
	}
	return tag
}

// CreateIngredient creates an ingredient, reusing the unit when it exists.
func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) models.Ingredient {
	t.Helper()

	mu := models.MeasurementUnit{Name: unit}
	if err := db.Where(models.MeasurementUnit{Name: unit}).FirstOrCreate(&mu).Error; err != nil {
		t.Fatalf("failed to create unit %s: %v", unit, err)
	}
	ing := models.Ingredient{Name: name, MeasurementUnitID: mu.ID}
	if err := db.Omit("MeasurementUnit").Create(&ing).Error; err != nil {
		t.Fatalf("failed to create ingredient %s: %v", name, err)
	}
	ing.MeasurementUnit = mu
	return ing
}

func CreateRecipe(t *testing.T, db *gorm.DB, authorID uint, name string, tags []models.Tag, lines ...Line) *models.Recipe {
	t.Helper()

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        name,
		Text:        fmt.Sprintf("How to cook %s.", name),
		Image:       "recipes/images/" + name + ".png",
		CookingTime: 10,
	}
	if err := db.Omit("Author", "Tags", "Ingredients").Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe %s: %v", name, err)
	}
	if len(tags) > 0 {
		if err := db.Model(recipe).Association("Tags").Append(tags); err != nil {
			t.Fatalf("failed to tag recipe %s: %v", name, err)
		}
	}
	for _, l := range lines {
		link := models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: l.Ingredient.ID, Amount: l.Amount}
		if err := db.Omit("Ingredient").Create(&link).Error; err != nil {
			t.Fatalf("failed to add ingredient to recipe %s: %v", name, err)
		}
	}
	return recipe
}

func AddFavorite(t *testing.T, db *gorm.DB, userID, recipeID uint) {
	t.Helper()
	if err := db.Omit("User", "Recipe").Create(&models.Favorite{UserID: userID, RecipeID: recipeID}).Error; err != nil {
		t.Fatalf("failed to add favorite: %v", err)
	}
}

func AddToCart(t *testing.T, db *gorm.DB, userID, recipeID uint) {
	t.Helper()
	if err := db.Omit("User", "Recipe").Create(&models.ShoppingCartEntry{UserID: userID, RecipeID: recipeID}).Error; err != nil {
		t.Fatalf("failed to add to shopping cart: %v", err)
	}
}

func Subscribe(t *testing.T, db *gorm.DB, userID, authorID uint) {
	t.Helper()
	if err := db.Omit("User", "Author").Create(&models.Subscription{UserID: userID, AuthorID: authorID}).Error; err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}
}
