package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Tag struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `gorm:"size:200;not null;uniqueIndex" json:"name"`
	Slug  string `gorm:"size:200;not null;uniqueIndex" json:"slug"`
	Color string `gorm:"size:7;not null;uniqueIndex" json:"color"`
}

func (Tag) TableName() string {
	return "tags"
}

type MeasurementUnit struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"size:200;not null;uniqueIndex" json:"name"`
}

func (MeasurementUnit) TableName() string {
	return "measurement_units"
}

// Ingredient is unique by (name, unit): "salt, g" and "salt, pinch" are
// different ingredients.
type Ingredient struct {
	ID                uint            `gorm:"primarykey" json:"id"`
	Name              string          `gorm:"size:200;not null;uniqueIndex:idx_ingredient_name_unit" json:"name"`
	MeasurementUnitID uint            `gorm:"not null;uniqueIndex:idx_ingredient_name_unit" json:"-"`
	MeasurementUnit   MeasurementUnit `json:"measurement_unit"`
	// SearchName is Name lower-cased in Go, so prefix search folds
	// non-ASCII letters on every driver.
	SearchName string `gorm:"size:200;not null;default:'';index" json:"-"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}

func (i *Ingredient) BeforeSave(*gorm.DB) error {
	i.SearchName = strings.ToLower(i.Name)
	return nil
}

type Recipe struct {
	ID          uint               `gorm:"primarykey"`
	CreatedAt   time.Time          `gorm:"not null;index"`
	UpdatedAt   time.Time
	AuthorID    uint               `gorm:"not null;index"`
	Author      User               `gorm:"constraint:OnDelete:CASCADE"`
	Name        string             `gorm:"size:200;not null"`
	Text        string             `gorm:"type:text;not null"`
	Image       string             `gorm:"size:255;not null"`
	CookingTime int                `gorm:"not null;check:chk_recipes_cooking_time,cooking_time >= 1"`
	Tags        []Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	Ingredients []RecipeIngredient `gorm:"constraint:OnDelete:CASCADE"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// RecipeIngredient links a recipe to an ingredient with the amount used.
type RecipeIngredient struct {
	ID           uint       `gorm:"primarykey"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient;index"`
	Ingredient   Ingredient `gorm:"constraint:OnDelete:RESTRICT"`
	Amount       int        `gorm:"not null;check:chk_recipe_ingredients_amount,amount >= 1"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}

type Favorite struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UserID    uint   `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	RecipeID  uint   `gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	Recipe    Recipe `gorm:"constraint:OnDelete:CASCADE"`
}

func (Favorite) TableName() string {
	return "favorites"
}

type ShoppingCartEntry struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UserID    uint   `gorm:"not null;uniqueIndex:idx_cart_user_recipe"`
	RecipeID  uint   `gorm:"not null;uniqueIndex:idx_cart_user_recipe;index"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	Recipe    Recipe `gorm:"constraint:OnDelete:CASCADE"`
}

func (ShoppingCartEntry) TableName() string {
	return "shopping_cart_entries"
}

// All lists every model in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Subscription{},
		&Tag{},
		&MeasurementUnit{},
		&Ingredient{},
		&Recipe{},
		&RecipeIngredient{},
		&Favorite{},
		&ShoppingCartEntry{},
	}
}
