package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// recipeRelation describes a (user, recipe) relation table such as favorites.
type recipeRelation struct {
	name       string
	table      string
	newRow     func(userID, recipeID uint) any
	existsMsg  string
	missingMsg string
}

var (
	favoriteRelation = recipeRelation{
		name:  "favorite",
		table: "favorites",
		newRow: func(userID, recipeID uint) any {
			return &models.Favorite{UserID: userID, RecipeID: recipeID}
		},
		existsMsg:  "Recipe is already in the favorite!",
		missingMsg: "Recipe is not in favorite!",
	}
	cartRelation = recipeRelation{
		name:  "shopping_cart",
		table: "shopping_cart_entries",
		newRow: func(userID, recipeID uint) any {
			return &models.ShoppingCartEntry{UserID: userID, RecipeID: recipeID}
		},
		existsMsg:  "Recipe is already in the shopping cart!",
		missingMsg: "Recipe is not in the shopping cart!",
	}
)

// RelationService adds and removes favorites and shopping cart entries.
type RelationService struct {
	db      *gorm.DB
	recipes *RecipeService
}

func NewRelationService(db *gorm.DB, recipes *RecipeService) *RelationService {
	return &RelationService{db: db, recipes: recipes}
}

func (s *RelationService) AddFavorite(ctx context.Context, userID, recipeID uint) (*types.RecipeShortResponse, error) {
	return s.add(ctx, favoriteRelation, userID, recipeID)
}

func (s *RelationService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.remove(ctx, favoriteRelation, userID, recipeID)
}

func (s *RelationService) AddToCart(ctx context.Context, userID, recipeID uint) (*types.RecipeShortResponse, error) {
	return s.add(ctx, cartRelation, userID, recipeID)
}

func (s *RelationService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return s.remove(ctx, cartRelation, userID, recipeID)
}

// add inserts the relation row. The existence check only produces the
// message; the unique index decides.
func (s *RelationService) add(ctx context.Context, rel recipeRelation, userID, recipeID uint) (*types.RecipeShortResponse, error) {
	recipe, err := s.recipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Table(rel.table).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", rel.name, err)
	}
	if count > 0 {
		metrics.RecordRelationChange(rel.name, "conflict")
		return nil, &ConflictError{Message: rel.existsMsg}
	}

	if err := s.db.WithContext(ctx).Create(rel.newRow(userID, recipeID)).Error; err != nil {
		if database.IsUniqueViolation(err) {
			metrics.RecordRelationChange(rel.name, "conflict")
			return nil, &ConflictError{Message: rel.existsMsg}
		}
		return nil, fmt.Errorf("failed to add %s: %w", rel.name, err)
	}

	metrics.RecordRelationChange(rel.name, "created")
	short := s.recipes.shortResponse(*recipe)
	return &short, nil
}

func (s *RelationService) remove(ctx context.Context, rel recipeRelation, userID, recipeID uint) error {
	if _, err := s.recipe(ctx, recipeID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Table(rel.table).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(rel.newRow(0, 0))
	if res.Error != nil {
		return fmt.Errorf("failed to remove %s: %w", rel.name, res.Error)
	}
	if res.RowsAffected == 0 {
		metrics.RecordRelationChange(rel.name, "missing")
		return &ConflictError{Message: rel.missingMsg}
	}

	metrics.RecordRelationChange(rel.name, "deleted")
	return nil
}

func (s *RelationService) recipe(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("recipe")
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &recipe, nil
}
