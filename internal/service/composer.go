package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

const ingredientsField = "ingredients"

// MaxIntegerValue is the largest amount or cooking time the INTEGER columns
// hold.
const MaxIntegerValue = math.MaxInt32

// IngredientComposer validates submitted ingredient lines and writes a
// recipe's ingredient links. All validation happens before the first write.
type IngredientComposer struct {
	minAmount int
}

func NewIngredientComposer(minAmount int) *IngredientComposer {
	if minAmount < 1 {
		minAmount = 1
	}
	return &IngredientComposer{minAmount: minAmount}
}

// Compose checks entries in order: integer amount, amount range, ingredient
// existence, then duplicates. It returns unsaved links without RecipeID.
func (c *IngredientComposer) Compose(ctx context.Context, db *gorm.DB, entries []types.IngredientAmountInput) ([]models.RecipeIngredient, error) {
	if len(entries) == 0 {
		return nil, NewFieldError(ingredientsField, "At least one ingredient is required!")
	}

	links := make([]models.RecipeIngredient, 0, len(entries))
	for _, e := range entries {
		amount, err := parseAmount(e.Amount)
		if err != nil {
			return nil, NewFieldError(ingredientsField, "Value `amount` must be integer!")
		}
		if amount < c.minAmount {
			return nil, NewFieldError(ingredientsField,
				fmt.Sprintf("Ensure `amount` is greater than or equal to %d.", c.minAmount))
		}
		if amount > MaxIntegerValue {
			return nil, NewFieldError(ingredientsField,
				fmt.Sprintf("Ensure `amount` is less than or equal to %d.", MaxIntegerValue))
		}
		links = append(links, models.RecipeIngredient{IngredientID: e.ID, Amount: amount})
	}

	ids := make([]uint, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.IngredientID)
	}
	var found []uint
	if err := db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, fmt.Errorf("failed to look up ingredients: %w", err)
	}
	existing := newIDSet(found)
	for _, id := range ids {
		if !existing.Has(id) {
			return nil, &NotFoundError{
				Field:   ingredientsField,
				Message: fmt.Sprintf("Ingredient with id `%d` does not exist!", id),
			}
		}
	}

	seen := make(IDSet, len(ids))
	for _, id := range ids {
		if seen.Has(id) {
			return nil, NewFieldError(ingredientsField, "Two identical ingredients found!")
		}
		seen[id] = struct{}{}
	}

	return links, nil
}

// Replace deletes every link of recipeID and inserts links. Run it inside the
// transaction that owns the recipe write.
func (c *IngredientComposer) Replace(ctx context.Context, tx *gorm.DB, recipeID uint, links []models.RecipeIngredient) error {
	if err := tx.WithContext(ctx).Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return fmt.Errorf("failed to delete recipe ingredients: %w", err)
	}
	for i := range links {
		links[i].ID = 0
		links[i].RecipeID = recipeID
	}
	if err := tx.WithContext(ctx).Create(&links).Error; err != nil {
		return fmt.Errorf("failed to create recipe ingredients: %w", err)
	}
	return nil
}

// parseAmount accepts a JSON integer or a string holding one.
func parseAmount(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("amount is missing")
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
	} else {
		s = string(raw)
	}
	return strconv.Atoi(strings.TrimSpace(s))
}
