package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// CatalogService serves the read-only tag and ingredient directories.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) ListTags(ctx context.Context) ([]types.TagResponse, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("slug").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	out := make([]types.TagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagResponse(t))
	}
	return out, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uint) (*types.TagResponse, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("tag")
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	resp := tagResponse(tag)
	return &resp, nil
}

// ListIngredients returns ingredients ordered by name, optionally narrowed to
// names starting with prefix (case-insensitive).
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]types.IngredientResponse, error) {
	q := s.db.WithContext(ctx).Preload("MeasurementUnit").Order("name").Order("id")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		q = q.Where("search_name LIKE ? ESCAPE '\\'", likePrefix(strings.ToLower(prefix)))
	}

	var ingredients []models.Ingredient
	if err := q.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	out := make([]types.IngredientResponse, 0, len(ingredients))
	for _, i := range ingredients {
		out = append(out, ingredientResponse(i))
	}
	return out, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*types.IngredientResponse, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).Preload("MeasurementUnit").First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("ingredient")
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	resp := ingredientResponse(ingredient)
	return &resp, nil
}

// ImportIngredient creates the ingredient and its unit unless they exist.
// It reports whether the ingredient was new.
func (s *CatalogService) ImportIngredient(ctx context.Context, name, unit string) (bool, error) {
	name, unit = strings.TrimSpace(name), strings.TrimSpace(unit)
	if name == "" || unit == "" {
		return false, fmt.Errorf("ingredient name and unit are required")
	}

	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		mu := models.MeasurementUnit{Name: unit}
		if _, err := firstOrCreate(tx, &mu, models.MeasurementUnit{Name: unit}); err != nil {
			return fmt.Errorf("failed to get or create unit %q: %w", unit, err)
		}
		ing := models.Ingredient{Name: name, MeasurementUnitID: mu.ID}
		var err error
		created, err = firstOrCreate(tx, &ing, models.Ingredient{Name: name, MeasurementUnitID: mu.ID})
		if err != nil {
			return fmt.Errorf("failed to get or create ingredient %q: %w", name, err)
		}
		return nil
	})
	return created, err
}

// ImportTag creates a tag keyed by slug unless it exists.
func (s *CatalogService) ImportTag(ctx context.Context, name, slug, color string) (bool, error) {
	if err := validateRequest(&struct {
		Name  string `json:"name" validate:"required,max=200"`
		Slug  string `json:"slug" validate:"required,max=200"`
		Color string `json:"color" validate:"required,hexcolor,max=7"`
	}{name, slug, color}); err != nil {
		return false, err
	}

	tag := models.Tag{Name: name, Slug: slug, Color: color}
	created, err := firstOrCreate(s.db.WithContext(ctx), &tag, models.Tag{Slug: slug})
	if err != nil {
		return false, fmt.Errorf("failed to get or create tag %q: %w", slug, err)
	}
	return created, nil
}

// firstOrCreate loads the row matching cond into dest, or inserts dest.
func firstOrCreate(db *gorm.DB, dest any, cond any) (bool, error) {
	err := db.Where(cond).First(dest).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if err := db.Create(dest).Error; err != nil {
		return false, err
	}
	return true, nil
}

func ingredientResponse(i models.Ingredient) types.IngredientResponse {
	return types.IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit.Name}
}

func likePrefix(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s) + "%"
}
