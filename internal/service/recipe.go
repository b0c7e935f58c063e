package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
	"gorm.io/gorm"
)

const (
	recipeNameMaxLength = 200
	cookingTimeMessage  = "Время приготовления не может быть меньше 1 минуты!"
)

type RecipeService struct {
	db         *gorm.DB
	aggregator *RelationAggregator
	composer   *IngredientComposer
	images     ImageStore
}

func NewRecipeService(db *gorm.DB, aggregator *RelationAggregator, composer *IngredientComposer, images ImageStore) *RecipeService {
	return &RecipeService{
		db:         db,
		aggregator: aggregator,
		composer:   composer,
		images:     images,
	}
}

// withRecipeDetails loads everything the full representation needs with one
// query per association for the whole batch.
func withRecipeDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("slug") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Ingredients.Ingredient.MeasurementUnit")
}

func (s *RecipeService) filterScopes(viewerID uint, f types.RecipeFilter) []func(*gorm.DB) *gorm.DB {
	var scopes []func(*gorm.DB) *gorm.DB
	if f.AuthorID != nil {
		authorID := *f.AuthorID
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("recipes.author_id = ?", authorID)
		})
	}
	if len(f.Tags) > 0 {
		slugs := f.Tags
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where(`EXISTS (SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
				WHERE rt.recipe_id = recipes.id AND t.slug IN ?)`, slugs)
		})
	}
	if f.IsFavorited != nil {
		scopes = append(scopes, FilterByRelation("favorites", viewerID, *f.IsFavorited))
	}
	if f.IsInShoppingCart != nil {
		scopes = append(scopes, FilterByRelation("shopping_cart_entries", viewerID, *f.IsInShoppingCart))
	}
	return scopes
}

// List returns one page of recipes, newest first, and the total match count.
func (s *RecipeService) List(ctx context.Context, viewerID uint, filter types.RecipeFilter, offset, limit int) ([]types.RecipeResponse, int64, error) {
	scopes := s.filterScopes(viewerID, filter)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Scopes(scopes...).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []models.Recipe
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Scopes(scopes...).
		Scopes(withRecipeDetails).
		Order("recipes.created_at DESC, recipes.id DESC").
		Offset(offset).Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}

	out, err := s.toResponses(ctx, viewerID, recipes)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Get returns the full representation of one recipe.
func (s *RecipeService) Get(ctx context.Context, viewerID, id uint) (*types.RecipeResponse, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).Scopes(withRecipeDetails).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("recipe")
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	out, err := s.toResponses(ctx, viewerID, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// Create validates req completely and uploads the image, then writes the
// recipe with its tags and ingredient links in one transaction.
func (s *RecipeService) Create(ctx context.Context, authorID uint, req *types.RecipeWriteRequest) (*types.RecipeResponse, error) {
	if err := validateRecipeWrite(req, false); err != nil {
		return nil, err
	}
	data, contentType, ext, err := DecodeImage(*req.Image)
	if err != nil {
		return nil, err
	}
	tags, err := resolveTags(ctx, s.db, *req.Tags)
	if err != nil {
		return nil, err
	}
	links, err := s.composer.Compose(ctx, s.db, *req.Ingredients)
	if err != nil {
		return nil, err
	}

	imageKey, err := s.images.Save(ctx, data, contentType, ext)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	var recipeID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe := models.Recipe{
			AuthorID:    authorID,
			Name:        strings.TrimSpace(*req.Name),
			Text:        *req.Text,
			Image:       imageKey,
			CookingTime: *req.CookingTime,
		}
		if err := tx.Omit("Tags", "Ingredients", "Author").Create(&recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		if err := tx.Model(&recipe).Association("Tags").Replace(tags); err != nil {
			return fmt.Errorf("failed to set recipe tags: %w", err)
		}
		if err := s.composer.Replace(ctx, tx, recipe.ID, links); err != nil {
			return err
		}
		recipeID = recipe.ID
		return nil
	})
	if err != nil {
		s.discardImage(ctx, imageKey)
		return nil, err
	}

	logging.Ctx(ctx).Info().Uint("recipe_id", recipeID).Uint("author_id", authorID).Msg("recipe created")
	return s.Get(ctx, authorID, recipeID)
}

// Update applies a partial update. Supplied tags and ingredients replace the
// current sets; omitted ones are kept. Nothing changes when validation fails.
func (s *RecipeService) Update(ctx context.Context, userID, recipeID uint, req *types.RecipeWriteRequest) (*types.RecipeResponse, error) {
	recipe, err := s.ownedRecipe(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}
	if err := validateRecipeWrite(req, true); err != nil {
		return nil, err
	}

	var (
		tags     []models.Tag
		links    []models.RecipeIngredient
		newImage string
	)
	if req.Tags != nil {
		if tags, err = resolveTags(ctx, s.db, *req.Tags); err != nil {
			return nil, err
		}
	}
	if req.Ingredients != nil {
		if links, err = s.composer.Compose(ctx, s.db, *req.Ingredients); err != nil {
			return nil, err
		}
	}
	if req.Image != nil {
		data, contentType, ext, err := DecodeImage(*req.Image)
		if err != nil {
			return nil, err
		}
		if newImage, err = s.images.Save(ctx, data, contentType, ext); err != nil {
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
	}

	oldImage := recipe.Image
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{}
		if req.Name != nil {
			updates["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Text != nil {
			updates["text"] = *req.Text
		}
		if req.CookingTime != nil {
			updates["cooking_time"] = *req.CookingTime
		}
		if newImage != "" {
			updates["image"] = newImage
		}
		if len(updates) > 0 {
			if err := tx.Model(recipe).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update recipe: %w", err)
			}
		}

		if req.Tags != nil {
			if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
				return fmt.Errorf("failed to set recipe tags: %w", err)
			}
		}
		if req.Ingredients != nil {
			if err := s.composer.Replace(ctx, tx, recipe.ID, links); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.discardImage(ctx, newImage)
		return nil, err
	}
	if newImage != "" {
		s.discardImage(ctx, oldImage)
	}

	return s.Get(ctx, userID, recipe.ID)
}

// Delete removes a recipe with its links, favorites and cart entries.
func (s *RecipeService) Delete(ctx context.Context, userID, recipeID uint) error {
	recipe, err := s.ownedRecipe(ctx, userID, recipeID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.RecipeIngredient{}, &models.Favorite{}, &models.ShoppingCartEntry{}} {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete recipe relations: %w", err)
			}
		}
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("failed to clear recipe tags: %w", err)
		}
		if err := tx.Delete(recipe).Error; err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.discardImage(ctx, recipe.Image)
	logging.Ctx(ctx).Info().Uint("recipe_id", recipe.ID).Msg("recipe deleted")
	return nil
}

func (s *RecipeService) ownedRecipe(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("recipe")
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	if recipe.AuthorID != userID {
		return nil, &ForbiddenError{Message: "only the author can modify this recipe"}
	}
	return &recipe, nil
}

func (s *RecipeService) discardImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("image", key).Msg("failed to delete image")
	}
}

func (s *RecipeService) toResponses(ctx context.Context, viewerID uint, recipes []models.Recipe) ([]types.RecipeResponse, error) {
	ids := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	flags, err := s.aggregator.RecipeFlags(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.aggregator.SubscribedAuthors(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]types.RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		tags := make([]types.TagResponse, 0, len(r.Tags))
		for _, t := range r.Tags {
			tags = append(tags, tagResponse(t))
		}
		ingredients := make([]types.IngredientAmountResponse, 0, len(r.Ingredients))
		for _, l := range r.Ingredients {
			ingredients = append(ingredients, types.IngredientAmountResponse{
				ID:              l.IngredientID,
				Name:            l.Ingredient.Name,
				MeasurementUnit: l.Ingredient.MeasurementUnit.Name,
				Amount:          l.Amount,
			})
		}
		out = append(out, types.RecipeResponse{
			ID:               r.ID,
			Author:           userResponse(r.Author, subscribed.Has(r.AuthorID)),
			Tags:             tags,
			Name:             r.Name,
			Text:             r.Text,
			Image:            s.images.URL(r.Image),
			Ingredients:      ingredients,
			CookingTime:      r.CookingTime,
			IsFavorited:      flags.Favorited.Has(r.ID),
			IsInShoppingCart: flags.InCart.Has(r.ID),
		})
	}
	return out, nil
}

func (s *RecipeService) shortResponse(r models.Recipe) types.RecipeShortResponse {
	return types.RecipeShortResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       s.images.URL(r.Image),
		CookingTime: r.CookingTime,
	}
}

// resolveTags loads the tags for ids, ignoring repeats.
func resolveTags(ctx context.Context, tx *gorm.DB, ids []uint) ([]models.Tag, error) {
	unique := make([]uint, 0, len(ids))
	seen := IDSet{}
	for _, id := range ids {
		if !seen.Has(id) {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}

	var tags []models.Tag
	if err := tx.WithContext(ctx).Where("id IN ?", unique).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to look up tags: %w", err)
	}
	found := IDSet{}
	for _, t := range tags {
		found[t.ID] = struct{}{}
	}
	for _, id := range unique {
		if !found.Has(id) {
			return nil, &NotFoundError{Field: "tags", Message: fmt.Sprintf("Tag with id `%d` does not exist!", id)}
		}
	}
	return tags, nil
}

func validateRecipeWrite(req *types.RecipeWriteRequest, partial bool) error {
	errs := validation.FieldErrors{}
	required := func(field string, present bool) {
		if !partial && !present {
			errs.Add(field, "This field is required.")
		}
	}
	required("ingredients", req.Ingredients != nil)
	required("tags", req.Tags != nil)
	required("image", req.Image != nil)
	required("name", req.Name != nil)
	required("text", req.Text != nil)
	required("cooking_time", req.CookingTime != nil)

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		switch {
		case name == "":
			errs.Add("name", "This field may not be blank.")
		case utf8.RuneCountInString(name) > recipeNameMaxLength:
			errs.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", recipeNameMaxLength))
		}
	}
	if req.Text != nil && strings.TrimSpace(*req.Text) == "" {
		errs.Add("text", "This field may not be blank.")
	}
	if req.CookingTime != nil {
		switch {
		case *req.CookingTime < 1:
			errs.Add("cooking_time", cookingTimeMessage)
		case *req.CookingTime > MaxIntegerValue:
			errs.Add("cooking_time", fmt.Sprintf("Ensure this value is less than or equal to %d.", MaxIntegerValue))
		}
	}
	if req.Tags != nil && len(*req.Tags) == 0 {
		errs.Add("tags", "This list may not be empty.")
	}
	if req.Image != nil && strings.TrimSpace(*req.Image) == "" {
		errs.Add("image", "No file was submitted.")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func tagResponse(t models.Tag) types.TagResponse {
	return types.TagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug, Color: t.Color}
}
