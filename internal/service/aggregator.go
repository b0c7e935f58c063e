package service

import (
	"context"
	"fmt"

	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

// IDSet is a set of primary keys.
type IDSet map[uint]struct{}

func (s IDSet) Has(id uint) bool {
	_, ok := s[id]
	return ok
}

func newIDSet(ids []uint) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// RecipeFlags holds viewer-relative flags for a batch of recipes.
type RecipeFlags struct {
	Favorited IDSet
	InCart    IDSet
}

// RelationAggregator computes viewer-relative annotations for whole
// collections with one query per relation. A viewer id of 0 is anonymous and
// never matches anything.
type RelationAggregator struct {
	db *gorm.DB
}

func NewRelationAggregator(db *gorm.DB) *RelationAggregator {
	return &RelationAggregator{db: db}
}

// RecipeFlags returns which of recipeIDs the viewer has favorited or put in
// the shopping cart.
func (a *RelationAggregator) RecipeFlags(ctx context.Context, viewerID uint, recipeIDs []uint) (RecipeFlags, error) {
	flags := RecipeFlags{Favorited: IDSet{}, InCart: IDSet{}}
	if viewerID == 0 || len(recipeIDs) == 0 {
		return flags, nil
	}

	var err error
	if flags.Favorited, err = a.recipeIDsIn(ctx, &models.Favorite{}, viewerID, recipeIDs); err != nil {
		return flags, fmt.Errorf("failed to load favorites: %w", err)
	}
	if flags.InCart, err = a.recipeIDsIn(ctx, &models.ShoppingCartEntry{}, viewerID, recipeIDs); err != nil {
		return flags, fmt.Errorf("failed to load shopping cart: %w", err)
	}
	return flags, nil
}

func (a *RelationAggregator) recipeIDsIn(ctx context.Context, model any, viewerID uint, recipeIDs []uint) (IDSet, error) {
	var ids []uint
	err := a.db.WithContext(ctx).Model(model).
		Where("user_id = ? AND recipe_id IN ?", viewerID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return newIDSet(ids), nil
}

// SubscribedAuthors returns which of authorIDs the viewer follows.
func (a *RelationAggregator) SubscribedAuthors(ctx context.Context, viewerID uint, authorIDs []uint) (IDSet, error) {
	if viewerID == 0 || len(authorIDs) == 0 {
		return IDSet{}, nil
	}

	var ids []uint
	err := a.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND author_id IN ?", viewerID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	return newIDSet(ids), nil
}

// RecipeCounts returns the number of recipes authored by each of authorIDs.
// Authors without recipes are absent from the map.
func (a *RelationAggregator) RecipeCounts(ctx context.Context, authorIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		AuthorID uint
		Total    int64
	}
	err := a.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}
	for _, r := range rows {
		counts[r.AuthorID] = r.Total
	}
	return counts, nil
}

// FilterByRelation narrows a recipes query to those the viewer has (want) or
// has not (!want) related through table. Used for is_favorited and
// is_in_shopping_cart list filters.
func FilterByRelation(table string, viewerID uint, want bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if viewerID == 0 {
			if want {
				return db.Where("1 = 0")
			}
			return db
		}
		exists := fmt.Sprintf("EXISTS (SELECT 1 FROM %s r WHERE r.recipe_id = recipes.id AND r.user_id = ?)", table)
		if !want {
			exists = "NOT " + exists
		}
		return db.Where(exists, viewerID)
	}
}
