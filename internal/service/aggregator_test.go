package service_test

import (
	"context"
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationAggregator(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	viewer := testhelpers.CreateUser(t, db, "viewer")
	alice := testhelpers.CreateUser(t, db, "alice")
	bob := testhelpers.CreateUser(t, db, "bob")
	r1 := testhelpers.CreateRecipe(t, db, alice.ID, "Soup", nil)
	r2 := testhelpers.CreateRecipe(t, db, alice.ID, "Salad", nil)
	r3 := testhelpers.CreateRecipe(t, db, bob.ID, "Pie", nil)

	testhelpers.AddFavorite(t, db, viewer.ID, r1.ID)
	testhelpers.AddToCart(t, db, viewer.ID, r2.ID)
	testhelpers.AddFavorite(t, db, alice.ID, r3.ID)
	testhelpers.Subscribe(t, db, viewer.ID, alice.ID)

	agg := service.NewRelationAggregator(db)
	ctx := context.Background()
	ids := []uint{r1.ID, r2.ID, r3.ID}

	t.Run("recipe flags", func(t *testing.T) {
		flags, err := agg.RecipeFlags(ctx, viewer.ID, ids)
		require.NoError(t, err)
		assert.True(t, flags.Favorited.Has(r1.ID))
		assert.False(t, flags.Favorited.Has(r3.ID))
		assert.True(t, flags.InCart.Has(r2.ID))
		assert.False(t, flags.InCart.Has(r1.ID))
	})

	t.Run("anonymous viewer has no flags", func(t *testing.T) {
		flags, err := agg.RecipeFlags(ctx, 0, ids)
		require.NoError(t, err)
		assert.Empty(t, flags.Favorited)
		assert.Empty(t, flags.InCart)

		subs, err := agg.SubscribedAuthors(ctx, 0, []uint{alice.ID})
		require.NoError(t, err)
		assert.Empty(t, subs)
	})

	t.Run("subscribed authors", func(t *testing.T) {
		subs, err := agg.SubscribedAuthors(ctx, viewer.ID, []uint{alice.ID, bob.ID})
		require.NoError(t, err)
		assert.True(t, subs.Has(alice.ID))
		assert.False(t, subs.Has(bob.ID))
	})

	t.Run("recipe counts", func(t *testing.T) {
		counts, err := agg.RecipeCounts(ctx, []uint{alice.ID, bob.ID, viewer.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts[alice.ID])
		assert.Equal(t, int64(1), counts[bob.ID])
		assert.Zero(t, counts[viewer.ID])
	})

	t.Run("filter by relation", func(t *testing.T) {
		var got []uint
		require.NoError(t, db.Model(&models.Recipe{}).
			Scopes(service.FilterByRelation("favorites", viewer.ID, true)).
			Order("id").Pluck("id", &got).Error)
		assert.Equal(t, []uint{r1.ID}, got)

		got = nil
		require.NoError(t, db.Model(&models.Recipe{}).
			Scopes(service.FilterByRelation("favorites", viewer.ID, false)).
			Order("id").Pluck("id", &got).Error)
		assert.Equal(t, []uint{r2.ID, r3.ID}, got)

		got = nil
		require.NoError(t, db.Model(&models.Recipe{}).
			Scopes(service.FilterByRelation("shopping_cart_entries", 0, true)).
			Pluck("id", &got).Error)
		assert.Empty(t, got)
	})
}
