package service_test

import (
	"context"
	"testing"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationService_Favorites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, env.db, "user")
	author := testhelpers.CreateUser(t, env.db, "author")
	recipe := testhelpers.CreateRecipe(t, env.db, author.ID, "Soup", nil)

	short, err := env.relations.AddFavorite(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, short.ID)
	assert.Equal(t, "Soup", short.Name)
	assert.Equal(t, 10, short.CookingTime)
	assert.Equal(t, "http://testserver/media/"+recipe.Image, short.Image)

	_, err = env.relations.AddFavorite(ctx, user.ID, recipe.ID)
	var conflict *service.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Recipe is already in the favorite!", conflict.Message)

	got, err := env.recipes.Get(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFavorited)

	require.NoError(t, env.relations.RemoveFavorite(ctx, user.ID, recipe.ID))
	got, err = env.recipes.Get(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.False(t, got.IsFavorited)

	err = env.relations.RemoveFavorite(ctx, user.ID, recipe.ID)
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Recipe is not in favorite!", conflict.Message)
}

func TestRelationService_ShoppingCart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, env.db, "user")
	author := testhelpers.CreateUser(t, env.db, "author")
	recipe := testhelpers.CreateRecipe(t, env.db, author.ID, "Soup", nil)

	_, err := env.relations.AddToCart(ctx, user.ID, recipe.ID)
	require.NoError(t, err)

	_, err = env.relations.AddToCart(ctx, user.ID, recipe.ID)
	var conflict *service.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Recipe is already in the shopping cart!", conflict.Message)

	require.NoError(t, env.relations.RemoveFromCart(ctx, user.ID, recipe.ID))
	err = env.relations.RemoveFromCart(ctx, user.ID, recipe.ID)
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Recipe is not in the shopping cart!", conflict.Message)
}

func TestRelationService_FavoriteAndCartAreIndependent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, env.db, "user")
	other := testhelpers.CreateUser(t, env.db, "other")
	recipe := testhelpers.CreateRecipe(t, env.db, other.ID, "Soup", nil)

	_, err := env.relations.AddFavorite(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	_, err = env.relations.AddToCart(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	_, err = env.relations.AddFavorite(ctx, other.ID, recipe.ID)
	require.NoError(t, err)

	require.NoError(t, env.relations.RemoveFavorite(ctx, user.ID, recipe.ID))

	got, err := env.recipes.Get(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.False(t, got.IsFavorited)
	assert.True(t, got.IsInShoppingCart)

	got, err = env.recipes.Get(ctx, other.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFavorited)
	assert.False(t, got.IsInShoppingCart)
}

func TestRelationService_MissingRecipe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, env.db, "user")

	_, err := env.relations.AddFavorite(ctx, user.ID, 404)
	var nf *service.NotFoundError
	assert.ErrorAs(t, err, &nf)

	err = env.relations.RemoveFromCart(ctx, user.ID, 404)
	assert.ErrorAs(t, err, &nf)
}
