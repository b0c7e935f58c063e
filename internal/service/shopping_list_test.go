package service_test

import (
	"context"
	"testing"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	listHeader = "---------СПИСОК ПОКУПОК---------\n================================\n"
	listFooter = "================================\n----------FOODGRAM (ↄ)----------"
)

func TestAggregateCart(t *testing.T) {
	links := []service.CartLink{
		{IngredientID: 2, Name: "Salt", Unit: "g", Amount: 5},
		{IngredientID: 1, Name: "Flour", Unit: "g", Amount: 200},
		{IngredientID: 2, Name: "Salt", Unit: "g", Amount: 3},
	}

	items := service.AggregateCart(links)
	require.Len(t, items, 2)
	assert.Equal(t, service.ShoppingListItem{IngredientID: 2, Name: "Salt", Unit: "g", Amount: 8}, items[0])
	assert.Equal(t, service.ShoppingListItem{IngredientID: 1, Name: "Flour", Unit: "g", Amount: 200}, items[1])
}

func TestAggregateCart_SameNameDifferentUnit(t *testing.T) {
	items := service.AggregateCart([]service.CartLink{
		{IngredientID: 1, Name: "Salt", Unit: "g", Amount: 5},
		{IngredientID: 2, Name: "Salt", Unit: "pinch", Amount: 1},
	})
	assert.Len(t, items, 2)
}

func TestRenderShoppingList(t *testing.T) {
	assert.Equal(t, listHeader+listFooter, service.RenderShoppingList(nil))

	got := service.RenderShoppingList([]service.ShoppingListItem{
		{Name: "Salt", Unit: "g", Amount: 8},
		{Name: "Eggs", Unit: "pcs", Amount: 3},
	})
	assert.Equal(t, listHeader+"Salt - 8 g\nEggs - 3 pcs\n"+listFooter, got)
}

func TestShoppingListService_Export(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, env.db, "cook")
	author := testhelpers.CreateUser(t, env.db, "author")
	salt := testhelpers.CreateIngredient(t, env.db, "Salt", "g")
	sugar := testhelpers.CreateIngredient(t, env.db, "Sugar", "g")

	soup := testhelpers.CreateRecipe(t, env.db, author.ID, "Soup", nil,
		testhelpers.Line{Ingredient: salt, Amount: 5})
	pie := testhelpers.CreateRecipe(t, env.db, author.ID, "Pie", nil,
		testhelpers.Line{Ingredient: salt, Amount: 3},
		testhelpers.Line{Ingredient: sugar, Amount: 100})
	testhelpers.CreateRecipe(t, env.db, author.ID, "Not in cart", nil,
		testhelpers.Line{Ingredient: sugar, Amount: 999})

	t.Run("empty cart", func(t *testing.T) {
		list, err := env.shopping.Export(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "cook_shopping_cart.txt", list.Filename)
		assert.Equal(t, listHeader+listFooter, string(list.Content))
		assert.Empty(t, list.Items)
	})

	testhelpers.AddToCart(t, env.db, user.ID, soup.ID)
	testhelpers.AddToCart(t, env.db, user.ID, pie.ID)

	t.Run("amounts are summed per ingredient", func(t *testing.T) {
		list, err := env.shopping.Export(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, listHeader+"Salt - 8 g\nSugar - 100 g\n"+listFooter, string(list.Content))
	})

	t.Run("other users' carts are not included", func(t *testing.T) {
		list, err := env.shopping.Export(ctx, author.ID)
		require.NoError(t, err)
		assert.Equal(t, listHeader+listFooter, string(list.Content))
	})
}

func TestShoppingListService_SugarScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, env.db, "cook")
	sugar := testhelpers.CreateIngredient(t, env.db, "Sugar", "g")
	r1 := testhelpers.CreateRecipe(t, env.db, user.ID, "Tea", nil, testhelpers.Line{Ingredient: sugar, Amount: 10})
	r2 := testhelpers.CreateRecipe(t, env.db, user.ID, "Coffee", nil, testhelpers.Line{Ingredient: sugar, Amount: 15})

	_, err := env.relations.AddToCart(ctx, user.ID, r1.ID)
	require.NoError(t, err)
	_, err = env.relations.AddToCart(ctx, user.ID, r2.ID)
	require.NoError(t, err)

	list, err := env.shopping.Export(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 25, list.Items[0].Amount)
	assert.Contains(t, string(list.Content), "Sugar - 25 g\n")

	require.NoError(t, env.relations.RemoveFromCart(ctx, user.ID, r1.ID))
	list, err = env.shopping.Export(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, listHeader+"Sugar - 15 g\n"+listFooter, string(list.Content))
}
