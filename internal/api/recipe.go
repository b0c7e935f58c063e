package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type RecipeHandler struct {
	recipeService   *service.RecipeService
	relationService *service.RelationService
	shoppingList    *service.ShoppingListService
	authService     *service.AuthService
	writeLimiter    *middleware.RateLimiter
	paginator       Paginator
}

func NewRecipeHandler(
	recipeService *service.RecipeService,
	relationService *service.RelationService,
	shoppingList *service.ShoppingListService,
	authService *service.AuthService,
	writeLimiter *middleware.RateLimiter,
	paginator Paginator,
) *RecipeHandler {
	return &RecipeHandler{
		recipeService:   recipeService,
		relationService: relationService,
		shoppingList:    shoppingList,
		authService:     authService,
		writeLimiter:    writeLimiter,
		paginator:       paginator,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	requireAuth := middleware.RequireAuth(h.authService)
	limited := h.writeLimiter.Middleware()

	recipes := router.Group("/recipes")
	recipes.Use(middleware.OptionalAuth(h.authService))
	{
		recipes.GET("/", h.ListRecipes)
		recipes.POST("/", requireAuth, limited, h.CreateRecipe)
		recipes.GET("/download_shopping_cart/", requireAuth, h.DownloadShoppingCart)
		recipes.GET("/:id/", h.GetRecipe)
		recipes.PATCH("/:id/", requireAuth, limited, h.UpdateRecipe)
		recipes.DELETE("/:id/", requireAuth, limited, h.DeleteRecipe)
		recipes.POST("/:id/favorite/", requireAuth, h.AddFavorite)
		recipes.DELETE("/:id/favorite/", requireAuth, h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart/", requireAuth, h.AddToCart)
		recipes.DELETE("/:id/shopping_cart/", requireAuth, h.RemoveFromCart)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	var filter types.RecipeFilter
	if raw := c.Query("author"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondFieldError(c, "author", "Value `author` must be integer!")
			return
		}
		authorID := uint(id)
		filter.AuthorID = &authorID
	}
	filter.Tags = c.QueryArray("tags")

	var ok bool
	if filter.IsFavorited, ok = queryBool(c, "is_favorited"); !ok {
		return
	}
	if filter.IsInShoppingCart, ok = queryBool(c, "is_in_shopping_cart"); !ok {
		return
	}

	params, ok := h.paginator.Parse(c)
	if !ok {
		return
	}
	recipes, total, err := h.recipeService.List(c.Request.Context(), middleware.UserID(c), filter, params.Offset(), params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	h.paginator.Respond(c, params, total, recipes)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	recipe, err := h.recipeService.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeWriteRequest
	if !bindJSON(c, &req) {
		return
	}
	recipe, err := h.recipeService.Create(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req types.RecipeWriteRequest
	if !bindJSON(c, &req) {
		return
	}
	recipe, err := h.recipeService.Update(c.Request.Context(), middleware.UserID(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.recipeService.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addRelation(c, h.relationService.AddFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeRelation(c, h.relationService.RemoveFavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addRelation(c, h.relationService.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeRelation(c, h.relationService.RemoveFromCart)
}

func (h *RecipeHandler) addRelation(c *gin.Context, add func(ctx context.Context, userID, recipeID uint) (*types.RecipeShortResponse, error)) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	short, err := add(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, short)
}

func (h *RecipeHandler) removeRelation(c *gin.Context, remove func(ctx context.Context, userID, recipeID uint) error) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := remove(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart sends the summed shopping list as a text attachment.
// The ETag lets clients skip unchanged lists.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	list, err := h.shoppingList.Export(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(list.Content))
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, list.Filename))
	c.Data(http.StatusOK, "text/plain", list.Content)
}
