package api

import (
	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Services groups what the handlers depend on.
type Services struct {
	Auth         *service.AuthService
	Users        *service.UserService
	Recipes      *service.RecipeService
	Relations    *service.RelationService
	ShoppingList *service.ShoppingListService
	Catalog      *service.CatalogService
}

// RegisterRoutes mounts the API under /api. writeLimiter may be nil.
func RegisterRoutes(router *gin.Engine, svc *Services, paginator Paginator, writeLimiter *middleware.RateLimiter) {
	api := router.Group("/api")

	NewAuthHandler(svc.Auth).RegisterRoutes(api)
	NewUserHandler(svc.Users, svc.Auth, paginator).RegisterRoutes(api)
	NewCatalogHandler(svc.Catalog).RegisterRoutes(api)
	NewRecipeHandler(svc.Recipes, svc.Relations, svc.ShoppingList, svc.Auth, writeLimiter, paginator).RegisterRoutes(api)
}
