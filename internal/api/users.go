package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type UserHandler struct {
	userService *service.UserService
	authService *service.AuthService
	paginator   Paginator
}

func NewUserHandler(userService *service.UserService, authService *service.AuthService, paginator Paginator) *UserHandler {
	return &UserHandler{
		userService: userService,
		authService: authService,
		paginator:   paginator,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	requireAuth := middleware.RequireAuth(h.authService)

	users := router.Group("/users")
	users.Use(middleware.OptionalAuth(h.authService))
	{
		users.GET("/", h.ListUsers)
		users.POST("/", h.CreateUser)
		users.GET("/me/", requireAuth, h.Me)
		users.POST("/set_password/", requireAuth, h.SetPassword)
		users.GET("/subscriptions/", requireAuth, h.Subscriptions)
		users.GET("/:id/", h.GetUser)
		users.POST("/:id/subscribe/", requireAuth, h.Subscribe)
		users.DELETE("/:id/subscribe/", requireAuth, h.Unsubscribe)
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	params, ok := h.paginator.Parse(c)
	if !ok {
		return
	}
	users, total, err := h.userService.List(c.Request.Context(), middleware.UserID(c), params.Offset(), params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	h.paginator.Respond(c, params, total, users)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req types.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Me(c *gin.Context) {
	userID := middleware.UserID(c)
	user, err := h.userService.Get(c.Request.Context(), userID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.userService.SetPassword(c.Request.Context(), middleware.UserID(c), &req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	recipesLimit, ok := queryLimit(c, "recipes_limit")
	if !ok {
		return
	}
	params, ok := h.paginator.Parse(c)
	if !ok {
		return
	}
	subs, total, err := h.userService.Subscriptions(c.Request.Context(), middleware.UserID(c), params.Offset(), params.Limit, recipesLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	h.paginator.Respond(c, params, total, subs)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	authorID, ok := parseID(c, "id")
	if !ok {
		return
	}
	recipesLimit, ok := queryLimit(c, "recipes_limit")
	if !ok {
		return
	}
	sub, err := h.userService.Subscribe(c.Request.Context(), middleware.UserID(c), authorID, recipesLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	authorID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.userService.Unsubscribe(c.Request.Context(), middleware.UserID(c), authorID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
