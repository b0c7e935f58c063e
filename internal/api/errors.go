package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/validation"
)

const (
	detailNotFound     = "Not found."
	detailForbidden    = "You do not have permission to perform this action."
	detailInvalidToken = "Invalid token."
	detailInternal     = "Internal server error."
)

// respondError maps service errors to status codes and bodies. Unknown errors
// are logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		verr      *service.ValidationError
		notFound  *service.NotFoundError
		conflict  *service.ConflictError
		forbidden *service.ForbiddenError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, verr.Fields)
	case errors.As(err, &notFound):
		if notFound.Field != "" {
			c.JSON(http.StatusNotFound, gin.H{notFound.Field: []string{notFound.Message}})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"detail": detailNotFound})
	case errors.As(err, &conflict):
		c.JSON(http.StatusBadRequest, gin.H{"errors": conflict.Message})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, gin.H{"detail": detailForbidden})
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrTokenRevoked):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": detailInvalidToken})
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": detailInternal})
	}
}

func respondFieldError(c *gin.Context, field, msg string) {
	c.JSON(http.StatusBadRequest, validation.FieldErrors{field: {msg}})
}

// bindJSON decodes the request body into dst and answers 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		respondFieldError(c, typeErr.Field, "Incorrect type.")
		return false
	}
	respondFieldError(c, "non_field_errors", "Invalid data. Expected a JSON object.")
	return false
}
