package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
)

// HealthCheck reports whether the database answers.
func HealthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := database.HealthCheck(ctx, db); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondFieldError(c, name, "Value `"+name+"` must be integer!")
		return 0, false
	}
	return uint(id), true
}

// queryBool reads an optional 0/1 (or true/false) query flag.
func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		respondFieldError(c, name, "Value `"+name+"` must be 0 or 1!")
		return nil, false
	}
	return &v, true
}

// queryLimit reads an optional non-negative integer; absent means -1.
func queryLimit(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return -1, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		respondFieldError(c, name, "Value `"+name+"` must be integer!")
		return 0, false
	}
	return n, true
}
