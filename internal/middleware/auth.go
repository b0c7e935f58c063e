package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	userIDKey = "user_id"
	claimsKey = "claims"

	notAuthenticated = "Authentication credentials were not provided."
	invalidToken     = "Invalid token."
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
}

// RequireAuth rejects requests without a valid token.
func RequireAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(userIDKey); !ok && !authenticate(c, validator) {
			return
		}
		if _, ok := c.Get(userIDKey); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": notAuthenticated})
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a token is sent and lets anonymous
// requests through. A token that is sent but invalid is still rejected.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, validator) {
			return
		}
		c.Next()
	}
}

// authenticate stores the claims of a valid token in c. It aborts and
// returns false for a malformed or invalid Authorization header.
func authenticate(c *gin.Context, validator TokenValidator) bool {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return true
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || (parts[0] != "Token" && parts[0] != "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": invalidToken})
		return false
	}

	claims, err := validator.ValidateToken(c.Request.Context(), parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": invalidToken})
		return false
	}

	c.Set(userIDKey, claims.UserID)
	c.Set(claimsKey, claims)
	return true
}

// UserID returns the authenticated user id, or 0 for anonymous requests.
func UserID(c *gin.Context) uint {
	id, _ := c.Get(userIDKey)
	uid, _ := id.(uint)
	return uid
}

// Claims returns the token claims of the authenticated request.
func Claims(c *gin.Context) *types.TokenClaims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(*types.TokenClaims)
	return claims
}
