package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, env.db, "alice")

	token, err := env.auth.Login(ctx, &types.LoginRequest{Email: "ALICE@example.com", Password: testhelpers.TestPassword})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := env.auth.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.ID)
}

func TestAuthService_LoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testhelpers.CreateUser(t, env.db, "alice")

	for name, req := range map[string]*types.LoginRequest{
		"wrong password": {Email: "alice@example.com", Password: "wrong"},
		"unknown email":  {Email: "nobody@example.com", Password: testhelpers.TestPassword},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := env.auth.Login(ctx, req)
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, []string{"Unable to log in with provided credentials."}, verr.Fields["non_field_errors"])
		})
	}

	_, err := env.auth.Login(ctx, &types.LoginRequest{})
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
}

func TestAuthService_ValidateToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, env.db, "alice")

	t.Run("garbage", func(t *testing.T) {
		_, err := env.auth.ValidateToken(ctx, "not-a-token")
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := service.NewAuthService(env.db, "another-secret", time.Hour, nil)
		token, err := other.GenerateToken(user)
		require.NoError(t, err)
		_, err = env.auth.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		short := service.NewAuthService(env.db, "test-secret", -time.Minute, nil)
		token, err := short.GenerateToken(user)
		require.NoError(t, err)
		_, err = env.auth.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := &types.TokenClaims{UserID: user.ID, Username: user.Username}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = env.auth.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})
}

func TestAuthService_Logout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, env.db, "alice")

	first, err := env.auth.GenerateToken(user)
	require.NoError(t, err)
	second, err := env.auth.GenerateToken(user)
	require.NoError(t, err)

	claims, err := env.auth.ValidateToken(ctx, first)
	require.NoError(t, err)
	require.NoError(t, env.auth.Logout(ctx, claims))

	_, err = env.auth.ValidateToken(ctx, first)
	assert.ErrorIs(t, err, service.ErrTokenRevoked)

	_, err = env.auth.ValidateToken(ctx, second)
	assert.NoError(t, err)
}
