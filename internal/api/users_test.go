package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestRegisterLoginLogout(t *testing.T) {
	s := setupTestServer(t)

	rr := s.PerformRequest(http.MethodPost, "/api/users/", map[string]any{
		"email":      "vasya@example.com",
		"username":   "vasya",
		"first_name": "Vasya",
		"last_name":  "Pupkin",
		"password":   "Qwerty123!",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[map[string]any](t, rr)
	assert.Equal(t, "vasya", created["username"])
	assert.NotContains(t, created, "password")
	assert.NotContains(t, created, "is_subscribed")

	rr = s.PerformRequest(http.MethodPost, "/api/auth/token/login/", map[string]any{
		"email": "vasya@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"non_field_errors":["Unable to log in with provided credentials."]}`, rr.Body.String())

	rr = s.PerformRequest(http.MethodPost, "/api/auth/token/login/", map[string]any{
		"email": "vasya@example.com", "password": "Qwerty123!",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	token := decode[map[string]string](t, rr)["auth_token"]
	require.NotEmpty(t, token)

	rr = s.PerformRequestWithToken(http.MethodGet, "/api/users/me/", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "vasya", decode[map[string]any](t, rr)["username"])

	rr = s.PerformRequestWithToken(http.MethodPost, "/api/auth/token/logout/", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = s.PerformRequestWithToken(http.MethodGet, "/api/users/me/", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRegisterValidation(t *testing.T) {
	s := setupTestServer(t)
	testhelpers.CreateUser(t, s.db, "taken")

	rr := s.PerformRequest(http.MethodPost, "/api/users/", map[string]any{
		"email":      "taken@example.com",
		"username":   "taken",
		"first_name": "A",
		"last_name":  "B",
		"password":   "Qwerty123!",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	errs := decode[map[string][]string](t, rr)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "username")

	rr = s.PerformRequest(http.MethodPost, "/api/users/", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	errs = decode[map[string][]string](t, rr)
	for _, field := range []string{"email", "username", "first_name", "last_name", "password"} {
		assert.Equal(t, []string{"This field is required."}, errs[field], field)
	}
}

func TestMeRequiresAuth(t *testing.T) {
	s := setupTestServer(t)
	rr := s.PerformRequest(http.MethodGet, "/api/users/me/", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"detail":"Authentication credentials were not provided."}`, rr.Body.String())

	rr = s.PerformRequestWithToken(http.MethodGet, "/api/users/me/", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"detail":"Invalid token."}`, rr.Body.String())
}

func TestSetPassword(t *testing.T) {
	s := setupTestServer(t)
	user := testhelpers.CreateUser(t, s.db, "alice")
	token := s.tokenFor(t, user)

	rr := s.PerformRequestWithToken(http.MethodPost, "/api/users/set_password/", map[string]string{
		"current_password": "nope", "new_password": "another-secret",
	}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"current_password":["Неверный пароль!"]}`, rr.Body.String())

	rr = s.PerformRequestWithToken(http.MethodPost, "/api/users/set_password/", map[string]string{
		"current_password": testhelpers.TestPassword, "new_password": "another-secret",
	}, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestSubscriptions(t *testing.T) {
	s := setupTestServer(t)
	reader := testhelpers.CreateUser(t, s.db, "reader")
	author := testhelpers.CreateUser(t, s.db, "author")
	for i := 0; i < 3; i++ {
		testhelpers.CreateRecipe(t, s.db, author.ID, fmt.Sprintf("Dish %d", i), nil)
	}
	token := s.tokenFor(t, reader)
	subscribe := fmt.Sprintf("/api/users/%d/subscribe/", author.ID)

	rr := s.PerformRequestWithToken(http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe/", reader.ID), nil, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"errors":"You cannot subscribe to yourself!"}`, rr.Body.String())

	rr = s.PerformRequestWithToken(http.MethodPost, subscribe+"?recipes_limit=1", nil, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	sub := decode[map[string]any](t, rr)
	assert.Equal(t, true, sub["is_subscribed"])
	assert.Equal(t, float64(3), sub["recipes_count"])
	assert.Len(t, sub["recipes"], 1)

	rr = s.PerformRequestWithToken(http.MethodPost, subscribe, nil, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"errors":"Subscription on this author already exists!"}`, rr.Body.String())

	rr = s.PerformRequestWithToken(http.MethodGet, "/api/users/subscriptions/?recipes_limit=x", nil, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.PerformRequestWithToken(http.MethodGet, "/api/users/subscriptions/", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	page := decode[map[string]any](t, rr)
	assert.Equal(t, float64(1), page["count"])
	results := page["results"].([]any)
	assert.Len(t, results[0].(map[string]any)["recipes"], 3)

	rr = s.PerformRequestWithToken(http.MethodGet, fmt.Sprintf("/api/users/%d/", author.ID), nil, token)
	assert.Equal(t, true, decode[map[string]any](t, rr)["is_subscribed"])
	rr = s.PerformRequest(http.MethodGet, fmt.Sprintf("/api/users/%d/", author.ID), nil)
	assert.Equal(t, false, decode[map[string]any](t, rr)["is_subscribed"])

	rr = s.PerformRequestWithToken(http.MethodDelete, subscribe, nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = s.PerformRequestWithToken(http.MethodDelete, subscribe, nil, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"errors":"Subscription on this author not exists!"}`, rr.Body.String())

	rr = s.PerformRequestWithToken(http.MethodPost, "/api/users/9999/subscribe/", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListUsers(t *testing.T) {
	s := setupTestServer(t)
	for i := 0; i < 7; i++ {
		testhelpers.CreateUser(t, s.db, fmt.Sprintf("user%d", i))
	}

	rr := s.PerformRequest(http.MethodGet, "/api/users/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	page := decode[map[string]any](t, rr)
	assert.Equal(t, float64(7), page["count"])
	assert.Len(t, page["results"], 6)
	assert.NotNil(t, page["next"])
}
