package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func newTestApplication(t *testing.T) (*application, *memoryUserStore) {
	t.Helper()
	store := newMemoryUserStore()
	var cfg config
	cfg.env = "test"
	app := &application{
		config: cfg,
		auth: newAuthGateway(
			store,
			newPasswordHasher(bcrypt.MinCost),
			newTokenService([]byte("test-secret")),
			newIdentityCache(),
			newRateLimiter(),
		),
	}
	return app, store
}

func doJSON(t *testing.T, handler http.Handler, method, target, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if bearer != "" {
		r.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestHealthCheckEndpoint(t *testing.T) {
	app, _ := newTestApplication(t)
	routes := composeRoutes(app)

	w := doJSON(t, routes, http.MethodGet, "/v1/healthcheck", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Status      string `json:"status"`
		Environment string `json:"environment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "available", got.Status)
	assert.Equal(t, "test", got.Environment)
}

func TestRegisterEndpoint(t *testing.T) {
	app, _ := newTestApplication(t)
	routes := composeRoutes(app)

	w := doJSON(t, routes, http.MethodPost, "/v1/auth/register",
		`{"email": "a@x.com", "password": "Abcdef12"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var got struct {
		User  user   `json:"user"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "a@x.com", got.User.Email)
	assert.Positive(t, got.User.ID)
	assert.NotEmpty(t, got.Token)

	userID, err := app.auth.tokens.verify(got.Token, tokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, got.User.ID, userID)
}

func TestRegisterEndpointFailures(t *testing.T) {
	app, _ := newTestApplication(t)
	routes := composeRoutes(app)

	w := doJSON(t, routes, http.MethodPost, "/v1/auth/register",
		`{"email": "bad", "password": "Abcdef12"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, routes, http.MethodPost, "/v1/auth/register",
		`{"email": "a@x.com", "password": "weak"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, routes, http.MethodPost, "/v1/auth/register",
		`{"email": "a@x.com", "password": "Abcdef12"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, routes, http.MethodPost, "/v1/auth/register",
		`{"email": "a@x.com", "password": "Other9xyz"}`, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginEndpoint(t *testing.T) {
	app, _ := newTestApplication(t)
	routes := composeRoutes(app)

	w := doJSON(t, routes, http.MethodPost, "/v1/auth/register",
		`{"email": "a@x.com", "password": "Abcdef12"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, routes, http.MethodPost, "/v1/auth/login",
		`{"email": "a@x.com", "password": "Abcdef12"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.NotEmpty(t, got.Token)
	assert.NotEmpty(t, got.RefreshToken)

	w = doJSON(t, routes, http.MethodPost, "/v1/auth/login",
		`{"email": "a@x.com", "password": "wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	app, _ := newTestApplication(t)
	routes := composeRoutes(app)

	w := doJSON(t, routes, http.MethodPost, "/v1/auth/register",
		`{"email": "a@x.com", "password": "Abcdef12"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, routes, http.MethodPost, "/v1/auth/login",
		`{"email": "a@x.com", "password": "Abcdef12"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	var login struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = doJSON(t, routes, http.MethodPost, "/v1/auth/refresh",
		fmt.Sprintf(`{"refresh_token": %q}`, login.RefreshToken), "")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	userID, err := app.auth.tokens.verify(got.Token, tokenTypeAccess)
	require.NoError(t, err)
	assert.Positive(t, userID)

	w = doJSON(t, routes, http.MethodPost, "/v1/auth/refresh",
		`{"refresh_token": "garbage"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthEndpointsReturn429WhenFlooded(t *testing.T) {
	app, _ := newTestApplication(t)
	routes := composeRoutes(app)

	for i := 0; i < rateLimitThreshold; i++ {
		body := fmt.Sprintf(`{"email": "u%d@x.com", "password": "Abcdef12"}`, i)
		w := doJSON(t, routes, http.MethodPost, "/v1/auth/register", body, "")
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := doJSON(t, routes, http.MethodPost, "/v1/auth/register",
		`{"email": "one-more@x.com", "password": "Abcdef12"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
