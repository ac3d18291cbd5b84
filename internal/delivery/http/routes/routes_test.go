package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillsync/internal/delivery/http/handler"
	"skillsync/internal/delivery/http/middleware"
	"skillsync/internal/pkg/jwt"
	"skillsync/internal/ws"
)

func TestRegistry_Routes(t *testing.T) {
	svc := jwt.NewHMACService("secret", "", time.Hour)
	app := fiber.New()
	app.Use(middleware.NewErrorMiddleware(nil).Middleware())
	NewRegistry(
		handler.NewHealthHandler(nil, nil),
		handler.NewMatchHandler(nil, nil),
		ws.NewHandler(ws.NewHub(nil), nil),
		middleware.NewAuthMiddleware(svc),
	).Register(app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "go_goroutines")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/matches?role=student", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/ws/matches", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := svc.GenerateAccessToken(uuid.New(), "")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/matches?role=mentor", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
