package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/beanhook/pkg/auth"
	"github.com/beanhook/pkg/config"
	apperrors "github.com/beanhook/pkg/errors"
	"github.com/beanhook/pkg/response"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(Recovery(), RequestID(), AccessLog(), ErrorHandler())
	app.Get("/ok", func(c *fiber.Ctx) error { return response.Success(c, "fine") })
	app.Get("/panic", func(*fiber.Ctx) error { panic("boom") })
	app.Get("/missing", func(*fiber.Ctx) error { return apperrors.BeanNotFound("cache") })
	app.Get("/rejected", func(*fiber.Ctx) error {
		return apperrors.Derive(apperrors.ErrReplayRejected, "get", nil)
	})
	return app
}

func call(t *testing.T, app *fiber.App, path string, header map[string]string) (*http.Response, response.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var r response.Response
	require.NoError(t, json.Unmarshal(body, &r))
	return resp, r
}

func TestRequestID(t *testing.T) {
	app := newApp()

	resp, r := call(t, app, "/ok", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "fine", r.Data)
	assert.Len(t, resp.Header.Get("X-Request-ID"), 36)

	resp, _ = call(t, app, "/ok", map[string]string{"X-Request-ID": "abc"})
	assert.Equal(t, "abc", resp.Header.Get("X-Request-ID"))
}

func TestErrorHandlerMapsAppErrors(t *testing.T) {
	app := newApp()

	resp, r := call(t, app, "/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apperrors.CodeBeanNotFound, r.Code)
	assert.Contains(t, r.Message, "cache")

	resp, r = call(t, app, "/rejected", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, apperrors.CodeReplayRejected, r.Code)

	resp, _ = call(t, app, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecovery(t *testing.T) {
	resp, r := call(t, newApp(), "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, r.Message, "boom")
}

func TestJWTAuth(t *testing.T) {
	m := auth.NewJWTManager(&config.AdminConfig{JWTSecret: "secret", Issuer: "beanhook", Expire: 60})
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(ErrorHandler())
	app.Get("/open", JWTAuth(nil), func(c *fiber.Ctx) error { return response.Success(c, "open") })
	app.Get("/guarded", JWTAuth(m), func(c *fiber.Ctx) error {
		return response.Success(c, c.Locals("subject"))
	})

	resp, _ := call(t, app, "/open", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, r := call(t, app, "/guarded", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, apperrors.CodeUnauthorized, r.Code)

	resp, _ = call(t, app, "/guarded", map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := m.GenerateToken("ops", "node-1")
	require.NoError(t, err)
	resp, r = call(t, app, "/guarded", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ops", r.Data)

	resp, _ = call(t, app, "/guarded?token="+token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
