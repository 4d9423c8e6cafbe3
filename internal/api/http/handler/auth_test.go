package handler

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgesphysio/bridges_backend/config"
)

func TestRefreshTokenSource(t *testing.T) {
	h := &AuthHandler{cfg: config.AuthConfig{CookieName: "rt"}}

	var got string
	app := fiber.New()
	app.Post("/refresh", func(c fiber.Ctx) error {
		got = h.refreshToken(c)
		return c.SendStatus(fiber.StatusNoContent)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/refresh", nil)
		req.Header.Set("Cookie", "rt=from-cookie")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "from-cookie", got)
	})

	t.Run("body fallback", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/refresh", strings.NewReader(`{"refreshToken":"from-body"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "from-body", got)
	})

	t.Run("cookie wins over body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/refresh", strings.NewReader(`{"refreshToken":"from-body"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Cookie", "rt=from-cookie")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "from-cookie", got)
	})

	t.Run("missing everywhere", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/refresh", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "", got)
	})
}
