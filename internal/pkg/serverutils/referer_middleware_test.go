package serverutils

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRefererApp(allowed []string) *fiber.App {
	app := fiber.New()
	app.Use(RefererCheckMiddleware(allowed))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestRefererCheckAllowsListedOrigin(t *testing.T) {
	app := newRefererApp([]string{"https://research.internal"})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Referer", "https://research.internal/chat")
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestRefererCheckRejectsUnlistedOrigin(t *testing.T) {
	app := newRefererApp([]string{"https://research.internal"})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Referer", "https://evil.example")
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)
}

func TestRefererCheckFallsBackToOriginHeader(t *testing.T) {
	app := newRefererApp([]string{"https://research.internal"})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)
}

func TestRefererCheckPassesNonBrowserClients(t *testing.T) {
	app := newRefererApp([]string{"https://research.internal"})

	// curl and server-to-server calls send neither header.
	res, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestRefererCheckDisabledWithEmptyAllowlist(t *testing.T) {
	app := newRefererApp(nil)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Referer", "https://anywhere.example")
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}
