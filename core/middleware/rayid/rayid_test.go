package rayid

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRayID(t *testing.T) {
	var seen string
	app := fiber.New()
	app.Use(New())
	app.Get("/", func(c *fiber.Ctx) error {
		seen, _ = c.Locals(LocalsKey).(string)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	_, parseErr := uuid.Parse(seen)
	assert.NoError(t, parseErr)
	assert.Equal(t, seen, resp.Header.Get(HeaderName))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderName, "upstream-1")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "upstream-1", seen)
	assert.Equal(t, "upstream-1", resp.Header.Get(HeaderName))
}
