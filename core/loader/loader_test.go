package loader

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFeature struct {
	name    string
	enabled bool
	err     error
	loaded  bool
}

func (s *stubFeature) Name() string    { return s.name }
func (s *stubFeature) IsEnabled() bool { return s.enabled }
func (s *stubFeature) Load(app fiber.Router) error {
	s.loaded = true
	app.Get("/"+s.name, func(c *fiber.Ctx) error { return c.SendString(s.name) })
	return s.err
}

func TestManager_LoadAll(t *testing.T) {
	app := fiber.New()
	on := &stubFeature{name: "sync", enabled: true}
	off := &stubFeature{name: "reports", enabled: false}

	mgr := NewManager(nil)
	mgr.Register(on)
	mgr.Register(off)
	require.NoError(t, mgr.LoadAll(app))

	assert.True(t, on.loaded)
	assert.False(t, off.loaded)

	resp, err := app.Test(httptest.NewRequest("GET", "/sync", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/reports", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestManager_LoadAllErrors(t *testing.T) {
	mgr := NewManager(nil)
	mgr.Register(&stubFeature{name: "broken", enabled: true, err: errors.New("boom")})
	assert.ErrorContains(t, mgr.LoadAll(fiber.New()), "failed to load feature broken")

	mgr = NewManager(nil)
	mgr.Register(&stubFeature{name: "sync", enabled: true})
	mgr.Register(&stubFeature{name: "sync", enabled: true})
	assert.ErrorContains(t, mgr.LoadAll(fiber.New()), "registered twice")
}
