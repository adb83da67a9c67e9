package logger

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantDebug bool
	}{
		{"ProductionJSON", Config{Level: "info", Format: "json"}, false},
		{"DevelopmentConsole", Config{Level: "debug", Format: "console"}, true},
		{"Warn", Config{Level: "warn", Format: "json"}, false},
		{"Defaults", Config{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(&tt.cfg)
			require.NoError(t, err)
			require.NotNil(t, l)
			assert.Equal(t, tt.wantDebug, l.Core().Enabled(zapcore.DebugLevel))
		})
	}
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(&Config{Level: "verbose"})
	assert.ErrorContains(t, err, "invalid log level")

	_, err = New(&Config{Level: "info", Format: "xml"})
	assert.ErrorContains(t, err, "unsupported log format")
}

func TestNew_WarnSuppressesInfo(t *testing.T) {
	l, err := New(&Config{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestWithRun(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	WithRun(zap.New(core), "20260101T000000Z-abcd1234", "schedule").Info("Sync run started")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "20260101T000000Z-abcd1234", fields["run_id"])
	assert.Equal(t, "schedule", fields["trigger"])
}

// TestWithRayID tests that the ray id stored by the middleware is attached to log entries.
func TestWithRayID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		c.Locals("ray_id", "ray-123")
		WithRayID(base, c).Info("with ray")
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/bare", func(c *fiber.Ctx) error {
		WithRayID(base, c).Info("without ray")
		return c.SendStatus(fiber.StatusOK)
	})

	_, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest("GET", "/bare", nil))
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "ray-123", entries[0].ContextMap()["ray_id"])
	assert.NotContains(t, entries[1].ContextMap(), "ray_id")
}
