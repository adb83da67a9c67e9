package logger

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// rayIDKey is the fiber locals key set by the rayid middleware.
const rayIDKey = "ray_id"

// New builds a logger from cfg. The debug level uses zap's development preset
// (caller, stack traces from warn); every other level uses the production preset.
func New(cfg *Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	if level == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	switch cfg.Format {
	case "console":
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.DisableStacktrace = true
	case "", "json":
		zc.Encoding = "json"
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}

	zc.EncoderConfig.LevelKey = "level"
	zc.EncoderConfig.TimeKey = "time"
	zc.EncoderConfig.MessageKey = "message"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zc.Build()
}

// WithRayID returns a logger with the ray_id field set from the Fiber context.
func WithRayID(l *zap.Logger, c *fiber.Ctx) *zap.Logger {
	if rid, ok := c.Locals(rayIDKey).(string); ok && rid != "" {
		return l.With(zap.String(rayIDKey, rid))
	}
	return l
}

// WithRun returns a logger tagged with a sync run id and its trigger.
func WithRun(l *zap.Logger, runID, trigger string) *zap.Logger {
	return l.With(zap.String("run_id", runID), zap.String("trigger", trigger))
}
