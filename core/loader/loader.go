package loader

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature is a module that registers routes on the application.
type Feature interface {
	// Name returns the feature's unique name.
	Name() string
	// IsEnabled reports whether the feature should be loaded.
	IsEnabled() bool
	// Load registers the feature's routes.
	Load(app fiber.Router) error
}

// Manager holds the registered features.
type Manager struct {
	features []Feature
	logger   *zap.Logger
}

// NewManager creates an empty feature manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{logger: logger}
}

// Register adds a feature. Features load in registration order.
func (m *Manager) Register(f Feature) {
	m.features = append(m.features, f)
}

// LoadAll loads every enabled feature. It stops at the first failure.
func (m *Manager) LoadAll(app fiber.Router) error {
	seen := make(map[string]bool, len(m.features))
	for _, f := range m.features {
		name := f.Name()
		if seen[name] {
			return fmt.Errorf("feature %s registered twice", name)
		}
		seen[name] = true

		if !f.IsEnabled() {
			m.logger.Info("Feature disabled", zap.String("feature", name))
			continue
		}
		if err := f.Load(app); err != nil {
			return fmt.Errorf("failed to load feature %s: %w", name, err)
		}
		m.logger.Info("Feature loaded", zap.String("feature", name))
	}
	return nil
}
