// Package loader registers HTTP features on the Fiber application.
//
// A feature bundles its routes behind the Feature interface:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The start command registers each feature with a Manager and calls LoadAll
// once the middleware is in place. Disabled features are skipped with a log
// line; a duplicate name or a Load error stops the server from starting.
package loader
