package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderName is the request and response header carrying the ray id.
const HeaderName = "X-Ray-ID"

// LocalsKey is the fiber.Ctx locals key read by logger.WithRayID.
const LocalsKey = "ray_id"

// New returns a middleware that assigns every request a ray id. An incoming
// X-Ray-ID header is kept so callers can correlate across services.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(LocalsKey, id)
		c.Set(HeaderName, id)
		return c.Next()
	}
}
