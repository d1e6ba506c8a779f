package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/cv-intake/internal/common"
)

// requestContext tags the request's user context with a request ID, reusing X-Request-ID when sent.
func requestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, id)
		c.SetUserContext(common.WithRequestID(c.UserContext(), id))
		return c.Next()
	}
}
