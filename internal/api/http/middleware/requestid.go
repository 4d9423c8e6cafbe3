package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-Id"
	LocalRequestID  = "request_id"
)

// RequestID keeps the caller's request id when one is supplied, otherwise
// mints a UUID. The id ends up in locals, the response header and the access
// log line.
func RequestID() fiber.Handler {
	return func(c fiber.Ctx) error {
		id := c.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(LocalRequestID, id)
		c.Set(HeaderRequestID, id)
		return c.Next()
	}
}

// RequestIDFromFiber returns the id stored by RequestID.
func RequestIDFromFiber(c fiber.Ctx) (string, bool) {
	id, ok := c.Locals(LocalRequestID).(string)
	return id, ok && id != ""
}
