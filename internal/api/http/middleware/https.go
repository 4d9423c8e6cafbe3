package middleware

import (
	"github.com/gofiber/fiber/v3"
)

// EnforceHTTPS redirects plain-HTTP GETs to their HTTPS equivalent and
// rejects unsafe methods outright so credentials are never replayed over a
// cleartext channel. Proxied deployments signal the original scheme with
// X-Forwarded-Proto.
func EnforceHTTPS() fiber.Handler {
	return func(c fiber.Ctx) error {
		proto := c.Get("X-Forwarded-Proto")
		if proto == "" {
			proto = c.Protocol()
		}
		if proto == "https" {
			c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			return c.Next()
		}

		if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
			return c.Redirect().Status(fiber.StatusMovedPermanently).To("https://" + c.Hostname() + c.OriginalURL())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "HTTPS is required",
		})
	}
}
