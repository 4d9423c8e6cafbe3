package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"
)

// All responses share a {success, ...} envelope. Payload keys sit next to the
// flag rather than under a wrapper field.

func ok(c fiber.Ctx, data fiber.Map) error {
	return c.JSON(envelope(true, data))
}

func created(c fiber.Ctx, data fiber.Map) error {
	return c.Status(fiber.StatusCreated).JSON(envelope(true, data))
}

func message(c fiber.Ctx, msg string) error {
	return c.JSON(fiber.Map{"success": true, "message": msg})
}

// accepted acknowledges work that happens out of band, such as a reset email.
func accepted(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"success": true, "message": msg})
}

func badRequest(c fiber.Ctx, msg string) error {
	return failure(c, fiber.StatusBadRequest, msg)
}

func unauthorized(c fiber.Ctx, msg string) error {
	if msg == "" {
		msg = "unauthorized"
	}
	return failure(c, fiber.StatusUnauthorized, msg)
}

func forbidden(c fiber.Ctx, msg string) error {
	if msg == "" {
		msg = "forbidden"
	}
	return failure(c, fiber.StatusForbidden, msg)
}

func notFound(c fiber.Ctx, msg string) error {
	return failure(c, fiber.StatusNotFound, msg)
}

func conflict(c fiber.Ctx, msg string) error {
	return failure(c, fiber.StatusConflict, msg)
}

func unprocessable(c fiber.Ctx, msg string) error {
	return failure(c, fiber.StatusUnprocessableEntity, msg)
}

// A locked account is a forbidden one as far as the client is concerned; 423
// is reserved for WebDAV and trips some proxies.
func locked(c fiber.Ctx, msg string) error {
	return failure(c, fiber.StatusForbidden, msg)
}

func internalError(c fiber.Ctx, err error) error {
	slog.Error("request failed", "path", c.Path(), "error", err)
	return failure(c, fiber.StatusInternalServerError, "internal server error")
}

func failure(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": msg})
}

func envelope(success bool, data fiber.Map) fiber.Map {
	out := fiber.Map{"success": success}
	for k, v := range data {
		out[k] = v
	}
	return out
}
