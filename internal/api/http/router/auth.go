package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/handler"
	"github.com/bridgesphysio/bridges_backend/internal/api/http/middleware"
)

// Auth routes live outside /api/v1 so the refresh cookie can be scoped to
// /auth alone.
func (r *Router) registerAuthRoutes(app *fiber.App, h *handler.AuthHandler, authRequired, authLimiter fiber.Handler) {
	group := app.Group("/auth", authLimiter)

	group.Post("/login", h.Login)
	group.Post("/refresh", h.Refresh)
	group.Post("/logout", h.Logout)
	group.Post("/forgot-password", h.ForgotPassword)
	group.Post("/reset-password", h.ResetPassword)

	group.Post("/register", authRequired, middleware.AdminOnly(), h.Register)

	group.Post("/2fa/setup", authRequired, h.SetupTwoFactor)
	group.Post("/2fa/verify", authRequired, h.VerifyTwoFactor)
	group.Post("/2fa/disable", authRequired, h.DisableTwoFactor)
}
