package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/config"
	"github.com/bridgesphysio/bridges_backend/internal/api/http/middleware"
	"github.com/bridgesphysio/bridges_backend/internal/service/auth"
)

type AuthHandler struct {
	svc  auth.Service
	cfg  config.AuthConfig
	prod bool
}

func NewAuthHandler(svc auth.Service, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		svc:  svc,
		cfg:  cfg.Auth,
		prod: cfg.Server.Environment != "development",
	}
}

func mapAuthError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return unauthorized(c, "invalid credentials")
	case errors.Is(err, auth.ErrLocked):
		return locked(c, "account is locked")
	case errors.Is(err, auth.ErrTwoFactorRequired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success":           false,
			"message":           "two-factor code required",
			"twoFactorRequired": true,
		})
	case errors.Is(err, auth.ErrInvalidTwoFactor):
		return unauthorized(c, "invalid two-factor code")
	case errors.Is(err, auth.ErrTwoFactorNotSetup):
		return badRequest(c, "two-factor authentication is not set up")
	case errors.Is(err, auth.ErrTokenInvalid):
		return unauthorized(c, "invalid token")
	case errors.Is(err, auth.ErrTokenExpired):
		return unauthorized(c, "token expired")
	case errors.Is(err, auth.ErrDuplicate):
		return conflict(c, "username or email already in use")
	case errors.Is(err, auth.ErrWeakPassword):
		return unprocessable(c, "password does not meet requirements")
	case errors.Is(err, auth.ErrValidation):
		return badRequest(c, err.Error())
	case errors.Is(err, auth.ErrUserNotFound):
		return notFound(c, "user not found")
	default:
		return internalError(c, err)
	}
}

// refreshToken pulls the rotating token from the cookie, or from the request
// body for clients that cannot hold cookies.
func (h *AuthHandler) refreshToken(c fiber.Ctx) string {
	if raw := c.Cookies(h.cfg.RefreshCookieName()); raw != "" {
		return raw
	}
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return ""
	}
	return body.RefreshToken
}

// setRefreshCookie binds the rotating refresh token to /auth only.
func (h *AuthHandler) setRefreshCookie(c fiber.Ctx, tokenValue string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.RefreshCookieName(),
		Value:    tokenValue,
		Path:     "/auth",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.prod,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.RefreshCookieName(),
		Value:    "",
		Path:     "/auth",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.prod,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// POST /auth/login
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		TOTPCode string `json:"totpCode"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	session, err := h.svc.Login(c.Context(), auth.LoginRequest{
		Username:  body.Username,
		Password:  body.Password,
		TOTPCode:  body.TOTPCode,
		IPAddress: c.IP(),
	})
	if err != nil {
		return mapAuthError(c, err)
	}

	h.setRefreshCookie(c, session.RefreshToken, session.RefreshExpires)
	return ok(c, fiber.Map{
		"accessToken": session.AccessToken,
		"user":        session.User,
	})
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	raw := h.refreshToken(c)
	if raw == "" {
		return unauthorized(c, "missing refresh token")
	}

	session, err := h.svc.Refresh(c.Context(), raw, c.IP())
	if err != nil {
		h.clearRefreshCookie(c)
		return mapAuthError(c, err)
	}

	h.setRefreshCookie(c, session.RefreshToken, session.RefreshExpires)
	return ok(c, fiber.Map{
		"accessToken": session.AccessToken,
		"user":        session.User,
	})
}

// POST /auth/logout
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	if raw := h.refreshToken(c); raw != "" {
		if err := h.svc.Logout(c.Context(), raw); err != nil {
			return mapAuthError(c, err)
		}
	}
	h.clearRefreshCookie(c)
	return message(c, "logged out")
}

// POST /auth/register (admin only)
func (h *AuthHandler) Register(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "")
	}

	var body struct {
		Name     string `json:"name"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	user, err := h.svc.Register(c.Context(), actor.UserID, string(actor.Role), auth.RegisterRequest{
		Name:     body.Name,
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
		Role:     body.Role,
	})
	if err != nil {
		return mapAuthError(c, err)
	}
	return created(c, fiber.Map{"user": user})
}

// POST /auth/2fa/setup
func (h *AuthHandler) SetupTwoFactor(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "")
	}

	setup, err := h.svc.SetupTwoFactor(c.Context(), actor.UserID)
	if err != nil {
		return mapAuthError(c, err)
	}
	return ok(c, fiber.Map{
		"secret":          setup.Secret,
		"provisioningUrl": setup.ProvisioningURL,
	})
}

// POST /auth/2fa/verify
func (h *AuthHandler) VerifyTwoFactor(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "")
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.svc.VerifyTwoFactor(c.Context(), actor.UserID, body.Code); err != nil {
		return mapAuthError(c, err)
	}
	return message(c, "two-factor authentication enabled")
}

// POST /auth/2fa/disable
func (h *AuthHandler) DisableTwoFactor(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "")
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.svc.DisableTwoFactor(c.Context(), actor.UserID, body.Code); err != nil {
		return mapAuthError(c, err)
	}
	return message(c, "two-factor authentication disabled")
}

// POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(c fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	// Always the same answer, whether or not the address exists.
	h.svc.ForgotPassword(c.Context(), body.Email, c.IP())
	return accepted(c, "if the address is registered, a reset email has been sent")
}

// POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.svc.ResetPassword(c.Context(), body.Email, body.Token, body.Password); err != nil {
		return mapAuthError(c, err)
	}
	return message(c, "password updated")
}
