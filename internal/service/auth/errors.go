package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrLocked             = errors.New("account is locked")
	ErrTwoFactorRequired  = errors.New("two-factor code required")
	ErrInvalidTwoFactor   = errors.New("invalid two-factor code")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrDuplicate          = errors.New("username or email already in use")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrValidation         = errors.New("missing required fields")
	ErrUserNotFound       = errors.New("user not found")
	ErrTwoFactorNotSetup  = errors.New("two-factor enrollment has not been started")
)
