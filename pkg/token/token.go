// Package token issues and verifies the signed JWTs used for API access
// and refresh-cookie rotation. Access and refresh tokens are signed with
// separate secrets so a leaked access secret cannot mint refresh tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrWrongType    = errors.New("unexpected token type")
)

// Claims is the app-facing token payload.
type Claims struct {
	Type TokenType `json:"typ"`

	UserID     string `json:"userId"`
	Role       string `json:"role,omitempty"`
	EmployeeID int64  `json:"employeeID,omitempty"`

	// TokenID is set on refresh tokens and keys the RefreshToken record.
	TokenID string `json:"tokenId,omitempty"`

	jwt.RegisteredClaims
}

type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

type Manager struct {
	cfg Config
}

func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("token: both secrets are required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "bridges_backend"
	}
	return &Manager{cfg: cfg}, nil
}

func (m *Manager) AccessTTL() time.Duration  { return m.cfg.AccessTTL }
func (m *Manager) RefreshTTL() time.Duration { return m.cfg.RefreshTTL }

// IssueAccess mints a short-lived bearer token carrying the caller's
// identity, role and employee id.
func (m *Manager) IssueAccess(userID, role string, employeeID int64) (string, error) {
	now := time.Now()
	claims := &Claims{
		Type:       TokenTypeAccess,
		UserID:     userID,
		Role:       role,
		EmployeeID: employeeID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.AccessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.AccessSecret)
}

// IssueRefresh mints a long-lived token bound to a stored RefreshToken
// record via tokenId.
func (m *Manager) IssueRefresh(userID, tokenID string) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(m.cfg.RefreshTTL)
	claims := &Claims{
		Type:    TokenTypeRefresh,
		UserID:  userID,
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			Subject:   userID,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.RefreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// VerifyAccess parses and validates an access token.
func (m *Manager) VerifyAccess(raw string) (*Claims, error) {
	return m.verify(raw, m.cfg.AccessSecret, TokenTypeAccess)
}

// VerifyRefresh parses and validates a refresh token.
func (m *Manager) VerifyRefresh(raw string) (*Claims, error) {
	return m.verify(raw, m.cfg.RefreshSecret, TokenTypeRefresh)
}

func (m *Manager) verify(raw string, secret []byte, want TokenType) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(m.cfg.Issuer), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != want {
		return nil, ErrWrongType
	}
	return claims, nil
}
