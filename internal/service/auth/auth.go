// Package auth implements identity and sessions: password login with
// lockout, TOTP 2FA, rotating refresh tokens with replay detection, password
// reset and admin-only registration.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bridgesphysio/bridges_backend/config"
	"github.com/bridgesphysio/bridges_backend/internal/model"
	"github.com/bridgesphysio/bridges_backend/internal/service/audit"
	"github.com/bridgesphysio/bridges_backend/internal/service/counter"
	"github.com/bridgesphysio/bridges_backend/internal/service/mailer"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
	"github.com/bridgesphysio/bridges_backend/pkg/email"
	"github.com/bridgesphysio/bridges_backend/pkg/fieldcrypt"
	"github.com/bridgesphysio/bridges_backend/pkg/token"
	"github.com/bridgesphysio/bridges_backend/pkg/util/password"
	"github.com/bridgesphysio/bridges_backend/pkg/util/totp"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type LoginRequest struct {
	Username  string
	Password  string
	TOTPCode  string
	IPAddress string
}

// SanitizedUser is the user shape returned to clients. Secrets never leave
// the service.
type SanitizedUser struct {
	ID               string     `json:"id"`
	Name             string     `json:"name,omitempty"`
	Username         string     `json:"username"`
	Email            string     `json:"email,omitempty"`
	Role             string     `json:"role"`
	EmployeeID       int64      `json:"employeeID,omitempty"`
	Administrator    bool       `json:"administrator"`
	Active           bool       `json:"active"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
}

// Session is a successful login or refresh outcome.
type Session struct {
	AccessToken    string
	RefreshToken   string
	RefreshExpires time.Time
	User           SanitizedUser
}

type RegisterRequest struct {
	Name     string
	Username string
	Email    string
	Password string
	Role     string
}

type TwoFactorSetup struct {
	Secret          string
	ProvisioningURL string
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*Session, error)
	Refresh(ctx context.Context, signedRefresh, ipAddress string) (*Session, error)
	Logout(ctx context.Context, signedRefresh string) error

	SetupTwoFactor(ctx context.Context, userID primitive.ObjectID) (*TwoFactorSetup, error)
	VerifyTwoFactor(ctx context.Context, userID primitive.ObjectID, code string) error
	DisableTwoFactor(ctx context.Context, userID primitive.ObjectID, code string) error

	ForgotPassword(ctx context.Context, emailAddr, ipAddress string)
	ResetPassword(ctx context.Context, emailAddr, rawToken, newPassword string) error

	Register(ctx context.Context, actorID primitive.ObjectID, actorRole string, req RegisterRequest) (*SanitizedUser, error)
}

type authService struct {
	db       *mongo.Database
	tokens   *token.Manager
	counters counter.Service
	auditor  audit.Service
	mail     mailer.Service
	codec    *fieldcrypt.Codec
	cfg      config.AuthConfig
	urls     config.URLConfig
}

func New(
	db *mongo.Database,
	tokens *token.Manager,
	counters counter.Service,
	auditor audit.Service,
	mail mailer.Service,
	codec *fieldcrypt.Codec,
	cfg config.AuthConfig,
	urls config.URLConfig,
) Service {
	return &authService{
		db:       db,
		tokens:   tokens,
		counters: counters,
		auditor:  auditor,
		mail:     mail,
		codec:    codec,
		cfg:      cfg,
		urls:     urls,
	}
}

func (s *authService) users() *mongo.Collection {
	return s.db.Collection(model.ColUsers)
}

func (s *authService) refreshTokens() *mongo.Collection {
	return s.db.Collection(model.ColRefreshTokens)
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func (s *authService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))

	// Look up by username alone: a locked account has active=false, and the
	// caller must still see the locked error rather than invalid_credentials.
	var u model.User
	err := s.users().FindOne(ctx, bson.M{"username": username}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		s.auditor.Record(ctx, "auth.login", false, audit.Entry{
			IPAddress: req.IPAddress,
			Metadata:  map[string]any{"username": username, "reason": "invalid_credentials"},
		})
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := accountGate(&u); err != nil {
		if errors.Is(err, ErrLocked) {
			s.auditor.Record(ctx, "auth.login.locked", false, audit.Entry{
				User: &u.ID, UserRole: u.Role, IPAddress: req.IPAddress,
			})
		} else {
			// Deactivated by an admin; indistinguishable from a bad
			// password.
			s.auditor.Record(ctx, "auth.login", false, audit.Entry{
				User: &u.ID, UserRole: u.Role, IPAddress: req.IPAddress,
				Metadata: map[string]any{"reason": "inactive"},
			})
		}
		return nil, err
	}

	if err := password.Verify(u.Password, req.Password); err != nil {
		s.recordFailedPassword(ctx, &u, req.IPAddress)
		return nil, ErrInvalidCredentials
	}

	if u.TwoFactorEnabled {
		if req.TOTPCode == "" {
			return nil, ErrTwoFactorRequired
		}
		secret := s.codec.DecryptString(deref(u.TwoFactorSecret))
		if err := totp.Verify(secret, req.TOTPCode); err != nil {
			// 2FA failures never advance the lockout counter: the
			// password was already correct.
			s.auditor.Record(ctx, "auth.login", false, audit.Entry{
				User: &u.ID, UserRole: u.Role, IPAddress: req.IPAddress,
				Metadata: map[string]any{"reason": "invalid_two_factor"},
			})
			return nil, ErrInvalidTwoFactor
		}
	}

	now := time.Now().UTC()
	_, err = s.users().UpdateByID(ctx, u.ID, bson.M{
		"$set":   bson.M{"lastLoginAt": now, "updatedAt": now},
		"$unset": bson.M{"failedLoginAttempts": "", "lockedAt": ""},
	})
	if err != nil {
		return nil, err
	}
	u.LastLoginAt = &now

	session, err := s.mintSession(ctx, &u)
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "auth.login", true, audit.Entry{
		User: &u.ID, UserRole: u.Role, IPAddress: req.IPAddress,
	})
	return session, nil
}

// accountGate rejects a user who may not start a session. Locked wins over
// inactive: lockout sets both flags, and the caller must see locked.
func accountGate(u *model.User) error {
	if u.Locked() {
		return ErrLocked
	}
	if !u.Active {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *authService) recordFailedPassword(ctx context.Context, u *model.User, ip string) {
	attempts := u.FailedLoginAttempts + 1
	update := bson.M{"$set": bson.M{"failedLoginAttempts": attempts, "updatedAt": time.Now().UTC()}}

	threshold := s.cfg.LockoutThreshold
	if threshold <= 0 {
		threshold = 5
	}
	locked := attempts >= threshold
	if locked {
		update["$set"].(bson.M)["lockedAt"] = time.Now().UTC()
		update["$set"].(bson.M)["active"] = false
	}

	if _, err := s.users().UpdateByID(ctx, u.ID, update); err != nil {
		// Best effort: the login still fails with invalid_credentials.
		_ = err
	}

	event := "auth.login"
	meta := map[string]any{"reason": "invalid_password", "attempts": attempts}
	if locked {
		event = "auth.login.locked"
		meta["locked"] = true
	}
	s.auditor.Record(ctx, event, false, audit.Entry{
		User: &u.ID, UserRole: u.Role, IPAddress: ip, Metadata: meta,
	})
}

// mintSession issues the access token and a fresh refresh token row.
func (s *authService) mintSession(ctx context.Context, u *model.User) (*Session, error) {
	access, err := s.tokens.IssueAccess(u.ID.Hex(), u.Role, u.EmployeeID)
	if err != nil {
		return nil, err
	}

	tokenID := uuid.NewString()
	signed, expires, err := s.tokens.IssueRefresh(u.ID.Hex(), tokenID)
	if err != nil {
		return nil, err
	}

	row := model.RefreshToken{
		User:      u.ID,
		TokenID:   tokenID,
		ExpiresAt: expires,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.refreshTokens().InsertOne(ctx, row); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return &Session{
		AccessToken:    access,
		RefreshToken:   signed,
		RefreshExpires: expires,
		User:           sanitize(u),
	}, nil
}

// ---------------------------------------------------------------------------
// Refresh rotation
// ---------------------------------------------------------------------------

func (s *authService) Refresh(ctx context.Context, signedRefresh, ipAddress string) (*Session, error) {
	claims, err := s.tokens.VerifyRefresh(signedRefresh)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	var row model.RefreshToken
	err = s.refreshTokens().
		FindOne(ctx, bson.M{"tokenId": claims.TokenID, "user": userID}).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if row.Revoked() {
		// Replay of a rotated token: assume the chain is compromised and
		// revoke every descendant minted from it.
		s.revokeChain(ctx, row.ReplacedByTokenID, now)
		s.auditor.Record(ctx, "auth.refresh", false, audit.Entry{
			User: &userID, IPAddress: ipAddress,
			Metadata: map[string]any{"reason": "replay", "tokenId": row.TokenID},
		})
		return nil, ErrTokenInvalid
	}
	if row.Expired(now) {
		return nil, ErrTokenExpired
	}

	var u model.User
	err = s.users().FindOne(ctx, bson.M{"_id": userID, "active": true}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}

	session, err := s.mintSession(ctx, &u)
	if err != nil {
		return nil, err
	}

	newClaims, err := s.tokens.VerifyRefresh(session.RefreshToken)
	if err != nil {
		return nil, err
	}
	_, err = s.refreshTokens().UpdateOne(ctx,
		bson.M{"tokenId": row.TokenID},
		bson.M{"$set": bson.M{"revokedAt": now, "replacedByTokenId": newClaims.TokenID}},
	)
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "auth.refresh", true, audit.Entry{
		User: &u.ID, UserRole: u.Role, IPAddress: ipAddress,
	})
	return session, nil
}

// revokeChain walks replacedByTokenId links and revokes every live token.
func (s *authService) revokeChain(ctx context.Context, tokenID string, now time.Time) {
	for tokenID != "" {
		var row model.RefreshToken
		err := s.refreshTokens().FindOne(ctx, bson.M{"tokenId": tokenID}).Decode(&row)
		if err != nil {
			return
		}
		if !row.Revoked() {
			_, _ = s.refreshTokens().UpdateOne(ctx,
				bson.M{"tokenId": tokenID},
				bson.M{"$set": bson.M{"revokedAt": now}},
			)
		}
		tokenID = row.ReplacedByTokenID
	}
}

func (s *authService) Logout(ctx context.Context, signedRefresh string) error {
	if signedRefresh == "" {
		return nil
	}
	claims, err := s.tokens.VerifyRefresh(signedRefresh)
	if err != nil {
		// Logout is idempotent: an unusable token is already logged out.
		return nil
	}
	now := time.Now().UTC()
	_, _ = s.refreshTokens().UpdateOne(ctx,
		bson.M{"tokenId": claims.TokenID, "revokedAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"revokedAt": now}},
	)
	return nil
}

// ---------------------------------------------------------------------------
// TOTP enrollment
// ---------------------------------------------------------------------------

func (s *authService) SetupTwoFactor(ctx context.Context, userID primitive.ObjectID) (*TwoFactorSetup, error) {
	var u model.User
	if err := s.users().FindOne(ctx, bson.M{"_id": userID}).Decode(&u); err != nil {
		return nil, ErrUserNotFound
	}

	account := u.Username
	if u.Email != nil && *u.Email != "" {
		account = *u.Email
	}

	secret, err := totp.GenerateSecret(s.cfg.TOTPIssuer, account)
	if err != nil {
		return nil, err
	}

	enc, err := s.codec.EncryptString(secret)
	if err != nil {
		return nil, err
	}
	_, err = s.users().UpdateByID(ctx, userID, bson.M{
		"$set": bson.M{"twoFactorTempSecret": enc, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return nil, err
	}

	return &TwoFactorSetup{
		Secret:          secret,
		ProvisioningURL: totp.ProvisioningURL(s.cfg.TOTPIssuer, account, secret),
	}, nil
}

func (s *authService) VerifyTwoFactor(ctx context.Context, userID primitive.ObjectID, code string) error {
	var u model.User
	if err := s.users().FindOne(ctx, bson.M{"_id": userID}).Decode(&u); err != nil {
		return ErrUserNotFound
	}

	// Verification accepts the pending secret during enrollment and the
	// live secret afterwards.
	secret := s.codec.DecryptString(deref(u.TwoFactorTempSecret))
	promote := secret != ""
	if secret == "" {
		secret = s.codec.DecryptString(deref(u.TwoFactorSecret))
	}
	if secret == "" {
		return ErrTwoFactorNotSetup
	}

	if err := totp.Verify(secret, code); err != nil {
		return ErrInvalidTwoFactor
	}

	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"twoFactorEnabled":    true,
		"twoFactorVerifiedAt": now,
		"updatedAt":           now,
	}}
	if promote {
		enc, err := s.codec.EncryptString(secret)
		if err != nil {
			return err
		}
		update["$set"].(bson.M)["twoFactorSecret"] = enc
		update["$unset"] = bson.M{"twoFactorTempSecret": ""}
	}
	if _, err := s.users().UpdateByID(ctx, userID, update); err != nil {
		return err
	}

	s.auditor.Record(ctx, "auth.2fa.enable", true, audit.Entry{User: &userID, UserRole: u.Role})
	return nil
}

func (s *authService) DisableTwoFactor(ctx context.Context, userID primitive.ObjectID, code string) error {
	var u model.User
	if err := s.users().FindOne(ctx, bson.M{"_id": userID}).Decode(&u); err != nil {
		return ErrUserNotFound
	}
	if !u.TwoFactorEnabled {
		return nil
	}

	secret := s.codec.DecryptString(deref(u.TwoFactorSecret))
	if err := totp.Verify(secret, code); err != nil {
		return ErrInvalidTwoFactor
	}

	now := time.Now().UTC()
	_, err := s.users().UpdateByID(ctx, userID, bson.M{
		"$set":   bson.M{"twoFactorEnabled": false, "updatedAt": now},
		"$unset": bson.M{"twoFactorSecret": "", "twoFactorTempSecret": "", "twoFactorVerifiedAt": ""},
	})
	if err != nil {
		return err
	}

	s.auditor.Record(ctx, "auth.2fa.disable", true, audit.Entry{User: &userID, UserRole: u.Role})
	return nil
}

// ---------------------------------------------------------------------------
// Password reset
// ---------------------------------------------------------------------------

// ForgotPassword never reveals whether the address exists; the handler
// responds 202 unconditionally.
func (s *authService) ForgotPassword(ctx context.Context, emailAddr, ipAddress string) {
	normalized := strings.ToLower(strings.TrimSpace(emailAddr))
	if normalized == "" {
		return
	}

	var u model.User
	err := s.users().FindOne(ctx, bson.M{"email": normalized, "active": true}).Decode(&u)
	if err != nil {
		return
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return
	}
	rawToken := hex.EncodeToString(raw)
	hash := fieldcrypt.Hash(rawToken)

	ttl := s.cfg.ResetTokenTTL()
	expires := time.Now().UTC().Add(ttl)
	_, err = s.users().UpdateByID(ctx, u.ID, bson.M{
		"$set": bson.M{
			"passwordResetToken":   hash,
			"passwordResetExpires": expires,
			"updatedAt":            time.Now().UTC(),
		},
	})
	if err != nil {
		return
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s&email=%s",
		strings.TrimRight(s.urls.FrontendBase, "/"),
		url.QueryEscape(rawToken),
		url.QueryEscape(normalized),
	)
	msg := email.BuildPasswordResetEmail(email.ResetEmailData{
		Name:     u.Name,
		Email:    normalized,
		ResetURL: resetURL,
		Branding: s.mail.Branding(ctx),
	})
	_, _ = s.mail.Send(ctx, mailer.SendRequest{
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTMLBody,
		Text:    msg.TextBody,
	})

	s.auditor.Record(ctx, "auth.password_reset.request", true, audit.Entry{
		User: &u.ID, UserRole: u.Role, IPAddress: ipAddress,
	})
}

func (s *authService) ResetPassword(ctx context.Context, emailAddr, rawToken, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}
	normalized := strings.ToLower(strings.TrimSpace(emailAddr))
	hash := fieldcrypt.Hash(rawToken)

	var u model.User
	err := s.users().FindOne(ctx, bson.M{
		"email":                normalized,
		"passwordResetToken":   hash,
		"passwordResetExpires": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&u)
	if err != nil {
		return ErrTokenInvalid
	}

	hashed, err := password.HashWithCost(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.users().UpdateByID(ctx, u.ID, bson.M{
		"$set": bson.M{"password": hashed, "active": true, "updatedAt": now},
		"$unset": bson.M{
			"passwordResetToken":   "",
			"passwordResetExpires": "",
			"failedLoginAttempts":  "",
			"lockedAt":             "",
		},
	})
	if err != nil {
		return err
	}

	s.auditor.Record(ctx, "auth.password_reset.confirm", true, audit.Entry{
		User: &u.ID, UserRole: u.Role,
	})
	return nil
}

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

func (s *authService) Register(ctx context.Context, actorID primitive.ObjectID, actorRole string, req RegisterRequest) (*SanitizedUser, error) {
	name := strings.TrimSpace(req.Name)
	username := strings.ToLower(strings.TrimSpace(req.Username))
	emailAddr := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || username == "" || emailAddr == "" {
		return nil, ErrValidation
	}
	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}
	role := req.Role
	if role == "" {
		role = string(authorize.RoleReceptionist)
	}
	if !authorize.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}

	hashed, err := password.HashWithCost(req.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	employeeID, err := s.counters.Next(ctx, model.CounterEmployeeID, 1)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := model.User{
		Name:          name,
		Username:      username,
		Email:         &emailAddr,
		Password:      hashed,
		Role:          role,
		EmployeeID:    employeeID,
		Administrator: role == string(authorize.RoleAdmin),
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	res, err := s.users().InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	u.ID = res.InsertedID.(primitive.ObjectID)

	s.auditor.Record(ctx, "user.create", true, audit.Entry{
		Actor: &actorID, ActorRole: actorRole, User: &u.ID, UserRole: u.Role,
		Metadata: map[string]any{"username": username, "employeeID": employeeID},
	})

	sanitized := sanitize(&u)
	return &sanitized, nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func sanitize(u *model.User) SanitizedUser {
	out := SanitizedUser{
		ID:               u.ID.Hex(),
		Name:             u.Name,
		Username:         u.Username,
		Role:             u.Role,
		EmployeeID:       u.EmployeeID,
		Administrator:    u.Administrator,
		Active:           u.Active,
		TwoFactorEnabled: u.TwoFactorEnabled,
		LastLoginAt:      u.LastLoginAt,
	}
	if u.Email != nil {
		out.Email = *u.Email
	}
	return out
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
