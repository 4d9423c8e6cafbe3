package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestManager(t *testing.T, accessTTL time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		AccessSecret:  []byte("access-secret-for-tests-only"),
		RefreshSecret: []byte("refresh-secret-for-tests-only"),
		AccessTTL:     accessTTL,
		RefreshTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func TestAccessRoundTrip(t *testing.T) {
	m := newTestManager(t, time.Minute)

	raw, err := m.IssueAccess("64f0aa", "therapist", 42)
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	claims, err := m.VerifyAccess(raw)
	if err != nil {
		t.Fatalf("VerifyAccess() error = %v", err)
	}
	if claims.UserID != "64f0aa" || claims.Role != "therapist" || claims.EmployeeID != 42 {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Type != TokenTypeAccess {
		t.Errorf("type = %s, want access", claims.Type)
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	m := newTestManager(t, time.Minute)

	tid := uuid.NewString()
	raw, expires, err := m.IssueRefresh("64f0aa", tid)
	if err != nil {
		t.Fatalf("IssueRefresh() error = %v", err)
	}
	if time.Until(expires) < 59*time.Minute {
		t.Errorf("expires too soon: %v", expires)
	}

	claims, err := m.VerifyRefresh(raw)
	if err != nil {
		t.Fatalf("VerifyRefresh() error = %v", err)
	}
	if claims.TokenID != tid {
		t.Errorf("tokenId = %s, want %s", claims.TokenID, tid)
	}
}

func TestTypeConfusionRejected(t *testing.T) {
	m := newTestManager(t, time.Minute)

	access, _ := m.IssueAccess("u", "admin", 1)
	if _, err := m.VerifyRefresh(access); err == nil {
		t.Error("access token accepted as refresh token")
	}

	refresh, _, _ := m.IssueRefresh("u", uuid.NewString())
	if _, err := m.VerifyAccess(refresh); err == nil {
		t.Error("refresh token accepted as access token")
	}
}

func TestExpiredRejected(t *testing.T) {
	m := newTestManager(t, -time.Minute)

	raw, err := m.IssueAccess("u", "admin", 1)
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}
	if _, err := m.VerifyAccess(raw); err != ErrInvalidToken {
		t.Errorf("VerifyAccess() error = %v, want ErrInvalidToken", err)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	m := newTestManager(t, time.Minute)
	other, _ := NewManager(Config{
		AccessSecret:  []byte("completely-different-secret"),
		RefreshSecret: []byte("another-different-secret"),
	})

	raw, _ := m.IssueAccess("u", "admin", 1)
	if _, err := other.VerifyAccess(raw); err != ErrInvalidToken {
		t.Errorf("VerifyAccess() with wrong secret error = %v, want ErrInvalidToken", err)
	}
}
