package totp

import (
	"strings"
	"testing"
	"time"

	totplib "github.com/pquerna/otp/totp"
)

func TestGenerateSecret(t *testing.T) {
	secret, err := GenerateSecret("Bridges", "alice@example.com")
	if err != nil {
		t.Fatalf("GenerateSecret() error = %v", err)
	}
	if secret == "" {
		t.Fatal("empty secret")
	}
	// base32 alphabet only
	for _, r := range secret {
		if !strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZ234567", r) {
			t.Fatalf("secret contains non-base32 rune %q", r)
		}
	}
}

func TestVerifyAt(t *testing.T) {
	secret, err := GenerateSecret("Bridges", "alice@example.com")
	if err != nil {
		t.Fatalf("GenerateSecret() error = %v", err)
	}

	now := time.Date(2025, time.June, 1, 12, 0, 15, 0, time.UTC)
	code, err := totplib.GenerateCode(secret, now)
	if err != nil {
		t.Fatalf("GenerateCode() error = %v", err)
	}

	if err := VerifyAt(secret, code, now); err != nil {
		t.Errorf("VerifyAt(now) error = %v", err)
	}
	// One step of drift either side is accepted.
	if err := VerifyAt(secret, code, now.Add(30*time.Second)); err != nil {
		t.Errorf("VerifyAt(+1 step) error = %v", err)
	}
	if err := VerifyAt(secret, code, now.Add(-30*time.Second)); err != nil {
		t.Errorf("VerifyAt(-1 step) error = %v", err)
	}
	// Two steps away is rejected.
	if err := VerifyAt(secret, code, now.Add(90*time.Second)); err != ErrInvalidCode {
		t.Errorf("VerifyAt(+3 steps) error = %v, want ErrInvalidCode", err)
	}

	if err := VerifyAt(secret, "000000", now); err != ErrInvalidCode {
		t.Errorf("VerifyAt(wrong code) error = %v, want ErrInvalidCode", err)
	}
}

func TestProvisioningURL(t *testing.T) {
	u := ProvisioningURL("Bridges", "alice", "ABC234")
	if !strings.HasPrefix(u, "otpauth://totp/") {
		t.Errorf("unexpected scheme: %s", u)
	}
	if !strings.Contains(u, "secret=ABC234") || !strings.Contains(u, "issuer=Bridges") {
		t.Errorf("missing params: %s", u)
	}
}
