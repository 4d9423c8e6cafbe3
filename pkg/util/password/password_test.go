package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := HashWithCost("correcthorsebatterystaple", MinCost)
	if err != nil {
		t.Fatalf("HashWithCost() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash not in bcrypt format: %s", hash)
	}

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"correct password", "correcthorsebatterystaple", nil},
		{"wrong password", "wrongpassword", ErrMismatch},
		{"empty password", "", ErrMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Verify(hash, tt.password); err != tt.wantErr {
				t.Errorf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCostFloor(t *testing.T) {
	hash, err := HashWithCost("secret", 4)
	if err != nil {
		t.Fatalf("HashWithCost() error = %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("Cost() error = %v", err)
	}
	if cost < MinCost {
		t.Errorf("cost = %d, want at least %d", cost, MinCost)
	}
}

func TestTooLong(t *testing.T) {
	if _, err := Hash(strings.Repeat("a", 73)); err != ErrTooLong {
		t.Errorf("Hash() error = %v, want ErrTooLong", err)
	}
}

func TestNeedsRehash(t *testing.T) {
	low, _ := HashWithCost("secret", MinCost)
	if DefaultCost > MinCost && !NeedsRehash(low) {
		t.Error("NeedsRehash() = false for below-default cost")
	}
	if NeedsRehash("notahash") != true {
		t.Error("NeedsRehash() = false for invalid hash")
	}
}

func TestMatch(t *testing.T) {
	hash, _ := HashWithCost("secret", MinCost)
	if !Match(hash, "secret") {
		t.Error("Match() = false for correct password")
	}
	if Match(hash, "other") {
		t.Error("Match() = true for wrong password")
	}
}
