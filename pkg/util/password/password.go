// Package password wraps bcrypt hashing for user credentials.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMismatch = errors.New("password does not match")
	ErrTooLong  = errors.New("password exceeds 72 bytes")
)

// MinCost is the lowest cost accepted for stored hashes.
const MinCost = 10

// DefaultCost balances login latency against brute-force resistance.
const DefaultCost = 12

// Hash generates a bcrypt hash of the password at the default cost.
func Hash(password string) (string, error) {
	return HashWithCost(password, DefaultCost)
}

// HashWithCost generates a bcrypt hash at the given cost. Costs below
// MinCost are raised to it.
func HashWithCost(password string, cost int) (string, error) {
	if len(password) > 72 {
		return "", ErrTooLong
	}
	if cost < MinCost {
		cost = MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify compares a password against a bcrypt hash.
// Returns nil on match, ErrMismatch otherwise.
func Verify(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return err
	}
	return nil
}

// Match is a convenience wrapper that returns true if password matches hash.
func Match(hash, password string) bool {
	return Verify(hash, password) == nil
}

// NeedsRehash reports whether the hash was created below the current
// default cost and should be regenerated on next successful login.
func NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost < DefaultCost
}
