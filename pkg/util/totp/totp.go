// Package totp wraps RFC 6238 time-based one-time passwords used as the
// optional second login factor.
package totp

import (
	"errors"
	"net/url"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var ErrInvalidCode = errors.New("TOTP code is invalid")

const (
	// Period is the RFC 6238 time step in seconds.
	Period = 30
	// Skew is the number of adjacent steps accepted either side of now.
	Skew = 1
	// Digits in a code.
	Digits = 6
	// SecretSize in bytes before base32 encoding.
	SecretSize = 20
)

// GenerateSecret creates a fresh base32 secret for enrollment.
func GenerateSecret(issuer, account string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      Period,
		SecretSize:  SecretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

// ProvisioningURL builds the otpauth:// URL authenticator apps scan.
func ProvisioningURL(issuer, account, secret string) string {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", issuer)
	v.Set("period", "30")
	v.Set("digits", "6")
	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + issuer + ":" + account,
		RawQuery: v.Encode(),
	}
	return u.String()
}

// Verify checks a code against a base32 secret, accepting one 30-second
// step of clock drift in either direction.
func Verify(secret, code string) error {
	return VerifyAt(secret, code, time.Now())
}

// VerifyAt is Verify with an explicit reference time, for tests.
func VerifyAt(secret, code string, at time.Time) error {
	ok, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    Period,
		Skew:      Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}
	return nil
}
