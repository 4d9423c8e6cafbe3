// Package fieldcrypt provides AES-256-GCM encryption for sensitive document
// fields (names, contact details, clinical free text) stored at rest.
// Encrypted values carry a fixed "enc::" prefix so legacy plaintext rows can
// coexist with encrypted ones.
package fieldcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Tag is prefixed to every ciphertext the codec persists.
const Tag = "enc::"

var (
	ErrInvalidKey         = errors.New("encryption key must be 32 bytes")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

// Normalizer runs on plaintext before encryption (e.g. lowercasing emails).
type Normalizer func(string) string

// Lowercase is a Normalizer that lowercases and trims the value.
func Lowercase(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Codec encrypts and decrypts tagged field values with a single master key.
type Codec struct {
	key []byte
}

// KeyFromHex decodes a 64-char hex string into a 32-byte AES-256 key.
func KeyFromHex(hexKey string) ([]byte, error) {
	b, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid hex key: %w", err)
	}
	if len(b) != 32 {
		return nil, ErrInvalidKey
	}
	return b, nil
}

func New(key []byte) (*Codec, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	return &Codec{key: key}, nil
}

func NewFromHex(hexKey string) (*Codec, error) {
	key, err := KeyFromHex(hexKey)
	if err != nil {
		return nil, err
	}
	return New(key)
}

// EncryptString encrypts a scalar value. Already-tagged values pass through
// unchanged so repeated saves never double-encrypt. Empty values stay empty.
func (c *Codec) EncryptString(plain string, norm ...Normalizer) (string, error) {
	if plain == "" || strings.HasPrefix(plain, Tag) {
		return plain, nil
	}
	for _, n := range norm {
		plain = n(plain)
	}
	ct, err := c.seal(plain)
	if err != nil {
		return "", err
	}
	return Tag + ct, nil
}

// DecryptString decrypts a tagged value. Untagged values pass through
// (legacy rows). If decryption fails the stored value is returned unchanged
// so the row stays visible for diagnostics.
func (c *Codec) DecryptString(stored string) string {
	if !strings.HasPrefix(stored, Tag) {
		return stored
	}
	plain, err := c.open(strings.TrimPrefix(stored, Tag))
	if err != nil {
		return stored
	}
	return plain
}

// EncryptDate encrypts a date as its RFC 3339 date string.
func (c *Codec) EncryptDate(t time.Time) (string, error) {
	if t.IsZero() {
		return "", nil
	}
	return c.EncryptString(t.UTC().Format("2006-01-02"))
}

// DecryptDate reverses EncryptDate. A zero time is returned for values that
// do not parse as dates.
func (c *Codec) DecryptDate(stored string) time.Time {
	plain := c.DecryptString(stored)
	t, err := time.Parse("2006-01-02", plain)
	if err != nil {
		return time.Time{}
	}
	return t
}

// EncryptSlice encrypts each element of a string slice.
func (c *Codec) EncryptSlice(values []string, norm ...Normalizer) ([]string, error) {
	if values == nil {
		return nil, nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		enc, err := c.EncryptString(v, norm...)
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}

// DecryptSlice reverses EncryptSlice.
func (c *Codec) DecryptSlice(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = c.DecryptString(v)
	}
	return out
}

func (c *Codec) seal(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("create GCM: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (c *Codec) open(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("create GCM: %w", err)
	}
	if len(data) < gcm.NonceSize() {
		return "", ErrCiphertextTooShort
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}

// Hash returns the SHA-256 hex digest of value. Used for password-reset
// tokens: deterministic, so the raw token never touches the database.
func Hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// Encryptor batches field encryption with a sticky first error, so callers
// encrypting many fields check once at the end.
type Encryptor struct {
	c   *Codec
	err error
}

// Encryptor returns a fresh batch encryptor.
func (c *Codec) Encryptor() *Encryptor {
	return &Encryptor{c: c}
}

// String encrypts one scalar, returning "" after a previous failure.
func (e *Encryptor) String(plain string, norm ...Normalizer) string {
	if e.err != nil {
		return ""
	}
	out, err := e.c.EncryptString(plain, norm...)
	if err != nil {
		e.err = err
		return ""
	}
	return out
}

// Date encrypts a date value.
func (e *Encryptor) Date(t time.Time) string {
	if e.err != nil {
		return ""
	}
	out, err := e.c.EncryptDate(t)
	if err != nil {
		e.err = err
		return ""
	}
	return out
}

// Slice encrypts each element.
func (e *Encryptor) Slice(values []string, norm ...Normalizer) []string {
	if e.err != nil {
		return nil
	}
	out, err := e.c.EncryptSlice(values, norm...)
	if err != nil {
		e.err = err
		return nil
	}
	return out
}

// Err reports the first failure, if any.
func (e *Encryptor) Err() error { return e.err }
