package fieldcrypt

import (
	"strings"
	"testing"
	"time"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewFromHex(testKeyHex)
	if err != nil {
		t.Fatalf("NewFromHex() error = %v", err)
	}
	return c
}

func TestRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	tests := []struct {
		name  string
		plain string
	}{
		{"simple", "Alice"},
		{"unicode", "Zoë Müller-O'Brien"},
		{"long", strings.Repeat("clinical note ", 200)},
		{"whitespace", "  padded  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := c.EncryptString(tt.plain)
			if err != nil {
				t.Fatalf("EncryptString() error = %v", err)
			}
			if !strings.HasPrefix(enc, Tag) {
				t.Errorf("ciphertext missing tag: %q", enc)
			}
			if got := c.DecryptString(enc); got != tt.plain {
				t.Errorf("DecryptString() = %q, want %q", got, tt.plain)
			}
		})
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	c := newTestCodec(t)

	a, _ := c.EncryptString("same plaintext")
	b, _ := c.EncryptString("same plaintext")
	if a == b {
		t.Error("two encryptions of the same plaintext produced identical ciphertexts")
	}
}

func TestAlreadyTaggedPassesThrough(t *testing.T) {
	c := newTestCodec(t)

	enc, _ := c.EncryptString("Alice")
	again, err := c.EncryptString(enc)
	if err != nil {
		t.Fatalf("EncryptString() error = %v", err)
	}
	if again != enc {
		t.Error("tagged value was re-encrypted")
	}
}

func TestUntaggedDecryptPassesThrough(t *testing.T) {
	c := newTestCodec(t)

	if got := c.DecryptString("legacy plaintext"); got != "legacy plaintext" {
		t.Errorf("DecryptString() = %q, want pass-through", got)
	}
}

func TestDecryptFailureReturnsStoredValue(t *testing.T) {
	c := newTestCodec(t)

	garbage := Tag + "bm90IHJlYWwgY2lwaGVydGV4dCBhdCBhbGwsIGhvbmVzdGx5"
	if got := c.DecryptString(garbage); got != garbage {
		t.Errorf("DecryptString() on garbage = %q, want stored value back", got)
	}
}

func TestNormalizer(t *testing.T) {
	c := newTestCodec(t)

	enc, err := c.EncryptString("  Alice@Example.COM ", Lowercase)
	if err != nil {
		t.Fatalf("EncryptString() error = %v", err)
	}
	if got := c.DecryptString(enc); got != "alice@example.com" {
		t.Errorf("DecryptString() = %q, want normalized plaintext", got)
	}
}

func TestEmptyString(t *testing.T) {
	c := newTestCodec(t)

	enc, err := c.EncryptString("")
	if err != nil {
		t.Fatalf("EncryptString() error = %v", err)
	}
	if enc != "" {
		t.Errorf("EncryptString(\"\") = %q, want empty", enc)
	}
}

func TestDateRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	d := time.Date(1987, time.March, 14, 0, 0, 0, 0, time.UTC)
	enc, err := c.EncryptDate(d)
	if err != nil {
		t.Fatalf("EncryptDate() error = %v", err)
	}
	if got := c.DecryptDate(enc); !got.Equal(d) {
		t.Errorf("DecryptDate() = %v, want %v", got, d)
	}
}

func TestSliceRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	in := []string{"latex allergy", "pacemaker", ""}
	enc, err := c.EncryptSlice(in)
	if err != nil {
		t.Fatalf("EncryptSlice() error = %v", err)
	}
	out := c.DecryptSlice(enc)
	if len(out) != len(in) {
		t.Fatalf("DecryptSlice() len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("element %d = %q, want %q", i, out[i], in[i])
		}
	}
	if got := c.DecryptSlice(nil); got != nil {
		t.Error("DecryptSlice(nil) should be nil")
	}
}

func TestKeyFromHex(t *testing.T) {
	if _, err := KeyFromHex("deadbeef"); err != ErrInvalidKey {
		t.Errorf("short key error = %v, want ErrInvalidKey", err)
	}
	if _, err := KeyFromHex("zz"); err == nil {
		t.Error("non-hex key should error")
	}
}
