package patient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "london landline", in: "020 7946 0958", want: "+442079460958"},
		{name: "mobile with spaces", in: "07700 900123", want: "+447700900123"},
		{name: "already e164", in: "+447700900123", want: "+447700900123"},
		{name: "empty stays empty", in: "", want: ""},
		{name: "whitespace only", in: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizePhone(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePhoneInvalid(t *testing.T) {
	for _, in := range []string{"12345", "not a phone", "+44 1"} {
		_, err := normalizePhone(in)
		assert.ErrorIs(t, err, ErrInvalidPhone, "input %q", in)
	}
}
