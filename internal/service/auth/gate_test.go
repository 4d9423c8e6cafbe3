package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bridgesphysio/bridges_backend/internal/model"
)

func TestAccountGate(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name string
		user model.User
		want error
	}{
		{
			name: "active unlocked passes",
			user: model.User{Active: true},
			want: nil,
		},
		{
			// Lockout sets active=false alongside lockedAt; the caller
			// must still learn the account is locked.
			name: "locked and inactive reports locked",
			user: model.User{Active: false, LockedAt: &now},
			want: ErrLocked,
		},
		{
			name: "locked but still active reports locked",
			user: model.User{Active: true, LockedAt: &now},
			want: ErrLocked,
		},
		{
			name: "deactivated without lock reads as bad credentials",
			user: model.User{Active: false},
			want: ErrInvalidCredentials,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := accountGate(&tt.user)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}
