package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a staff account. Sensitive 2FA material is stored encrypted by the
// field codec; the password field only ever holds a bcrypt hash.
type User struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	Name                string             `bson:"name,omitempty"`
	Username            string             `bson:"username"`
	Email               *string            `bson:"email,omitempty"`
	Password            string             `bson:"password"`
	Role                string             `bson:"role"`
	EmployeeID          int64              `bson:"employeeID,omitempty"`
	Administrator       bool               `bson:"administrator"`
	Active              bool               `bson:"active"`
	LastLoginAt         *time.Time         `bson:"lastLoginAt,omitempty"`
	FailedLoginAttempts int                `bson:"failedLoginAttempts,omitempty"`
	LockedAt            *time.Time         `bson:"lockedAt,omitempty"`

	PasswordResetToken   *string    `bson:"passwordResetToken,omitempty"`
	PasswordResetExpires *time.Time `bson:"passwordResetExpires,omitempty"`

	TwoFactorEnabled    bool       `bson:"twoFactorEnabled"`
	TwoFactorSecret     *string    `bson:"twoFactorSecret,omitempty"`
	TwoFactorTempSecret *string    `bson:"twoFactorTempSecret,omitempty"`
	TwoFactorVerifiedAt *time.Time `bson:"twoFactorVerifiedAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt,omitempty"`
	UpdatedAt time.Time `bson:"updatedAt,omitempty"`
}

// Locked reports whether the account is currently locked out.
func (u *User) Locked() bool { return u.LockedAt != nil }
