package user

import "errors"

var (
	ErrNotFound   = errors.New("user not found")
	ErrDuplicate  = errors.New("username or email already in use")
	ErrValidation = errors.New("invalid user fields")
	ErrLastAdmin  = errors.New("cannot remove the last administrator")
)
