package receipt

import "errors"

var (
	ErrNotFound = errors.New("receipt not found")
)
