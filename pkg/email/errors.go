package email

import "fmt"

// ErrNotConfigured is returned when no delivery backend is configured.
type ErrNotConfigured struct{}

func (ErrNotConfigured) Error() string { return "Email provider not configured" }

type ErrInvalidMessage struct {
	Reason string
}

func (e ErrInvalidMessage) Error() string { return "invalid email message: " + e.Reason }

type ErrSend struct {
	Provider string
	Err      error
}

func (e ErrSend) Error() string { return fmt.Sprintf("send via %s: %v", e.Provider, e.Err) }

func (e ErrSend) Unwrap() error { return e.Err }
