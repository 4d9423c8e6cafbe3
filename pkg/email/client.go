// Package email delivers transactional mail through a pluggable provider:
// a Resend-style HTTP API or plain SMTP. Suppression and communication
// logging live in the gateway service; this package only moves bytes.
package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bridgesphysio/bridges_backend/config"
)

// Provider sends one message and returns the provider's message id when it
// assigns one.
type Provider interface {
	Name() string
	Send(ctx context.Context, from string, m Message) (providerMessageID string, err error)
}

type Client struct {
	from     string
	timeout  time.Duration
	provider Provider // nil when unconfigured
}

// NewFromCentral builds the client from central config.
func NewFromCentral(cfg config.EmailConfig) (*Client, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{from: cfg.From, timeout: timeout}

	switch strings.ToLower(cfg.Provider) {
	case "resend":
		if cfg.Resend.APIKey == "" {
			return nil, ErrInvalidMessage{Reason: "resend provider requires an API key"}
		}
		c.provider = newResendProvider(cfg.Resend, timeout)
	case "smtp":
		c.provider = newSMTPProvider(cfg.SMTP)
	case "", "none":
		// left unconfigured; Send reports failure per gateway contract
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}

	return c, nil
}

// Configured reports whether a delivery backend exists.
func (c *Client) Configured() bool { return c.provider != nil }

// ProviderName returns the active backend's tag, or "none".
func (c *Client) ProviderName() string {
	if c.provider == nil {
		return "none"
	}
	return c.provider.Name()
}

// Send dispatches m, bounded by the configured timeout.
func (c *Client) Send(ctx context.Context, m Message) (string, error) {
	if c.provider == nil {
		return "", ErrNotConfigured{}
	}
	if strings.TrimSpace(c.from) == "" {
		return "", ErrInvalidMessage{Reason: "from address is required"}
	}
	if len(m.To) == 0 {
		return "", ErrInvalidMessage{Reason: "at least one recipient is required"}
	}
	if strings.TrimSpace(m.Subject) == "" {
		return "", ErrInvalidMessage{Reason: "subject is required"}
	}
	if strings.TrimSpace(m.HTMLBody) == "" && strings.TrimSpace(m.TextBody) == "" {
		return "", ErrInvalidMessage{Reason: "either HTMLBody or TextBody is required"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	id, err := c.provider.Send(ctx, c.from, m)
	if err != nil {
		return "", ErrSend{Provider: c.provider.Name(), Err: err}
	}
	return id, nil
}

// NormalizeAttachments loads file-path attachments into memory so every
// attachment carries raw content.
func NormalizeAttachments(in []Attachment) ([]Attachment, error) {
	out := make([]Attachment, 0, len(in))
	for _, a := range in {
		if len(a.Content) == 0 && a.Path != "" {
			data, err := os.ReadFile(a.Path)
			if err != nil {
				return nil, fmt.Errorf("read attachment %s: %w", a.Path, err)
			}
			a.Content = data
		}
		if a.ContentType == "" {
			a.ContentType = "application/pdf"
		}
		out = append(out, a)
	}
	return out, nil
}

func encodeContent(a Attachment) string {
	return base64.StdEncoding.EncodeToString(a.Content)
}
