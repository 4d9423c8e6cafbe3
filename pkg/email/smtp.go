package email

import (
	"bytes"
	"context"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/bridgesphysio/bridges_backend/config"
)

type smtpProvider struct {
	cfg config.SMTPConf
}

func newSMTPProvider(cfg config.SMTPConf) *smtpProvider {
	return &smtpProvider{cfg: cfg}
}

func (p *smtpProvider) Name() string { return "smtp" }

// Send builds a MIME message with gomail and hands it to the SMTP dialer.
// SMTP assigns no message id, so the returned id is always empty.
func (p *smtpProvider) Send(ctx context.Context, from string, m Message) (string, error) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", m.To...)
	if len(m.CC) > 0 {
		msg.SetHeader("Cc", m.CC...)
	}
	if len(m.BCC) > 0 {
		msg.SetHeader("Bcc", m.BCC...)
	}
	msg.SetHeader("Subject", m.Subject)
	for k, v := range m.Headers {
		msg.SetHeader(k, v)
	}

	if m.TextBody != "" {
		msg.SetBody("text/plain", m.TextBody)
		if m.HTMLBody != "" {
			msg.AddAlternative("text/html", m.HTMLBody)
		}
	} else {
		msg.SetBody("text/html", m.HTMLBody)
	}

	for _, a := range m.Attachments {
		content := a.Content
		msg.Attach(a.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := io.Copy(w, bytes.NewReader(content))
			return err
		}))
	}

	dialer := gomail.NewDialer(p.cfg.Host, p.cfg.Port, p.cfg.Username, p.cfg.Password)
	dialer.SSL = p.cfg.UseTLS

	done := make(chan error, 1)
	go func() { done <- dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
