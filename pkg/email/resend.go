package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bridgesphysio/bridges_backend/config"
)

const defaultResendEndpoint = "https://api.resend.com/emails"

type resendProvider struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func newResendProvider(cfg config.ResendConf, timeout time.Duration) *resendProvider {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultResendEndpoint
	}
	return &resendProvider{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *resendProvider) Name() string { return "resend" }

type resendAttachment struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ContentType string `json:"content_type,omitempty"`
}

type resendRequest struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	CC          []string           `json:"cc,omitempty"`
	BCC         []string           `json:"bcc,omitempty"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html,omitempty"`
	Text        string             `json:"text,omitempty"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
	Headers     map[string]string  `json:"headers,omitempty"`
}

type resendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (p *resendProvider) Send(ctx context.Context, from string, m Message) (string, error) {
	payload := resendRequest{
		From:    from,
		To:      m.To,
		CC:      m.CC,
		BCC:     m.BCC,
		Subject: m.Subject,
		HTML:    m.HTMLBody,
		Text:    m.TextBody,
		Headers: m.Headers,
	}
	for _, a := range m.Attachments {
		payload.Attachments = append(payload.Attachments, resendAttachment{
			Filename:    a.Filename,
			Content:     encodeContent(a),
			ContentType: a.ContentType,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed resendResponse
	if err := json.Unmarshal(raw, &parsed); err != nil && resp.StatusCode < 300 {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 300 {
		msg := parsed.Message
		if msg == "" {
			msg = string(raw)
		}
		return "", fmt.Errorf("resend returned %d: %s", resp.StatusCode, msg)
	}
	return parsed.ID, nil
}
