package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/devanup/DocBox/internal/config"
)

const resendEndpoint = "https://api.resend.com/emails"

// Mailer delivers a single email. Implemented by Resend in production and by
// fakes in tests.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Resend sends email through the Resend HTTP API.
type Resend struct {
	apiKey     string
	from       string
	httpClient *http.Client
}

// NewResend constructs a Resend mailer.
func NewResend(cfg config.MailConfig) *Resend {
	return &Resend{
		apiKey: cfg.ResendAPIKey,
		from:   cfg.FromAddress,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers one email, attempted exactly once.
func (r *Resend) Send(ctx context.Context, to, subject, html string) error {
	body, err := json.Marshal(resendRequest{
		From:    r.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("marshal resend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("resend responded %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}
