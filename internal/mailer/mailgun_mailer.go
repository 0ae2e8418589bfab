package mailer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/allisson/dbgrant/internal/errors"
)

// MailgunMailer sends mail through the Mailgun HTTP API.
type MailgunMailer struct {
	apiKey   string
	baseURL  string
	fromAddr string
	client   *http.Client
}

// NewMailgunMailer creates a MailgunMailer for the sender domain behind baseURL.
func NewMailgunMailer(apiKey, baseURL, fromAddr string) (*MailgunMailer, error) {
	if apiKey == "" || baseURL == "" {
		return nil, apperrors.Wrap(apperrors.ErrConfig, "mailgun mailer requires MAILGUN_API_KEY and MAILGUN_BASE_URL")
	}
	return &MailgunMailer{
		apiKey:   apiKey,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		fromAddr: fromAddr,
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Send posts the message to the Mailgun messages endpoint.
func (m *MailgunMailer) Send(ctx context.Context, to, subject, text string) error {
	form := url.Values{}
	form.Set("from", m.fromAddr)
	form.Set("to", to)
	form.Set("subject", subject)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		m.baseURL+"/messages",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to build mailgun request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, "failed to call mailgun")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mailgun returned status %d", resp.StatusCode)
	}
	return nil
}
