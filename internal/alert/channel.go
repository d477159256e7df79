package alert

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/smtp"
	"time"

	"github.com/ews-platform/ews-consensus/internal/config"
)

// ChannelAdapter delivers one Notification's content to a recipient.
// delivered=true means the adapter itself confirms receipt (DELIVERED);
// adapters without a delivery receipt leave the notification at SENT (§4.8).
type ChannelAdapter interface {
	Kind() string
	Send(ctx context.Context, recipient, content string) (delivered bool, err error)
}

// EmailAdapter sends notifications over SMTP. No email library appears
// anywhere in the retrieved example corpus (verified by inventory), so this
// is built on net/smtp directly — see DESIGN.md.
type EmailAdapter struct {
	cfg config.Config
}

func NewEmailAdapter(cfg config.Config) *EmailAdapter { return &EmailAdapter{cfg: cfg} }

func (e *EmailAdapter) Kind() string { return "email" }

func (e *EmailAdapter) Send(ctx context.Context, recipient, content string) (bool, error) {
	addr := fmt.Sprintf("%s:%d", e.cfg.EmailHost, e.cfg.EmailPort)
	from := e.cfg.EmailFrom
	if e.cfg.EmailFromName != "" {
		from = fmt.Sprintf("%s <%s>", e.cfg.EmailFromName, e.cfg.EmailFrom)
	}
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: EWS Alert\r\n\r\n%s\r\n", from, recipient, content))

	var auth smtp.Auth
	if e.cfg.EmailUser != "" {
		auth = smtp.PlainAuth("", e.cfg.EmailUser, e.cfg.EmailPassword, e.cfg.EmailHost)
	}
	if err := smtp.SendMail(addr, auth, e.cfg.EmailFrom, []string{recipient}, msg); err != nil {
		return false, err
	}
	// SMTP accept does not imply delivery; leave at SENT.
	return false, nil
}

// WebhookAdapter posts notification content as JSON to an arbitrary
// recipient URL — the generic channel the data model's {kind, contact,
// enabled} shape anticipates beyond email (§3). A 2xx response counts as
// delivery confirmation, so a successful send ends at DELIVERED.
type WebhookAdapter struct {
	client *http.Client
}

func NewWebhookAdapter() *WebhookAdapter {
	return &WebhookAdapter{client: &http.Client{Timeout: 10 * time.Second}}
}

func (w *WebhookAdapter) Kind() string { return "webhook" }

func (w *WebhookAdapter) Send(ctx context.Context, recipient, content string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, recipient, bytes.NewBufferString(content))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return false, fmt.Errorf("webhook recipient returned status %d", resp.StatusCode)
	}
	return true, nil
}
