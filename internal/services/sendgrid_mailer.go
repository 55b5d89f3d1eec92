package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
)

const integrationTimeout = 10 * time.Second

// Alerter emails admins about content held for review.
type Alerter interface {
	SendFlaggedContentAlert(ctx context.Context, recipients []string, item models.FlaggedContent) error
}

// SendGridMailer delivers moderation alerts through the SendGrid v3 mail API.
type SendGridMailer struct {
	APIKey     string
	FromEmail  string
	HTTPClient *http.Client
	Endpoint   string
}

func NewSendGridMailer(apiKey string, fromEmail string) *SendGridMailer {
	return &SendGridMailer{
		APIKey:     strings.TrimSpace(apiKey),
		FromEmail:  strings.TrimSpace(fromEmail),
		Endpoint:   "https://api.sendgrid.com/v3/mail/send",
		HTTPClient: &http.Client{Timeout: integrationTimeout},
	}
}

type sendGridEmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To         []sendGridEmailAddress `json:"to"`
	Subject    string                 `json:"subject"`
	CustomArgs map[string]string      `json:"custom_args,omitempty"`
}

type sendGridMailSendRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridEmailAddress      `json:"from"`
	Content          []sendGridContent         `json:"content"`
}

// SendFlaggedContentAlert sends one message addressed to every recipient.
// Blank recipients are skipped; an empty list sends nothing.
func (m *SendGridMailer) SendFlaggedContentAlert(ctx context.Context, recipients []string, item models.FlaggedContent) error {
	switch {
	case m == nil:
		return fmt.Errorf("sendgrid mailer not configured")
	case m.APIKey == "":
		return fmt.Errorf("missing SENDGRID_API_KEY")
	case m.FromEmail == "":
		return fmt.Errorf("missing ALERT_FROM_EMAIL")
	}

	msg, ok := m.flaggedAlert(recipients, item)
	if !ok {
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("sendgrid: encode: %w", err)
	}

	resp, err := postIntegration(ctx, m.HTTPClient, m.Endpoint, "application/json", bytes.NewReader(payload),
		map[string]string{"Authorization": "Bearer " + m.APIKey})
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid: mail send http %d", resp.StatusCode)
	}
	return nil
}

func (m *SendGridMailer) flaggedAlert(recipients []string, item models.FlaggedContent) (sendGridMailSendRequest, bool) {
	var to []sendGridEmailAddress
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			to = append(to, sendGridEmailAddress{Email: r})
		}
	}
	if len(to) == 0 {
		return sendGridMailSendRequest{}, false
	}

	var body strings.Builder
	fmt.Fprintf(&body, "A %s by %s was held for review.\n\n", item.ContentType, item.Author.Username)
	fmt.Fprintf(&body, "Title: %s\n", item.ContentTitle)
	fmt.Fprintf(&body, "Flagged words: %s\n\n", strings.Join(item.FlaggedWords, ", "))
	body.WriteString(item.ContentText)
	body.WriteByte('\n')

	return sendGridMailSendRequest{
		Personalizations: []sendGridPersonalization{{
			To:         to,
			Subject:    fmt.Sprintf("Flagged %s: %s", item.ContentType, truncate(item.ContentTitle, 80)),
			CustomArgs: map[string]string{"moderation_id": item.ModerationID},
		}},
		From:    sendGridEmailAddress{Email: m.FromEmail, Name: "StackIt Moderation"},
		Content: []sendGridContent{{Type: "text/plain", Value: body.String()}},
	}, true
}

// postIntegration POSTs body to a third-party endpoint. The caller closes the
// response body.
func postIntegration(ctx context.Context, client *http.Client, endpoint, contentType string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if client == nil {
		client = &http.Client{Timeout: integrationTimeout}
	}
	return client.Do(req)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
