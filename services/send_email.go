package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const resendEndpoint = "https://api.resend.com/emails"

// ResendEmailRequest represents the request payload for Resend API
type ResendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Html    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// ResendEmailResponse represents the response from Resend API
type ResendEmailResponse struct {
	ID string `json:"id"`
}

// ResendErrorResponse represents an error response from Resend API
type ResendErrorResponse struct {
	Message string `json:"message"`
}

// Mailer sends transactional mail through Resend.
type Mailer struct {
	apiKey    string
	fromEmail string
	endpoint  string
	client    *http.Client
}

// NewMailer builds a mailer. Without an API key and sender it is disabled and
// Configured reports false.
func NewMailer(apiKey, fromEmail string) *Mailer {
	return &Mailer{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		endpoint:  resendEndpoint,
		client:    newHTTPClient(defaultTimeout),
	}
}

func (m *Mailer) Configured() bool {
	return m != nil && m.apiKey != "" && m.fromEmail != ""
}

// SendEmail sends an HTML email to recipients.
func (m *Mailer) SendEmail(ctx context.Context, subject, body string, recipients []string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}
	if !m.Configured() {
		return fmt.Errorf("RESEND_API_KEY and RESEND_FROM_EMAIL: %w", ErrNotConfigured)
	}

	payload := ResendEmailRequest{
		From:    m.fromEmail,
		To:      recipients,
		Subject: subject,
		Html:    body,
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create Resend API request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to Resend API: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read Resend API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ResendErrorResponse
		if err := json.Unmarshal(bodyBytes, &errorResp); err == nil && errorResp.Message != "" {
			return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, errorResp.Message)
		}
		return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var emailResponse ResendEmailResponse
	if err := json.Unmarshal(bodyBytes, &emailResponse); err != nil {
		log.Warn().Err(err).Msg("Failed to parse Resend email response, but email was sent")
	} else {
		log.Info().Str("emailId", emailResponse.ID).Msg("Successfully sent email via Resend")
	}

	return nil
}

// SendInvitation emails an invitation code.
func (m *Mailer) SendInvitation(ctx context.Context, email, code string, expiresAt *time.Time) error {
	expiry := "It does not expire."
	if expiresAt != nil {
		expiry = fmt.Sprintf("It expires on %s.", expiresAt.UTC().Format("2006-01-02 15:04 MST"))
	}

	body := fmt.Sprintf(
		"<p>You have been invited to Dev Cockpit.</p><p>Your invitation code is <strong>%s</strong>.</p><p>%s</p>",
		html.EscapeString(code), expiry,
	)
	return m.SendEmail(ctx, "You're invited to Dev Cockpit", body, []string{email})
}

// SendEmailChange asks the owner of a new address to confirm it through link.
func (m *Mailer) SendEmailChange(ctx context.Context, email, link string) error {
	body := fmt.Sprintf(
		"<p>We received a request to change the email address of your Dev Cockpit account.</p>"+
			"<p>The change is not complete yet. <a href=\"%s\">Confirm the new address</a> to finish it.</p>"+
			"<p>If you did not request this change, ignore this email.</p>",
		html.EscapeString(link),
	)
	return m.SendEmail(ctx, "Confirm your new email address", body, []string{email})
}
