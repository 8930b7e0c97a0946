// internal/pkg/email/resend.go
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Resend API structures
type ResendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type ResendResponse struct {
	ID string `json:"id"`
}

// sendResendEmail sends email using the Resend API
func (s *Service) sendResendEmail(ctx context.Context, email *Email) error {
	apiKey := s.config.External.Email.APIKey
	if apiKey == "" {
		return fmt.Errorf("Resend API key not configured")
	}

	fromEmail := s.config.External.Email.FromEmail
	fromName := s.config.External.Email.FromName
	var from string
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromEmail)
	} else {
		from = fromEmail
	}

	reqData := ResendEmailRequest{
		From:    from,
		To:      email.To,
		Subject: email.Subject,
		HTML:    email.HTMLContent,
	}

	jsonData, err := json.Marshal(reqData)
	if err != nil {
		return fmt.Errorf("failed to marshal Resend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create Resend request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Resend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Resend API returned status %d", resp.StatusCode)
	}

	return nil
}
