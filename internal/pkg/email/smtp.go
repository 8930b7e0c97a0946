// internal/pkg/email/smtp.go
package email

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strings"
)

// sendSMTPEmail sends email using SMTP
func (s *Service) sendSMTPEmail(email *Email) error {
	cfg := s.config.External.Email
	if cfg.SMTPHost == "" || cfg.SMTPUser == "" {
		return fmt.Errorf("SMTP configuration incomplete: missing host or username")
	}

	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)

	var from string
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)
	} else {
		from = cfg.FromEmail
	}

	headers := []string{
		"From: " + from,
		"To: " + strings.Join(email.To, ", "),
		"Subject: " + email.Subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"utf-8\"",
	}

	var msg bytes.Buffer
	msg.WriteString(strings.Join(headers, "\r\n"))
	msg.WriteString("\r\n\r\n")
	msg.WriteString(email.HTMLContent)

	serverAddr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)
	return smtp.SendMail(serverAddr, auth, cfg.FromEmail, email.To, msg.Bytes())
}
