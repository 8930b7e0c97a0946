// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/justeunpeu/storefront-backend/internal/config"
)

// Service handles all email operations
type Service struct {
	config    *config.Config
	templates map[string]*template.Template
	client    *http.Client
	logger    *logrus.Logger
}

// NewService creates a new email service
func NewService(cfg *config.Config, logger *logrus.Logger) *Service {
	service := &Service{
		config:    cfg,
		templates: make(map[string]*template.Template),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}

	service.loadTemplates()

	return service
}

// SendEmail sends an email using the configured provider
func (s *Service) SendEmail(ctx context.Context, email *Email) error {
	switch s.config.External.Email.Provider {
	case "smtp":
		return s.sendSMTPEmail(email)
	case "resend":
		return s.sendResendEmail(ctx, email)
	default:
		return fmt.Errorf("unsupported email provider: %s", s.config.External.Email.Provider)
	}
}

// SendWelcomeEmail sends a welcome email to new users
func (s *Service) SendWelcomeEmail(ctx context.Context, userEmail, userName, verificationToken string) error {
	data := WelcomeData{
		TemplateData:    s.baseData(userName, userEmail),
		VerificationURL: fmt.Sprintf("%s/verify-email?token=%s", s.config.App.BaseURL, verificationToken),
	}

	htmlContent, err := s.renderTemplate("welcome", data)
	if err != nil {
		return fmt.Errorf("failed to render welcome email template: %w", err)
	}

	return s.SendEmail(ctx, &Email{
		To:          []string{userEmail},
		Subject:     fmt.Sprintf("Bienvenue chez %s !", s.config.App.Name),
		HTMLContent: htmlContent,
		Type:        EmailTypeWelcome,
	})
}

// SendEmailVerificationEmail sends an email verification email
func (s *Service) SendEmailVerificationEmail(ctx context.Context, userEmail, userName, verificationToken string) error {
	data := EmailVerificationData{
		TemplateData:    s.baseData(userName, userEmail),
		VerificationURL: fmt.Sprintf("%s/verify-email?token=%s", s.config.App.BaseURL, verificationToken),
		ExpiryTime:      "48 heures",
	}

	htmlContent, err := s.renderTemplate("email_verification", data)
	if err != nil {
		return fmt.Errorf("failed to render email verification template: %w", err)
	}

	return s.SendEmail(ctx, &Email{
		To:          []string{userEmail},
		Subject:     "Confirmez votre adresse email",
		HTMLContent: htmlContent,
		Type:        EmailTypeEmailVerification,
	})
}

// SendPasswordResetEmail sends a password reset email
func (s *Service) SendPasswordResetEmail(ctx context.Context, userEmail, userName, resetToken string) error {
	data := PasswordResetData{
		TemplateData: s.baseData(userName, userEmail),
		ResetURL:     fmt.Sprintf("%s/reset-password?token=%s", s.config.App.BaseURL, resetToken),
		ExpiryTime:   "1 heure",
	}

	htmlContent, err := s.renderTemplate("password_reset", data)
	if err != nil {
		return fmt.Errorf("failed to render password reset template: %w", err)
	}

	return s.SendEmail(ctx, &Email{
		To:          []string{userEmail},
		Subject:     "Réinitialisez votre mot de passe",
		HTMLContent: htmlContent,
		Type:        EmailTypePasswordReset,
	})
}

// SendOrderConfirmationEmail sends an order confirmation email
func (s *Service) SendOrderConfirmationEmail(ctx context.Context, data OrderConfirmationData) error {
	data.TemplateData = s.baseData(data.UserName, data.UserEmail)
	data.OrderURL = fmt.Sprintf("%s/orders/%s", s.config.App.BaseURL, data.OrderNumber)

	htmlContent, err := s.renderTemplate("order_confirmation", data)
	if err != nil {
		return fmt.Errorf("failed to render order confirmation template: %w", err)
	}

	return s.SendEmail(ctx, &Email{
		To:          []string{data.UserEmail},
		Subject:     fmt.Sprintf("Confirmation de commande %s", data.OrderNumber),
		HTMLContent: htmlContent,
		Type:        EmailTypeOrderConfirmation,
	})
}

func (s *Service) baseData(userName, userEmail string) TemplateData {
	return GetBaseTemplateData(
		s.config.App.Name,
		s.config.App.BaseURL,
		userName,
		userEmail,
	)
}

// loadTemplates parses the built-in email templates
func (s *Service) loadTemplates() {
	for name, body := range templateSources {
		tmpl, err := template.New(name).Parse(body)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"template": name,
				"error":    err.Error(),
			}).Error("Failed to parse email template")
			continue
		}
		s.templates[name] = tmpl
	}
}

// renderTemplate renders an email template with data
func (s *Service) renderTemplate(templateName string, data interface{}) (string, error) {
	tmpl, exists := s.templates[templateName]
	if !exists {
		return "", fmt.Errorf("template %s not found", templateName)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	return buf.String(), nil
}
