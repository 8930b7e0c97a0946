// internal/pkg/email/types.go
package email

import (
	"fmt"
	"time"
)

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypeWelcome           EmailType = "welcome"
	EmailTypeEmailVerification EmailType = "email_verification"
	EmailTypePasswordReset     EmailType = "password_reset"
	EmailTypeOrderConfirmation EmailType = "order_confirmation"
)

// Email represents an email message
type Email struct {
	To          []string  `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"html_content"`
	Type        EmailType `json:"type"`
}

// TemplateData contains common data for all email templates
type TemplateData struct {
	SiteName  string `json:"site_name"`
	SiteURL   string `json:"site_url"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	Year      int    `json:"year"`
}

// WelcomeData contains data for the welcome email
type WelcomeData struct {
	TemplateData
	VerificationURL string `json:"verification_url"`
}

// PasswordResetData contains data for the password reset email
type PasswordResetData struct {
	TemplateData
	ResetURL   string `json:"reset_url"`
	ExpiryTime string `json:"expiry_time"`
}

// EmailVerificationData contains data for the email verification email
type EmailVerificationData struct {
	TemplateData
	VerificationURL string `json:"verification_url"`
	ExpiryTime      string `json:"expiry_time"`
}

// OrderConfirmationData contains data for the order confirmation email
type OrderConfirmationData struct {
	TemplateData
	OrderNumber string      `json:"order_number"`
	OrderDate   string      `json:"order_date"`
	OrderTotal  string      `json:"order_total"`
	OrderURL    string      `json:"order_url"`
	Items       []OrderItem `json:"items"`
}

// OrderItem represents an item line in the order confirmation email
type OrderItem struct {
	Name     string `json:"name"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// FormatPrice formats a price in cents as a euro amount
func FormatPrice(cents int64) string {
	return fmt.Sprintf("%.2f €", float64(cents)/100)
}

// GetBaseTemplateData returns common template data
func GetBaseTemplateData(siteName, siteURL, userName, userEmail string) TemplateData {
	return TemplateData{
		SiteName:  siteName,
		SiteURL:   siteURL,
		UserName:  userName,
		UserEmail: userEmail,
		Year:      time.Now().Year(),
	}
}
