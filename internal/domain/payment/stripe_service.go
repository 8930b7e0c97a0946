// internal/domain/payment/stripe_service.go
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/justeunpeu/storefront-backend/internal/config"
)

const stripeBaseURL = "https://api.stripe.com/v1"

// StripeService handles Stripe payment processing
type StripeService struct {
	config     *config.Config
	secretKey  string
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewStripeService creates a new Stripe service
func NewStripeService(cfg *config.Config, logger *logrus.Logger) *StripeService {
	return &StripeService{
		config:    cfg,
		secretKey: cfg.External.Stripe.SecretKey,
		baseURL:   stripeBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// PaymentIntent represents a Stripe PaymentIntent
type PaymentIntent struct {
	ID           string `json:"id"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
	ClientSecret string `json:"client_secret"`
}

// StripeError represents an error response from the Stripe API
type StripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreatePaymentIntent creates a PaymentIntent for the given amount in cents
func (s *StripeService) CreatePaymentIntent(ctx context.Context, amount int64, currency, orderNumber string) (*PaymentIntent, error) {
	if s.secretKey == "" {
		return nil, fmt.Errorf("Stripe secret key not configured")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("invalid payment amount: %d", amount)
	}

	form := url.Values{}
	form.Set("amount", fmt.Sprintf("%d", amount))
	form.Set("currency", strings.ToLower(currency))
	form.Set("metadata[order_number]", orderNumber)
	form.Set("automatic_payment_methods[enabled]", "true")

	intent, err := s.call(ctx, "POST", "/payment_intents", form)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"payment_intent": intent.ID,
		"order_number":   orderNumber,
		"amount":         amount,
	}).Info("Stripe payment intent created")

	return intent, nil
}

// GetPaymentIntent retrieves a PaymentIntent by ID
func (s *StripeService) GetPaymentIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	if s.secretKey == "" {
		return nil, fmt.Errorf("Stripe secret key not configured")
	}
	if intentID == "" {
		return nil, fmt.Errorf("payment intent ID is required")
	}

	return s.call(ctx, "GET", "/payment_intents/"+intentID, nil)
}

// IsSucceeded reports whether the intent has been paid
func (p *PaymentIntent) IsSucceeded() bool {
	return p.Status == "succeeded"
}

func (s *StripeService) call(ctx context.Context, method, path string, form url.Values) (*PaymentIntent, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create Stripe request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Stripe API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Stripe response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var stripeErr StripeError
		if err := json.Unmarshal(respBody, &stripeErr); err == nil && stripeErr.Error.Message != "" {
			return nil, fmt.Errorf("Stripe API error: %s", stripeErr.Error.Message)
		}
		return nil, fmt.Errorf("Stripe API returned status %d", resp.StatusCode)
	}

	var intent PaymentIntent
	if err := json.Unmarshal(respBody, &intent); err != nil {
		return nil, fmt.Errorf("failed to parse Stripe response: %w", err)
	}

	return &intent, nil
}
