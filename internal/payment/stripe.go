// Package payment creates Stripe payment intents for the premium upgrade.
// Without an API key the service runs in mock mode and fabricates intents,
// which is enough for the development payment flow.
package payment

import (
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// Intent is the subset of a payment intent the API exposes to clients.
type Intent struct {
	ID           string `json:"payment_intent_id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// Service handles Stripe payment operations.
type Service struct {
	enabled bool
}

// NewService creates a payment service. An empty API key enables mock mode.
func NewService(apiKey string) *Service {
	if apiKey != "" {
		stripe.Key = apiKey
	}
	return &Service{enabled: apiKey != ""}
}

// CreateIntent creates a payment intent for the given amount (in cents),
// tagged with the paying user's id.
func (s *Service) CreateIntent(userID int64, amount int64, currency string) (*Intent, error) {
	if currency == "" {
		currency = "usd"
	}

	if !s.enabled {
		return &Intent{
			ID:           fmt.Sprintf("pi_mock_%d", amount),
			ClientSecret: fmt.Sprintf("pi_mock_%d_%d", amount, userID),
			Amount:       amount,
			Currency:     currency,
			Status:       "requires_payment_method",
		}, nil
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		Metadata: map[string]string{
			"user_id": fmt.Sprintf("%d", userID),
		},
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("creating payment intent: %w", err)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
	}, nil
}
