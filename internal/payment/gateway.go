// Package payment wraps the card-payment provider: creating payment intents
// for verified totals and decoding the signed webhook events the provider
// sends back when a charge settles.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
)

// Intent statuses reported by the provider.
const (
	IntentStatusRequiresPayment = "requires_payment_method"
	IntentStatusSucceeded       = "succeeded"
	IntentStatusFailed          = "failed"
)

// Webhook event types this service reacts to. Anything else is acknowledged
// and ignored.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// Intent is the provider-side object representing an attempted charge.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// Gateway is the payment-provider boundary. Implementations hold long-lived
// credentialed clients constructed once at startup.
type Gateway interface {
	// CreateIntent registers a charge attempt for the given amount (cents)
	// and returns the intent, including the client secret the storefront
	// needs to complete payment. Metadata travels to the provider opaquely
	// and comes back on webhook events for reconciliation.
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)
	// IntentStatus fetches the provider's current view of an intent.
	IntentStatus(ctx context.Context, intentID string) (string, error)
}

// Event is a decoded webhook payload.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object Intent `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a webhook payload. It must only be called after the
// payload's signature has been verified.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode webhook event: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("webhook event has no type")
	}
	return &event, nil
}
