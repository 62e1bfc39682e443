package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockGateway is an in-memory Gateway for local runs and tests.
type MockGateway struct {
	mu      sync.RWMutex
	intents map[string]*Intent
}

// NewMockGateway creates a new instance of MockGateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		intents: make(map[string]*Intent),
	}
}

// CreateIntent records an intent and hands back a fake client secret.
func (g *MockGateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := "pi_" + uuid.New().String()
	intent := &Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.New().String(),
		Amount:       amount,
		Currency:     currency,
		Status:       IntentStatusRequiresPayment,
	}
	g.intents[id] = intent
	return intent, nil
}

// IntentStatus returns the recorded status of an intent.
func (g *MockGateway) IntentStatus(ctx context.Context, intentID string) (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	intent, ok := g.intents[intentID]
	if !ok {
		return "", fmt.Errorf("intent %s not found", intentID)
	}
	return intent.Status, nil
}

// SetIntentStatus simulates the provider settling or declining a charge.
func (g *MockGateway) SetIntentStatus(intentID, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if intent, ok := g.intents[intentID]; ok {
		intent.Status = status
	}
}
