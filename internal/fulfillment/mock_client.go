package fulfillment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockClient is an in-memory Client for local runs and tests. It holds a
// seedable catalog and flat shipping rates, and records submitted orders.
type MockClient struct {
	mu       sync.RWMutex
	variants map[string]Variant
	rates    ShippingRates
	orders   []PrintOrder
}

// NewMockClient creates a mock partner with the given shipping rates.
func NewMockClient(standard, express int64) *MockClient {
	return &MockClient{
		variants: make(map[string]Variant),
		rates:    ShippingRates{Standard: standard, Express: express},
	}
}

// SeedVariant adds a variant to the mock catalog.
func (c *MockClient) SeedVariant(v Variant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.variants[v.ID] = v
}

// Variants returns the seeded catalog.
func (c *MockClient) Variants(ctx context.Context) ([]Variant, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := make([]Variant, 0, len(c.variants))
	for _, v := range c.variants {
		list = append(list, v)
	}
	return list, nil
}

// ShippingRates returns the flat configured rates.
func (c *MockClient) ShippingRates(ctx context.Context, recipient Recipient, items []LineItem) (*ShippingRates, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("cannot quote shipping for an empty order")
	}
	rates := c.rates
	return &rates, nil
}

// SubmitOrder records the order and returns a fake receipt.
func (c *MockClient) SubmitOrder(ctx context.Context, order PrintOrder) (*Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.orders = append(c.orders, order)
	return &Receipt{
		PartnerOrderID: "pf_" + uuid.New().String(),
		ExternalID:     order.ExternalID,
		Status:         "draft",
	}, nil
}

// SubmittedOrders returns everything sent to the mock partner.
func (c *MockClient) SubmittedOrders() []PrintOrder {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]PrintOrder, len(c.orders))
	copy(out, c.orders)
	return out
}
