package services

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"

	"qrific/internal/repositories"

	"github.com/google/uuid"
)

// Order numbers look like QR-20260901-7A30A1: a date prefix derived from the
// server clock plus a random suffix. The alphabet is digits plus the letter
// A only, so a printed or scanned number is never misread (no O/0, I/1).
const (
	orderNumberPrefix   = "QR"
	orderNumberAlphabet = "0123456789A"
	orderSuffixLength   = 6
	orderNumberAttempts = 10
)

// OrderNumberGenerator produces unique human-facing order numbers. The
// repo lookup only trims collision retries; the unique index on the order
// table is the authoritative guard.
type OrderNumberGenerator struct {
	orders repositories.OrderRepository
	now    func() time.Time
}

// NewOrderNumberGenerator creates a generator backed by the order repository.
func NewOrderNumberGenerator(orders repositories.OrderRepository) *OrderNumberGenerator {
	return &OrderNumberGenerator{
		orders: orders,
		now:    time.Now,
	}
}

// Generate returns an order number not currently in the store. After the
// attempt cap it falls back to a UUID suffix instead of looping unboundedly.
func (g *OrderNumberGenerator) Generate() (string, error) {
	prefix := fmt.Sprintf("%s-%s", orderNumberPrefix, g.now().Format("20060102"))

	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		suffix, err := randomCode(orderNumberAlphabet, orderSuffixLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate order number suffix: %w", err)
		}
		candidate := prefix + "-" + suffix

		exists, err := g.orders.ExistsByOrderNumber(candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check order number uniqueness: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}

	// Suffix space exhausted for today (or extremely unlucky); a UUID
	// cannot collide in practice.
	log.Printf("Order number suffix space contended after %d attempts, falling back to UUID", orderNumberAttempts)
	return prefix + "-" + uuid.New().String(), nil
}

// randomCode draws length characters uniformly from the alphabet.
func randomCode(alphabet string, length int) (string, error) {
	size := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
