package repositories

import (
	"time"

	"qrific/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// Create persists an order together with its items; all rows or none.
	Create(order *models.Order) error
	GetAll() ([]models.Order, error)
	GetByOrderNumber(orderNumber string) (*models.Order, error)
	GetByPaymentIntentID(paymentIntentID string) (*models.Order, error)
	GetByEmailAndNumber(email, orderNumber string) (*models.Order, error)
	ExistsByOrderNumber(orderNumber string) (bool, error)
	// MarkPaid transitions pending->paid. It reports whether this call
	// performed the transition, so redelivered webhooks dispatch side
	// effects at most once.
	MarkPaid(id string) (bool, error)
	// MarkFailed transitions pending->failed, reporting whether this call
	// performed the transition.
	MarkFailed(id string) (bool, error)
	SetQRGenerated(id string) error
	LinkItemQRCode(itemID, qrCodeID string) error
	// FindStalePending returns pending orders created before the cutoff,
	// for reconciliation against the payment provider.
	FindStalePending(olderThan time.Duration) ([]models.Order, error)
}
