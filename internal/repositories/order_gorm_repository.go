package repositories

import (
	"errors"
	"fmt"
	"time"

	"qrific/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateOrderNumber is returned by Create when the order-number unique
// index rejects the insert. The caller regenerates the number and retries;
// the index, not the application-level pre-check, is the authoritative guard.
var ErrDuplicateOrderNumber = errors.New("order number already exists")

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Create persists the order and its items in one transaction.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.Create(order).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateOrderNumber, order.OrderNumber)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetAll retrieves all orders with their items.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByOrderNumber retrieves a single order by its human-facing number.
func (r *GORMOrderRepository) GetByOrderNumber(orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "order_number = ?", orderNumber).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order with number %s: %w", orderNumber, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by number %s: %w", orderNumber, err)
	}
	return &order, nil
}

// GetByPaymentIntentID retrieves a single order by its payment-intent id.
func (r *GORMOrderRepository) GetByPaymentIntentID(paymentIntentID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "payment_intent_id = ?", paymentIntentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order with payment intent %s: %w", paymentIntentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by payment intent %s: %w", paymentIntentID, err)
	}
	return &order, nil
}

// GetByEmailAndNumber retrieves an order by customer email plus order number.
func (r *GORMOrderRepository) GetByEmailAndNumber(email, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").
		First(&order, "email = ? AND order_number = ?", email, orderNumber).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order with number %s: %w", orderNumber, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order %s for %s: %w", orderNumber, email, err)
	}
	return &order, nil
}

// ExistsByOrderNumber reports whether an order with the given number exists.
func (r *GORMOrderRepository) ExistsByOrderNumber(orderNumber string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Order{}).Where("order_number = ?", orderNumber).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check order number %s: %w", orderNumber, err)
	}
	return count > 0, nil
}

// MarkPaid performs the conditional pending->paid update. RowsAffected tells
// us whether this call won the transition; concurrent or redelivered webhook
// events see zero rows and skip side effects.
func (r *GORMOrderRepository) MarkPaid(id string) (bool, error) {
	return r.transition(id, models.OrderStatusPaid)
}

// MarkFailed performs the conditional pending->failed update.
func (r *GORMOrderRepository) MarkFailed(id string) (bool, error) {
	return r.transition(id, models.OrderStatusFailed)
}

func (r *GORMOrderRepository) transition(id string, to models.OrderStatus) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderStatusPending).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark order %s %s: %w", id, to, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SetQRGenerated flags the order as having its fulfillment QR codes created.
func (r *GORMOrderRepository) SetQRGenerated(id string) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("qr_generated", true)
	if res.Error != nil {
		return fmt.Errorf("failed to set qr_generated on order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s not found", id)
	}
	return nil
}

// LinkItemQRCode attaches a generated QR-code record to an order item.
func (r *GORMOrderRepository) LinkItemQRCode(itemID, qrCodeID string) error {
	res := r.db.Model(&models.OrderItem{}).Where("id = ?", itemID).Update("qr_code_id", qrCodeID)
	if res.Error != nil {
		return fmt.Errorf("failed to link QR code to item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order item with ID %s not found", itemID)
	}
	return nil
}

// FindStalePending returns pending orders older than the cutoff.
func (r *GORMOrderRepository) FindStalePending(olderThan time.Duration) ([]models.Order, error) {
	var orders []models.Order
	cutoff := time.Now().Add(-olderThan)
	err := r.db.Preload("Items").
		Where("status = ? AND created_at < ?", models.OrderStatusPending, cutoff).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find stale pending orders: %w", err)
	}
	return orders, nil
}

// isDuplicateKey detects a unique-constraint violation. GORM translates
// driver errors when TranslateError is enabled on the connection.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
