package repositories

import (
	"fmt"

	"qrific/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMQRCodeRepository is a GORM implementation of QRCodeRepository.
type GORMQRCodeRepository struct {
	db *gorm.DB
}

// NewGORMQRCodeRepository creates a new instance of GORMQRCodeRepository.
func NewGORMQRCodeRepository(db *gorm.DB) *GORMQRCodeRepository {
	return &GORMQRCodeRepository{
		db: db,
	}
}

// Create creates a new QR-code record in the database.
func (r *GORMQRCodeRepository) Create(qr *models.QRCode) error {
	if qr.ID == "" {
		qr.ID = uuid.New().String()
	}
	if err := r.db.Create(qr).Error; err != nil {
		return fmt.Errorf("failed to create QR code: %w", err)
	}
	return nil
}

// GetByOrderNumber retrieves all QR codes generated for an order.
func (r *GORMQRCodeRepository) GetByOrderNumber(orderNumber string) ([]models.QRCode, error) {
	var codes []models.QRCode
	if err := r.db.Find(&codes, "order_number = ?", orderNumber).Error; err != nil {
		return nil, fmt.Errorf("failed to get QR codes for order %s: %w", orderNumber, err)
	}
	return codes, nil
}

// GetByURLCode retrieves the QR code behind a scanned shirt URL.
func (r *GORMQRCodeRepository) GetByURLCode(urlCode string) (*models.QRCode, error) {
	var qr models.QRCode
	if err := r.db.First(&qr, "url_code = ?", urlCode).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("QR code %s: %w", urlCode, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get QR code %s: %w", urlCode, err)
	}
	return &qr, nil
}

// FindActivatable retrieves a purchased, not-yet-activated QR code matching
// the printed activation code and shirt id.
func (r *GORMQRCodeRepository) FindActivatable(activationCode, shirtID string) (*models.QRCode, error) {
	var qr models.QRCode
	err := r.db.First(&qr,
		"activation_code = ? AND shirt_id = ? AND purchased = ? AND activated = ?",
		activationCode, shirtID, true, false).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("shirt %s with activation code %s not found or not purchased yet: %w", shirtID, activationCode, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up activation code: %w", err)
	}
	return &qr, nil
}

// ActivateForUser creates the wearer account and marks the QR code activated
// in one transaction, so a half-activated shirt can never be observed.
func (r *GORMQRCodeRepository) ActivateForUser(qr *models.QRCode, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		res := tx.Model(&models.QRCode{}).
			Where("id = ? AND activated = ?", qr.ID, false).
			Updates(map[string]interface{}{"activated": true, "user_id": user.ID})
		if res.Error != nil {
			return fmt.Errorf("failed to activate QR code %s: %w", qr.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("QR code %s already activated", qr.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	qr.Activated = true
	qr.UserID = &user.ID
	return nil
}
