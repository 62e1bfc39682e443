package repositories

import (
	"qrific/internal/models"
)

// QRCodeRepository defines the interface for QR-code data access.
type QRCodeRepository interface {
	Create(qr *models.QRCode) error
	GetByOrderNumber(orderNumber string) ([]models.QRCode, error)
	// GetByURLCode returns the QR code a scanned shirt URL resolves to.
	GetByURLCode(urlCode string) (*models.QRCode, error)
	// FindActivatable returns the QR code matching the printed activation
	// code and shirt id, provided it has been purchased and not yet
	// activated.
	FindActivatable(activationCode, shirtID string) (*models.QRCode, error)
	// ActivateForUser creates the wearer account and marks the QR code
	// activated in a single transaction.
	ActivateForUser(qr *models.QRCode, user *models.User) error
}
