package services

import (
	"errors"
	"fmt"
	"log"

	"qrific/internal/models"
	"qrific/internal/repositories"
)

// QRCodeDetails is what a scanner of a shirt's printed QR code sees: which
// shirt it is, whether it has been claimed, and by whom.
type QRCodeDetails struct {
	ShirtID      string `json:"shirt_id"`
	Activated    bool   `json:"activated"`
	ProductTitle string `json:"product_title,omitempty"`
	VariantTitle string `json:"variant_title,omitempty"`
	WearerEmail  string `json:"wearer_email,omitempty"`
}

// QRCodeService resolves scanned shirt URLs and lists the codes minted for an
// order.
type QRCodeService struct {
	qrRepo    repositories.QRCodeRepository
	orderRepo repositories.OrderRepository
	userRepo  repositories.UserRepository
}

// NewQRCodeService creates a new QRCodeService.
func NewQRCodeService(
	qrRepo repositories.QRCodeRepository,
	orderRepo repositories.OrderRepository,
	userRepo repositories.UserRepository,
) *QRCodeService {
	return &QRCodeService{
		qrRepo:    qrRepo,
		orderRepo: orderRepo,
		userRepo:  userRepo,
	}
}

// GetDetails resolves the URL code printed on a shirt. The order lookup only
// enriches the response with product identity; a missing order row degrades
// the details rather than failing the scan.
func (s *QRCodeService) GetDetails(urlCode string) (*QRCodeDetails, error) {
	qr, err := s.qrRepo.GetByURLCode(urlCode)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrQRCodeNotFound, urlCode)
		}
		return nil, err
	}

	details := &QRCodeDetails{
		ShirtID:   qr.ShirtID,
		Activated: qr.Activated,
	}

	if order, err := s.orderRepo.GetByOrderNumber(qr.OrderNumber); err == nil {
		item := itemForCode(order.Items, qr.ID)
		if item != nil {
			details.ProductTitle = item.ProductTitle
			details.VariantTitle = item.VariantTitle
		}
	} else {
		log.Printf("Failed to load order %s for QR code %s: %v", qr.OrderNumber, urlCode, err)
	}

	if qr.Activated && qr.UserID != nil {
		user, err := s.userRepo.GetByID(*qr.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load wearer for QR code %s: %w", urlCode, err)
		}
		details.WearerEmail = user.Email
	}

	return details, nil
}

// CodesForOrder returns every QR code minted for an order.
func (s *QRCodeService) CodesForOrder(orderNumber string) ([]models.QRCode, error) {
	return s.qrRepo.GetByOrderNumber(orderNumber)
}

// itemForCode finds the order item a QR code was linked to, falling back to
// the first item. Only the first unit of each item carries the link.
func itemForCode(items []models.OrderItem, qrCodeID string) *models.OrderItem {
	for i := range items {
		if items[i].QRCodeID != nil && *items[i].QRCodeID == qrCodeID {
			return &items[i]
		}
	}
	if len(items) > 0 {
		return &items[0]
	}
	return nil
}
