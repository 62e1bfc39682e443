package services

import (
	"context"
	"fmt"
	"log"

	"qrific/internal/fulfillment"
	"qrific/internal/models"
	"qrific/internal/repositories"
)

// QR activation and URL codes avoid glyphs that misread on fabric (no I, L,
// O, S, U or 0).
const (
	qrCodeAlphabet   = "ABCDEFGHJKPMNQRXTVWYZ123456789"
	qrCodeLength     = 9
	shirtIDLength    = 6
	artworkExtension = ".png"
)

// FulfillmentService turns a paid order into physical goods: it mints one QR
// record per ordered unit, renders the print artwork, and submits the print
// order to the partner.
type FulfillmentService struct {
	orderRepo repositories.OrderRepository
	qrRepo    repositories.QRCodeRepository
	partner   fulfillment.Client
	storeURL  string
}

// NewFulfillmentService creates a new FulfillmentService.
func NewFulfillmentService(
	orderRepo repositories.OrderRepository,
	qrRepo repositories.QRCodeRepository,
	partner fulfillment.Client,
	storeURL string,
) *FulfillmentService {
	return &FulfillmentService{
		orderRepo: orderRepo,
		qrRepo:    qrRepo,
		partner:   partner,
		storeURL:  storeURL,
	}
}

// Dispatch generates fulfillment artifacts for the order and submits it to
// the print partner. Orders already flagged qr_generated are skipped, which
// keeps redundant dispatch harmless.
func (s *FulfillmentService) Dispatch(ctx context.Context, order *models.Order) error {
	if order.QRGenerated {
		log.Printf("Order %s already has QR codes generated, skipping dispatch", order.OrderNumber)
		return nil
	}

	files, lines, err := s.generateArtifacts(order)
	if err != nil {
		return err
	}

	receipt, err := s.partner.SubmitOrder(ctx, fulfillment.PrintOrder{
		ExternalID: order.OrderNumber,
		Recipient: fulfillment.Recipient{
			Name:        order.FirstName + " " + order.LastName,
			Address1:    order.Address,
			City:        order.City,
			StateCode:   order.State,
			CountryCode: order.Country,
			Zip:         order.ZipCode,
			Phone:       order.Phone,
			Email:       order.Email,
		},
		Items: lines,
		Files: files,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to submit print order %s: %v", ErrPartnerUnavailable, order.OrderNumber, err)
	}

	if err := s.orderRepo.SetQRGenerated(order.ID); err != nil {
		// The partner already has the order; only the local flag is stale.
		log.Printf("Warning: failed to flag order %s as qr-generated: %v", order.OrderNumber, err)
	}

	log.Printf("Order %s submitted to fulfillment as %s (%s)", order.OrderNumber, receipt.PartnerOrderID, receipt.Status)
	return nil
}

// generateArtifacts creates one QR record and one artwork PNG per ordered
// unit, linking each order item to its first generated code.
func (s *FulfillmentService) generateArtifacts(order *models.Order) ([]fulfillment.PrintFile, []fulfillment.LineItem, error) {
	var files []fulfillment.PrintFile
	lines := make([]fulfillment.LineItem, 0, len(order.Items))

	for _, item := range order.Items {
		lines = append(lines, fulfillment.LineItem{VariantID: item.VariantID, Quantity: item.Quantity})

		for unit := 0; unit < item.Quantity; unit++ {
			urlCode, err := randomCode(qrCodeAlphabet, qrCodeLength)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to generate QR url code: %w", err)
			}
			activationCode, err := randomCode(qrCodeAlphabet, qrCodeLength)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to generate activation code: %w", err)
			}
			shirtID, err := randomCode(qrCodeAlphabet, shirtIDLength)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to generate shirt id: %w", err)
			}

			qr := &models.QRCode{
				OrderNumber:    order.OrderNumber,
				ShirtID:        shirtID,
				URLCode:        urlCode,
				ActivationCode: activationCode,
				Purchased:      true,
				Activated:      false,
			}
			if err := s.qrRepo.Create(qr); err != nil {
				return nil, nil, err
			}

			png, err := fulfillment.RenderQRArtwork(s.storeURL + "/qr/" + urlCode)
			if err != nil {
				return nil, nil, err
			}
			files = append(files, fulfillment.PrintFile{
				Name:     "qr-" + urlCode + artworkExtension,
				Contents: png,
			})

			if unit == 0 {
				if err := s.orderRepo.LinkItemQRCode(item.ID, qr.ID); err != nil {
					log.Printf("Warning: failed to link QR code %s to item %s: %v", qr.ID, item.ID, err)
				}
			}
		}
	}

	return files, lines, nil
}
