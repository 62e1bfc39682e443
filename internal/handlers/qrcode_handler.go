package handlers

import (
	"errors"
	"log"

	"qrific/internal/services"

	"github.com/gofiber/fiber/v2"
)

// QRCodeHandler handles the public scan lookup for printed QR codes.
type QRCodeHandler struct {
	service *services.QRCodeService
}

// NewQRCodeHandler creates a new QRCodeHandler.
func NewQRCodeHandler(service *services.QRCodeService) *QRCodeHandler {
	return &QRCodeHandler{
		service: service,
	}
}

// RegisterRoutes registers the QR-code routes with the Fiber app.
func (h *QRCodeHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/qr/:url_code", h.HandleGetDetails)
}

// HandleGetDetails resolves a scanned shirt URL. This is the page behind the
// artwork printed on every shirt, so it is public and unauthenticated.
func (h *QRCodeHandler) HandleGetDetails(c *fiber.Ctx) error {
	urlCode := c.Params("url_code")

	details, err := h.service.GetDetails(urlCode)
	if err != nil {
		if errors.Is(err, services.ErrQRCodeNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "QR code not found",
			})
		}
		log.Printf("Error resolving QR code %s: %v", urlCode, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not resolve QR code",
			"error":   err.Error(),
		})
	}
	return c.JSON(details)
}
