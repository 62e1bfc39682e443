package handlers

import (
	"errors"
	"log"

	"qrific/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles the operator-facing order routes.
type OrderHandler struct {
	service   *services.CheckoutService
	qrService *services.QRCodeService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.CheckoutService, qrService *services.QRCodeService) *OrderHandler {
	return &OrderHandler{
		service:   service,
		qrService: qrService,
	}
}

// RegisterRoutes registers the order routes on the given router. The caller
// is expected to put the router behind auth middleware.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleGetOrders)
	router.Get("/:order_number", h.HandleGetOrder)
}

// HandleGetOrders retrieves all orders, newest first.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders()
	if err != nil {
		log.Printf("Error getting all orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetOrder retrieves one order with the QR codes minted for it.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	orderNumber := c.Params("order_number")

	order, err := h.service.GetOrderByNumber(orderNumber)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		log.Printf("Error getting order %s: %v", orderNumber, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}

	codes, err := h.qrService.CodesForOrder(order.OrderNumber)
	if err != nil {
		log.Printf("Error getting QR codes for order %s: %v", orderNumber, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve QR codes",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"order":    order,
		"qr_codes": codes,
	})
}
