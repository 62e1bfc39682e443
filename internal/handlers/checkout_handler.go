package handlers

import (
	"errors"
	"log"

	"qrific/internal/models"
	"qrific/internal/payment"
	"qrific/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// signatureHeader carries the payment provider's webhook signature.
const signatureHeader = "Webhook-Signature"

// CheckoutHandler handles HTTP requests for the checkout flow.
type CheckoutHandler struct {
	service  *services.CheckoutService
	validate *validator.Validate
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the checkout routes with the Fiber app.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	checkoutRoutes := router.Group("/checkout")
	checkoutRoutes.Post("/create-payment-intent", h.HandleCreatePaymentIntent)
	checkoutRoutes.Post("/webhook", h.HandleWebhook)
	checkoutRoutes.Post("/order-information", h.HandleOrderInformation)
	checkoutRoutes.Post("/order-status", h.HandleOrderStatus)
}

// HandleCreatePaymentIntent verifies the cart and opens a payment intent.
func (h *CheckoutHandler) HandleCreatePaymentIntent(c *fiber.Ctx) error {
	var req models.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing checkout request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Checkout request failed validation",
			"error":   err.Error(),
		})
	}

	resp, err := h.service.CreatePaymentIntent(c.UserContext(), &req)
	if err != nil {
		log.Printf("Error creating payment intent: %v", err)
		switch {
		case errors.Is(err, services.ErrPriceMismatch),
			errors.Is(err, services.ErrUnknownVariant),
			errors.Is(err, services.ErrInvalidShipping):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": "Cart verification failed",
				"error":   err.Error(),
			})
		case errors.Is(err, services.ErrPartnerUnavailable):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"message": "A partner service is unavailable, please retry",
				"error":   err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not create payment intent",
				"error":   err.Error(),
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// HandleWebhook receives signed payment events. The raw body is passed to
// verification untouched; fiber's BodyParser never runs on this route. Once
// the signature checks out the provider always gets a success acknowledgment,
// so redelivery storms can't build up behind internal side-effect failures.
func (h *CheckoutHandler) HandleWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signature := c.Get(signatureHeader)

	if err := h.service.HandleWebhook(c.UserContext(), payload, signature); err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			log.Printf("Rejected webhook with bad signature: %v", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid webhook signature",
			})
		}
		log.Printf("Webhook processing error: %v", err)
	}

	return c.JSON(fiber.Map{"received": true})
}

// HandleOrderInformation returns the order linked to a payment intent. The
// storefront calls this on the post-payment confirmation page.
func (h *CheckoutHandler) HandleOrderInformation(c *fiber.Ctx) error {
	var req struct {
		PaymentIntentID string `json:"payment_intent_id" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "payment_intent_id is required",
		})
	}

	order, err := h.service.GetOrderByPaymentIntent(req.PaymentIntentID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		log.Printf("Error fetching order for intent %s: %v", req.PaymentIntentID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}

// HandleOrderStatus returns an order looked up by email plus order number.
func (h *CheckoutHandler) HandleOrderStatus(c *fiber.Ctx) error {
	var req struct {
		Email       string `json:"email" validate:"required,email"`
		OrderNumber string `json:"order_number" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "email and order_number are required",
			"error":   err.Error(),
		})
	}

	order, err := h.service.GetOrderStatus(req.Email, req.OrderNumber)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		log.Printf("Error fetching order %s: %v", req.OrderNumber, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}
