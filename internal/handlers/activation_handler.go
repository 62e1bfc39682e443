package handlers

import (
	"errors"
	"log"

	"qrific/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ActivationHandler handles HTTP requests for printed-QR activation.
type ActivationHandler struct {
	service  *services.ActivationService
	validate *validator.Validate
}

// NewActivationHandler creates a new ActivationHandler.
func NewActivationHandler(service *services.ActivationService) *ActivationHandler {
	return &ActivationHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the activation routes with the Fiber app.
func (h *ActivationHandler) RegisterRoutes(router fiber.Router) {
	activationRoutes := router.Group("/activation")
	activationRoutes.Post("/validate", h.HandleValidate)
	activationRoutes.Post("/activate", h.HandleActivate)
}

type validateCodeRequest struct {
	ActivationCode string `json:"activation_code" validate:"required"`
	ShirtID        string `json:"shirt_id" validate:"required"`
}

type activateRequest struct {
	ActivationCode string `json:"activation_code" validate:"required"`
	ShirtID        string `json:"shirt_id" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
}

// HandleValidate checks an activation code before the buyer fills in
// account details.
func (h *ActivationHandler) HandleValidate(c *fiber.Ctx) error {
	var req validateCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "activation_code and shirt_id are required",
			"error":   err.Error(),
		})
	}

	if err := h.service.ValidateCode(req.ActivationCode, req.ShirtID); err != nil {
		if errors.Is(err, services.ErrActivationNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Activation code not found or shirt not purchased yet",
			})
		}
		log.Printf("Error validating activation code: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not validate activation code",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "valid"})
}

// HandleActivate claims the shirt and creates the wearer account.
func (h *ActivationHandler) HandleActivate(c *fiber.Ctx) error {
	var req activateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Activation request failed validation",
			"error":   err.Error(),
		})
	}

	if err := h.service.Activate(req.ActivationCode, req.ShirtID, req.Email, req.Password); err != nil {
		if errors.Is(err, services.ErrActivationNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Activation code not found or shirt not purchased yet",
			})
		}
		log.Printf("Error activating shirt %s: %v", req.ShirtID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not activate shirt",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "created"})
}
