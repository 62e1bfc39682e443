package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"qrific/internal/fulfillment"
	"qrific/internal/models"
	"qrific/internal/payment"
	"qrific/internal/repositories"
	"qrific/pkg/events"
)

// createRetries bounds how often a checkout re-inserts after the order-number
// unique index rejects a candidate that passed the pre-check.
const createRetries = 3

// CheckoutService orchestrates the order lifecycle: server-side price
// verification, payment-intent creation, pending-order persistence, and
// webhook-driven confirmation with fulfillment and notification dispatch.
type CheckoutService struct {
	orderRepo     repositories.OrderRepository
	orderNumbers  *OrderNumberGenerator
	gateway       payment.Gateway
	partner       fulfillment.Client
	fulfiller     *FulfillmentService
	notifier      *NotificationService
	mqClient      *events.Client
	webhookSecret string
	taxPolicy     TaxPolicy
}

// NewCheckoutService creates a new CheckoutService. The fulfiller, notifier
// and mqClient may be nil; their dispatch is best-effort either way.
func NewCheckoutService(
	orderRepo repositories.OrderRepository,
	gateway payment.Gateway,
	partner fulfillment.Client,
	fulfiller *FulfillmentService,
	notifier *NotificationService,
	mqClient *events.Client,
	webhookSecret string,
	taxPolicy TaxPolicy,
) *CheckoutService {
	return &CheckoutService{
		orderRepo:     orderRepo,
		orderNumbers:  NewOrderNumberGenerator(orderRepo),
		gateway:       gateway,
		partner:       partner,
		fulfiller:     fulfiller,
		notifier:      notifier,
		mqClient:      mqClient,
		webhookSecret: webhookSecret,
		taxPolicy:     taxPolicy,
	}
}

// CreatePaymentIntent verifies the cart server-side, registers a payment
// intent for the verified total, and persists the pending order with its
// items atomically. No order row exists if verification or intent creation
// fails; if the local write fails after the intent was created, the orphaned
// intent is left for the webhook's order-not-found path and the
// reconciliation worker.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutResponse, error) {
	pricing, items, err := s.verifyPricing(ctx, req)
	if err != nil {
		return nil, err
	}

	orderNumber, err := s.orderNumbers.Generate()
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreateIntent(ctx, pricing.Total, "usd", map[string]string{
		"order_number": orderNumber,
		"tax_region":   pricing.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create payment intent: %v", ErrPartnerUnavailable, err)
	}

	order := &models.Order{
		OrderNumber:     orderNumber,
		Email:           req.Address.Email,
		FirstName:       req.Address.FirstName,
		LastName:        req.Address.LastName,
		Address:         req.Address.Address,
		City:            req.Address.City,
		State:           req.Address.State,
		ZipCode:         req.Address.ZipCode,
		Country:         req.Address.Country,
		Phone:           req.Address.Phone,
		ShippingMethod:  req.ShippingMethod,
		Subtotal:        pricing.Subtotal,
		Shipping:        pricing.Shipping,
		Tax:             pricing.Tax,
		TaxRateBP:       pricing.TaxRateBP,
		Total:           pricing.Total,
		PaymentIntentID: intent.ID,
		Status:          models.OrderStatusPending,
		Items:           items,
	}

	// The unique index is the real uniqueness guard; a collision that
	// slipped past the generator's pre-check surfaces here and we retry
	// with a fresh number. The intent's order_number metadata goes stale
	// when that happens; reconciliation is keyed on the intent id, never
	// the metadata.
	for attempt := 0; ; attempt++ {
		err = s.orderRepo.Create(order)
		if err == nil {
			break
		}
		if !errors.Is(err, repositories.ErrDuplicateOrderNumber) || attempt >= createRetries {
			return nil, fmt.Errorf("failed to persist order %s: %w", order.OrderNumber, err)
		}
		fresh, genErr := s.orderNumbers.Generate()
		if genErr != nil {
			return nil, genErr
		}
		log.Printf("Order number %s collided on insert, retrying as %s", order.OrderNumber, fresh)
		order.OrderNumber = fresh
	}

	s.publishEvent(events.OrderCreated, order)

	return &models.CheckoutResponse{
		ClientSecret: intent.ClientSecret,
		OrderNumber:  order.OrderNumber,
	}, nil
}

// HandleWebhook processes a signed provider event. Signature failures are
// the only error surfaced to the caller; everything after verification is
// acknowledged so the provider does not redeliver, with internal failures
// logged for operator follow-up.
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	if err := payment.VerifySignature(payload, signatureHeader, s.webhookSecret, payment.DefaultSignatureTolerance); err != nil {
		return err
	}

	event, err := payment.ParseEvent(payload)
	if err != nil {
		log.Printf("Webhook payload authenticated but undecodable: %v", err)
		return nil
	}

	switch event.Type {
	case payment.EventPaymentSucceeded:
		if err := s.FinalizeIntent(ctx, event.Data.Object.ID, true); err != nil {
			log.Printf("Failed to finalize succeeded intent %s: %v", event.Data.Object.ID, err)
		}
	case payment.EventPaymentFailed:
		if err := s.FinalizeIntent(ctx, event.Data.Object.ID, false); err != nil {
			log.Printf("Failed to finalize failed intent %s: %v", event.Data.Object.ID, err)
		}
	default:
		log.Printf("Ignoring webhook event type %s", event.Type)
	}
	return nil
}

// FinalizeIntent applies the payment outcome to the matching order. The
// status transition is a conditional update that succeeds exactly once, and
// side effects are gated on winning that update, so at-least-once webhook
// delivery yields at-most-once fulfillment and notification.
func (s *CheckoutService) FinalizeIntent(ctx context.Context, intentID string, succeeded bool) error {
	order, err := s.orderRepo.GetByPaymentIntentID(intentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Known reconciliation gap: the intent was created but the
			// local write never landed. Nothing to retry.
			return fmt.Errorf("%w: payment intent %s", ErrOrderNotFound, intentID)
		}
		return err
	}

	if !succeeded {
		changed, err := s.orderRepo.MarkFailed(order.ID)
		if err != nil {
			return err
		}
		if changed {
			order.Status = models.OrderStatusFailed
			s.publishEvent(events.OrderFailed, order)
		}
		return nil
	}

	first, err := s.orderRepo.MarkPaid(order.ID)
	if err != nil {
		return err
	}
	if !first {
		log.Printf("Order %s already left pending, skipping side effects", order.OrderNumber)
		return nil
	}
	order.Status = models.OrderStatusPaid

	s.dispatchPaidSideEffects(ctx, order)
	return nil
}

// dispatchPaidSideEffects runs fulfillment and notifications for a freshly
// paid order. Each effect is isolated: the payment genuinely succeeded, so a
// flaky partner or mail server must never roll the confirmation back.
func (s *CheckoutService) dispatchPaidSideEffects(ctx context.Context, order *models.Order) {
	if s.fulfiller != nil {
		if err := s.fulfiller.Dispatch(ctx, order); err != nil {
			log.Printf("Warning: fulfillment dispatch failed for order %s: %v", order.OrderNumber, err)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyCustomer(order); err != nil {
			log.Printf("Warning: customer notification failed for order %s: %v", order.OrderNumber, err)
		}
		if err := s.notifier.NotifyAdmin(order); err != nil {
			log.Printf("Warning: admin notification failed for order %s: %v", order.OrderNumber, err)
		}
	}
	s.publishEvent(events.OrderPaid, order)
}

// GetOrderByPaymentIntent returns the order linked to a payment intent.
func (s *CheckoutService) GetOrderByPaymentIntent(paymentIntentID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByPaymentIntentID(paymentIntentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: payment intent %s", ErrOrderNotFound, paymentIntentID)
		}
		return nil, err
	}
	return order, nil
}

// GetOrderByNumber returns the order with the given human-facing number.
func (s *CheckoutService) GetOrderByNumber(orderNumber string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNumber(orderNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderNumber)
		}
		return nil, err
	}
	return order, nil
}

// GetOrderStatus returns the order matching a customer email and number.
func (s *CheckoutService) GetOrderStatus(email, orderNumber string) (*models.Order, error) {
	order, err := s.orderRepo.GetByEmailAndNumber(email, orderNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderNumber)
		}
		return nil, err
	}
	return order, nil
}

// GetAllOrders retrieves all orders, newest first.
func (s *CheckoutService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// publishEvent emits an order-lifecycle event to the broker, best-effort.
func (s *CheckoutService) publishEvent(eventType string, order *models.Order) {
	if s.mqClient == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"order_number": order.OrderNumber,
		"status":       order.Status,
		"email":        order.Email,
		"total":        order.Total,
	})
	if err != nil {
		log.Printf("Failed to marshal %s event for order %s: %v", eventType, order.OrderNumber, err)
		return
	}
	if err := s.mqClient.Publish(eventType, body); err != nil {
		log.Printf("Warning: failed to publish %s event for order %s: %v", eventType, order.OrderNumber, err)
	}
}
