// Package worker closes the gap between the local store and the payment
// provider: orders stuck in pending (missed webhook, or a local write that
// raced a provider-side settle) are re-checked against the provider and
// finalized through the same idempotent transition path the webhook uses.
package worker

import (
	"context"
	"log"
	"time"

	"qrific/internal/payment"
	"qrific/internal/repositories"
	"qrific/internal/services"
)

// ReconciliationWorker periodically finalizes stale pending orders.
type ReconciliationWorker struct {
	orderRepo repositories.OrderRepository
	gateway   payment.Gateway
	checkout  *services.CheckoutService
	interval  time.Duration
	staleness time.Duration
}

// NewReconciliationWorker creates a worker that every interval re-checks
// pending orders older than staleness.
func NewReconciliationWorker(
	orderRepo repositories.OrderRepository,
	gateway payment.Gateway,
	checkout *services.CheckoutService,
	interval time.Duration,
	staleness time.Duration,
) *ReconciliationWorker {
	return &ReconciliationWorker{
		orderRepo: orderRepo,
		gateway:   gateway,
		checkout:  checkout,
		interval:  interval,
		staleness: staleness,
	}
}

// Run blocks until the context is cancelled.
func (w *ReconciliationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Println("Reconciliation worker started")

	for {
		select {
		case <-ctx.Done():
			log.Println("Reconciliation worker stopped")
			return
		case <-ticker.C:
			if err := w.process(ctx); err != nil {
				log.Printf("Reconciliation pass failed: %v", err)
			}
		}
	}
}

// process finalizes every stale pending order according to the provider's
// view of its intent. The provider is the source of truth here.
func (w *ReconciliationWorker) process(ctx context.Context) error {
	stuck, err := w.orderRepo.FindStalePending(w.staleness)
	if err != nil {
		return err
	}
	if len(stuck) == 0 {
		return nil
	}

	log.Printf("Reconciling %d stale pending orders", len(stuck))

	for i := range stuck {
		order := &stuck[i]
		status, err := w.gateway.IntentStatus(ctx, order.PaymentIntentID)
		if err != nil {
			log.Printf("Failed to check intent %s for order %s: %v", order.PaymentIntentID, order.OrderNumber, err)
			continue // leave it for the next pass
		}

		switch status {
		case payment.IntentStatusSucceeded:
			log.Printf("Order %s settled provider-side, finalizing as paid", order.OrderNumber)
			if err := w.checkout.FinalizeIntent(ctx, order.PaymentIntentID, true); err != nil {
				log.Printf("Failed to finalize order %s: %v", order.OrderNumber, err)
			}
		case payment.IntentStatusFailed:
			log.Printf("Order %s failed provider-side, finalizing as failed", order.OrderNumber)
			if err := w.checkout.FinalizeIntent(ctx, order.PaymentIntentID, false); err != nil {
				log.Printf("Failed to finalize order %s: %v", order.OrderNumber, err)
			}
		default:
			// Still in flight at the provider; check again next pass.
		}
	}
	return nil
}
