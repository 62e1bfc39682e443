package services

import (
	"fmt"
	"strings"

	"qrific/internal/email"
	"qrific/internal/models"
)

// NotificationService composes and sends order confirmation mail to the
// customer and the store operator.
type NotificationService struct {
	sender     email.Sender
	adminEmail string
	storeName  string
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(sender email.Sender, adminEmail, storeName string) *NotificationService {
	return &NotificationService{
		sender:     sender,
		adminEmail: adminEmail,
		storeName:  storeName,
	}
}

// NotifyCustomer sends the order confirmation to the buyer.
func (s *NotificationService) NotifyCustomer(order *models.Order) error {
	subject := fmt.Sprintf("Order Confirmation - %s", order.OrderNumber)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", order.FirstName)
	fmt.Fprintf(&b, "Thanks for your order! Your payment for order %s has been received.\n\n", order.OrderNumber)
	writeOrderSummary(&b, order)
	fmt.Fprintf(&b, "\nShipping to:\n%s %s\n%s\n%s, %s %s\n%s\n",
		order.FirstName, order.LastName, order.Address, order.City, order.State, order.ZipCode, order.Country)
	fmt.Fprintf(&b, "\nYour shirts will ship via %s delivery. Scan the QR code on the tag to activate your shirt once it arrives.\n\n%s\n",
		order.ShippingMethod, s.storeName)

	return s.sender.Send(order.Email, subject, b.String())
}

// NotifyAdmin tells the store operator about a freshly paid order.
func (s *NotificationService) NotifyAdmin(order *models.Order) error {
	subject := fmt.Sprintf("New paid order %s", order.OrderNumber)

	var b strings.Builder
	fmt.Fprintf(&b, "Order %s was paid by %s (%s).\n\n", order.OrderNumber, order.FirstName+" "+order.LastName, order.Email)
	writeOrderSummary(&b, order)

	return s.sender.Send(s.adminEmail, subject, b.String())
}

func writeOrderSummary(b *strings.Builder, order *models.Order) {
	for _, item := range order.Items {
		fmt.Fprintf(b, "%dx %s (%s) - $%s each\n",
			item.Quantity, item.ProductTitle, item.VariantTitle, formatPrice(item.Price))
	}
	fmt.Fprintf(b, "\nSubtotal: $%s\n", formatPrice(order.Subtotal))
	fmt.Fprintf(b, "Shipping: $%s\n", formatPrice(order.Shipping))
	fmt.Fprintf(b, "Tax: $%s\n", formatPrice(order.Tax))
	fmt.Fprintf(b, "Total: $%s\n", formatPrice(order.Total))
}

// formatPrice renders integer cents as a dollar string.
func formatPrice(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
