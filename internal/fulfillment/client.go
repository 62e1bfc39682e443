// Package fulfillment wraps the print-on-demand partner: the variant catalog
// that prices are verified against, shipping quotes, and print-order
// submission with generated QR artwork.
package fulfillment

import "context"

// Variant is a purchasable configuration (size/color) of a catalog product.
type Variant struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ProductID    string `json:"product_id"`
	ProductTitle string `json:"product_title"`
	Price        int64  `json:"price"` // cents
}

// Recipient is the shipping destination of a print order.
type Recipient struct {
	Name        string `json:"name"`
	Address1    string `json:"address1"`
	City        string `json:"city"`
	StateCode   string `json:"state_code"`
	CountryCode string `json:"country_code"`
	Zip         string `json:"zip"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

// LineItem is one line of a shipping quote or print order.
type LineItem struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// ShippingRates carries the partner's quote per shipping method, in cents.
type ShippingRates struct {
	Standard int64 `json:"standard"`
	Express  int64 `json:"express"`
}

// PrintFile is one piece of artwork attached to a print order.
type PrintFile struct {
	Name     string `json:"name"`
	Contents []byte `json:"contents"` // PNG bytes
}

// PrintOrder is a submission to the partner.
type PrintOrder struct {
	ExternalID string      `json:"external_id"` // our order number
	Recipient  Recipient   `json:"recipient"`
	Items      []LineItem  `json:"items"`
	Files      []PrintFile `json:"files"`
}

// Receipt is the partner's acknowledgment of a submitted order.
type Receipt struct {
	PartnerOrderID string `json:"partner_order_id"`
	ExternalID     string `json:"external_id"`
	Status         string `json:"status"`
}

// Client is the fulfillment-partner boundary.
type Client interface {
	// Variants returns the current catalog. This is the authoritative
	// price source for checkout verification.
	Variants(ctx context.Context) ([]Variant, error)
	// ShippingRates quotes shipping for the given recipient and lines.
	ShippingRates(ctx context.Context, recipient Recipient, items []LineItem) (*ShippingRates, error)
	// SubmitOrder sends a paid order to production.
	SubmitOrder(ctx context.Context, order PrintOrder) (*Receipt, error)
}
