package models

// CartLine is a client-submitted cart line. The claimed price is verified
// against the partner catalog before it is trusted.
type CartLine struct {
	ProductID    string `json:"product_id" validate:"required"`
	ProductTitle string `json:"product_title" validate:"required,max=255"`
	VariantID    string `json:"variant_id" validate:"required"`
	VariantTitle string `json:"variant_title" validate:"omitempty,max=255"`
	Price        int64  `json:"price" validate:"required,gt=0"` // claimed unit price, cents
	Quantity     int    `json:"quantity" validate:"required,min=1"`
}

// ShippingAddress is the recipient of an order.
type ShippingAddress struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Address   string `json:"address" validate:"required,max=255"`
	City      string `json:"city" validate:"required,max=100"`
	State     string `json:"state" validate:"required,len=2"`
	ZipCode   string `json:"zip_code" validate:"required,max=20"`
	Country   string `json:"country" validate:"required,len=2"`
	Phone     string `json:"phone" validate:"omitempty,max=30"`
}

// CheckoutRequest is the body of POST /checkout/create-payment-intent.
type CheckoutRequest struct {
	Items          []CartLine      `json:"items" validate:"required,min=1,dive"`
	Address        ShippingAddress `json:"address" validate:"required"`
	ShippingMethod string          `json:"shipping_method" validate:"required,oneof=standard express"`
}

// CheckoutResponse is what the storefront needs to complete payment.
type CheckoutResponse struct {
	ClientSecret string `json:"client_secret"`
	OrderNumber  string `json:"order_number"`
}
