package models

import "gorm.io/gorm"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending" // created, awaiting payment
	OrderStatusPaid    OrderStatus = "paid"    // payment confirmed by the provider
	OrderStatusFailed  OrderStatus = "failed"  // payment declined or abandoned
)

// Order represents a customer order. All monetary fields are integer cents.
type Order struct {
	ID              string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber     string      `json:"order_number" gorm:"uniqueIndex;type:varchar(48)"`
	Email           string      `json:"email" gorm:"index;type:varchar(255)"`
	FirstName       string      `json:"first_name" gorm:"type:varchar(100)"`
	LastName        string      `json:"last_name" gorm:"type:varchar(100)"`
	Address         string      `json:"address" gorm:"type:varchar(255)"`
	City            string      `json:"city" gorm:"type:varchar(100)"`
	State           string      `json:"state" gorm:"type:varchar(2)"`
	ZipCode         string      `json:"zip_code" gorm:"type:varchar(20)"`
	Country         string      `json:"country" gorm:"type:varchar(2)"`
	Phone           string      `json:"phone" gorm:"type:varchar(30)"`
	ShippingMethod  string      `json:"shipping_method" gorm:"type:varchar(20)"`
	Subtotal        int64       `json:"subtotal"`
	Shipping        int64       `json:"shipping"`
	Tax             int64       `json:"tax"`
	TaxRateBP       int64       `json:"tax_rate_bp"` // basis points, e.g. 625 = 6.25%
	Total           int64       `json:"total"`
	PaymentIntentID string      `json:"payment_intent_id" gorm:"uniqueIndex;type:varchar(255)"`
	Status          OrderStatus `json:"status" gorm:"index;type:varchar(20)"`
	QRGenerated     bool        `json:"qr_generated"`
	Items           []OrderItem `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	gorm.Model      // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// OrderItem is a single line of an order. Product and variant identity plus
// the unit price are snapshotted at order time, so later catalog changes
// never alter a recorded order.
type OrderItem struct {
	ID           string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID      string  `json:"order_id" gorm:"index;type:varchar(36)"`
	ProductID    string  `json:"product_id" gorm:"type:varchar(64)"`
	ProductTitle string  `json:"product_title" gorm:"type:varchar(255)"`
	VariantID    string  `json:"variant_id" gorm:"type:varchar(64)"`
	VariantTitle string  `json:"variant_title" gorm:"type:varchar(255)"`
	Price        int64   `json:"price"` // unit price in cents at order time
	Quantity     int     `json:"quantity"`
	QRCodeID     *string `json:"qr_code_id" gorm:"type:varchar(36)"`
	gorm.Model   // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
