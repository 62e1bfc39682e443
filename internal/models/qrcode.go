package models

import "gorm.io/gorm"

// QRCode is one printed QR code. A code is created when a paid order is sent
// to fulfillment (purchased=true) and later claimed by a wearer through the
// activation flow (activated=true, UserID set).
type QRCode struct {
	ID             string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber    string  `json:"order_number" gorm:"index;type:varchar(48)"`
	ShirtID        string  `json:"shirt_id" gorm:"index;type:varchar(16)"`
	URLCode        string  `json:"url_code" gorm:"uniqueIndex;type:varchar(16)"`
	ActivationCode string  `json:"activation_code" gorm:"index;type:varchar(16)"`
	Purchased      bool    `json:"purchased"`
	Activated      bool    `json:"activated"`
	UserID         *string `json:"user_id" gorm:"type:varchar(36)"`
	gorm.Model     // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
