package models

import (
	"time"

	"gorm.io/datatypes"
)

// StoredState is the persisted storefront state of one customer session.
type StoredState struct {
	SessionKey       string         `gorm:"primaryKey;type:varchar(64)" json:"session_key"`
	Basket           datatypes.JSON `json:"basket"`
	Revision         uint64         `gorm:"not null;default:0" json:"revision"`
	Coupon           datatypes.JSON `json:"coupon"`
	CheckoutData     datatypes.JSON `json:"checkout_data"`
	PaymentMethod    string         `gorm:"type:varchar(20)" json:"payment_method"`
	OrderMethod      string         `gorm:"type:varchar(20)" json:"order_method"`
	PendingSessionID string         `gorm:"type:varchar(255);index" json:"pending_session_id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
