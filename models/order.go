package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderMethod string

const (
	OrderMethodDelivery       OrderMethod = "delivery"
	OrderMethodSelfCollection OrderMethod = "selfCollection"
)

func (m OrderMethod) Valid() bool {
	return m == OrderMethodDelivery || m == OrderMethodSelfCollection
}

// CheckoutForm is what the customer submits, persisted so a failed payment can
// be retried without typing everything again.
type CheckoutForm struct {
	Customer    CustomerInfo `json:"customer"`
	OrderMethod OrderMethod  `json:"order_method"`
}

// CheckoutOrder is an immutable order built from a validated basket.
type CheckoutOrder struct {
	Customer      CustomerInfo    `json:"customer"`
	OrderMethod   OrderMethod     `json:"order_method"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Items         []LineItem      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	OriginalTotal decimal.Decimal `json:"original_total"`
	HasDiscount   bool            `json:"has_discount"`
	CreatedAt     time.Time       `json:"created_at"`
}

type OrderDetailLine struct {
	ID            uint             `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice decimal.Decimal  `json:"original_price"`
	Quantity      int              `json:"quantity"`
	Note          string           `json:"note,omitempty"`
	SelectedItems []SelectedOption `json:"selected_items,omitempty"`
}

// OrderDetails is the confirmation shown once an order has been accepted.
type OrderDetails struct {
	OrderID        string            `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	Status         string            `json:"status"`
	Total          decimal.Decimal   `json:"total"`
	OriginalTotal  decimal.Decimal   `json:"original_total"`
	PaymentMethod  PaymentMethod     `json:"payment_method"`
	OrderMethod    OrderMethod       `json:"order_method"`
	DiscountCoupon bool              `json:"discount_coupon"`
	CreatedAt      string            `json:"created_at,omitempty"`
	Customer       CustomerInfo      `json:"customer"`
	Items          []OrderDetailLine `json:"items"`
}
