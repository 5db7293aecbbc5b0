package models

import "time"

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCash PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodCash
}

// CheckoutSession is the payment collaborator's answer to an order. Card
// payments carry a RedirectURL, cash payments carry Details.
type CheckoutSession struct {
	SessionID   string        `json:"session_id,omitempty"`
	RedirectURL string        `json:"redirect_url,omitempty"`
	OrderID     string        `json:"order_id,omitempty"`
	OrderNumber string        `json:"order_number,omitempty"`
	Details     *OrderDetails `json:"details,omitempty"`
}

// PendingPayment tracks a card session between redirect and confirmation.
type PendingPayment struct {
	SessionKey string    `json:"session_key"`
	SessionID  string    `json:"session_id"`
	Status     string    `json:"status"`
	Attempts   int       `json:"attempts"`
	CreatedAt  time.Time `json:"created_at"`
}
