package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/food-storefront/models"
)

// Catalog serves the menu.
type Catalog interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListItems(ctx context.Context) ([]models.MenuItem, error)
	GetItemOptions(ctx context.Context, itemID uint) (*models.ItemOptions, error)
}

// Delivery serves postal codes, addresses and per-area minimum order values.
type Delivery interface {
	ListPostalCodes(ctx context.Context) ([]models.PostalCodeEntry, error)
	ListAddresses(ctx context.Context, postcodeID uint) ([]models.Address, error)
	GetMinimumOrderValue(ctx context.Context, postalCode string) (decimal.Decimal, error)
}

type CouponValidator interface {
	Validate(ctx context.Context, code, email string, items []models.LineItem) (*models.CouponApplication, error)
}

// PaymentGateway accepts orders. Card orders come back with a redirect URL,
// cash orders with order details.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, order *models.CheckoutOrder) (*models.CheckoutSession, error)
	ConfirmSession(ctx context.Context, sessionID string) (*models.OrderDetails, error)
	CancelSession(ctx context.Context, sessionID string) error
}

// Publisher receives storefront events for a session.
type Publisher interface {
	Publish(sessionKey string, event string, data interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, string, interface{}) {}

// Storefront event names.
const (
	EventBasketUpdated    = "basket_updated"
	EventCouponApplied    = "coupon_applied"
	EventCouponRemoved    = "coupon_removed"
	EventCouponDropped    = "coupon_invalidated"
	EventCheckoutRedirect = "checkout_redirect"
	EventOrderConfirmed   = "order_confirmed"
	EventPaymentCancelled = "payment_cancelled"
)
