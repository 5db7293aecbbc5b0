package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/food-storefront/models"
	"github.com/yeremiapane/food-storefront/utils"
)

// CheckoutAssembler validates a checkout and hands the order to the payment
// collaborator.
type CheckoutAssembler struct {
	delivery Delivery
	gateway  PaymentGateway
	now      func() time.Time
}

func NewCheckoutAssembler(delivery Delivery, gateway PaymentGateway) *CheckoutAssembler {
	return &CheckoutAssembler{delivery: delivery, gateway: gateway, now: time.Now}
}

func requireField(field, value, label string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: label + " is required"}
	}
	return nil
}

// Assemble validates in a fixed order and stops at the first failure: the
// basket must not be empty, contact fields must be filled, and delivery orders
// need an address and must reach the area's minimum order value before
// discounts.
func (a *CheckoutAssembler) Assemble(ctx context.Context, items []models.LineItem, form models.CheckoutForm, payment models.PaymentMethod) (*models.CheckoutOrder, error) {
	if len(items) == 0 {
		return nil, &ValidationError{Field: "basket", Message: "your basket is empty"}
	}

	ci := form.Customer
	for _, f := range []struct{ field, value, label string }{
		{"first_name", ci.FirstName, "first name"},
		{"last_name", ci.LastName, "last name"},
		{"email", ci.Email, "email"},
		{"phone", ci.Phone, "phone"},
	} {
		if err := requireField(f.field, f.value, f.label); err != nil {
			return nil, err
		}
	}
	if !form.OrderMethod.Valid() {
		return nil, &ValidationError{Field: "order_method", Message: "choose delivery or self collection"}
	}
	if !payment.Valid() {
		return nil, &ValidationError{Field: "payment_method", Message: "choose card or cash"}
	}

	snapshot := NewBasket()
	snapshot.Restore(items, 0)

	if form.OrderMethod == models.OrderMethodDelivery {
		for _, f := range []struct{ field, value, label string }{
			{"postal_code", ci.PostalCode, "postal code"},
			{"street", ci.Street, "street"},
			{"house", ci.House, "house number"},
		} {
			if err := requireField(f.field, f.value, f.label); err != nil {
				return nil, err
			}
		}

		minimum, err := a.delivery.GetMinimumOrderValue(ctx, ci.PostalCode)
		if err != nil {
			return nil, WrapCollaboratorError("minimum order lookup", err)
		}
		if minimum.IsPositive() && snapshot.OriginalSubtotal().LessThan(minimum) {
			return nil, &BusinessRuleError{
				Rule:    RuleMinimumOrder,
				Field:   "postal_code",
				Message: fmt.Sprintf("minimum order value for %s is %s", ci.PostalCode, utils.FormatEUR(minimum)),
			}
		}
	} else {
		ci.PostalCode, ci.Street, ci.House = "", "", ""
		ci.Stairs, ci.Stick, ci.Door, ci.Bell = "", "", "", ""
	}

	return &models.CheckoutOrder{
		Customer:      ci,
		OrderMethod:   form.OrderMethod,
		PaymentMethod: payment,
		Items:         snapshot.Items(),
		Total:         snapshot.Subtotal(),
		OriginalTotal: snapshot.OriginalSubtotal(),
		HasDiscount:   snapshot.HasDiscount(),
		CreatedAt:     a.now(),
	}, nil
}

// Submit sends an assembled order. Card orders must come back with a redirect
// URL and cash orders with order details.
func (a *CheckoutAssembler) Submit(ctx context.Context, order *models.CheckoutOrder) (*models.CheckoutSession, error) {
	session, err := a.gateway.CreateCheckoutSession(ctx, order)
	if err != nil {
		return nil, WrapCollaboratorError("create checkout session", err)
	}
	if session == nil {
		return nil, &CollaboratorError{Op: "create checkout session", Message: "no response received from the order service"}
	}

	switch order.PaymentMethod {
	case models.PaymentMethodCard:
		if session.RedirectURL == "" {
			return nil, &CollaboratorError{Op: "create checkout session", Message: "no payment page URL received"}
		}
	case models.PaymentMethodCash:
		if session.Details == nil {
			return nil, &CollaboratorError{Op: "create cash order", Message: "no order details received"}
		}
		session.Details.Total = order.Total
		session.Details.OriginalTotal = order.OriginalTotal
		session.Details.DiscountCoupon = order.HasDiscount
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"payment_method": order.PaymentMethod,
		"order_method":   order.OrderMethod,
		"total":          order.Total.StringFixed(2),
		"order_id":       session.OrderID,
	}).Info("checkout submitted")
	return session, nil
}
