package services

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/food-storefront/models"
)

type CouponState string

const (
	CouponStateNone       CouponState = "none"
	CouponStateValidating CouponState = "validating"
	CouponStateApplied    CouponState = "applied"
)

const NoticeBasketChanged = "basket changed, discount removed"

var ErrCouponStale = errors.New("basket changed while the coupon was being checked")

// CouponTicket identifies one in-flight validation.
type CouponTicket struct {
	Code     string
	Email    string
	Revision uint64
	seq      uint64
}

// CouponMachine tracks the coupon lifecycle of one basket. An applied coupon
// is bound to the basket revision it was applied at and is dropped as soon as
// the basket moves past it.
type CouponMachine struct {
	state           CouponState
	applied         *models.CouponApplication
	appliedRevision uint64
	pending         *CouponTicket
	seq             uint64
	notice          string
}

func NewCouponMachine() *CouponMachine {
	return &CouponMachine{state: CouponStateNone}
}

func (m *CouponMachine) State() CouponState {
	return m.state
}

func (m *CouponMachine) Applied() *models.CouponApplication {
	if m.applied == nil {
		return nil
	}
	c := *m.applied
	return &c
}

func (m *CouponMachine) AppliedRevision() uint64 {
	return m.appliedRevision
}

// Notice is the last user-facing message raised by an automatic transition.
func (m *CouponMachine) Notice() string {
	return m.notice
}

func (m *CouponMachine) DismissNotice() {
	m.notice = ""
}

// BeginValidation moves to Validating. The returned ticket must be handed back
// to CompleteValidation together with the collaborator's answer.
func (m *CouponMachine) BeginValidation(code, email string, basket *Basket) (CouponTicket, error) {
	code = strings.TrimSpace(code)
	email = strings.TrimSpace(email)

	if code == "" {
		return CouponTicket{}, &ValidationError{Field: "coupon_code", Message: "please enter a coupon code"}
	}
	if email == "" {
		return CouponTicket{}, &ValidationError{Field: "email", Message: "email is required to apply a coupon"}
	}
	switch m.state {
	case CouponStateApplied:
		return CouponTicket{}, ErrCouponAlreadyApplied
	case CouponStateValidating:
		return CouponTicket{}, ErrCouponBusy
	}
	if basket.IsEmpty() {
		return CouponTicket{}, &ValidationError{Field: "basket", Message: "your basket is empty"}
	}

	m.seq++
	ticket := CouponTicket{Code: code, Email: email, Revision: basket.Revision(), seq: m.seq}
	m.pending = &ticket
	m.state = CouponStateValidating
	m.notice = ""
	return ticket, nil
}

// CompleteValidation settles a validation. Failures and answers for a basket
// that changed in the meantime leave the machine without a coupon.
func (m *CouponMachine) CompleteValidation(ticket CouponTicket, result *models.CouponApplication, err error, basket *Basket) error {
	if m.pending == nil || m.pending.seq != ticket.seq {
		return ErrCouponStale
	}
	m.pending = nil
	m.state = CouponStateNone

	if err != nil {
		return WrapCollaboratorError("validate coupon", err)
	}
	if basket.Revision() != ticket.Revision {
		return ErrCouponStale
	}
	if result == nil || !result.DiscountRatio.IsPositive() || result.DiscountRatio.GreaterThan(decimal.NewFromInt(1)) {
		return &CollaboratorError{Op: "validate coupon", Message: "coupon service returned an invalid discount"}
	}

	basket.ApplyDiscount(result.DiscountRatio)
	applied := *result
	applied.Code = ticket.Code
	m.applied = &applied
	m.appliedRevision = basket.Revision()
	m.state = CouponStateApplied
	return nil
}

// Sync drops an applied coupon whose basket revision is no longer current.
// It reports whether the coupon was dropped.
func (m *CouponMachine) Sync(basket *Basket) bool {
	if m.state != CouponStateApplied || basket.Revision() == m.appliedRevision {
		return false
	}
	m.applied = nil
	m.state = CouponStateNone
	m.notice = NoticeBasketChanged
	basket.ClearDiscounts()
	return true
}

// Remove drops the coupon on request.
func (m *CouponMachine) Remove(basket *Basket) {
	m.applied = nil
	m.pending = nil
	m.state = CouponStateNone
	m.notice = ""
	basket.ClearDiscounts()
}

// Restore reinstates a persisted coupon. A revision mismatch is resolved by the
// next Sync.
func (m *CouponMachine) Restore(applied *models.CouponApplication, revision uint64) {
	if applied == nil {
		m.applied = nil
		m.state = CouponStateNone
		return
	}
	c := *applied
	m.applied = &c
	m.appliedRevision = revision
	m.state = CouponStateApplied
}
