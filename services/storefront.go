package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/food-storefront/models"
	"github.com/yeremiapane/food-storefront/utils"
)

// SessionState is the persisted part of a storefront.
type SessionState struct {
	Items            []models.LineItem
	Revision         uint64
	Coupon           *models.CouponApplication
	CouponRevision   uint64
	Checkout         *models.CheckoutForm
	PaymentMethod    models.PaymentMethod
	OrderMethod      models.OrderMethod
	PendingSessionID string
}

// StateStore keeps session state across reloads. Load returns (nil, nil) for
// an unknown session and an *IntegrityError for undecodable data.
type StateStore interface {
	Load(ctx context.Context, sessionKey string) (*SessionState, error)
	Save(ctx context.Context, sessionKey string, state *SessionState) error
	Clear(ctx context.Context, sessionKey string) error
}

type StorefrontDeps struct {
	Catalog  Catalog
	Delivery Delivery
	Coupons  CouponValidator
	Payments PaymentGateway
	Store    StateStore
	Events   Publisher

	// OnPendingPayment is told about card sessions awaiting confirmation.
	OnPendingPayment func(sessionKey, sessionID string)
}

// Storefront is the single writer of one customer's basket. Every entry point
// takes the lock; collaborator calls run without it.
type Storefront struct {
	key      string
	deps     StorefrontDeps
	checkout *CheckoutAssembler
	now      func() time.Time

	mu             sync.Mutex
	basket         *Basket
	coupon         *CouponMachine
	selection      *Selection
	form           models.CheckoutForm
	payment        models.PaymentMethod
	pendingSession string
	lastSession    string
	lastOrder      *models.OrderDetails
	submitting     bool
}

func NewStorefront(key string, deps StorefrontDeps) *Storefront {
	if deps.Events == nil {
		deps.Events = noopPublisher{}
	}
	return &Storefront{
		key:      key,
		deps:     deps,
		checkout: NewCheckoutAssembler(deps.Delivery, deps.Payments),
		now:      time.Now,
		basket:   NewBasket(),
		coupon:   NewCouponMachine(),
		form:     models.CheckoutForm{OrderMethod: models.OrderMethodDelivery},
		payment:  models.PaymentMethodCard,
	}
}

func (s *Storefront) Key() string {
	return s.key
}

// Load restores persisted state. Malformed data wipes the session and starts
// from an empty basket.
func (s *Storefront) Load(ctx context.Context) error {
	if s.deps.Store == nil {
		return nil
	}
	state, err := s.deps.Store.Load(ctx, s.key)
	if err != nil {
		var ie *IntegrityError
		if !errors.As(err, &ie) {
			return errors.Wrap(err, "load session state")
		}
		utils.ErrorLogger.WithField("session", s.key).Errorf("resetting session: %v", err)
		if err := s.deps.Store.Clear(ctx, s.key); err != nil {
			return errors.Wrap(err, "reset session state")
		}
		state = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if state == nil {
		return nil
	}

	s.basket.Restore(state.Items, state.Revision)
	s.coupon.Restore(state.Coupon, state.CouponRevision)
	if state.Checkout != nil {
		s.form = *state.Checkout
	}
	if state.OrderMethod.Valid() {
		s.form.OrderMethod = state.OrderMethod
	}
	if state.PaymentMethod.Valid() {
		s.payment = state.PaymentMethod
	}
	s.pendingSession = state.PendingSessionID
	s.coupon.Sync(s.basket)
	return nil
}

func (s *Storefront) persistLocked(ctx context.Context) {
	if s.deps.Store == nil {
		return
	}
	form := s.form
	state := &SessionState{
		Items:            s.basket.Items(),
		Revision:         s.basket.Revision(),
		Coupon:           s.coupon.Applied(),
		CouponRevision:   s.coupon.AppliedRevision(),
		Checkout:         &form,
		PaymentMethod:    s.payment,
		OrderMethod:      s.form.OrderMethod,
		PendingSessionID: s.pendingSession,
	}
	if err := s.deps.Store.Save(ctx, s.key, state); err != nil {
		utils.ErrorLogger.WithField("session", s.key).Errorf("failed to persist session: %v", err)
	}
}

// basketChangedLocked runs after every basket mutation.
func (s *Storefront) basketChangedLocked(ctx context.Context) {
	if s.coupon.Sync(s.basket) {
		utils.InfoLogger.WithField("session", s.key).Info("basket changed, coupon invalidated")
		s.deps.Events.Publish(s.key, EventCouponDropped, map[string]string{"notice": s.coupon.Notice()})
	}
	s.persistLocked(ctx)
	s.deps.Events.Publish(s.key, EventBasketUpdated, s.viewLocked())
}

// Menu lists categories in display order with their items. A non-empty query
// filters items by name or description.
func (s *Storefront) Menu(ctx context.Context, query string) ([]models.MenuSection, error) {
	categories, err := s.deps.Catalog.ListCategories(ctx)
	if err != nil {
		return nil, WrapCollaboratorError("list categories", err)
	}
	items, err := s.deps.Catalog.ListItems(ctx)
	if err != nil {
		return nil, WrapCollaboratorError("list items", err)
	}

	sort.SliceStable(categories, func(a, b int) bool {
		return categoryOrder(categories[a]) < categoryOrder(categories[b])
	})

	query = strings.ToLower(strings.TrimSpace(query))
	byCategory := make(map[uint][]models.MenuItem)
	for _, it := range items {
		if query != "" &&
			!strings.Contains(strings.ToLower(it.Name), query) &&
			!strings.Contains(strings.ToLower(it.Description), query) {
			continue
		}
		byCategory[it.CategoryID] = append(byCategory[it.CategoryID], it)
	}

	sections := make([]models.MenuSection, 0, len(categories))
	for _, c := range categories {
		list := byCategory[c.ID]
		if len(list) == 0 {
			continue
		}
		for i := range list {
			list[i].CategoryName = c.Name
		}
		sections = append(sections, models.MenuSection{Category: c, Items: list})
	}
	return sections, nil
}

func categoryOrder(c models.Category) int {
	if c.DisplayOrder == 0 {
		return models.DefaultCategoryOrder
	}
	return c.DisplayOrder
}

// OpenCustomization starts customizing a menu item. Any previous
// customization is discarded.
func (s *Storefront) OpenCustomization(ctx context.Context, itemID uint) (*CustomizationView, error) {
	items, err := s.deps.Catalog.ListItems(ctx)
	if err != nil {
		return nil, WrapCollaboratorError("list items", err)
	}
	var item *models.MenuItem
	for i := range items {
		if items[i].ID == itemID {
			item = &items[i]
			break
		}
	}
	if item == nil {
		return nil, errors.Wrapf(ErrUnknownItem, "item %d", itemID)
	}

	opts, err := s.deps.Catalog.GetItemOptions(ctx, itemID)
	if err != nil {
		return nil, WrapCollaboratorError("load item options", err)
	}
	if opts == nil {
		opts = &models.ItemOptions{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = NewSelection(NewOptionModel(*item, *opts))
	return s.customizationLocked(), nil
}

func (s *Storefront) CloseCustomization() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = nil
}

func (s *Storefront) Customization() (*CustomizationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return nil, ErrNoCustomization
	}
	return s.customizationLocked(), nil
}

func (s *Storefront) ToggleOption(ref models.OptionRef) (*CustomizationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return nil, ErrNoCustomization
	}
	if err := s.selection.Toggle(ref); err != nil {
		return nil, err
	}
	return s.customizationLocked(), nil
}

func (s *Storefront) AdjustOptionQuantity(ref models.OptionRef, delta int) (*CustomizationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return nil, ErrNoCustomization
	}
	if err := s.selection.Adjust(ref, delta); err != nil {
		return nil, err
	}
	return s.customizationLocked(), nil
}

func (s *Storefront) SetCustomizationQuantity(n int) (*CustomizationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return nil, ErrNoCustomization
	}
	s.selection.SetQuantity(n)
	return s.customizationLocked(), nil
}

// AddToBasket prices the current customization and adds it to the basket. A
// missing required group leaves the basket untouched.
func (s *Storefront) AddToBasket(ctx context.Context, note string) (*StorefrontView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return nil, ErrNoCustomization
	}
	if s.submitting {
		return nil, ErrCheckoutInProgress
	}

	model := s.selection.Model()
	if err := ValidateSelection(model.Groups, s.selection.Entries()); err != nil {
		return nil, err
	}

	price := PriceSelection(s.selection)
	s.basket.AddOrMerge(NewLineItem(model, price, note))
	s.selection = nil
	s.basketChangedLocked(ctx)
	return s.viewLocked(), nil
}

type basketMutation func(i int) error

func (s *Storefront) mutateBasket(ctx context.Context, i int, op basketMutation) (*StorefrontView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return nil, ErrCheckoutInProgress
	}
	before := s.basket.Revision()
	if err := op(i); err != nil {
		return nil, err
	}
	if s.basket.Revision() != before {
		s.basketChangedLocked(ctx)
	}
	return s.viewLocked(), nil
}

func (s *Storefront) IncrementBasketItem(ctx context.Context, i int) (*StorefrontView, error) {
	return s.mutateBasket(ctx, i, s.basket.Increment)
}

func (s *Storefront) DecrementBasketItem(ctx context.Context, i int) (*StorefrontView, error) {
	return s.mutateBasket(ctx, i, s.basket.Decrement)
}

func (s *Storefront) RemoveBasketItem(ctx context.Context, i int) (*StorefrontView, error) {
	return s.mutateBasket(ctx, i, s.basket.Remove)
}

// ApplyCoupon validates a code with the coupon collaborator. The email falls
// back to the one on the saved checkout form.
func (s *Storefront) ApplyCoupon(ctx context.Context, code, email string) (*StorefrontView, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrCheckoutInProgress
	}
	if strings.TrimSpace(email) == "" {
		email = s.form.Customer.Email
	}
	ticket, err := s.coupon.BeginValidation(code, email, s.basket)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	items := s.basket.Items()
	s.mu.Unlock()

	result, callErr := s.deps.Coupons.Validate(ctx, ticket.Code, ticket.Email, items)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.coupon.CompleteValidation(ticket, result, callErr, s.basket); err != nil {
		utils.InfoLogger.WithFields(logrus.Fields{"session": s.key, "code": ticket.Code}).Infof("coupon rejected: %v", err)
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"session": s.key,
		"code":    ticket.Code,
		"ratio":   result.DiscountRatio.String(),
	}).Info("coupon applied")
	s.persistLocked(ctx)
	view := s.viewLocked()
	s.deps.Events.Publish(s.key, EventCouponApplied, view)
	return view, nil
}

func (s *Storefront) RemoveCoupon(ctx context.Context) (*StorefrontView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return nil, ErrCheckoutInProgress
	}
	s.coupon.Remove(s.basket)
	s.persistLocked(ctx)
	view := s.viewLocked()
	s.deps.Events.Publish(s.key, EventCouponRemoved, view)
	return view, nil
}

func (s *Storefront) DismissNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupon.DismissNotice()
}

func (s *Storefront) SetOrderMethod(ctx context.Context, m models.OrderMethod) (*StorefrontView, error) {
	if !m.Valid() {
		return nil, &ValidationError{Field: "order_method", Message: "choose delivery or self collection"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.OrderMethod = m
	s.persistLocked(ctx)
	return s.viewLocked(), nil
}

func (s *Storefront) SetPaymentMethod(ctx context.Context, m models.PaymentMethod) (*StorefrontView, error) {
	if !m.Valid() {
		return nil, &ValidationError{Field: "payment_method", Message: "choose card or cash"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payment = m
	s.persistLocked(ctx)
	return s.viewLocked(), nil
}

// SaveCheckoutForm stores the form without submitting it.
func (s *Storefront) SaveCheckoutForm(ctx context.Context, form models.CheckoutForm) *StorefrontView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !form.OrderMethod.Valid() {
		form.OrderMethod = s.form.OrderMethod
	}
	s.form = form
	s.persistLocked(ctx)
	return s.viewLocked()
}

// CheckoutResult is the outcome of a submitted checkout.
type CheckoutResult struct {
	RedirectURL string               `json:"redirect_url,omitempty"`
	SessionID   string               `json:"session_id,omitempty"`
	Order       *models.OrderDetails `json:"order,omitempty"`
}

// SubmitCheckout validates and sends the order. The basket is frozen while the
// submission is in flight. Failures keep basket and form for a retry.
func (s *Storefront) SubmitCheckout(ctx context.Context, form models.CheckoutForm, payment models.PaymentMethod) (*CheckoutResult, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrCheckoutInProgress
	}
	if payment == "" {
		payment = s.payment
	}
	if form.OrderMethod == "" {
		form.OrderMethod = s.form.OrderMethod
	}
	s.submitting = true
	s.form = form
	if payment.Valid() {
		s.payment = payment
	}
	s.persistLocked(ctx)
	items := s.basket.Items()
	s.mu.Unlock()

	result, err := s.submit(ctx, items, form, payment)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		return nil, err
	}

	if result.Order != nil {
		s.completeOrderLocked(ctx, result.SessionID, result.Order)
		return result, nil
	}

	s.pendingSession = result.SessionID
	s.persistLocked(ctx)
	s.deps.Events.Publish(s.key, EventCheckoutRedirect, result)
	if s.deps.OnPendingPayment != nil && result.SessionID != "" {
		s.deps.OnPendingPayment(s.key, result.SessionID)
	}
	return result, nil
}

func (s *Storefront) submit(ctx context.Context, items []models.LineItem, form models.CheckoutForm, payment models.PaymentMethod) (*CheckoutResult, error) {
	order, err := s.checkout.Assemble(ctx, items, form, payment)
	if err != nil {
		return nil, err
	}
	session, err := s.checkout.Submit(ctx, order)
	if err != nil {
		return nil, err
	}

	if payment == models.PaymentMethodCash {
		id := session.SessionID
		if id == "" {
			id = session.Details.OrderID
		}
		return &CheckoutResult{SessionID: id, Order: session.Details}, nil
	}
	return &CheckoutResult{RedirectURL: session.RedirectURL, SessionID: session.SessionID}, nil
}

// completeOrderLocked wipes the basket and all stored checkout data.
func (s *Storefront) completeOrderLocked(ctx context.Context, sessionID string, details *models.OrderDetails) {
	s.basket.Clear()
	s.coupon.Remove(s.basket)
	s.selection = nil
	s.form = models.CheckoutForm{OrderMethod: s.form.OrderMethod}
	s.pendingSession = ""
	s.lastSession = sessionID
	s.lastOrder = details

	if s.deps.Store != nil {
		if err := s.deps.Store.Clear(ctx, s.key); err != nil {
			utils.ErrorLogger.WithField("session", s.key).Errorf("failed to clear session: %v", err)
		}
	}
	utils.InfoLogger.WithFields(logrus.Fields{"session": s.key, "order": details.OrderNumber}).Info("order confirmed")
	s.deps.Events.Publish(s.key, EventOrderConfirmed, details)
}

// ConfirmPayment settles a card session after the payment provider redirected
// back. An empty id confirms the pending session.
func (s *Storefront) ConfirmPayment(ctx context.Context, sessionID string) (*models.OrderDetails, error) {
	s.mu.Lock()
	if sessionID == "" {
		sessionID = s.pendingSession
	}
	switch {
	case sessionID == "":
		s.mu.Unlock()
		return nil, ErrUnknownSession
	case sessionID == s.lastSession && s.lastOrder != nil:
		details := s.lastOrder
		s.mu.Unlock()
		return details, nil
	case s.pendingSession != "" && sessionID != s.pendingSession:
		s.mu.Unlock()
		return nil, ErrUnknownSession
	}
	s.mu.Unlock()

	details, err := s.deps.Payments.ConfirmSession(ctx, sessionID)
	if err != nil {
		return nil, WrapCollaboratorError("confirm payment", err)
	}
	if details == nil {
		return nil, &CollaboratorError{Op: "confirm payment", Message: "no order details received"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sessionID == s.lastSession && s.lastOrder != nil {
		return s.lastOrder, nil
	}
	s.completeOrderLocked(ctx, sessionID, details)
	return details, nil
}

// CancelPayment abandons a card session. Basket and form stay for a retry.
func (s *Storefront) CancelPayment(ctx context.Context, sessionID string) (*StorefrontView, error) {
	s.mu.Lock()
	if sessionID == "" {
		sessionID = s.pendingSession
	}
	s.mu.Unlock()

	var callErr error
	if sessionID != "" {
		if err := s.deps.Payments.CancelSession(ctx, sessionID); err != nil {
			utils.ErrorLogger.WithField("session", s.key).Errorf("cancel payment session: %v", err)
			callErr = WrapCollaboratorError("cancel payment", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingSession == sessionID {
		s.pendingSession = ""
	}
	s.persistLocked(ctx)
	view := s.viewLocked()
	s.deps.Events.Publish(s.key, EventPaymentCancelled, view)
	return view, callErr
}

// StartNewOrder drops everything, including stored checkout data.
func (s *Storefront) StartNewOrder(ctx context.Context) *StorefrontView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.basket.Clear()
	s.coupon.Remove(s.basket)
	s.selection = nil
	s.form = models.CheckoutForm{OrderMethod: models.OrderMethodDelivery}
	s.payment = models.PaymentMethodCard
	s.pendingSession = ""
	s.lastOrder = nil
	s.lastSession = ""
	if s.deps.Store != nil {
		if err := s.deps.Store.Clear(ctx, s.key); err != nil {
			utils.ErrorLogger.WithField("session", s.key).Errorf("failed to clear session: %v", err)
		}
	}
	view := s.viewLocked()
	s.deps.Events.Publish(s.key, EventBasketUpdated, view)
	return view
}

// PendingSession is the card session awaiting confirmation, if any.
func (s *Storefront) PendingSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingSession
}

func (s *Storefront) CheckoutInProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

func (s *Storefront) LastOrder() *models.OrderDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOrder
}

func (s *Storefront) View() *StorefrontView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// StorefrontView is the read model of a session.
type StorefrontView struct {
	SessionKey              string               `json:"session_key"`
	Revision                uint64               `json:"revision"`
	Items                   []LineView           `json:"items"`
	ItemCount               int                  `json:"item_count"`
	Subtotal                decimal.Decimal      `json:"subtotal"`
	OriginalSubtotal        decimal.Decimal      `json:"original_subtotal"`
	SubtotalDisplay         string               `json:"subtotal_display"`
	OriginalSubtotalDisplay string               `json:"original_subtotal_display"`
	HasDiscount             bool                 `json:"has_discount"`
	CouponState             CouponState          `json:"coupon_state"`
	Coupon                  *CouponView          `json:"coupon,omitempty"`
	Notice                  string               `json:"notice,omitempty"`
	Checkout                models.CheckoutForm  `json:"checkout"`
	PaymentMethod           models.PaymentMethod `json:"payment_method"`
	PendingSessionID        string               `json:"pending_session_id,omitempty"`
	CheckoutInProgress      bool                 `json:"checkout_in_progress"`
}

type LineView struct {
	models.LineItem
	Sections     []models.OptionSection `json:"sections"`
	PriceDisplay string                 `json:"price_display"`
}

type CouponView struct {
	Code       string                 `json:"code"`
	Percentage decimal.Decimal        `json:"percentage"`
	Schedule   *models.CouponSchedule `json:"schedule,omitempty"`
	ValidDays  []string               `json:"valid_days,omitempty"`
	ActiveNow  bool                   `json:"active_now"`
}

func (s *Storefront) viewLocked() *StorefrontView {
	items := s.basket.Items()
	lines := make([]LineView, len(items))
	for i, it := range items {
		lines[i] = LineView{
			LineItem:     it,
			Sections:     GroupSelectedOptions(it),
			PriceDisplay: utils.FormatEUR(it.EffectivePrice()),
		}
	}

	view := &StorefrontView{
		SessionKey:              s.key,
		Revision:                s.basket.Revision(),
		Items:                   lines,
		ItemCount:               s.basket.ItemCount(),
		Subtotal:                s.basket.Subtotal(),
		OriginalSubtotal:        s.basket.OriginalSubtotal(),
		SubtotalDisplay:         utils.FormatEUR(s.basket.Subtotal()),
		OriginalSubtotalDisplay: utils.FormatEUR(s.basket.OriginalSubtotal()),
		HasDiscount:             s.basket.HasDiscount(),
		CouponState:             s.coupon.State(),
		Notice:                  s.coupon.Notice(),
		Checkout:                s.form,
		PaymentMethod:           s.payment,
		PendingSessionID:        s.pendingSession,
		CheckoutInProgress:      s.submitting,
	}

	if applied := s.coupon.Applied(); applied != nil {
		cv := &CouponView{Code: applied.Code, Percentage: applied.Percentage(), Schedule: applied.Schedule, ActiveNow: true}
		if applied.Schedule != nil {
			cv.ValidDays = applied.Schedule.Days()
			cv.ActiveNow = applied.Schedule.ActiveAt(s.now())
		}
		view.Coupon = cv
	}
	return view
}

// CustomizationView is the read model of the item being customized.
type CustomizationView struct {
	Item           models.MenuItem      `json:"item"`
	Groups         []models.OptionGroup `json:"groups"`
	Ingredients    []models.Ingredient  `json:"ingredients"`
	Drinks         []models.AddOn       `json:"drinks"`
	Sides          []models.AddOn       `json:"sides"`
	Selected       []SelectionEntry     `json:"selected"`
	Quantity       int                  `json:"quantity"`
	Price          PriceBreakdown       `json:"price"`
	PriceDisplay   string               `json:"price_display"`
	MissingGroupID uint                 `json:"missing_group_id,omitempty"`
	CanAddToBasket bool                 `json:"can_add_to_basket"`
}

func (s *Storefront) customizationLocked() *CustomizationView {
	sel := s.selection
	model := sel.Model()
	price := PriceSelection(sel)
	view := &CustomizationView{
		Item:           model.Item,
		Groups:         model.Groups,
		Ingredients:    model.Ingredients,
		Drinks:         model.Drinks,
		Sides:          model.Sides,
		Selected:       sel.Entries(),
		Quantity:       sel.Quantity(),
		Price:          price,
		PriceDisplay:   utils.FormatEUR(price.OriginalPrice),
		CanAddToBasket: true,
	}
	if err := ValidateSelection(model.Groups, view.Selected); err != nil {
		view.CanAddToBasket = false
		var be *BusinessRuleError
		if errors.As(err, &be) {
			view.MissingGroupID = be.GroupID
		}
	}
	return view
}
