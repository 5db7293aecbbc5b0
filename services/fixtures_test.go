package services

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/food-storefront/models"
	"github.com/yeremiapane/food-storefront/utils"
)

func init() {
	utils.SilenceLoggers()
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sel(id uint) models.OptionRef {
	return models.OptionRef{ID: id, Type: models.OptionTypeSelection}
}

const (
	pizzaID = 1

	doughID  = 1
	cheeseID = 2
	colaID   = 10
	friesID  = 20

	sizeGroupID    = 200
	smallID        = 201
	largeID        = 202
	toppingGroupID = 100
	olivesID       = 101
	hamID          = 102
	onionID        = 103
)

func pizzaItem() models.MenuItem {
	return models.MenuItem{ID: pizzaID, CategoryID: 1, Name: "Pizza Margherita", Price: dec("8.50"), ImageURL: "pizza.jpg"}
}

func sizeGroup() models.OptionGroup {
	return models.OptionGroup{
		ID: sizeGroupID, Name: "Size", Kind: models.GroupKindSingle, IsRequired: true, DisplayOrder: 1,
		Options: []models.Option{
			{ID: smallID, Name: "Small", Price: dec("0")},
			{ID: largeID, Name: "Large", Price: dec("2.00")},
		},
	}
}

func toppingGroup() models.OptionGroup {
	return models.OptionGroup{
		ID: toppingGroupID, Name: "Toppings", Kind: models.GroupKindMultiple, FreeThreshold: 2, MaxSelect: 3, DisplayOrder: 2,
		Options: []models.Option{
			{ID: olivesID, Name: "Olives", Price: dec("1.00")},
			{ID: hamID, Name: "Ham", Price: dec("1.50")},
			{ID: onionID, Name: "Onion", Price: dec("0.80")},
		},
	}
}

func pizzaOptions() models.ItemOptions {
	return models.ItemOptions{
		Ingredients: []models.Ingredient{
			{ID: doughID, Name: "Dough", IsMandatory: true},
			{ID: cheeseID, Name: "Extra cheese", ExtraCost: dec("1.20"), CanExclude: true},
		},
		DrinkOptions:            []models.AddOn{{ID: colaID, Name: "Cola", Price: dec("2.50")}},
		SideOptions:             []models.AddOn{{ID: friesID, Name: "Fries", Price: dec("3.00")}},
		SelectionGroups:         []models.OptionGroup{toppingGroup()},
		CategorySelectionGroups: []models.OptionGroup{sizeGroup()},
	}
}

func pizzaModel() *OptionModel {
	return NewOptionModel(pizzaItem(), pizzaOptions())
}

// pizzaLine builds a small pizza line with the given toppings.
func pizzaLine(note string, toppings ...uint) models.LineItem {
	s := NewSelection(pizzaModel())
	_ = s.Toggle(sel(smallID))
	for _, id := range toppings {
		_ = s.Toggle(sel(id))
	}
	return NewLineItem(s.Model(), PriceSelection(s), note)
}

type fakeCatalog struct {
	categories []models.Category
	items      []models.MenuItem
	options    map[uint]*models.ItemOptions
	err        error
}

func newFakeCatalog() *fakeCatalog {
	opts := pizzaOptions()
	return &fakeCatalog{
		categories: []models.Category{
			{ID: 2, Name: "Drinks"},
			{ID: 1, Name: "Pizza", DisplayOrder: 1},
		},
		items: []models.MenuItem{
			pizzaItem(),
			{ID: 2, CategoryID: 2, Name: "Lemonade", Description: "fresh", Price: dec("3.20")},
		},
		options: map[uint]*models.ItemOptions{pizzaID: &opts},
	}
}

func (f *fakeCatalog) ListCategories(ctx context.Context) ([]models.Category, error) {
	return append([]models.Category(nil), f.categories...), f.err
}

func (f *fakeCatalog) ListItems(ctx context.Context) ([]models.MenuItem, error) {
	return append([]models.MenuItem(nil), f.items...), f.err
}

func (f *fakeCatalog) GetItemOptions(ctx context.Context, itemID uint) (*models.ItemOptions, error) {
	return f.options[itemID], f.err
}

type fakeDelivery struct {
	minimum decimal.Decimal
	err     error
	calls   int
}

func (f *fakeDelivery) ListPostalCodes(ctx context.Context) ([]models.PostalCodeEntry, error) {
	return []models.PostalCodeEntry{{ID: 1, Code: "1010", City: "Wien"}}, f.err
}

func (f *fakeDelivery) ListAddresses(ctx context.Context, postcodeID uint) ([]models.Address, error) {
	return []models.Address{{ID: 1, Street: "Ringstrasse"}}, f.err
}

func (f *fakeDelivery) GetMinimumOrderValue(ctx context.Context, postalCode string) (decimal.Decimal, error) {
	f.calls++
	return f.minimum, f.err
}

type fakeCoupons struct {
	ratio decimal.Decimal
	err   error
	// hook runs inside Validate, e.g. to change the basket mid-flight
	hook func()
}

func (f *fakeCoupons) Validate(ctx context.Context, code, email string, items []models.LineItem) (*models.CouponApplication, error) {
	if f.hook != nil {
		f.hook()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.CouponApplication{Code: code, DiscountRatio: f.ratio}, nil
}

type fakeGateway struct {
	mu        sync.Mutex
	session   *models.CheckoutSession
	confirmed *models.OrderDetails
	err       error
	orders    []*models.CheckoutOrder
	confirms  int
	cancels   int
	// block, when set, holds CreateCheckoutSession until closed
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, order *models.CheckoutOrder) (*models.CheckoutSession, error) {
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, order)
	if f.err != nil {
		return nil, f.err
	}
	if f.session == nil {
		return nil, nil
	}
	s := *f.session
	if s.Details != nil {
		d := *s.Details
		s.Details = &d
	}
	return &s, nil
}

func (f *fakeGateway) ConfirmSession(ctx context.Context, sessionID string) (*models.OrderDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirms++
	if f.err != nil {
		return nil, f.err
	}
	return f.confirmed, nil
}

func (f *fakeGateway) CancelSession(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	return nil
}

type memoryStore struct {
	mu      sync.Mutex
	states  map[string]*SessionState
	loadErr error
	cleared int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{states: make(map[string]*SessionState)}
}

func (m *memoryStore) Load(ctx context.Context, key string) (*SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	st, ok := m.states[key]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (m *memoryStore) Save(ctx context.Context, key string, state *SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	m.states[key] = &cp
	return nil
}

func (m *memoryStore) Clear(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, key)
	m.loadErr = nil
	m.cleared++
	return nil
}

type recordedEvent struct {
	session string
	event   string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(sessionKey, event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{session: sessionKey, event: event})
}

func (p *recordingPublisher) has(event string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e.event == event {
			return true
		}
	}
	return false
}
