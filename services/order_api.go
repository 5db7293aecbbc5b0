package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/food-storefront/models"
	"github.com/yeremiapane/food-storefront/utils"
)

// OrderAPIConfig holds the restaurant order API settings.
type OrderAPIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// OrderAPIClient talks to the restaurant's order API. It serves the catalog,
// delivery areas, coupon validation and order/payment sessions.
type OrderAPIClient struct {
	config     *OrderAPIConfig
	httpClient *http.Client
}

func NewOrderAPIClient(config *OrderAPIConfig) *OrderAPIClient {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OrderAPIClient{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ValidateConfig validates the order API configuration
func (c *OrderAPIClient) ValidateConfig() error {
	if c.config.BaseURL == "" {
		return errors.New("ORDER_API_URL is not set")
	}
	u, err := url.Parse(c.config.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("ORDER_API_URL %q is not an absolute URL", c.config.BaseURL)
	}
	return nil
}

func (c *OrderAPIClient) getBaseURL() string {
	return strings.TrimRight(c.config.BaseURL, "/")
}

// apiMessage is the error body shape of the order API.
type apiMessage struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Title   string `json:"title"`
}

func (c *OrderAPIClient) do(ctx context.Context, op, method, path string, query url.Values, payload, out interface{}) error {
	endpoint := c.getBaseURL() + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &CollaboratorError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &CollaboratorError{Op: op, Err: errors.Wrap(err, "read response")}
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"op":      op,
		"method":  method,
		"path":    path,
		"status":  resp.StatusCode,
		"latency": time.Since(start),
	}).Debug("order api call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(op, resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &CollaboratorError{Op: op, Message: "unexpected response from the order service", Err: err}
	}
	return nil
}

// statusError surfaces the API's own message when it sent one.
func statusError(op string, status int, body []byte) error {
	var msg apiMessage
	_ = json.Unmarshal(body, &msg)
	text := msg.Message
	if text == "" {
		text = msg.Error
	}
	if text == "" {
		text = msg.Title
	}
	return &CollaboratorError{
		Op:      op,
		Status:  status,
		Message: text,
		Err:     fmt.Errorf("order api returned status %d", status),
	}
}

// flexString accepts ids sent as either JSON numbers or strings.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		*f = flexString(unq)
		return nil
	}
	*f = flexString(s)
	return nil
}

type wireCategory struct {
	ID           uint   `json:"Id"`
	Name         string `json:"Name"`
	DisplayOrder int    `json:"DisplayOrder"`
}

func (c *OrderAPIClient) ListCategories(ctx context.Context) ([]models.Category, error) {
	var wire []wireCategory
	if err := c.do(ctx, "list categories", http.MethodGet, "/api/categories", nil, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]models.Category, len(wire))
	for i, w := range wire {
		out[i] = models.Category{ID: w.ID, Name: w.Name, DisplayOrder: w.DisplayOrder}
	}
	return out, nil
}

type wireItem struct {
	ID          uint            `json:"Id"`
	Name        string          `json:"Name"`
	Description string          `json:"Description"`
	Price       decimal.Decimal `json:"Price"`
	CategoryID  uint            `json:"CategoryId"`
	ImageURL    string          `json:"ImageUrl"`
	Allergens   []string        `json:"Allergens"`
}

func (c *OrderAPIClient) ListItems(ctx context.Context) ([]models.MenuItem, error) {
	var wire []wireItem
	if err := c.do(ctx, "list items", http.MethodGet, "/api/items", nil, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]models.MenuItem, len(wire))
	for i, w := range wire {
		out[i] = models.MenuItem{
			ID:          w.ID,
			CategoryID:  w.CategoryID,
			Name:        w.Name,
			Description: w.Description,
			Price:       w.Price,
			ImageURL:    w.ImageURL,
			Allergens:   w.Allergens,
		}
	}
	return out, nil
}

type wireIngredient struct {
	ID          uint            `json:"Id"`
	Name        string          `json:"Name"`
	ExtraCost   decimal.Decimal `json:"ExtraCost"`
	IsMandatory bool            `json:"IsMandatory"`
	CanExclude  bool            `json:"CanExclude"`
}

type wireAddOn struct {
	ID    uint            `json:"Id"`
	Name  string          `json:"Name"`
	Price decimal.Decimal `json:"Price"`
}

type wireOption struct {
	ID           uint            `json:"Id"`
	Name         string          `json:"Name"`
	Price        decimal.Decimal `json:"Price"`
	DisplayOrder int             `json:"DisplayOrder"`
}

type wireGroup struct {
	ID           uint         `json:"Id"`
	Name         string       `json:"Name"`
	Type         string       `json:"Type"`
	IsRequired   bool         `json:"IsRequired"`
	MinSelect    int          `json:"MinSelect"`
	MaxSelect    int          `json:"MaxSelect"`
	Threshold    int          `json:"Threshold"`
	DisplayOrder int          `json:"DisplayOrder"`
	Options      []wireOption `json:"Options"`
}

type wireItemOptions struct {
	Ingredients             []wireIngredient `json:"Ingredients"`
	DrinkOptions            []wireAddOn      `json:"DrinkOptions"`
	SideOptions             []wireAddOn      `json:"SideOptions"`
	SelectionGroups         []wireGroup      `json:"SelectionGroups"`
	CategorySelectionGroups []wireGroup      `json:"CategorySelectionGroups"`
}

func groupKind(t string) models.GroupKind {
	switch models.GroupKind(strings.ToUpper(strings.TrimSpace(t))) {
	case models.GroupKindSingle:
		return models.GroupKindSingle
	case models.GroupKindExclusions:
		return models.GroupKindExclusions
	default:
		return models.GroupKindMultiple
	}
}

func (w wireGroup) toModel() models.OptionGroup {
	g := models.OptionGroup{
		ID:            w.ID,
		Name:          w.Name,
		Kind:          groupKind(w.Type),
		IsRequired:    w.IsRequired,
		MinSelect:     w.MinSelect,
		MaxSelect:     w.MaxSelect,
		FreeThreshold: w.Threshold,
		DisplayOrder:  w.DisplayOrder,
		Options:       make([]models.Option, len(w.Options)),
	}
	for i, o := range w.Options {
		g.Options[i] = models.Option{ID: o.ID, Name: o.Name, Price: o.Price, GroupID: w.ID, DisplayOrder: o.DisplayOrder}
	}
	return g
}

func addOns(wire []wireAddOn) []models.AddOn {
	out := make([]models.AddOn, len(wire))
	for i, w := range wire {
		out[i] = models.AddOn{ID: w.ID, Name: w.Name, Price: w.Price}
	}
	return out
}

func (c *OrderAPIClient) GetItemOptions(ctx context.Context, itemID uint) (*models.ItemOptions, error) {
	var wire wireItemOptions
	path := fmt.Sprintf("/api/items/%d/options", itemID)
	if err := c.do(ctx, "load item options", http.MethodGet, path, nil, nil, &wire); err != nil {
		return nil, err
	}

	opts := &models.ItemOptions{
		Ingredients:             make([]models.Ingredient, len(wire.Ingredients)),
		DrinkOptions:            addOns(wire.DrinkOptions),
		SideOptions:             addOns(wire.SideOptions),
		SelectionGroups:         make([]models.OptionGroup, len(wire.SelectionGroups)),
		CategorySelectionGroups: make([]models.OptionGroup, len(wire.CategorySelectionGroups)),
	}
	for i, w := range wire.Ingredients {
		opts.Ingredients[i] = models.Ingredient{
			ID: w.ID, Name: w.Name, ExtraCost: w.ExtraCost, IsMandatory: w.IsMandatory, CanExclude: w.CanExclude,
		}
	}
	for i, w := range wire.SelectionGroups {
		opts.SelectionGroups[i] = w.toModel()
	}
	for i, w := range wire.CategorySelectionGroups {
		opts.CategorySelectionGroups[i] = w.toModel()
	}
	return opts, nil
}

type wirePostcode struct {
	ID   uint   `json:"Id"`
	Code string `json:"Code"`
	City string `json:"City"`
}

func (c *OrderAPIClient) ListPostalCodes(ctx context.Context) ([]models.PostalCodeEntry, error) {
	var wire []wirePostcode
	if err := c.do(ctx, "list postal codes", http.MethodGet, "/api/Postcode", nil, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]models.PostalCodeEntry, len(wire))
	for i, w := range wire {
		out[i] = models.PostalCodeEntry{ID: w.ID, Code: w.Code, City: w.City}
	}
	return out, nil
}

type wireAddress struct {
	ID     uint   `json:"Id"`
	Street string `json:"Street"`
}

func (c *OrderAPIClient) ListAddresses(ctx context.Context, postcodeID uint) ([]models.Address, error) {
	var wire []wireAddress
	path := fmt.Sprintf("/api/Postcode/%d/addresses", postcodeID)
	if err := c.do(ctx, "list addresses", http.MethodGet, path, nil, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]models.Address, len(wire))
	for i, w := range wire {
		out[i] = models.Address{ID: w.ID, Street: w.Street}
	}
	return out, nil
}

// GetMinimumOrderValue returns zero when the area has no minimum configured.
func (c *OrderAPIClient) GetMinimumOrderValue(ctx context.Context, postalCode string) (decimal.Decimal, error) {
	var raw json.RawMessage
	path := "/api/PostcodeMinimumOrder/GetMinimumOrderValue/" + url.PathEscape(postalCode)
	err := c.do(ctx, "minimum order lookup", http.MethodGet, path, nil, nil, &raw)
	if err != nil {
		var ce *CollaboratorError
		if errors.As(err, &ce) && ce.Status == http.StatusNotFound {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	if len(raw) == 0 {
		return decimal.Zero, nil
	}

	var value decimal.Decimal
	if err := json.Unmarshal(raw, &value); err == nil {
		return value, nil
	}
	var wrapped struct {
		MinimumOrderValue decimal.Decimal `json:"MinimumOrderValue"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return decimal.Zero, &CollaboratorError{Op: "minimum order lookup", Message: "unexpected response from the order service", Err: err}
	}
	return wrapped.MinimumOrderValue, nil
}

type wireSelected struct {
	ID        uint    `json:"Id"`
	Name      string  `json:"Name"`
	GroupName string  `json:"GroupName"`
	Type      string  `json:"Type"`
	Price     float64 `json:"Price"`
	Quantity  int     `json:"Quantity"`
}

type wireOrderItem struct {
	ID            uint           `json:"Id"`
	Name          string         `json:"Name"`
	Price         float64        `json:"Price"`
	OriginalPrice float64        `json:"OriginalPrice"`
	Quantity      int            `json:"Quantity"`
	Note          string         `json:"Note"`
	SelectedItems []wireSelected `json:"SelectedItems"`
	GroupOrder    []string       `json:"GroupOrder"`
	Image         string         `json:"Image"`
}

func toWireItems(items []models.LineItem) []wireOrderItem {
	out := make([]wireOrderItem, len(items))
	for i, it := range items {
		sel := make([]wireSelected, len(it.SelectedItems))
		for k, o := range it.SelectedItems {
			sel[k] = wireSelected{
				ID: o.ID, Name: o.Name, GroupName: o.GroupName, Type: string(o.Type),
				Price: o.Price.InexactFloat64(), Quantity: o.Quantity,
			}
		}
		groupOrder := it.GroupOrder
		if groupOrder == nil {
			groupOrder = []string{}
		}
		out[i] = wireOrderItem{
			ID:            it.MenuItemID,
			Name:          it.Name,
			Price:         it.EffectivePrice().InexactFloat64(),
			OriginalPrice: it.OriginalPrice.InexactFloat64(),
			Quantity:      it.Quantity,
			Note:          it.Note,
			SelectedItems: sel,
			GroupOrder:    groupOrder,
			Image:         it.Image,
		}
	}
	return out
}

type wireCouponRequest struct {
	Code   string          `json:"code"`
	Email  string          `json:"email"`
	Basket []wireOrderItem `json:"basket"`
}

type wireCouponResponse struct {
	DiscountRatio decimal.Decimal `json:"DiscountRatio"`
	Schedule      *struct {
		ValidDays map[string]bool `json:"validDays"`
		BeginTime string          `json:"beginTime"`
		EndTime   string          `json:"endTime"`
	} `json:"Schedule"`
}

func (c *OrderAPIClient) Validate(ctx context.Context, code, email string, items []models.LineItem) (*models.CouponApplication, error) {
	var wire wireCouponResponse
	payload := wireCouponRequest{Code: code, Email: email, Basket: toWireItems(items)}
	if err := c.do(ctx, "validate coupon", http.MethodPost, "/api/coupons/validate-schedule", nil, payload, &wire); err != nil {
		return nil, err
	}

	applied := &models.CouponApplication{Code: code, DiscountRatio: wire.DiscountRatio}
	if wire.Schedule != nil {
		days := make(map[string]bool, len(wire.Schedule.ValidDays))
		for d, ok := range wire.Schedule.ValidDays {
			days[strings.ToLower(d)] = ok
		}
		applied.Schedule = &models.CouponSchedule{
			ValidDays: days,
			BeginTime: wire.Schedule.BeginTime,
			EndTime:   wire.Schedule.EndTime,
		}
	}
	return applied, nil
}

type wireCustomer struct {
	FirstName    string `json:"FirstName"`
	LastName     string `json:"LastName"`
	Email        string `json:"Email"`
	Phone        string `json:"Phone"`
	PostalCode   string `json:"PostalCode,omitempty"`
	Street       string `json:"Street,omitempty"`
	House        string `json:"House,omitempty"`
	Stairs       string `json:"Stairs,omitempty"`
	Stick        string `json:"Stick,omitempty"`
	Door         string `json:"Door,omitempty"`
	Bell         string `json:"Bell,omitempty"`
	SpecialNotes string `json:"SpecialNotes,omitempty"`
	CreateDate   string `json:"CreateDate,omitempty"`
}

func toWireCustomer(ci models.CustomerInfo, created time.Time) wireCustomer {
	return wireCustomer{
		FirstName: ci.FirstName, LastName: ci.LastName, Email: ci.Email, Phone: ci.Phone,
		PostalCode: ci.PostalCode, Street: ci.Street, House: ci.House,
		Stairs: ci.Stairs, Stick: ci.Stick, Door: ci.Door, Bell: ci.Bell,
		SpecialNotes: ci.SpecialNotes,
		CreateDate:   created.UTC().Format(time.RFC3339),
	}
}

func (w wireCustomer) toModel() models.CustomerInfo {
	return models.CustomerInfo{
		FirstName: w.FirstName, LastName: w.LastName, Email: w.Email, Phone: w.Phone,
		PostalCode: w.PostalCode, Street: w.Street, House: w.House,
		Stairs: w.Stairs, Stick: w.Stick, Door: w.Door, Bell: w.Bell,
		SpecialNotes: w.SpecialNotes,
	}
}

type wireOrderRequest struct {
	Items          []wireOrderItem `json:"items"`
	CustomerInfo   wireCustomer    `json:"customerInfo"`
	OrderMethod    string          `json:"orderMethod"`
	PaymentMethod  string          `json:"paymentMethod"`
	Status         string          `json:"status"`
	SpecialNotes   string          `json:"specialNotes,omitempty"`
	TotalAmount    float64         `json:"totalAmount"`
	OriginalTotal  float64         `json:"originalTotal"`
	DiscountCoupon int             `json:"discountCoupon"`
}

type wireCardSession struct {
	URL         string     `json:"url"`
	SessionID   string     `json:"sessionId"`
	OrderID     flexString `json:"orderId"`
	OrderNumber flexString `json:"orderNumber"`
}

type wireOrderLine struct {
	ID            uint            `json:"Id"`
	Name          string          `json:"Name"`
	Price         decimal.Decimal `json:"Price"`
	OriginalPrice decimal.Decimal `json:"OriginalPrice"`
	Quantity      int             `json:"Quantity"`
	Note          string          `json:"Note"`
	SelectedItems []struct {
		ID        uint            `json:"Id"`
		Name      string          `json:"Name"`
		Price     decimal.Decimal `json:"Price"`
		Quantity  int             `json:"Quantity"`
		GroupName string          `json:"GroupName"`
		Type      string          `json:"Type"`
	} `json:"SelectedItems"`
}

type wireOrderDetails struct {
	OrderID        flexString      `json:"OrderId"`
	OrderNumber    flexString      `json:"OrderNumber"`
	Status         string          `json:"Status"`
	PaymentMethod  string          `json:"PaymentMethod"`
	OrderMethod    string          `json:"OrderMethod"`
	CreatedAt      string          `json:"CreatedAt"`
	DiscountCoupon int             `json:"DiscountCoupon"`
	CustomerInfo   *wireCustomer   `json:"CustomerInfo"`
	SpecialNotes   string          `json:"SpecialNotes"`
	Items          []wireOrderLine `json:"Items"`
}

// paymentMethodOnWire maps payment methods to the order API's names.
func paymentMethodOnWire(m models.PaymentMethod) string {
	if m == models.PaymentMethodCard {
		return "stripe"
	}
	return string(m)
}

func paymentMethodFromWire(v string) models.PaymentMethod {
	if strings.EqualFold(v, "cash") {
		return models.PaymentMethodCash
	}
	return models.PaymentMethodCard
}

func (w wireOrderDetails) toModel() *models.OrderDetails {
	d := &models.OrderDetails{
		OrderID:        string(w.OrderID),
		OrderNumber:    string(w.OrderNumber),
		Status:         w.Status,
		PaymentMethod:  paymentMethodFromWire(w.PaymentMethod),
		OrderMethod:    models.OrderMethod(w.OrderMethod),
		DiscountCoupon: w.DiscountCoupon == 1,
		CreatedAt:      w.CreatedAt,
		Total:          decimal.Zero,
		OriginalTotal:  decimal.Zero,
		Items:          make([]models.OrderDetailLine, len(w.Items)),
	}
	if w.CustomerInfo != nil {
		d.Customer = w.CustomerInfo.toModel()
	}
	if d.Customer.SpecialNotes == "" {
		d.Customer.SpecialNotes = w.SpecialNotes
	}

	for i, it := range w.Items {
		original := it.OriginalPrice
		if original.IsZero() {
			original = it.Price
		}
		line := models.OrderDetailLine{
			ID: it.ID, Name: it.Name, Price: it.Price, OriginalPrice: original,
			Quantity: it.Quantity, Note: it.Note,
		}
		for _, s := range it.SelectedItems {
			qty := s.Quantity
			if qty < 1 {
				qty = 1
			}
			line.SelectedItems = append(line.SelectedItems, models.SelectedOption{
				ID: s.ID, Name: s.Name, Price: s.Price, Quantity: qty,
				GroupName: s.GroupName, Type: models.OptionType(s.Type),
			})
		}
		d.Items[i] = line
		d.Total = d.Total.Add(it.Price)
		d.OriginalTotal = d.OriginalTotal.Add(original)
	}
	return d
}

// CreateCheckoutSession sends card orders to the hosted checkout and cash
// orders straight to the order endpoint.
func (c *OrderAPIClient) CreateCheckoutSession(ctx context.Context, order *models.CheckoutOrder) (*models.CheckoutSession, error) {
	payload := wireOrderRequest{
		Items:         toWireItems(order.Items),
		CustomerInfo:  toWireCustomer(order.Customer, order.CreatedAt),
		OrderMethod:   string(order.OrderMethod),
		PaymentMethod: paymentMethodOnWire(order.PaymentMethod),
		SpecialNotes:  order.Customer.SpecialNotes,
		TotalAmount:   order.Total.Round(2).InexactFloat64(),
		OriginalTotal: order.OriginalTotal.Round(2).InexactFloat64(),
	}
	if order.HasDiscount {
		payload.DiscountCoupon = 1
	}

	if order.PaymentMethod == models.PaymentMethodCash {
		payload.Status = PaymentStatusPending
		var wire wireOrderDetails
		if err := c.do(ctx, "create cash order", http.MethodPost, "/api/Order/create-cash-order", nil, payload, &wire); err != nil {
			return nil, err
		}
		details := wire.toModel()
		details.PaymentMethod = models.PaymentMethodCash
		if details.OrderMethod == "" {
			details.OrderMethod = order.OrderMethod
		}
		return &models.CheckoutSession{
			SessionID:   details.OrderID,
			OrderID:     details.OrderID,
			OrderNumber: details.OrderNumber,
			Details:     details,
		}, nil
	}

	payload.Status = "processing"
	var wire wireCardSession
	if err := c.do(ctx, "create checkout session", http.MethodPost, "/api/Stripe/create-checkout-session", nil, payload, &wire); err != nil {
		return nil, err
	}
	return &models.CheckoutSession{
		SessionID:   wire.SessionID,
		RedirectURL: wire.URL,
		OrderID:     string(wire.OrderID),
		OrderNumber: string(wire.OrderNumber),
	}, nil
}

func (c *OrderAPIClient) ConfirmSession(ctx context.Context, sessionID string) (*models.OrderDetails, error) {
	var wire wireOrderDetails
	query := url.Values{"session_id": []string{sessionID}}
	if err := c.do(ctx, "confirm payment", http.MethodGet, "/api/Stripe/payment-success", query, nil, &wire); err != nil {
		return nil, err
	}
	details := wire.toModel()
	details.PaymentMethod = models.PaymentMethodCard
	return details, nil
}

func (c *OrderAPIClient) CancelSession(ctx context.Context, sessionID string) error {
	query := url.Values{"session_id": []string{sessionID}}
	return c.do(ctx, "cancel payment", http.MethodGet, "/api/Stripe/payment-cancel", query, nil, nil)
}
