package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/food-storefront/hub"
	"github.com/yeremiapane/food-storefront/middlewares"
	"github.com/yeremiapane/food-storefront/models"
	"github.com/yeremiapane/food-storefront/services"
	"github.com/yeremiapane/food-storefront/utils"
)

const sizeGroupID = 10

type stubOrderAPI struct {
	couponErr error
	cancelErr error
	minimum   decimal.Decimal
}

func (s *stubOrderAPI) ListCategories(ctx context.Context) ([]models.Category, error) {
	return []models.Category{{ID: 1, Name: "Pizza", DisplayOrder: 1}}, nil
}

func (s *stubOrderAPI) ListItems(ctx context.Context) ([]models.MenuItem, error) {
	return []models.MenuItem{
		{ID: 1, CategoryID: 1, Name: "Margherita", Price: decimal.RequireFromString("8.50")},
		{ID: 2, CategoryID: 1, Name: "Marinara", Price: decimal.RequireFromString("7.00")},
	}, nil
}

func (s *stubOrderAPI) GetItemOptions(ctx context.Context, itemID uint) (*models.ItemOptions, error) {
	if itemID != 1 {
		return &models.ItemOptions{}, nil
	}
	return &models.ItemOptions{
		CategorySelectionGroups: []models.OptionGroup{{
			ID: sizeGroupID, Name: "Size", Kind: models.GroupKindSingle, IsRequired: true, DisplayOrder: 1,
			Options: []models.Option{
				{ID: 11, Name: "Small", Price: decimal.Zero},
				{ID: 12, Name: "Large", Price: decimal.RequireFromString("2.00")},
			},
		}},
	}, nil
}

func (s *stubOrderAPI) ListPostalCodes(ctx context.Context) ([]models.PostalCodeEntry, error) {
	return []models.PostalCodeEntry{{ID: 1, Code: "1010"}}, nil
}

func (s *stubOrderAPI) ListAddresses(ctx context.Context, postcodeID uint) ([]models.Address, error) {
	if postcodeID != 1 {
		return nil, &services.CollaboratorError{Op: "list addresses", Status: http.StatusNotFound, Message: "Postcode not found"}
	}
	return []models.Address{{ID: 1, Street: "Ringstrasse"}}, nil
}

func (s *stubOrderAPI) GetMinimumOrderValue(ctx context.Context, postalCode string) (decimal.Decimal, error) {
	return s.minimum, nil
}

func (s *stubOrderAPI) Validate(ctx context.Context, code, email string, items []models.LineItem) (*models.CouponApplication, error) {
	if s.couponErr != nil {
		return nil, s.couponErr
	}
	return &models.CouponApplication{Code: code, DiscountRatio: decimal.RequireFromString("0.1")}, nil
}

func (s *stubOrderAPI) CreateCheckoutSession(ctx context.Context, order *models.CheckoutOrder) (*models.CheckoutSession, error) {
	if order.PaymentMethod == models.PaymentMethodCash {
		return &models.CheckoutSession{Details: &models.OrderDetails{OrderID: "5", OrderNumber: "A-5", Status: "pending"}}, nil
	}
	return &models.CheckoutSession{SessionID: "cs_1", RedirectURL: "https://pay.example/cs_1"}, nil
}

func (s *stubOrderAPI) ConfirmSession(ctx context.Context, sessionID string) (*models.OrderDetails, error) {
	return &models.OrderDetails{OrderID: "6", OrderNumber: "A-6", Status: "processing"}, nil
}

func (s *stubOrderAPI) CancelSession(ctx context.Context, sessionID string) error {
	return s.cancelErr
}

type testServer struct {
	engine *gin.Engine
	api    *stubOrderAPI
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	api := &stubOrderAPI{}
	registry := services.NewSessionRegistry(services.StorefrontDeps{
		Catalog: api, Delivery: api, Coupons: api, Payments: api,
	})
	tokens := utils.NewSessionTokens("secret", time.Hour)
	sfc := NewStorefrontController(registry, api)
	sc := NewSessionController(registry, tokens, hub.NewSessionHub(), []string{"*"})

	r := gin.New()
	r.POST("/session", sc.CreateSession)
	r.GET("/postcodes/:id/addresses", sfc.GetAddresses)
	s := r.Group("/", middlewares.SessionMiddleware(tokens))
	s.GET("/menu", sfc.GetMenu)
	s.GET("/storefront", sfc.GetStorefront)
	s.POST("/customization", sfc.OpenCustomization)
	s.GET("/customization", sfc.GetCustomization)
	s.POST("/customization/options/toggle", sfc.ToggleOption)
	s.PUT("/customization/quantity", sfc.SetCustomizationQuantity)
	s.POST("/basket", sfc.AddToBasket)
	s.POST("/basket/:index/increment", sfc.IncrementItem)
	s.DELETE("/basket/:index", sfc.RemoveItem)
	s.POST("/coupon", sfc.ApplyCoupon)
	s.POST("/checkout", sfc.SubmitCheckout)
	s.GET("/checkout/success", sfc.PaymentSuccess)
	s.GET("/checkout/cancel", sfc.PaymentCancel)
	s.GET("/orders/last", sfc.GetLastOrder)

	ts := &testServer{engine: r, api: api}
	w := ts.do(t, http.MethodPost, "/session", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(decodeResponse(t, w).Data, &session))
	ts.token = session.Token
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func (ts *testServer) addMargherita(t *testing.T) {
	t.Helper()
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/customization", gin.H{"item_id": 1}).Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/customization/options/toggle", gin.H{"id": 11, "type": "selection"}).Code)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/basket", gin.H{"note": "crispy"}).Code)
}

func checkoutBody(payment string) gin.H {
	return gin.H{
		"customer": gin.H{
			"first_name": "Anna", "last_name": "Berger", "email": "anna@example.at", "phone": "0660",
			"postal_code": "1010", "street": "Ringstrasse", "house": "1",
		},
		"order_method":   "delivery",
		"payment_method": payment,
	}
}

func TestStorefrontController_RequiresSession(t *testing.T) {
	ts := newTestServer(t)
	ts.token = ""

	w := ts.do(t, http.MethodGet, "/storefront", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStorefrontController_Menu(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/menu?q=marinara", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sections []models.MenuSection
	require.NoError(t, json.Unmarshal(decodeResponse(t, w).Data, &sections))
	require.Len(t, sections, 1)
	require.Len(t, sections[0].Items, 1)
	assert.Equal(t, "Marinara", sections[0].Items[0].Name)
}

func TestStorefrontController_Addresses(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/postcodes/1/addresses", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/postcodes/abc/addresses", nil).Code)

	w := ts.do(t, http.MethodGet, "/postcodes/9/addresses", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Postcode not found", decodeResponse(t, w).Message)
}

func TestStorefrontController_CustomizationAndBasket(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/customization", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/customization", gin.H{}).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/customization", gin.H{"item_id": 99}).Code)

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/customization", gin.H{"item_id": 1}).Code)
	w := ts.do(t, http.MethodPost, "/basket", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var field utils.FieldError
	require.NoError(t, json.Unmarshal(decodeResponse(t, w).Data, &field))
	assert.Equal(t, uint(sizeGroupID), field.GroupID)
	assert.Equal(t, services.RuleRequiredGroup, field.Rule)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/customization/options/toggle", gin.H{"id": 99, "type": "selection"}).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPut, "/customization/quantity", gin.H{"quantity": 0}).Code)

	ts.addMargherita(t)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/basket/0/increment", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/basket/3/increment", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/basket/first/increment", nil).Code)

	w = ts.do(t, http.MethodGet, "/storefront", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view services.StorefrontView
	require.NoError(t, json.Unmarshal(decodeResponse(t, w).Data, &view))
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.ItemCount)
	assert.Equal(t, "crispy", view.Items[0].Note)
	assert.Equal(t, "€17,00", view.SubtotalDisplay)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, "/basket/0", nil).Code)
}

func TestStorefrontController_Coupon(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/coupon", gin.H{"code": "SAVE10", "email": "anna@example.at"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty basket")

	ts.addMargherita(t)
	ts.api.couponErr = &services.CollaboratorError{Op: "validate coupon", Status: 400, Message: "Coupon expired"}
	w = ts.do(t, http.MethodPost, "/coupon", gin.H{"code": "OLD", "email": "anna@example.at"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Coupon expired", decodeResponse(t, w).Message)

	ts.api.couponErr = errors.New("connection reset")
	w = ts.do(t, http.MethodPost, "/coupon", gin.H{"code": "SAVE10", "email": "anna@example.at"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	ts.api.couponErr = nil
	w = ts.do(t, http.MethodPost, "/coupon", gin.H{"code": "SAVE10", "email": "anna@example.at"})
	require.Equal(t, http.StatusOK, w.Code)
	var view services.StorefrontView
	require.NoError(t, json.Unmarshal(decodeResponse(t, w).Data, &view))
	assert.True(t, view.HasDiscount)
	assert.Equal(t, "€7,65", view.SubtotalDisplay)

	w = ts.do(t, http.MethodPost, "/coupon", gin.H{"code": "SAVE20", "email": "anna@example.at"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStorefrontController_Checkout(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/orders/last", nil).Code)

	ts.addMargherita(t)
	incomplete := checkoutBody("cash")
	delete(incomplete["customer"].(gin.H), "first_name")
	w := ts.do(t, http.MethodPost, "/checkout", incomplete)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var field utils.FieldError
	require.NoError(t, json.Unmarshal(decodeResponse(t, w).Data, &field))
	assert.Equal(t, "first_name", field.Field)

	ts.api.minimum = decimal.RequireFromString("20")
	w = ts.do(t, http.MethodPost, "/checkout", checkoutBody("cash"))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NoError(t, json.Unmarshal(decodeResponse(t, w).Data, &field))
	assert.Equal(t, services.RuleMinimumOrder, field.Rule)

	ts.api.minimum = decimal.Zero
	w = ts.do(t, http.MethodPost, "/checkout", checkoutBody("cash"))
	require.Equal(t, http.StatusCreated, w.Code)
	var result services.CheckoutResult
	require.NoError(t, json.Unmarshal(decodeResponse(t, w).Data, &result))
	require.NotNil(t, result.Order)
	assert.Equal(t, "A-5", result.Order.OrderNumber)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/orders/last", nil).Code)
}

func TestStorefrontController_CardPayment(t *testing.T) {
	ts := newTestServer(t)
	ts.addMargherita(t)

	w := ts.do(t, http.MethodPost, "/checkout", checkoutBody("card"))
	require.Equal(t, http.StatusOK, w.Code)
	var result services.CheckoutResult
	require.NoError(t, json.Unmarshal(decodeResponse(t, w).Data, &result))
	assert.Equal(t, "https://pay.example/cs_1", result.RedirectURL)

	ts.api.cancelErr = errors.New("provider down")
	w = ts.do(t, http.MethodGet, "/checkout/cancel?session_id=cs_1", nil)
	assert.Equal(t, http.StatusOK, w.Code, "cancel always lands on the basket")

	w = ts.do(t, http.MethodGet, "/checkout/success", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "nothing is pending after a cancel")

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/checkout", checkoutBody("card")).Code)
	w = ts.do(t, http.MethodGet, "/checkout/success?session_id=cs_1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var details models.OrderDetails
	require.NoError(t, json.Unmarshal(decodeResponse(t, w).Data, &details))
	assert.Equal(t, "A-6", details.OrderNumber)
}
