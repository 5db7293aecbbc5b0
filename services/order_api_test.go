package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/food-storefront/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OrderAPIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOrderAPIClient(&OrderAPIConfig{BaseURL: server.URL + "/", Timeout: 5 * time.Second})
}

func TestOrderAPIClient_ValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  *OrderAPIConfig
		wantErr bool
	}{
		{name: "valid config", config: &OrderAPIConfig{BaseURL: "https://orders.example.com"}, wantErr: false},
		{name: "missing base url", config: &OrderAPIConfig{}, wantErr: true},
		{name: "relative base url", config: &OrderAPIConfig{BaseURL: "/api"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewOrderAPIClient(tt.config)
			err := c.ValidateConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOrderAPIClient_GetItemOptions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/items/7/options", r.URL.Path)
		w.Write([]byte(`{
			"Ingredients": [{"Id": 1, "Name": "Cheese", "ExtraCost": 0.5, "IsMandatory": false, "CanExclude": true}],
			"DrinkOptions": [{"Id": 2, "Name": "Cola", "Price": "2.20"}],
			"SideOptions": [],
			"SelectionGroups": [{"Id": 10, "Name": "Sauces", "Type": "multiple", "IsRequired": true,
				"MinSelect": 1, "MaxSelect": 3, "Threshold": 2, "DisplayOrder": 4,
				"Options": [{"Id": 100, "Name": "Garlic", "Price": 0.8}]}],
			"CategorySelectionGroups": [{"Id": 11, "Name": "Size", "Type": "SINGLE", "Options": []}]
		}`))
	})

	opts, err := c.GetItemOptions(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, opts.Ingredients, 1)
	assert.True(t, opts.Ingredients[0].ExtraCost.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, opts.DrinkOptions[0].Price.Equal(decimal.RequireFromString("2.2")))

	g := opts.SelectionGroups[0]
	assert.Equal(t, models.GroupKindMultiple, g.Kind)
	assert.Equal(t, 2, g.FreeThreshold)
	assert.True(t, g.IsRequired)
	assert.Equal(t, uint(10), g.Options[0].GroupID)
	assert.Equal(t, models.GroupKindSingle, opts.CategorySelectionGroups[0].Kind)
}

func TestOrderAPIClient_GetMinimumOrderValue(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		statusCode int
		want       string
		wantErr    bool
	}{
		{name: "plain number", body: `15`, statusCode: http.StatusOK, want: "15"},
		{name: "wrapped value", body: `{"MinimumOrderValue": 12.5}`, statusCode: http.StatusOK, want: "12.5"},
		{name: "area without minimum", body: `{"message": "not found"}`, statusCode: http.StatusNotFound, want: "0"},
		{name: "server error", body: `{}`, statusCode: http.StatusInternalServerError, wantErr: true},
		{name: "garbage", body: `"abc"x`, statusCode: http.StatusOK, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/PostcodeMinimumOrder/GetMinimumOrderValue/1010", r.URL.Path)
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			})

			got, err := c.GetMinimumOrderValue(context.Background(), "1010")
			if tt.wantErr {
				var ce *CollaboratorError
				assert.ErrorAs(t, err, &ce)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestOrderAPIClient_ValidateCoupon(t *testing.T) {
	t.Run("applied", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "SAVE10", body["code"])
			assert.Equal(t, "a@b.at", body["email"])
			assert.Len(t, body["basket"], 1)

			w.Write([]byte(`{"DiscountRatio": 0.1, "Schedule": {"validDays": {"Monday": true}, "beginTime": "10:00", "endTime": "22:00"}}`))
		})

		items := []models.LineItem{{MenuItemID: 1, Name: "Pizza", Quantity: 1, OriginalPrice: decimal.NewFromInt(10)}}
		applied, err := c.Validate(context.Background(), "SAVE10", "a@b.at", items)
		require.NoError(t, err)
		assert.Equal(t, "SAVE10", applied.Code)
		assert.True(t, applied.DiscountRatio.Equal(decimal.RequireFromString("0.1")))
		require.NotNil(t, applied.Schedule)
		assert.True(t, applied.Schedule.ValidDays["monday"])
	})

	t.Run("rejected with message", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message": "Coupon expired"}`))
		})

		_, err := c.Validate(context.Background(), "OLD", "a@b.at", nil)
		var ce *CollaboratorError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "Coupon expired", ce.Error())
		assert.Equal(t, http.StatusBadRequest, ce.Status)
	})
}

func TestOrderAPIClient_CreateCheckoutSession(t *testing.T) {
	discounted := decimal.NewFromInt(9)
	order := &models.CheckoutOrder{
		Customer:      models.CustomerInfo{FirstName: "Ana", LastName: "Berg", Email: "a@b.at", Phone: "123"},
		OrderMethod:   models.OrderMethodSelfCollection,
		Items:         []models.LineItem{{MenuItemID: 1, Name: "Pizza", Quantity: 1, OriginalPrice: decimal.NewFromInt(10), DiscountedPrice: &discounted}},
		Total:         decimal.NewFromInt(9),
		OriginalTotal: decimal.NewFromInt(10),
		HasDiscount:   true,
		CreatedAt:     time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC),
	}

	t.Run("card", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/Stripe/create-checkout-session", r.URL.Path)
			raw, _ := io.ReadAll(r.Body)
			var body wireOrderRequest
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Equal(t, "stripe", body.PaymentMethod)
			assert.Equal(t, "processing", body.Status)
			assert.Equal(t, 9.0, body.TotalAmount)
			assert.Equal(t, 9.0, body.Items[0].Price)
			assert.Equal(t, 10.0, body.Items[0].OriginalPrice)

			w.Write([]byte(`{"url": "https://pay.example.com/s/1", "sessionId": "cs_1", "orderId": 55, "orderNumber": "A-55"}`))
		})

		card := *order
		card.PaymentMethod = models.PaymentMethodCard
		session, err := c.CreateCheckoutSession(context.Background(), &card)
		require.NoError(t, err)
		assert.Equal(t, "https://pay.example.com/s/1", session.RedirectURL)
		assert.Equal(t, "cs_1", session.SessionID)
		assert.Equal(t, "55", session.OrderID)
		assert.Nil(t, session.Details)
	})

	t.Run("cash", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/Order/create-cash-order", r.URL.Path)
			var body wireOrderRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "cash", body.PaymentMethod)
			assert.Equal(t, "pending", body.Status)
			assert.Equal(t, 1, body.DiscountCoupon)

			w.Write([]byte(`{"OrderId": "77", "OrderNumber": "C-77", "Status": "pending", "DiscountCoupon": 1,
				"CustomerInfo": {"FirstName": "Ana"},
				"Items": [{"Id": 1, "Name": "Pizza", "Price": 9, "OriginalPrice": 10, "Quantity": 1,
					"SelectedItems": [{"Id": 3, "Name": "Olives", "Price": 0.5}]}]}`))
		})

		cash := *order
		cash.PaymentMethod = models.PaymentMethodCash
		session, err := c.CreateCheckoutSession(context.Background(), &cash)
		require.NoError(t, err)
		require.NotNil(t, session.Details)
		assert.Equal(t, "77", session.Details.OrderID)
		assert.True(t, session.Details.DiscountCoupon)
		assert.True(t, session.Details.Total.Equal(decimal.NewFromInt(9)))
		assert.True(t, session.Details.OriginalTotal.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, 1, session.Details.Items[0].SelectedItems[0].Quantity)
		assert.Equal(t, models.OrderMethodSelfCollection, session.Details.OrderMethod)
	})
}

func TestOrderAPIClient_PaymentResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cs_9", r.URL.Query().Get("session_id"))
		switch r.URL.Path {
		case "/api/Stripe/payment-success":
			w.Write([]byte(`{"OrderId": 9, "OrderNumber": "A-9", "Status": "paid", "PaymentMethod": "stripe", "Items": []}`))
		case "/api/Stripe/payment-cancel":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	details, err := c.ConfirmSession(context.Background(), "cs_9")
	require.NoError(t, err)
	assert.Equal(t, "9", details.OrderID)
	assert.Equal(t, models.PaymentMethodCard, details.PaymentMethod)

	assert.NoError(t, c.CancelSession(context.Background(), "cs_9"))
}

func TestOrderAPIClient_Unreachable(t *testing.T) {
	c := NewOrderAPIClient(&OrderAPIConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	_, err := c.ListCategories(context.Background())
	var ce *CollaboratorError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "list categories", ce.Op)
}
