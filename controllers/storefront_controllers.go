package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/food-storefront/middlewares"
	"github.com/yeremiapane/food-storefront/models"
	"github.com/yeremiapane/food-storefront/services"
	"github.com/yeremiapane/food-storefront/utils"
)

type StorefrontController struct {
	Registry *services.SessionRegistry
	Delivery services.Delivery
}

func NewStorefrontController(registry *services.SessionRegistry, delivery services.Delivery) *StorefrontController {
	return &StorefrontController{Registry: registry, Delivery: delivery}
}

// storefront resolves the caller's storefront or answers the request itself.
func (sc *StorefrontController) storefront(c *gin.Context) (*services.Storefront, bool) {
	sf, err := sc.Registry.Get(c.Request.Context(), middlewares.SessionKey(c))
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	return sf, true
}

func basketIndex(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid basket index"))
		return 0, false
	}
	return i, true
}

// GetMenu lists the menu by category. ?q= filters items.
func (sc *StorefrontController) GetMenu(c *gin.Context) {
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	sections, err := sf.Menu(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", sections)
}

func (sc *StorefrontController) GetPostalCodes(c *gin.Context) {
	codes, err := sc.Delivery.ListPostalCodes(c.Request.Context())
	if err != nil {
		respondServiceError(c, services.WrapCollaboratorError("list postal codes", err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Postal codes", codes)
}

func (sc *StorefrontController) GetAddresses(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid postal code id"))
		return
	}
	addresses, err := sc.Delivery.ListAddresses(c.Request.Context(), uint(id))
	if err != nil {
		respondServiceError(c, services.WrapCollaboratorError("list addresses", err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Addresses", addresses)
}

func (sc *StorefrontController) GetStorefront(c *gin.Context) {
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Storefront", sf.View())
}

func (sc *StorefrontController) OpenCustomization(c *gin.Context) {
	var req struct {
		ItemID uint `json:"item_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	view, err := sf.OpenCustomization(c.Request.Context(), req.ItemID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customization opened", view)
}

func (sc *StorefrontController) GetCustomization(c *gin.Context) {
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	view, err := sf.Customization()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customization", view)
}

func (sc *StorefrontController) CloseCustomization(c *gin.Context) {
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	sf.CloseCustomization()
	utils.RespondJSON(c, http.StatusOK, "Customization closed", nil)
}

func (sc *StorefrontController) ToggleOption(c *gin.Context) {
	var ref models.OptionRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	view, err := sf.ToggleOption(ref)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Option toggled", view)
}

func (sc *StorefrontController) AdjustOption(c *gin.Context) {
	var req struct {
		models.OptionRef
		Delta int `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	view, err := sf.AdjustOptionQuantity(req.OptionRef, req.Delta)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Option quantity updated", view)
}

func (sc *StorefrontController) SetCustomizationQuantity(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	view, err := sf.SetCustomizationQuantity(req.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Quantity updated", view)
}

func (sc *StorefrontController) AddToBasket(c *gin.Context) {
	var req struct {
		Note string `json:"note"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
	}
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	view, err := sf.AddToBasket(c.Request.Context(), req.Note)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Added to basket", view)
}

func (sc *StorefrontController) IncrementItem(c *gin.Context) {
	sc.mutateItem(c, "Quantity increased", (*services.Storefront).IncrementBasketItem)
}

func (sc *StorefrontController) DecrementItem(c *gin.Context) {
	sc.mutateItem(c, "Quantity decreased", (*services.Storefront).DecrementBasketItem)
}

func (sc *StorefrontController) RemoveItem(c *gin.Context) {
	sc.mutateItem(c, "Item removed", (*services.Storefront).RemoveBasketItem)
}

type itemMutation func(*services.Storefront, context.Context, int) (*services.StorefrontView, error)

func (sc *StorefrontController) mutateItem(c *gin.Context, message string, op itemMutation) {
	i, ok := basketIndex(c)
	if !ok {
		return
	}
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	view, err := op(sf, c.Request.Context(), i)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, message, view)
}

func (sc *StorefrontController) ApplyCoupon(c *gin.Context) {
	var req struct {
		Code  string `json:"code"`
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	view, err := sf.ApplyCoupon(c.Request.Context(), req.Code, req.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Coupon applied", view)
}

func (sc *StorefrontController) RemoveCoupon(c *gin.Context) {
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	view, err := sf.RemoveCoupon(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Coupon removed", view)
}

func (sc *StorefrontController) DismissNotice(c *gin.Context) {
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	sf.DismissNotice()
	utils.RespondJSON(c, http.StatusOK, "Notice dismissed", sf.View())
}

func (sc *StorefrontController) SetOrderMethod(c *gin.Context) {
	var req struct {
		OrderMethod models.OrderMethod `json:"order_method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	view, err := sf.SetOrderMethod(c.Request.Context(), req.OrderMethod)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order method updated", view)
}

func (sc *StorefrontController) SetPaymentMethod(c *gin.Context) {
	var req struct {
		PaymentMethod models.PaymentMethod `json:"payment_method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	view, err := sf.SetPaymentMethod(c.Request.Context(), req.PaymentMethod)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment method updated", view)
}

func (sc *StorefrontController) SaveCheckoutForm(c *gin.Context) {
	var form models.CheckoutForm
	if err := c.ShouldBindJSON(&form); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Checkout details saved", sf.SaveCheckoutForm(c.Request.Context(), form))
}

type checkoutRequest struct {
	Customer      models.CustomerInfo  `json:"customer"`
	OrderMethod   models.OrderMethod   `json:"order_method"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
}

// SubmitCheckout places the order. Card payments answer with the payment page
// URL, cash payments with the confirmed order.
func (sc *StorefrontController) SubmitCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}

	form := models.CheckoutForm{Customer: req.Customer, OrderMethod: req.OrderMethod}
	result, err := sf.SubmitCheckout(c.Request.Context(), form, req.PaymentMethod)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if result.Order != nil {
		utils.RespondJSON(c, http.StatusCreated, "Order placed", result)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Redirect to payment", result)
}

func (sc *StorefrontController) PaymentSuccess(c *gin.Context) {
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	details, err := sf.ConfirmPayment(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment confirmed", details)
}

func (sc *StorefrontController) PaymentCancel(c *gin.Context) {
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	view, err := sf.CancelPayment(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		// local state is reset even when the provider call fails
		utils.ErrorLogger.WithField("session", sf.Key()).Errorf("payment cancel: %v", err)
	}
	utils.RespondJSON(c, http.StatusOK, "Payment cancelled", view)
}

func (sc *StorefrontController) StartNewOrder(c *gin.Context) {
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "New order started", sf.StartNewOrder(c.Request.Context()))
}

func (sc *StorefrontController) GetLastOrder(c *gin.Context) {
	sf, ok := sc.storefront(c)
	if !ok {
		return
	}
	order := sf.LastOrder()
	if order == nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("no order has been placed in this session"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Last order", order)
}
