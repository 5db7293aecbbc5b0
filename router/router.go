package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/food-storefront/controllers"
	"github.com/yeremiapane/food-storefront/middlewares"
)

// Options carries what the router needs from main.
type Options struct {
	AllowedOrigins []string
	Limiter        *middlewares.RateLimiter
}

func SetupRouter(storefront *controllers.StorefrontController, sessions *controllers.SessionController, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(opts.AllowedOrigins))

	limiter := opts.Limiter
	if limiter == nil {
		limiter = middlewares.NewRateLimiter(5, 10)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/session", limiter.RateLimit(), sessions.CreateSession)
	api.GET("/postcodes", storefront.GetPostalCodes)
	api.GET("/postcodes/:id/addresses", storefront.GetAddresses)

	session := api.Group("")
	session.Use(middlewares.SessionMiddleware(sessions.Tokens))
	{
		session.GET("/ws", sessions.Events)
		session.GET("/menu", storefront.GetMenu)
		session.GET("/storefront", storefront.GetStorefront)

		custom := session.Group("/customization")
		custom.POST("", storefront.OpenCustomization)
		custom.GET("", storefront.GetCustomization)
		custom.DELETE("", storefront.CloseCustomization)
		custom.POST("/options/toggle", storefront.ToggleOption)
		custom.POST("/options/adjust", storefront.AdjustOption)
		custom.PUT("/quantity", storefront.SetCustomizationQuantity)

		basket := session.Group("/basket")
		basket.POST("", storefront.AddToBasket)
		basket.POST("/:index/increment", storefront.IncrementItem)
		basket.POST("/:index/decrement", storefront.DecrementItem)
		basket.DELETE("/:index", storefront.RemoveItem)

		session.POST("/coupon", limiter.RateLimit(), storefront.ApplyCoupon)
		session.DELETE("/coupon", storefront.RemoveCoupon)
		session.DELETE("/notice", storefront.DismissNotice)

		checkout := session.Group("/checkout")
		checkout.PUT("/order-method", storefront.SetOrderMethod)
		checkout.PUT("/payment-method", storefront.SetPaymentMethod)
		checkout.PUT("/form", storefront.SaveCheckoutForm)
		checkout.POST("", limiter.RateLimit(), storefront.SubmitCheckout)
		checkout.GET("/success", storefront.PaymentSuccess)
		checkout.GET("/cancel", storefront.PaymentCancel)

		orders := session.Group("/orders")
		orders.POST("/new", storefront.StartNewOrder)
		orders.GET("/last", storefront.GetLastOrder)
	}

	return r
}
