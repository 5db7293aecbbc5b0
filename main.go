package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/food-storefront/config"
	"github.com/yeremiapane/food-storefront/controllers"
	"github.com/yeremiapane/food-storefront/database"
	"github.com/yeremiapane/food-storefront/hub"
	"github.com/yeremiapane/food-storefront/middlewares"
	"github.com/yeremiapane/food-storefront/router"
	"github.com/yeremiapane/food-storefront/services"
	"github.com/yeremiapane/food-storefront/utils"
)

func init() {
	utils.InitLogger()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	utils.SetLogLevel(cfg.Server.LogLevel)

	if cfg.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg.Database)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}

	store := database.NewGormStateStore(db)
	orderAPI := services.NewOrderAPIClient(&cfg.OrderAPI)
	events := hub.NewSessionHub()

	registry := services.NewSessionRegistry(services.StorefrontDeps{
		Catalog:  orderAPI,
		Delivery: orderAPI,
		Coupons:  orderAPI,
		Payments: orderAPI,
		Store:    store,
		Events:   events,
	})

	// Background confirmation for customers who never return from the payment page
	monitor := services.NewSessionMonitor(registry, cfg.Monitor.RetryInterval, cfg.Monitor.MaxAttempts)
	registry.OnPendingPayment(monitor.Track)
	if pending, err := store.PendingSessions(context.Background()); err != nil {
		utils.ErrorLogger.Printf("Failed to load pending payment sessions: %v", err)
	} else {
		for key, id := range pending {
			monitor.Track(key, id)
		}
	}
	monitor.OnTick(func() { registry.EvictIdle(cfg.Monitor.SessionIdle) })
	monitor.Start()
	defer monitor.Stop()

	tokens := utils.NewSessionTokens(cfg.Session.Secret, cfg.Session.TokenTTL)
	r := router.SetupRouter(
		controllers.NewStorefrontController(registry, orderAPI),
		controllers.NewSessionController(registry, tokens, events, cfg.Server.AllowedOrigins),
		router.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Limiter:        middlewares.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
		},
	)
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		utils.ErrorLogger.Printf("Invalid trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.InfoLogger.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.ErrorLogger.Printf("Server forced to shutdown: %v", err)
	}
}
