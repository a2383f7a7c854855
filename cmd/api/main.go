package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bivex/stripe-gateway/internal/application/command"
	"github.com/bivex/stripe-gateway/internal/application/middleware"
	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/domain/service"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
	"github.com/bivex/stripe-gateway/internal/infrastructure/config"
	"github.com/bivex/stripe-gateway/internal/infrastructure/gateway/stripegw"
	"github.com/bivex/stripe-gateway/internal/infrastructure/lock"
	"github.com/bivex/stripe-gateway/internal/infrastructure/logging"
	"github.com/bivex/stripe-gateway/internal/infrastructure/persistence/pool"
	"github.com/bivex/stripe-gateway/internal/infrastructure/persistence/repository"
	app_handler "github.com/bivex/stripe-gateway/internal/interfaces/http/handlers"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logging.Init(&cfg.Sentry); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logging.Sync()

	mode := valueobject.ModeLive
	if cfg.Stripe.TestMode {
		mode = valueobject.ModeSandbox
	}
	gctx := gateway.Context{Mode: mode, APIVersion: cfg.Stripe.APIVersion}

	logging.Logger.Info("Starting payment gateway API server",
		zap.Int("port", cfg.Server.Port),
		zap.String("mode", mode.String()),
		zap.String("environment", cfg.Sentry.Environment),
	)

	// Initialize database connection
	ctx := context.Background()
	dbPool, err := pool.NewPool(ctx, cfg.Database)
	if err != nil {
		logging.Logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close(dbPool)

	if err := pool.Ping(ctx, dbPool); err != nil {
		logging.Logger.Fatal("Failed to ping database", zap.Error(err))
	}

	// Initialize Redis
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logging.Logger.Fatal("Failed to parse Redis URL", zap.Error(err))
	}
	opts.PoolSize = cfg.Redis.PoolSize
	redisClient := redis.NewClient(opts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logging.Logger.Fatal("Failed to ping Redis", zap.Error(err))
	}

	// Initialize repositories
	txnRepo := repository.NewTransactionRepository(dbPool)
	refundRepo := repository.NewRefundRepository(dbPool)
	subRepo := repository.NewSubscriptionRepository(dbPool)
	customerRepo := repository.NewCustomerRepository(dbPool)
	tokenRepo := repository.NewPaymentTokenRepository(dbPool)
	planRepo := repository.NewPlanRepository(dbPool)

	// Initialize gateway client and locker
	gatewayClient := stripegw.New(cfg.Stripe)
	locker := lock.NewRedisLocker(redisClient)

	// Initialize services
	provisioner := service.NewCustomerProvisioner(customerRepo, tokenRepo, gatewayClient)
	planResolver := service.NewPlanResolver(planRepo, gatewayClient, cfg.Stripe.Currency)
	reconciler := service.NewWebhookReconciler(txnRepo, refundRepo, subRepo, customerRepo, tokenRepo, gatewayClient)

	// Initialize middleware
	jwtMiddleware := middleware.NewJWTMiddleware(cfg.JWT.Secret, redisClient, cfg.JWT.AccessTTL)
	rateLimiter := middleware.NewRateLimiter(redisClient, true) // fail open

	// Initialize commands
	purchaseCmd := command.NewPurchaseCommand(txnRepo, subRepo, tokenRepo, provisioner, planResolver, gatewayClient)
	tokenizeCmd := command.NewTokenizeCommand(provisioner)
	expiryCmd := command.NewUpdateTokenExpiryCommand(provisioner)
	refundCmd := command.NewRefundCommand(txnRepo, refundRepo, gatewayClient, locker, cfg.Stripe.LockTTL)
	cancelCmd := command.NewCancelSubscriptionCommand(subRepo, gatewayClient, locker, cfg.Stripe.LockTTL)
	pauseCmd := command.NewPauseSubscriptionCommand(subRepo, gatewayClient, locker, cfg.Stripe.LockTTL)
	resumeCmd := command.NewResumeSubscriptionCommand(subRepo, gatewayClient, locker, cfg.Stripe.LockTTL)
	paymentMethodCmd := command.NewUpdatePaymentMethodCommand(subRepo, tokenRepo, customerRepo, gatewayClient)

	// Initialize handlers
	checkoutHandler := app_handler.NewCheckoutHandler(purchaseCmd, gctx)
	tokenHandler := app_handler.NewTokenHandler(tokenizeCmd, expiryCmd, gctx)
	subscriptionHandler := app_handler.NewSubscriptionHandler(cancelCmd, pauseCmd, resumeCmd, paymentMethodCmd, gctx)
	adminHandler := app_handler.NewAdminHandler(refundCmd, gctx)
	webhookHandler := app_handler.NewWebhookHandler(reconciler, cfg.Stripe.WebhookSecret, gctx)

	// Setup Gin router
	if cfg.Sentry.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		logging.RequestMiddleware(logging.Logger),
	)

	// Health check endpoint (no auth required)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Webhook routes (no auth — verified by signature)
	webhooks := router.Group("/webhook")
	{
		webhooks.POST("/stripe",
			rateLimiter.Middleware(middleware.ByIP, middleware.WebhookConfig),
			webhookHandler.Receive,
		)
	}

	// API v1 routes
	v1 := router.Group("/v1")

	// Checkout admits guests; a presented token must still be valid.
	v1.POST("/checkout",
		jwtMiddleware.AuthenticateOptional(),
		rateLimiter.Middleware(middleware.ByUserID, middleware.CheckoutConfig),
		checkoutHandler.Checkout,
	)

	authed := v1.Group("")
	authed.Use(jwtMiddleware.Authenticate())
	{
		tokens := authed.Group("/tokens")
		tokens.Use(rateLimiter.Middleware(middleware.ByUserID, middleware.TokenConfig))
		{
			tokens.POST("", tokenHandler.Tokenize)
			tokens.PATCH("/:id", tokenHandler.UpdateExpiry)
		}

		subs := authed.Group("/subscriptions")
		{
			subs.DELETE("/:id", subscriptionHandler.Cancel)
			subs.POST("/:id/pause", subscriptionHandler.Pause)
			subs.POST("/:id/resume", subscriptionHandler.Resume)
			subs.PUT("/:id/payment-method", subscriptionHandler.UpdatePaymentMethod)
		}

		admin := authed.Group("/admin")
		admin.Use(middleware.AdminOnly())
		admin.Use(rateLimiter.Middleware(middleware.ByUserID, middleware.AdminConfig))
		{
			admin.POST("/transactions/:id/refund", adminHandler.Refund)
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Graceful shutdown
	go func() {
		logging.Logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logging.Logger.Info("Server exited")
}
