package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/stagepass/stagepass-backend/api/routes"
	"github.com/stagepass/stagepass-backend/internal/catalog"
	"github.com/stagepass/stagepass-backend/internal/drops"
	"github.com/stagepass/stagepass-backend/internal/engagement"
	"github.com/stagepass/stagepass-backend/internal/payouts"
	"github.com/stagepass/stagepass-backend/internal/products"
	"github.com/stagepass/stagepass-backend/internal/purchases"
	"github.com/stagepass/stagepass-backend/internal/revenue"
	"github.com/stagepass/stagepass-backend/internal/social"
	stripewebhook "github.com/stagepass/stagepass-backend/internal/webhooks/stripe"
	"github.com/stagepass/stagepass-backend/pkg/config"
	"github.com/stagepass/stagepass-backend/pkg/db"
	"github.com/stagepass/stagepass-backend/pkg/logger"
	"github.com/stagepass/stagepass-backend/pkg/migrate"
	"github.com/stagepass/stagepass-backend/pkg/redis"
	"github.com/stagepass/stagepass-backend/pkg/square"
	"github.com/stagepass/stagepass-backend/pkg/stripe"
)

const webhookGuardTTL = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe client", err)
		os.Exit(1)
	}

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create square client", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	productsRepo := products.NewRepository(gormDB)
	purchasesRepo := purchases.NewRepository(gormDB)
	revenueRepo := revenue.NewRepository(gormDB)
	engagementRepo := engagement.NewRepository(gormDB)
	payoutsRepo := payouts.NewRepository(gormDB)
	dropsRepo := drops.NewRepository(gormDB)
	storefrontRepo := catalog.NewStorefrontRepository(gormDB)

	productService, err := products.NewService(productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	revenueService, err := revenue.NewService(revenueRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create revenue service", err)
		os.Exit(1)
	}

	engagementService, err := engagement.NewService(engagementRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create engagement service", err)
		os.Exit(1)
	}

	purchaseService, err := purchases.NewService(
		purchasesRepo,
		productsRepo,
		revenueService,
		engagementService,
		dbClient,
		purchases.NewStripeClient(stripeClient),
		cfg.Checkout.BaseURL,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase service", err)
		os.Exit(1)
	}

	payoutService, err := payouts.NewService(payoutsRepo, revenueService, dbClient, payouts.NewStripeClient(stripeClient))
	if err != nil {
		logg.Error(context.Background(), "failed to create payout service", err)
		os.Exit(1)
	}

	nativeProvider, err := catalog.NewNativeProvider(productsRepo, cfg.Checkout.BaseURL)
	if err != nil {
		logg.Error(context.Background(), "failed to create native catalog provider", err)
		os.Exit(1)
	}

	squareProvider, err := catalog.NewSquareProvider(storefrontRepo, squareClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create square catalog provider", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(nativeProvider, squareProvider, storefrontRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	dropService, err := drops.NewService(dropsRepo, dbClient, social.NewFollowStore(gormDB), social.NewRoomStore(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create drop service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Purchases: purchaseService,
		Payouts:   payoutService,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookGuardTTL, "stripe-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			purchaseService,
			revenueService,
			payoutService,
			engagementService,
			productService,
			catalogService,
			dropService,
			stripeClient,
			webhookService,
			webhookGuard,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
