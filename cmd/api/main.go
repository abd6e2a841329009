package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	svix "github.com/svix/svix-webhooks/go"
	"go.uber.org/multierr"

	"github.com/oskaz/oskaz-api/api/routes"
	"github.com/oskaz/oskaz-api/internal/cart"
	"github.com/oskaz/oskaz-api/internal/catalog"
	"github.com/oskaz/oskaz-api/internal/customers"
	"github.com/oskaz/oskaz-api/internal/orders"
	"github.com/oskaz/oskaz-api/internal/prefs"
	"github.com/oskaz/oskaz-api/internal/toast"
	clerkwebhook "github.com/oskaz/oskaz-api/internal/webhooks/clerk"
	"github.com/oskaz/oskaz-api/pkg/config"
	"github.com/oskaz/oskaz-api/pkg/db"
	"github.com/oskaz/oskaz-api/pkg/erp"
	"github.com/oskaz/oskaz-api/pkg/logger"
	"github.com/oskaz/oskaz-api/pkg/metrics"
	"github.com/oskaz/oskaz-api/pkg/migrate"
	"github.com/oskaz/oskaz-api/pkg/redis"
	"github.com/oskaz/oskaz-api/pkg/snapshot"
)

const shutdownTimeout = 10 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	erpClient, err := erp.NewClient(cfg.ERP)
	if err != nil {
		logg.Error(ctx, "failed to build erp client", err)
		os.Exit(1)
	}

	snapshots, err := snapshot.New(cfg.Cart, redisClient, dbClient)
	if err != nil {
		logg.Error(ctx, "failed to build snapshot store", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	sweepMetrics := metrics.NewSweepMetrics(registry)

	toastCenter, err := toast.NewCenter(cfg.Toast.VisibleFor, toast.WithSweepObserver(sweepMetrics))
	if err != nil {
		logg.Error(ctx, "failed to build toast center", err)
		os.Exit(1)
	}
	clampNotifier, err := toast.NewClampNotifier(toastCenter)
	if err != nil {
		logg.Error(ctx, "failed to build clamp notifier", err)
		os.Exit(1)
	}

	cartManager := cart.NewManager(snapshots, logg, clampNotifier, cfg.Cart.IdleEviction, cart.WithSweepObserver(sweepMetrics))
	go cartManager.Run(ctx, cfg.Cart.IdleEviction)
	go toastCenter.Run(ctx, cfg.Toast.SweepInterval)

	customerService, err := customers.NewService(erpClient)
	if err != nil {
		logg.Error(ctx, "failed to build customer service", err)
		os.Exit(1)
	}
	catalogService, err := catalog.NewService(erpClient)
	if err != nil {
		logg.Error(ctx, "failed to build catalog service", err)
		os.Exit(1)
	}
	orderService, err := orders.NewService(erpClient, customerService)
	if err != nil {
		logg.Error(ctx, "failed to build order service", err)
		os.Exit(1)
	}
	prefsService, err := prefs.NewService(snapshots, logg)
	if err != nil {
		logg.Error(ctx, "failed to build preferences service", err)
		os.Exit(1)
	}

	verifier, err := svix.NewWebhook(cfg.Webhook.SigningSecret)
	if err != nil {
		logg.Error(ctx, "failed to build webhook verifier", err)
		os.Exit(1)
	}
	webhookRepo, err := clerkwebhook.NewRepository(dbClient.DB())
	if err != nil {
		logg.Error(ctx, "failed to build webhook repository", err)
		os.Exit(1)
	}
	webhookService, err := clerkwebhook.NewService(clerkwebhook.ServiceParams{
		Customers: customerService,
		Audit:     webhookRepo,
	})
	if err != nil {
		logg.Error(ctx, "failed to build webhook service", err)
		os.Exit(1)
	}
	webhookGuard, err := clerkwebhook.NewIdempotencyGuard(redisClient, cfg.Webhook.IdempotencyTTL, "clerk")
	if err != nil {
		logg.Error(ctx, "failed to build idempotency guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			ERP:          erpClient,
			CartManager:  cartManager,
			ToastCenter:  toastCenter,
			Preferences:  prefsService,
			Customers:    customerService,
			Catalog:      catalogService,
			Orders:       orderService,
			WebhookSvc:   webhookService,
			WebhookGuard: webhookGuard,
			Verifier:     verifier,
			HTTPMetrics:  httpMetrics,
			Gatherer:     registry,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(startCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(startCtx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(startCtx, "graceful shutdown failed", err)
		}
	}
}
