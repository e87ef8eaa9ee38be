package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/higujral/zcollabz/api/controllers"
	webhookcontrollers "github.com/higujral/zcollabz/api/controllers/webhooks"
	"github.com/higujral/zcollabz/api/routes"
	"github.com/higujral/zcollabz/internal/invoices"
	"github.com/higujral/zcollabz/internal/ledger"
	stripewebhook "github.com/higujral/zcollabz/internal/webhooks/stripe"
	"github.com/higujral/zcollabz/pkg/config"
	"github.com/higujral/zcollabz/pkg/db"
	"github.com/higujral/zcollabz/pkg/documents"
	"github.com/higujral/zcollabz/pkg/email"
	"github.com/higujral/zcollabz/pkg/logger"
	"github.com/higujral/zcollabz/pkg/metrics"
	"github.com/higujral/zcollabz/pkg/migrate"
	"github.com/higujral/zcollabz/pkg/pubsub"
	"github.com/higujral/zcollabz/pkg/redis"
	"github.com/higujral/zcollabz/pkg/storage"
	"github.com/higujral/zcollabz/pkg/storage/gcs"
	"github.com/higujral/zcollabz/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error
	defer func() {
		var errs error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = multierr.Append(errs, closers[i]())
		}
		if errs != nil {
			logg.Error(context.Background(), "error releasing resources", errs)
		}
	}()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	closers = append(closers, dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	invoicingMetrics := metrics.NewInvoicing(registry)

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, stripe.Options{
		ConfirmationMessage: cfg.Invoice.ConfirmationMessage,
	}, logg)
	requireResource(ctx, logg, "stripe", err)

	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	requireResource(ctx, logg, "gcs", err)
	store, err := storage.NewStore(gcsClient, cfg.GCS)
	requireResource(ctx, logg, "artifact store", err)

	renderer, err := documents.NewRenderer(cfg.PDF, cfg.Invoice.CompanyName, logg)
	requireResource(ctx, logg, "document renderer", err)

	mailer := email.NewMailer(cfg.Sendgrid, logg)
	mailer.OnDelivery(invoicingMetrics.ObserveEmail)
	if !mailer.Enabled() {
		logg.Warn(ctx, "sendgrid not configured, email delivery disabled")
	}

	checks := []controllers.ReadinessCheck{
		{Name: "database", Pinger: dbClient},
		{Name: "store", Pinger: store},
	}

	var (
		idempotencyStore redis.IdempotencyStore
		webhookGuard     webhookcontrollers.EventGuard
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		closers = append(closers, redisClient.Close)

		guard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Redis.EventTTL, stripewebhook.GuardScope)
		requireResource(ctx, logg, "webhook guard", err)

		idempotencyStore = redisClient
		webhookGuard = guard
		checks = append(checks, controllers.ReadinessCheck{Name: "redis", Pinger: redisClient})
	}

	repo := ledger.NewRepository(dbClient.DB())

	invoiceService, err := invoices.NewService(invoices.ServiceParams{
		Repo:         repo,
		DB:           dbClient,
		Links:        stripeClient,
		Renderer:     renderer,
		Store:        store,
		Mailer:       mailer,
		Metrics:      invoicingMetrics,
		Logger:       logg,
		CompanyName:  cfg.Invoice.CompanyName,
		NumberPrefix: cfg.Invoice.NumberPrefix,
		Currency:     cfg.Invoice.Currency,
		DocumentTTL:  cfg.GCS.DownloadURLExpiry,
	})
	requireResource(ctx, logg, "invoice service", err)

	webhookParams := stripewebhook.ServiceParams{
		Repo:     repo,
		Links:    stripeClient,
		Receipts: invoiceService,
		Metrics:  invoicingMetrics,
		Logger:   logg,
	}
	if cfg.PubSub.PaymentsTopic != "" {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		requireResource(ctx, logg, "pubsub", err)
		closers = append(closers, psClient.Close)

		publisher, err := pubsub.NewEventPublisher(psClient.PaymentsPublisher())
		requireResource(ctx, logg, "pubsub publisher", err)
		webhookParams.Publisher = publisher
		checks = append(checks, controllers.ReadinessCheck{Name: "pubsub", Pinger: psClient})
	}
	webhookService, err := stripewebhook.NewService(webhookParams)
	requireResource(ctx, logg, "webhook service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
		"pdf_engine": cfg.PDF.Engine,
	})
	logg.Info(serverCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:          cfg,
			Logger:          logg,
			Metrics:         invoicingMetrics,
			Gatherer:        registry,
			ReadinessChecks: checks,
			Idempotency:     idempotencyStore,
			Invoices:        invoiceService,
			Webhooks:        webhookService,
			Verifier:        stripeClient,
			WebhookGuard:    webhookGuard,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(serverCtx, "graceful shutdown failed", err)
		}
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
