package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/higujral/zcollabz/api/controllers"
	webhookcontrollers "github.com/higujral/zcollabz/api/controllers/webhooks"
	"github.com/higujral/zcollabz/api/middleware"
	"github.com/higujral/zcollabz/internal/invoices"
	"github.com/higujral/zcollabz/pkg/config"
	"github.com/higujral/zcollabz/pkg/logger"
	"github.com/higujral/zcollabz/pkg/metrics"
	"github.com/higujral/zcollabz/pkg/redis"
)

// Params wires the HTTP surface. Idempotency, WebhookGuard and Gatherer are optional.
type Params struct {
	Config          *config.Config
	Logger          *logger.Logger
	Metrics         *metrics.Invoicing
	Gatherer        prometheus.Gatherer
	ReadinessChecks []controllers.ReadinessCheck
	Idempotency     redis.IdempotencyStore
	Invoices        invoices.Service
	Webhooks        webhookcontrollers.StripeWebhookService
	Verifier        webhookcontrollers.EventVerifier
	WebhookGuard    webhookcontrollers.EventGuard
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, p.Metrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.ReadinessChecks...))
	})
	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	idempotent := middleware.Idempotency(p.Idempotency, logg)
	r.With(idempotent).Post("/create-invoice", controllers.CreateInvoice(p.Invoices, logg))
	r.With(idempotent).Post("/create-payment-link", controllers.CreatePaymentLink(p.Invoices, logg))
	r.Post("/send-invoice-email", controllers.SendInvoiceEmail(p.Invoices, logg))
	r.Post("/send-receipt-email", controllers.SendReceiptEmail(p.Invoices, logg))
	r.Get("/transactions", controllers.ListTransactions(p.Invoices, logg))

	webhook := webhookcontrollers.StripeWebhook(p.Webhooks, p.Verifier, p.WebhookGuard, logg)
	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/payment-events", webhook)
		r.Post("/stripe", webhook)
	})

	return r
}
