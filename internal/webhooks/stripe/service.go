package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/samber/lo"
	"github.com/stripe/stripe-go/v84"

	"github.com/higujral/zcollabz/internal/invoices"
	"github.com/higujral/zcollabz/internal/ledger"
	"github.com/higujral/zcollabz/pkg/db/models"
	"github.com/higujral/zcollabz/pkg/enums"
	pkgerrors "github.com/higujral/zcollabz/pkg/errors"
	"github.com/higujral/zcollabz/pkg/logger"
	"github.com/higujral/zcollabz/pkg/metrics"
	"github.com/higujral/zcollabz/pkg/pubsub"
	pkgstripe "github.com/higujral/zcollabz/pkg/stripe"
)

// Outcome labels how an event was routed.
type Outcome string

const (
	OutcomeIgnored   Outcome = "ignored"
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)

// StepPublish labels domain event publication failures.
const StepPublish = "publish"

type linkResolver interface {
	PaymentLinkURL(ctx context.Context, linkID string) (string, error)
	ChargeSummary(ctx context.Context, paymentIntentID string) (pkgstripe.ChargeSummary, error)
}

type receiptIssuer interface {
	IssueReceipt(ctx context.Context, input invoices.ReceiptInput) error
}

type eventPublisher interface {
	Publish(ctx context.Context, eventType, aggregateID string, data any) (string, error)
}

type ServiceParams struct {
	Repo      ledger.Repository
	Links     linkResolver
	Receipts  receiptIssuer
	Publisher eventPublisher
	Metrics   *metrics.Invoicing
	Logger    *logger.Logger
}

// Service reconciles Stripe checkout completions against the ledger.
type Service struct {
	repo      ledger.Repository
	links     linkResolver
	receipts  receiptIssuer
	publisher eventPublisher
	metrics   *metrics.Invoicing
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger repo required")
	}
	if params.Links == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.Receipts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "receipt issuer required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		repo:      params.Repo,
		links:     params.Links,
		receipts:  params.Receipts,
		publisher: params.Publisher,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       time.Now,
	}, nil
}

// HandleEvent applies a verified event. A returned error means the event
// should be redelivered; side-effect failures after the ledger writes are
// logged and never returned.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) (Outcome, error) {
	if event == nil || event.Data == nil {
		return OutcomeFailed, pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	ctx = s.logg.WithEventID(ctx, event.ID)
	eventType := string(event.Type)

	outcome, err := s.route(ctx, event)
	if err != nil {
		outcome = OutcomeFailed
	}
	s.metrics.IncWebhookEvent(eventType, string(outcome))
	return outcome, err
}

func (s *Service) route(ctx context.Context, event *stripe.Event) (Outcome, error) {
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		s.logg.Debug(s.logg.WithField(ctx, "event_type", string(event.Type)), "webhook.ignored")
		return OutcomeIgnored, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return OutcomeFailed, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}
	if session.PaymentLink == nil || session.PaymentLink.ID == "" {
		s.logg.Info(s.logg.WithField(ctx, "session_id", session.ID), "webhook.session_without_link")
		return OutcomeIgnored, nil
	}
	return s.completeCheckout(ctx, &session)
}

func (s *Service) completeCheckout(ctx context.Context, session *stripe.CheckoutSession) (Outcome, error) {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"session_id":      session.ID,
		"payment_link_id": session.PaymentLink.ID,
	})

	linkURL, err := s.links.PaymentLinkURL(ctx, session.PaymentLink.ID)
	if err != nil {
		return OutcomeFailed, err
	}

	invoice, err := s.repo.FindInvoiceByPaymentLink(ctx, linkURL)
	if err != nil {
		return OutcomeFailed, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find invoice by payment link")
	}

	var summary pkgstripe.ChargeSummary
	if invoice != nil && session.PaymentIntent != nil {
		summary, err = s.links.ChargeSummary(ctx, session.PaymentIntent.ID)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "webhook.charge_summary_unavailable")
			summary = pkgstripe.ChargeSummary{}
		}
	}

	paid := enums.PaymentStatusPaid
	count, err := s.repo.UpdateTransactionsWhere(ctx, linkURL, enums.PaymentStatusPending, ledger.TransactionPatch{
		Status:          &paid,
		StripeSessionID: lo.ToPtr(session.ID),
	})
	if err != nil {
		return OutcomeFailed, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update transactions")
	}
	s.logg.Info(s.logg.WithField(ctx, "transactions_updated", count), "webhook.transactions_paid")

	paidAt := s.now().UTC()
	if invoice == nil {
		if count == 0 {
			return OutcomeDuplicate, nil
		}
		s.publish(ctx, pubsub.EventTransactionPaid, linkURL, pubsub.PaymentCompleted{
			TransactionCount: count,
			PaymentLinkURL:   linkURL,
			SessionID:        session.ID,
			PaidAt:           paidAt,
		})
		return OutcomeProcessed, nil
	}

	ctx = s.logg.WithInvoiceID(ctx, invoice.ID.String())
	patch := ledger.InvoicePatch{
		Status:          &paid,
		PaidAt:          &paidAt,
		StripeSessionID: lo.ToPtr(session.ID),
	}
	if summary.ReceiptURL != "" {
		patch.StripeReceiptURL = lo.ToPtr(summary.ReceiptURL)
	}
	won, err := s.repo.UpdateInvoiceWhere(ctx, invoice.ID, enums.PaymentStatusPending, patch)
	if err != nil {
		return OutcomeFailed, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark invoice paid")
	}
	if won == 0 {
		s.logg.Info(ctx, "webhook.invoice_already_paid")
		return OutcomeDuplicate, nil
	}

	invoice.Status = paid
	invoice.PaidAt = &paidAt
	invoice.StripeSessionID = patch.StripeSessionID
	invoice.StripeReceiptURL = patch.StripeReceiptURL
	s.issueReceipt(ctx, invoice, paidAt, summary)

	s.publish(ctx, pubsub.EventInvoicePaid, invoice.ID.String(), pubsub.PaymentCompleted{
		InvoiceID:        lo.ToPtr(invoice.ID.String()),
		InvoiceNumber:    lo.ToPtr(invoice.InvoiceNumber),
		TransactionCount: count,
		PaymentLinkURL:   linkURL,
		SessionID:        session.ID,
		PaidAt:           paidAt,
	})
	return OutcomeProcessed, nil
}

func (s *Service) issueReceipt(ctx context.Context, invoice *models.Invoice, paidAt time.Time, summary pkgstripe.ChargeSummary) {
	err := s.receipts.IssueReceipt(ctx, invoices.ReceiptInput{
		Invoice:          invoice,
		PaidAt:           paidAt,
		PaymentMethod:    summary.PaymentMethod,
		StripeReceiptURL: summary.ReceiptURL,
	})
	if err == nil {
		return
	}
	step := "receipt"
	var stepErr *invoices.StepError
	if errors.As(err, &stepErr) {
		step = stepErr.Step
	}
	s.metrics.IncSideEffectFailure(step)
	s.logg.Error(s.logg.WithField(ctx, "step", step), "webhook.receipt_failed", err)
}

func (s *Service) publish(ctx context.Context, eventType, aggregateID string, data pubsub.PaymentCompleted) {
	if s.publisher == nil {
		return
	}
	messageID, err := s.publisher.Publish(ctx, eventType, aggregateID, data)
	if err != nil {
		s.metrics.IncSideEffectFailure(StepPublish)
		s.logg.Error(s.logg.WithField(ctx, "event_type", eventType), "webhook.publish_failed", err)
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"event_type": eventType, "message_id": messageID}), "webhook.published")
}
