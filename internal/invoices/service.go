package invoices

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/higujral/zcollabz/internal/ledger"
	"github.com/higujral/zcollabz/pkg/db"
	"github.com/higujral/zcollabz/pkg/db/models"
	"github.com/higujral/zcollabz/pkg/documents"
	"github.com/higujral/zcollabz/pkg/email"
	"github.com/higujral/zcollabz/pkg/enums"
	pkgerrors "github.com/higujral/zcollabz/pkg/errors"
	"github.com/higujral/zcollabz/pkg/logger"
	"github.com/higujral/zcollabz/pkg/metrics"
	"github.com/higujral/zcollabz/pkg/money"
	"github.com/higujral/zcollabz/pkg/storage"
	"github.com/higujral/zcollabz/pkg/stripe"
)

const (
	FlowInvoice     = "invoice"
	FlowPaymentLink = "payment_link"
)

type linkIssuer interface {
	CreatePriceAndLink(ctx context.Context, req stripe.LinkRequest) (*stripe.Link, error)
}

type documentRenderer interface {
	RenderInvoice(ctx context.Context, fields documents.InvoiceFields) ([]byte, error)
	RenderReceipt(ctx context.Context, fields documents.ReceiptFields) ([]byte, error)
}

type artifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	RetrievalURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Public() bool
}

type mailer interface {
	Enabled() bool
	Send(ctx context.Context, msg email.Message) bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes invoice, payment-link, receipt and email operations.
type Service interface {
	CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*InvoiceResult, error)
	CreatePaymentLink(ctx context.Context, input CreatePaymentLinkInput) (*PaymentLinkResult, error)
	IssueReceipt(ctx context.Context, input ReceiptInput) error
	SendInvoiceEmail(ctx context.Context, invoiceID uuid.UUID, message string) error
	SendReceiptEmail(ctx context.Context, invoiceID uuid.UUID) error
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
}

// ServiceParams groups the invoice service collaborators.
type ServiceParams struct {
	Repo         ledger.Repository
	DB           *db.Client
	Links        linkIssuer
	Renderer     documentRenderer
	Store        artifactStore
	Mailer       mailer
	Metrics      *metrics.Invoicing
	Logger       *logger.Logger
	CompanyName  string
	NumberPrefix string
	Currency     string
	DocumentTTL  time.Duration
}

type service struct {
	repo         ledger.Repository
	tx           txRunner
	links        linkIssuer
	renderer     documentRenderer
	store        artifactStore
	mailer       mailer
	metrics      *metrics.Invoicing
	logg         *logger.Logger
	company      string
	numberPrefix string
	currency     string
	documentTTL  time.Duration
	now          func() time.Time
	sequence     func(digits int) int
}

// NewService wires the invoice orchestrator.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("ledger repository required")
	}
	if params.Links == nil {
		return nil, errors.New("payment link issuer required")
	}
	if params.Renderer == nil {
		return nil, errors.New("document renderer required")
	}
	if params.Store == nil {
		return nil, errors.New("artifact store required")
	}
	if params.Mailer == nil {
		return nil, errors.New("mailer required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}

	svc := &service{
		repo:         params.Repo,
		links:        params.Links,
		renderer:     params.Renderer,
		store:        params.Store,
		mailer:       params.Mailer,
		metrics:      params.Metrics,
		logg:         params.Logger,
		company:      lo.CoalesceOrEmpty(strings.TrimSpace(params.CompanyName), "ZCollabz"),
		numberPrefix: params.NumberPrefix,
		currency:     lo.CoalesceOrEmpty(strings.ToLower(strings.TrimSpace(params.Currency)), "usd"),
		documentTTL:  lo.Ternary(params.DocumentTTL > 0, params.DocumentTTL, storage.DefaultRetrievalTTL),
		now:          time.Now,
		sequence:     randomSequence,
	}
	if params.DB != nil {
		svc.tx = params.DB
	}
	return svc, nil
}

func (s *service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*InvoiceResult, error) {
	input.ClientName = strings.TrimSpace(input.ClientName)
	input.ClientEmail = strings.TrimSpace(input.ClientEmail)
	input.ServiceName = strings.TrimSpace(input.ServiceName)
	if err := requireFields(map[string]string{
		"clientName":  input.ClientName,
		"clientEmail": input.ClientEmail,
		"serviceName": input.ServiceName,
	}); err != nil {
		return nil, err
	}
	unitAmount, err := money.ToMinorUnits(input.Amount)
	if err != nil {
		return nil, err
	}
	if input.Notes != nil && strings.TrimSpace(*input.Notes) == "" {
		input.Notes = nil
	}

	invoiceID := uuid.New()
	number, err := s.nextInvoiceNumber(ctx)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithInvoiceID(ctx, invoiceID.String())

	link, err := s.links.CreatePriceAndLink(ctx, stripe.LinkRequest{
		Currency:    s.currency,
		UnitAmount:  unitAmount,
		ProductName: input.ServiceName,
		Metadata: map[string]string{
			"invoiceId":     invoiceID.String(),
			"invoiceNumber": number,
			"clientName":    input.ClientName,
			"clientEmail":   input.ClientEmail,
		},
	})
	if err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		ID:             invoiceID,
		InvoiceNumber:  number,
		ClientName:     input.ClientName,
		ClientEmail:    input.ClientEmail,
		ServiceName:    input.ServiceName,
		Amount:         input.Amount.Round(2),
		Notes:          input.Notes,
		PaymentLinkURL: link.URL,
		Status:         enums.PaymentStatusPending,
	}
	txn := &models.Transaction{
		ClientName:     input.ClientName,
		ServiceName:    input.ServiceName,
		Amount:         invoice.Amount,
		PaymentLinkURL: link.URL,
		Status:         enums.PaymentStatusPending,
		InvoiceID:      &invoiceID,
	}

	if err := s.withTx(ctx, func(repo ledger.Repository) error {
		if err := repo.CreateInvoice(ctx, invoice); err != nil {
			return err
		}
		return repo.CreateTransaction(ctx, txn)
	}); err != nil {
		failCtx := s.logg.WithFields(ctx, map[string]any{
			"payment_link_url": link.URL,
			"number_race":      db.IsUniqueViolation(err, "invoice_number"),
		})
		s.logg.Error(failCtx, "invoice.persist_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "persist invoice")
	}
	s.metrics.IncCreated(FlowInvoice)

	if updated, err := s.attachInvoiceDocument(ctx, invoice); err != nil {
		s.logg.Error(ctx, "invoice.document_failed", err)
	} else {
		invoice = updated
	}

	s.logg.Info(s.logg.WithField(ctx, "invoice_number", invoice.InvoiceNumber), "invoice.created")
	return &InvoiceResult{Invoice: invoice, PaymentLink: link.URL}, nil
}

// attachInvoiceDocument renders, uploads and records the invoice PDF.
func (s *service) attachInvoiceDocument(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error) {
	pdf, err := s.renderer.RenderInvoice(ctx, documents.InvoiceFields{
		InvoiceNumber:  invoice.InvoiceNumber,
		ClientName:     invoice.ClientName,
		ClientEmail:    invoice.ClientEmail,
		ServiceName:    invoice.ServiceName,
		Amount:         invoice.Amount,
		PaymentLinkURL: invoice.PaymentLinkURL,
		Notes:          lo.FromPtr(invoice.Notes),
	})
	if err != nil {
		return nil, err
	}
	key := invoice.DocumentKey()
	if err := s.store.Put(ctx, key, pdf, storage.ContentTypePDF); err != nil {
		return nil, err
	}
	url, err := s.store.RetrievalURL(ctx, key, s.documentTTL)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateInvoice(ctx, invoice.ID, ledger.InvoicePatch{
		PDFURL: lo.ToPtr(url),
		PDFKey: lo.ToPtr(key),
	})
}

func (s *service) CreatePaymentLink(ctx context.Context, input CreatePaymentLinkInput) (*PaymentLinkResult, error) {
	input.ClientName = strings.TrimSpace(input.ClientName)
	input.ServiceName = strings.TrimSpace(input.ServiceName)
	if err := requireFields(map[string]string{
		"clientName":  input.ClientName,
		"serviceName": input.ServiceName,
	}); err != nil {
		return nil, err
	}
	unitAmount, err := money.ToMinorUnits(input.Amount)
	if err != nil {
		return nil, err
	}

	link, err := s.links.CreatePriceAndLink(ctx, stripe.LinkRequest{
		Currency:    s.currency,
		UnitAmount:  unitAmount,
		ProductName: input.ServiceName,
		Metadata: map[string]string{
			"clientName":  input.ClientName,
			"serviceName": input.ServiceName,
		},
	})
	if err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		ClientName:     input.ClientName,
		ServiceName:    input.ServiceName,
		Amount:         input.Amount.Round(2),
		PaymentLinkURL: link.URL,
		Status:         enums.PaymentStatusPending,
	}
	if err := s.repo.CreateTransaction(ctx, txn); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "payment_link_url", link.URL), "payment_link.persist_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "persist transaction")
	}
	s.metrics.IncCreated(FlowPaymentLink)

	s.logg.Info(s.logg.WithField(ctx, "transaction_id", txn.ID.String()), "payment_link.created")
	return &PaymentLinkResult{Transaction: txn, PaymentLink: link.URL}, nil
}

func (s *service) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	txns, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list transactions")
	}
	return txns, nil
}

func (s *service) withTx(ctx context.Context, fn func(repo ledger.Repository) error) error {
	if s.tx == nil {
		return fn(s.repo)
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(s.repo.WithTx(tx))
	})
}

// requireFields reports the first empty field, in a stable order.
func requireFields(fields map[string]string) error {
	for _, name := range []string{"clientName", "clientEmail", "serviceName"} {
		value, ok := fields[name]
		if ok && value == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, name+" is required").
				WithDetails(map[string]string{name: "is required"})
		}
	}
	return nil
}
