package invoices

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"

	"github.com/higujral/zcollabz/internal/ledger"
	"github.com/higujral/zcollabz/pkg/db/models"
	"github.com/higujral/zcollabz/pkg/documents"
	"github.com/higujral/zcollabz/pkg/email"
	"github.com/higujral/zcollabz/pkg/enums"
	pkgerrors "github.com/higujral/zcollabz/pkg/errors"
	"github.com/higujral/zcollabz/pkg/logger"
	"github.com/higujral/zcollabz/pkg/stripe"
)

const testLinkURL = "https://buy.stripe.com/test_abc"

type fakeLinks struct {
	calls []stripe.LinkRequest
	err   error
}

func (f *fakeLinks) CreatePriceAndLink(_ context.Context, req stripe.LinkRequest) (*stripe.Link, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.Link{PriceID: "price_1", LinkID: "plink_1", URL: testLinkURL}, nil
}

type fakeRenderer struct {
	invoiceErr error
	receiptErr error
	invoices   []documents.InvoiceFields
	receipts   []documents.ReceiptFields
}

func (f *fakeRenderer) RenderInvoice(_ context.Context, fields documents.InvoiceFields) ([]byte, error) {
	f.invoices = append(f.invoices, fields)
	if f.invoiceErr != nil {
		return nil, f.invoiceErr
	}
	return []byte("%PDF-invoice"), nil
}

func (f *fakeRenderer) RenderReceipt(_ context.Context, fields documents.ReceiptFields) ([]byte, error) {
	f.receipts = append(f.receipts, fields)
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	return []byte("%PDF-receipt"), nil
}

type fakeStore struct {
	puts   map[string]string
	putErr error
	urlErr error
	signed bool
}

func (f *fakeStore) Public() bool { return !f.signed }

func (f *fakeStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	if f.puts == nil {
		f.puts = map[string]string{}
	}
	f.puts[key] = contentType
	return nil
}

func (f *fakeStore) RetrievalURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.urlErr != nil {
		return "", f.urlErr
	}
	return "https://files.example.com/" + key, nil
}

type fakeMailer struct {
	enabled bool
	fail    bool
	sent    []email.Message
}

func (f *fakeMailer) Enabled() bool { return f.enabled }

func (f *fakeMailer) Send(_ context.Context, msg email.Message) bool {
	if !f.enabled {
		return false
	}
	f.sent = append(f.sent, msg)
	return !f.fail
}

type passthroughTx struct{ calls int }

func (p *passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	p.calls++
	return fn(nil)
}

type fixture struct {
	repo     *ledger.MockRepository
	links    *fakeLinks
	renderer *fakeRenderer
	store    *fakeStore
	mailer   *fakeMailer
	svc      *service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		repo:     ledger.NewMockRepository(ctrl),
		links:    &fakeLinks{},
		renderer: &fakeRenderer{},
		store:    &fakeStore{},
		mailer:   &fakeMailer{enabled: true},
	}
	svc, err := NewService(ServiceParams{
		Repo:         f.repo,
		Links:        f.links,
		Renderer:     f.renderer,
		Store:        f.store,
		Mailer:       f.mailer,
		Logger:       logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		CompanyName:  "ZCollabz",
		NumberPrefix: "ZC",
	})
	require.NoError(t, err)
	f.svc = svc.(*service)
	f.svc.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	f.svc.sequence = func(int) int { return 4242 }
	return f
}

func validInvoiceInput() CreateInvoiceInput {
	return CreateInvoiceInput{
		ClientName:  "Acme",
		ClientEmail: "a@x.com",
		ServiceName: "Design",
		Amount:      decimal.RequireFromString("500.00"),
	}
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}

func TestService_CreateInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var created *models.Invoice
	f.repo.EXPECT().InvoiceNumberExists(gomock.Any(), "ZC-2026-4242").Return(false, nil)
	f.repo.EXPECT().CreateInvoice(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, inv *models.Invoice) error {
			created = inv
			return nil
		})
	f.repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, txn *models.Transaction) error {
			require.NotNil(t, txn.InvoiceID)
			assert.Equal(t, created.ID, *txn.InvoiceID)
			assert.Equal(t, enums.PaymentStatusPending, txn.Status)
			assert.Equal(t, testLinkURL, txn.PaymentLinkURL)
			return nil
		})
	f.repo.EXPECT().UpdateInvoice(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id uuid.UUID, patch ledger.InvoicePatch) (*models.Invoice, error) {
			out := *created
			out.PDFURL = patch.PDFURL
			out.PDFKey = patch.PDFKey
			return &out, nil
		})

	res, err := f.svc.CreateInvoice(ctx, validInvoiceInput())
	require.NoError(t, err)

	assert.Equal(t, testLinkURL, res.PaymentLink)
	assert.Equal(t, enums.PaymentStatusPending, res.Invoice.Status)
	assert.Equal(t, "ZC-2026-4242", res.Invoice.InvoiceNumber)
	assert.Equal(t, testLinkURL, res.Invoice.PaymentLinkURL)
	require.NotNil(t, res.Invoice.PDFURL)
	assert.Equal(t, "https://files.example.com/invoices/"+created.ID.String()+".pdf", *res.Invoice.PDFURL)
	assert.Equal(t, "application/pdf", f.store.puts["invoices/"+created.ID.String()+".pdf"])

	require.Len(t, f.links.calls, 1)
	req := f.links.calls[0]
	assert.Equal(t, int64(50000), req.UnitAmount)
	assert.Equal(t, "usd", req.Currency)
	assert.Equal(t, "Design", req.ProductName)
	assert.Equal(t, map[string]string{
		"invoiceId":     created.ID.String(),
		"invoiceNumber": "ZC-2026-4242",
		"clientName":    "Acme",
		"clientEmail":   "a@x.com",
	}, req.Metadata)

	require.Len(t, f.renderer.invoices, 1)
	assert.Equal(t, testLinkURL, f.renderer.invoices[0].PaymentLinkURL)
}

func TestService_CreateInvoiceValidation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(in *CreateInvoiceInput)
		field string
	}{
		{name: "MissingClientName", edit: func(in *CreateInvoiceInput) { in.ClientName = "  " }, field: "clientName"},
		{name: "MissingClientEmail", edit: func(in *CreateInvoiceInput) { in.ClientEmail = "" }, field: "clientEmail"},
		{name: "MissingServiceName", edit: func(in *CreateInvoiceInput) { in.ServiceName = "" }, field: "serviceName"},
		{name: "ZeroAmount", edit: func(in *CreateInvoiceInput) { in.Amount = decimal.Zero }, field: "amount"},
		{name: "NegativeAmount", edit: func(in *CreateInvoiceInput) { in.Amount = decimal.NewFromInt(-5) }, field: "amount"},
		{name: "AboveProcessorMaximum", edit: func(in *CreateInvoiceInput) { in.Amount = decimal.RequireFromString("1000000") }, field: "amount"},
		{name: "BeyondInt64Cents", edit: func(in *CreateInvoiceInput) { in.Amount = decimal.RequireFromString("200000000000000000") }, field: "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := validInvoiceInput()
			tt.edit(&in)

			_, err := f.svc.CreateInvoice(context.Background(), in)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
			assert.Contains(t, pkgerrors.As(err).Details(), tt.field)
			assert.Empty(t, f.links.calls, "no remote calls on invalid input")
		})
	}
}

func TestService_CreateInvoiceUploadFailureIsDegradedSuccess(t *testing.T) {
	f := newFixture(t)
	f.store.putErr = errors.New("bucket unavailable")

	f.repo.EXPECT().InvoiceNumberExists(gomock.Any(), gomock.Any()).Return(false, nil)
	f.repo.EXPECT().CreateInvoice(gomock.Any(), gomock.Any()).Return(nil)
	f.repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)

	res, err := f.svc.CreateInvoice(context.Background(), validInvoiceInput())
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, res.Invoice.Status)
	assert.Equal(t, testLinkURL, res.Invoice.PaymentLinkURL)
	assert.Nil(t, res.Invoice.PDFURL)
}

func TestService_CreateInvoiceLinkFailure(t *testing.T) {
	f := newFixture(t)
	f.links.err = pkgerrors.Wrap(pkgerrors.CodeUpstream, errors.New("rate limited"), "payment link issuance failed")
	f.repo.EXPECT().InvoiceNumberExists(gomock.Any(), gomock.Any()).Return(false, nil)

	_, err := f.svc.CreateInvoice(context.Background(), validInvoiceInput())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUpstream))
}

func TestService_CreateInvoicePersistFailure(t *testing.T) {
	f := newFixture(t)
	tx := &passthroughTx{}
	f.svc.tx = tx

	f.repo.EXPECT().InvoiceNumberExists(gomock.Any(), gomock.Any()).Return(false, nil)
	f.repo.EXPECT().WithTx(gomock.Nil()).Return(f.repo)
	f.repo.EXPECT().CreateInvoice(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	_, err := f.svc.CreateInvoice(context.Background(), validInvoiceInput())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUpstream))
	assert.Equal(t, 1, tx.calls)
	assert.Empty(t, f.renderer.invoices)
}

func TestService_InvoiceNumberRetries(t *testing.T) {
	f := newFixture(t)
	seqs := []int{1111, 2222}
	f.svc.sequence = func(int) int {
		next := seqs[0]
		seqs = seqs[1:]
		return next
	}
	f.repo.EXPECT().InvoiceNumberExists(gomock.Any(), "ZC-2026-1111").Return(true, nil)
	f.repo.EXPECT().InvoiceNumberExists(gomock.Any(), "ZC-2026-2222").Return(false, nil)

	number, err := f.svc.nextInvoiceNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ZC-2026-2222", number)
}

func TestService_InvoiceNumberWidensWhenYearIsCrowded(t *testing.T) {
	f := newFixture(t)
	var widths []int
	f.svc.sequence = func(digits int) int {
		widths = append(widths, digits)
		if digits == wideSequenceDigits {
			return 123456
		}
		return 4242
	}
	f.repo.EXPECT().InvoiceNumberExists(gomock.Any(), "ZC-2026-4242").Return(true, nil).Times(maxNumberAttempts)
	f.repo.EXPECT().InvoiceNumberExists(gomock.Any(), "ZC-2026-123456").Return(false, nil)

	number, err := f.svc.nextInvoiceNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ZC-2026-123456", number)
	require.Len(t, widths, maxNumberAttempts+1)
	assert.Equal(t, wideSequenceDigits, widths[maxNumberAttempts])
}

func TestService_InvoiceNumberExhausted(t *testing.T) {
	f := newFixture(t)
	f.repo.EXPECT().InvoiceNumberExists(gomock.Any(), gomock.Any()).Return(true, nil).Times(2 * maxNumberAttempts)

	_, err := f.svc.nextInvoiceNumber(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestFormatInvoiceNumber(t *testing.T) {
	assert.Equal(t, "ZC-2026-1000", formatInvoiceNumber("zc", 2026, 1000))
	assert.Equal(t, "ZC-2026-9999", formatInvoiceNumber("", 2026, 9999))
	assert.Equal(t, "ZC-2026-123456", formatInvoiceNumber("zc", 2026, 123456))
	for i := 0; i < 200; i++ {
		seq := randomSequence(shortSequenceDigits)
		assert.GreaterOrEqual(t, seq, 1000)
		assert.LessOrEqual(t, seq, 9999)

		wide := randomSequence(wideSequenceDigits)
		assert.GreaterOrEqual(t, wide, 100000)
		assert.LessOrEqual(t, wide, 999999)
	}
}

func TestService_CreatePaymentLink(t *testing.T) {
	f := newFixture(t)
	f.repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, txn *models.Transaction) error {
			assert.Nil(t, txn.InvoiceID)
			txn.ID = uuid.New()
			return nil
		})

	res, err := f.svc.CreatePaymentLink(context.Background(), CreatePaymentLinkInput{
		ClientName:  "Walk-in",
		ServiceName: "Consult",
		Amount:      decimal.RequireFromString("19.999"),
	})
	require.NoError(t, err)
	assert.Equal(t, testLinkURL, res.PaymentLink)
	assert.Equal(t, enums.PaymentStatusPending, res.Transaction.Status)

	require.Len(t, f.links.calls, 1)
	assert.Equal(t, int64(2000), f.links.calls[0].UnitAmount)
	assert.Equal(t, map[string]string{"clientName": "Walk-in", "serviceName": "Consult"}, f.links.calls[0].Metadata)

	_, err = f.svc.CreatePaymentLink(context.Background(), CreatePaymentLinkInput{ClientName: "x", ServiceName: "y"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Len(t, f.links.calls, 1)

	_, err = f.svc.CreatePaymentLink(context.Background(), CreatePaymentLinkInput{
		ClientName:  "x",
		ServiceName: "y",
		Amount:      decimal.RequireFromString("92233720368547758.08"),
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Len(t, f.links.calls, 1, "oversize amounts never reach the processor")
}

func paidInvoice() *models.Invoice {
	return &models.Invoice{
		ID:             uuid.New(),
		InvoiceNumber:  "ZC-2026-4242",
		ClientName:     "Acme",
		ClientEmail:    "a@x.com",
		ServiceName:    "Design",
		Amount:         decimal.RequireFromString("1250.00"),
		PaymentLinkURL: testLinkURL,
		Status:         enums.PaymentStatusPaid,
	}
}

func TestService_IssueReceipt(t *testing.T) {
	f := newFixture(t)
	invoice := paidInvoice()
	paidAt := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)

	f.repo.EXPECT().UpdateInvoice(gomock.Any(), invoice.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, patch ledger.InvoicePatch) (*models.Invoice, error) {
			out := *invoice
			out.ReceiptPDFURL = patch.ReceiptPDFURL
			out.ReceiptPDFKey = patch.ReceiptPDFKey
			return &out, nil
		})

	err := f.svc.IssueReceipt(context.Background(), ReceiptInput{
		Invoice:          invoice,
		PaidAt:           paidAt,
		PaymentMethod:    "visa **** 4242",
		StripeReceiptURL: "https://pay.stripe.com/receipts/r_1",
	})
	require.NoError(t, err)

	require.Len(t, f.renderer.receipts, 1)
	assert.Equal(t, paidAt, f.renderer.receipts[0].PaidAt)
	assert.Equal(t, "visa **** 4242", f.renderer.receipts[0].PaymentMethod)
	assert.Contains(t, f.store.puts, "receipts/"+invoice.ID.String()+".pdf")

	require.Len(t, f.mailer.sent, 1)
	msg := f.mailer.sent[0]
	assert.Equal(t, "a@x.com", msg.To)
	assert.Equal(t, "Receipt for Invoice ZC-2026-4242", msg.Subject)
	assert.Contains(t, msg.HTML, "Download Receipt")
	assert.Contains(t, msg.HTML, "Amount Paid: $1,250.00")
}

func TestService_IssueReceiptStepFailures(t *testing.T) {
	t.Run("Render", func(t *testing.T) {
		f := newFixture(t)
		f.renderer.receiptErr = errors.New("font missing")
		err := f.svc.IssueReceipt(context.Background(), ReceiptInput{Invoice: paidInvoice(), PaidAt: time.Now()})
		var stepErr *StepError
		require.ErrorAs(t, err, &stepErr)
		assert.Equal(t, StepRender, stepErr.Step)
		assert.Empty(t, f.mailer.sent)
	})

	t.Run("Upload", func(t *testing.T) {
		f := newFixture(t)
		f.store.putErr = errors.New("denied")
		err := f.svc.IssueReceipt(context.Background(), ReceiptInput{Invoice: paidInvoice(), PaidAt: time.Now()})
		var stepErr *StepError
		require.ErrorAs(t, err, &stepErr)
		assert.Equal(t, StepUpload, stepErr.Step)
		assert.Empty(t, f.mailer.sent)
	})

	t.Run("EmailFailureIsSwallowed", func(t *testing.T) {
		f := newFixture(t)
		f.mailer.fail = true
		invoice := paidInvoice()
		f.repo.EXPECT().UpdateInvoice(gomock.Any(), invoice.ID, gomock.Any()).Return(invoice, nil)
		require.NoError(t, f.svc.IssueReceipt(context.Background(), ReceiptInput{Invoice: invoice, PaidAt: time.Now()}))
		assert.Len(t, f.mailer.sent, 1)
	})

	t.Run("EmailDisabled", func(t *testing.T) {
		f := newFixture(t)
		f.mailer.enabled = false
		invoice := paidInvoice()
		f.repo.EXPECT().UpdateInvoice(gomock.Any(), invoice.ID, gomock.Any()).Return(invoice, nil)
		require.NoError(t, f.svc.IssueReceipt(context.Background(), ReceiptInput{Invoice: invoice, PaidAt: time.Now()}))
		assert.Empty(t, f.mailer.sent)
	})
}

func TestService_SendInvoiceEmail(t *testing.T) {
	type testCase struct {
		name      string
		invoice   func() *models.Invoice
		getErr    error
		enabled   bool
		signed    bool
		failSend  bool
		message   string
		wantCode  pkgerrors.Code
		wantURL   string
		skipURL   string
		wantSent  bool
		wantInMsg string
	}

	pending := func() *models.Invoice {
		inv := paidInvoice()
		inv.Status = enums.PaymentStatusPending
		inv.PDFURL = lo.ToPtr("https://files.example.com/invoices/stored.pdf")
		return inv
	}

	tests := []testCase{
		{
			name:     "NotFound",
			getErr:   pkgerrors.New(pkgerrors.CodeNotFound, "Invoice not found"),
			enabled:  true,
			wantCode: pkgerrors.CodeNotFound,
		},
		{
			name:     "NotConfigured",
			invoice:  pending,
			enabled:  false,
			wantCode: pkgerrors.CodeNotConfigured,
		},
		{
			name: "DocumentNotAvailable",
			invoice: func() *models.Invoice {
				inv := pending()
				inv.PDFURL = nil
				return inv
			},
			enabled:  true,
			wantCode: pkgerrors.CodePrecondition,
		},
		{
			name: "KeyOnlyIsRederived",
			invoice: func() *models.Invoice {
				inv := pending()
				inv.PDFURL = nil
				inv.PDFKey = lo.ToPtr("invoices/derived.pdf")
				return inv
			},
			enabled:   true,
			wantSent:  true,
			wantURL:   "https://files.example.com/invoices/derived.pdf",
			wantInMsg: defaultInvoiceMessage,
		},
		{
			name: "SignedStoreResignsFromKey",
			invoice: func() *models.Invoice {
				inv := pending()
				inv.PDFURL = lo.ToPtr("https://files.example.com/invoices/stored.pdf?X-Amz-Expires=604800")
				inv.PDFKey = lo.ToPtr("invoices/fresh.pdf")
				return inv
			},
			enabled:   true,
			signed:    true,
			wantSent:  true,
			wantURL:   "https://files.example.com/invoices/fresh.pdf",
			skipURL:   "X-Amz-Expires",
			wantInMsg: defaultInvoiceMessage,
		},
		{
			name: "PublicStoreKeepsStoredURL",
			invoice: func() *models.Invoice {
				inv := pending()
				inv.PDFKey = lo.ToPtr("invoices/fresh.pdf")
				return inv
			},
			enabled:   true,
			wantSent:  true,
			wantURL:   "https://files.example.com/invoices/stored.pdf",
			skipURL:   "invoices/fresh.pdf",
			wantInMsg: defaultInvoiceMessage,
		},
		{
			name:      "SignedStoreWithoutKeyUsesStoredURL",
			invoice:   pending,
			enabled:   true,
			signed:    true,
			wantSent:  true,
			wantURL:   "https://files.example.com/invoices/stored.pdf",
			wantInMsg: defaultInvoiceMessage,
		},
		{
			name:      "CustomMessage",
			invoice:   pending,
			enabled:   true,
			message:   "Due in 14 days <b>please</b>",
			wantSent:  true,
			wantURL:   "https://files.example.com/invoices/stored.pdf",
			wantInMsg: "Due in 14 days &lt;b&gt;please&lt;/b&gt;",
		},
		{
			name:     "SendFailed",
			invoice:  pending,
			enabled:  true,
			failSend: true,
			wantSent: true,
			wantCode: pkgerrors.CodeUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.mailer.enabled = tt.enabled
			f.mailer.fail = tt.failSend
			f.store.signed = tt.signed

			id := uuid.New()
			if tt.invoice != nil {
				inv := tt.invoice()
				inv.ID = id
				f.repo.EXPECT().GetInvoice(gomock.Any(), id).Return(inv, nil)
			} else {
				f.repo.EXPECT().GetInvoice(gomock.Any(), id).Return(nil, tt.getErr)
			}

			err := f.svc.SendInvoiceEmail(context.Background(), id, tt.message)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsCode(err, tt.wantCode), "got %v", err)
			} else {
				require.NoError(t, err)
			}

			if !tt.wantSent {
				assert.Empty(t, f.mailer.sent)
				return
			}
			require.Len(t, f.mailer.sent, 1)
			msg := f.mailer.sent[0]
			assert.Equal(t, "Invoice ZC-2026-4242 from ZCollabz", msg.Subject)
			if tt.wantURL != "" {
				assert.Contains(t, msg.HTML, tt.wantURL)
				assert.Contains(t, msg.HTML, "View Invoice PDF")
				assert.Contains(t, msg.HTML, testLinkURL)
			}
			if tt.skipURL != "" {
				assert.NotContains(t, msg.HTML, tt.skipURL)
			}
			if tt.wantInMsg != "" {
				assert.Contains(t, msg.HTML, tt.wantInMsg)
			}
		})
	}

	t.Run("MissingID", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.SendInvoiceEmail(context.Background(), uuid.Nil, "")
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	})
}

func TestService_SendReceiptEmail(t *testing.T) {
	withReceipt := func() *models.Invoice {
		inv := paidInvoice()
		inv.ReceiptPDFURL = lo.ToPtr("https://files.example.com/receipts/r.pdf")
		return inv
	}

	tests := []struct {
		name     string
		invoice  func() *models.Invoice
		enabled  bool
		wantCode pkgerrors.Code
		wantMsg  string
	}{
		{
			name: "NotPaidEvenWithDocument",
			invoice: func() *models.Invoice {
				inv := withReceipt()
				inv.Status = enums.PaymentStatusPending
				return inv
			},
			enabled:  true,
			wantCode: pkgerrors.CodePrecondition,
			wantMsg:  "Invoice is not paid yet",
		},
		{
			name: "MissingClientEmail",
			invoice: func() *models.Invoice {
				inv := withReceipt()
				inv.ClientEmail = ""
				return inv
			},
			enabled:  true,
			wantCode: pkgerrors.CodePrecondition,
			wantMsg:  "Client email missing",
		},
		{
			name:     "NotConfigured",
			invoice:  withReceipt,
			enabled:  false,
			wantCode: pkgerrors.CodeNotConfigured,
		},
		{
			name:     "ReceiptNotAvailable",
			invoice:  paidInvoice,
			enabled:  true,
			wantCode: pkgerrors.CodePrecondition,
			wantMsg:  "Receipt not available",
		},
		{
			name:    "Success",
			invoice: withReceipt,
			enabled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.mailer.enabled = tt.enabled
			inv := tt.invoice()
			f.repo.EXPECT().GetInvoice(gomock.Any(), inv.ID).Return(inv, nil)

			err := f.svc.SendReceiptEmail(context.Background(), inv.ID)
			if tt.wantCode != "" {
				require.Error(t, err)
				typed := pkgerrors.As(err)
				require.NotNil(t, typed)
				assert.Equal(t, tt.wantCode, typed.Code())
				if tt.wantMsg != "" {
					assert.Equal(t, tt.wantMsg, typed.Message())
				}
				assert.Empty(t, f.mailer.sent)
				return
			}
			require.NoError(t, err)
			require.Len(t, f.mailer.sent, 1)
			assert.Contains(t, f.mailer.sent[0].HTML, "https://files.example.com/receipts/r.pdf")
		})
	}
}

func TestService_ListTransactions(t *testing.T) {
	f := newFixture(t)
	f.repo.EXPECT().ListTransactions(gomock.Any()).Return([]models.Transaction{{ID: uuid.New()}}, nil)
	txns, err := f.svc.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, txns, 1)

	f.repo.EXPECT().ListTransactions(gomock.Any()).Return(nil, errors.New("db down"))
	_, err = f.svc.ListTransactions(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}
