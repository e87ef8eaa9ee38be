package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/higujral/zcollabz/pkg/db/models"
	"github.com/higujral/zcollabz/pkg/enums"
	pkgerrors "github.com/higujral/zcollabz/pkg/errors"
)

const createInvoicesTable = `CREATE TABLE invoices (
	id text PRIMARY KEY,
	invoice_number text NOT NULL UNIQUE,
	client_name text NOT NULL,
	client_email text NOT NULL,
	service_name text NOT NULL,
	amount numeric NOT NULL,
	notes text,
	payment_link_url text NOT NULL,
	status text NOT NULL DEFAULT 'PENDING',
	pdf_url text,
	pdf_key text,
	receipt_pdf_url text,
	receipt_pdf_key text,
	stripe_receipt_url text,
	stripe_session_id text,
	paid_at timestamp,
	created_at timestamp,
	updated_at timestamp
)`

const createTransactionsTable = `CREATE TABLE transactions (
	id text PRIMARY KEY,
	client_name text NOT NULL,
	service_name text NOT NULL,
	amount numeric NOT NULL,
	payment_link_url text NOT NULL,
	status text NOT NULL DEFAULT 'PENDING',
	stripe_session_id text,
	invoice_id text REFERENCES invoices (id),
	created_at timestamp,
	updated_at timestamp
)`

func newTestRepo(t *testing.T) (Repository, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(createInvoicesTable).Error)
	require.NoError(t, conn.Exec(createTransactionsTable).Error)
	return NewRepository(conn), conn
}

func seedInvoice(t *testing.T, r Repository, number, link string) *models.Invoice {
	t.Helper()
	invoice := &models.Invoice{
		InvoiceNumber:  number,
		ClientName:     "Acme",
		ClientEmail:    "a@x.com",
		ServiceName:    "Design",
		Amount:         decimal.RequireFromString("500.00"),
		PaymentLinkURL: link,
	}
	require.NoError(t, r.CreateInvoice(context.Background(), invoice))
	return invoice
}

func TestCreateInvoiceDefaults(t *testing.T) {
	r, _ := newTestRepo(t)
	invoice := seedInvoice(t, r, "ZC-2026-1234", "https://buy.stripe.com/a")

	assert.NotEqual(t, uuid.Nil, invoice.ID)
	assert.Equal(t, enums.PaymentStatusPending, invoice.Status)

	got, err := r.GetInvoice(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "ZC-2026-1234", got.InvoiceNumber)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(500)))
	assert.Nil(t, got.PDFURL)
	assert.Nil(t, got.PaidAt)
}

func TestGetInvoiceNotFound(t *testing.T) {
	r, _ := newTestRepo(t)
	_, err := r.GetInvoice(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestInvoiceNumberUniqueness(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	seedInvoice(t, r, "ZC-2026-1111", "https://buy.stripe.com/a")

	exists, err := r.InvoiceNumberExists(ctx, "ZC-2026-1111")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = r.InvoiceNumberExists(ctx, "ZC-2026-2222")
	require.NoError(t, err)
	assert.False(t, exists)

	dup := &models.Invoice{
		InvoiceNumber:  "ZC-2026-1111",
		ClientName:     "Other",
		ClientEmail:    "o@x.com",
		ServiceName:    "Audit",
		Amount:         decimal.NewFromInt(10),
		PaymentLinkURL: "https://buy.stripe.com/b",
	}
	assert.Error(t, r.CreateInvoice(ctx, dup))
}

func TestFindInvoiceByPaymentLink(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	invoice := seedInvoice(t, r, "ZC-2026-1234", "https://buy.stripe.com/a")

	got, err := r.FindInvoiceByPaymentLink(ctx, "https://buy.stripe.com/a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, invoice.ID, got.ID)

	got, err = r.FindInvoiceByPaymentLink(ctx, "https://buy.stripe.com/unknown")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateInvoicePatchesOnlySetFields(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	invoice := seedInvoice(t, r, "ZC-2026-1234", "https://buy.stripe.com/a")

	updated, err := r.UpdateInvoice(ctx, invoice.ID, InvoicePatch{
		PDFURL: lo.ToPtr("https://cdn.example.com/invoices/x.pdf"),
		PDFKey: lo.ToPtr(invoice.DocumentKey()),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.PDFURL)
	assert.Equal(t, "https://cdn.example.com/invoices/x.pdf", *updated.PDFURL)
	assert.Equal(t, enums.PaymentStatusPending, updated.Status)
	assert.Nil(t, updated.ReceiptPDFURL)

	_, err = r.UpdateInvoice(ctx, uuid.New(), InvoicePatch{PDFURL: lo.ToPtr("x")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateInvoiceWhereOnlyWinsOnce(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	invoice := seedInvoice(t, r, "ZC-2026-1234", "https://buy.stripe.com/a")

	paidAt := time.Date(2026, 3, 4, 15, 4, 5, 0, time.UTC)
	patch := InvoicePatch{
		Status:          lo.ToPtr(enums.PaymentStatusPaid),
		StripeSessionID: lo.ToPtr("cs_test_1"),
		PaidAt:          &paidAt,
	}

	n, err := r.UpdateInvoiceWhere(ctx, invoice.ID, enums.PaymentStatusPending, patch)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = r.UpdateInvoiceWhere(ctx, invoice.ID, enums.PaymentStatusPending, patch)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	got, err := r.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, got.Status)
	require.NotNil(t, got.PaidAt)
	assert.True(t, got.PaidAt.Equal(paidAt))

	_, err = r.UpdateInvoiceWhere(ctx, invoice.ID, enums.PaymentStatusPending, InvoicePatch{})
	assert.Error(t, err)
}

func TestUpdateTransactionsWhereIsIdempotent(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	link := "https://buy.stripe.com/a"

	require.NoError(t, r.CreateTransaction(ctx, &models.Transaction{
		ClientName:     "Acme",
		ServiceName:    "Design",
		Amount:         decimal.NewFromInt(500),
		PaymentLinkURL: link,
	}))
	require.NoError(t, r.CreateTransaction(ctx, &models.Transaction{
		ClientName:     "Other",
		ServiceName:    "Audit",
		Amount:         decimal.NewFromInt(20),
		PaymentLinkURL: "https://buy.stripe.com/b",
	}))

	patch := TransactionPatch{Status: lo.ToPtr(enums.PaymentStatusPaid), StripeSessionID: lo.ToPtr("cs_test_1")}

	n, err := r.UpdateTransactionsWhere(ctx, link, enums.PaymentStatusPending, patch)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = r.UpdateTransactionsWhere(ctx, link, enums.PaymentStatusPending, patch)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "redelivery must not touch paid rows")

	_, err = r.UpdateTransactionsWhere(ctx, link, enums.PaymentStatusPending, TransactionPatch{})
	assert.Error(t, err)
}

func TestListTransactionsNewestFirstWithInvoice(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	invoice := seedInvoice(t, r, "ZC-2026-1234", "https://buy.stripe.com/a")

	older := &models.Transaction{
		ClientName:     "Acme",
		ServiceName:    "Design",
		Amount:         decimal.NewFromInt(500),
		PaymentLinkURL: invoice.PaymentLinkURL,
		InvoiceID:      &invoice.ID,
		CreatedAt:      time.Now().Add(-time.Hour),
	}
	newer := &models.Transaction{
		ClientName:     "Walk-in",
		ServiceName:    "Consult",
		Amount:         decimal.NewFromInt(75),
		PaymentLinkURL: "https://buy.stripe.com/b",
		CreatedAt:      time.Now(),
	}
	require.NoError(t, r.CreateTransaction(ctx, older))
	require.NoError(t, r.CreateTransaction(ctx, newer))

	txns, err := r.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, newer.ID, txns[0].ID)
	assert.Nil(t, txns[0].Invoice)
	assert.Equal(t, older.ID, txns[1].ID)
	require.NotNil(t, txns[1].Invoice)
	assert.Equal(t, "ZC-2026-1234", txns[1].Invoice.InvoiceNumber)
}

func TestWithTxRollsBack(t *testing.T) {
	r, conn := newTestRepo(t)
	ctx := context.Background()

	tx := conn.Begin()
	require.NoError(t, tx.Error)
	seedInvoice(t, r.WithTx(tx), "ZC-2026-9999", "https://buy.stripe.com/tx")
	require.NoError(t, tx.Rollback().Error)

	exists, err := r.InvoiceNumberExists(ctx, "ZC-2026-9999")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Same(t, r, r.WithTx(nil))
}
