package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/higujral/zcollabz/internal/repo"
	"github.com/higujral/zcollabz/pkg/db/models"
	"github.com/higujral/zcollabz/pkg/enums"
	pkgerrors "github.com/higujral/zcollabz/pkg/errors"
)

//go:generate mockgen -source=repo.go -destination=repository_mock.go -package=ledger

// Repository persists invoices and transactions. Status transitions go through
// the *Where methods, which only touch rows still in the expected status.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	FindInvoiceByPaymentLink(ctx context.Context, url string) (*models.Invoice, error)
	UpdateInvoice(ctx context.Context, id uuid.UUID, patch InvoicePatch) (*models.Invoice, error)
	UpdateInvoiceWhere(ctx context.Context, id uuid.UUID, expected enums.PaymentStatus, patch InvoicePatch) (int64, error)
	UpdateTransactionsWhere(ctx context.Context, url string, expected enums.PaymentStatus, patch TransactionPatch) (int64, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	InvoiceNumberExists(ctx context.Context, number string) (bool, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.Rebind(tx)}
}

func (r *repository) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	if invoice.Status == "" {
		invoice.Status = enums.PaymentStatusPending
	}
	return r.base.DB(ctx).Create(invoice).Error
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if txn.Status == "" {
		txn.Status = enums.PaymentStatusPending
	}
	return r.base.DB(ctx).Create(txn).Error
}

func (r *repository) GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.base.DB(ctx).Where("id = ?", id).First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Invoice not found")
		}
		return nil, err
	}
	return &invoice, nil
}

// FindInvoiceByPaymentLink returns nil without error when no invoice uses url.
func (r *repository) FindInvoiceByPaymentLink(ctx context.Context, url string) (*models.Invoice, error) {
	var invoices []models.Invoice
	if err := r.base.DB(ctx).
		Where("payment_link_url = ?", url).
		Order("created_at ASC").
		Limit(1).
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, nil
	}
	return &invoices[0], nil
}

func (r *repository) UpdateInvoice(ctx context.Context, id uuid.UUID, patch InvoicePatch) (*models.Invoice, error) {
	cols := patch.columns()
	if len(cols) > 0 {
		n, err := repo.Affected(r.base.DB(ctx).Model(&models.Invoice{}).Where("id = ?", id).Updates(cols))
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Invoice not found")
		}
	}
	return r.GetInvoice(ctx, id)
}

func (r *repository) UpdateInvoiceWhere(ctx context.Context, id uuid.UUID, expected enums.PaymentStatus, patch InvoicePatch) (int64, error) {
	cols := patch.columns()
	if len(cols) == 0 {
		return 0, fmt.Errorf("empty invoice patch")
	}
	return repo.Affected(r.base.DB(ctx).
		Model(&models.Invoice{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(cols))
}

func (r *repository) UpdateTransactionsWhere(ctx context.Context, url string, expected enums.PaymentStatus, patch TransactionPatch) (int64, error) {
	cols := patch.columns()
	if len(cols) == 0 {
		return 0, fmt.Errorf("empty transaction patch")
	}
	return repo.Affected(r.base.DB(ctx).
		Model(&models.Transaction{}).
		Where("payment_link_url = ? AND status = ?", url, expected).
		Updates(cols))
}

func (r *repository) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := r.base.DB(ctx).
		Preload("Invoice").
		Order("created_at DESC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) InvoiceNumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.base.DB(ctx).
		Model(&models.Invoice{}).
		Where("invoice_number = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
