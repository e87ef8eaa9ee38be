package invoices

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/higujral/zcollabz/pkg/db/models"
	"github.com/higujral/zcollabz/pkg/enums"
)

// CreateInvoiceInput is the validated create-invoice request.
type CreateInvoiceInput struct {
	ClientName  string
	ClientEmail string
	ServiceName string
	Amount      decimal.Decimal
	Notes       *string
}

// CreatePaymentLinkInput is the validated link-only request.
type CreatePaymentLinkInput struct {
	ClientName  string
	ServiceName string
	Amount      decimal.Decimal
}

// InvoiceResult pairs the persisted invoice with the raw link URL.
type InvoiceResult struct {
	Invoice     *models.Invoice
	PaymentLink string
}

// PaymentLinkResult pairs a standalone transaction with its link URL.
type PaymentLinkResult struct {
	Transaction *models.Transaction
	PaymentLink string
}

// InvoiceSummaryDTO is the invoice shape returned by create-invoice.
type InvoiceSummaryDTO struct {
	ID            uuid.UUID           `json:"id"`
	InvoiceNumber string              `json:"invoiceNumber"`
	PDFURL        *string             `json:"pdfUrl"`
	Status        enums.PaymentStatus `json:"status"`
}

// TransactionInvoiceDTO is the invoice summary nested in transaction listings.
type TransactionInvoiceDTO struct {
	ID               uuid.UUID           `json:"id"`
	InvoiceNumber    string              `json:"invoiceNumber"`
	ClientEmail      string              `json:"clientEmail"`
	PDFURL           *string             `json:"pdfUrl"`
	ReceiptPDFURL    *string             `json:"receiptPdfUrl"`
	StripeReceiptURL *string             `json:"stripeReceiptUrl"`
	Status           enums.PaymentStatus `json:"status"`
}

// TransactionDTO exposes a transaction with its optional invoice.
type TransactionDTO struct {
	ID              uuid.UUID              `json:"id"`
	ClientName      string                 `json:"clientName"`
	ServiceName     string                 `json:"serviceName"`
	Amount          float64                `json:"amount"`
	PaymentLinkURL  string                 `json:"paymentLinkUrl"`
	Status          enums.PaymentStatus    `json:"status"`
	StripeSessionID *string                `json:"stripeSessionId"`
	InvoiceID       *uuid.UUID             `json:"invoiceId"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
	Invoice         *TransactionInvoiceDTO `json:"invoice"`
}

// InvoiceSummaryFromModel maps the create-invoice response body.
func InvoiceSummaryFromModel(m *models.Invoice) *InvoiceSummaryDTO {
	if m == nil {
		return nil
	}
	return &InvoiceSummaryDTO{
		ID:            m.ID,
		InvoiceNumber: m.InvoiceNumber,
		PDFURL:        m.PDFURL,
		Status:        m.Status,
	}
}

// TransactionFromModel maps a transaction and its preloaded invoice.
func TransactionFromModel(m *models.Transaction) *TransactionDTO {
	if m == nil {
		return nil
	}
	dto := &TransactionDTO{
		ID:              m.ID,
		ClientName:      m.ClientName,
		ServiceName:     m.ServiceName,
		Amount:          m.Amount.InexactFloat64(),
		PaymentLinkURL:  m.PaymentLinkURL,
		Status:          m.Status,
		StripeSessionID: m.StripeSessionID,
		InvoiceID:       m.InvoiceID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if inv := m.Invoice; inv != nil {
		dto.Invoice = &TransactionInvoiceDTO{
			ID:               inv.ID,
			InvoiceNumber:    inv.InvoiceNumber,
			ClientEmail:      inv.ClientEmail,
			PDFURL:           inv.PDFURL,
			ReceiptPDFURL:    inv.ReceiptPDFURL,
			StripeReceiptURL: inv.StripeReceiptURL,
			Status:           inv.Status,
		}
	}
	return dto
}

// TransactionsFromModels maps a listing, preserving order.
func TransactionsFromModels(items []models.Transaction) []TransactionDTO {
	return lo.Map(items, func(item models.Transaction, _ int) TransactionDTO {
		return *TransactionFromModel(&item)
	})
}
