package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/higujral/zcollabz/pkg/enums"
)

// Invoice is the billable document issued to a client. Receipt and payment
// fields stay nil until Status becomes PAID.
type Invoice struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceNumber    string              `gorm:"column:invoice_number;not null;uniqueIndex"`
	ClientName       string              `gorm:"column:client_name;not null"`
	ClientEmail      string              `gorm:"column:client_email;not null"`
	ServiceName      string              `gorm:"column:service_name;not null"`
	Amount           decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Notes            *string             `gorm:"column:notes"`
	PaymentLinkURL   string              `gorm:"column:payment_link_url;not null;index"`
	Status           enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	PDFURL           *string             `gorm:"column:pdf_url"`
	PDFKey           *string             `gorm:"column:pdf_key"`
	ReceiptPDFURL    *string             `gorm:"column:receipt_pdf_url"`
	ReceiptPDFKey    *string             `gorm:"column:receipt_pdf_key"`
	StripeReceiptURL *string             `gorm:"column:stripe_receipt_url"`
	StripeSessionID  *string             `gorm:"column:stripe_session_id"`
	PaidAt           *time.Time          `gorm:"column:paid_at"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Invoice) TableName() string { return "invoices" }

// IsPaid reports whether the invoice reached the terminal state.
func (i Invoice) IsPaid() bool {
	return i.Status == enums.PaymentStatusPaid
}

// DocumentKey is where the invoice PDF lives in the artifact store.
func (i Invoice) DocumentKey() string {
	return InvoiceDocumentKey(i.ID)
}

// ReceiptKey is where the receipt PDF lives in the artifact store.
func (i Invoice) ReceiptKey() string {
	return ReceiptDocumentKey(i.ID)
}

func InvoiceDocumentKey(id uuid.UUID) string {
	return "invoices/" + id.String() + ".pdf"
}

func ReceiptDocumentKey(id uuid.UUID) string {
	return "receipts/" + id.String() + ".pdf"
}
