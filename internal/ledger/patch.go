package ledger

import (
	"time"

	"github.com/higujral/zcollabz/pkg/enums"
)

// InvoicePatch lists the mutable invoice columns. Nil fields are left untouched.
type InvoicePatch struct {
	Status           *enums.PaymentStatus
	PDFURL           *string
	PDFKey           *string
	ReceiptPDFURL    *string
	ReceiptPDFKey    *string
	StripeReceiptURL *string
	StripeSessionID  *string
	PaidAt           *time.Time
}

func (p InvoicePatch) columns() map[string]any {
	cols := map[string]any{}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	setString(cols, "pdf_url", p.PDFURL)
	setString(cols, "pdf_key", p.PDFKey)
	setString(cols, "receipt_pdf_url", p.ReceiptPDFURL)
	setString(cols, "receipt_pdf_key", p.ReceiptPDFKey)
	setString(cols, "stripe_receipt_url", p.StripeReceiptURL)
	setString(cols, "stripe_session_id", p.StripeSessionID)
	if p.PaidAt != nil {
		cols["paid_at"] = p.PaidAt.UTC()
	}
	return cols
}

// TransactionPatch lists the mutable transaction columns.
type TransactionPatch struct {
	Status          *enums.PaymentStatus
	StripeSessionID *string
}

func (p TransactionPatch) columns() map[string]any {
	cols := map[string]any{}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	setString(cols, "stripe_session_id", p.StripeSessionID)
	return cols
}

func setString(cols map[string]any, column string, value *string) {
	if value != nil {
		cols[column] = *value
	}
}
