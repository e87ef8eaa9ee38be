package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/higujral/zcollabz/internal/ledger"
	"github.com/higujral/zcollabz/pkg/db/models"
	"github.com/higujral/zcollabz/pkg/documents"
	"github.com/higujral/zcollabz/pkg/storage"
)

// Receipt chain steps, used as log fields and metric labels.
const (
	StepRender = "receipt_render"
	StepUpload = "receipt_upload"
	StepURL    = "receipt_url"
	StepPatch  = "receipt_patch"
)

// ReceiptInput carries a freshly paid invoice and what the processor told us
// about the charge.
type ReceiptInput struct {
	Invoice          *models.Invoice
	PaidAt           time.Time
	PaymentMethod    string
	StripeReceiptURL string
}

// StepError names the receipt step that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// IssueReceipt renders and stores the receipt, records it on the invoice and
// emails it when a provider is configured. Email delivery never fails the call.
func (s *service) IssueReceipt(ctx context.Context, input ReceiptInput) error {
	invoice := input.Invoice
	if invoice == nil {
		return &StepError{Step: StepRender, Err: fmt.Errorf("invoice is required")}
	}
	ctx = s.logg.WithInvoiceID(ctx, invoice.ID.String())

	pdf, err := s.renderer.RenderReceipt(ctx, documents.ReceiptFields{
		InvoiceNumber:    invoice.InvoiceNumber,
		ClientName:       invoice.ClientName,
		ClientEmail:      invoice.ClientEmail,
		ServiceName:      invoice.ServiceName,
		Amount:           invoice.Amount,
		PaidAt:           input.PaidAt,
		PaymentMethod:    input.PaymentMethod,
		StripeReceiptURL: input.StripeReceiptURL,
	})
	if err != nil {
		return &StepError{Step: StepRender, Err: err}
	}

	key := invoice.ReceiptKey()
	if err := s.store.Put(ctx, key, pdf, storage.ContentTypePDF); err != nil {
		return &StepError{Step: StepUpload, Err: err}
	}
	url, err := s.store.RetrievalURL(ctx, key, s.documentTTL)
	if err != nil {
		return &StepError{Step: StepURL, Err: err}
	}

	updated, err := s.repo.UpdateInvoice(ctx, invoice.ID, ledger.InvoicePatch{
		ReceiptPDFURL: lo.ToPtr(url),
		ReceiptPDFKey: lo.ToPtr(key),
	})
	if err != nil {
		return &StepError{Step: StepPatch, Err: err}
	}
	s.logg.Info(ctx, "receipt.stored")

	if s.mailer.Enabled() && updated.ClientEmail != "" {
		s.mailer.Send(ctx, receiptMessage(s.company, updated, url))
	}
	return nil
}
