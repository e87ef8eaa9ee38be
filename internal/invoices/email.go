package invoices

import (
	"bytes"
	"context"
	"html/template"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/higujral/zcollabz/pkg/db/models"
	"github.com/higujral/zcollabz/pkg/email"
	pkgerrors "github.com/higujral/zcollabz/pkg/errors"
	"github.com/higujral/zcollabz/pkg/money"
)

const defaultInvoiceMessage = "Please find your invoice below."

var invoiceEmailTmpl = template.Must(template.New("invoice").Parse(`<p>Hello {{.ClientName}},</p>
<p>{{.Message}}</p>
<p><a href="{{.DocumentURL}}">View Invoice PDF</a></p>
<p>Payment link: <a href="{{.PaymentLinkURL}}">{{.PaymentLinkURL}}</a></p>
<p>Thank you,<br/>{{.Company}}</p>
`))

var receiptEmailTmpl = template.Must(template.New("receipt").Parse(`<p>Hello {{.ClientName}},</p>
<p>Thank you for your payment. Your receipt is available here: <a href="{{.DocumentURL}}">Download Receipt</a></p>
<p>Invoice: {{.InvoiceNumber}}</p>
<p>Amount Paid: {{.Amount}}</p>
<p>Thank you,<br/>{{.Company}}</p>
`))

type emailView struct {
	Company        string
	ClientName     string
	InvoiceNumber  string
	Message        string
	DocumentURL    string
	PaymentLinkURL string
	Amount         string
}

func render(tmpl *template.Template, view emailView) string {
	var buf bytes.Buffer
	// Templates are static and views hold only strings.
	_ = tmpl.Execute(&buf, view)
	return buf.String()
}

func invoiceMessage(company string, invoice *models.Invoice, documentURL, message string) email.Message {
	return email.Message{
		To:      invoice.ClientEmail,
		Subject: "Invoice " + invoice.InvoiceNumber + " from " + company,
		HTML: render(invoiceEmailTmpl, emailView{
			Company:        company,
			ClientName:     invoice.ClientName,
			Message:        lo.CoalesceOrEmpty(strings.TrimSpace(message), defaultInvoiceMessage),
			DocumentURL:    documentURL,
			PaymentLinkURL: invoice.PaymentLinkURL,
		}),
	}
}

func receiptMessage(company string, invoice *models.Invoice, receiptURL string) email.Message {
	return email.Message{
		To:      invoice.ClientEmail,
		Subject: "Receipt for Invoice " + invoice.InvoiceNumber,
		HTML: render(receiptEmailTmpl, emailView{
			Company:       company,
			ClientName:    invoice.ClientName,
			InvoiceNumber: invoice.InvoiceNumber,
			DocumentURL:   receiptURL,
			Amount:        money.FormatUSD(invoice.Amount),
		}),
	}
}

func (s *service) SendInvoiceEmail(ctx context.Context, invoiceID uuid.UUID, message string) error {
	if invoiceID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "Missing invoiceId")
	}
	invoice, err := s.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	ctx = s.logg.WithInvoiceID(ctx, invoice.ID.String())

	if !s.mailer.Enabled() {
		return pkgerrors.New(pkgerrors.CodeNotConfigured, "Email provider not configured")
	}

	url, err := s.documentURL(ctx, invoice.PDFURL, invoice.PDFKey)
	if err != nil {
		return err
	}
	if url == "" {
		return pkgerrors.New(pkgerrors.CodePrecondition, "Invoice document not available")
	}

	if !s.mailer.Send(ctx, invoiceMessage(s.company, invoice, url, message)) {
		return pkgerrors.New(pkgerrors.CodeUpstream, "failed to send email")
	}
	return nil
}

func (s *service) SendReceiptEmail(ctx context.Context, invoiceID uuid.UUID) error {
	if invoiceID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "Missing invoiceId")
	}
	invoice, err := s.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	ctx = s.logg.WithInvoiceID(ctx, invoice.ID.String())

	if !invoice.IsPaid() {
		return pkgerrors.New(pkgerrors.CodePrecondition, "Invoice is not paid yet")
	}
	if strings.TrimSpace(invoice.ClientEmail) == "" {
		return pkgerrors.New(pkgerrors.CodePrecondition, "Client email missing")
	}
	if !s.mailer.Enabled() {
		return pkgerrors.New(pkgerrors.CodeNotConfigured, "Email provider not configured")
	}

	url, err := s.documentURL(ctx, invoice.ReceiptPDFURL, invoice.ReceiptPDFKey)
	if err != nil {
		return err
	}
	if url == "" {
		return pkgerrors.New(pkgerrors.CodePrecondition, "Receipt not available")
	}

	if !s.mailer.Send(ctx, receiptMessage(s.company, invoice, url)) {
		return pkgerrors.New(pkgerrors.CodeUpstream, "failed to send email")
	}
	return nil
}

// documentURL re-signs from the key when the store hands out expiring URLs.
// Public stores keep the stored URL and only fall back to the key.
func (s *service) documentURL(ctx context.Context, storedURL, key *string) (string, error) {
	k := strings.TrimSpace(lo.FromPtr(key))
	if url := strings.TrimSpace(lo.FromPtr(storedURL)); url != "" && (k == "" || s.store.Public()) {
		return url, nil
	}
	if k == "" {
		return "", nil
	}
	url, err := s.store.RetrievalURL(ctx, k, s.documentTTL)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "resolve document url")
	}
	return url, nil
}
