package documents

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	invoiceDateLayout = "1/2/2006"
	receiptDateLayout = "1/2/2006, 3:04:05 PM"

	qrCaption     = "Scan to pay"
	qrUnavailable = "QR code unavailable"
)

// Color is an RGB triple in the 0-255 range.
type Color struct{ R, G, B int }

var (
	colorText  = Color{0, 0, 0}
	colorLink  = Color{26, 51, 204}
	colorError = Color{153, 0, 0}
)

// line is one row of document text. Gap adds vertical space before it.
type line struct {
	Text  string
	Size  float64
	Color Color
	Gap   float64
}

// page is the engine-neutral description of a rendered document.
type page struct {
	Title   string
	Company string
	Lines   []line
	QR      []byte
	// Footer follows the QR image, or replaces it when QR is nil.
	Footer *line
}

// InvoiceFields is everything printed on an invoice.
type InvoiceFields struct {
	InvoiceNumber  string
	ClientName     string
	ClientEmail    string
	ServiceName    string
	Amount         decimal.Decimal
	PaymentLinkURL string
	Notes          string
}

// ReceiptFields is everything printed on a receipt.
type ReceiptFields struct {
	InvoiceNumber    string
	ClientName       string
	ClientEmail      string
	ServiceName      string
	Amount           decimal.Decimal
	PaidAt           time.Time
	PaymentMethod    string
	StripeReceiptURL string
}

func text(s string, size float64) line {
	return line{Text: s, Size: size, Color: colorText}
}

func invoicePage(company string, f InvoiceFields, renderedAt time.Time, qr []byte) page {
	lines := []line{
		text("Invoice", 22),
		text("Invoice #: "+f.InvoiceNumber, 12),
		text("Date: "+renderedAt.Format(invoiceDateLayout), 12),
		{Text: "Bill To:", Size: 12, Color: colorText, Gap: 8},
		text(f.ClientName, 12),
		text(f.ClientEmail, 12),
		{Text: "Service: " + f.ServiceName, Size: 14, Color: colorText, Gap: 8},
		text("Amount Due: "+dollars(f.Amount), 12),
	}
	if notes := strings.TrimSpace(f.Notes); notes != "" {
		lines = append(lines, line{Text: "Notes: " + notes, Size: 12, Color: colorText, Gap: 8})
	}
	lines = append(lines, line{Text: "Payment Link: " + f.PaymentLinkURL, Size: 10, Color: colorLink, Gap: 12})

	footer := line{Text: qrCaption, Size: 10, Color: colorText}
	if len(qr) == 0 {
		footer = line{Text: qrUnavailable, Size: 10, Color: colorError}
	}
	return page{Title: "Invoice " + f.InvoiceNumber, Company: company, Lines: lines, QR: qr, Footer: &footer}
}

func receiptPage(company string, f ReceiptFields) page {
	lines := []line{text("Payment Receipt", 22)}
	if f.InvoiceNumber != "" {
		lines = append(lines, text("Invoice #: "+f.InvoiceNumber, 12))
	}
	lines = append(lines,
		text("Date Paid: "+f.PaidAt.UTC().Format(receiptDateLayout), 12),
		line{Text: "Paid By:", Size: 12, Color: colorText, Gap: 8},
		text(f.ClientName, 12),
		text(f.ClientEmail, 12),
		line{Text: "Service: " + f.ServiceName, Size: 14, Color: colorText, Gap: 8},
		text("Amount Paid: "+dollars(f.Amount), 12),
	)
	if f.PaymentMethod != "" {
		lines = append(lines, text("Payment Method: "+f.PaymentMethod, 12))
	}
	if f.StripeReceiptURL != "" {
		lines = append(lines, line{Text: "Stripe Receipt: " + f.StripeReceiptURL, Size: 10, Color: colorLink, Gap: 4})
	}
	title := "Payment Receipt"
	if f.InvoiceNumber != "" {
		title = fmt.Sprintf("Receipt %s", f.InvoiceNumber)
	}
	return page{Title: title, Company: company, Lines: lines}
}

func dollars(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
