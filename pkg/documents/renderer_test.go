package documents

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/higujral/zcollabz/pkg/config"
)

type captureEngine struct {
	pages []page
}

func (c *captureEngine) render(_ context.Context, p page) ([]byte, error) {
	c.pages = append(c.pages, p)
	return []byte("%PDF-capture"), nil
}

func lineTexts(p page) []string {
	out := make([]string, 0, len(p.Lines))
	for _, l := range p.Lines {
		out = append(out, l.Text)
	}
	return out
}

func sampleInvoice() InvoiceFields {
	return InvoiceFields{
		InvoiceNumber:  "ZC-2026-4821",
		ClientName:     "Acme",
		ClientEmail:    "a@x.com",
		ServiceName:    "Design",
		Amount:         decimal.RequireFromString("500"),
		PaymentLinkURL: "https://buy.stripe.com/test_123",
		Notes:          "Net 15",
	}
}

func TestInvoicePageLayout(t *testing.T) {
	renderedAt := time.Date(2026, 3, 7, 15, 0, 0, 0, time.UTC)
	p := invoicePage("ZCollabz", sampleInvoice(), renderedAt, []byte{0x89})

	want := []string{
		"Invoice",
		"Invoice #: ZC-2026-4821",
		"Date: 3/7/2026",
		"Bill To:",
		"Acme",
		"a@x.com",
		"Service: Design",
		"Amount Due: $500.00",
		"Notes: Net 15",
		"Payment Link: https://buy.stripe.com/test_123",
	}
	got := lineTexts(p)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected lines:\n got %q\nwant %q", got, want)
	}
	if p.Company != "ZCollabz" {
		t.Fatalf("unexpected company %q", p.Company)
	}
	if p.Footer == nil || p.Footer.Text != qrCaption {
		t.Fatalf("expected qr caption footer, got %+v", p.Footer)
	}
}

func TestInvoicePageWithoutNotesOrQR(t *testing.T) {
	fields := sampleInvoice()
	fields.Notes = "  "
	p := invoicePage("ZCollabz", fields, time.Now(), nil)

	for _, text := range lineTexts(p) {
		if strings.HasPrefix(text, "Notes:") {
			t.Fatal("blank notes must be omitted")
		}
	}
	if p.Footer == nil || p.Footer.Text != qrUnavailable || p.Footer.Color != colorError {
		t.Fatalf("expected red unavailable marker, got %+v", p.Footer)
	}
}

func TestReceiptPageLayout(t *testing.T) {
	paidAt := time.Date(2026, 3, 9, 18, 4, 5, 0, time.UTC)
	p := receiptPage("ZCollabz", ReceiptFields{
		InvoiceNumber:    "ZC-2026-4821",
		ClientName:       "Acme",
		ClientEmail:      "a@x.com",
		ServiceName:      "Design",
		Amount:           decimal.RequireFromString("19.5"),
		PaidAt:           paidAt,
		PaymentMethod:    "visa **** 4242",
		StripeReceiptURL: "https://pay.stripe.com/receipts/abc",
	})

	want := []string{
		"Payment Receipt",
		"Invoice #: ZC-2026-4821",
		"Date Paid: 3/9/2026, 6:04:05 PM",
		"Paid By:",
		"Acme",
		"a@x.com",
		"Service: Design",
		"Amount Paid: $19.50",
		"Payment Method: visa **** 4242",
		"Stripe Receipt: https://pay.stripe.com/receipts/abc",
	}
	got := lineTexts(p)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected lines:\n got %q\nwant %q", got, want)
	}
	if p.QR != nil || p.Footer != nil {
		t.Fatal("receipts carry no qr code")
	}

	minimal := receiptPage("ZCollabz", ReceiptFields{ClientName: "Acme", ClientEmail: "a@x.com", ServiceName: "Design", Amount: decimal.NewFromInt(5), PaidAt: paidAt})
	for _, text := range lineTexts(minimal) {
		if strings.HasPrefix(text, "Invoice #") || strings.HasPrefix(text, "Payment Method") || strings.HasPrefix(text, "Stripe Receipt") {
			t.Fatalf("optional line %q should be omitted", text)
		}
	}
}

func TestRenderInvoiceSurvivesQRFailure(t *testing.T) {
	eng := &captureEngine{}
	r := &Renderer{
		engine:   eng,
		company:  "ZCollabz",
		now:      time.Now,
		encodeQR: func(string) ([]byte, error) { return nil, errors.New("encoder exploded") },
	}

	out, err := r.RenderInvoice(context.Background(), sampleInvoice())
	if err != nil {
		t.Fatalf("RenderInvoice must not fail on qr errors: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected document bytes")
	}
	if len(eng.pages) != 1 || eng.pages[0].QR != nil || eng.pages[0].Footer.Text != qrUnavailable {
		t.Fatalf("expected unavailable marker, got %+v", eng.pages)
	}
}

func TestFPDFEngineProducesPDF(t *testing.T) {
	r, err := NewRenderer(config.PDFConfig{Engine: "fpdf"}, "", nil)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	invoice, err := r.RenderInvoice(context.Background(), sampleInvoice())
	if err != nil {
		t.Fatalf("RenderInvoice: %v", err)
	}
	if !bytes.HasPrefix(invoice, []byte("%PDF-")) {
		t.Fatalf("expected pdf header, got %q", invoice[:8])
	}

	receipt, err := r.RenderReceipt(context.Background(), ReceiptFields{
		ClientName:  "Café Noël",
		ClientEmail: "a@x.com",
		ServiceName: "Design",
		Amount:      decimal.NewFromInt(500),
		PaidAt:      time.Now(),
	})
	if err != nil {
		t.Fatalf("RenderReceipt: %v", err)
	}
	if !bytes.HasPrefix(receipt, []byte("%PDF-")) {
		t.Fatal("expected pdf header on receipt")
	}
}

func TestNewRendererRejectsUnknownEngine(t *testing.T) {
	if _, err := NewRenderer(config.PDFConfig{Engine: "wkhtmltopdf"}, "ZCollabz", nil); err == nil {
		t.Fatal("expected error for unknown engine")
	}
	r, err := NewRenderer(config.PDFConfig{Engine: "chromium"}, "ZCollabz", nil)
	if err != nil {
		t.Fatalf("chromium engine should construct without launching: %v", err)
	}
	if _, ok := r.engine.(chromiumEngine); !ok {
		t.Fatalf("expected chromium engine, got %T", r.engine)
	}
}

func TestRenderHTMLEmbedsQRAndEscapes(t *testing.T) {
	fields := sampleInvoice()
	fields.ClientName = "<script>alert(1)</script>"
	p := invoicePage("ZCollabz", fields, time.Now(), []byte("png"))

	html, err := renderHTML(p)
	if err != nil {
		t.Fatalf("renderHTML: %v", err)
	}
	if !strings.Contains(html, `src="data:image/png;base64,cG5n"`) {
		t.Fatalf("expected embedded qr image, got %s", html)
	}
	if strings.Contains(html, "<script>") {
		t.Fatal("client name must be escaped")
	}
	if !strings.Contains(html, "Scan to pay") || !strings.Contains(html, "Amount Due: $500.00") {
		t.Fatal("expected invoice text in html")
	}

	p = invoicePage("ZCollabz", sampleInvoice(), time.Now(), nil)
	html, err = renderHTML(p)
	if err != nil {
		t.Fatalf("renderHTML: %v", err)
	}
	if strings.Contains(html, "<img") || !strings.Contains(html, "QR code unavailable") {
		t.Fatal("expected unavailable marker without image")
	}
}

func TestEncodeQR(t *testing.T) {
	png, err := encodeQR("https://buy.stripe.com/test_123")
	if err != nil {
		t.Fatalf("encodeQR: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatal("expected png bytes")
	}
	if _, err := encodeQR(" "); err == nil {
		t.Fatal("expected error for empty content")
	}
}
