package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/higujral/zcollabz/pkg/config"
	"github.com/higujral/zcollabz/pkg/logger"
)

const (
	EngineFPDF     = "fpdf"
	EngineChromium = "chromium"

	defaultCompany = "ZCollabz"
)

type engine interface {
	render(ctx context.Context, p page) ([]byte, error)
}

// Renderer turns invoice and receipt fields into PDF bytes. A QR encoding
// failure never fails the document; the page prints a marker instead.
type Renderer struct {
	engine   engine
	company  string
	now      func() time.Time
	encodeQR func(content string) ([]byte, error)
	logg     *logger.Logger
}

func NewRenderer(cfg config.PDFConfig, company string, logg *logger.Logger) (*Renderer, error) {
	var eng engine
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case "", EngineFPDF:
		eng = fpdfEngine{}
	case EngineChromium:
		eng = chromiumEngine{execPath: cfg.ChromiumPath, timeout: cfg.Timeout}
	default:
		return nil, fmt.Errorf("unsupported pdf engine %q", cfg.Engine)
	}
	if strings.TrimSpace(company) == "" {
		company = defaultCompany
	}
	return &Renderer{
		engine:   eng,
		company:  company,
		now:      time.Now,
		encodeQR: encodeQR,
		logg:     logg,
	}, nil
}

// RenderInvoice stamps the current date, not the invoice creation time.
func (r *Renderer) RenderInvoice(ctx context.Context, fields InvoiceFields) ([]byte, error) {
	qr, err := r.encodeQR(fields.PaymentLinkURL)
	if err != nil {
		qr = nil
		if r.logg != nil {
			r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "documents.qr_unavailable")
		}
	}
	out, err := r.engine.render(ctx, invoicePage(r.company, fields, r.now(), qr))
	if err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", fields.InvoiceNumber, err)
	}
	return out, nil
}

// RenderReceipt prints the caller supplied paid-at time.
func (r *Renderer) RenderReceipt(ctx context.Context, fields ReceiptFields) ([]byte, error) {
	out, err := r.engine.render(ctx, receiptPage(r.company, fields))
	if err != nil {
		return nil, fmt.Errorf("render receipt %s: %w", fields.InvoiceNumber, err)
	}
	return out, nil
}
