package documents

import (
	"bytes"
	"context"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin  = 50.0
	companyX    = 400.0
	topBaseline = 50.0
	lineHeight  = 18.0
	qrSize      = 120.0
	qrImageName = "payment-link-qr"
)

// fpdfEngine draws Letter pages with the core Helvetica font.
type fpdfEngine struct{}

func (fpdfEngine) render(_ context.Context, p page) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetTitle(p.Title, true)
	pdf.SetCreator(p.Company, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	draw := func(l line, x, y float64) {
		pdf.SetFont("Helvetica", "", l.Size)
		pdf.SetTextColor(l.Color.R, l.Color.G, l.Color.B)
		pdf.Text(x, y, tr(l.Text))
	}

	draw(line{Text: p.Company, Size: 16, Color: colorText}, companyX, topBaseline)

	y := topBaseline
	for _, l := range p.Lines {
		y += l.Gap
		draw(l, pageMargin, y)
		y += lineHeight
	}

	if len(p.QR) > 0 {
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(qrImageName, opts, bytes.NewReader(p.QR))
		pdf.ImageOptions(qrImageName, pageMargin, y, qrSize, qrSize, false, opts, 0, "")
		y += qrSize + lineHeight
	}
	if p.Footer != nil {
		draw(*p.Footer, pageMargin, y)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
