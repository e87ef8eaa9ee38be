package documents

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/url"
	"time"

	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const defaultChromiumTimeout = 15 * time.Second

// chromiumEngine prints an HTML rendition of the page through headless
// Chromium. The binary must be installed on the host.
type chromiumEngine struct {
	execPath string
	timeout  time.Duration
}

func (e chromiumEngine) render(ctx context.Context, p page) ([]byte, error) {
	html, err := renderHTML(p)
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if e.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(e.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	timeout := e.timeout
	if timeout <= 0 {
		timeout = defaultChromiumTimeout
	}
	runCtx, cancelRun := chromedp.NewContext(allocCtx)
	defer cancelRun()
	runCtx, cancelTimeout := context.WithTimeout(runCtx, timeout)
	defer cancelTimeout()

	var out []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("data:text/html,"+url.PathEscape(html)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, perr := cdppage.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.5).
				WithPaperHeight(11).
				Do(ctx)
			if perr == nil {
				out = buf
			}
			return perr
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp run failed: %w", err)
	}
	return out, nil
}

type htmlLine struct {
	Text   string
	Size   float64
	Color  string
	Margin float64
}

func renderHTML(p page) (string, error) {
	data := struct {
		Title   string
		Company string
		Lines   []htmlLine
		QR      template.URL
		Footer  *htmlLine
	}{Title: p.Title, Company: p.Company}

	for _, l := range p.Lines {
		data.Lines = append(data.Lines, toHTMLLine(l))
	}
	if len(p.QR) > 0 {
		data.QR = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(p.QR))
	}
	if p.Footer != nil {
		footer := toHTMLLine(*p.Footer)
		data.Footer = &footer
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toHTMLLine(l line) htmlLine {
	return htmlLine{
		Text:   l.Text,
		Size:   l.Size,
		Color:  fmt.Sprintf("#%02x%02x%02x", l.Color.R, l.Color.G, l.Color.B),
		Margin: l.Gap,
	}
}

var documentTemplate = template.Must(template.New("document").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>{{.Title}}</title>
  <style>
    body { font-family: Helvetica, Arial, sans-serif; margin: 50px; color: #000; }
    .company { position: absolute; top: 36px; left: 400px; font-size: 16px; }
    .line { line-height: 18px; }
    .qr { width: 120px; height: 120px; margin-top: 8px; }
  </style>
</head>
<body>
  <div class="company">{{.Company}}</div>
  {{range .Lines}}<div class="line" style="font-size: {{.Size}}px; color: {{.Color}}; margin-top: {{.Margin}}px">{{.Text}}</div>
  {{end}}
  {{if .QR}}<img class="qr" alt="payment link QR code" src="{{.QR}}" />{{end}}
  {{with .Footer}}<div class="line" style="font-size: {{.Size}}px; color: {{.Color}}">{{.Text}}</div>{{end}}
</body>
</html>
`))
