package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/higujral/zcollabz/pkg/config"
	"github.com/higujral/zcollabz/pkg/logger"
)

// Message is a single-recipient HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Mailer delivers best-effort email through SendGrid. Send never returns an
// error; callers that care check the boolean.
type Mailer struct {
	client   sender
	from     *mail.Email
	enabled  bool
	logg     *logger.Logger
	observer func(delivered bool)
}

// NewMailer builds a mailer. Without an API key and sender it is disabled
// and every Send is a logged no-op.
func NewMailer(cfg config.SendgridConfig, logg *logger.Logger) *Mailer {
	if !cfg.Enabled() {
		return &Mailer{logg: logg}
	}
	return newMailer(sendgrid.NewSendClient(strings.TrimSpace(cfg.APIKey)), cfg, logg)
}

func newMailer(client sender, cfg config.SendgridConfig, logg *logger.Logger) *Mailer {
	return &Mailer{
		client:  client,
		from:    mail.NewEmail(cfg.FromName, strings.TrimSpace(cfg.DefaultFrom)),
		enabled: client != nil && cfg.Enabled(),
		logg:    logg,
	}
}

// OnDelivery registers a hook called after every attempted send.
func (m *Mailer) OnDelivery(fn func(delivered bool)) {
	if m != nil {
		m.observer = fn
	}
}

// Enabled reports whether provider credentials and a sender are configured.
func (m *Mailer) Enabled() bool {
	return m != nil && m.enabled
}

// Send delivers msg and reports whether the provider accepted it.
func (m *Mailer) Send(ctx context.Context, msg Message) bool {
	if !m.Enabled() {
		m.warn(ctx, msg, "email.disabled")
		return false
	}
	if strings.TrimSpace(msg.To) == "" {
		m.warn(ctx, msg, "email.missing_recipient")
		return false
	}

	payload := mail.NewSingleEmail(m.from, msg.Subject, mail.NewEmail("", msg.To), "", msg.HTML)
	resp, err := m.client.SendWithContext(ctx, payload)
	if err != nil {
		m.fail(ctx, msg, err)
		return false
	}
	if resp == nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		status := 0
		body := ""
		if resp != nil {
			status, body = resp.StatusCode, resp.Body
		}
		m.fail(ctx, msg, fmt.Errorf("sendgrid returned status %d: %s", status, strings.TrimSpace(body)))
		return false
	}

	if m.logg != nil {
		m.logg.Info(m.logg.WithField(m.logg.WithRecipient(ctx, msg.To), "subject", msg.Subject), "email.sent")
	}
	m.notify(true)
	return true
}

func (m *Mailer) warn(ctx context.Context, msg Message, event string) {
	if m != nil && m.logg != nil {
		m.logg.Warn(m.logg.WithField(m.logg.WithRecipient(ctx, msg.To), "subject", msg.Subject), event)
	}
}

func (m *Mailer) fail(ctx context.Context, msg Message, err error) {
	if m.logg != nil {
		m.logg.Error(m.logg.WithField(m.logg.WithRecipient(ctx, msg.To), "subject", msg.Subject), "email.send_failed", err)
	}
	m.notify(false)
}

func (m *Mailer) notify(delivered bool) {
	if m.observer != nil {
		m.observer(delivered)
	}
}
