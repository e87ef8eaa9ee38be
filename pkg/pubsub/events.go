package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
)

const (
	EnvelopeVersion = 1

	EventInvoicePaid     = "invoice.paid"
	EventTransactionPaid = "transaction.paid"

	AttrEventType   = "event_type"
	AttrAggregateID = "aggregate_id"

	defaultPublishTimeout = 10 * time.Second
)

// Envelope is the stable wire shape of every published event.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// PaymentCompleted is the data carried by invoice.paid and transaction.paid.
type PaymentCompleted struct {
	InvoiceID        *string   `json:"invoiceId"`
	InvoiceNumber    *string   `json:"invoiceNumber"`
	TransactionCount int64     `json:"transactionCount"`
	PaymentLinkURL   string    `json:"paymentLinkUrl"`
	SessionID        string    `json:"sessionId"`
	PaidAt           time.Time `json:"paidAt"`
}

type publisher interface {
	Publish(context.Context, *pubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// EventPublisher wraps a topic publisher with the envelope format.
type EventPublisher struct {
	publisher publisher
	now       func() time.Time
	newID     func() string
	timeout   time.Duration
}

func NewEventPublisher(p *pubsub.Publisher) (*EventPublisher, error) {
	if p == nil {
		return nil, errors.New("pubsub publisher is required")
	}
	return newEventPublisher(&gcpPublisher{Publisher: p}), nil
}

func newEventPublisher(p publisher) *EventPublisher {
	return &EventPublisher{
		publisher: p,
		now:       time.Now,
		newID:     uuid.NewString,
		timeout:   defaultPublishTimeout,
	}
}

// Publish wraps data in an Envelope and waits for the server ack.
func (p *EventPublisher) Publish(ctx context.Context, eventType, aggregateID string, data any) (string, error) {
	if p == nil || p.publisher == nil {
		return "", errors.New("event publisher not initialized")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode %s data: %w", eventType, err)
	}
	body, err := json.Marshal(Envelope{
		Version:    EnvelopeVersion,
		EventID:    p.newID(),
		OccurredAt: p.now().UTC(),
		Data:       raw,
	})
	if err != nil {
		return "", fmt.Errorf("encode %s envelope: %w", eventType, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data: body,
		Attributes: map[string]string{
			AttrEventType:   eventType,
			AttrAggregateID: aggregateID,
		},
	})
	if result == nil {
		return "", errors.New("publish result is nil")
	}
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", eventType, err)
	}
	return id, nil
}

type gcpPublisher struct {
	*pubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *pubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*pubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
