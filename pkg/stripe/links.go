package stripe

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/paymentlink"
	"github.com/stripe/stripe-go/v84/price"

	pkgerrors "github.com/higujral/zcollabz/pkg/errors"
)

const defaultConfirmationMessage = "Thank you for your payment!"

// resourceAPI is the slice of Stripe resources the client touches.
type resourceAPI interface {
	NewPrice(params *stripe.PriceParams) (*stripe.Price, error)
	NewPaymentLink(params *stripe.PaymentLinkParams) (*stripe.PaymentLink, error)
	GetPaymentLink(id string, params *stripe.PaymentLinkParams) (*stripe.PaymentLink, error)
	GetPaymentIntent(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type liveAPI struct{}

func (liveAPI) NewPrice(params *stripe.PriceParams) (*stripe.Price, error) {
	return price.New(params)
}

func (liveAPI) NewPaymentLink(params *stripe.PaymentLinkParams) (*stripe.PaymentLink, error) {
	return paymentlink.New(params)
}

func (liveAPI) GetPaymentLink(id string, params *stripe.PaymentLinkParams) (*stripe.PaymentLink, error) {
	return paymentlink.Get(id, params)
}

func (liveAPI) GetPaymentIntent(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return paymentintent.Get(id, params)
}

// LinkRequest describes a single-item hosted payment link.
type LinkRequest struct {
	Currency    string
	UnitAmount  int64
	ProductName string
	Metadata    map[string]string
}

// Link is the issued price and its hosted checkout URL.
type Link struct {
	PriceID string
	LinkID  string
	URL     string
}

// ChargeSummary describes how a checkout was paid. Either field may be empty.
type ChargeSummary struct {
	PaymentMethod string
	ReceiptURL    string
}

// CreatePriceAndLink creates a price and a payment link for it. The price is
// not rolled back when the link call fails.
func (c *Client) CreatePriceAndLink(ctx context.Context, req LinkRequest) (*Link, error) {
	if req.UnitAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit amount must be a positive number of cents")
	}
	if strings.TrimSpace(req.ProductName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	priceParams := &stripe.PriceParams{
		Currency:   stripe.String(currency),
		UnitAmount: stripe.Int64(req.UnitAmount),
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String(req.ProductName),
		},
	}
	priceParams.Context = ctx

	createdPrice, err := c.api.NewPrice(priceParams)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "payment link issuance failed")
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{
				Price:    stripe.String(createdPrice.ID),
				Quantity: stripe.Int64(1),
			},
		},
		AfterCompletion: &stripe.PaymentLinkAfterCompletionParams{
			Type: stripe.String(string(stripe.PaymentLinkAfterCompletionTypeHostedConfirmation)),
			HostedConfirmation: &stripe.PaymentLinkAfterCompletionHostedConfirmationParams{
				CustomMessage: stripe.String(c.confirmationMessage),
			},
		},
	}
	linkParams.Context = ctx
	for key, value := range req.Metadata {
		linkParams.AddMetadata(key, value)
	}

	link, err := c.api.NewPaymentLink(linkParams)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "payment link issuance failed")
	}
	if link.URL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "payment link issuance failed: empty url")
	}

	return &Link{PriceID: createdPrice.ID, LinkID: link.ID, URL: link.URL}, nil
}

// PaymentLinkURL dereferences a payment link id to its canonical URL.
func (c *Client) PaymentLinkURL(ctx context.Context, linkID string) (string, error) {
	if strings.TrimSpace(linkID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment link id is required")
	}
	params := &stripe.PaymentLinkParams{}
	params.Context = ctx
	link, err := c.api.GetPaymentLink(linkID, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "resolve payment link")
	}
	if link.URL == "" {
		return "", pkgerrors.New(pkgerrors.CodeUpstream, fmt.Sprintf("payment link %s has no url", linkID))
	}
	return link.URL, nil
}

// ChargeSummary loads the payment intent with its latest charge expanded and
// reports the card used and Stripe's own receipt URL.
func (c *Client) ChargeSummary(ctx context.Context, paymentIntentID string) (ChargeSummary, error) {
	if strings.TrimSpace(paymentIntentID) == "" {
		return ChargeSummary{}, nil
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	intent, err := c.api.GetPaymentIntent(paymentIntentID, params)
	if err != nil {
		return ChargeSummary{}, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "retrieve payment intent")
	}
	return summarizeCharge(intent.LatestCharge), nil
}

func summarizeCharge(charge *stripe.Charge) ChargeSummary {
	if charge == nil {
		return ChargeSummary{}
	}
	summary := ChargeSummary{ReceiptURL: charge.ReceiptURL}
	if details := charge.PaymentMethodDetails; details != nil && details.Card != nil {
		brand := string(details.Card.Brand)
		if brand != "" && details.Card.Last4 != "" {
			summary.PaymentMethod = fmt.Sprintf("%s **** %s", brand, details.Card.Last4)
		}
	}
	return summary
}
