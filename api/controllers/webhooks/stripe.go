package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"

	"github.com/higujral/zcollabz/api/responses"
	stripewebhook "github.com/higujral/zcollabz/internal/webhooks/stripe"
	pkgerrors "github.com/higujral/zcollabz/pkg/errors"
	"github.com/higujral/zcollabz/pkg/logger"
	pkgstripe "github.com/higujral/zcollabz/pkg/stripe"
	"github.com/higujral/zcollabz/pkg/types"
)

const maxWebhookBytes = 1 << 20

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) (stripewebhook.Outcome, error)
}

// EventGuard deduplicates event ids; it is optional.
type EventGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// EventVerifier authenticates a raw payload against its signature header.
type EventVerifier interface {
	VerifyEvent(payload []byte, header string) (stripe.Event, error)
}

// StripeWebhook verifies and reconciles Stripe payment events.
func StripeWebhook(svc StripeWebhookService, verifier EventVerifier, guard EventGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe client unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		event, err := verifier.VerifyEvent(payload, r.Header.Get(pkgstripe.SignatureHeader))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			ctx = logg.WithFields(logg.WithEventID(ctx, event.ID), map[string]any{"event_type": string(event.Type)})
		}

		marked := guard
		if marked != nil {
			seen, guardErr := marked.CheckAndMark(ctx, event.ID)
			switch {
			case guardErr != nil:
				if logg != nil {
					logg.Warn(ctx, "webhook.guard_unavailable")
				}
				marked = nil
			case seen:
				if logg != nil {
					logg.Info(ctx, "webhook.redelivery_skipped")
				}
				responses.WriteJSON(w, http.StatusOK, types.Acknowledgement{Received: true})
				return
			}
		}

		outcome, err := svc.HandleEvent(ctx, &event)
		if err != nil {
			if marked != nil {
				if delErr := marked.Delete(ctx, event.ID); delErr != nil && logg != nil {
					logg.Error(ctx, "webhook.guard_release_failed", delErr)
				}
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithField(ctx, "outcome", string(outcome)), "webhook.handled")
		}
		responses.WriteJSON(w, http.StatusOK, types.Acknowledgement{Received: true})
	}
}
