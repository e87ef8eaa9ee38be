package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/higujral/zcollabz/api/responses"
	"github.com/higujral/zcollabz/api/validators"
	"github.com/higujral/zcollabz/internal/invoices"
	pkgerrors "github.com/higujral/zcollabz/pkg/errors"
	"github.com/higujral/zcollabz/pkg/logger"
)

type createPaymentLinkRequest struct {
	ClientName  string          `json:"clientName" validate:"required"`
	ServiceName string          `json:"serviceName" validate:"required"`
	Amount      json.RawMessage `json:"amount"`
}

type createPaymentLinkResponse struct {
	Success     bool                     `json:"success"`
	PaymentLink string                   `json:"paymentLink"`
	Transaction *invoices.TransactionDTO `json:"transaction"`
}

// CreatePaymentLink issues a standalone link tracked by a PENDING transaction.
func CreatePaymentLink(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		var payload createPaymentLinkRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := validators.ParseAmount(payload.Amount, "amount")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreatePaymentLink(r.Context(), invoices.CreatePaymentLinkInput{
			ClientName:  validators.SanitizeString(payload.ClientName, maxNameLength),
			ServiceName: validators.SanitizeString(payload.ServiceName, maxNameLength),
			Amount:      amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, createPaymentLinkResponse{
			Success:     true,
			PaymentLink: result.PaymentLink,
			Transaction: invoices.TransactionFromModel(result.Transaction),
		})
	}
}
