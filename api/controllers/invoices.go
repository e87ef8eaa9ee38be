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

const (
	maxNameLength  = 200
	maxNotesLength = 2000
)

type createInvoiceRequest struct {
	ClientName  string          `json:"clientName" validate:"required"`
	ClientEmail string          `json:"clientEmail" validate:"required,max=254,email"`
	ServiceName string          `json:"serviceName" validate:"required"`
	Amount      json.RawMessage `json:"amount"`
	Notes       *string         `json:"notes,omitempty"`
}

type createInvoiceResponse struct {
	Success     bool                        `json:"success"`
	PaymentLink string                      `json:"paymentLink"`
	Invoice     *invoices.InvoiceSummaryDTO `json:"invoice"`
}

// CreateInvoice issues a payment link and a PENDING invoice with its PDF.
func CreateInvoice(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		var payload createInvoiceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := validators.ParseAmount(payload.Amount, "amount")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateInvoice(r.Context(), invoices.CreateInvoiceInput{
			ClientName:  validators.SanitizeString(payload.ClientName, maxNameLength),
			ClientEmail: validators.SanitizeString(payload.ClientEmail, 0),
			ServiceName: validators.SanitizeString(payload.ServiceName, maxNameLength),
			Amount:      amount,
			Notes:       validators.OptionalString(payload.Notes, maxNotesLength),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, createInvoiceResponse{
			Success:     true,
			PaymentLink: result.PaymentLink,
			Invoice:     invoices.InvoiceSummaryFromModel(result.Invoice),
		})
	}
}
