package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/higujral/zcollabz/api/responses"
	"github.com/higujral/zcollabz/api/validators"
	"github.com/higujral/zcollabz/internal/invoices"
	pkgerrors "github.com/higujral/zcollabz/pkg/errors"
	"github.com/higujral/zcollabz/pkg/logger"
)

const maxMessageLength = 5000

type sendInvoiceEmailRequest struct {
	InvoiceID string  `json:"invoiceId"`
	Message   *string `json:"message,omitempty"`
}

type sendReceiptEmailRequest struct {
	InvoiceID string `json:"invoiceId"`
}

func SendInvoiceEmail(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		var payload sendInvoiceEmailRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoiceID, err := parseInvoiceID(payload.InvoiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		message := ""
		if payload.Message != nil {
			message = validators.SanitizeString(*payload.Message, maxMessageLength)
		}
		if err := svc.SendInvoiceEmail(r.Context(), invoiceID, message); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w)
	}
}

func SendReceiptEmail(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		var payload sendReceiptEmailRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoiceID, err := parseInvoiceID(payload.InvoiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SendReceiptEmail(r.Context(), invoiceID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w)
	}
}

// parseInvoiceID maps a blank id to uuid.Nil so the service reports it as missing.
func parseInvoiceID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invoiceId must be a valid UUID").
			WithDetails(map[string]string{"invoiceId": "must be a valid UUID"})
	}
	return id, nil
}
