package controllers

import (
	"net/http"

	"github.com/higujral/zcollabz/api/responses"
	"github.com/higujral/zcollabz/internal/invoices"
	pkgerrors "github.com/higujral/zcollabz/pkg/errors"
	"github.com/higujral/zcollabz/pkg/logger"
)

type transactionsResponse struct {
	Transactions []invoices.TransactionDTO `json:"transactions"`
}

func ListTransactions(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		items, err := svc.ListTransactions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, transactionsResponse{
			Transactions: invoices.TransactionsFromModels(items),
		})
	}
}
