package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/render"

	"github.com/qhosting/cloudsms/internal/api"
	"github.com/qhosting/cloudsms/internal/models"
)

const (
	defaultLedgerLimit = 50
	maxLedgerLimit     = 200
)

type creditFunc func(ctx context.Context, companyID int64, amount int, description, reference string) (*models.CreditLedgerEntry, error)

// TopUpCredits implements api.ServerInterface.
func (h *Handler) TopUpCredits(w http.ResponseWriter, r *http.Request, id int64) {
	h.creditCompany(w, r, id, h.service.Ledger.TopUp, "Credit top-up", "top up credits")
}

// RefundCredits implements api.ServerInterface.
func (h *Handler) RefundCredits(w http.ResponseWriter, r *http.Request, id int64) {
	h.creditCompany(w, r, id, h.service.Ledger.Refund, "Credit refund", "refund credits")
}

func (h *Handler) creditCompany(w http.ResponseWriter, r *http.Request, id int64, credit creditFunc, defaultDescription, op string) {
	var req api.TopUpRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.sendError(w, r, http.StatusBadRequest, ErrorCodeInvalidRequest, "request body must be a JSON object with an amount")
		return
	}

	description, reference := defaultDescription, ""
	if req.Description != nil {
		description = *req.Description
	}
	if req.Reference != nil {
		reference = *req.Reference
	}

	entry, err := credit(r.Context(), id, req.Amount, description, reference)
	if err != nil {
		h.writeServiceError(w, r, err, op)
		return
	}

	render.JSON(w, r, api.TopUpResponse{
		CompanyId: id,
		Balance:   entry.BalanceAfter,
		Entry:     ledgerEntry(entry),
	})
}

// GetCreditLedger implements api.ServerInterface.
func (h *Handler) GetCreditLedger(w http.ResponseWriter, r *http.Request, id int64, params api.GetCreditLedgerParams) {
	limit := defaultLedgerLimit
	if params.Limit != nil && *params.Limit >= 1 {
		limit = *params.Limit
		if limit > maxLedgerLimit {
			limit = maxLedgerLimit
		}
	}

	entries, err := h.service.Ledger.History(r.Context(), id, limit)
	if err != nil {
		h.writeServiceError(w, r, err, "get credit ledger")
		return
	}

	balance, err := h.service.Ledger.Balance(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "get credit balance")
		return
	}

	resp := api.LedgerResponse{
		CompanyId: id,
		Balance:   balance,
		Entries:   make([]api.LedgerEntry, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, ledgerEntry(e))
	}

	render.JSON(w, r, resp)
}

func ledgerEntry(e *models.CreditLedgerEntry) api.LedgerEntry {
	return api.LedgerEntry{
		Id:           e.ID,
		Type:         api.LedgerEntryType(e.Type),
		Delta:        e.Delta,
		BalanceAfter: e.BalanceAfter,
		Description:  e.Description,
		Reference:    e.Reference,
		CreatedAt:    e.CreatedAt,
	}
}
