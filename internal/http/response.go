package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/middleware/trace"
)

type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, core.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError logs err and writes it as JSON. Internal errors are not echoed
// to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)
	logger := applog.FromContext(r.Context())
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", applog.FieldError, err, applog.FieldPath, r.URL.Path)
		msg = "internal error"
	} else {
		logger.WarnContext(r.Context(), "Request rejected", applog.FieldError, err, applog.FieldStatusCode, status)
	}
	writeJSON(w, status, errorBody{Error: msg, Kind: kind, RequestID: trace.GetRequestID(r.Context())})
}

type entryResponse struct {
	ID               int64  `json:"id"`
	AccountID        int64  `json:"account_id"`
	CategoryID       *int64 `json:"category_id,omitempty"`
	Kind             string `json:"kind"`
	AmountCents      int64  `json:"amount_cents"`
	Amount           string `json:"amount"`
	Date             string `json:"date"`
	Competence       string `json:"competence,omitempty"`
	Description      string `json:"description"`
	Note             string `json:"note,omitempty"`
	PaymentMethod    string `json:"payment_method,omitempty"`
	TransferGroup    string `json:"transfer_group,omitempty"`
	IsTransfer       bool   `json:"is_transfer"`
	Settled          bool   `json:"settled"`
	SettledAccountID *int64 `json:"settled_account_id,omitempty"`
	RecurringID      *int64 `json:"recurring_id,omitempty"`
	PlanID           *int64 `json:"plan_id,omitempty"`
	InstallmentIndex int    `json:"installment_index,omitempty"`
}

func newEntryResponse(e core.Entry) entryResponse {
	resp := entryResponse{
		ID:               e.ID,
		AccountID:        e.AccountID,
		CategoryID:       e.CategoryID,
		Kind:             string(e.Kind),
		AmountCents:      e.Amount.Cents,
		Amount:           e.Amount.String(),
		Date:             e.Date.String(),
		Description:      e.Description,
		Note:             e.Note,
		PaymentMethod:    e.PaymentMethod,
		TransferGroup:    e.TransferGroup,
		IsTransfer:       e.IsTransfer,
		Settled:          e.Settled,
		SettledAccountID: e.SettledAccountID,
		RecurringID:      e.RecurringID,
		PlanID:           e.PlanID,
		InstallmentIndex: e.InstallmentIndex,
	}
	if e.Competence != nil {
		resp.Competence = e.Competence.String()
	}
	return resp
}

type budgetResponse struct {
	CategoryID   int64  `json:"category_id"`
	Period       string `json:"period"`
	SpentCents   int64  `json:"spent_cents"`
	CeilingCents int64  `json:"ceiling_cents"`
	Percent      string `json:"percent"`
	Status       string `json:"status"`
}

func newBudgetResponse(s core.BudgetStatus) budgetResponse {
	return budgetResponse{
		CategoryID:   s.CategoryID,
		Period:       s.Period.String(),
		SpentCents:   s.Spent.Cents,
		CeilingCents: s.Ceiling.Cents,
		Percent:      s.Percent.StringFixed(2),
		Status:       string(s.Status),
	}
}
