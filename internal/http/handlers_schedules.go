package http

import (
	"net/http"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/services"
)

type createRecurrenceRequest struct {
	AccountID   int64  `json:"account_id"`
	CategoryID  *int64 `json:"category_id"`
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	Interval    int    `json:"interval"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	AutoPost    *bool  `json:"auto_post"`
}

func (s *Server) handleCreateRecurrence(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createRecurrenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, err := parseDateOr("start_date", req.StartDate, s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := parseDateOr("end_date", req.EndDate, core.Date{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.Interval == 0 {
		req.Interval = 1
	}
	autoPost := req.AutoPost == nil || *req.AutoPost

	id, err := s.ledger.Recurring.CreateDefinition(r.Context(), core.RecurringDefinition{
		OwnerID:     owner,
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Kind:        core.Kind(req.Kind),
		Amount:      amount,
		Description: req.Description,
		Frequency:   core.Frequency(req.Frequency),
		Interval:    req.Interval,
		StartDate:   start,
		EndDate:     end,
		AutoPost:    autoPost,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"recurring_id": id})
}

type runRecurrencesRequest struct {
	AsOf      string `json:"as_of"`
	BatchSize int    `json:"batch_size"`
}

type runRecurrencesResponse struct {
	AsOf   string   `json:"as_of"`
	Posted int      `json:"posted"`
	Failed []int64  `json:"failed"`
	Errors []string `json:"errors,omitempty"`
}

// handleRunRecurrences triggers a scheduler run. Per-definition failures are
// reported in the body; only a failure to run at all is an error status.
func (s *Server) handleRunRecurrences(w http.ResponseWriter, r *http.Request) {
	var req runRecurrencesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	asOf, err := parseDateOr("as_of", req.AsOf, s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.ledger.Recurring.RunRecurrencePosting(r.Context(), asOf, req.BatchSize)
	if err != nil && len(result.Failed) == 0 {
		writeError(w, r, err)
		return
	}

	resp := runRecurrencesResponse{AsOf: asOf.String(), Posted: result.Posted, Failed: result.Failed}
	if resp.Failed == nil {
		resp.Failed = []int64{}
	}
	if err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Recurrence run finished with failures",
			"failed", len(result.Failed), applog.FieldError, err)
		resp.Errors = []string{err.Error()}
	}
	writeJSON(w, http.StatusOK, resp)
}

type createInstallmentsRequest struct {
	AccountID   int64  `json:"account_id"`
	CategoryID  *int64 `json:"category_id"`
	Description string `json:"description"`
	Total       string `json:"total"`
	Count       int    `json:"count"`
	FirstDue    string `json:"first_due"`
}

func (s *Server) handleCreateInstallments(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createInstallmentsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	total, err := parseAmount("total", req.Total)
	if err != nil {
		writeError(w, r, err)
		return
	}
	firstDue, err := parseDateOr("first_due", req.FirstDue, s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.ledger.Installments.CreatePlan(r.Context(), services.CreateInstallmentPlanParams{
		OwnerID:     owner,
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Total:       total,
		Count:       req.Count,
		FirstDue:    firstDue,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"plan_id": id})
}

func (s *Server) handleCancelInstallments(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.Installments.CancelPlan(r.Context(), id, owner, s.today()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createTransferRequest struct {
	FromAccountID int64  `json:"from_account_id"`
	ToAccountID   int64  `json:"to_account_id"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	Description   string `json:"description"`
	Note          string `json:"note"`
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createTransferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDateOr("date", req.Date, s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	group, err := s.ledger.Transfers.CreateTransfer(r.Context(), services.TransferParams{
		OwnerID:       owner,
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        amount,
		Date:          date,
		Description:   req.Description,
		Note:          req.Note,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"transfer_group": group})
}
