package http

import (
	"net/http"
	"strings"

	"ledger/internal/core"
)

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	category, err := pathID(r, "category")
	if err != nil {
		writeError(w, r, err)
		return
	}
	period, err := core.ParseYearMonth(r.PathValue("period"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	status, err := s.ledger.Budgets.GetBudgetStatus(r.Context(), owner, category, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBudgetResponse(status))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	period := core.MonthOf(s.today())
	if v := strings.TrimSpace(r.URL.Query().Get("period")); v != "" {
		if period, err = core.ParseYearMonth(v); err != nil {
			writeError(w, r, err)
			return
		}
	}
	statuses, err := s.ledger.Budgets.ListBudgetStatuses(r.Context(), owner, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]budgetResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, newBudgetResponse(st))
	}
	writeJSON(w, http.StatusOK, out)
}

type setBudgetRequest struct {
	Ceiling string `json:"ceiling"`
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	category, err := pathID(r, "category")
	if err != nil {
		writeError(w, r, err)
		return
	}
	period, err := core.ParseYearMonth(r.PathValue("period"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req setBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ceiling, err := parseAmount("ceiling", req.Ceiling)
	if err != nil {
		writeError(w, r, err)
		return
	}
	err = s.ledger.Budgets.SetBudget(r.Context(), core.Budget{
		OwnerID:    owner,
		CategoryID: category,
		Period:     period,
		Ceiling:    ceiling,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	status, err := s.ledger.Budgets.GetBudgetStatus(r.Context(), owner, category, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBudgetResponse(status))
}
