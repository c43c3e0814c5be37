package http

import (
	"net/http"

	"ledger/internal/core"
)

type createAccountRequest struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	ClosingDay int    `json:"closing_day"`
}

type accountResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	ClosingDay int    `json:"closing_day,omitempty"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.ledger.Accounts.CreateAccount(r.Context(), core.Account{
		OwnerID:    owner,
		Name:       req.Name,
		Type:       core.AccountType(req.Type),
		ClosingDay: req.ClosingDay,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"account_id": id})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	accounts, err := s.ledger.Accounts.ListAccounts(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountResponse{ID: a.ID, Name: a.Name, Type: string(a.Type), ClosingDay: a.ClosingDay})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCompetence(w http.ResponseWriter, r *http.Request) {
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
	date, err := parseDateOr("date", r.URL.Query().Get("date"), s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.ledger.Accounts.GetAccount(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	period, err := s.ledger.Accounts.ComputeCompetencePeriod(r.Context(), id, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account_id": id,
		"date":       date.String(),
		"period":     period.String(),
	})
}

type createCategoryRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.ledger.Accounts.CreateCategory(r.Context(), core.Category{
		OwnerID: owner,
		Name:    req.Name,
		Kind:    core.Kind(req.Kind),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"category_id": id})
}
