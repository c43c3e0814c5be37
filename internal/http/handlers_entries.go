package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ledger/internal/core"
	"ledger/internal/services"
)

type recordEntryRequest struct {
	AccountID     int64  `json:"account_id"`
	CategoryID    *int64 `json:"category_id"`
	Kind          string `json:"kind"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	Description   string `json:"description"`
	Note          string `json:"note"`
	PaymentMethod string `json:"payment_method"`
}

func (s *Server) handleRecordEntry(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req recordEntryRequest
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

	id, err := s.ledger.Entries.RecordEntry(r.Context(), services.RecordEntryParams{
		OwnerID:       owner,
		AccountID:     req.AccountID,
		CategoryID:    req.CategoryID,
		Kind:          core.Kind(req.Kind),
		Amount:        amount,
		Date:          date,
		Description:   req.Description,
		Note:          req.Note,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"entry_id": id})
}

// editEntryRequest distinguishes an absent category from an explicit null,
// which clears it.
type editEntryRequest struct {
	AccountID     *int64          `json:"account_id"`
	CategoryID    json.RawMessage `json:"category_id"`
	Kind          *string         `json:"kind"`
	Amount        *string         `json:"amount"`
	Date          *string         `json:"date"`
	Description   *string         `json:"description"`
	Note          *string         `json:"note"`
	PaymentMethod *string         `json:"payment_method"`
}

func (req editEntryRequest) patch() (services.EntryPatch, error) {
	p := services.EntryPatch{
		AccountID:     req.AccountID,
		Description:   req.Description,
		Note:          req.Note,
		PaymentMethod: req.PaymentMethod,
	}
	if len(req.CategoryID) > 0 {
		if string(req.CategoryID) == "null" {
			p.ClearCategory = true
		} else {
			var id int64
			if err := json.Unmarshal(req.CategoryID, &id); err != nil {
				return p, fmt.Errorf("%w: category_id must be an integer or null", core.ErrInvalidArgument)
			}
			p.CategoryID = &id
		}
	}
	if req.Kind != nil {
		k := core.Kind(*req.Kind)
		p.Kind = &k
	}
	if req.Amount != nil {
		m, err := parseAmount("amount", *req.Amount)
		if err != nil {
			return p, err
		}
		p.Amount = &m
	}
	if req.Date != nil {
		d, err := core.ParseDate(*req.Date)
		if err != nil {
			return p, fmt.Errorf("date: %w", err)
		}
		p.Date = &d
	}
	return p, nil
}

func (s *Server) handleEditEntry(w http.ResponseWriter, r *http.Request) {
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
	var req editEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.ledger.Entries.EditEntry(r.Context(), owner, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newEntryResponse(e))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
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
	if err := s.ledger.Entries.DeleteEntry(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type settleRequest struct {
	BankAccountID int64  `json:"bank_account_id"`
	SettleDate    string `json:"settle_date"`
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
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
	var req settleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDateOr("settle_date", req.SettleDate, s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	group, err := s.ledger.Transfers.SettleCreditCardExpense(r.Context(), services.SettleParams{
		EntryID:       id,
		OwnerID:       owner,
		BankAccountID: req.BankAccountID,
		SettleDate:    date,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"transfer_group": group})
}
